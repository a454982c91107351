package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// DefaultBinary is the build tool invoked when none is configured.
const DefaultBinary = "cargo"

// Cargo runs programs as examples of a cargo project. Each program is
// written to the examples directory, built or run with
// "cargo build|run --example", and removed afterwards.
type Cargo struct {
	crateRoot   string
	examplesDir string
	binary      string
	stderr      io.Writer
	logger      *slog.Logger
}

// NewCargo creates a runner for the crate rooted at crateRoot.
func NewCargo(crateRoot, examplesDir string) *Cargo {
	return &Cargo{
		crateRoot:   crateRoot,
		examplesDir: examplesDir,
		binary:      DefaultBinary,
		logger:      slog.Default(),
	}
}

// WithBinary overrides the build tool executable.
func (c *Cargo) WithBinary(binary string) *Cargo {
	if binary != "" {
		c.binary = binary
	}
	return c
}

// WithStderr echoes the build tool's standard error to w.
func (c *Cargo) WithStderr(w io.Writer) *Cargo {
	c.stderr = w
	return c
}

// WithLogger sets the logger.
func (c *Cargo) WithLogger(logger *slog.Logger) *Cargo {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Args returns the build tool arguments for a request.
func Args(req Request) []string {
	verb := "run"
	if req.NoRun {
		verb = "build"
	}
	return []string{verb, "-q", "--color", "always", "--example", req.Target}
}

// Run writes the program, invokes the build tool and removes the program
// again.
func (c *Cargo) Run(ctx context.Context, req Request) (*Result, error) {
	if err := os.MkdirAll(c.examplesDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create examples directory: %w", ErrFilesystem, err)
	}

	file := filepath.Join(c.examplesDir, req.Target+".rs")
	if err := writeExample(file, req.Source); err != nil {
		return nil, err
	}

	args := Args(req)
	c.logger.Debug("Invoking build tool",
		"binary", c.binary,
		"args", args,
		"dir", c.crateRoot)

	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Dir = c.crateRoot
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if result.Stderr != "" && c.stderr != nil {
		fmt.Fprintln(c.stderr, result.Stderr)
	}

	if err := os.Remove(file); err != nil {
		return nil, fmt.Errorf("%w: remove example: %w", ErrFilesystem, err)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		result.Success = true
	case errors.As(runErr, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, c.binary, runErr)
	}

	return result, nil
}

// writeExample creates file with src. An existing file belongs to the user
// and is never replaced.
func writeExample(file, src string) error {
	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: example %s already exists", ErrFilesystem, file)
	}
	if err != nil {
		return fmt.Errorf("%w: write example: %w", ErrFilesystem, err)
	}
	if _, err := f.WriteString(src); err != nil {
		_ = f.Close()
		_ = os.Remove(file)
		return fmt.Errorf("%w: write example: %w", ErrFilesystem, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(file)
		return fmt.Errorf("%w: write example: %w", ErrFilesystem, err)
	}
	return nil
}
