package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/c360studio/docgen/cache"
	"github.com/c360studio/docgen/config"
	"github.com/c360studio/docgen/generator"
	"github.com/c360studio/docgen/metrics"
	"github.com/c360studio/docgen/runner"
	"github.com/c360studio/docgen/source/parser"
	"github.com/c360studio/docgen/syntax"
	"github.com/c360studio/docgen/watch"
)

// App wires the configuration, the document parsers and the generator.
type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *parser.Registry
	generator *generator.Generator
	metrics   *metrics.Metrics
	stdout    io.Writer
}

// NewApp creates an application that builds programs through r. Generated
// output goes to stdout unless an output directory is configured; snippet
// mode banners go to stderr.
func NewApp(cfg *config.Config, r runner.Runner, logger *slog.Logger, stdout, stderr io.Writer) *App {
	if logger == nil {
		logger = slog.Default()
	}
	m := metrics.New()

	opts := []generator.Option{
		generator.WithLogger(logger),
		generator.WithMetrics(m),
		generator.WithDiagnostics(stderr),
	}
	if !cfg.SkipSyntaxCheck {
		opts = append(opts, generator.WithSyntaxChecker(syntax.NewChecker()))
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		registry:  parser.DefaultRegistry,
		generator: generator.New(cfg, r, opts...),
		metrics:   m,
		stdout:    stdout,
	}
}

// Process generates every document in turn. A document that cannot be
// processed is logged and the others still run, except for unreadable
// caches and runner failures, which abort the run. Metrics are written
// however the run ends.
func (a *App) Process(ctx context.Context, paths []string) (err error) {
	if len(paths) > 1 && a.cfg.OutDir == "" {
		return errors.New("several documents need --out-dir")
	}
	if a.cfg.OutDir != "" {
		if err := checkOutputs(a.cfg.OutDir, paths); err != nil {
			return err
		}
	}

	defer func() {
		if merr := a.writeMetrics(); merr != nil {
			err = errors.Join(err, merr)
		}
	}()

	var errs []error
	for _, path := range paths {
		if err := a.processFile(ctx, path); err != nil {
			if fatal(ctx, err) {
				return err
			}
			a.logger.Error("Failed to process document", "path", path, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Watch generates every document and then regenerates the ones that
// change until ctx is done.
func (a *App) Watch(ctx context.Context, paths []string, debounce time.Duration) error {
	if a.cfg.OutDir == "" {
		return errors.New("watch mode needs --out-dir")
	}
	if err := checkOutputs(a.cfg.OutDir, paths); err != nil {
		return err
	}

	if err := a.Process(ctx, paths); err != nil {
		if fatal(ctx, err) {
			return err
		}
	}

	w, err := watch.New(paths, debounce, a.logger)
	if err != nil {
		return err
	}
	return w.Run(ctx, func(ctx context.Context, event watch.Event) error {
		if event.Operation == watch.OpDelete {
			a.logger.Info("Document removed", "path", event.Path)
			return nil
		}
		err := a.processFile(ctx, event.Path)
		if merr := a.writeMetrics(); merr != nil {
			a.logger.Warn("Failed to write metrics", "error", merr)
		}
		return err
	})
}

func (a *App) processFile(ctx context.Context, path string) error {
	mimeType := ""
	if a.cfg.ModuleDoc {
		mimeType = "text/markdown"
	}
	doc, err := a.registry.Load(path, mimeType)
	if err != nil {
		return err
	}

	if a.cfg.OutDir == "" {
		_, err := a.generator.Generate(ctx, doc, a.stdout)
		return err
	}

	out, err := OutputPath(a.cfg.OutDir, path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := a.generator.Generate(ctx, doc, &buf); err != nil {
		return err
	}
	if err := os.MkdirAll(a.cfg.OutDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	a.logger.Debug("Wrote output", "document", path, "output", out)
	return nil
}

func (a *App) writeMetrics() error {
	if a.cfg.MetricsFile == "" {
		return nil
	}
	return a.metrics.WriteTextfile(a.cfg.MetricsFile)
}

// OutputPath returns <outDir>/<document stem>.rs. It refuses to return the
// document itself.
func OutputPath(outDir, document string) (string, error) {
	base := filepath.Base(document)
	out := filepath.Join(outDir, strings.TrimSuffix(base, filepath.Ext(base))+".rs")

	absOut, err := filepath.Abs(out)
	if err != nil {
		return "", err
	}
	absDoc, err := filepath.Abs(document)
	if err != nil {
		return "", err
	}
	if absOut == absDoc {
		return "", fmt.Errorf("output %s would overwrite the document", out)
	}
	return out, nil
}

// checkOutputs fails when two documents would be written to the same
// output file.
func checkOutputs(outDir string, paths []string) error {
	owners := make(map[string]string, len(paths))
	for _, path := range paths {
		out, err := OutputPath(outDir, path)
		if err != nil {
			return err
		}
		if prev, ok := owners[out]; ok {
			return fmt.Errorf("%s and %s would both be written to %s", prev, path, out)
		}
		owners[out] = path
	}
	return nil
}

// fatal reports whether err must stop the whole run.
func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, cache.ErrUnreadable) ||
		errors.Is(err, runner.ErrFilesystem) ||
		errors.Is(err, runner.ErrUnavailable)
}
