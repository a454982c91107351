// Package runner compiles and runs generated programs through cargo.
package runner

import (
	"context"
	"errors"
	"time"
)

// Runner errors. Both are fatal for the whole run.
var (
	// ErrFilesystem indicates the example artifact could not be created or
	// removed.
	ErrFilesystem = errors.New("filesystem failure")

	// ErrUnavailable indicates the build tool could not be started.
	ErrUnavailable = errors.New("build tool unavailable")
)

// Request describes one program to build and optionally run.
type Request struct {
	// Target is the example name, for example "t3".
	Target string

	// Source is the full program text.
	Source string

	// NoRun builds the program without executing it.
	NoRun bool
}

// Result is the outcome of a build-and-run request.
type Result struct {
	// Success is true when the build tool exited with status zero.
	Success bool

	// ExitCode is the exit status of the build tool.
	ExitCode int

	// Stdout is the captured standard output of the program.
	Stdout string

	// Stderr is the captured standard error of the build tool and program.
	Stderr string

	// Duration is the wall time of the invocation.
	Duration time.Duration
}

// Runner builds and runs programs. A non-zero exit is reported through
// Result.Success, not as an error; errors are reserved for failures that
// should abort the run.
type Runner interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// Func adapts a function to the Runner interface.
type Func func(ctx context.Context, req Request) (*Result, error)

// Run calls f.
func (f Func) Run(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}
