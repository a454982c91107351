// Package main provides the docgen binary entry point.
// Docgen compiles and runs Rust documentation snippets and prints them back
// as doc comments, ready to paste into a crate.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/docgen/config"
	"github.com/c360studio/docgen/runner"
	"github.com/c360studio/docgen/source"
	"github.com/c360studio/docgen/watch"
)

const (
	Version   = "0.2.0"
	BuildTime = "dev"
	appName   = "docgen"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the values of the command line flags.
type options struct {
	configPath string
	watch      bool
	debounce   time.Duration

	// flags is the top configuration layer.
	flags config.Config
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "docgen [flags] <document>...",
		Short: "Compile and run Rust doc snippets",
		Long: `Docgen compiles and runs Rust documentation snippets and prints them
as doc comments.

A plain snippet file becomes one doc test. Markdown documents (--module-doc,
or any .md file) are scanned for ` + "```rust" + ` blocks; every block is run as
an example of the enclosing Cargo crate and the whole document is printed
as module documentation. A block opened with ` + "```rust?" + ` may use the ?
operator, ` + "```rustn" + ` is only compiled. Blocks verified in an earlier
run are remembered in <document>.cache and not run again.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML); replaces docgen.yaml discovery")
	f.StringVar(&opts.flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.BoolVarP(&opts.flags.Module, "module", "m", false, "Module comments (//!) instead of item comments (///)")
	f.BoolVarP(&opts.flags.ModuleDoc, "module-doc", "M", false, "Input is a Markdown file with code examples; implies --module")
	f.BoolVarP(&opts.flags.Question, "question", "q", false, "Allow ? error handling in snippets")
	f.BoolVarP(&opts.flags.NoRun, "no-run", "n", false, "Compile snippets without running them")
	f.StringVarP(&opts.flags.Indent, "indent", "i", "", "Item comment indent in spaces ('4') or tabs ('1t')")
	f.StringVar(&opts.flags.Crate, "crate", "", "Crate referenced by snippets (default: from Cargo.toml)")
	f.StringVar(&opts.flags.CrateRoot, "crate-root", "", "Directory holding Cargo.toml (default: nearest above the working directory)")
	f.StringVar(&opts.flags.Cargo, "cargo", "", "Build tool binary (default: cargo)")
	f.BoolVar(&opts.flags.SkipSyntaxCheck, "no-syntax-check", false, "Skip the syntax preflight")
	f.StringVar(&opts.flags.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	f.StringVar(&opts.flags.OutDir, "out-dir", "", "Write <out-dir>/<document>.rs instead of printing to stdout")

	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Regenerate documents when they change (requires --out-dir)")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", watch.DefaultDebounce, "Delay before handling a change in watch mode")

	cmd.AddCommand(versionCmd(), configCmd(opts))

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}

func configCmd(opts *options) *cobra.Command {
	var initUser bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(opts.flags.LogLevel, cmd.ErrOrStderr())
			loader := config.NewLoader(logger).WithFile(opts.configPath)
			if initUser {
				if err := loader.EnsureUserConfig(); err != nil {
					return fmt.Errorf("create user config: %w", err)
				}
			}

			cfg, err := loader.Load(&opts.flags)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&initUser, "init", false, "Create the user config file with defaults if it does not exist")
	return cmd
}

func run(ctx context.Context, opts *options, args []string, stdout, stderr io.Writer) error {
	runID := uuid.NewString()
	logger := newLogger(opts.flags.LogLevel, stderr).With("run_id", runID)
	slog.SetDefault(logger)

	cfg, err := config.NewLoader(logger).WithFile(opts.configPath).Load(&opts.flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The config files may set a level the flag did not.
	logger = newLogger(cfg.LogLevel, stderr).With("run_id", runID)
	slog.SetDefault(logger)

	paths, err := source.Expand(args)
	if err != nil {
		return err
	}

	cargo := runner.NewCargo(cfg.CrateRoot, cfg.Examples).
		WithBinary(cfg.Cargo).
		WithStderr(stderr).
		WithLogger(logger)
	app := NewApp(cfg, cargo, logger, stdout, stderr)

	logger.Debug("Starting run",
		"version", Version,
		"crate", cfg.Crate,
		"documents", len(paths))

	if opts.watch {
		return app.Watch(ctx, paths, opts.debounce)
	}
	return app.Process(ctx, paths)
}

func newLogger(logLevel string, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
