// Package generator turns documents with Rust snippets into verified
// documentation comments.
//
// Every snippet is wrapped into a program, built (and usually run) through
// a runner, and emitted again as a fenced doc comment example. Markdown
// documents are scanned for ```rust blocks and the bodies already verified
// in an earlier run are skipped using a per-document cache.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/c360studio/docgen/cache"
	"github.com/c360studio/docgen/comment"
	"github.com/c360studio/docgen/config"
	"github.com/c360studio/docgen/metrics"
	"github.com/c360studio/docgen/program"
	"github.com/c360studio/docgen/runner"
	"github.com/c360studio/docgen/source"
	"github.com/c360studio/docgen/source/parser"
	"github.com/c360studio/docgen/syntax"
)

// ErrExecutionFailed is returned in snippet mode when the snippet does not
// build or run successfully.
var ErrExecutionFailed = errors.New("snippet execution failed")

// Snippet mode banners, written to the diagnostic stream.
const (
	outputBanner = "****** tests will ignore this output ****"
	outputFooter = "******"
	copyBanner   = "****** Copy and paste this into your code ******"
)

// Report summarizes the processing of one document.
type Report struct {
	// Path is the document path.
	Path string
	// Blocks is the number of code blocks found.
	Blocks int
	// Executed is the number of blocks handed to the runner.
	Executed int
	// Cached is the number of blocks skipped because the cache had them.
	Cached int
	// Failed is the number of executed blocks that did not succeed.
	Failed int
	// Warnings is the number of blocks with syntax preflight problems.
	Warnings int
}

// Generator processes documents. It is not safe for concurrent use.
type Generator struct {
	cfg     *config.Config
	runner  runner.Runner
	logger  *slog.Logger
	checker *syntax.Checker
	metrics *metrics.Metrics
	diag    io.Writer
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithSyntaxChecker enables the syntax preflight.
func WithSyntaxChecker(checker *syntax.Checker) Option {
	return func(g *Generator) {
		g.checker = checker
	}
}

// WithMetrics records processing metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// WithDiagnostics sets the stream for snippet mode banners and program
// output. Defaults to io.Discard.
func WithDiagnostics(w io.Writer) Option {
	return func(g *Generator) {
		if w != nil {
			g.diag = w
		}
	}
}

// New creates a generator that executes programs through r.
func New(cfg *config.Config, r runner.Runner, opts ...Option) *Generator {
	g := &Generator{
		cfg:    cfg,
		runner: r,
		logger: slog.Default(),
		diag:   io.Discard,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// settings are the effective defaults for one document.
type settings struct {
	crate    string
	question bool
	noRun    bool
	marker   string
}

func (g *Generator) settings(doc *source.Document) (settings, error) {
	cfg := g.cfg.Clone()
	if doc.Markdown {
		cfg.ModuleDoc = true
	}
	if fm := doc.Frontmatter; fm != nil {
		if fm.Crate != "" {
			cfg.Crate = fm.Crate
		}
		if fm.Question != nil {
			cfg.Question = *fm.Question
		}
		if fm.NoRun != nil {
			cfg.NoRun = *fm.NoRun
		}
	}

	marker, err := cfg.Marker()
	if err != nil {
		return settings{}, err
	}
	return settings{
		crate:    cfg.Crate,
		question: cfg.Question,
		noRun:    cfg.NoRun,
		marker:   marker,
	}, nil
}

// Generate processes doc in the mode it was parsed for: Markdown documents
// are scanned for code blocks, anything else is a single snippet.
func (g *Generator) Generate(ctx context.Context, doc *source.Document, w io.Writer) (*Report, error) {
	var (
		report *Report
		err    error
	)
	if doc.Markdown {
		report, err = g.Document(ctx, doc, w)
	} else {
		report, err = g.Snippet(ctx, doc, w)
	}
	g.metrics.Document(err)
	return report, err
}

// Document processes a Markdown document. The whole document is scanned
// before anything runs, so malformed input produces neither executions
// nor output. Output is buffered and written to w only once every block
// has been processed and the cache has been saved.
//
// A block that fails to build or run is logged and counted; processing
// continues with the next block.
func (g *Generator) Document(ctx context.Context, doc *source.Document, w io.Writer) (*Report, error) {
	s, err := g.settings(doc)
	if err != nil {
		return nil, err
	}

	segments, err := parser.ScanAll(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", doc.Path, err)
	}

	snippets, err := cache.Load(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}

	report := &Report{Path: doc.Path}
	var out strings.Builder
	for _, seg := range segments {
		if !seg.IsCode() {
			comment.Append(&out, seg.Text, s.marker)
			continue
		}
		report.Blocks++

		// Directives apply to this block only.
		question := s.question || seg.Directives.Question
		noRun := s.noRun || seg.Directives.NoRun
		prog := program.Transform(program.Options{Crate: s.crate, Question: question}, seg.Text)
		g.preflight(ctx, report, seg.Target(), seg.Line, prog)

		if snippets.Contains(seg.Text) {
			report.Cached++
			g.metrics.Snippet(metrics.OutcomeCached)
			g.logger.Debug("Skipping cached snippet",
				slog.String("document", doc.Path),
				slog.String("target", seg.Target()))
		} else {
			if err := snippets.Record(seg.Text); err != nil {
				if !errors.Is(err, cache.ErrReservedDelimiter) {
					return nil, err
				}
				g.logger.Warn("Snippet cannot be cached and will run every time",
					slog.String("document", doc.Path),
					slog.String("target", seg.Target()),
					slog.Int("line", seg.Line))
			}

			result, err := g.execute(ctx, seg.Target(), prog, noRun)
			if err != nil {
				return nil, err
			}
			report.Executed++
			if result.Success {
				g.metrics.Snippet(metrics.OutcomePassed)
				if result.Stdout != "" {
					comment.Append(&out, result.Stdout, s.marker+" // ")
				}
			} else {
				report.Failed++
				g.metrics.Snippet(metrics.OutcomeFailed)
				g.logger.Warn("Snippet failed",
					slog.String("document", doc.Path),
					slog.String("target", seg.Target()),
					slog.Int("line", seg.Line),
					slog.Int("exit_code", result.ExitCode))
			}
		}

		out.WriteString(prog.Format(s.marker, noRun))
	}

	if err := snippets.Save(); err != nil {
		return nil, fmt.Errorf("save cache: %w", err)
	}

	if _, err := io.WriteString(w, out.String()); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}

	g.logger.Info("Generated document",
		slog.String("document", doc.Path),
		slog.Int("blocks", report.Blocks),
		slog.Int("executed", report.Executed),
		slog.Int("cached", report.Cached),
		slog.Int("failed", report.Failed),
		slog.Int("warnings", report.Warnings))
	return report, nil
}

// Snippet processes a document holding a single snippet. The program is
// named after the document, so "hello.rs" builds the example "hello". On
// failure nothing is written to w and ErrExecutionFailed is returned.
func (g *Generator) Snippet(ctx context.Context, doc *source.Document, w io.Writer) (*Report, error) {
	s, err := g.settings(doc)
	if err != nil {
		return nil, err
	}

	target := snippetTarget(doc)
	prog := program.Transform(program.Options{Crate: s.crate, Question: s.question}, doc.Body)
	report := &Report{Path: doc.Path, Blocks: 1}
	g.preflight(ctx, report, target, 1, prog)

	result, err := g.execute(ctx, target, prog, s.noRun)
	if err != nil {
		return nil, err
	}
	report.Executed++

	if !result.Success {
		report.Failed++
		g.metrics.Snippet(metrics.OutcomeFailed)
		return report, fmt.Errorf("%s: %w (exit code %d)", target, ErrExecutionFailed, result.ExitCode)
	}
	g.metrics.Snippet(metrics.OutcomePassed)

	if result.Stdout != "" {
		fmt.Fprintln(g.diag, outputBanner)
		fmt.Fprintf(g.diag, "%s\n%s\n", strings.TrimSuffix(result.Stdout, "\n"), outputFooter)
	}
	fmt.Fprintf(g.diag, "%s\n\n", copyBanner)

	if _, err := io.WriteString(w, prog.Format(s.marker, s.noRun)); err != nil {
		return nil, fmt.Errorf("write output: %w", err)
	}
	return report, nil
}

func (g *Generator) execute(ctx context.Context, target string, prog *program.Program, noRun bool) (*runner.Result, error) {
	g.logger.Debug("Running snippet",
		slog.String("target", target),
		slog.Bool("no_run", noRun))

	result, err := g.runner.Run(ctx, runner.Request{
		Target: target,
		Source: prog.Source,
		NoRun:  noRun,
	})
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", target, err)
	}
	g.metrics.ObserveExecution(result.Duration)
	return result, nil
}

// preflight logs syntax problems in the generated program. It never fails
// the snippet; the build tool has the final word.
func (g *Generator) preflight(ctx context.Context, report *Report, target string, line int, prog *program.Program) {
	if g.checker == nil {
		return
	}
	diags, err := g.checker.Check(ctx, []byte(prog.Source))
	if err != nil {
		g.logger.Debug("Syntax check skipped", slog.String("target", target), slog.String("error", err.Error()))
		return
	}
	if len(diags) == 0 {
		return
	}
	report.Warnings++
	g.logger.Warn("Snippet has syntax errors",
		slog.String("target", target),
		slog.Int("line", line),
		slog.String("first", diags[0].String()),
		slog.Int("count", len(diags)))
}

func snippetTarget(doc *source.Document) string {
	name := doc.Filename
	if name == "" {
		name = filepath.Base(doc.Path)
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" || stem == "." {
		return "snippet"
	}
	return stem
}
