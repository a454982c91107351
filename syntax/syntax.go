// Package syntax checks generated Rust programs for syntax errors with
// tree-sitter before they are handed to the compiler.
//
// The check is a preflight only. It does not replace the compiler, but it
// points at the snippet line that broke the parse without waiting for a
// full cargo build.
package syntax

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// Diagnostic is a syntax problem found in a program.
type Diagnostic struct {
	// Line is the 1-based line of the problem.
	Line int

	// Column is the 1-based column of the problem.
	Column int

	// Missing is true when the parser expected a token that is absent.
	Missing bool

	// Text is the offending source text, or the expected node type for
	// missing tokens.
	Text string
}

// String formats the diagnostic as "line:col: message".
func (d Diagnostic) String() string {
	if d.Missing {
		return fmt.Sprintf("%d:%d: missing %s", d.Line, d.Column, d.Text)
	}
	return fmt.Sprintf("%d:%d: unexpected %q", d.Line, d.Column, d.Text)
}

// Checker parses Rust source. It is not safe for concurrent use.
type Checker struct {
	parser *sitter.Parser
}

// NewChecker creates a checker for Rust source.
func NewChecker() *Checker {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())
	return &Checker{parser: parser}
}

// Check parses src and returns its syntax problems in source order. A
// clean parse returns no diagnostics.
func (c *Checker) Check(ctx context.Context, src []byte) ([]Diagnostic, error) {
	tree, err := c.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil, nil
	}

	var diags []Diagnostic
	collect(root, src, &diags)
	return diags, nil
}

// collect walks the subtrees that contain errors.
func collect(node *sitter.Node, src []byte, diags *[]Diagnostic) {
	switch {
	case node.IsMissing():
		*diags = append(*diags, diagnostic(node, node.Type(), true))
		return
	case node.Type() == "ERROR":
		*diags = append(*diags, diagnostic(node, firstLine(node.Content(src)), false))
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsMissing() {
			collect(child, src, diags)
		}
	}
}

func diagnostic(node *sitter.Node, text string, missing bool) Diagnostic {
	pos := node.StartPoint()
	return Diagnostic{
		Line:    int(pos.Row) + 1,
		Column:  int(pos.Column) + 1,
		Missing: missing,
		Text:    text,
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
