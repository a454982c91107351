// Package program turns documentation snippets into standalone Rust
// programs and renders them back as documentation examples.
//
// A snippet is wrapped the way rustdoc wraps doc tests: crate-level
// attributes are hoisted, a reference to the documented crate is added
// unless the snippet declares its own, and the body is placed inside
// fn main. When the question style is requested the body is hosted in a
// fallible run function instead, so the ? operator can be used.
package program

import (
	"fmt"
	"strings"

	"github.com/c360studio/docgen/comment"
)

// allowedLints are silenced in every generated program.
var allowedLints = []string{
	"unused_variables",
	"unused_assignments",
	"unused_mut",
	"unused_attributes",
	"dead_code",
	"unreachable_code",
}

const (
	externCrate    = "extern crate"
	attributeStart = "#!["

	runSignature = "fn run() -> std::result::Result<(), Box<dyn std::error::Error>> {\n"
	runEpilogue  = "Ok(())\n}\n\nfn main() {\n    run().unwrap();\n}\n"
)

// Options controls how a snippet is wrapped.
type Options struct {
	// Crate is the crate referenced by the generated program. Empty means
	// no crate reference is added.
	Crate string

	// Question hosts the body in a run function returning a Result.
	Question bool
}

// Program is a compilable program derived from a snippet.
type Program struct {
	// Source is the full program text handed to the compiler.
	Source string

	// Code is the snippet body without its crate-level attributes.
	Code string

	// Attributes holds the crate-level attribute lines of the snippet.
	Attributes string

	// Before is the scaffold emitted ahead of Code. Empty unless the
	// question style is used.
	Before string

	// After is the scaffold emitted after Code. Empty unless the question
	// style is used.
	After string
}

// Transform wraps a snippet body into a program. It never fails: bodies
// that do not compile surface as build failures later.
func Transform(opts Options, body string) *Program {
	var attrs, code strings.Builder
	for _, line := range comment.Lines(body) {
		if strings.HasPrefix(line, attributeStart) {
			attrs.WriteString(line)
			attrs.WriteByte('\n')
		} else {
			code.WriteString(line)
			code.WriteByte('\n')
		}
	}

	p := &Program{
		Code:       code.String(),
		Attributes: attrs.String(),
	}

	var src strings.Builder
	src.WriteString(p.Attributes)
	for _, lint := range allowedLints {
		fmt.Fprintf(&src, "#![allow(%s)]\n", lint)
	}
	if opts.Crate != "" && !strings.Contains(body, externCrate) {
		fmt.Fprintf(&src, "%s %s;\n", externCrate, opts.Crate)
	}

	if opts.Question {
		p.Before = runSignature
		p.After = runEpilogue
		src.WriteString(p.Before)
		src.WriteString(p.Code)
		src.WriteString(p.After)
	} else {
		src.WriteString("fn main() {\n")
		src.WriteString(p.Code)
		src.WriteString("}\n")
	}

	p.Source = src.String()
	return p
}

// Format renders the program as a fenced documentation example using the
// given comment marker. Scaffold lines are emitted as hidden lines so they
// do not show up in rendered documentation.
func (p *Program) Format(marker string, noRun bool) string {
	attr := ""
	if noRun {
		attr = "rust,no_run"
	}
	hidden := marker + " #"

	var b strings.Builder
	b.WriteString(marker + " ```" + attr + "\n")
	comment.Append(&b, p.Attributes, marker)
	comment.Append(&b, p.Before, hidden)
	comment.Append(&b, p.Code, marker)
	comment.Append(&b, p.After, hidden)
	b.WriteString(marker + " ```\n")
	return b.String()
}
