// Package source provides types for documents and the snippets extracted
// from them.
package source

import "fmt"

// Document is a source file under processing. It is read once and never
// mutated afterwards.
type Document struct {
	// Path is the filesystem path the document was read from.
	Path string `json:"path"`

	// Filename is the base name of Path.
	Filename string `json:"filename"`

	// Content is the raw document content.
	Content string `json:"content"`

	// Body is the content without a consumed frontmatter block.
	Body string `json:"body"`

	// Markdown is true when the document is scanned for fenced code blocks.
	// Otherwise the whole body is one snippet.
	Markdown bool `json:"markdown"`

	// Frontmatter holds per-document overrides, if present.
	Frontmatter *Overrides `json:"frontmatter,omitempty"`
}

// HasFrontmatter returns true if the document carries overrides.
func (d *Document) HasFrontmatter() bool {
	return d.Frontmatter != nil
}

// Overrides are per-document settings read from the docgen key of a YAML
// frontmatter block. Nil fields leave the configured value untouched.
type Overrides struct {
	// Crate replaces the crate referenced by generated programs.
	Crate string `yaml:"crate" json:"crate,omitempty"`

	// Question sets the default error propagation style.
	Question *bool `yaml:"question" json:"question,omitempty"`

	// NoRun sets the default compile-only flag.
	NoRun *bool `yaml:"no_run" json:"no_run,omitempty"`
}

// SegmentKind discriminates the segments produced by scanning a document.
type SegmentKind int

// Passthrough and CodeBlock enumerate the segment kinds.
const (
	Passthrough SegmentKind = iota
	CodeBlock
)

// String returns the kind name.
func (k SegmentKind) String() string {
	switch k {
	case Passthrough:
		return "passthrough"
	case CodeBlock:
		return "code"
	default:
		return fmt.Sprintf("SegmentKind(%d)", int(k))
	}
}

// Directives are the per-block flags that follow a start guard.
type Directives struct {
	// Question requests the ? error propagation style (directive "?").
	Question bool `json:"question,omitempty"`

	// NoRun requests compilation only (directive "n").
	NoRun bool `json:"no_run,omitempty"`
}

// Segment is one piece of a scanned document: either passthrough text or
// the body of a fenced code block.
type Segment struct {
	// Kind is the segment kind.
	Kind SegmentKind `json:"kind"`

	// Text is the passthrough text or the code block body.
	Text string `json:"text"`

	// Directives are the block flags. Zero for passthrough segments.
	Directives Directives `json:"directives"`

	// Index is the 1-based ordinal of a code block within its document.
	// Zero for passthrough segments.
	Index int `json:"index,omitempty"`

	// Line is the 1-based line where the segment starts. For code blocks
	// it is the line of the start guard.
	Line int `json:"line"`
}

// IsCode reports whether the segment is a code block.
func (s Segment) IsCode() bool {
	return s.Kind == CodeBlock
}

// Target returns the synthetic example name derived from the block
// ordinal, for example "t3" for the third block.
func (s Segment) Target() string {
	return fmt.Sprintf("t%d", s.Index)
}
