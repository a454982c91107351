// Package comment renders text as Rust line comments.
package comment

import "strings"

// Style selects the doc comment flavour used for generated output.
type Style int

const (
	// Item produces outer doc comments (///) attached to the next item.
	Item Style = iota
	// Module produces inner doc comments (//!) for the enclosing module.
	Module
)

// String returns the style name.
func (s Style) String() string {
	if s == Module {
		return "module"
	}
	return "item"
}

// Marker returns the comment marker for the style. Module comments sit at
// the top of a file, so indent only applies to item comments.
func Marker(style Style, indent string) string {
	if style == Module {
		return "//!"
	}
	return indent + "///"
}

// Indent prefixes every line of text with prefix followed by a space.
// Each emitted line is newline-terminated, including a final line that was
// not terminated in text. Empty text yields empty output.
func Indent(text, prefix string) string {
	var b strings.Builder
	Append(&b, text, prefix)
	return b.String()
}

// Append writes the indented form of text to b.
func Append(b *strings.Builder, text, prefix string) {
	for _, line := range Lines(text) {
		b.WriteString(prefix)
		b.WriteByte(' ')
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// Lines splits text into lines. A trailing newline does not start a new
// line and a carriage return before the newline is dropped.
func Lines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
