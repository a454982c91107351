package parser

import (
	"iter"
	"strings"

	"github.com/c360studio/docgen/source"
)

const (
	// StartGuard opens a fenced Rust code block.
	StartGuard = "```rust"

	// EndGuard closes a fenced code block. It must start a line.
	EndGuard = "```\n"

	directiveQuestion = '?'
	directiveNoRun    = 'n'
)

// Cursor is a position in a document being scanned. It is a value: calling
// Next never changes the receiver, so scanning can restart from any cursor.
type Cursor struct {
	rest  string
	line  int
	index int
	done  bool
}

// Start returns a cursor at the beginning of text.
func Start(text string) Cursor {
	return Cursor{rest: text, line: 1}
}

// Rest returns the text still to be scanned.
func (c Cursor) Rest() string {
	return c.rest
}

// Done reports whether the cursor is exhausted.
func (c Cursor) Done() bool {
	return c.done
}

// Next returns the segment at the cursor and the cursor following it.
// ok is false once the document is exhausted. A start guard without a
// matching end guard, or followed by anything other than the directive
// flags and a newline, yields a *MalformedError.
//
// A document without code blocks yields exactly one passthrough segment
// holding the whole text. Otherwise empty passthrough text is skipped.
func (c Cursor) Next() (seg source.Segment, next Cursor, ok bool, err error) {
	if c.done {
		return source.Segment{}, c, false, nil
	}

	pos := strings.Index(c.rest, StartGuard)
	if pos < 0 {
		next = Cursor{line: c.line + strings.Count(c.rest, "\n"), index: c.index, done: true}
		if c.rest == "" && c.index > 0 {
			return source.Segment{}, next, false, nil
		}
		seg = source.Segment{Kind: source.Passthrough, Text: c.rest, Line: c.line}
		return seg, next, true, nil
	}

	if pos > 0 {
		text := c.rest[:pos]
		seg = source.Segment{Kind: source.Passthrough, Text: text, Line: c.line}
		next = Cursor{rest: c.rest[pos:], line: c.line + strings.Count(text, "\n"), index: c.index}
		return seg, next, true, nil
	}

	return c.codeBlock()
}

// codeBlock parses the fenced block that starts at the cursor.
func (c Cursor) codeBlock() (source.Segment, Cursor, bool, error) {
	after := c.rest[len(StartGuard):]

	var d source.Directives
	if len(after) > 0 && after[0] == directiveQuestion {
		d.Question = true
		after = after[1:]
	}
	if len(after) > 0 && after[0] == directiveNoRun {
		d.NoRun = true
		after = after[1:]
	}
	if !strings.HasPrefix(after, "\n") {
		return source.Segment{}, c, false, &MalformedError{
			Line:   c.line,
			Reason: "unexpected text after " + StartGuard + ": " + quoteLine(after),
		}
	}
	after = after[1:]

	end := findEndGuard(after)
	if end < 0 {
		return source.Segment{}, c, false, &MalformedError{
			Line:   c.line,
			Reason: "expecting end of code " + strings.TrimSuffix(EndGuard, "\n"),
		}
	}

	body := after[:end]
	consumed := len(c.rest) - len(after) + end + len(EndGuard)
	seg := source.Segment{
		Kind:       source.CodeBlock,
		Text:       body,
		Directives: d,
		Index:      c.index + 1,
		Line:       c.line,
	}
	next := Cursor{
		rest:  c.rest[consumed:],
		line:  c.line + strings.Count(c.rest[:consumed], "\n"),
		index: c.index + 1,
	}
	return seg, next, true, nil
}

// findEndGuard returns the offset of the first end guard in s that starts
// a line, or -1.
func findEndGuard(s string) int {
	for off := 0; off < len(s); {
		i := strings.Index(s[off:], EndGuard)
		if i < 0 {
			return -1
		}
		i += off
		if i == 0 || s[i-1] == '\n' {
			return i
		}
		off = i + 1
	}
	return -1
}

// quoteLine returns the first line of s, quoted, for error messages.
func quoteLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "end of input"
	}
	return "\"" + s + "\""
}

// Scan returns the segments of text in document order. The sequence stops
// after the first error. It holds no state of its own and can be ranged
// over any number of times.
func Scan(text string) iter.Seq2[source.Segment, error] {
	return func(yield func(source.Segment, error) bool) {
		cur := Start(text)
		for {
			seg, next, ok, err := cur.Next()
			if err != nil {
				yield(source.Segment{}, err)
				return
			}
			if !ok {
				return
			}
			if !yield(seg, nil) {
				return
			}
			cur = next
		}
	}
}

// ScanAll collects every segment of text. On error no segments are
// returned, so a malformed document is never partially processed.
func ScanAll(text string) ([]source.Segment, error) {
	var segments []source.Segment
	for seg, err := range Scan(text) {
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// CodeBlocks returns only the code block segments of text.
func CodeBlocks(text string) ([]source.Segment, error) {
	segments, err := ScanAll(text)
	if err != nil {
		return nil, err
	}
	var blocks []source.Segment
	for _, seg := range segments {
		if seg.IsCode() {
			blocks = append(blocks, seg)
		}
	}
	return blocks, nil
}
