// Package parser reads documents and scans them for fenced Rust code
// blocks.
package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/docgen/source"
)

// frontmatterKey is the top-level YAML key holding docgen overrides.
const frontmatterKey = "docgen"

// MarkdownParser parses Markdown documents with optional YAML frontmatter.
type MarkdownParser struct{}

// NewMarkdownParser creates a new markdown parser.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// Parse parses a markdown document. A leading frontmatter block is only
// consumed when it carries a docgen key; anything else is left in the body
// and passed through like ordinary text.
func (p *MarkdownParser) Parse(filename string, content []byte) (*source.Document, error) {
	str := string(content)
	doc := &source.Document{
		Path:     filename,
		Filename: filepath.Base(filename),
		Content:  str,
		Body:     str,
		Markdown: true,
	}

	if strings.HasPrefix(str, "---\n") || strings.HasPrefix(str, "---\r\n") {
		overrides, body, err := extractFrontmatter(str)
		if err == nil && overrides != nil {
			doc.Frontmatter = overrides
			doc.Body = body
		}
	}

	return doc, nil
}

// CanParse returns true if this parser can handle the given MIME type.
func (p *MarkdownParser) CanParse(mimeType string) bool {
	switch mimeType {
	case "text/markdown", "text/x-markdown":
		return true
	default:
		return false
	}
}

// MimeType returns the primary MIME type for this parser.
func (p *MarkdownParser) MimeType() string {
	return "text/markdown"
}

// extractFrontmatter parses YAML frontmatter from markdown content.
// Returns the docgen overrides (nil when the key is absent), the remaining
// body, and any error.
func extractFrontmatter(content string) (*source.Overrides, string, error) {
	const delimiter = "---"

	// Skip the opening delimiter
	start := len(delimiter)
	if len(content) > start && content[start] == '\r' {
		start++
	}
	if len(content) > start && content[start] == '\n' {
		start++
	}

	// Find a closing delimiter that occupies a whole line
	closeIdx := -1
	for off := start; off <= len(content); {
		i := strings.Index(content[off:], "\n"+delimiter)
		if i < 0 {
			break
		}
		i += off
		end := i + 1 + len(delimiter)
		if end == len(content) || content[end] == '\n' || content[end] == '\r' {
			closeIdx = i
			break
		}
		off = i + 1
	}
	if closeIdx < 0 {
		return nil, content, fmt.Errorf("no closing frontmatter delimiter")
	}

	yamlContent := content[start:closeIdx]

	// The body starts after the closing delimiter line
	bodyStart := closeIdx + 1 + len(delimiter)
	if bodyStart < len(content) && content[bodyStart] == '\r' {
		bodyStart++
	}
	if bodyStart < len(content) && content[bodyStart] == '\n' {
		bodyStart++
	}

	var fm map[string]yaml.Node
	if err := yaml.Unmarshal([]byte(yamlContent), &fm); err != nil {
		return nil, content, fmt.Errorf("parse YAML frontmatter: %w", err)
	}
	node, ok := fm[frontmatterKey]
	if !ok {
		return nil, content, nil
	}

	overrides := &source.Overrides{}
	if err := node.Decode(overrides); err != nil {
		return nil, content, fmt.Errorf("decode %s frontmatter: %w", frontmatterKey, err)
	}

	return overrides, content[bodyStart:], nil
}

// SnippetParser treats a whole file as a single snippet.
type SnippetParser struct{}

// NewSnippetParser creates a new snippet parser.
func NewSnippetParser() *SnippetParser {
	return &SnippetParser{}
}

// Parse returns the document with its full content as the body.
func (p *SnippetParser) Parse(filename string, content []byte) (*source.Document, error) {
	return &source.Document{
		Path:     filename,
		Filename: filepath.Base(filename),
		Content:  string(content),
		Body:     string(content),
	}, nil
}

// CanParse returns true if this parser can handle the given MIME type.
func (p *SnippetParser) CanParse(mimeType string) bool {
	switch mimeType {
	case "text/rust", "text/x-rust", "text/plain":
		return true
	default:
		return false
	}
}

// MimeType returns the primary MIME type for this parser.
func (p *SnippetParser) MimeType() string {
	return "text/rust"
}

// ContentHash returns the hex SHA-256 of content.
func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}
