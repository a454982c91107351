package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/c360studio/docgen/source"
)

// Parser defines the interface for document parsers.
type Parser interface {
	// Parse parses a document and returns structured data.
	Parse(filename string, content []byte) (*source.Document, error)

	// CanParse returns true if this parser handles the given MIME type.
	CanParse(mimeType string) bool

	// MimeType returns the primary MIME type for this parser.
	MimeType() string
}

// Registry manages document parsers.
type Registry struct {
	mu       sync.RWMutex
	parsers  map[string]Parser // keyed by primary MIME type
	fallback Parser
}

// DefaultRegistry is the global parser registry with default parsers.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new parser registry with default parsers.
// Files of unknown type are read as bare snippets.
func NewRegistry() *Registry {
	snippets := NewSnippetParser()
	r := &Registry{
		parsers:  make(map[string]Parser),
		fallback: snippets,
	}

	r.Register(NewMarkdownParser())
	r.Register(snippets)

	return r
}

// Register adds a parser to the registry.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.MimeType()] = p
}

// GetByMimeType returns a parser for the given MIME type, or nil.
func (r *Registry) GetByMimeType(mimeType string) Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.parsers[mimeType]; ok {
		return p
	}
	for _, p := range r.parsers {
		if p.CanParse(mimeType) {
			return p
		}
	}
	return nil
}

// GetByExtension returns a parser for a file based on its extension.
func (r *Registry) GetByExtension(filename string) Parser {
	if p := r.GetByMimeType(MimeTypeFromExtension(filepath.Ext(filename))); p != nil {
		return p
	}
	return r.fallback
}

// Parse parses a document using the parser matching its extension.
func (r *Registry) Parse(filename string, content []byte) (*source.Document, error) {
	return r.GetByExtension(filename).Parse(filename, content)
}

// ParseAs parses a document with the parser for mimeType regardless of
// its extension.
func (r *Registry) ParseAs(mimeType, filename string, content []byte) (*source.Document, error) {
	p := r.GetByMimeType(mimeType)
	if p == nil {
		return nil, fmt.Errorf("no parser for MIME type: %s", mimeType)
	}
	return p.Parse(filename, content)
}

// Load reads and parses the document at path. When mimeType is empty the
// parser is chosen by extension.
func (r *Registry) Load(path, mimeType string) (*source.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if mimeType == "" {
		return r.Parse(path, content)
	}
	return r.ParseAs(mimeType, path, content)
}

// IsMarkdown reports whether filename has a Markdown extension.
func IsMarkdown(filename string) bool {
	return MimeTypeFromExtension(filepath.Ext(filename)) == "text/markdown"
}

// MimeTypeFromExtension returns the MIME type for a file extension.
func MimeTypeFromExtension(ext string) string {
	ext = strings.ToLower(ext)
	switch ext {
	case ".md", ".markdown":
		return "text/markdown"
	case ".rs":
		return "text/rust"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
