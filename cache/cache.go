// Package cache remembers which snippets of a document were already
// executed, so later runs can skip them.
//
// The cache for a document lives next to it in a flat file named after the
// document with the Suffix appended. Each snippet body is written verbatim
// and terminated by Delimiter.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	// Suffix is appended to a document path to name its cache file.
	Suffix = ".cache"

	// Delimiter terminates every entry in the cache file. It is reserved:
	// bodies containing it are never recorded.
	Delimiter = "---\n"
)

// Cache errors.
var (
	// ErrUnreadable is returned when a cache file exists but cannot be read.
	ErrUnreadable = errors.New("cache unreadable")

	// ErrReservedDelimiter is returned when a body contains Delimiter and
	// therefore cannot be stored without corrupting the file.
	ErrReservedDelimiter = errors.New("snippet contains reserved cache delimiter")
)

// Cache is the ordered set of snippet bodies already executed for one
// document. It is not safe for concurrent use.
type Cache struct {
	path    string
	entries []string
}

// PathFor returns the cache file path for a document.
func PathFor(docPath string) string {
	return docPath + Suffix
}

// New returns an empty cache for the document.
func New(docPath string) *Cache {
	return &Cache{path: PathFor(docPath)}
}

// Load reads the cache for a document. A missing cache file yields an
// empty cache.
func Load(docPath string) (*Cache, error) {
	c := New(docPath)
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	c.entries = Decode(string(data))
	return c, nil
}

// Decode splits persisted cache content into entries. The element after
// the final delimiter is always dropped.
func Decode(data string) []string {
	parts := strings.Split(data, Delimiter)
	return parts[:len(parts)-1]
}

// Encode renders entries in the persisted form.
func Encode(entries []string) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e)
		b.WriteString(Delimiter)
	}
	return b.String()
}

// Path returns the cache file path.
func (c *Cache) Path() string {
	return c.path
}

// Len returns the number of recorded bodies.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the recorded bodies in insertion order.
func (c *Cache) Entries() []string {
	return slices.Clone(c.entries)
}

// Contains reports whether body was recorded. Comparison is exact.
func (c *Cache) Contains(body string) bool {
	return slices.Contains(c.entries, body)
}

// Record appends body to the in-memory cache. Recording a body twice is a
// no-op. Nothing is persisted until Save.
func (c *Cache) Record(body string) error {
	if strings.Contains(body, Delimiter) {
		return ErrReservedDelimiter
	}
	if c.Contains(body) {
		return nil
	}
	c.entries = append(c.entries, body)
	return nil
}

// Save replaces the cache file with the current entries. The content is
// written to a temporary file in the same directory and renamed into place.
func (c *Cache) Save() error {
	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".docgen-cache-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(Encode(c.entries)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close cache: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod cache: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace cache: %w", err)
	}
	return nil
}
