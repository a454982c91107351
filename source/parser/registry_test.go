package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetByExtension(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		filename string
		wantMime string
	}{
		{"readme.md", "text/markdown"},
		{"GUIDE.MARKDOWN", "text/markdown"},
		{"snippet.rs", "text/rust"},
		{"notes.txt", "text/rust"},
		{"no_extension", "text/rust"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			p := r.GetByExtension(tt.filename)
			require.NotNil(t, p)
			assert.Equal(t, tt.wantMime, p.MimeType())
		})
	}
}

func TestRegistry_ParseAs(t *testing.T) {
	r := NewRegistry()

	doc, err := r.ParseAs("text/markdown", "snippet.rs", []byte("```rust\nx();\n```\n"))
	require.NoError(t, err)
	assert.True(t, doc.Markdown)

	_, err = r.ParseAs("application/pdf", "doc.pdf", nil)
	assert.Error(t, err)
}

func TestRegistry_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "readme.md")
	require.NoError(t, os.WriteFile(path, []byte("# Readme\n"), 0644))

	r := NewRegistry()

	doc, err := r.Load(path, "")
	require.NoError(t, err)
	assert.True(t, doc.Markdown)
	assert.Equal(t, path, doc.Path)

	doc, err = r.Load(path, "text/rust")
	require.NoError(t, err)
	assert.False(t, doc.Markdown)

	_, err = r.Load(filepath.Join(dir, "missing.md"), "")
	assert.Error(t, err)
}

func TestIsMarkdown(t *testing.T) {
	assert.True(t, IsMarkdown("a/b/readme.md"))
	assert.True(t, IsMarkdown("x.Markdown"))
	assert.False(t, IsMarkdown("lib.rs"))
}

func TestMimeTypeFromExtension(t *testing.T) {
	assert.Equal(t, "text/markdown", MimeTypeFromExtension(".md"))
	assert.Equal(t, "text/rust", MimeTypeFromExtension(".RS"))
	assert.Equal(t, "text/plain", MimeTypeFromExtension(".txt"))
	assert.Equal(t, "application/octet-stream", MimeTypeFromExtension(".pdf"))
}
