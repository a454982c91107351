package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("# doc\n"), 0644))
	}
}

func TestExpand_PlainPaths(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.md", "b.rs")

	got, err := Expand([]string{filepath.Join(root, "a.md"), filepath.Join(root, "b.rs")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.md"), filepath.Join(root, "b.rs")}, got)
}

func TestExpand_MissingFile(t *testing.T) {
	_, err := Expand([]string{filepath.Join(t.TempDir(), "nope.md")})
	assert.Error(t, err)
}

func TestExpand_Directory(t *testing.T) {
	_, err := Expand([]string{t.TempDir()})
	assert.Error(t, err)
}

func TestExpand_RecursiveGlob(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "readme.md", "docs/guide.md", "docs/deep/tour.md", "docs/notes.txt", "readme.md.cache")

	got, err := Expand([]string{filepath.Join(root, "**", "*.md")})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "readme.md"),
		filepath.Join(root, "docs", "guide.md"),
		filepath.Join(root, "docs", "deep", "tour.md"),
	}, got)
}

func TestExpand_SkipsCacheFilesAndDedupes(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "readme.md", "readme.md.cache")

	got, err := Expand([]string{
		filepath.Join(root, "*"),
		filepath.Join(root, "readme.md"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "readme.md")}, got)
}

func TestExpand_NoMatches(t *testing.T) {
	_, err := Expand([]string{filepath.Join(t.TempDir(), "*.md")})
	assert.Error(t, err)
}

func TestContainsGlob(t *testing.T) {
	assert.True(t, ContainsGlob("docs/**/*.md"))
	assert.True(t, ContainsGlob("t?.rs"))
	assert.True(t, ContainsGlob("{a,b}.md"))
	assert.False(t, ContainsGlob("docs/readme.md"))
}
