package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the user config at an empty home directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoader_Layers(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(home, UserConfigDir), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(home, UserConfigDir, UserConfigFile),
		[]byte("indent: \"4\"\nlog_level: warn\n"), 0644))

	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"layered-crate\"\n")
	require.NoError(t, os.WriteFile(
		filepath.Join(root, ProjectConfigFile),
		[]byte("question: true\nlog_level: debug\n"), 0644))
	docs := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(docs, 0755))

	cfg, err := NewLoader(nil).WithDir(docs).Load(&Config{NoRun: true})
	require.NoError(t, err)

	assert.Equal(t, "4", cfg.Indent, "user layer")
	assert.True(t, cfg.Question, "project layer")
	assert.Equal(t, "debug", cfg.LogLevel, "project overrides user")
	assert.True(t, cfg.NoRun, "overrides layer")
	assert.Equal(t, "layered_crate", cfg.Crate)
	assert.Equal(t, root, cfg.CrateRoot)
}

func TestLoader_ExplicitFile(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"c\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectConfigFile), []byte("module: true\n"), 0644))

	explicit := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(explicit, []byte("no_run: true\n"), 0644))

	cfg, err := NewLoader(nil).WithDir(root).WithFile(explicit).Load(nil)
	require.NoError(t, err)
	assert.True(t, cfg.NoRun)
	assert.False(t, cfg.Module, "discovered project config is skipped")

	_, err = NewLoader(nil).WithDir(root).WithFile(filepath.Join(root, "missing.yaml")).Load(nil)
	assert.Error(t, err)
}

func TestLoader_NoCrate(t *testing.T) {
	isolate(t)

	_, err := NewLoader(nil).WithDir(t.TempDir()).Load(nil)
	// The temp dir may itself live below a Cargo project on some machines.
	if err != nil {
		assert.ErrorIs(t, err, ErrNoCrate)
	}
}

func TestLoader_InvalidOverrides(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"c\"\n")

	_, err := NewLoader(nil).WithDir(root).Load(&Config{Indent: "wide"})
	assert.Error(t, err)
}

func TestLoader_EnsureUserConfig(t *testing.T) {
	home := isolate(t)
	loader := NewLoader(nil)

	require.NoError(t, loader.EnsureUserConfig())
	path := filepath.Join(home, UserConfigDir, UserConfigFile)
	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cargo", cfg.Cargo)

	// Existing files are left alone.
	require.NoError(t, os.WriteFile(path, []byte("crate: mine\n"), 0644))
	require.NoError(t, loader.EnsureUserConfig())
	cfg, err = LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mine", cfg.Crate)
}
