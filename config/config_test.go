package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/docgen/comment"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "cargo", cfg.Cargo)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Indent)
	assert.False(t, cfg.Module)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:   "tab indent",
			modify: func(c *Config) { c.Indent = "2t" },
		},
		{
			name:    "bad indent",
			modify:  func(c *Config) { c.Indent = "four" },
			wantErr: true,
		},
		{
			name:    "missing cargo",
			modify:  func(c *Config) { c.Cargo = "" },
			wantErr: true,
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.LogLevel = "trace" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseIndent(t *testing.T) {
	tests := []struct {
		setting    string
		want    string
		wantErr bool
	}{
		{setting: "", want: ""},
		{setting: "0", want: ""},
		{setting: "4", want: "    "},
		{setting: "1t", want: "\t"},
		{setting: "2t", want: "\t\t"},
		{setting: "t", wantErr: true},
		{setting: "-1", wantErr: true},
		{setting: "x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.setting, func(t *testing.T) {
			got, err := ParseIndent(tt.setting)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigMarker(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantStyle comment.Style
		want      string
	}{
		{name: "item", cfg: Config{}, wantStyle: comment.Item, want: "///"},
		{name: "indented item", cfg: Config{Indent: "4"}, wantStyle: comment.Item, want: "    ///"},
		{name: "module ignores indent", cfg: Config{Module: true, Indent: "4"}, wantStyle: comment.Module, want: "//!"},
		{name: "module doc implies module", cfg: Config{ModuleDoc: true}, wantStyle: comment.Module, want: "//!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStyle, tt.cfg.Style())
			got, err := tt.cfg.Marker()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
crate: my_crate
module_doc: true
indent: "1t"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, "my_crate", cfg.Crate)
	assert.True(t, cfg.ModuleDoc)
	assert.Equal(t, "1t", cfg.Indent)
	// Unset fields stay zero so they do not mask lower layers.
	assert.Empty(t, cfg.Cargo)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("crate: [unclosed"), 0644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)
}

func TestSaveToFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Crate = "saved"
	cfg.Question = true
	require.NoError(t, cfg.SaveToFile(configPath))

	loaded, err := LoadFromFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "saved", loaded.Crate)
	assert.True(t, loaded.Question)
	assert.Equal(t, "cargo", loaded.Cargo)
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	base.Indent = "4"
	base.Crate = "base"

	base.Merge(&Config{
		Crate:    "other",
		NoRun:    true,
		LogLevel: "debug",
	})

	assert.Equal(t, "other", base.Crate)
	assert.Equal(t, "4", base.Indent)
	assert.True(t, base.NoRun)
	assert.Equal(t, "debug", base.LogLevel)
	assert.Equal(t, "cargo", base.Cargo)

	base.Merge(nil)
	assert.Equal(t, "other", base.Crate)
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.Crate = "changed"

	assert.Empty(t, cfg.Crate)
}
