// Package config provides configuration loading and management for docgen.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/docgen/comment"
)

// Config represents the complete docgen configuration
type Config struct {
	// Crate is the crate referenced by generated programs (auto-detected
	// from Cargo.toml if empty)
	Crate string `yaml:"crate"`
	// CrateRoot is the directory holding Cargo.toml (auto-detected if empty)
	CrateRoot string `yaml:"crate_root"`
	// Examples is the directory generated programs are written to
	// (default: <crate_root>/examples)
	Examples string `yaml:"examples"`

	// Module selects module comments (//!) instead of item comments (///)
	Module bool `yaml:"module"`
	// ModuleDoc scans the input as Markdown; implies Module
	ModuleDoc bool `yaml:"module_doc"`
	// Question hosts snippets in a fallible run function by default
	Question bool `yaml:"question"`
	// NoRun compiles snippets without running them by default
	NoRun bool `yaml:"no_run"`
	// Indent is the item comment indentation: "4" is four spaces, "1t" one tab
	Indent string `yaml:"indent"`

	// Cargo is the build tool binary (default: cargo)
	Cargo string `yaml:"cargo"`
	// SkipSyntaxCheck disables the tree-sitter preflight
	SkipSyntaxCheck bool `yaml:"skip_syntax_check"`
	// LogLevel is one of debug, info, warn, error (default: info)
	LogLevel string `yaml:"log_level"`
	// MetricsFile receives Prometheus metrics at the end of a run (empty = off)
	MetricsFile string `yaml:"metrics_file"`
	// OutDir receives one generated file per document (empty = stdout)
	OutDir string `yaml:"out_dir"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Cargo:    "cargo",
		LogLevel: "info",
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := ParseIndent(c.Indent); err != nil {
		return err
	}
	if c.Cargo == "" {
		return fmt.Errorf("cargo is required")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}
	return nil
}

// ParseIndent converts an indent setting into the indent string. A number
// means that many spaces; a number followed by "t" means that many tabs.
// Empty means no indent.
func ParseIndent(setting string) (string, error) {
	if setting == "" {
		return "", nil
	}
	num, ch := setting, " "
	if strings.HasSuffix(setting, "t") {
		num, ch = strings.TrimSuffix(setting, "t"), "\t"
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return "", fmt.Errorf("invalid indent %q: want a count like 4 or 1t", setting)
	}
	return strings.Repeat(ch, n), nil
}

// Style returns the comment style. Module-doc mode implies module comments.
func (c *Config) Style() comment.Style {
	if c.Module || c.ModuleDoc {
		return comment.Module
	}
	return comment.Item
}

// Marker returns the comment marker that prefixes every output line.
func (c *Config) Marker() (string, error) {
	indent, err := ParseIndent(c.Indent)
	if err != nil {
		return "", err
	}
	return comment.Marker(c.Style(), indent), nil
}

// LoadFromFile loads configuration from a YAML file. Fields the file does
// not set are left zero so the result can be merged over another layer.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one. Non-empty strings in other
// take precedence; boolean switches can only be turned on.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Crate
	if other.Crate != "" {
		c.Crate = other.Crate
	}
	if other.CrateRoot != "" {
		c.CrateRoot = other.CrateRoot
	}
	if other.Examples != "" {
		c.Examples = other.Examples
	}

	// Output style
	c.Module = c.Module || other.Module
	c.ModuleDoc = c.ModuleDoc || other.ModuleDoc
	c.Question = c.Question || other.Question
	c.NoRun = c.NoRun || other.NoRun
	if other.Indent != "" {
		c.Indent = other.Indent
	}

	// Tooling
	if other.Cargo != "" {
		c.Cargo = other.Cargo
	}
	c.SkipSyntaxCheck = c.SkipSyntaxCheck || other.SkipSyntaxCheck
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.MetricsFile != "" {
		c.MetricsFile = other.MetricsFile
	}
	if other.OutDir != "" {
		c.OutDir = other.OutDir
	}
}

// Clone returns a copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ErrNoCrate indicates no Cargo package encloses the working directory.
var ErrNoCrate = errors.New("not a subdirectory of a Cargo project")
