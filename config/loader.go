package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "docgen.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/docgen"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
	dir    string
	file   string
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// WithDir sets the directory project config and Cargo.toml are searched
// from. Defaults to the working directory.
func (l *Loader) WithDir(dir string) *Loader {
	l.dir = dir
	return l
}

// WithFile sets an explicit config file that replaces the project config
// search. Unlike a discovered file, it must exist.
func (l *Loader) WithFile(path string) *Loader {
	l.file = path
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/docgen/config.yaml)
// 3. Project config (docgen.yaml in current or parent directories, or the
// file set with WithFile)
// 4. Overrides, typically from command line flags
//
// Crate settings left empty are then detected from Cargo.toml.
func (l *Loader) Load(overrides *Config) (*Config, error) {
	config := DefaultConfig()

	// Load user config
	if userConfigPath := l.userConfigPath(); userConfigPath != "" {
		if userConfig, err := LoadFromFile(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	dir, err := l.workDir()
	if err != nil {
		return nil, err
	}

	// Load project config
	if l.file != "" {
		projectConfig, err := LoadFromFile(l.file)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config file", slog.String("path", l.file))
		config.Merge(projectConfig)
	} else if projectConfigPath := findProjectConfig(dir); projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	config.Merge(overrides)

	if err := config.ResolveCrate(dir); err != nil {
		return nil, err
	}
	l.logger.Debug("Resolved crate",
		slog.String("crate", config.Crate),
		slog.String("root", config.CrateRoot),
		slog.String("examples", config.Examples))

	// Validate final config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()
	if userConfigPath == "" {
		return errors.New("cannot determine home directory")
	}

	if _, err := os.Stat(userConfigPath); err == nil {
		return nil // Already exists
	}

	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

func (l *Loader) workDir() (string, error) {
	if l.dir != "" {
		return filepath.Abs(l.dir)
	}
	return os.Getwd()
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for docgen.yaml in dir and its parents
func findProjectConfig(dir string) string {
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
