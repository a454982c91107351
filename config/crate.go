package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestFile is the Cargo manifest that marks a crate root.
const ManifestFile = "Cargo.toml"

// Crate identifies the Cargo package generated programs are built in.
type Crate struct {
	// Name is the library name as referenced from Rust code: the package
	// name with '-' replaced by '_'.
	Name string
	// Root is the directory holding Cargo.toml.
	Root string
	// Examples is Root/examples.
	Examples string
}

type manifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// FindCrate walks up from dir to the nearest Cargo.toml and reads the
// package name from it.
func FindCrate(dir string) (*Crate, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	for {
		path := filepath.Join(dir, ManifestFile)
		if _, err := os.Stat(path); err == nil {
			return readCrate(path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ErrNoCrate
		}
		dir = parent
	}
}

func readCrate(path string) (*Crate, error) {
	var m manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if m.Package.Name == "" {
		return nil, fmt.Errorf("%w: %s has no [package] name", ErrNoCrate, path)
	}

	root := filepath.Dir(path)
	return &Crate{
		Name:     strings.ReplaceAll(m.Package.Name, "-", "_"),
		Root:     root,
		Examples: filepath.Join(root, "examples"),
	}, nil
}

// ResolveCrate fills the crate settings that are not configured from the
// nearest Cargo.toml above dir. An explicit crate root is used as the
// starting point of the search instead of dir.
func (c *Config) ResolveCrate(dir string) error {
	if c.Crate == "" || c.CrateRoot == "" {
		start := dir
		if c.CrateRoot != "" {
			start = c.CrateRoot
		}
		crate, err := FindCrate(start)
		if err != nil {
			return err
		}
		if c.Crate == "" {
			c.Crate = crate.Name
		}
		if c.CrateRoot == "" {
			c.CrateRoot = crate.Root
		}
	}
	if c.Examples == "" {
		c.Examples = filepath.Join(c.CrateRoot, "examples")
	}
	return nil
}
