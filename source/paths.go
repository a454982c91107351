package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/docgen/cache"
)

// Expand resolves document arguments to concrete file paths.
// Arguments without glob characters must name existing files. Glob
// arguments use doublestar syntax, so "docs/**/*.md" matches recursively.
//
// Directories and cache files are never returned, and duplicates are
// dropped while preserving first-seen order.
func Expand(patterns []string) ([]string, error) {
	var resolved []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		paths, err := expandPattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("resolve pattern %q: %w", pattern, err)
		}

		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				resolved = append(resolved, p)
			}
		}
	}

	return resolved, nil
}

// expandPattern expands a single argument to files.
func expandPattern(pattern string) ([]string, error) {
	if !ContainsGlob(pattern) {
		info, err := os.Stat(pattern)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, fmt.Errorf("path is a directory: %s", pattern)
		}
		return []string{filepath.Clean(pattern)}, nil
	}

	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}

	var files []string
	for _, match := range matches {
		if strings.HasSuffix(match, cache.Suffix) {
			continue
		}
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			files = append(files, match)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no documents match")
	}
	return files, nil
}

// ContainsGlob reports whether the argument uses glob syntax.
func ContainsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
