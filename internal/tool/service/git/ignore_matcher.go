// Package git applies .gitignore rules to directory listings.
package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Cyclone1070/deskpal/internal/tool/helper/content"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// GitignoreReadError is returned when an existing .gitignore cannot be read.
type GitignoreReadError struct {
	Path  string
	Cause error
}

func (e *GitignoreReadError) Error() string {
	return fmt.Sprintf("failed to read .gitignore at %s: %v", e.Path, e.Cause)
}

func (e *GitignoreReadError) Unwrap() error { return e.Cause }

// fileReader is the filesystem surface the matcher needs.
type fileReader interface {
	ReadFile(path string) ([]byte, error)
}

// IgnoreMatcher matches paths relative to a directory against its .gitignore.
type IgnoreMatcher struct {
	matcher gitignore.Matcher
}

// LoadIgnoreMatcher reads dir/.gitignore. A missing file yields a matcher
// that ignores nothing.
func LoadIgnoreMatcher(dir string, fs fileReader) (*IgnoreMatcher, error) {
	if fs == nil {
		panic("fs is required")
	}
	path := filepath.Join(dir, ".gitignore")
	data, err := fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &IgnoreMatcher{}, nil
		}
		return nil, &GitignoreReadError{Path: path, Cause: err}
	}

	var patterns []gitignore.Pattern
	for _, line := range content.SplitLines(string(data)) {
		line = strings.TrimRight(line, " \t")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	if len(patterns) == 0 {
		return &IgnoreMatcher{}, nil
	}
	return &IgnoreMatcher{matcher: gitignore.NewMatcher(patterns)}, nil
}

// ShouldIgnore reports whether rel (relative to the loaded directory) is ignored.
func (m *IgnoreMatcher) ShouldIgnore(rel string, isDir bool) bool {
	if m == nil || m.matcher == nil {
		return false
	}
	segments := splitPath(rel)
	if len(segments) == 0 {
		return false
	}
	return m.matcher.Match(segments, isDir)
}

// splitPath normalises separators and drops empty and "." segments.
func splitPath(p string) []string {
	var segments []string
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part != "" && part != "." {
			segments = append(segments, part)
		}
	}
	return segments
}
