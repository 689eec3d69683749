// Package path resolves user-supplied paths and classifies protected locations.
package path

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrPathRequired is returned for an empty path.
var ErrPathRequired = errors.New("path is required")

// Resolver turns the paths a model supplies into absolute, cleaned paths.
// Relative paths are taken from baseDir; a leading ~ is the user's home.
type Resolver struct {
	baseDir   string
	homeDir   string
	protected []string
}

// NewResolver creates a resolver. protected lists path prefixes whose mutation
// needs user consent; matching is case-insensitive.
func NewResolver(baseDir, homeDir string, protected []string) *Resolver {
	if baseDir == "" {
		panic("baseDir is required")
	}
	cleaned := make([]string, 0, len(protected))
	for _, p := range protected {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, normalize(p))
		}
	}
	return &Resolver{baseDir: baseDir, homeDir: homeDir, protected: cleaned}
}

// Abs resolves p to an absolute, cleaned path.
func (r *Resolver) Abs(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", ErrPathRequired
	}
	if r.homeDir != "" && (p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`)) {
		p = filepath.Join(r.homeDir, p[1:])
	}
	if !filepath.IsAbs(p) && !isWindowsAbs(p) {
		p = filepath.Join(r.baseDir, p)
	}
	return filepath.Clean(p), nil
}

// IsProtected reports whether abs falls under a protected prefix.
func (r *Resolver) IsProtected(abs string) bool {
	target := normalize(abs)
	for _, prefix := range r.protected {
		if target == strings.TrimSuffix(prefix, "/") || strings.HasPrefix(target, withSlash(prefix)) {
			return true
		}
	}
	return false
}

// normalize lowercases and converts separators so that `C:\Windows` and
// `c:/windows` compare equal on every platform.
func normalize(p string) string {
	return strings.ToLower(strings.ReplaceAll(p, `\`, "/"))
}

func withSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}

// isWindowsAbs recognises drive-letter paths when running elsewhere.
func isWindowsAbs(p string) bool {
	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/') &&
		((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}
