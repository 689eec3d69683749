// Package file provides the read_file, write_file and delete_file capabilities.
package file

import (
	"errors"
	"os"
	"strings"

	"github.com/Cyclone1070/deskpal/internal/config"
	"github.com/rs/zerolog"
)

// fileSystem is the filesystem surface the file capabilities need.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFileLimited(path string, limit int64) ([]byte, error)
	WriteFileAtomic(path string, content []byte, perm os.FileMode) error
	AppendFile(path string, content []byte, perm os.FileMode) error
	EnsureDirs(path string) error
	Remove(path string) error
}

// pathResolver resolves model-supplied paths and flags protected ones.
type pathResolver interface {
	Abs(path string) (string, error)
	IsProtected(abs string) bool
}

var (
	ErrPathRequired = errors.New("path is required")
	ErrInvalidMode  = errors.New(`mode must be "w" or "a"`)
)

// Tool implements the file capabilities on top of an injected filesystem.
type Tool struct {
	fs     fileSystem
	paths  pathResolver
	config config.ToolsConfig
	logger zerolog.Logger
}

// New creates the file tool.
func New(fs fileSystem, paths pathResolver, cfg config.ToolsConfig, logger zerolog.Logger) *Tool {
	if fs == nil {
		panic("fs is required")
	}
	if paths == nil {
		panic("paths is required")
	}
	return &Tool{fs: fs, paths: paths, config: cfg, logger: logger}
}

// Target is embedded by every request. Models use both "path" and "file_path".
type Target struct {
	Path     string `json:"path"`
	FilePath string `json:"file_path"`
}

func (t *Target) resolve() string {
	if strings.TrimSpace(t.Path) != "" {
		return t.Path
	}
	return t.FilePath
}

func (t *Target) validate() error {
	if strings.TrimSpace(t.resolve()) == "" {
		return ErrPathRequired
	}
	return nil
}
