// Package directory provides the list_directory capability.
package directory

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Cyclone1070/deskpal/internal/capability"
	"github.com/Cyclone1070/deskpal/internal/tool/service/git"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// fileSystem is the filesystem surface the listing needs.
type fileSystem interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	ListDir(path string) ([]os.DirEntry, error)
}

type pathResolver interface {
	Abs(path string) (string, error)
}

// maxEntries caps the items returned to the model.
const maxEntries = 200

// Request is the list_directory parameter set.
type Request struct {
	Path           string `json:"path"`
	DirPath        string `json:"dir_path"`
	ShowHidden     bool   `json:"show_hidden"`
	IncludeIgnored bool   `json:"include_ignored"`
}

// Entry is one listed item.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"` // "directory" or "file"
	Size int64  `json:"size"`
}

// Tool lists directories, honouring the directory's own .gitignore.
type Tool struct {
	fs     fileSystem
	paths  pathResolver
	logger zerolog.Logger
}

// New creates the directory tool.
func New(fs fileSystem, paths pathResolver, logger zerolog.Logger) *Tool {
	if fs == nil {
		panic("fs is required")
	}
	if paths == nil {
		panic("paths is required")
	}
	return &Tool{fs: fs, paths: paths, logger: logger}
}

// List returns the immediate children of a directory, directories first.
// Hidden entries are skipped unless ShowHidden; entries matched by the
// directory's .gitignore are skipped unless IncludeIgnored.
func (t *Tool) List(ctx context.Context, req Request) (capability.Result, error) {
	p := req.Path
	if strings.TrimSpace(p) == "" {
		p = req.DirPath
	}
	if strings.TrimSpace(p) == "" {
		p = "."
	}
	abs, err := t.paths.Abs(p)
	if err != nil {
		return capability.Fail("%v", err), nil
	}

	info, err := t.fs.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return capability.Fail("directory does not exist: %s", abs), nil
		}
		return capability.Fail("stat %s: %v", abs, err), nil
	}
	if !info.IsDir() {
		return capability.Fail("path is not a directory: %s", abs), nil
	}

	var ignore *git.IgnoreMatcher
	if !req.IncludeIgnored {
		ignore, err = git.LoadIgnoreMatcher(abs, t.fs)
		if err != nil {
			// Listing still works without ignore rules.
			t.logger.Warn().Err(err).Str("dir", abs).Msg("ignoring unreadable .gitignore")
		}
	}

	dirEntries, err := t.fs.ListDir(abs)
	if err != nil {
		return capability.Fail("list %s: %v", abs, err), nil
	}

	entries := make([]Entry, 0, len(dirEntries))
	skipped := 0
	for _, de := range dirEntries {
		name := de.Name()
		if !req.ShowHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if ignore.ShouldIgnore(name, de.IsDir()) {
			skipped++
			continue
		}
		e := Entry{Name: name, Path: filepath.Join(abs, name), Type: "file"}
		if de.IsDir() {
			e.Type = "directory"
		} else if fi, err := de.Info(); err == nil {
			e.Size = fi.Size()
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if (entries[i].Type == "directory") != (entries[j].Type == "directory") {
			return entries[i].Type == "directory"
		}
		return entries[i].Name < entries[j].Name
	})

	total := len(entries)
	truncated := total > maxEntries
	if truncated {
		entries = entries[:maxEntries]
	}

	items := make([]map[string]any, 0, len(entries))
	var totalSize int64
	for _, e := range entries {
		totalSize += e.Size
		items = append(items, map[string]any{
			"name": e.Name,
			"path": e.Path,
			"type": e.Type,
			"size": e.Size,
		})
	}

	return capability.OK(map[string]any{
		"dir_path":   abs,
		"items":      items,
		"count":      total,
		"ignored":    skipped,
		"truncated":  truncated,
		"total_size": humanize.Bytes(uint64(totalSize)),
	}), nil
}

// Capability returns the registry entry backed by t.
func (t *Tool) Capability() capability.Capability {
	return capability.NewAdapter(capability.ListDirectory, "List the files in a directory", &capability.Schema{
		Type: capability.TypeObject,
		Properties: map[string]*capability.Schema{
			"path":            {Type: capability.TypeString},
			"show_hidden":     {Type: capability.TypeBoolean},
			"include_ignored": {Type: capability.TypeBoolean},
		},
	}, t.List)
}
