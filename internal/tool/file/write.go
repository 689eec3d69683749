package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Cyclone1070/deskpal/internal/capability"
	"github.com/pmezard/go-difflib/difflib"
)

// maxPreviewBytes bounds the existing content read to build a confirmation diff.
const maxPreviewBytes = 64 * 1024

// WriteRequest is the write_file parameter set.
type WriteRequest struct {
	Target  `json:",squash"`
	Content string `json:"content"`
	Mode    string `json:"mode"` // "w" overwrite (default) or "a" append
}

// Validate implements capability.Validator.
func (r *WriteRequest) Validate() error {
	if err := r.Target.validate(); err != nil {
		return err
	}
	switch r.Mode {
	case "", "w", "a":
		return nil
	default:
		return fmt.Errorf("%w, got %q", ErrInvalidMode, r.Mode)
	}
}

// Write stores content at the requested path. A path without an extension gets
// ".txt"; missing parent directories are created. Writes under a protected
// path are not performed unless ctx carries user confirmation; instead the
// result describes the pending change with a unified diff.
func (t *Tool) Write(ctx context.Context, req WriteRequest) (capability.Result, error) {
	abs, err := t.paths.Abs(req.resolve())
	if err != nil {
		return capability.Fail("%v", err), nil
	}
	if filepath.Ext(abs) == "" {
		abs += ".txt"
	}
	mode := req.Mode
	if mode == "" {
		mode = "w"
	}

	if t.paths.IsProtected(abs) && !capability.Confirmed(ctx) {
		t.logger.Warn().Str("path", abs).Msg("write to protected path needs confirmation")
		return capability.NeedsConfirmation(
			fmt.Sprintf("confirmation required: writing to protected path %s", abs),
			map[string]any{
				"file_path": abs,
				"mode":      mode,
				"bytes":     len(req.Content),
				"preview":   t.preview(abs, req.Content, mode),
			},
		), nil
	}

	if info, err := t.fs.Stat(abs); err == nil && info.IsDir() {
		return capability.Fail("path is a directory: %s", abs), nil
	}

	dir := filepath.Dir(abs)
	if err := t.fs.EnsureDirs(dir); err != nil {
		return capability.Fail("create directory %s: %v", dir, err), nil
	}

	if mode == "a" {
		err = t.fs.AppendFile(abs, []byte(req.Content), 0o644)
	} else {
		err = t.fs.WriteFileAtomic(abs, []byte(req.Content), 0o644)
	}
	if err != nil {
		return capability.Fail("write %s: %v", abs, err), nil
	}

	size := int64(len(req.Content))
	if info, err := t.fs.Stat(abs); err == nil {
		size = info.Size()
	}
	t.logger.Info().Str("path", abs).Str("mode", mode).Int64("size", size).Msg("file written")

	return capability.OK(map[string]any{
		"file_path": abs,
		"size":      size,
	}), nil
}

// preview renders the change a write would make as a unified diff.
func (t *Tool) preview(abs, newContent, mode string) string {
	old := ""
	if data, err := t.fs.ReadFileLimited(abs, maxPreviewBytes); err == nil {
		old = string(data)
	} else if !os.IsNotExist(err) {
		return ""
	}
	updated := newContent
	if mode == "a" {
		updated = old + newContent
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(old),
		B:        difflib.SplitLines(updated),
		FromFile: abs,
		ToFile:   abs,
		Context:  2,
	})
	if err != nil {
		return ""
	}
	return diff
}
