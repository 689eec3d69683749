package file

import (
	"context"
	"errors"
	"os"

	"github.com/Cyclone1070/deskpal/internal/capability"
	"github.com/Cyclone1070/deskpal/internal/tool/helper/content"
	"github.com/Cyclone1070/deskpal/internal/tool/service/fs"
)

// ReadRequest is the read_file parameter set.
type ReadRequest struct {
	Target   `json:",squash"`
	MaxChars int `json:"max_chars"`
}

// Validate implements capability.Validator.
func (r *ReadRequest) Validate() error {
	return r.Target.validate()
}

// Read returns the text content of a file.
func (t *Tool) Read(ctx context.Context, req ReadRequest) (capability.Result, error) {
	abs, err := t.paths.Abs(req.resolve())
	if err != nil {
		return capability.Fail("%v", err), nil
	}

	info, err := t.fs.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return capability.Fail("file does not exist: %s", abs), nil
		}
		return capability.Fail("stat %s: %v", abs, err), nil
	}
	if info.IsDir() {
		return capability.Fail("path is not a file: %s", abs), nil
	}

	data, err := t.fs.ReadFileLimited(abs, t.config.MaxReadFileSize)
	if err != nil {
		if errors.Is(err, fs.ErrTooLarge) {
			return capability.Fail("file is larger than %d bytes: %s", t.config.MaxReadFileSize, abs), nil
		}
		return capability.Fail("read %s: %v", abs, err), nil
	}
	if content.IsBinary(data) {
		return capability.Fail("file is binary: %s", abs), nil
	}

	text := string(data)
	truncated := false
	if req.MaxChars > 0 {
		text, truncated = content.Truncate(text, req.MaxChars)
	}

	return capability.OK(map[string]any{
		"file_path": abs,
		"content":   text,
		"size":      info.Size(),
		"truncated": truncated,
	}), nil
}
