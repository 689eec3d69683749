package file

import (
	"context"
	"fmt"
	"os"

	"github.com/Cyclone1070/deskpal/internal/capability"
)

// DeleteRequest is the delete_file parameter set.
type DeleteRequest struct {
	Target `json:",squash"`
}

// Validate implements capability.Validator.
func (r *DeleteRequest) Validate() error {
	return r.Target.validate()
}

// Delete removes a single file. Protected paths need user confirmation.
func (t *Tool) Delete(ctx context.Context, req DeleteRequest) (capability.Result, error) {
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
		return capability.Fail("path is a directory: %s", abs), nil
	}

	if t.paths.IsProtected(abs) && !capability.Confirmed(ctx) {
		t.logger.Warn().Str("path", abs).Msg("delete of protected path needs confirmation")
		return capability.NeedsConfirmation(
			fmt.Sprintf("confirmation required: deleting protected path %s", abs),
			map[string]any{"file_path": abs, "size": info.Size()},
		), nil
	}

	if err := t.fs.Remove(abs); err != nil {
		return capability.Fail("delete %s: %v", abs, err), nil
	}
	t.logger.Info().Str("path", abs).Msg("file deleted")

	return capability.OK(map[string]any{"file_path": abs}), nil
}

// Capabilities returns the registry entries backed by t.
func (t *Tool) Capabilities() []capability.Capability {
	pathProps := func(extra map[string]*capability.Schema) *capability.Schema {
		props := map[string]*capability.Schema{
			"path": {Type: capability.TypeString},
		}
		for k, v := range extra {
			props[k] = v
		}
		return &capability.Schema{Type: capability.TypeObject, Properties: props, Required: []string{"path"}}
	}

	return []capability.Capability{
		capability.NewAdapter(capability.ReadFile, "Read a text file", pathProps(map[string]*capability.Schema{
			"max_chars": {Type: capability.TypeInteger},
		}), t.Read),
		capability.NewAdapter(capability.WriteFile, "Write or append text to a file", pathProps(map[string]*capability.Schema{
			"content": {Type: capability.TypeString},
			"mode":    {Type: capability.TypeString, Enum: []string{"w", "a"}},
		}), t.Write),
		capability.NewAdapter(capability.DeleteFile, "Delete a file", pathProps(nil), t.Delete),
	}
}
