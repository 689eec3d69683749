// Package tool assembles the built-in capability table.
package tool

import (
	"github.com/Cyclone1070/deskpal/internal/capability"
	"github.com/Cyclone1070/deskpal/internal/config"
	"github.com/Cyclone1070/deskpal/internal/tool/directory"
	"github.com/Cyclone1070/deskpal/internal/tool/file"
	"github.com/Cyclone1070/deskpal/internal/tool/service/executor"
	"github.com/Cyclone1070/deskpal/internal/tool/service/fs"
	"github.com/Cyclone1070/deskpal/internal/tool/service/path"
	"github.com/Cyclone1070/deskpal/internal/tool/shell"
	"github.com/Cyclone1070/deskpal/internal/tool/system"
	"github.com/rs/zerolog"
)

// NewRegistry wires every built-in capability. Relative paths the model
// supplies are resolved against baseDir; "~" expands to homeDir.
func NewRegistry(cfg config.ToolsConfig, baseDir, homeDir string, logger zerolog.Logger) *capability.Registry {
	osfs := fs.NewOSFileSystem()
	paths := path.NewResolver(baseDir, homeDir, cfg.ProtectedPaths)

	reg := capability.NewRegistry(system.New().Capabilities()...)
	reg.Register(shell.New(executor.NewRunner(cfg), paths, cfg, logger.With().Str("tool", "shell").Logger()).Capability())
	for _, c := range file.New(osfs, paths, cfg, logger.With().Str("tool", "file").Logger()).Capabilities() {
		reg.Register(c)
	}
	reg.Register(directory.New(osfs, paths, logger.With().Str("tool", "directory").Logger()).Capability())
	return reg
}
