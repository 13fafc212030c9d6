package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/cvxrs/studio-tools/internal/config"
)

// Layout holds every path the packaging workflow touches, derived once per run
// from the workspace root. Values are never persisted.
type Layout struct {
	// Root is the cargo workspace root all other paths are anchored to.
	Root string
	// TargetDir is where cargo places release build output.
	TargetDir string
	// DistDir is the destination package directory.
	DistDir string
	// ExeSource is the compiled GUI executable to stage.
	ExeSource string
	// ExeDest is the renamed staged executable inside DistDir.
	ExeDest string
	// ExamplesSource is the workspace examples directory.
	ExamplesSource string
	// ExamplesDest is the staged copy of the examples directory.
	ExamplesDest string
}

// New derives the full path layout from a workspace root and packaging settings.
func New(root string, cfg *config.Config) *Layout {
	distDir := filepath.Join(root, "dist", cfg.DistName)

	return &Layout{
		Root:           root,
		TargetDir:      filepath.Join(root, "target", "release"),
		DistDir:        distDir,
		ExeSource:      filepath.Join(root, "target", "release", cfg.GUIPackage+ExecutableExtension()),
		ExeDest:        filepath.Join(distDir, cfg.DistName+ExecutableExtension()),
		ExamplesSource: filepath.Join(root, cfg.ExamplesDir),
		ExamplesDest:   filepath.Join(distDir, cfg.ExamplesDir),
	}
}

// DefaultRoot resolves the workspace root when no override is given:
// the parent of the directory holding the running executable, so a tool
// installed at <workspace>/tools/studio-packager anchors at <workspace>.
// Falls back to the current working directory (covers `go run`).
func DefaultRoot() (string, error) {
	exe, err := os.Executable()
	if err == nil {
		if root := filepath.Dir(filepath.Dir(exe)); root != "" && root != "." {
			return root, nil
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve workspace root: %w", err)
	}

	return wd, nil
}

// ExecutableExtension returns the platform suffix for executable files.
func ExecutableExtension() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}

	return ""
}
