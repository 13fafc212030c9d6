package packager

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/cvxrs/studio-tools/internal/config"
	"github.com/cvxrs/studio-tools/internal/logger"
	"github.com/cvxrs/studio-tools/internal/repository/manifest"
	"github.com/cvxrs/studio-tools/internal/service/installer"
	"github.com/cvxrs/studio-tools/internal/workspace"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is an optional path to the packaging settings YAML.
	ConfigPath string
	// WorkspaceRoot overrides the derived cargo workspace root.
	WorkspaceRoot string
	// SkipBuild reuses the existing release artifact instead of invoking the build tool.
	SkipBuild bool
}

var (
	// errInstallerRunning indicates a packaging attempt while an install is in progress.
	errInstallerRunning = errors.New("the installer is running now")
	// errStudioRunning indicates the GUI is running and may hold the staged files open.
	errStudioRunning = errors.New("is running now, close it before packaging")
	// errArtifactNotFound indicates the release executable is absent at its expected path.
	errArtifactNotFound = errors.New("was not found, the build may not have completed successfully")
)

// builder produces the release artifact in a workspace.
type builder interface {
	Build(ctx context.Context, root string) error
}

// cargoBuilder invokes cargo synchronously, inheriting the operator's terminal.
type cargoBuilder struct {
	// cargoPath is the build tool binary.
	cargoPath string
	// guiPackage is the cargo package to build.
	guiPackage string
	// timeout bounds the whole invocation.
	timeout time.Duration
}

// Build runs a release build of the GUI package and waits for completion.
func (b *cargoBuilder) Build(ctx context.Context, root string) error {
	buildCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cmd := exec.CommandContext(buildCtx, b.cargoPath, "build", "--release", "--package", b.guiPackage)
	cmd.Dir = root
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s build --release --package %s: %w", b.cargoPath, b.guiPackage, err)
	}

	return nil
}

// packager stages the release artifact and examples into the distribution directory.
// It is unexported—callers should use Run, which encapsulates setup and validation.
type packager struct {
	// cfg holds the packaging settings.
	cfg *config.Config
	// layout holds every path of this run.
	layout *workspace.Layout
	// skipBuild disables the build step.
	skipBuild bool
	// build produces the release artifact.
	build builder
}

// Run executes the packaging workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "studio-packager")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	root := opts.WorkspaceRoot
	if root == "" {
		if root, err = workspace.DefaultRoot(); err != nil {
			return err
		}
	}

	pkg, err := newPackager(ctx, root, cfg, opts)
	if err != nil {
		return fmt.Errorf("initialize packager: %w", err)
	}

	if err = pkg.Run(ctx); err != nil {
		return fmt.Errorf("packager failed: %w", err)
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// newPackager creates a packager after checking nothing is holding the package files.
func newPackager(ctx context.Context, root string, cfg *config.Config, opts *Options) (*packager, error) {
	if installer.IsInstallerRunningNow(ctx) {
		return nil, errInstallerRunning
	}

	studioExecutable := cfg.DistName + workspace.ExecutableExtension()

	running, err := installer.IsProcessRunning(studioExecutable)
	if err != nil {
		return nil, fmt.Errorf("inspect processes: %w", err)
	}

	if running {
		return nil, fmt.Errorf("%s %w", studioExecutable, errStudioRunning)
	}

	return &packager{
		cfg:       cfg,
		layout:    workspace.New(root, cfg),
		skipBuild: opts.SkipBuild,
		build: &cargoBuilder{
			cargoPath:  cfg.CargoPath,
			guiPackage: cfg.GUIPackage,
			timeout:    cfg.BuildTimeout,
		},
	}, nil
}

// Run performs the packaging steps in their fail-fast order:
// build, artifact check, directory creation, copies, manifest, report.
// Reordering would change which failures leave the destination untouched.
func (p *packager) Run(ctx context.Context) error {
	if p.skipBuild {
		logger.Info(ctx, "Skipping the release build as requested")
	} else {
		logger.InfoKV(ctx, "Building release artifact",
			"package", p.cfg.GUIPackage, "workspace", p.layout.Root)

		if err := p.build.Build(ctx, p.layout.Root); err != nil {
			return err
		}
	}

	// Checked even after a successful build: a build tool exiting zero
	// without producing the executable must still fail here.
	if err := p.checkArtifact(); err != nil {
		return err
	}

	if err := p.stage(ctx); err != nil {
		return err
	}

	if err := p.writeManifest(ctx); err != nil {
		return err
	}

	p.printNextSteps(ctx)

	return nil
}

// checkArtifact verifies the release executable exists at its expected path.
func (p *packager) checkArtifact() error {
	if _, err := os.Stat(p.layout.ExeSource); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s %w", p.layout.ExeSource, errArtifactNotFound)
		}

		return fmt.Errorf("stat %s: %w", p.layout.ExeSource, err)
	}

	return nil
}

// stage creates the distribution directory and copies the artifact and examples into it.
func (p *packager) stage(ctx context.Context) error {
	if err := os.MkdirAll(p.layout.DistDir, manifest.DefaultFileMode); err != nil {
		return fmt.Errorf("create %s: %w", p.layout.DistDir, err)
	}

	logger.InfoKV(ctx, "Staging executable", "from", p.layout.ExeSource, "to", p.layout.ExeDest)

	if err := copyFile(p.layout.ExeSource, p.layout.ExeDest, manifest.DefaultFileMode); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Staging examples", "from", p.layout.ExamplesSource, "to", p.layout.ExamplesDest)

	if err := copyDir(p.layout.ExamplesSource, p.layout.ExamplesDest); err != nil {
		return err
	}

	return nil
}

// writeManifest records checksums of everything this run staged.
func (p *packager) writeManifest(ctx context.Context) error {
	m := manifest.New()
	m.Executable = filepath.Base(p.layout.ExeDest)

	checksum, err := manifest.FileChecksumBase64(p.layout.ExeDest)
	if err != nil {
		return err
	}

	m.Files[m.Executable] = checksum

	err = filepath.WalkDir(p.layout.ExamplesDest, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(p.layout.DistDir, path)
		if relErr != nil {
			return relErr
		}

		fileChecksum, sumErr := manifest.FileChecksumBase64(path)
		if sumErr != nil {
			return sumErr
		}

		m.Files[filepath.ToSlash(rel)] = fileChecksum

		return nil
	})
	if err != nil {
		return fmt.Errorf("checksum staged examples: %w", err)
	}

	repo := manifest.NewFileRepository(p.layout.DistDir)

	logger.InfoKV(ctx, "Saving package manifest", "path", repo.Path())

	return repo.Save(ctx, m)
}

// printNextSteps logs human-readable guidance for the assembled package.
func (p *packager) printNextSteps(ctx context.Context) {
	logger.Infof(ctx, "The package was assembled in %s", p.layout.DistDir)
	logger.Infof(ctx, "Create a shortcut to %s to launch %s, or apply the package with: studio-installer %s <install-dir>",
		p.layout.ExeDest, p.cfg.DistName, p.layout.DistDir)
}

// copyFile copies a regular file, overwriting any existing destination.
func copyFile(source, destination string, mode os.FileMode) error {
	contents, err := os.ReadFile(filepath.Clean(source))
	if err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}

	if err = os.WriteFile(filepath.Clean(destination), contents, mode); err != nil {
		return fmt.Errorf("write %s: %w", destination, err)
	}

	// WriteFile only applies the mode on creation.
	if err = os.Chmod(destination, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", destination, err)
	}

	return nil
}

// copyDir recursively copies a directory tree, overwriting existing files.
func copyDir(source, destination string) error {
	err := filepath.WalkDir(source, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(source, path)
		if relErr != nil {
			return relErr
		}

		target := filepath.Join(destination, rel)

		if d.IsDir() {
			return os.MkdirAll(target, manifest.DefaultFileMode)
		}

		// Sockets, devices and the like have no place in a package.
		if !d.Type().IsRegular() {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}

		return copyFile(path, target, info.Mode().Perm())
	})
	if err != nil {
		return fmt.Errorf("copy %s: %w", source, err)
	}

	return nil
}
