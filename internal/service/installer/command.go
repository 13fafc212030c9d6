package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/cvxrs/studio-tools/internal/config"
	"github.com/cvxrs/studio-tools/internal/logger"
	"github.com/cvxrs/studio-tools/internal/repository/manifest"
)

// Options are inputs accepted by the installer entry point.
type Options struct {
	// ConfigPath is the optional path to the packaging settings YAML.
	ConfigPath string
	// DistDir is the staged distribution directory produced by the packager.
	DistDir string
	// InstallDir is where the application is installed.
	InstallDir string
}

var (
	errAlreadyRunning   = errors.New("the installer is already running")
	errNoExecutable     = errors.New("manifest names no executable")
	errNoChecksum       = errors.New("checksum missing for file")
	errChecksumMismatch = errors.New("checksum mismatch, the package is corrupt or incomplete")
)

// runner holds the state of a single install execution.
// It is intentionally unexported—call Run(ctx, Options) from callers.
type runner struct {
	cfg        *config.Config     // Packaging settings.
	distDir    string             // Source package directory.
	installDir string             // Destination install directory.
	desc       *manifest.Manifest // Verified package manifest.
}

// Run executes the installer lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "studio-installer")

	r, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer r.cleanup(ctx)

	if err = r.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Installer run failed", "error", err)
		return err
	}

	logger.Info(ctx, "Installer completed")

	return nil
}

// newRunner prepares the run and writes a marker to avoid concurrent installs.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if IsInstallerRunningNow(ctx) {
		return nil, errAlreadyRunning
	}

	if err = createMarker(); err != nil {
		return nil, fmt.Errorf("create install marker: %w", err)
	}

	return &runner{
		cfg:        cfg,
		distDir:    opts.DistDir,
		installDir: opts.InstallDir,
	}, nil
}

// Run executes the workflow for this runner instance:
// 1) Load the package manifest.
// 2) Verify every staged file against its checksum.
// 3) Stop a running studio instance.
// 4) Apply the executable with a checksum-verified replacement.
// 5) Copy the remaining package files.
func (r *runner) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Loading package manifest", "dist", r.distDir)

	repo := manifest.NewFileRepository(r.distDir)

	desc, err := repo.Load(ctx)
	if err != nil {
		return err
	}

	r.desc = desc

	logger.Info(ctx, "Verifying package checksums")

	if err = r.verifyPackage(); err != nil {
		return err
	}

	logger.Infof(ctx, "Terminating running %s instances", r.desc.Executable)

	if err = terminateProcessByName(r.desc.Executable); err != nil {
		return fmt.Errorf("terminate %s: %w", r.desc.Executable, err)
	}

	if err = os.MkdirAll(r.installDir, manifest.DefaultFileMode); err != nil {
		return fmt.Errorf("create %s: %w", r.installDir, err)
	}

	if err = r.applyExecutable(ctx); err != nil {
		return err
	}

	if err = r.copyPackageFiles(ctx); err != nil {
		return err
	}

	r.printNextSteps(ctx)

	return nil
}

// verifyPackage checks every manifest entry against the staged files
// before anything is written to the install directory.
func (r *runner) verifyPackage() error {
	if r.desc.Executable == "" {
		return errNoExecutable
	}

	if _, ok := r.desc.Files[r.desc.Executable]; !ok {
		return fmt.Errorf("%s: %w", r.desc.Executable, errNoChecksum)
	}

	for _, name := range r.sortedFileNames() {
		stagedChecksum, err := manifest.FileChecksum(r.stagedPath(name))
		if err != nil {
			return err
		}

		wantChecksum, err := manifest.DecodeChecksum(r.desc.Files[name])
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		if !bytes.Equal(stagedChecksum, wantChecksum) {
			return fmt.Errorf("%s: %w", name, errChecksumMismatch)
		}
	}

	return nil
}

// applyExecutable replaces the installed executable with the staged one.
// The replacement itself re-verifies the checksum and swaps atomically
// where the platform allows it.
func (r *runner) applyExecutable(ctx context.Context) error {
	data, err := os.ReadFile(r.stagedPath(r.desc.Executable))
	if err != nil {
		return err
	}

	checksum, err := manifest.DecodeChecksum(r.desc.Files[r.desc.Executable])
	if err != nil {
		return fmt.Errorf("%s: %w", r.desc.Executable, err)
	}

	target := filepath.Join(r.installDir, r.desc.Executable)

	if _, err = os.Stat(target); err != nil && errors.Is(err, os.ErrNotExist) {
		if _, err = os.Create(target); err != nil {
			return err
		}
	}

	logger.InfoKV(ctx, "Applying executable", "target", target)

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: manifest.DefaultFileMode,
		Checksum:   checksum,
		Hash:       manifest.DefaultChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("apply %s: %w", target, err)
	}

	oldTarget := target + ".old"
	if _, err = os.Stat(oldTarget); err == nil {
		_ = os.Remove(oldTarget)
	}

	return nil
}

// copyPackageFiles installs every verified manifest entry besides the executable.
func (r *runner) copyPackageFiles(ctx context.Context) error {
	for _, name := range r.sortedFileNames() {
		if name == r.desc.Executable {
			continue
		}

		target := filepath.Join(r.installDir, filepath.FromSlash(name))

		if err := os.MkdirAll(filepath.Dir(target), manifest.DefaultFileMode); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
		}

		contents, err := os.ReadFile(r.stagedPath(name))
		if err != nil {
			return err
		}

		if err = os.WriteFile(target, contents, 0o644); err != nil { //nolint:mnd,gosec // Plain data files.
			return fmt.Errorf("write %s: %w", target, err)
		}

		logger.DebugKV(ctx, "Installed file", "path", target)
	}

	return nil
}

// printNextSteps logs human-readable guidance for the finished install.
func (r *runner) printNextSteps(ctx context.Context) {
	target := filepath.Join(r.installDir, r.desc.Executable)

	logger.Infof(ctx, "Installed %s %s to %s", r.cfg.DistName, r.desc.VersionNumber, r.installDir)
	logger.Infof(ctx, "Create a shortcut to %s to launch the application", target)
}

// stagedPath resolves a manifest entry to its location inside the dist directory.
func (r *runner) stagedPath(name string) string {
	return filepath.Join(r.distDir, filepath.FromSlash(name))
}

// sortedFileNames returns manifest entries in a stable order.
func (r *runner) sortedFileNames() []string {
	names := make([]string, 0, len(r.desc.Files))
	for name := range r.desc.Files {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// cleanup removes the running marker.
func (r *runner) cleanup(ctx context.Context) {
	removeMarker()
	logger.Info(ctx, "The installer has been stopped")
}
