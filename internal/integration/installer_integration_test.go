package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cvxrs/studio-tools/internal/repository/manifest"
	"github.com/cvxrs/studio-tools/internal/service/installer"
	"github.com/cvxrs/studio-tools/internal/service/packager"
)

// stagePackage assembles a distribution to install from.
func stagePackage(t *testing.T) (string, string) {
	t.Helper()

	root, layout := seedWorkspace(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := packager.Run(ctx, &packager.Options{
		ConfigPath:    filepath.Join(root, "no-settings.yaml"),
		WorkspaceRoot: root,
		SkipBuild:     true,
	})
	require.NoError(t, err)

	return layout.DistDir, layout.ExeDest
}

// TestInstaller_AppliesPackage installs a staged package and verifies the result.
func TestInstaller_AppliesPackage(t *testing.T) {
	distDir, exeDest := stagePackage(t)
	installDir := filepath.Join(t.TempDir(), "apps", "cvxrs-studio")

	err := installer.Run(context.Background(), &installer.Options{
		ConfigPath: filepath.Join(distDir, "no-settings.yaml"),
		DistDir:    distDir,
		InstallDir: installDir,
	})
	require.NoError(t, err)

	installed, err := os.ReadFile(filepath.Join(installDir, filepath.Base(exeDest)))
	require.NoError(t, err)
	require.Equal(t, "compiled gui", string(installed))

	example, err := os.ReadFile(filepath.Join(installDir, "examples", "foo.txt"))
	require.NoError(t, err)
	require.Equal(t, "box qp example", string(example))

	// The replacement backup is not left behind.
	require.NoFileExists(t, filepath.Join(installDir, filepath.Base(exeDest))+".old")
}

// TestInstaller_ChecksumMismatchAborts ensures a corrupt package is rejected
// before the install directory is created.
func TestInstaller_ChecksumMismatchAborts(t *testing.T) {
	distDir, exeDest := stagePackage(t)
	installDir := filepath.Join(t.TempDir(), "install")

	// Corrupt the staged executable after the manifest was written.
	require.NoError(t, os.WriteFile(exeDest, []byte("tampered"), 0o755))

	err := installer.Run(context.Background(), &installer.Options{
		ConfigPath: filepath.Join(distDir, "no-settings.yaml"),
		DistDir:    distDir,
		InstallDir: installDir,
	})
	require.Error(t, err)
	require.NoDirExists(t, installDir)
}

// TestInstaller_MissingManifest rejects a directory that was never staged.
func TestInstaller_MissingManifest(t *testing.T) {
	err := installer.Run(context.Background(), &installer.Options{
		DistDir:    t.TempDir(),
		InstallDir: filepath.Join(t.TempDir(), "install"),
	})
	require.ErrorIs(t, err, manifest.ErrNotFound)
}
