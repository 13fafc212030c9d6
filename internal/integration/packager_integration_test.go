package integration

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cvxrs/studio-tools/internal/config"
	"github.com/cvxrs/studio-tools/internal/repository/manifest"
	"github.com/cvxrs/studio-tools/internal/service/packager"
	"github.com/cvxrs/studio-tools/internal/workspace"
)

// seedWorkspace creates a cargo-like workspace with a prebuilt artifact and examples.
func seedWorkspace(t *testing.T) (string, *workspace.Layout) {
	t.Helper()

	root := t.TempDir()
	layout := workspace.New(root, config.Default())

	require.NoError(t, os.MkdirAll(layout.TargetDir, 0o755))
	require.NoError(t, os.WriteFile(layout.ExeSource, []byte("compiled gui"), 0o755))
	require.NoError(t, os.MkdirAll(layout.ExamplesSource, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(layout.ExamplesSource, "foo.txt"), []byte("box qp example"), 0o644))

	return root, layout
}

// writeStubCargo drops an executable script pretending to be cargo and
// returns a settings file pointing the packager at it.
func writeStubCargo(t *testing.T, root, script string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("stub build scripts are POSIX shell")
	}

	cargoPath := filepath.Join(t.TempDir(), "cargo")
	require.NoError(t, os.WriteFile(cargoPath, []byte("#!/bin/sh\n"+script+"\n"), 0o755))

	settingsPath := filepath.Join(root, "packager-settings.yaml")
	require.NoError(t, config.Save(settingsPath, &config.Config{
		CargoPath:    cargoPath,
		BuildTimeout: time.Minute,
	}))

	return settingsPath
}

// TestPackager_StagesDistribution covers the skip-build happy path end to end:
// renamed executable, byte-identical examples, verifiable manifest.
func TestPackager_StagesDistribution(t *testing.T) {
	root, layout := seedWorkspace(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := packager.Run(ctx, &packager.Options{
		ConfigPath:    filepath.Join(root, "no-settings.yaml"),
		WorkspaceRoot: root,
		SkipBuild:     true,
	})
	require.NoError(t, err)

	staged, err := os.ReadFile(layout.ExeDest)
	require.NoError(t, err)
	require.Equal(t, "compiled gui", string(staged))

	example, err := os.ReadFile(filepath.Join(layout.ExamplesDest, "foo.txt"))
	require.NoError(t, err)
	require.Equal(t, "box qp example", string(example))

	m, err := manifest.NewFileRepository(layout.DistDir).Load(ctx)
	require.NoError(t, err)

	for name, encoded := range m.Files {
		got, sumErr := manifest.FileChecksumBase64(filepath.Join(layout.DistDir, filepath.FromSlash(name)))
		require.NoError(t, sumErr)
		require.Equal(t, encoded, got)
	}
}

// TestPackager_MissingArtifactFails ensures skip-build with no prior build
// output fails with the offending path and creates nothing.
func TestPackager_MissingArtifactFails(t *testing.T) {
	root := t.TempDir()
	layout := workspace.New(root, config.Default())

	err := packager.Run(context.Background(), &packager.Options{
		ConfigPath:    filepath.Join(root, "no-settings.yaml"),
		WorkspaceRoot: root,
		SkipBuild:     true,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), layout.ExeSource)
	require.NoDirExists(t, layout.DistDir)
}

// TestPackager_BuildWithStubCargo exercises the real build invocation path
// with a script that produces the artifact.
func TestPackager_BuildWithStubCargo(t *testing.T) {
	root := t.TempDir()
	layout := workspace.New(root, config.Default())

	require.NoError(t, os.MkdirAll(layout.ExamplesSource, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(layout.ExamplesSource, "foo.txt"), []byte("x"), 0o644))

	settings := writeStubCargo(t, root,
		"mkdir -p target/release\nprintf 'built by stub' > target/release/cvxrs-gui")

	err := packager.Run(context.Background(), &packager.Options{
		ConfigPath:    settings,
		WorkspaceRoot: root,
	})
	require.NoError(t, err)

	staged, err := os.ReadFile(layout.ExeDest)
	require.NoError(t, err)
	require.Equal(t, "built by stub", string(staged))
}

// TestPackager_FailingBuildLeavesNoDist ensures a non-zero build exit aborts
// before any destination directory is created.
func TestPackager_FailingBuildLeavesNoDist(t *testing.T) {
	root := t.TempDir()
	layout := workspace.New(root, config.Default())

	require.NoError(t, os.MkdirAll(layout.ExamplesSource, 0o755))

	settings := writeStubCargo(t, root, "exit 101")

	err := packager.Run(context.Background(), &packager.Options{
		ConfigPath:    settings,
		WorkspaceRoot: root,
	})
	require.Error(t, err)
	require.NoDirExists(t, layout.DistDir)
}
