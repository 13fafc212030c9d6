package workspace

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cvxrs/studio-tools/internal/config"
)

// TestNew verifies every derived path is anchored at the workspace root.
func TestNew(t *testing.T) {
	t.Parallel()

	root := filepath.Join("some", "workspace")
	ext := ExecutableExtension()

	l := New(root, config.Default())

	require.Equal(t, root, l.Root)
	require.Equal(t, filepath.Join(root, "target", "release"), l.TargetDir)
	require.Equal(t, filepath.Join(root, "dist", "cvxrs-studio"), l.DistDir)
	require.Equal(t, filepath.Join(l.TargetDir, "cvxrs-gui"+ext), l.ExeSource)
	require.Equal(t, filepath.Join(l.DistDir, "cvxrs-studio"+ext), l.ExeDest)
	require.Equal(t, filepath.Join(root, "examples"), l.ExamplesSource)
	require.Equal(t, filepath.Join(l.DistDir, "examples"), l.ExamplesDest)
}

// TestNew_CustomSettings ensures configured names flow into the layout.
func TestNew_CustomSettings(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		GUIPackage:  "studio-gui",
		DistName:    "studio",
		ExamplesDir: "samples",
	}
	require.NoError(t, config.Validate(cfg))

	l := New("root", cfg)

	require.Equal(t, filepath.Join("root", "target", "release", "studio-gui"+ExecutableExtension()), l.ExeSource)
	require.Equal(t, filepath.Join("root", "dist", "studio", "studio"+ExecutableExtension()), l.ExeDest)
	require.Equal(t, filepath.Join("root", "samples"), l.ExamplesSource)
	require.Equal(t, filepath.Join("root", "dist", "studio", "samples"), l.ExamplesDest)
}

// TestDefaultRoot ensures a root is always resolved without error.
func TestDefaultRoot(t *testing.T) {
	t.Parallel()

	root, err := DefaultRoot()
	require.NoError(t, err)
	require.NotEmpty(t, root)
}
