package installer

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestIsProcessRunning_UnknownName returns false for a name no process carries.
func TestIsProcessRunning_UnknownName(t *testing.T) {
	t.Parallel()

	running, err := IsProcessRunning("definitely-not-a-real-process-7f3a")
	require.NoError(t, err)
	require.False(t, running)
}

// TestIsInstallerRunningNow_Marker exercises marker detection and stale reclaim.
// Not parallel: the marker location is shared machine-wide.
func TestIsInstallerRunningNow_Marker(t *testing.T) {
	t.Cleanup(removeMarker)

	ctx := context.Background()

	// No marker.
	removeMarker()
	require.False(t, IsInstallerRunningNow(ctx))

	// Fresh marker means an install is in progress.
	require.NoError(t, createMarker())
	require.True(t, IsInstallerRunningNow(ctx))

	// A stale marker is reclaimed once no installer process remains.
	stale := time.Now().Add(-2 * markerLifetime)
	require.NoError(t, os.Chtimes(markerPath(), stale, stale))
	require.False(t, IsInstallerRunningNow(ctx))
	require.NoFileExists(t, markerPath())
}
