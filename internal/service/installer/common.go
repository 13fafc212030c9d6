package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/cvxrs/studio-tools/internal/logger"
	"github.com/cvxrs/studio-tools/internal/workspace"
)

const (
	// MarkerFilename marks that the installer is running right now to avoid parallel execution.
	MarkerFilename = "cvxrs-studio-install-marker.bin"

	// markerLifetime is the period after which a stale install marker is ignored.
	markerLifetime = 30 * time.Second
)

// installerExecutable is the process name of this tool on the current platform.
func installerExecutable() string {
	return "studio-installer" + workspace.ExecutableExtension()
}

// markerPath is shared between the tools so the packager can refuse to stage
// a distribution the installer is currently reading.
func markerPath() string {
	return filepath.Join(os.TempDir(), MarkerFilename)
}

// IsInstallerRunningNow checks presence of a marker file and attempts recovery if it looks stale.
func IsInstallerRunningNow(ctx context.Context) bool {
	logger.Debug(ctx, "Checking for the presence of an install marker")

	fileInfo, err := os.Stat(markerPath())
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The install marker is too old, attempting cleanup")

		if err = terminateProcessByName(installerExecutable()); err != nil {
			return true
		}

		if err = os.Remove(markerPath()); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	logger.Infof(ctx, "Unable to read install marker: %v", err)

	return false
}

// createMarker writes the run marker guarding against concurrent installs.
func createMarker() error {
	marker, err := os.Create(markerPath())
	if err != nil {
		return err
	}

	return marker.Close()
}

// removeMarker deletes the run marker if present.
func removeMarker() {
	if _, err := os.Stat(markerPath()); err == nil {
		_ = os.Remove(markerPath())
	}
}

// IsProcessRunning reports whether any other process with the provided executable name exists.
func IsProcessRunning(processName string) (bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return false, err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == processName {
			return true, nil
		}
	}

	return false, nil
}

// terminateProcessByName tries to kill processes with the provided executable name.
func terminateProcessByName(processName string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != processName {
			continue
		}

		var runningProcess *os.Process

		runningProcess, err = os.FindProcess(process.Pid())
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}
