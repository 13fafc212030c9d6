package manifest

import (
	"crypto"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cvxrs/studio-tools/internal/version"

	// Ensure SHA512 is available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// Filename is the manifest file written into the distribution directory.
	Filename = "cvxrs-studio-version.yaml"

	// DefaultFileMode is used when producing artifacts for distribution.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction is used to calculate package file hashes.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// defaultMapCapacity is the default initial capacity for the file map.
	defaultMapCapacity = 16
)

var errHashUnavailable = errors.New("hash function unavailable")

// Manifest describes a staged distribution package.
type Manifest struct {
	// VersionNumber is the packager version that produced the package.
	VersionNumber string `yaml:"version"`
	// Executable is the package-relative name of the staged GUI executable.
	Executable string `yaml:"executable"`
	// Files maps package-relative slash paths to base64-encoded checksums.
	Files map[string]string `yaml:"files"`
}

// New produces a Manifest initialized with defaults.
func New() *Manifest {
	return &Manifest{
		VersionNumber: version.Short(),
		Files:         make(map[string]string, defaultMapCapacity),
	}
}

// FileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func FileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// FileChecksumBase64 returns the base64 form stored in the Files map.
func FileChecksumBase64(path string) (string, error) {
	checksum, err := FileChecksum(path)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(checksum), nil
}

// DecodeChecksum converts a stored base64 checksum back to raw bytes.
func DecodeChecksum(encoded string) ([]byte, error) {
	checksum, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode checksum: %w", err)
	}

	return checksum, nil
}
