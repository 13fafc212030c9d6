package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds packaging settings shared by the studio tools.
type Config struct {
	// CargoPath is the build tool binary invoked to produce release artifacts.
	CargoPath string `yaml:"cargo_path"`
	// GUIPackage is the cargo package name of the GUI, which is also the artifact base name.
	GUIPackage string `yaml:"gui_package"`
	// DistName is the distribution directory name and the staged executable base name.
	DistName string `yaml:"dist_name"`
	// ExamplesDir is the workspace-relative directory of example problems shipped with the package.
	ExamplesDir string `yaml:"examples_dir"`
	// BuildTimeout is the upper bound on the build tool invocation.
	BuildTimeout time.Duration `yaml:"build_timeout"`
}

const (
	// DefaultConfigFilename is the default filename for packaging settings.
	DefaultConfigFilename = "cvxrs-studio-packager.yaml"

	// DefaultCargoPath is the build tool binary resolved via PATH.
	DefaultCargoPath = "cargo"

	// DefaultGUIPackage is the cargo package producing the GUI executable.
	DefaultGUIPackage = "cvxrs-gui"

	// DefaultDistName is the name of the distributed application.
	DefaultDistName = "cvxrs-studio"

	// DefaultExamplesDir is the workspace-relative examples directory.
	DefaultExamplesDir = "examples"

	// DefaultBuildTimeout is the default upper bound on release builds.
	DefaultBuildTimeout = 15 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNameContainsSeparator is returned when a bare-name setting holds a path.
	errNameContainsSeparator = errors.New("must be a bare name without path separators")
	// errExamplesDirAbsolute is returned when the examples directory is not workspace-relative.
	errExamplesDirAbsolute = errors.New("examples directory must be workspace-relative")
)

// Default returns a fully populated configuration with default values.
func Default() *Config {
	cfg := new(Config)
	applyDefaults(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
// A missing file is not an error: the tools work with zero configuration,
// so defaults are returned instead.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the effective settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required formats and fills in defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if strings.ContainsAny(cfg.GUIPackage, `/\`) {
		return fmt.Errorf("gui_package %q: %w", cfg.GUIPackage, errNameContainsSeparator)
	}

	if strings.ContainsAny(cfg.DistName, `/\`) {
		return fmt.Errorf("dist_name %q: %w", cfg.DistName, errNameContainsSeparator)
	}

	if filepath.IsAbs(cfg.ExamplesDir) {
		return fmt.Errorf("examples_dir %q: %w", cfg.ExamplesDir, errExamplesDirAbsolute)
	}

	return nil
}

// applyDefaults fills empty fields with their default values.
func applyDefaults(cfg *Config) {
	if cfg.CargoPath == "" {
		cfg.CargoPath = DefaultCargoPath
	}

	if cfg.GUIPackage == "" {
		cfg.GUIPackage = DefaultGUIPackage
	}

	if cfg.DistName == "" {
		cfg.DistName = DefaultDistName
	}

	if cfg.ExamplesDir == "" {
		cfg.ExamplesDir = DefaultExamplesDir
	}

	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = DefaultBuildTimeout
	}
}
