package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cvxrs/studio-tools/internal/config"
	"github.com/cvxrs/studio-tools/internal/logger"
	"github.com/cvxrs/studio-tools/internal/service/packager"
	"github.com/cvxrs/studio-tools/internal/version"
)

var (
	// configPath to the packaging settings YAML file.
	configPath string
	// workspaceRoot overrides the derived cargo workspace root.
	workspaceRoot string
	// skipBuild reuses the existing release artifact instead of building.
	skipBuild bool
	// logLevel sets the logging verbosity.
	logLevel string

	// rootCmd represents the base command for assembling the distribution package.
	rootCmd = &cobra.Command{
		Use:   "studio-packager",
		Short: "Build and package cvxrs Studio for distribution",
		Long: `Assembles the cvxrs Studio distribution package.

Runs a release build of the GUI crate (unless --skip-build is given), verifies
the compiled executable exists, stages it into dist/cvxrs-studio together with
the workspace examples, and writes a checksum manifest for the installer.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level: %s", logLevel)
			}

			logger.SetLevel(level)

			options := &packager.Options{
				ConfigPath:    configPath,
				WorkspaceRoot: workspaceRoot,
				SkipBuild:     skipBuild,
			}

			return packager.Run(ctx, options)
		},
	}
)

// Execute runs the studio-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to packaging settings file")
	rootCmd.Flags().StringVarP(&workspaceRoot, "workspace", "w", "", "cargo workspace root (default: derived from the executable location)")
	rootCmd.Flags().BoolVar(&skipBuild, "skip-build", false, "stage the existing release artifact without building")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "logging verbosity (debug, info, warn, error)")
}
