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
	"github.com/cvxrs/studio-tools/internal/service/installer"
	"github.com/cvxrs/studio-tools/internal/version"
)

var (
	// configPath to the packaging settings YAML file.
	configPath string
	// logLevel sets the logging verbosity.
	logLevel string

	// rootCmd represents the base command for applying a staged package.
	rootCmd = &cobra.Command{
		Use:   "studio-installer [dist-dir] [install-dir]",
		Short: "Apply a staged cvxrs Studio package to an install directory",
		Long: `Applies a distribution package assembled by studio-packager.

Every file is verified against the package manifest checksums before anything
is written, running studio instances are stopped, and the executable is
replaced with a checksum-verified swap.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level: %s", logLevel)
			}

			logger.SetLevel(level)

			options := &installer.Options{
				ConfigPath: configPath,
				DistDir:    args[0],
				InstallDir: args[1],
			}

			return installer.Run(ctx, options)
		},
	}
)

// Execute runs the studio-installer CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "info", "logging verbosity (debug, info, warn, error)")
}
