// Package cmd implements the yabsnap-deploy CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logLevel string

// Build info set from main.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersionInfo sets the version info from build-time ldflags.
func SetVersionInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("yabsnap-deploy version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

var rootCmd = &cobra.Command{
	Use:   "yabsnap-deploy",
	Short: "yabsnap-deploy installs and removes yabsnap on Arch-family hosts",
	Long: "yabsnap-deploy mirrors the yabsnap runtime tree into place, links its entry point,\n" +
		"deploys the systemd service and timer (and optionally the pacman hook) and enables\n" +
		"the timer. Uninstall reverses every step.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("yabsnap-deploy version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
