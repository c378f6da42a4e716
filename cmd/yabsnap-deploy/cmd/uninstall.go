package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yabsnap/yabsnap-deploy/internal/packaging"
)

var (
	uninstallDryRun bool
	uninstallTarget targetFlags
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove yabsnap from the host",
	Long: "Remove the pacman hook, disable the timer, remove the units, reload systemd and\n" +
		"delete the entry point and the runtime tree. Nothing is touched on a host outside\n" +
		"the supported distribution family.",
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().BoolVar(&uninstallDryRun, "dry-run", false, "print the steps without changing the host")
	uninstallTarget.register(uninstallCmd)
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, _ []string) error {
	logger := setupLogger(logLevel)

	var cfg packaging.InstallConfig
	uninstallTarget.apply(&cfg)
	installer := packaging.NewInstaller(cfg, newSystemdController(), newRootChecker(), uninstallTarget.hostChecker(logger), logger)

	if uninstallDryRun {
		return printPlan(cmd, installer, "uninstall")
	}
	if err := installer.Uninstall(); err != nil {
		return fmt.Errorf("yabsnap-deploy uninstall: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "yabsnap uninstalled successfully")
	return nil
}
