package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yabsnap/yabsnap-deploy/internal/exitcode"
	"github.com/yabsnap/yabsnap-deploy/internal/packaging"
)

var (
	installVariant     string
	installManifest    string
	installSource      string
	installAssets      string
	installEntryScript string
	installHook        bool
	installDryRun      bool
	installTarget      targetFlags
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install yabsnap and enable its timer",
	Long: "Mirror the filtered source tree into the install directory, link the entry point,\n" +
		"deploy the systemd units (and the pacman hook when enabled), reload systemd and\n" +
		"enable the timer. Rerunning converges on the same state.",
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installVariant, "variant", packaging.VariantFull, "deployment preset: full or minimal")
	installCmd.Flags().StringVar(&installManifest, "manifest", "", "manifest file (.yaml, .yml or .toml) refining the preset")
	installCmd.Flags().StringVar(&installSource, "source", "", "source tree to mirror (overrides manifest)")
	installCmd.Flags().StringVar(&installAssets, "assets", "", "directory holding the unit and hook files (default <source>/../artifacts)")
	installCmd.Flags().StringVar(&installEntryScript, "entry-script", "", "entry script relative to the install directory (overrides manifest)")
	installCmd.Flags().BoolVar(&installHook, "hook", false, "install the pacman hook (overrides preset and manifest)")
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false, "print the steps without changing the host")
	installTarget.register(installCmd)
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, _ []string) error {
	logger := setupLogger(logLevel)

	cfg, err := installConfig(cmd)
	if err != nil {
		return fmt.Errorf("yabsnap-deploy install: %w", err)
	}

	installer := packaging.NewInstaller(cfg, newSystemdController(), newRootChecker(), installTarget.hostChecker(logger), logger)

	if installDryRun {
		return printPlan(cmd, installer, "install")
	}
	if err := installer.Install(); err != nil {
		return fmt.Errorf("yabsnap-deploy install: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "yabsnap installed successfully")
	return nil
}

// installConfig layers the variant preset, the manifest and explicit flags, in that order.
func installConfig(cmd *cobra.Command) (packaging.InstallConfig, error) {
	var cfg packaging.InstallConfig

	preset, err := packaging.PresetManifest(installVariant)
	if err != nil {
		return cfg, exitcode.Config("invalid variant", err)
	}
	preset.Apply(&cfg)

	if installManifest != "" {
		m, err := packaging.LoadManifest(installManifest)
		if err != nil {
			return cfg, exitcode.Config("invalid manifest", err)
		}
		if m.Variant != "" && cmd.Flags().Changed("variant") && m.Variant != installVariant {
			return cfg, exitcode.New(exitcode.ConfigError,
				fmt.Sprintf("--variant %s conflicts with manifest variant %s", installVariant, m.Variant))
		}
		m.Apply(&cfg)
	}

	if installSource != "" {
		abs, err := filepath.Abs(installSource)
		if err != nil {
			return cfg, exitcode.Config("invalid source", err)
		}
		cfg.SourceDir = abs
	}
	if installAssets != "" {
		abs, err := filepath.Abs(installAssets)
		if err != nil {
			return cfg, exitcode.Config("invalid asset directory", err)
		}
		cfg.AssetDir = abs
	}
	if installEntryScript != "" {
		cfg.EntryScript = installEntryScript
	}
	if cmd.Flags().Changed("hook") {
		cfg.InstallHook = installHook
	}
	installTarget.apply(&cfg)
	return cfg, nil
}

func printPlan(cmd *cobra.Command, installer *packaging.Installer, op string) error {
	steps, err := installer.Plan(op)
	if err != nil {
		return fmt.Errorf("yabsnap-deploy %s: %w", op, err)
	}
	w := cmd.OutOrStdout()
	cfg := installer.Config()
	fmt.Fprintf(w, "%s plan for %s:\n", op, cfg.InstallDir)
	for i, s := range steps {
		fmt.Fprintf(w, "  %d. %s\n", i+1, s)
	}
	return nil
}
