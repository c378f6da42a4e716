package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yabsnap/yabsnap-deploy/internal/exitcode"
	"github.com/yabsnap/yabsnap-deploy/internal/packaging"
)

var (
	renderOut        string
	renderVariant    string
	renderEntryPoint string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write default unit, hook and manifest files",
	Long:  "Generate the systemd service and timer, the pacman hook and a manifest for the chosen variant into an asset directory.",
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderOut, "out", "artifacts", "directory to write the files into")
	renderCmd.Flags().StringVar(&renderVariant, "variant", packaging.VariantFull, "manifest preset: full or minimal")
	renderCmd.Flags().StringVar(&renderEntryPoint, "entry-point", packaging.DefaultEntryPointPath, "entry point the units and hook execute")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	if _, err := packaging.PresetManifest(renderVariant); err != nil {
		return fmt.Errorf("yabsnap-deploy render: %w", exitcode.Config("invalid variant", err))
	}

	cfg := packaging.InstallConfig{EntryPointPath: renderEntryPoint}
	written, err := packaging.RenderAssets(cfg, renderVariant, renderOut)
	if err != nil {
		return fmt.Errorf("yabsnap-deploy render: %w", err)
	}

	w := cmd.OutOrStdout()
	for _, name := range written {
		fmt.Fprintf(w, "wrote %s\n", filepath.Join(renderOut, name))
	}
	return nil
}
