package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yabsnap/yabsnap-deploy/internal/exitcode"
	"github.com/yabsnap/yabsnap-deploy/internal/integrity"
	"github.com/yabsnap/yabsnap-deploy/internal/packaging"
)

var (
	statusSource  string
	statusVariant string
	statusTarget  targetFlags
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is deployed on the host",
	Long: "Inspect the runtime tree, entry point, units, hook and timer without changing anything.\n" +
		"With --source the deployed tree is compared against the filtered source.\n" +
		"Exits non-zero when yabsnap is not fully installed.",
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusSource, "source", "", "source tree to compare the deployed tree against")
	statusCmd.Flags().StringVar(&statusVariant, "variant", packaging.VariantFull, "preset whose filter applies to --source")
	statusTarget.register(statusCmd)
	rootCmd.AddCommand(statusCmd)
}

var (
	okText   = color.New(color.FgGreen).SprintFunc()
	warnText = color.New(color.FgYellow).SprintFunc()
	badText  = color.New(color.FgRed, color.Bold).SprintFunc()
)

func runStatus(cmd *cobra.Command, _ []string) error {
	logger := setupLogger(logLevel)

	var cfg packaging.InstallConfig
	preset, err := packaging.PresetManifest(statusVariant)
	if err != nil {
		return fmt.Errorf("yabsnap-deploy status: %w", exitcode.Config("invalid variant", err))
	}
	preset.Apply(&cfg)
	if statusSource != "" {
		abs, err := filepath.Abs(statusSource)
		if err != nil {
			return fmt.Errorf("yabsnap-deploy status: %w", err)
		}
		cfg.SourceDir = abs
	}
	statusTarget.apply(&cfg)

	installer := packaging.NewInstaller(cfg, newSystemdController(), newRootChecker(), statusTarget.hostChecker(logger), logger)
	st, err := installer.Status()
	if err != nil {
		return fmt.Errorf("yabsnap-deploy status: %w", err)
	}

	printStatus(cmd.OutOrStdout(), st)
	if !st.Installed() {
		return exitcode.New(exitcode.GeneralError, "yabsnap-deploy status: yabsnap is not installed")
	}
	return nil
}

func printStatus(w io.Writer, st packaging.Status) {
	fmt.Fprintf(w, "Tree:        %s %s\n", st.InstallDir, presence(st.TreePresent))
	if st.Drift != nil {
		fmt.Fprintf(w, "Drift:       %s\n", driftSummary(*st.Drift))
	}

	switch {
	case st.LinkTarget == "":
		fmt.Fprintf(w, "Entry point: %s %s\n", st.EntryPoint, badText("missing"))
	case st.LinkCorrect:
		fmt.Fprintf(w, "Entry point: %s -> %s %s\n", st.EntryPoint, st.LinkTarget, okText("ok"))
	default:
		fmt.Fprintf(w, "Entry point: %s -> %s %s\n", st.EntryPoint, st.LinkTarget, badText("stale"))
	}

	for _, u := range st.Units {
		fmt.Fprintf(w, "Unit:        %s %s\n", u.Path, presence(u.Present))
	}
	switch {
	case st.Hook.Present:
		fmt.Fprintf(w, "Hook:        %s %s\n", st.Hook.Path, okText("present"))
	case st.HookWanted:
		fmt.Fprintf(w, "Hook:        %s %s\n", st.Hook.Path, badText("missing"))
	default:
		fmt.Fprintf(w, "Hook:        %s %s\n", st.Hook.Path, warnText("not installed"))
	}

	enabled := badText("disabled")
	if st.TimerEnabled {
		enabled = okText("enabled")
	}
	active := warnText("inactive")
	if st.TimerActive {
		active = okText("active")
	}
	fmt.Fprintf(w, "Timer:       %s %s, %s\n", st.TimerUnit, enabled, active)
}

func presence(ok bool) string {
	if ok {
		return okText("ok")
	}
	return badText("missing")
}

func driftSummary(d integrity.Drift) string {
	if d.Clean() {
		return okText("in sync with source")
	}
	var parts []string
	if n := len(d.Missing); n > 0 {
		parts = append(parts, fmt.Sprintf("%d missing", n))
	}
	if n := len(d.Modified); n > 0 {
		parts = append(parts, fmt.Sprintf("%d modified", n))
	}
	if n := len(d.Extra); n > 0 {
		parts = append(parts, fmt.Sprintf("%d extra", n))
	}
	return warnText(strings.Join(parts, ", "))
}
