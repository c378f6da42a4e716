package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yabsnap/yabsnap-deploy/internal/distro"
	"github.com/yabsnap/yabsnap-deploy/internal/packaging"
)

// Host capabilities. Tests replace these.
var (
	newSystemdController = packaging.NewSystemdController
	newRootChecker       = packaging.NewRootChecker
)

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// targetFlags are the host locations shared by every command that touches the deployment.
type targetFlags struct {
	installDir string
	entryPoint string
	unitDir    string
	hookDir    string
	osRelease  string
	family     string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.installDir, "install-dir", packaging.DefaultInstallDir, "directory receiving the runtime tree")
	cmd.Flags().StringVar(&f.entryPoint, "entry-point", packaging.DefaultEntryPointPath, "path of the entry point symlink")
	cmd.Flags().StringVar(&f.unitDir, "unit-dir", packaging.DefaultUnitDir, "systemd unit directory")
	cmd.Flags().StringVar(&f.hookDir, "hook-dir", packaging.DefaultHookDir, "pacman hook directory")
	cmd.Flags().StringVar(&f.osRelease, "os-release", distro.DefaultOSReleasePath, "os-release file identifying the host")
	cmd.Flags().StringVar(&f.family, "family", distro.DefaultFamily, "distribution family the host must belong to")
}

func (f *targetFlags) apply(cfg *packaging.InstallConfig) {
	cfg.InstallDir = f.installDir
	cfg.EntryPointPath = f.entryPoint
	cfg.UnitDir = f.unitDir
	cfg.HookDir = f.hookDir
}

func (f *targetFlags) hostChecker(logger *slog.Logger) packaging.HostChecker {
	return distro.NewChecker(f.osRelease, f.family, logger)
}
