package packaging

import (
	"fmt"
	"os"

	"github.com/yabsnap/yabsnap-deploy/internal/fsutil"
)

// GenerateServiceUnit produces the oneshot service run by the timer.
// It calls cfg.ApplyDefaults() to fill in zero-valued fields before generating the output.
func GenerateServiceUnit(cfg InstallConfig) string {
	cfg.ApplyDefaults()

	return fmt.Sprintf(`[Unit]
Description=yabsnap scheduled snapshots
After=local-fs.target

[Service]
Type=oneshot
ExecStart=%s internal-cronrun
`, cfg.EntryPointPath)
}

// GenerateTimerUnit produces the timer that triggers the service unit.
func GenerateTimerUnit(cfg InstallConfig) string {
	cfg.ApplyDefaults()

	return fmt.Sprintf(`[Unit]
Description=Run yabsnap periodically

[Timer]
OnCalendar=*:0/5
Unit=%s

[Install]
WantedBy=timers.target
`, cfg.ServiceUnit)
}

// GenerateHook produces the pacman hook that snapshots before each transaction.
func GenerateHook(cfg InstallConfig) string {
	cfg.ApplyDefaults()

	return fmt.Sprintf(`[Trigger]
Operation = Upgrade
Operation = Install
Operation = Remove
Type = Package
Target = *

[Action]
Description = Creating yabsnap snapshots before the transaction...
When = PreTransaction
Exec = %s internal-preupdate
`, cfg.EntryPointPath)
}

// RenderAssets writes the default service, timer and hook descriptors plus a manifest
// for variant into dir, creating dir if needed. Existing files are overwritten.
// It returns the names of the files written.
func RenderAssets(cfg InstallConfig, variant, dir string) ([]string, error) {
	cfg.ApplyDefaults()

	manifest, err := GenerateDefaultManifest(variant)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("packaging: create asset directory: %w", err)
	}

	files := []struct {
		name    string
		content string
	}{
		{cfg.ServiceUnit, GenerateServiceUnit(cfg)},
		{cfg.TimerUnit, GenerateTimerUnit(cfg)},
		{cfg.HookFile, GenerateHook(cfg)},
		{"manifest.yaml", manifest},
	}

	var written []string
	for _, f := range files {
		if err := fsutil.WriteFileAtomic(dir, f.name, []byte(f.content), 0o644); err != nil {
			return written, fmt.Errorf("packaging: write %s: %w", f.name, err)
		}
		written = append(written, f.name)
	}
	return written, nil
}
