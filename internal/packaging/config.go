// Package packaging deploys and removes yabsnap: its runtime tree, entry point,
// systemd service and timer, and the optional pacman pre-transaction hook.
package packaging

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// InstallConfig holds the configuration for deploying yabsnap.
// It is usually built from a Manifest plus command-line overrides.
type InstallConfig struct {
	// SourceDir is the tree of runtime scripts to mirror. Required for install.
	SourceDir string

	// AssetDir holds the service, timer and hook descriptors to deploy verbatim.
	// Default: <SourceDir>/../artifacts
	AssetDir string

	// InstallDir is the system directory holding the mirrored tree.
	// Default: /usr/share/yabsnap
	InstallDir string

	// EntryScript is the entry script path relative to InstallDir.
	// Default: yabsnap.sh
	EntryScript string

	// EntryPointPath is the symlink exposing the entry script.
	// Default: /usr/bin/yabsnap
	EntryPointPath string

	// UnitDir is the systemd unit configuration directory.
	// Default: /etc/systemd/system
	UnitDir string

	// ServiceUnit is the service unit file name.
	// Default: yabsnap.service
	ServiceUnit string

	// TimerUnit is the timer unit file name. This is the unit that gets enabled.
	// Default: yabsnap.timer
	TimerUnit string

	// HookDir is the pacman hooks directory.
	// Default: /etc/pacman.d/hooks
	HookDir string

	// HookFile is the pacman hook file name.
	// Default: 05-yabsnap-pacman-pre.hook
	HookFile string

	// IncludePatterns selects files to mirror. Empty mirrors everything.
	IncludePatterns []string

	// ExcludePatterns removes files from the selection.
	ExcludePatterns []string

	// InstallHook deploys the pacman hook when true. Uninstall always removes it.
	InstallHook bool
}

// DefaultInstallDir is the default directory for the mirrored tree.
const DefaultInstallDir = "/usr/share/yabsnap"

// DefaultEntryScript is the default entry script relative to the install directory.
const DefaultEntryScript = "yabsnap.sh"

// DefaultEntryPointPath is the default path of the entry point symlink.
const DefaultEntryPointPath = "/usr/bin/yabsnap"

// DefaultUnitDir is the default systemd unit directory.
const DefaultUnitDir = "/etc/systemd/system"

// DefaultServiceUnit is the default service unit file name.
const DefaultServiceUnit = "yabsnap.service"

// DefaultTimerUnit is the default timer unit file name.
const DefaultTimerUnit = "yabsnap.timer"

// DefaultHookDir is the default pacman hooks directory.
const DefaultHookDir = "/etc/pacman.d/hooks"

// DefaultHookFile is the default pacman hook file name.
const DefaultHookFile = "05-yabsnap-pacman-pre.hook"

// ApplyDefaults sets default values for zero-valued fields.
func (c *InstallConfig) ApplyDefaults() {
	if c.AssetDir == "" && c.SourceDir != "" {
		c.AssetDir = filepath.Join(filepath.Dir(filepath.Clean(c.SourceDir)), "artifacts")
	}
	if c.InstallDir == "" {
		c.InstallDir = DefaultInstallDir
	}
	if c.EntryScript == "" {
		c.EntryScript = DefaultEntryScript
	}
	if c.EntryPointPath == "" {
		c.EntryPointPath = DefaultEntryPointPath
	}
	if c.UnitDir == "" {
		c.UnitDir = DefaultUnitDir
	}
	if c.ServiceUnit == "" {
		c.ServiceUnit = DefaultServiceUnit
	}
	if c.TimerUnit == "" {
		c.TimerUnit = DefaultTimerUnit
	}
	if c.HookDir == "" {
		c.HookDir = DefaultHookDir
	}
	if c.HookFile == "" {
		c.HookFile = DefaultHookFile
	}
}

// Validate checks that required fields are set and that the system paths are safe
// to mirror into and delete.
func (c *InstallConfig) Validate() error {
	if c.InstallDir == "" {
		return errors.New("packaging: config: InstallDir is required")
	}
	if !filepath.IsAbs(c.InstallDir) || filepath.Clean(c.InstallDir) == "/" {
		return fmt.Errorf("packaging: config: InstallDir %q must be an absolute path below /", c.InstallDir)
	}
	if c.EntryScript == "" {
		return errors.New("packaging: config: EntryScript is required")
	}
	if filepath.IsAbs(c.EntryScript) || escapes(c.EntryScript) {
		return fmt.Errorf("packaging: config: EntryScript %q must stay inside InstallDir", c.EntryScript)
	}
	if c.EntryPointPath == "" {
		return errors.New("packaging: config: EntryPointPath is required")
	}
	if c.UnitDir == "" {
		return errors.New("packaging: config: UnitDir is required")
	}
	if c.ServiceUnit == "" {
		return errors.New("packaging: config: ServiceUnit is required")
	}
	if c.TimerUnit == "" {
		return errors.New("packaging: config: TimerUnit is required")
	}
	if c.HookDir == "" {
		return errors.New("packaging: config: HookDir is required")
	}
	if c.HookFile == "" {
		return errors.New("packaging: config: HookFile is required")
	}
	for _, name := range []string{c.ServiceUnit, c.TimerUnit, c.HookFile} {
		if strings.ContainsRune(name, filepath.Separator) {
			return fmt.Errorf("packaging: config: %q must be a file name, not a path", name)
		}
	}
	return nil
}

// validateSource checks the fields only install needs.
func (c *InstallConfig) validateSource() error {
	if c.SourceDir == "" {
		return errors.New("packaging: config: SourceDir is required for install")
	}
	if c.AssetDir == "" {
		return errors.New("packaging: config: AssetDir is required for install")
	}
	return nil
}

// EntryScriptPath returns the absolute path the entry point links to.
func (c *InstallConfig) EntryScriptPath() string {
	return filepath.Join(c.InstallDir, filepath.FromSlash(c.EntryScript))
}

func escapes(rel string) bool {
	clean := filepath.Clean(filepath.FromSlash(rel))
	return clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))
}
