package packaging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/yabsnap/yabsnap-deploy/internal/filesync"
	"github.com/yabsnap/yabsnap-deploy/internal/integrity"
)

// FileState describes one deployed file.
type FileState struct {
	Path    string
	Present bool
}

// Status is a read-only snapshot of what is deployed on the host.
type Status struct {
	InstallDir  string
	TreePresent bool

	// Drift compares the tree with the source. Nil when no source tree is available.
	Drift *integrity.Drift

	EntryPoint string

	// LinkTarget is empty when no symlink exists at EntryPoint.
	LinkTarget  string
	LinkCorrect bool

	Units []FileState
	Hook  FileState

	// HookWanted is set when the configuration installs the hook.
	HookWanted bool

	TimerUnit    string
	TimerEnabled bool
	TimerActive  bool
}

// Installed reports whether the core artifacts, and the hook when wanted, are all in
// place and the timer is enabled.
func (s Status) Installed() bool {
	if !s.TreePresent || !s.LinkCorrect || !s.TimerEnabled {
		return false
	}
	if s.HookWanted && !s.Hook.Present {
		return false
	}
	for _, u := range s.Units {
		if !u.Present {
			return false
		}
	}
	return true
}

// Status inspects the host without modifying it. It does not require root.
func (ins *Installer) Status() (Status, error) {
	st := Status{
		InstallDir: ins.cfg.InstallDir,
		EntryPoint: ins.cfg.EntryPointPath,
		TimerUnit:  ins.cfg.TimerUnit,
	}

	info, err := os.Stat(ins.cfg.InstallDir)
	switch {
	case err == nil:
		st.TreePresent = info.IsDir()
	case !errors.Is(err, fs.ErrNotExist):
		return st, fmt.Errorf("packaging: status: %w", err)
	}

	if ins.cfg.SourceDir != "" {
		drift, err := ins.drift()
		if err != nil {
			return st, err
		}
		st.Drift = drift
	}

	linkInfo, err := os.Lstat(ins.cfg.EntryPointPath)
	switch {
	case err == nil && linkInfo.Mode()&fs.ModeSymlink != 0:
		target, err := os.Readlink(ins.cfg.EntryPointPath)
		if err != nil {
			return st, fmt.Errorf("packaging: status: %w", err)
		}
		st.LinkTarget = target
		st.LinkCorrect = target == ins.cfg.EntryScriptPath()
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return st, fmt.Errorf("packaging: status: %w", err)
	}

	for _, d := range ins.unitResource().files {
		present, err := exists(d.dst)
		if err != nil {
			return st, err
		}
		st.Units = append(st.Units, FileState{Path: d.dst, Present: present})
	}
	hook := ins.hookResource().files[0]
	present, err := exists(hook.dst)
	if err != nil {
		return st, err
	}
	st.Hook = FileState{Path: hook.dst, Present: present}
	st.HookWanted = ins.cfg.InstallHook

	if ins.systemd.IsAvailable() {
		st.TimerEnabled = ins.systemd.IsEnabled(ins.cfg.TimerUnit)
		st.TimerActive = ins.systemd.IsActive(ins.cfg.TimerUnit)
	}
	return st, nil
}

// drift compares the deployed tree with the filtered source. A missing source
// yields nil rather than an error.
func (ins *Installer) drift() (*integrity.Drift, error) {
	if ok, err := exists(ins.cfg.SourceDir); err != nil || !ok {
		return nil, err
	}
	mirror, err := filesync.NewMirror(ins.filter(), ins.logger)
	if err != nil {
		return nil, err
	}
	entries, err := mirror.Collect(ins.cfg.SourceDir)
	if err != nil {
		return nil, err
	}
	want := make([]string, len(entries))
	for i, e := range entries {
		want[i] = e.Rel
	}
	d, err := integrity.CompareTrees(ins.cfg.SourceDir, ins.cfg.InstallDir, want)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("packaging: status: %w", err)
}
