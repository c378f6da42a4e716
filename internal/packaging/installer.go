package packaging

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/yabsnap/yabsnap-deploy/internal/exitcode"
	"github.com/yabsnap/yabsnap-deploy/internal/filesync"
)

// Installer deploys and removes yabsnap on the host.
type Installer struct {
	cfg     InstallConfig
	systemd SystemdController
	root    RootChecker
	host    HostChecker
	logger  *slog.Logger
}

// NewInstaller creates a new Installer with defaults applied.
func NewInstaller(cfg InstallConfig, systemd SystemdController, root RootChecker, host HostChecker, logger *slog.Logger) *Installer {
	cfg.ApplyDefaults()
	return &Installer{
		cfg:     cfg,
		systemd: systemd,
		root:    root,
		host:    host,
		logger:  logger.With("component", "packaging"),
	}
}

// Config returns the effective configuration.
func (ins *Installer) Config() InstallConfig {
	return ins.cfg
}

// Install mirrors the tree, links the entry point, deploys the units (and the hook
// when configured), reloads systemd and enables the timer. It stops at the first
// failing step; rerunning it converges on the same end state.
func (ins *Installer) Install() error {
	steps, err := ins.installSteps()
	if err != nil {
		return err
	}
	if err := ins.preflight("install"); err != nil {
		return err
	}

	ins.logger.Info("installing",
		"src", ins.cfg.SourceDir,
		"dst", ins.cfg.InstallDir,
		"hook", ins.cfg.InstallHook,
	)
	if err := runSteps(ins.logger, "install", steps); err != nil {
		return err
	}
	ins.logger.Info("install complete", "timer", ins.cfg.TimerUnit)
	return nil
}

// Uninstall removes everything Install creates. The host guard runs before any
// change is made. Removing an already-absent resource is not an error and a failing
// timer disable is tolerated, so a repeated run on a clean host succeeds.
func (ins *Installer) Uninstall() error {
	if err := ins.cfg.Validate(); err != nil {
		return exitcode.Config("invalid configuration", err)
	}
	if err := ins.preflight("uninstall"); err != nil {
		return err
	}

	ins.logger.Info("uninstalling", "dst", ins.cfg.InstallDir)
	if err := runSteps(ins.logger, "uninstall", ins.uninstallSteps()); err != nil {
		return err
	}
	ins.logger.Info("uninstall complete")
	return nil
}

// Plan returns the step names op ("install" or "uninstall") would run, without
// touching the host.
func (ins *Installer) Plan(op string) ([]string, error) {
	switch op {
	case "install":
		steps, err := ins.installSteps()
		if err != nil {
			return nil, err
		}
		return stepNames(steps), nil
	case "uninstall":
		return stepNames(ins.uninstallSteps()), nil
	default:
		return nil, fmt.Errorf("packaging: unknown operation %q", op)
	}
}

// preflight checks every precondition. It never modifies the host.
func (ins *Installer) preflight(op string) error {
	if !ins.root.IsRoot() {
		return exitcode.Precondition(fmt.Sprintf("packaging: %s requires root privileges", op), nil)
	}
	if err := ins.host.CheckHost(); err != nil {
		if exitcode.Get(err) == exitcode.PreconditionFail {
			return err
		}
		return exitcode.Precondition("packaging: host check", err)
	}
	if !ins.systemd.IsAvailable() {
		return exitcode.Precondition("packaging: systemd is not available", nil)
	}
	return nil
}

func (ins *Installer) installSteps() ([]Step, error) {
	if err := ins.cfg.Validate(); err != nil {
		return nil, exitcode.Config("invalid configuration", err)
	}
	if err := ins.cfg.validateSource(); err != nil {
		return nil, exitcode.Config("invalid configuration", err)
	}
	mirror, err := filesync.NewMirror(ins.filter(), ins.logger)
	if err != nil {
		return nil, exitcode.Config("invalid filter patterns", err)
	}

	tree := ins.treeResource(mirror)
	link := ins.symlinkResource()
	units := ins.unitResource()
	hook := ins.hookResource()

	steps := []Step{
		{Name: tree.Name(), Run: tree.Apply},
		{Name: link.Name(), Run: link.Apply},
		{Name: units.Name(), Run: units.Apply},
	}
	if ins.cfg.InstallHook {
		steps = append(steps, Step{Name: hook.Name(), Run: hook.Apply})
	}
	steps = append(steps,
		Step{Name: "daemon-reload", Run: ins.systemd.DaemonReload},
		Step{Name: "enable-timer", Run: func() error { return ins.systemd.EnableNow(ins.cfg.TimerUnit) }},
	)
	return steps, nil
}

func (ins *Installer) uninstallSteps() []Step {
	tree := ins.treeResource(nil)
	link := ins.symlinkResource()
	units := ins.unitResource()
	hook := ins.hookResource()

	return []Step{
		{Name: hook.Name(), Run: hook.Remove},
		{Name: "disable-timer", Run: func() error { return ins.systemd.Disable(ins.cfg.TimerUnit) }, Tolerant: true},
		{Name: units.Name(), Run: units.Remove},
		{Name: "daemon-reload", Run: ins.systemd.DaemonReload},
		{Name: link.Name(), Run: link.Remove},
		{Name: tree.Name(), Run: tree.Remove},
	}
}

func (ins *Installer) filter() filesync.Filter {
	return filesync.Filter{
		Include: ins.cfg.IncludePatterns,
		Exclude: ins.cfg.ExcludePatterns,
	}
}

func (ins *Installer) treeResource(mirror *filesync.Mirror) *treeResource {
	return &treeResource{src: ins.cfg.SourceDir, dst: ins.cfg.InstallDir, mirror: mirror}
}

func (ins *Installer) symlinkResource() *symlinkResource {
	return &symlinkResource{
		link:   ins.cfg.EntryPointPath,
		target: ins.cfg.EntryScriptPath(),
		logger: ins.logger,
	}
}

func (ins *Installer) unitResource() *descriptorResource {
	return &descriptorResource{
		name: "units",
		files: []descriptor{
			{src: filepath.Join(ins.cfg.AssetDir, ins.cfg.ServiceUnit), dst: filepath.Join(ins.cfg.UnitDir, ins.cfg.ServiceUnit)},
			{src: filepath.Join(ins.cfg.AssetDir, ins.cfg.TimerUnit), dst: filepath.Join(ins.cfg.UnitDir, ins.cfg.TimerUnit)},
		},
		logger: ins.logger,
	}
}

func (ins *Installer) hookResource() *descriptorResource {
	return &descriptorResource{
		name: "hook",
		files: []descriptor{
			{src: filepath.Join(ins.cfg.AssetDir, ins.cfg.HookFile), dst: filepath.Join(ins.cfg.HookDir, ins.cfg.HookFile)},
		},
		logger: ins.logger,
	}
}
