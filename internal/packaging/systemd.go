package packaging

import (
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// realSystemdController implements SystemdController using os/exec to call systemctl.
type realSystemdController struct{}

// NewSystemdController returns a SystemdController that calls the real systemctl binary.
func NewSystemdController() SystemdController {
	return &realSystemdController{}
}

func (c *realSystemdController) IsAvailable() bool {
	_, err := exec.LookPath("systemctl")
	return err == nil
}

func (c *realSystemdController) DaemonReload() error {
	return c.run("daemon-reload")
}

func (c *realSystemdController) EnableNow(unit string) error {
	return c.run("enable", "--now", unit)
}

func (c *realSystemdController) Disable(unit string) error {
	return c.run("disable", "--now", unit)
}

func (c *realSystemdController) IsEnabled(unit string) bool {
	return exec.Command("systemctl", "is-enabled", "--quiet", unit).Run() == nil
}

func (c *realSystemdController) IsActive(unit string) bool {
	return exec.Command("systemctl", "is-active", "--quiet", unit).Run() == nil
}

func (c *realSystemdController) run(args ...string) error {
	cmd := exec.Command("systemctl", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("packaging: systemctl %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(output)), err)
	}
	return nil
}

// realRootChecker implements RootChecker using the effective UID.
type realRootChecker struct{}

// NewRootChecker returns a RootChecker that checks the real process credentials.
func NewRootChecker() RootChecker {
	return &realRootChecker{}
}

func (c *realRootChecker) IsRoot() bool {
	return unix.Geteuid() == 0
}
