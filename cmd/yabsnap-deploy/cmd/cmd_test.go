package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/yabsnap/yabsnap-deploy/internal/packaging"
)

type fakeSystemd struct {
	calls   []string
	enabled bool
}

func (f *fakeSystemd) IsAvailable() bool       { return true }
func (f *fakeSystemd) IsEnabled(_ string) bool { return f.enabled }
func (f *fakeSystemd) IsActive(_ string) bool  { return f.enabled }

func (f *fakeSystemd) DaemonReload() error {
	f.calls = append(f.calls, "daemon-reload")
	return nil
}

func (f *fakeSystemd) EnableNow(unit string) error {
	f.calls = append(f.calls, "enable "+unit)
	f.enabled = true
	return nil
}

func (f *fakeSystemd) Disable(unit string) error {
	f.calls = append(f.calls, "disable "+unit)
	f.enabled = false
	return nil
}

type fakeRoot bool

func (r fakeRoot) IsRoot() bool { return bool(r) }

// useHost swaps in fake host capabilities for the duration of the test.
func useHost(t *testing.T, root bool) *fakeSystemd {
	t.Helper()
	sd := &fakeSystemd{}
	origSystemd, origRoot := newSystemdController, newRootChecker
	newSystemdController = func() packaging.SystemdController { return sd }
	newRootChecker = func() packaging.RootChecker { return fakeRoot(root) }
	t.Cleanup(func() {
		newSystemdController, newRootChecker = origSystemd, origRoot
	})
	return sd
}

// execute runs the root command with args after resetting every flag to its default,
// since the command tree is shared between tests.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"--log-level", "error"}, args...))

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// hostLayout is a scratch host: a checkout with src/ and artifacts/ plus target directories.
type hostLayout struct {
	root string
}

func newHostLayout(t *testing.T, osRelease string) hostLayout {
	t.Helper()
	h := hostLayout{root: t.TempDir()}
	writeTestFile(t, h.path("checkout", "src", "yabsnap.sh"), "#!/bin/sh\n", 0o755)
	writeTestFile(t, h.path("checkout", "src", "snap", "core.py"), "print('snap')\n", 0o644)
	writeTestFile(t, h.path("checkout", "src", "snap", "core_test.py"), "assert True\n", 0o644)
	writeTestFile(t, h.path("os-release"), osRelease, 0o644)
	return h
}

func (h hostLayout) path(parts ...string) string {
	return filepath.Join(append([]string{h.root}, parts...)...)
}

// targetArgs points every host location into the scratch tree.
func (h hostLayout) targetArgs() []string {
	return []string{
		"--install-dir", h.path("usr", "share", "yabsnap"),
		"--entry-point", h.path("usr", "bin", "yabsnap"),
		"--unit-dir", h.path("etc", "systemd", "system"),
		"--hook-dir", h.path("etc", "pacman.d", "hooks"),
		"--os-release", h.path("os-release"),
	}
}

func writeTestFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll(%q) = %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("WriteFile(%q) = %v", path, err)
	}
}

const archRelease = "NAME=\"Arch Linux\"\nID=arch\n"

const debianRelease = "NAME=\"Debian GNU/Linux\"\nID=debian\n"
