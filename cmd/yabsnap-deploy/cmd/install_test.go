package cmd

import (
	"os"
	"strings"
	"testing"

	"github.com/yabsnap/yabsnap-deploy/internal/exitcode"
)

func renderAssets(t *testing.T, h hostLayout) {
	t.Helper()
	if _, err := execute(t, "render", "--out", h.path("checkout", "artifacts"), "--entry-point", h.path("usr", "bin", "yabsnap")); err != nil {
		t.Fatalf("render: %v", err)
	}
}

func install(t *testing.T, h hostLayout, extra ...string) (string, error) {
	t.Helper()
	args := append([]string{"install", "--source", h.path("checkout", "src")}, h.targetArgs()...)
	return execute(t, append(args, extra...)...)
}

func TestInstallCommand_FullVariant(t *testing.T) {
	sd := useHost(t, true)
	h := newHostLayout(t, archRelease)
	renderAssets(t, h)

	output, err := install(t, h)
	if err != nil {
		t.Fatalf("install: %v\n%s", err, output)
	}
	if !strings.Contains(output, "installed successfully") {
		t.Errorf("output = %q", output)
	}

	for _, p := range []string{
		h.path("usr", "share", "yabsnap", "yabsnap.sh"),
		h.path("usr", "share", "yabsnap", "snap", "core.py"),
		h.path("etc", "systemd", "system", "yabsnap.timer"),
		h.path("etc", "pacman.d", "hooks", "05-yabsnap-pacman-pre.hook"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Stat(%s) = %v", p, err)
		}
	}
	if _, err := os.Stat(h.path("usr", "share", "yabsnap", "snap", "core_test.py")); !os.IsNotExist(err) {
		t.Errorf("test file deployed by full variant: %v", err)
	}
	if got := strings.Join(sd.calls, ","); got != "daemon-reload,enable yabsnap.timer" {
		t.Errorf("systemd calls = %s", got)
	}
}

func TestInstallCommand_MinimalVariant(t *testing.T) {
	useHost(t, true)
	h := newHostLayout(t, archRelease)
	renderAssets(t, h)

	if output, err := install(t, h, "--variant", "minimal"); err != nil {
		t.Fatalf("install: %v\n%s", err, output)
	}
	if _, err := os.Stat(h.path("usr", "share", "yabsnap", "snap", "core_test.py")); err != nil {
		t.Errorf("minimal variant should mirror every file: %v", err)
	}
	if _, err := os.Stat(h.path("etc", "pacman.d", "hooks", "05-yabsnap-pacman-pre.hook")); !os.IsNotExist(err) {
		t.Errorf("minimal variant installed the hook: %v", err)
	}
}

func TestInstallCommand_ManifestFromRender(t *testing.T) {
	useHost(t, true)
	h := newHostLayout(t, archRelease)
	renderAssets(t, h)

	args := append([]string{"install", "--manifest", h.path("checkout", "artifacts", "manifest.yaml")}, h.targetArgs()...)
	if output, err := execute(t, args...); err != nil {
		t.Fatalf("install: %v\n%s", err, output)
	}
	if _, err := os.Stat(h.path("usr", "share", "yabsnap", "snap", "core.py")); err != nil {
		t.Errorf("manifest source_dir not honoured: %v", err)
	}
}

func TestInstallCommand_VariantConflictsWithManifest(t *testing.T) {
	useHost(t, true)
	h := newHostLayout(t, archRelease)
	renderAssets(t, h)

	args := append([]string{"install", "--variant", "minimal", "--manifest", h.path("checkout", "artifacts", "manifest.yaml")}, h.targetArgs()...)
	_, err := execute(t, args...)
	if code := exitcode.Get(err); code != exitcode.ConfigError {
		t.Errorf("exit code = %d (%v), want %d", code, err, exitcode.ConfigError)
	}
}

func TestInstallCommand_UnknownVariant(t *testing.T) {
	useHost(t, true)
	h := newHostLayout(t, archRelease)

	_, err := install(t, h, "--variant", "debug")
	if code := exitcode.Get(err); code != exitcode.ConfigError {
		t.Errorf("exit code = %d (%v), want %d", code, err, exitcode.ConfigError)
	}
}

func TestInstallCommand_NonRoot(t *testing.T) {
	useHost(t, false)
	h := newHostLayout(t, archRelease)
	renderAssets(t, h)

	_, err := install(t, h)
	if code := exitcode.Get(err); code != exitcode.PreconditionFail {
		t.Errorf("exit code = %d (%v), want %d", code, err, exitcode.PreconditionFail)
	}
	if _, err := os.Stat(h.path("usr", "share", "yabsnap")); !os.IsNotExist(err) {
		t.Errorf("install dir created without root: %v", err)
	}
}

func TestInstallCommand_MissingUnitIsStepFailure(t *testing.T) {
	sd := useHost(t, true)
	h := newHostLayout(t, archRelease)

	_, err := install(t, h)
	if code := exitcode.Get(err); code != exitcode.StepFail {
		t.Errorf("exit code = %d (%v), want %d", code, err, exitcode.StepFail)
	}
	if len(sd.calls) != 0 {
		t.Errorf("systemd calls = %v, want none", sd.calls)
	}
}

func TestInstallCommand_DryRun(t *testing.T) {
	sd := useHost(t, false)
	h := newHostLayout(t, archRelease)

	output, err := install(t, h, "--dry-run", "--variant", "minimal")
	if err != nil {
		t.Fatalf("install --dry-run: %v", err)
	}
	if !strings.Contains(output, "1. tree") || !strings.Contains(output, "enable-timer") {
		t.Errorf("plan output = %q", output)
	}
	if strings.Contains(output, "hook") {
		t.Errorf("minimal plan should not deploy the hook: %q", output)
	}
	if len(sd.calls) != 0 {
		t.Errorf("dry run touched systemd: %v", sd.calls)
	}
	if _, err := os.Stat(h.path("usr")); !os.IsNotExist(err) {
		t.Errorf("dry run changed the host: %v", err)
	}
}
