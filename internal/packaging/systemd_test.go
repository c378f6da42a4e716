package packaging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSystemctl puts a shell script named systemctl first on PATH. The script appends
// its arguments to a log file and fails for any argument list containing "fail".
func fakeSystemctl(t *testing.T) (logPath string) {
	t.Helper()
	dir := t.TempDir()
	logPath = filepath.Join(dir, "calls.log")
	script := "#!/bin/sh\n" +
		"echo \"$*\" >> " + logPath + "\n" +
		"case \"$*\" in *fail*) echo \"Failed to $1 unit\" >&2; exit 1;; esac\n" +
		"exit 0\n"
	if err := os.WriteFile(filepath.Join(dir, "systemctl"), []byte(script), 0o755); err != nil {
		t.Fatalf("write fake systemctl: %v", err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return logPath
}

func readCalls(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile(%q) = %v", logPath, err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestNewSystemdController_ImplementsInterface(t *testing.T) {
	var _ SystemdController = NewSystemdController()
}

func TestRealRootChecker_IsRoot(t *testing.T) {
	var checker RootChecker = NewRootChecker()
	if got, want := checker.IsRoot(), os.Geteuid() == 0; got != want {
		t.Errorf("IsRoot() = %v, want %v", got, want)
	}
}

func TestRealSystemdController_Commands(t *testing.T) {
	logPath := fakeSystemctl(t)
	ctrl := NewSystemdController()

	if !ctrl.IsAvailable() {
		t.Fatal("IsAvailable() = false with fake systemctl on PATH")
	}
	if err := ctrl.DaemonReload(); err != nil {
		t.Fatalf("DaemonReload() = %v", err)
	}
	if err := ctrl.EnableNow("yabsnap.timer"); err != nil {
		t.Fatalf("EnableNow() = %v", err)
	}
	if err := ctrl.Disable("yabsnap.timer"); err != nil {
		t.Fatalf("Disable() = %v", err)
	}
	if !ctrl.IsActive("yabsnap.timer") {
		t.Error("IsActive() = false, want true")
	}
	if !ctrl.IsEnabled("yabsnap.timer") {
		t.Error("IsEnabled() = false, want true")
	}

	want := []string{
		"daemon-reload",
		"enable --now yabsnap.timer",
		"disable --now yabsnap.timer",
		"is-active --quiet yabsnap.timer",
		"is-enabled --quiet yabsnap.timer",
	}
	got := readCalls(t, logPath)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("systemctl calls = %q, want %q", got, want)
	}
}

func TestRealSystemdController_ErrorIncludesOutput(t *testing.T) {
	fakeSystemctl(t)
	ctrl := NewSystemdController()

	err := ctrl.Disable("fail.timer")
	if err == nil {
		t.Fatal("Disable() = nil, want error")
	}
	if !strings.Contains(err.Error(), "disable --now fail.timer") {
		t.Errorf("error = %q, want the failed command", err)
	}
	if !strings.Contains(err.Error(), "Failed to disable unit") {
		t.Errorf("error = %q, want systemctl output", err)
	}
	if ctrl.IsActive("fail.timer") {
		t.Error("IsActive() = true for failing unit")
	}
}
