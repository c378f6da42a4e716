package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yabsnap/yabsnap-deploy/internal/exitcode"
)

func TestRenderCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "artifacts")

	output, err := execute(t, "render", "--out", out, "--entry-point", "/opt/bin/yabsnap")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, name := range []string{"yabsnap.service", "yabsnap.timer", "05-yabsnap-pacman-pre.hook", "manifest.yaml"} {
		if !strings.Contains(output, filepath.Join(out, name)) {
			t.Errorf("output should list %s, got: %s", name, output)
		}
	}

	service, err := os.ReadFile(filepath.Join(out, "yabsnap.service"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(service), "ExecStart=/opt/bin/yabsnap internal-cronrun") {
		t.Errorf("service unit should run the chosen entry point:\n%s", service)
	}
}

func TestRenderCommand_UnknownVariant(t *testing.T) {
	_, err := execute(t, "render", "--out", t.TempDir(), "--variant", "debug")
	if code := exitcode.Get(err); code != exitcode.ConfigError {
		t.Errorf("exit code = %d (%v), want %d", code, err, exitcode.ConfigError)
	}
}
