package exitcode

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, Success},
		{"plain", errors.New("boom"), GeneralError},
		{"precondition", Precondition("unsupported host", nil), PreconditionFail},
		{"step", StepFailed("tree", os.ErrPermission), StepFail},
		{"config", Config("bad manifest", nil), ConfigError},
		{"wrapped step", fmt.Errorf("uninstall: %w", StepFailed("hook", os.ErrPermission)), StepFail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Get(tt.err); got != tt.want {
				t.Errorf("Get() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestError_MessageAndUnwrap(t *testing.T) {
	err := StepFailed("symlink", os.ErrPermission)

	if got, want := err.Error(), "step symlink failed: permission denied"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, os.ErrPermission) {
		t.Error("errors.Is(err, os.ErrPermission) = false, want true")
	}
	if got := New(GeneralError, "plain").Error(); got != "plain" {
		t.Errorf("Error() = %q, want %q", got, "plain")
	}
}
