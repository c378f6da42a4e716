package packaging

import (
	"errors"
	"reflect"
	"testing"

	"github.com/yabsnap/yabsnap-deploy/internal/exitcode"
)

func TestRunSteps_StopsAtFirstFailure(t *testing.T) {
	var ran []string
	step := func(name string, err error) Step {
		return Step{Name: name, Run: func() error {
			ran = append(ran, name)
			return err
		}}
	}
	boom := errors.New("boom")

	err := runSteps(testLogger(), "test", []Step{
		step("a", nil),
		step("b", boom),
		step("c", nil),
	})

	if !errors.Is(err, boom) {
		t.Fatalf("runSteps() = %v, want wrapping boom", err)
	}
	if code := exitcode.Get(err); code != exitcode.StepFail {
		t.Errorf("exit code = %d, want %d", code, exitcode.StepFail)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(ran, want) {
		t.Errorf("ran = %q, want %q", ran, want)
	}
}

func TestRunSteps_TolerantStepContinues(t *testing.T) {
	var ran []string
	steps := []Step{
		{Name: "disable", Tolerant: true, Run: func() error {
			ran = append(ran, "disable")
			return errors.New("unit not loaded")
		}},
		{Name: "remove", Run: func() error {
			ran = append(ran, "remove")
			return nil
		}},
	}

	if err := runSteps(testLogger(), "test", steps); err != nil {
		t.Fatalf("runSteps() = %v, want nil", err)
	}
	if want := []string{"disable", "remove"}; !reflect.DeepEqual(ran, want) {
		t.Errorf("ran = %q, want %q", ran, want)
	}
}

func TestStepNames(t *testing.T) {
	got := stepNames([]Step{{Name: "tree"}, {Name: "symlink"}})
	if want := []string{"tree", "symlink"}; !reflect.DeepEqual(got, want) {
		t.Errorf("stepNames() = %q, want %q", got, want)
	}
}
