package packaging

import (
	"log/slog"

	"github.com/yabsnap/yabsnap-deploy/internal/exitcode"
)

// Step is one fallible action of an install or uninstall run.
type Step struct {
	Name string
	Run  func() error

	// Tolerant steps log their failure and let the run continue.
	Tolerant bool
}

// runSteps executes steps in order and stops at the first failure of a step that
// is not tolerant. Steps already completed stay applied.
func runSteps(logger *slog.Logger, op string, steps []Step) error {
	for _, s := range steps {
		if err := s.Run(); err != nil {
			if s.Tolerant {
				logger.Warn("step failed, continuing", "op", op, "step", s.Name, "error", err)
				continue
			}
			logger.Error("step failed, aborting", "op", op, "step", s.Name, "error", err)
			return exitcode.StepFailed(s.Name, err)
		}
		logger.Debug("step completed", "op", op, "step", s.Name)
	}
	return nil
}

// stepNames lists the step names in execution order.
func stepNames(steps []Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}
