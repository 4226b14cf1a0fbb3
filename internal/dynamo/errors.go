package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for driving runs.
var (
	// ErrConfig indicates a malformed ParameterSet.
	ErrConfig = errors.New("dynamo: invalid configuration")

	// ErrNumericDomain indicates a model evaluated outside its modeled range.
	ErrNumericDomain = errors.New("dynamo: value outside modeled domain")

	// ErrStructuralFailure indicates the force balance can no longer sustain the pile.
	ErrStructuralFailure = errors.New("dynamo: structural failure (pile cannot be sustained)")

	// ErrCanceled indicates the run was interrupted before reaching a terminal state.
	ErrCanceled = errors.New("dynamo: run canceled")
)

// SimulationError wraps an error with the iteration at which it occurred.
type SimulationError struct {
	Step    int
	Time    float64
	Depth   float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f, depth=%.4f): %v", e.Step, e.Time, e.Depth, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// configErrorf builds an error that matches ErrConfig.
func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
