package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidArena indicates non-positive bounds or a non-finite gravity.
	ErrInvalidArena = errors.New("dynamo: invalid arena")

	// ErrInvalidBody indicates a body descriptor that can never be simulated.
	ErrInvalidBody = errors.New("dynamo: invalid body")

	// ErrInvalidPalette indicates fewer than two distinct display colors.
	ErrInvalidPalette = errors.New("dynamo: palette needs at least two distinct colors")

	// ErrInvalidStep indicates a non-positive or non-finite time step.
	ErrInvalidStep = errors.New("dynamo: time step must be positive")

	// ErrInvalidState indicates a NaN or Inf in a body's position or velocity.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
