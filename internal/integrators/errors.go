package integrators

import (
	"errors"
	"fmt"
)

// Domain errors for integration.
var (
	// ErrInvalidStep indicates a non-positive or non-finite step length.
	ErrInvalidStep = errors.New("integrators: step length must be positive and finite")

	// ErrNilCurve indicates an integrator built without a stopping-power curve.
	ErrNilCurve = errors.New("integrators: nil stopping-power curve")

	// ErrNegativeEnergy indicates a negative or NaN initial energy.
	ErrNegativeEnergy = errors.New("integrators: initial energy must be non-negative")

	// ErrNegativeRange indicates a negative or NaN target range.
	ErrNegativeRange = errors.New("integrators: range must be non-negative")

	// ErrNotInitialized indicates a step before Initialize.
	ErrNotInitialized = errors.New("integrators: step before initialize")

	// ErrTerminal indicates a step after the particle stopped or returned.
	ErrTerminal = errors.New("integrators: step after terminal state")

	// ErrNonConvergent indicates the integration cannot reach its terminal state.
	ErrNonConvergent = errors.New("integrators: non-convergent integration")

	// ErrNonFinite indicates the curve drove the particle state to NaN or Inf.
	ErrNonFinite = errors.New("integrators: non-finite particle state")
)

// StepError wraps an error with the step and particle state it occurred at.
type StepError struct {
	Step    int
	State   ParticleState
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (range=%g um, energy=%g MeV/u, dedx=%g): %v",
		e.Step, e.State.Range, e.State.EnergyPerNucleon, e.State.StoppingPower, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
