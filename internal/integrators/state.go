// Package integrators advances a particle through matter in fixed path-length
// steps over a stopping-power curve.
//
// [Forward] starts from a known energy per nucleon and steps until the
// particle has lost all of it. [Reverse] starts at rest at the end of a known
// range and steps back out, accumulating the energy the particle must have
// had on entry. Both are explicit Euler schemes; running Reverse and then
// Forward with the same step and curve reproduces the target range.
//
// Both integrators follow the same lifecycle:
//
//	uninitialized --Initialize--> running --Step...--> terminal
//
// Stepping before Initialize or after the terminal state is an error.
package integrators

import (
	"math"

	"github.com/san-kum/dedx/internal/curve"
)

// DefaultMaxSteps bounds an integration when no explicit limit is given.
const DefaultMaxSteps = 100_000_000

// ParticleState is a snapshot of the particle between steps, in base units:
// range in micrometers, energy in MeV per nucleon, stopping power in MeV per
// nucleon per micrometer.
type ParticleState struct {
	Range            float64
	EnergyPerNucleon float64
	StoppingPower    float64
}

func (s ParticleState) IsValid() bool {
	for _, v := range [...]float64{s.Range, s.EnergyPerNucleon, s.StoppingPower} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type phase int

const (
	uninitialized phase = iota
	running
	terminal
)

// stepper holds what both integrators share: the borrowed curve, the step
// length and the iteration bound.
type stepper struct {
	curve    curve.Evaluator
	deltaX   float64
	maxSteps int

	state ParticleState
	phase phase
	steps int
}

func newStepper(c curve.Evaluator, deltaX float64, maxSteps int) (stepper, error) {
	if c == nil {
		return stepper{}, ErrNilCurve
	}
	if !(deltaX > 0) || math.IsInf(deltaX, 0) {
		return stepper{}, ErrInvalidStep
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return stepper{curve: c, deltaX: deltaX, maxSteps: maxSteps}, nil
}

func (s *stepper) Steps() int                { return s.steps }
func (s *stepper) State() ParticleState      { return s.state }
func (s *stepper) EnergyPerNucleon() float64 { return s.state.EnergyPerNucleon }
func (s *stepper) StoppingPower() float64    { return s.state.StoppingPower }

func (s *stepper) checkStep() error {
	switch s.phase {
	case uninitialized:
		return ErrNotInitialized
	case terminal:
		return ErrTerminal
	}
	if s.steps >= s.maxSteps {
		return s.fail(ErrNonConvergent)
	}
	return nil
}

// checkState rejects a state the curve has made non-finite.
func (s *stepper) checkState() error {
	if !s.state.IsValid() {
		return s.fail(ErrNonFinite)
	}
	return nil
}

func (s *stepper) fail(err error) error {
	return &StepError{Step: s.steps, State: s.state, Wrapped: err}
}
