package integrators

import (
	"math"

	"github.com/san-kum/dedx/internal/curve"
)

// Forward steps a particle from a known energy per nucleon until it stops.
type Forward struct {
	stepper
}

func NewForward(c curve.Evaluator, deltaX float64, maxSteps int) (*Forward, error) {
	s, err := newStepper(c, deltaX, maxSteps)
	if err != nil {
		return nil, err
	}
	return &Forward{stepper: s}, nil
}

// Initialize places the particle at range zero with the given energy.
func (f *Forward) Initialize(energyPerNucleon float64) error {
	if !(energyPerNucleon >= 0) || math.IsInf(energyPerNucleon, 0) {
		return ErrNegativeEnergy
	}

	f.state = ParticleState{EnergyPerNucleon: energyPerNucleon}
	f.steps = 0
	f.phase = running
	if f.Stopped() {
		// at rest: nothing left to deposit
		f.phase = terminal
		return nil
	}
	f.state.StoppingPower = f.curve.Evaluate(energyPerNucleon)
	return nil
}

// Range is the path length traveled so far, in micrometers.
func (f *Forward) Range() float64 { return f.state.Range }

func (f *Forward) Stopped() bool { return f.state.EnergyPerNucleon <= 0 }

// Step advances the particle by one step length. The step that exhausts the
// energy clamps energy and stopping power to exactly zero.
func (f *Forward) Step() error {
	if err := f.checkStep(); err != nil {
		return err
	}

	next := f.state.EnergyPerNucleon - f.state.StoppingPower*f.deltaX
	if !(next < f.state.EnergyPerNucleon) {
		// zero, negative or NaN stopping power at positive energy never stops
		return f.fail(ErrNonConvergent)
	}

	f.state.Range += f.deltaX
	f.state.EnergyPerNucleon = next
	f.steps++

	if f.Stopped() {
		f.state.EnergyPerNucleon = 0
		f.state.StoppingPower = 0
		f.phase = terminal
		return nil
	}
	f.state.StoppingPower = f.curve.Evaluate(next)
	return f.checkState()
}

// Run steps until the particle stops and returns the range in micrometers.
func (f *Forward) Run() (float64, error) {
	if f.phase == uninitialized {
		return 0, ErrNotInitialized
	}
	for !f.Stopped() {
		if err := f.Step(); err != nil {
			return f.Range(), err
		}
	}
	return f.Range(), nil
}
