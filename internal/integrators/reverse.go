package integrators

import (
	"math"

	"github.com/san-kum/dedx/internal/curve"
)

// Reverse starts a particle at rest at the end of its range and steps it
// backward, accumulating the energy it needed on entry.
type Reverse struct {
	stepper
}

func NewReverse(c curve.Evaluator, deltaX float64, maxSteps int) (*Reverse, error) {
	s, err := newStepper(c, deltaX, maxSteps)
	if err != nil {
		return nil, err
	}
	return &Reverse{stepper: s}, nil
}

// Initialize sets the range still to be walked back, with the particle at rest.
func (r *Reverse) Initialize(rangeToConsume float64) error {
	if !(rangeToConsume >= 0) || math.IsInf(rangeToConsume, 0) {
		return ErrNegativeRange
	}

	r.state = ParticleState{Range: rangeToConsume}
	r.steps = 0
	r.phase = running
	if r.Returned() {
		r.phase = terminal
	}
	return nil
}

// Range is the path length still to be walked back, in micrometers.
func (r *Reverse) Range() float64 { return r.state.Range }

func (r *Reverse) Returned() bool { return r.state.Range <= 0 }

// ReverseStep walks back one step length. The stopping power is taken at the
// energy before the update; the last step clamps the remaining range to zero.
func (r *Reverse) ReverseStep() error {
	if err := r.checkStep(); err != nil {
		return err
	}

	dedx := r.curve.Evaluate(r.state.EnergyPerNucleon)
	energy := r.state.EnergyPerNucleon + dedx*r.deltaX
	remaining := r.state.Range - r.deltaX
	if !(energy > r.state.EnergyPerNucleon) || !(remaining < r.state.Range) {
		// no energy gained, or a step below the resolution of the range
		return r.fail(ErrNonConvergent)
	}

	r.state.StoppingPower = dedx
	r.state.EnergyPerNucleon = energy
	r.state.Range = remaining
	r.steps++

	if err := r.checkState(); err != nil {
		return err
	}
	if r.Returned() {
		r.state.Range = 0
		r.phase = terminal
	}
	return nil
}

// Run steps until the particle has walked back its whole range and returns
// the energy per nucleon it needs on entry.
func (r *Reverse) Run() (float64, error) {
	if r.phase == uninitialized {
		return 0, ErrNotInitialized
	}
	for !r.Returned() {
		if err := r.ReverseStep(); err != nil {
			return r.EnergyPerNucleon(), err
		}
	}
	return r.EnergyPerNucleon(), nil
}
