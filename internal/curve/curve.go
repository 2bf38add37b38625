// Package curve provides the stopping-power curve the integrators evaluate.
//
// A [Table] holds (energy per nucleon, stopping power) samples sorted by
// energy and evaluates them by piecewise-linear interpolation. Outside the
// tabulated energies an [Extrapolation] policy applies. Tables are immutable
// once built and may be shared by any number of goroutines.
package curve

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Evaluator returns the stopping power at a given energy per nucleon.
type Evaluator interface {
	Evaluate(energyPerNucleon float64) float64
}

type Point struct {
	Energy        float64
	StoppingPower float64
}

type Table struct {
	points []Point
	extrap Extrapolation
}

type Option func(*Table)

// WithExtrapolation selects the policy used outside the tabulated energies.
func WithExtrapolation(e Extrapolation) Option {
	return func(t *Table) { t.extrap = e }
}

func NewTable(points []Point, opts ...Option) (*Table, error) {
	if len(points) == 0 {
		return nil, ErrEmptyCurve
	}

	t := &Table{
		points: make([]Point, len(points)),
		extrap: Clamp,
	}
	copy(t.points, points)
	for _, opt := range opts {
		opt(t)
	}

	for i, p := range t.points {
		if !finite(p.Energy) || p.Energy < 0 {
			return nil, fmt.Errorf("%w: point %d has energy %v", ErrInvalidPoint, i, p.Energy)
		}
		if !finite(p.StoppingPower) || p.StoppingPower < 0 {
			return nil, fmt.Errorf("%w: point %d has stopping power %v", ErrInvalidPoint, i, p.StoppingPower)
		}
	}

	sort.SliceStable(t.points, func(i, j int) bool {
		return t.points[i].Energy < t.points[j].Energy
	})

	return t, nil
}

func (t *Table) Len() int { return len(t.points) }

func (t *Table) Extrapolation() Extrapolation { return t.extrap }

// Points returns a copy of the sorted samples.
func (t *Table) Points() []Point {
	out := make([]Point, len(t.points))
	copy(out, t.points)
	return out
}

// Domain returns the lowest and highest tabulated energies.
func (t *Table) Domain() (float64, float64) {
	return t.points[0].Energy, t.points[len(t.points)-1].Energy
}

func (t *Table) Evaluate(e float64) float64 {
	n := len(t.points)
	if n == 1 {
		return t.points[0].StoppingPower
	}

	first, last := t.points[0], t.points[n-1]
	switch {
	case math.IsNaN(e):
		return math.NaN()
	case e < first.Energy:
		if t.extrap == Linear {
			return math.Max(0, lerp(t.points[0], t.points[1], e))
		}
		return first.StoppingPower
	case e > last.Energy:
		if t.extrap == Linear {
			return math.Max(0, lerp(t.points[n-2], t.points[n-1], e))
		}
		return last.StoppingPower
	}

	// first index with Energy >= e
	k := sort.Search(n, func(i int) bool { return t.points[i].Energy >= e })
	if t.points[k].Energy == e {
		return t.points[k].StoppingPower
	}
	return lerp(t.points[k-1], t.points[k], e)
}

// Sample evaluates the table at n energies evenly spaced over its domain.
func (t *Table) Sample(n int) []Point {
	if n < 2 {
		n = 2
	}
	lo, hi := t.Domain()
	energies := make([]float64, n)
	floats.Span(energies, lo, hi)

	out := make([]Point, n)
	for i, e := range energies {
		out[i] = Point{Energy: e, StoppingPower: t.Evaluate(e)}
	}
	return out
}

func lerp(a, b Point, e float64) float64 {
	dx := b.Energy - a.Energy
	if dx == 0 {
		return a.StoppingPower
	}
	return a.StoppingPower + (b.StoppingPower-a.StoppingPower)*(e-a.Energy)/dx
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
