package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/dedx/internal/sim"
)

var ErrNoStep = errors.New("optim: no step length meets the tolerance")

// StepResult is one candidate step length and how far its forward pass
// lands from the target range.
type StepResult struct {
	DeltaX        float64 // um
	InitialEnergy float64 // MeV/u
	StoppingRange float64 // mm
	RangeError    float64 // mm
	Steps         int
	Err           error
}

// StepSearch looks for the coarsest step length whose stopping range
// stays within a tolerance of the target range.
type StepSearch struct {
	steps []float64
}

func NewStepSearch(steps []float64) *StepSearch {
	sorted := append([]float64(nil), steps...)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	return &StepSearch{steps: sorted}
}

func (g *StepSearch) Steps() []float64 { return append([]float64(nil), g.steps...) }

// Search runs every candidate from coarse to fine and returns the first one
// within tolerance (mm) along with the whole sweep. Candidates that fail to
// integrate are kept in the sweep with Err set. A canceled context aborts.
func (g *StepSearch) Search(ctx context.Context, s *sim.Simulator, cfg sim.Config, tolerance float64) (StepResult, []StepResult, error) {
	if tolerance < 0 || math.IsNaN(tolerance) {
		return StepResult{}, nil, fmt.Errorf("optim: tolerance must be non-negative, got %v", tolerance)
	}

	sweep := make([]StepResult, 0, len(g.steps))
	best := -1

	for _, dx := range g.steps {
		c := cfg
		c.DeltaX = dx

		res, err := s.Run(ctx, c)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return StepResult{}, sweep, ctxErr
			}
			sweep = append(sweep, StepResult{DeltaX: dx, Err: err})
			continue
		}

		r := StepResult{
			DeltaX:        dx,
			InitialEnergy: res.InitialEnergy,
			StoppingRange: res.StoppingRange,
			RangeError:    math.Abs(res.StoppingRange - cfg.TargetRange),
			Steps:         res.ForwardSteps,
		}
		sweep = append(sweep, r)
		if best < 0 && r.RangeError <= tolerance {
			best = len(sweep) - 1
		}
	}

	if best < 0 {
		return StepResult{}, sweep, ErrNoStep
	}
	return sweep[best], sweep, nil
}
