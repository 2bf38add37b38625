package sim

import "github.com/san-kum/dedx/internal/integrators"

// Sample is one point of a Bragg curve: depth in millimeters and stopping
// power in MeV/mm.
type Sample struct {
	Range         float64 `json:"range_mm"`
	StoppingPower float64 `json:"dedx_mev_per_mm"`
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Config struct {
	TargetRange float64 // mm
	DeltaX      float64 // um
	MaxSteps    int
}

func DefaultConfig() Config {
	return Config{
		TargetRange: 100,
		DeltaX:      1,
		MaxSteps:    integrators.DefaultMaxSteps,
	}
}

type Result struct {
	TargetRange   float64            `json:"target_range_mm"`
	DeltaX        float64            `json:"delta_x_um"`
	InitialEnergy float64            `json:"initial_energy_mev_u"`
	StoppingRange float64            `json:"stopping_range_mm"`
	ReverseSteps  int                `json:"reverse_steps"`
	ForwardSteps  int                `json:"forward_steps"`
	Samples       []Sample           `json:"samples"`
	Metrics       map[string]float64 `json:"metrics"`
}

// Ranges returns the depth of every sample.
func (r *Result) Ranges() []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.Range
	}
	return out
}

// StoppingPowers returns the stopping power of every sample.
func (r *Result) StoppingPowers() []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = s.StoppingPower
	}
	return out
}
