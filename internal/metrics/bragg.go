package metrics

import (
	"github.com/san-kum/dedx/internal/sim"
	"gonum.org/v1/gonum/floats"
)

// Default returns a fresh instance of every Bragg-curve metric.
func Default() []sim.Metric {
	return []sim.Metric{
		NewPeak(),
		NewPeakDepth(),
		NewPeakToEntrance(),
		NewDistalFalloff(),
		NewDeposited(),
	}
}

// Peak is the maximum stopping power (MeV/mm).
type Peak struct {
	name string
	max  float64
}

func NewPeak() *Peak { return &Peak{name: "peak_dedx"} }

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(s sim.Sample) {
	if s.StoppingPower > p.max {
		p.max = s.StoppingPower
	}
}

func (p *Peak) Value() float64 { return p.max }

func (p *Peak) Reset() { p.max = 0 }

// PeakDepth is the depth (mm) of the first maximum of the stopping power.
type PeakDepth struct {
	name  string
	max   float64
	depth float64
}

func NewPeakDepth() *PeakDepth { return &PeakDepth{name: "peak_depth_mm"} }

func (p *PeakDepth) Name() string { return p.name }

func (p *PeakDepth) Observe(s sim.Sample) {
	if s.StoppingPower > p.max {
		p.max = s.StoppingPower
		p.depth = s.Range
	}
}

func (p *PeakDepth) Value() float64 { return p.depth }

func (p *PeakDepth) Reset() {
	p.max = 0
	p.depth = 0
}

// PeakToEntrance is the ratio of the peak stopping power to the stopping
// power of the first sample.
type PeakToEntrance struct {
	name     string
	entrance float64
	max      float64
	samples  int
}

func NewPeakToEntrance() *PeakToEntrance { return &PeakToEntrance{name: "peak_to_entrance"} }

func (p *PeakToEntrance) Name() string { return p.name }

func (p *PeakToEntrance) Observe(s sim.Sample) {
	if p.samples == 0 {
		p.entrance = s.StoppingPower
	}
	if s.StoppingPower > p.max {
		p.max = s.StoppingPower
	}
	p.samples++
}

func (p *PeakToEntrance) Value() float64 {
	if p.entrance == 0 {
		return 0
	}
	return p.max / p.entrance
}

func (p *PeakToEntrance) Reset() {
	p.entrance = 0
	p.max = 0
	p.samples = 0
}

// DistalFalloff is the distance (mm) between the depths beyond the peak where
// the stopping power drops to 80% and to 20% of the peak.
type DistalFalloff struct {
	name   string
	ranges []float64
	values []float64
}

func NewDistalFalloff() *DistalFalloff { return &DistalFalloff{name: "distal_falloff_mm"} }

func (d *DistalFalloff) Name() string { return d.name }

func (d *DistalFalloff) Observe(s sim.Sample) {
	d.ranges = append(d.ranges, s.Range)
	d.values = append(d.values, s.StoppingPower)
}

func (d *DistalFalloff) Value() float64 {
	if len(d.values) < 2 {
		return 0
	}
	peak := floats.MaxIdx(d.values)
	if d.values[peak] <= 0 {
		return 0
	}

	r80, ok80 := d.distalDepth(peak, 0.8*d.values[peak])
	r20, ok20 := d.distalDepth(peak, 0.2*d.values[peak])
	if !ok80 || !ok20 {
		return 0
	}
	return r20 - r80
}

// distalDepth interpolates the first depth past peak where the curve falls
// to level.
func (d *DistalFalloff) distalDepth(peak int, level float64) (float64, bool) {
	for i := peak + 1; i < len(d.values); i++ {
		if d.values[i] > level {
			continue
		}
		r0, r1 := d.ranges[i-1], d.ranges[i]
		v0, v1 := d.values[i-1], d.values[i]
		if v0 == v1 {
			return r1, true
		}
		return r0 + (r1-r0)*(v0-level)/(v0-v1), true
	}
	return 0, false
}

func (d *DistalFalloff) Reset() {
	d.ranges = d.ranges[:0]
	d.values = d.values[:0]
}

// Deposited is the trapezoidal integral of stopping power over depth (MeV
// per nucleon). It should come close to the initial energy per nucleon.
type Deposited struct {
	name    string
	prev    sim.Sample
	total   float64
	samples int
}

func NewDeposited() *Deposited { return &Deposited{name: "deposited_mev"} }

func (d *Deposited) Name() string { return d.name }

func (d *Deposited) Observe(s sim.Sample) {
	if d.samples > 0 {
		d.total += 0.5 * (d.prev.StoppingPower + s.StoppingPower) * (s.Range - d.prev.Range)
	}
	d.prev = s
	d.samples++
}

func (d *Deposited) Value() float64 { return d.total }

func (d *Deposited) Reset() {
	d.prev = sim.Sample{}
	d.total = 0
	d.samples = 0
}
