package sim

import (
	"context"
	"fmt"
	"math"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/san-kum/dedx/internal/curve"
	"github.com/san-kum/dedx/internal/integrators"
	"github.com/san-kum/dedx/internal/units"
)

// cancellation is checked once every ctxCheckInterval steps
const ctxCheckInterval = 4096

type Simulator struct {
	curve   curve.Evaluator
	metrics []Metric
	logger  kitlog.Logger
}

type Option func(*Simulator)

func WithLogger(l kitlog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

func New(c curve.Evaluator, opts ...Option) *Simulator {
	s := &Simulator{
		curve:   c,
		metrics: make([]Metric, 0),
		logger:  kitlog.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m Metric) { s.metrics = append(s.metrics, m) }

// Run computes the Bragg curve for cfg.TargetRange.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	energy, reverseSteps, err := s.reverse(ctx, cfg)
	if err != nil {
		return nil, err
	}

	fwd, err := integrators.NewForward(s.curve, cfg.DeltaX, cfg.MaxSteps)
	if err != nil {
		return nil, err
	}
	if err := fwd.Initialize(energy); err != nil {
		return nil, err
	}

	result := &Result{
		TargetRange:   cfg.TargetRange,
		DeltaX:        cfg.DeltaX,
		InitialEnergy: energy,
		ReverseSteps:  reverseSteps,
		Samples:       make([]Sample, 0, reverseSteps+2),
		Metrics:       make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	record := func() {
		sample := Sample{
			Range:         units.ToMillimeters(fwd.Range()),
			StoppingPower: units.PerMillimeter(fwd.StoppingPower()),
		}
		result.Samples = append(result.Samples, sample)
		for _, m := range s.metrics {
			m.Observe(sample)
		}
	}

	record()
	for !fwd.Stopped() {
		if fwd.Steps()%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if err := fwd.Step(); err != nil {
			return nil, fmt.Errorf("forward pass: %w", err)
		}
		record()
	}

	result.ForwardSteps = fwd.Steps()
	result.StoppingRange = units.ToMillimeters(fwd.Range())
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	level.Debug(s.logger).Log(
		"stage", "forward",
		"steps", result.ForwardSteps,
		"stopping_range_mm", result.StoppingRange,
		"samples", len(result.Samples),
	)

	return result, nil
}

// EnergyForRange returns the energy per nucleon (MeV/u) a particle needs to
// stop after cfg.TargetRange millimeters.
func (s *Simulator) EnergyForRange(ctx context.Context, cfg Config) (float64, error) {
	if err := validateConfig(cfg); err != nil {
		return 0, err
	}
	energy, _, err := s.reverse(ctx, cfg)
	return energy, err
}

// RangeForEnergy returns the range in millimeters of a particle entering with
// the given energy per nucleon. cfg.TargetRange is ignored.
func (s *Simulator) RangeForEnergy(ctx context.Context, energyPerNucleon float64, cfg Config) (float64, error) {
	if err := validateStep(cfg); err != nil {
		return 0, err
	}
	if !(energyPerNucleon >= 0) || math.IsInf(energyPerNucleon, 0) {
		return 0, fmt.Errorf("%w: energy must be non-negative, got %v", ErrParameterBounds, energyPerNucleon)
	}

	fwd, err := integrators.NewForward(s.curve, cfg.DeltaX, cfg.MaxSteps)
	if err != nil {
		return 0, err
	}
	if err := fwd.Initialize(energyPerNucleon); err != nil {
		return 0, err
	}

	for !fwd.Stopped() {
		if fwd.Steps()%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		if err := fwd.Step(); err != nil {
			return 0, fmt.Errorf("forward pass: %w", err)
		}
	}

	level.Debug(s.logger).Log("stage", "forward", "energy_mev_u", energyPerNucleon, "steps", fwd.Steps())
	return units.ToMillimeters(fwd.Range()), nil
}

func (s *Simulator) reverse(ctx context.Context, cfg Config) (float64, int, error) {
	rev, err := integrators.NewReverse(s.curve, cfg.DeltaX, cfg.MaxSteps)
	if err != nil {
		return 0, 0, err
	}
	if err := rev.Initialize(units.ToMicrometers(cfg.TargetRange)); err != nil {
		return 0, 0, err
	}

	for !rev.Returned() {
		if rev.Steps()%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, rev.Steps(), err
			}
		}
		if err := rev.ReverseStep(); err != nil {
			return 0, rev.Steps(), fmt.Errorf("reverse pass: %w", err)
		}
	}

	level.Debug(s.logger).Log(
		"stage", "reverse",
		"target_range_mm", cfg.TargetRange,
		"delta_x_um", cfg.DeltaX,
		"steps", rev.Steps(),
		"energy_mev_u", rev.EnergyPerNucleon(),
	)

	return rev.EnergyPerNucleon(), rev.Steps(), nil
}

func validateConfig(cfg Config) error {
	if !(cfg.TargetRange >= 0) || math.IsInf(cfg.TargetRange, 0) {
		return fmt.Errorf("%w: target range must be non-negative, got %v", ErrParameterBounds, cfg.TargetRange)
	}
	return validateStep(cfg)
}

func validateStep(cfg Config) error {
	if !(cfg.DeltaX > 0) || math.IsInf(cfg.DeltaX, 0) {
		return fmt.Errorf("%w: step must be positive, got %v", ErrParameterBounds, cfg.DeltaX)
	}
	if cfg.MaxSteps < 0 {
		return fmt.Errorf("%w: max steps must be non-negative, got %d", ErrParameterBounds, cfg.MaxSteps)
	}
	return nil
}
