package config

import (
	"fmt"
	"os"

	"github.com/san-kum/dedx/internal/curve"
	"github.com/san-kum/dedx/internal/integrators"
	"github.com/san-kum/dedx/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTargetRange = 100.0 // mm
	DefaultDeltaX      = 1.0   // um
	DefaultWorkers     = 4
)

type Config struct {
	Table         string    `yaml:"table"`
	HeaderLines   int       `yaml:"header_lines"`
	Column        int       `yaml:"column"`
	Extrapolation string    `yaml:"extrapolation"`
	TargetRange   float64   `yaml:"target_range_mm"`
	DeltaX        float64   `yaml:"delta_x_um"`
	MaxSteps      int       `yaml:"max_steps"`
	Ranges        []float64 `yaml:"ranges_mm,omitempty"`
	Workers       int       `yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		HeaderLines:   curve.DefaultHeaderLines,
		Column:        curve.DefaultColumn,
		Extrapolation: curve.Clamp.String(),
		TargetRange:   DefaultTargetRange,
		DeltaX:        DefaultDeltaX,
		MaxSteps:      integrators.DefaultMaxSteps,
		Workers:       DefaultWorkers,
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads the file at path on top of a copy of base, so keys the
// file leaves out keep their base values. base is not modified.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	cfg.Ranges = append([]float64(nil), base.Ranges...)
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the values the simulator and the table parser rely on.
func (c *Config) Validate() error {
	if c.TargetRange < 0 {
		return fmt.Errorf("target_range_mm must be non-negative, got %v", c.TargetRange)
	}
	if c.DeltaX <= 0 {
		return fmt.Errorf("delta_x_um must be positive, got %v", c.DeltaX)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must be non-negative, got %d", c.MaxSteps)
	}
	if c.HeaderLines < 0 {
		return fmt.Errorf("header_lines must be non-negative, got %d", c.HeaderLines)
	}
	if c.Column < 0 || c.Column >= curve.ValueColumns {
		return fmt.Errorf("column must be in [0, %d), got %d", curve.ValueColumns, c.Column)
	}
	for _, r := range c.Ranges {
		if r < 0 {
			return fmt.Errorf("ranges_mm must be non-negative, got %v", r)
		}
	}
	if _, err := curve.ParseExtrapolation(c.Extrapolation); err != nil {
		return err
	}
	return nil
}

func (c *Config) ParseOptions() curve.ParseOptions {
	return curve.ParseOptions{HeaderLines: c.HeaderLines, Column: c.Column}
}

func (c *Config) TableOptions() ([]curve.Option, error) {
	extrap, err := curve.ParseExtrapolation(c.Extrapolation)
	if err != nil {
		return nil, err
	}
	return []curve.Option{curve.WithExtrapolation(extrap)}, nil
}

// LoadTable reads the stopping-power table the config points at.
func (c *Config) LoadTable() (*curve.Table, error) {
	if c.Table == "" {
		return nil, fmt.Errorf("no stopping-power table given")
	}
	opts, err := c.TableOptions()
	if err != nil {
		return nil, err
	}
	return curve.Load(c.Table, c.ParseOptions(), opts...)
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		TargetRange: c.TargetRange,
		DeltaX:      c.DeltaX,
		MaxSteps:    c.MaxSteps,
	}
}
