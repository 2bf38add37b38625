package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DeltaX <= 0 {
		t.Error("delta x should be positive")
	}
	if cfg.TargetRange <= 0 {
		t.Error("target range should be positive")
	}
	if cfg.Column != 4 || cfg.HeaderLines != 3 {
		t.Errorf("unexpected table layout: column %d, header %d", cfg.Column, cfg.HeaderLines)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Table = "data/water.txt"
	cfg.TargetRange = 150
	cfg.DeltaX = 2.5
	cfg.Ranges = []float64{10, 20}
	cfg.Extrapolation = "linear"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Table != cfg.Table || loaded.TargetRange != 150 || loaded.DeltaX != 2.5 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
	if len(loaded.Ranges) != 2 || loaded.Ranges[1] != 20 {
		t.Errorf("ranges mismatch: %v", loaded.Ranges)
	}

	opts, err := loaded.TableOptions()
	if err != nil || len(opts) != 1 {
		t.Errorf("TableOptions() = %v, %v", opts, err)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadOver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("target_range_mm: 42\n"), 0644); err != nil {
		t.Fatal(err)
	}

	base := GetPreset("clinical")
	got, err := LoadOver(path, base)
	if err != nil {
		t.Fatalf("LoadOver: %v", err)
	}
	if got.TargetRange != 42 {
		t.Errorf("expected range from file, got %v", got.TargetRange)
	}
	if got.DeltaX != base.DeltaX || len(got.Ranges) != len(base.Ranges) {
		t.Errorf("keys missing from the file should keep base values, got %+v", got)
	}
	if base.TargetRange == 42 {
		t.Error("base should not be modified")
	}

	got.Ranges[0] = -1
	if base.Ranges[0] == -1 {
		t.Error("result should not share ranges with base")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative range", func(c *Config) { c.TargetRange = -1 }},
		{"zero step", func(c *Config) { c.DeltaX = 0 }},
		{"negative max steps", func(c *Config) { c.MaxSteps = -5 }},
		{"negative header", func(c *Config) { c.HeaderLines = -1 }},
		{"column too large", func(c *Config) { c.Column = 10 }},
		{"negative batch range", func(c *Config) { c.Ranges = []float64{1, -2} }},
		{"unknown extrapolation", func(c *Config) { c.Extrapolation = "cubic" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadTable(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := cfg.LoadTable(); err == nil {
		t.Error("expected error without a table path")
	}

	cfg.Table = filepath.Join("..", "curve", "testdata", "water.txt")
	tbl, err := cfg.LoadTable()
	if err != nil {
		t.Fatalf("load table failed: %v", err)
	}
	if tbl.Len() == 0 {
		t.Error("expected points")
	}
}

func TestSimConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TargetRange = 42
	cfg.DeltaX = 0.5

	sc := cfg.SimConfig()
	if sc.TargetRange != 42 || sc.DeltaX != 0.5 || sc.MaxSteps != cfg.MaxSteps {
		t.Errorf("unexpected sim config %+v", sc)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("fine")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.DeltaX != 0.1 {
		t.Errorf("expected delta x 0.1, got %v", cfg.DeltaX)
	}

	cfg.DeltaX = 99
	if Presets["fine"].DeltaX == 99 {
		t.Error("GetPreset should return a copy")
	}

	clinical := GetPreset("clinical")
	clinical.Ranges[0] = -1
	if Presets["clinical"].Ranges[0] == -1 {
		t.Error("GetPreset should copy ranges")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}
	for _, name := range presets {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}
