package config

import "sort"

// Presets trade run time for accuracy through the step length.
var Presets = map[string]*Config{
	"coarse": {
		HeaderLines: 3, Column: 4, Extrapolation: "clamp",
		TargetRange: DefaultTargetRange, DeltaX: 10, Workers: DefaultWorkers,
	},
	"standard": {
		HeaderLines: 3, Column: 4, Extrapolation: "clamp",
		TargetRange: DefaultTargetRange, DeltaX: 1, Workers: DefaultWorkers,
	},
	"fine": {
		HeaderLines: 3, Column: 4, Extrapolation: "clamp",
		TargetRange: DefaultTargetRange, DeltaX: 0.1, Workers: DefaultWorkers,
	},
	"clinical": {
		HeaderLines: 3, Column: 4, Extrapolation: "clamp",
		TargetRange: DefaultTargetRange, DeltaX: 1, Workers: DefaultWorkers,
		Ranges: []float64{50, 100, 150, 200, 250, 300},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Ranges = append([]float64(nil), p.Ranges...)
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
