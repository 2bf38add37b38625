package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/dedx/internal/sim"
)

type Data struct {
	Table         string             `json:"table,omitempty"`
	TargetRange   float64            `json:"target_range_mm"`
	DeltaX        float64            `json:"delta_x_um"`
	InitialEnergy float64            `json:"initial_energy_mev_per_u"`
	StoppingRange float64            `json:"stopping_range_mm"`
	Steps         int                `json:"steps"`
	Samples       []sim.Sample       `json:"samples"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
}

func NewData(table string, result *sim.Result) Data {
	return Data{
		Table:         table,
		TargetRange:   result.TargetRange,
		DeltaX:        result.DeltaX,
		InitialEnergy: result.InitialEnergy,
		StoppingRange: result.StoppingRange,
		Steps:         result.ForwardSteps,
		Samples:       result.Samples,
		Metrics:       result.Metrics,
	}
}

// WriteJSON encodes the run as indented JSON. An empty path or "-" writes
// to w instead of a file.
func WriteJSON(path string, w io.Writer, table string, result *sim.Result) error {
	data := NewData(table, result)

	out := w
	if path != "" && path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
