package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/facette/natsort"
	"github.com/san-kum/dedx/internal/sim"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "bragg.csv"
)

var csvHeader = []string{"range_mm", "dedx_mev_per_mm"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Label         string             `json:"label"`
	Table         string             `json:"table"`
	Timestamp     time.Time          `json:"timestamp"`
	TargetRange   float64            `json:"target_range_mm"`
	DeltaX        float64            `json:"delta_x_um"`
	InitialEnergy float64            `json:"initial_energy_mev_per_u"`
	StoppingRange float64            `json:"stopping_range_mm"`
	Samples       int                `json:"samples"`
	Metrics       map[string]float64 `json:"metrics"`
}

// Save writes the run's metadata and Bragg samples into a fresh run
// directory and returns its id.
func (s *Store) Save(label, table string, result *sim.Result) (string, error) {
	if result == nil {
		return "", fmt.Errorf("storage: nil result")
	}
	if label == "" {
		label = "run"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", label, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:            runID,
		Label:         label,
		Table:         table,
		Timestamp:     now,
		TargetRange:   result.TargetRange,
		DeltaX:        result.DeltaX,
		InitialEnergy: result.InitialEnergy,
		StoppingRange: result.StoppingRange,
		Samples:       len(result.Samples),
		Metrics:       result.Metrics,
	}

	err := writeMetadata(filepath.Join(runDir, metadataFile), &meta)
	if err == nil {
		err = writeSamples(filepath.Join(runDir, samplesFile), result.Samples)
	}
	if err != nil {
		// a partial run would show up in List
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func writeMetadata(path string, meta *RunMetadata) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeSamples(path string, samples []sim.Sample) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			strconv.FormatFloat(smp.Range, 'g', -1, 64),
			strconv.FormatFloat(smp.StoppingPower, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// closeFile closes f and reports the close error through err unless an
// earlier error is already set.
func closeFile(f *os.File, err *error) {
	if cerr := f.Close(); *err == nil {
		*err = cerr
	}
}

// List returns the metadata of every readable run, in natural order of
// run id. Directories without valid metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return natsort.Compare(runs[i].ID, runs[j].ID)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(csvHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		rng, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", samplesFile, i+2, err)
		}
		dedx, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", samplesFile, i+2, err)
		}
		samples = append(samples, sim.Sample{Range: rng, StoppingPower: dedx})
	}
	return samples, nil
}
