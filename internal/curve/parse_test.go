package curve

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `header one
header two
header three
1.0  0.1 um 0.2 um 0.3 um 0.4 um 0.05 MeV/um 0.6 um 0.7 um 0.8 um 0.9 um 1.0 um

2.0  0.1 um 0.2 um 0.3 um 0.4 um 0.03 MeV/um 0.6 um 0.7 um 0.8 um 0.9 um 1.0 um
`

func TestParse(t *testing.T) {
	pts, err := Parse(strings.NewReader(sample), DefaultParseOptions())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if len(pts) != 2 {
		t.Fatalf("expected 2 points, got %d", len(pts))
	}
	if pts[0] != (Point{1.0, 0.05}) || pts[1] != (Point{2.0, 0.03}) {
		t.Errorf("unexpected points: %v", pts)
	}
}

func TestParse_Column(t *testing.T) {
	pts, err := Parse(strings.NewReader(sample), ParseOptions{HeaderLines: 3, Column: 0})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if pts[0].StoppingPower != 0.1 {
		t.Errorf("expected column 0 value 0.1, got %v", pts[0].StoppingPower)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  ParseOptions
		line  int
	}{
		{"short row", "h\nh\nh\n1.0 0.1 um\n", DefaultParseOptions(), 4},
		{"bad energy", "h\nh\nh\nx 0.1 um 0.2 um 0.3 um 0.4 um 0.5 um\n", DefaultParseOptions(), 4},
		{"bad value", "h\nh\nh\n1 0.1 um 0.2 um 0.3 um 0.4 um abc um\n", DefaultParseOptions(), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), tt.opts)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.Line != tt.line {
				t.Errorf("expected line %d, got %d", tt.line, pe.Line)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(strings.NewReader("only\nheader\nlines\n"), DefaultParseOptions())
	if !errors.Is(err, ErrEmptyCurve) {
		t.Errorf("expected ErrEmptyCurve, got %v", err)
	}
}

func TestParse_InvalidOptions(t *testing.T) {
	if _, err := Parse(strings.NewReader(sample), ParseOptions{Column: 10}); err == nil {
		t.Error("expected error for column out of range")
	}
	if _, err := Parse(strings.NewReader(sample), ParseOptions{HeaderLines: -1}); err == nil {
		t.Error("expected error for negative header lines")
	}
}

func TestLoad(t *testing.T) {
	tbl, err := Load(filepath.Join("testdata", "water.txt"), DefaultParseOptions())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if tbl.Len() != 15 {
		t.Errorf("expected 15 points, got %d", tbl.Len())
	}

	// stopping power falls with energy above the Bragg peak region
	if tbl.Evaluate(1) <= tbl.Evaluate(100) {
		t.Error("expected higher stopping power at lower energy")
	}

	want := 0.0265 * math.Pow(100, -0.78)
	if got := tbl.Evaluate(100); math.Abs(got-want)/want > 1e-5 {
		t.Errorf("Evaluate(100) = %v, want %v", got, want)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"), DefaultParseOptions())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, DefaultParseOptions()); !errors.Is(err, ErrEmptyCurve) {
		t.Errorf("expected ErrEmptyCurve, got %v", err)
	}
}
