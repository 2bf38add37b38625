package curve

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	DefaultHeaderLines = 3
	DefaultColumn      = 4
	ValueColumns       = 10
)

// ParseOptions describes the layout of a stopping-power table file. Each data
// row is an energy followed by ValueColumns (value, unit) pairs.
type ParseOptions struct {
	HeaderLines int
	Column      int
}

func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		HeaderLines: DefaultHeaderLines,
		Column:      DefaultColumn,
	}
}

func (o ParseOptions) validate() error {
	if o.HeaderLines < 0 {
		return fmt.Errorf("curve: header lines must be non-negative, got %d", o.HeaderLines)
	}
	if o.Column < 0 || o.Column >= ValueColumns {
		return fmt.Errorf("curve: column must be in [0, %d), got %d", ValueColumns, o.Column)
	}
	return nil
}

// Parse reads (energy, stopping power) points from a table. Energies are in
// MeV per nucleon and stopping powers in MeV per micrometer.
func Parse(r io.Reader, opts ParseOptions) ([]Point, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	// energy token plus a (value, unit) pair for every column up to the selected one
	valueToken := 1 + 2*opts.Column

	sc := bufio.NewScanner(r)
	points := make([]Point, 0, 128)
	line := 0
	for sc.Scan() {
		line++
		if line <= opts.HeaderLines {
			continue
		}

		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) <= valueToken {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("expected at least %d fields, got %d", valueToken+1, len(fields))}
		}

		energy, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("energy: %w", err)}
		}
		dedx, err := strconv.ParseFloat(fields[valueToken], 64)
		if err != nil {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("column %d: %w", opts.Column, err)}
		}

		points = append(points, Point{Energy: energy, StoppingPower: dedx})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if len(points) == 0 {
		return nil, ErrEmptyCurve
	}
	return points, nil
}

// Load parses the table file at path and builds a Table from it.
func Load(path string, opts ParseOptions, tableOpts ...Option) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("curve: cannot open input file: %w", err)
	}
	defer f.Close()

	points, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return NewTable(points, tableOpts...)
}
