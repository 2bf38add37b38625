package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/san-kum/dedx/internal/curve"
	"github.com/san-kum/dedx/internal/sim"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var plotFormats = map[string]bool{
	".png": true,
	".svg": true,
	".pdf": true,
	".eps": true,
}

// SavePlot renders the run's Bragg curve with gonum/plot. The image format
// follows the file extension.
func SavePlot(path, title string, r *sim.Result) error {
	if r == nil {
		return fmt.Errorf("export: nil result")
	}
	depths, dedx := r.Ranges(), r.StoppingPowers()
	pts := make(plotter.XYs, len(depths))
	for i := range pts {
		pts[i] = plotter.XY{X: depths[i], Y: dedx[i]}
	}
	return savePlot(path, title, "depth (mm)", "dE/dx (MeV/mm)", pts)
}

// SaveCurvePlot renders raw stopping-power table points against energy.
func SaveCurvePlot(path, title string, points []curve.Point) error {
	pts := make(plotter.XYs, len(points))
	for i, p := range points {
		pts[i] = plotter.XY{X: p.Energy, Y: p.StoppingPower}
	}
	return savePlot(path, title, "energy (MeV/u)", "dE/dx (MeV/um)", pts)
}

func savePlot(path, title, xLabel, yLabel string, pts plotter.XYs) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !plotFormats[ext] {
		return fmt.Errorf("export: unsupported plot format %q", ext)
	}
	if len(pts) == 0 {
		return fmt.Errorf("export: no points to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())

	if err := plotutil.AddLines(p, pts); err != nil {
		return err
	}

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
