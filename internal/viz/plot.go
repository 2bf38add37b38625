package viz

import (
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/dedx/internal/curve"
	"github.com/san-kum/dedx/internal/sim"
)

const (
	DefaultPlotWidth  = 80
	DefaultPlotHeight = 12
)

type PlotOptions struct {
	Width   int
	Height  int
	Caption string
}

func (o PlotOptions) withDefaults() PlotOptions {
	if o.Width <= 0 {
		o.Width = DefaultPlotWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultPlotHeight
	}
	return o
}

// Plot draws stopping power against depth. Samples are assumed to be
// evenly spaced in depth, which holds for simulator output.
func Plot(samples []sim.Sample, opts PlotOptions) string {
	if len(samples) == 0 {
		return ""
	}
	opts = opts.withDefaults()

	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = s.StoppingPower
	}
	return plotSeries(data, opts)
}

// PlotTable draws the table's stopping power over its energy domain,
// sampled at opts.Width evenly spaced energies.
func PlotTable(t *curve.Table, opts PlotOptions) string {
	if t == nil || t.Len() == 0 {
		return ""
	}
	opts = opts.withDefaults()

	pts := t.Sample(opts.Width)
	data := make([]float64, len(pts))
	for i, p := range pts {
		data[i] = p.StoppingPower
	}
	return plotSeries(data, opts)
}

func plotSeries(data []float64, opts PlotOptions) string {
	graphOpts := []asciigraph.Option{
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
	}
	if opts.Caption != "" {
		graphOpts = append(graphOpts, asciigraph.Caption(opts.Caption))
	}
	return asciigraph.Plot(data, graphOpts...)
}
