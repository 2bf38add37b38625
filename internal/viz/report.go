package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/dedx/internal/sim"
)

// Report renders a boxed summary of a run.
func Report(title string, r *sim.Result, theme Theme) string {
	if r == nil {
		return ""
	}

	label := MetricLabel.Width(22)
	value := ValueStyle(theme)

	row := func(name, v string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, label.Render(name), value.Render(v))
	}

	lines := []string{
		TitleStyle(theme).Render(title),
		"",
		row("target range", fmt.Sprintf("%.4g mm", r.TargetRange)),
		row("step", fmt.Sprintf("%.4g um", r.DeltaX)),
		row("initial energy", fmt.Sprintf("%.6g MeV/u", r.InitialEnergy)),
		row("stopping range", fmt.Sprintf("%.6g mm", r.StoppingRange)),
		row("steps (rev/fwd)", fmt.Sprintf("%d / %d", r.ReverseSteps, r.ForwardSteps)),
	}

	if len(r.Metrics) > 0 {
		lines = append(lines, "", Separator(40))
		names := make([]string, 0, len(r.Metrics))
		for name := range r.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			lines = append(lines, row(name, fmt.Sprintf("%.6g", r.Metrics[name])))
		}
	}

	if len(r.Samples) > 0 {
		lines = append(lines, "", SparklineChart(r.StoppingPowers(), 40))
	}

	return GlassPanel.Render(strings.Join(lines, "\n"))
}
