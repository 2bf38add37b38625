package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/dedx/internal/curve"
	"github.com/san-kum/dedx/internal/metrics"
	"github.com/san-kum/dedx/internal/sim"
	"github.com/san-kum/dedx/internal/units"
	"github.com/san-kum/dedx/internal/viz"
)

var (
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

const (
	rangeStep = 5.0 // mm
	minRange  = 0.0
	maxRange  = 400.0
	minDeltaX = 0.01 // um
	maxDeltaX = 1000.0

	// maxPassSteps bounds one pass so a recompute stays small; the step
	// length is raised as needed to respect it.
	maxPassSteps = 1_000_000
)

const (
	paramRange = iota
	paramDeltaX
)

var paramNames = []string{"range", "step"}

// Explorer is a Bubble Tea model that recomputes the Bragg curve in the
// background whenever the target range or step length changes.
type Explorer struct {
	curve  curve.Evaluator
	cfg    sim.Config
	title  string
	cursor int
	theme  viz.Theme

	// seq identifies the latest recompute; results of older ones are dropped.
	seq       int
	cancel    context.CancelFunc
	pending   tea.Cmd
	computing bool

	result *sim.Result
	err    error

	width  int
	height int
}

type resultMsg struct {
	seq    int
	result *sim.Result
	err    error
}

func NewExplorer(c curve.Evaluator, cfg sim.Config, title string) *Explorer {
	e := &Explorer{
		curve:  c,
		cfg:    cfg,
		title:  title,
		theme:  viz.Themes[0],
		width:  80,
		height: 24,
	}
	e.bound()
	e.pending = e.recompute()
	return e
}

func (e Explorer) Init() tea.Cmd { return e.pending }

func (e Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return e.handleKey(msg)
	case tea.WindowSizeMsg:
		e.width = msg.Width
		e.height = msg.Height
	case resultMsg:
		if msg.seq != e.seq {
			return e, nil
		}
		e.computing = false
		e.result, e.err = msg.result, msg.err
	}
	return e, nil
}

func (e Explorer) handleKey(msg tea.KeyMsg) (Explorer, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		if e.cancel != nil {
			e.cancel()
		}
		return e, tea.Quit
	case "up", "k":
		if e.cursor > 0 {
			e.cursor--
		}
	case "down", "j":
		if e.cursor < len(paramNames)-1 {
			e.cursor++
		}
	case "left", "h":
		return e, e.adjust(-1)
	case "right", "l":
		return e, e.adjust(1)
	case "t":
		e.theme = viz.NextTheme(e.theme)
	}
	return e, nil
}

// adjust moves the selected parameter one notch in dir and starts a
// recompute. The range moves linearly and the step length doubles or halves.
func (e *Explorer) adjust(dir int) tea.Cmd {
	switch e.cursor {
	case paramRange:
		e.cfg.TargetRange = max(minRange, min(maxRange, e.cfg.TargetRange+float64(dir)*rangeStep))
	case paramDeltaX:
		if dir > 0 {
			e.cfg.DeltaX = e.cfg.DeltaX * 2
		} else {
			e.cfg.DeltaX = e.cfg.DeltaX / 2
		}
	}
	e.bound()
	return e.recompute()
}

// bound keeps the step length in range and coarse enough that one pass
// over the target range takes at most maxPassSteps steps.
func (e *Explorer) bound() {
	floor := max(minDeltaX, units.ToMicrometers(e.cfg.TargetRange)/maxPassSteps)
	e.cfg.DeltaX = max(floor, min(maxDeltaX, e.cfg.DeltaX))
	if e.cfg.MaxSteps <= 0 || e.cfg.MaxSteps > 2*maxPassSteps {
		e.cfg.MaxSteps = 2 * maxPassSteps
	}
}

// recompute cancels any run still in flight and returns a command that
// computes the curve for the current settings.
func (e *Explorer) recompute() tea.Cmd {
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.seq++
	e.computing = true

	seq, c, cfg := e.seq, e.curve, e.cfg
	return func() tea.Msg {
		s := sim.New(c)
		for _, m := range metrics.Default() {
			s.AddMetric(m)
		}
		res, err := s.Run(ctx, cfg)
		return resultMsg{seq: seq, result: res, err: err}
	}
}

func (e Explorer) paramValue(i int) string {
	switch i {
	case paramRange:
		return fmt.Sprintf("%8.2f mm  ", e.cfg.TargetRange) + viz.ProgressBar(e.cfg.TargetRange/maxRange, 20, e.theme)
	case paramDeltaX:
		return fmt.Sprintf("%8.3g um", e.cfg.DeltaX)
	}
	return ""
}

func (e Explorer) View() string {
	var b strings.Builder

	muted := viz.MutedStyle(e.theme)

	b.WriteString("\n")
	b.WriteString("    " + viz.TitleStyle(e.theme).Render("d e d x") + "  " + muted.Render(e.title) + "\n")
	b.WriteString(dimmer.Render("    "+strings.Repeat("─", 30)) + "\n\n")

	for i, name := range paramNames {
		if i == e.cursor {
			b.WriteString("    " + viz.CursorStyle(e.theme).Render("▸ ") + white.Render(fmt.Sprintf("%-8s", name)) + viz.ValueStyle(e.theme).Render(e.paramValue(i)) + "\n")
		} else {
			b.WriteString("      " + muted.Render(fmt.Sprintf("%-8s", name)) + muted.Render(e.paramValue(i)) + "\n")
		}
	}
	b.WriteString("\n")

	switch {
	case e.computing:
		b.WriteString("    " + muted.Render("computing...") + "\n")
	case e.err != nil:
		b.WriteString("    " + viz.ErrorStyle(e.theme).Render(e.err.Error()) + "\n")
	case e.result != nil:
		b.WriteString(fmt.Sprintf("    energy %s   stop %s   peak %s\n\n",
			viz.ValueStyle(e.theme).Render(fmt.Sprintf("%.4g MeV/u", e.result.InitialEnergy)),
			viz.ValueStyle(e.theme).Render(fmt.Sprintf("%.4g mm", e.result.StoppingRange)),
			viz.ValueStyle(e.theme).Render(fmt.Sprintf("%.4g MeV/mm", e.result.Metrics["peak_dedx"])),
		))
		plotW := max(e.width-20, 20)
		plotH := max(e.height-16, 5)
		b.WriteString(viz.Plot(e.result.Samples, viz.PlotOptions{Width: plotW, Height: plotH}) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(viz.KeyHint.Render("    ↑↓ select   ←→ adjust   t theme   q quit") + "\n")

	return b.String()
}

func RunExplorer(c curve.Evaluator, cfg sim.Config, title string) error {
	p := tea.NewProgram(NewExplorer(c, cfg, title), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
