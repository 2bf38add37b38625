package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/san-kum/dedx/internal/config"
	"github.com/san-kum/dedx/internal/curve"
	"github.com/san-kum/dedx/internal/export"
	"github.com/san-kum/dedx/internal/logging"
	"github.com/san-kum/dedx/internal/metrics"
	"github.com/san-kum/dedx/internal/optim"
	"github.com/san-kum/dedx/internal/sim"
	"github.com/san-kum/dedx/internal/storage"
	"github.com/san-kum/dedx/internal/tui"
	"github.com/san-kum/dedx/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	verbose bool
	logger  kitlog.Logger

	configFile    string
	preset        string
	targetRange   float64
	deltaX        float64
	maxSteps      int
	column        int
	headerLines   int
	extrapolation string
	ranges        []float64
	workers       int
	energy        float64
	stepGrid      []float64
	tolerance     float64

	showCurve bool
	save      bool
	label     string
	pngPath   string
	svgPath   string
	jsonOut   bool
	outPath   string
	theme     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dedx",
		Short:         "stopping-power range and bragg curve calculator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.New(os.Stderr, verbose)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dedx", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	braggCmd := &cobra.Command{
		Use:   "bragg [table]",
		Short: "compute the bragg curve for a target range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBragg,
	}
	addRunFlags(braggCmd)
	braggCmd.Flags().BoolVar(&showCurve, "show-curve", false, "also plot the raw stopping-power curve")
	braggCmd.Flags().BoolVar(&save, "save", false, "store the run in the data directory")
	braggCmd.Flags().StringVar(&label, "label", "", "run label (defaults to the table name)")
	braggCmd.Flags().StringVar(&pngPath, "png", "", "write the curve as an image (.png, .svg, .pdf)")
	braggCmd.Flags().StringVar(&svgPath, "svg", "", "write the curve as a plain svg path")
	braggCmd.Flags().BoolVar(&jsonOut, "json", false, "print the run as json")
	braggCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "report color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	energyCmd := &cobra.Command{
		Use:   "energy [table]",
		Short: "initial energy per nucleon for a target range",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnergy,
	}
	addRunFlags(energyCmd)

	rangeCmd := &cobra.Command{
		Use:   "range [table]",
		Short: "stopping range for an initial energy",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRange,
	}
	addRunFlags(rangeCmd)
	rangeCmd.Flags().Float64Var(&energy, "energy", 100, "initial energy (MeV/u)")

	curveCmd := &cobra.Command{
		Use:   "curve [table]",
		Short: "plot the raw stopping-power curve",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCurve,
	}
	addTableFlags(curveCmd)
	curveCmd.Flags().StringVar(&pngPath, "png", "", "write the curve as an image (.png, .svg, .pdf)")

	batchCmd := &cobra.Command{
		Use:   "batch [table]",
		Short: "compute bragg curves for several ranges in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBatch,
	}
	addRunFlags(batchCmd)
	batchCmd.Flags().Float64SliceVar(&ranges, "ranges", nil, "target ranges (mm)")
	batchCmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "parallel runs")
	batchCmd.Flags().BoolVar(&save, "save", false, "store the runs in the data directory")

	exploreCmd := &cobra.Command{
		Use:   "explore [table]",
		Short: "interactive bragg curve explorer",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExplore,
	}
	addRunFlags(exploreCmd)

	stepsCmd := &cobra.Command{
		Use:   "steps [table]",
		Short: "find the coarsest step length that lands within tolerance",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSteps,
	}
	addRunFlags(stepsCmd)
	stepsCmd.Flags().Float64SliceVar(&stepGrid, "grid", []float64{100, 50, 20, 10, 5, 2, 1, 0.5, 0.2, 0.1}, "candidate step lengths (um)")
	stepsCmd.Flags().Float64Var(&tolerance, "tolerance", 0.1, "allowed stopping range error (mm)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run to json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a stored run to svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTEP\tRANGES")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%gum\t%v\n", name, p.DeltaX, p.Ranges)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(braggCmd, energyCmd, rangeCmd, curveCmd, batchCmd, exploreCmd,
		stepsCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addTableFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&column, "column", curve.DefaultColumn, "stopping-power column of the table")
	cmd.Flags().IntVar(&headerLines, "header-lines", curve.DefaultHeaderLines, "header lines to skip")
	cmd.Flags().StringVar(&extrapolation, "extrapolation", "clamp", "behavior outside the table (clamp, linear)")
}

func addRunFlags(cmd *cobra.Command) {
	addTableFlags(cmd)
	cmd.Flags().Float64Var(&targetRange, "range", config.DefaultTargetRange, "target range (mm)")
	cmd.Flags().Float64Var(&deltaX, "dx", config.DefaultDeltaX, "step length (um)")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "step limit per pass (0 for the default)")
}

// resolveConfig layers defaults, a preset, a config file and then any
// explicitly set flags, in that order. Keys absent from the config file
// keep their preset values.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if len(args) > 0 {
		cfg.Table = args[0]
	}
	if flags.Changed("column") {
		cfg.Column = column
	}
	if flags.Changed("header-lines") {
		cfg.HeaderLines = headerLines
	}
	if flags.Changed("extrapolation") {
		cfg.Extrapolation = extrapolation
	}
	if flags.Changed("range") {
		cfg.TargetRange = targetRange
	}
	if flags.Changed("dx") {
		cfg.DeltaX = deltaX
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = maxSteps
	}
	if flags.Changed("ranges") {
		cfg.Ranges = ranges
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRun(cmd *cobra.Command, args []string) (*config.Config, *curve.Table, error) {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	tbl, err := cfg.LoadTable()
	if err != nil {
		return nil, nil, err
	}
	level.Debug(logger).Log("msg", "loaded table", "path", cfg.Table, "points", tbl.Len())
	return cfg, tbl, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runLabel(table string) string {
	if label != "" {
		return label
	}
	if table == "" {
		return "run"
	}
	base := table[strings.LastIndexAny(table, `/\`)+1:]
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}

func runBragg(cmd *cobra.Command, args []string) error {
	cfg, tbl, err := loadRun(cmd, args)
	if err != nil {
		return err
	}

	s := sim.New(tbl, sim.WithLogger(logger))
	for _, m := range metrics.Default() {
		s.AddMetric(m)
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	result, err := s.Run(ctx, cfg.SimConfig())
	if err != nil {
		return err
	}
	level.Debug(logger).Log("msg", "bragg curve done", "elapsed", time.Since(start))

	if jsonOut {
		return export.WriteJSON("-", os.Stdout, cfg.Table, result)
	}

	fmt.Println(viz.Report(runLabel(cfg.Table), result, viz.GetTheme(theme)))
	fmt.Println(viz.Plot(result.Samples, viz.PlotOptions{Caption: "dE/dx (MeV/mm) vs depth"}))
	if showCurve {
		fmt.Println()
		fmt.Println(viz.PlotTable(tbl, viz.PlotOptions{Caption: "dE/dx (MeV/um) vs energy (MeV/u)"}))
	}

	if pngPath != "" {
		if err := export.SavePlot(pngPath, runLabel(cfg.Table), result); err != nil {
			return err
		}
		level.Info(logger).Log("msg", "wrote plot", "path", pngPath)
	}
	if svgPath != "" {
		svg := export.CurveToSVG(result.Samples, 800, 400, "#00ff88")
		if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
			return err
		}
		level.Info(logger).Log("msg", "wrote svg", "path", svgPath)
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(runLabel(cfg.Table), cfg.Table, result)
		if err != nil {
			return err
		}
		level.Info(logger).Log("msg", "saved run", "id", runID)
		fmt.Printf("run id: %s\n", runID)
	}

	return nil
}

func runEnergy(cmd *cobra.Command, args []string) error {
	cfg, tbl, err := loadRun(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	e, err := sim.New(tbl, sim.WithLogger(logger)).EnergyForRange(ctx, cfg.SimConfig())
	if err != nil {
		return err
	}
	fmt.Printf("%.6f MeV/u\n", e)
	return nil
}

func runRange(cmd *cobra.Command, args []string) error {
	cfg, tbl, err := loadRun(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	r, err := sim.New(tbl, sim.WithLogger(logger)).RangeForEnergy(ctx, energy, cfg.SimConfig())
	if err != nil {
		return err
	}
	fmt.Printf("%.6f mm\n", r)
	return nil
}

func runCurve(cmd *cobra.Command, args []string) error {
	cfg, tbl, err := loadRun(cmd, args)
	if err != nil {
		return err
	}

	if pngPath != "" {
		if err := export.SaveCurvePlot(pngPath, runLabel(cfg.Table), tbl.Points()); err != nil {
			return err
		}
		level.Info(logger).Log("msg", "wrote plot", "path", pngPath)
		return nil
	}

	lo, hi := tbl.Domain()
	fmt.Printf("table: %s\n", cfg.Table)
	fmt.Printf("points: %d  energy: %g .. %g MeV/u  extrapolation: %s\n\n", tbl.Len(), lo, hi, tbl.Extrapolation())
	fmt.Println(viz.PlotTable(tbl, viz.PlotOptions{Caption: "dE/dx (MeV/um) vs energy (MeV/u)"}))
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, tbl, err := loadRun(cmd, args)
	if err != nil {
		return err
	}
	if len(cfg.Ranges) == 0 {
		return fmt.Errorf("no target ranges given (use --ranges or ranges_mm in the config)")
	}

	ctx, cancel := signalContext()
	defer cancel()

	ens := sim.NewEnsemble(tbl, cfg.Workers, metrics.Default, sim.WithLogger(logger))

	start := time.Now()
	results, err := ens.Run(ctx, cfg.Ranges, cfg.SimConfig())
	if err != nil {
		return err
	}
	level.Debug(logger).Log("msg", "batch done", "runs", len(results), "elapsed", time.Since(start))

	var st *storage.Store
	if save {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANGE\tENERGY\tSTOP\tPEAK\tPEAK DEPTH\tPEAK/ENTRANCE\tRUN")
	for _, r := range results {
		runID := "-"
		if st != nil {
			runID, err = st.Save(fmt.Sprintf("%s_%gmm", runLabel(cfg.Table), r.TargetRange), cfg.Table, r)
			if err != nil {
				return err
			}
			level.Info(logger).Log("msg", "saved run", "id", runID)
		}
		fmt.Fprintf(w, "%gmm\t%.4f MeV/u\t%.4fmm\t%.4f\t%.4fmm\t%.2f\t%s\n",
			r.TargetRange,
			r.InitialEnergy,
			r.StoppingRange,
			r.Metrics["peak_dedx"],
			r.Metrics["peak_depth_mm"],
			r.Metrics["peak_to_entrance"],
			runID,
		)
	}
	return w.Flush()
}

func runSteps(cmd *cobra.Command, args []string) error {
	cfg, tbl, err := loadRun(cmd, args)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	s := sim.New(tbl, sim.WithLogger(logger))
	best, sweep, err := optim.NewStepSearch(stepGrid).Search(ctx, s, cfg.SimConfig(), tolerance)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DX\tENERGY\tSTOP\tERROR\tSTEPS")
	for _, r := range sweep {
		if r.Err != nil {
			fmt.Fprintf(w, "%gum\t-\t-\t-\t%v\n", r.DeltaX, r.Err)
			continue
		}
		fmt.Fprintf(w, "%gum\t%.4f MeV/u\t%.4fmm\t%.4fmm\t%d\n",
			r.DeltaX, r.InitialEnergy, r.StoppingRange, r.RangeError, r.Steps)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nstep: %gum (error %.4fmm)\n", best.DeltaX, best.RangeError)
	return nil
}

func runExplore(cmd *cobra.Command, args []string) error {
	cfg, tbl, err := loadRun(cmd, args)
	if err != nil {
		return err
	}
	return tui.RunExplorer(tbl, cfg.SimConfig(), cfg.Table)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tRANGE\tDX\tENERGY\tSAMPLES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%gmm\t%gum\t%.4f MeV/u\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.TargetRange,
			run.DeltaX,
			run.InitialEnergy,
			run.Samples,
		)
	}

	return w.Flush()
}

// storedResult rebuilds a Result from a saved run's metadata and samples.
func storedResult(runID string) (*storage.RunMetadata, *sim.Result, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return nil, nil, err
	}

	r := &sim.Result{
		TargetRange:   meta.TargetRange,
		DeltaX:        meta.DeltaX,
		InitialEnergy: meta.InitialEnergy,
		StoppingRange: meta.StoppingRange,
		ForwardSteps:  max(len(samples)-1, 0),
		Samples:       samples,
		Metrics:       meta.Metrics,
	}
	return meta, r, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, r, err := storedResult(args[0])
	if err != nil {
		return err
	}
	if len(r.Samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("table: %s\n", meta.Table)
	fmt.Printf("samples: %d\n\n", len(r.Samples))
	fmt.Println(viz.Plot(r.Samples, viz.PlotOptions{Caption: "dE/dx (MeV/mm) vs depth"}))
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, r, err := storedResult(args[0])
	if err != nil {
		return err
	}
	if err := export.WriteJSON(outPath, os.Stdout, meta.Table, r); err != nil {
		return err
	}
	if outPath != "" {
		level.Info(logger).Log("msg", "wrote json", "path", outPath)
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, r, err := storedResult(args[0])
	if err != nil {
		return err
	}

	svg := export.CurveToSVG(r.Samples, 800, 400, "#00ff88")
	if svg == "" {
		return fmt.Errorf("not enough samples for svg")
	}
	if outPath == "" {
		fmt.Println(svg)
		return nil
	}
	if err := os.WriteFile(outPath, []byte(svg), 0644); err != nil {
		return err
	}
	level.Info(logger).Log("msg", "wrote svg", "path", outPath)
	return nil
}
