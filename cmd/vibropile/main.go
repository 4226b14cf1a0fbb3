package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/san-kum/vibropile/internal/analysis"
	"github.com/san-kum/vibropile/internal/automation"
	"github.com/san-kum/vibropile/internal/config"
	"github.com/san-kum/vibropile/internal/dynamo"
	"github.com/san-kum/vibropile/internal/export"
	"github.com/san-kum/vibropile/internal/metrics"
	"github.com/san-kum/vibropile/internal/optim"
	"github.com/san-kum/vibropile/internal/sim"
	"github.com/san-kum/vibropile/internal/viz"
)

var (
	configFile string
	preset     string
	seed       int64
	dt         float64
	dw         float64
	overrides  []string
	logLevel   string

	// run / export
	outFiles  []string
	maxPoints int

	// plot / analyze / play
	inFile      string
	plotWidth   int
	plotHeight  int
	measured    string
	theme       string
	multiplier  float64
	chunk       int
	showSamples int

	// sweep / ensemble
	grid      []string
	metric    string
	workers   int
	runs      int
	showRanks int

	// bench
	benchDts []float64

	logger = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "vibropile",
		Short:         "vibratory pile driving simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "start from a named preset")
	pf.Int64Var(&seed, "seed", 0, "random seed")
	pf.Float64Var(&dt, "dt", config.DefaultDt, "time step (s)")
	pf.Float64Var(&dw, "dw", config.DefaultDw, "adaptive speed step (rev/s)")
	pf.StringArrayVar(&overrides, "set", nil, "override a parameter, name=value (repeatable)")
	pf.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.MarkFlagsMutuallyExclusive("config", "preset")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run one simulation and print its outcome",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().StringArrayVarP(&outFiles, "out", "o", nil, "also write the trace to this file (csv, json, xlsx, svg, png)")
	runCmd.Flags().IntVar(&maxPoints, "max-points", export.DefaultMaxPoints, "chart points kept in svg/png output")

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "plot depth, speed and impulse in the terminal",
		Args:  cobra.NoArgs,
		RunE:  plotTrace,
	}
	plotCmd.Flags().StringVar(&inFile, "in", "", "plot a trace exported as json instead of running")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "chart width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "chart height")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "run a simulation and write the trace to files",
		Args:  cobra.NoArgs,
		RunE:  exportTrace,
	}
	exportCmd.Flags().StringArrayVarP(&outFiles, "out", "o", nil, "output file; format from the extension (repeatable)")
	exportCmd.Flags().IntVar(&maxPoints, "max-points", export.DefaultMaxPoints, "chart points kept in svg/png output")
	exportCmd.Flags().StringVar(&inFile, "in", "", "convert a trace exported as json instead of running")
	_ = exportCmd.MarkFlagRequired("out")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "impulse spectrum and comparison with measured depths",
		Args:  cobra.NoArgs,
		RunE:  analyzeTrace,
	}
	analyzeCmd.Flags().StringVar(&inFile, "in", "", "analyze a trace exported as json instead of running")
	analyzeCmd.Flags().StringVar(&measured, "measured", "", "csv of measured time,depth (defaults to the config's record)")
	analyzeCmd.Flags().IntVar(&showSamples, "show", 10, "measured points to list")

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "replay a run in the terminal",
		Args:  cobra.NoArgs,
		RunE:  playTrace,
	}
	playCmd.Flags().StringVar(&inFile, "in", "", "replay a trace exported as json instead of running")
	playCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, "color theme: "+strings.Join(viz.ThemeNames(), ", "))
	playCmd.Flags().Float64Var(&multiplier, "multiplier", 1, "initial playback multiplier")
	playCmd.Flags().IntVar(&chunk, "chunk", 0, "samples per frame at 1x (0 picks one from the trace length)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a config file to start from",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initConfig,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over parameters",
		Long: `Runs every combination of the given parameter values and ranks them by a metric.
Values are a comma list (dw=0.1,0.25,0.5) or a range lo:hi:n (fi=10000:20000:5).`,
		Args: cobra.NoArgs,
		RunE: sweep,
	}
	sweepCmd.Flags().StringArrayVar(&grid, "grid", nil, "parameter values, name=values (repeatable)")
	sweepCmd.Flags().StringVar(&metric, "metric", "time_to_depth", "metric to minimize")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 uses every CPU)")
	sweepCmd.Flags().IntVar(&showRanks, "top", 10, "ranked points to list")
	_ = sweepCmd.MarkFlagRequired("grid")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run consecutive seeds and summarize the outcomes",
		Args:  cobra.NoArgs,
		RunE:  ensemble,
	}
	ensembleCmd.Flags().IntVar(&runs, "runs", 10, "number of seeds")
	ensembleCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 uses every CPU)")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  batch,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [preset...]",
		Short: "measure integration speed",
		RunE:  bench,
	}
	benchCmd.Flags().Float64SliceVar(&benchDts, "dts", []float64{0.001}, "time steps to measure")

	rootCmd.AddCommand(runCmd, plotCmd, exportCmd, analyzeCmd, playCmd, presetsCmd, initCmd, sweepCmd, ensembleCmd, batchCmd, benchCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// loadConfig resolves the configuration for a command: preset or file first,
// then any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	label := "single-pair"

	switch {
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		label = preset
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		label = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("dw") {
		cfg.Control.Dw = dw
	}
	for _, kv := range overrides {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, "", fmt.Errorf("--set %q: expected name=value", kv)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, "", fmt.Errorf("--set %s: %w", name, err)
		}
		if err := cfg.Set(strings.TrimSpace(name), v); err != nil {
			return nil, "", err
		}
	}
	return cfg, label, nil
}

func newEngine(p dynamo.ParameterSet) *sim.Engine {
	return sim.New(
		sim.WithLogger(logger),
		sim.WithMetrics(metrics.Defaults(p.PileLength)...),
	)
}

// simulate runs the resolved configuration. A canceled run still returns its
// partial trace.
func simulate(cmd *cobra.Command) (*dynamo.Trace, *config.Config, string, error) {
	cfg, label, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, "", err
	}
	p, err := cfg.Params()
	if err != nil {
		return nil, cfg, label, err
	}
	tr, err := newEngine(p).Run(cmd.Context(), p)
	return tr, cfg, label, err
}

// obtainTrace reads --in when given and runs a simulation otherwise.
func obtainTrace(cmd *cobra.Command) (*dynamo.Trace, *config.Config, string, error) {
	if inFile == "" {
		return simulate(cmd)
	}
	f, err := os.Open(inFile)
	if err != nil {
		return nil, nil, "", err
	}
	defer f.Close()

	tr, doc, err := export.ReadJSON(f)
	if err != nil {
		return nil, nil, "", fmt.Errorf("read %s: %w", inFile, err)
	}
	label := doc.Label
	if label == "" {
		label = strings.TrimSuffix(filepath.Base(inFile), filepath.Ext(inFile))
	}
	return tr, nil, label, nil
}

// reportFailure prints where a run broke down.
func reportFailure(err error) {
	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		return
	}
	switch {
	case errors.Is(err, dynamo.ErrStructuralFailure):
		fmt.Printf("pile failed at step %d (t=%.3f s, depth=%.4f m)\n", simErr.Step, simErr.Time, simErr.Depth)
	case errors.Is(err, dynamo.ErrNumericDomain):
		fmt.Printf("resistance model left its domain at step %d (t=%.3f s, depth=%.4f m)\n", simErr.Step, simErr.Time, simErr.Depth)
	case errors.Is(err, dynamo.ErrCanceled):
		fmt.Printf("interrupted at step %d (t=%.3f s)\n", simErr.Step, simErr.Time)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, label, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p, err := cfg.Params()
	if err != nil {
		return err
	}

	fmt.Printf("running %s...\n", label)
	start := time.Now()
	tr, err := newEngine(p).Run(cmd.Context(), p)
	elapsed := time.Since(start)
	if tr == nil {
		reportFailure(err)
		return err
	}

	printSummary(tr, cfg, label, elapsed)
	if err != nil {
		reportFailure(err)
		return err
	}

	opts := export.Options{Label: label, MaxPoints: maxPoints}
	for _, path := range outFiles {
		if err := export.WriteFile(path, tr, opts); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func printSummary(tr *dynamo.Trace, cfg *config.Config, label string, elapsed time.Duration) {
	last := tr.Last()
	geo := cfg.Geometry()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run id:\t%s\n", tr.ID)
	fmt.Fprintf(w, "config:\t%s\n", label)
	fmt.Fprintf(w, "state:\t%v\n", tr.State)
	fmt.Fprintf(w, "steps:\t%d\n", tr.Len())
	fmt.Fprintf(w, "time:\t%.3f s\n", last.Time)
	fmt.Fprintf(w, "depth:\t%.4f m of %.3f m\n", last.Depth, cfg.Pile.Length)
	fmt.Fprintf(w, "speed:\t%.2f rev/s\n", last.Speed)
	if tr.Tracks != dynamo.TracksClean {
		fmt.Fprintf(w, "tracks:\t%v (drive %v, seed %d, %d draws)\n", tr.Tracks, tr.Drive, tr.Seed, tr.Draws)
	}
	fmt.Fprintf(w, "perimeter:\t%.4f m\n", geo.Perimeter)
	fmt.Fprintf(w, "area:\t%.3g m^2\n", geo.Area)
	fmt.Fprintf(w, "mass:\t%.2f kg\n", geo.Mass)
	if geo.PileWeight > 0 {
		fmt.Fprintf(w, "pile weight:\t%.2f kg\n", geo.PileWeight)
	}
	fmt.Fprintf(w, "elapsed:\t%v\n", elapsed.Round(time.Millisecond))
	w.Flush()

	if len(tr.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		names := make([]string, 0, len(tr.Metrics))
		for name := range tr.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %.6g\n", name, tr.Metrics[name])
		}
	}
	fmt.Println()
	fmt.Println(viz.Verdict(tr))
}

func plotTrace(cmd *cobra.Command, args []string) error {
	tr, _, label, err := obtainTrace(cmd)
	if tr == nil {
		reportFailure(err)
		return err
	}
	if tr.Len() < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("%s: %d samples\n\n", label, tr.Len())
	fmt.Println(viz.Charts(tr, plotWidth, plotHeight))
	fmt.Println()
	fmt.Println(viz.Verdict(tr))
	return err
}

func exportTrace(cmd *cobra.Command, args []string) error {
	for _, path := range outFiles {
		if _, err := export.FormatOf(path); err != nil {
			return err
		}
	}

	tr, _, label, err := obtainTrace(cmd)
	if tr == nil {
		reportFailure(err)
		return err
	}
	if err != nil {
		reportFailure(err)
		fmt.Println("exporting the partial trace")
	}

	opts := export.Options{Label: label, MaxPoints: maxPoints}
	for _, path := range outFiles {
		if err := export.WriteFile(path, tr, opts); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%d samples)\n", path, tr.Len())
	}
	return err
}

func analyzeTrace(cmd *cobra.Command, args []string) error {
	tr, cfg, label, err := obtainTrace(cmd)
	if tr == nil {
		reportFailure(err)
		return err
	}

	fmt.Printf("%s: %v after %d samples\n\n", label, tr.State, tr.Len())

	sp, serr := analysis.ImpulseSpectrum(tr)
	switch {
	case errors.Is(serr, analysis.ErrShortWindow):
		fmt.Println("spectrum: not enough samples at constant speed")
	case serr != nil:
		return serr
	default:
		fmt.Printf("spectrum window: %d samples from t=%.3f s at %.2f rev/s\n",
			len(tr.Impulse)-sp.Start, tr.Time[sp.Start], sp.Speed)
		fmt.Printf("dominant frequency: %.3f Hz (resolution %.3f Hz)\n", sp.Dominant(), sp.Resolution())
		if cfg != nil {
			for k := range cfg.Hammer.Masses {
				fmt.Printf("  pair %d rotates at %.3f Hz\n", k+1, analysis.Harmonic(sp.Speed, k))
			}
		}
	}

	times, depths, merr := measuredRecord(cfg)
	if merr != nil {
		return merr
	}
	if times == nil {
		return err
	}

	res, rerr := analysis.CompareMeasured(tr, times, depths)
	if rerr != nil {
		return rerr
	}
	fmt.Printf("\nmeasured depths: %d points, rms %.4f m, max %.4f m", len(times), res.RMS, res.MaxAbs)
	if res.Beyond > 0 {
		fmt.Printf(", %d after the run ended", res.Beyond)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tMEASURED\tSIMULATED\tDIFF")
	step := max(1, (len(times)+showSamples-1)/max(showSamples, 1))
	for i := 0; i < len(times); i += step {
		fmt.Fprintf(w, "%.1f\t%.3f\t%.3f\t%+.3f\n", res.Times[i], res.Measured[i], res.Simulated[i], res.Simulated[i]-res.Measured[i])
	}
	w.Flush()
	return err
}

// measuredRecord reads --measured, falling back to the config's record.
// Both nil means there is nothing to compare against.
func measuredRecord(cfg *config.Config) ([]float64, []float64, error) {
	if measured != "" {
		f, err := os.Open(measured)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		return export.ReadMeasured(f)
	}
	if cfg != nil && cfg.Measured != nil {
		return cfg.Measured.Times, cfg.Measured.Depths, nil
	}
	return nil, nil, nil
}

func playTrace(cmd *cobra.Command, args []string) error {
	tr, cfg, label, err := obtainTrace(cmd)
	if tr == nil {
		reportFailure(err)
		return err
	}

	opts := viz.PlaybackOptions{
		Label:      label,
		Multiplier: multiplier,
		Chunk:      chunk,
		Theme:      theme,
	}
	if cfg != nil {
		opts.PileLength = cfg.Pile.Length
	}
	if perr := viz.Play(tr, opts); perr != nil {
		return perr
	}
	fmt.Println(viz.Verdict(tr))
	return err
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPAIRS\tCONTROL\tSOIL\tTRACKS\tLENGTH\tPERIMETER\tAREA\tMASS")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		geo := cfg.Geometry()
		fmt.Fprintf(w, "%s\t%d\t%v\t%v\t%v\t%.2f m\t%.3f m\t%.3g m^2\t%.2f kg\n",
			name,
			len(cfg.Hammer.Masses),
			cfg.Control.Mode,
			cfg.Soil.Resistance,
			cfg.Noise.Tracks,
			cfg.Pile.Length,
			geo.Perimeter,
			geo.Area,
			geo.Mass,
		)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := "vibropile.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := cfg.Params(); err != nil {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

// parseGrid reads name=v1,v2,... or name=lo:hi:n.
func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, entry := range specs {
		name, raw, ok := strings.Cut(entry, "=")
		if !ok || raw == "" {
			return nil, nil, fmt.Errorf("--grid %q: expected name=values", entry)
		}

		var values []float64
		if parts := strings.Split(raw, ":"); len(parts) == 3 {
			lo, err1 := strconv.ParseFloat(parts[0], 64)
			hi, err2 := strconv.ParseFloat(parts[1], 64)
			n, err3 := strconv.Atoi(parts[2])
			if err := errors.Join(err1, err2, err3); err != nil {
				return nil, nil, fmt.Errorf("--grid %s: %w", name, err)
			}
			values = optim.Linspace(lo, hi, n)
		} else {
			for _, s := range strings.Split(raw, ",") {
				v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
				if err != nil {
					return nil, nil, fmt.Errorf("--grid %s: %w", name, err)
				}
				values = append(values, v)
			}
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func sweep(cmd *cobra.Command, args []string) error {
	cfg, label, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}

	g := optim.NewGridSearch(names, ranges)
	if workers > 0 {
		g.SetWorkers(workers)
	}
	fmt.Printf("sweeping %s over %d points, minimizing %s...\n", label, g.Size(), metric)

	start := time.Now()
	res, err := g.Search(cmd.Context(), cfg, newEngine, metric)
	if res == nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\t%s\tSTATE\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metric))
	for i, p := range res.Ranked() {
		if i == showRanks {
			break
		}
		cols := make([]string, len(names))
		for j, name := range names {
			cols[j] = strconv.FormatFloat(p.Params[name], 'g', 6, 64)
		}
		fmt.Fprintf(w, "%d\t%s\t%v\t%.6g\n", i+1, strings.Join(cols, "\t"), p.State, p.Value)
	}
	w.Flush()

	infeasible := 0
	for _, p := range res.Points {
		if !p.Feasible() {
			infeasible++
		}
	}
	if infeasible > 0 {
		fmt.Printf("%d of %d points failed or never reached the metric\n", infeasible, len(res.Points))
	}
	fmt.Printf("done in %v\n", time.Since(start).Round(time.Millisecond))
	if err != nil {
		return err
	}

	fmt.Print("best:")
	for _, name := range names {
		fmt.Printf(" %s=%g", name, res.Best[name])
	}
	fmt.Printf(" (%s %.6g)\n", metric, res.Value)
	return nil
}

func ensemble(cmd *cobra.Command, args []string) error {
	cfg, label, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p, err := cfg.Params()
	if err != nil {
		return err
	}
	if p.Noise.Tracks == dynamo.TracksClean || (p.Noise.RPM == 0 && p.Noise.Mass == 0 && p.Noise.Radius == 0) {
		fmt.Println("note: no noise configured, every member will be identical")
	}

	ens := sim.NewEnsemble(func() *sim.Engine { return newEngine(p) }, runs, p.Seed)
	if workers > 0 {
		ens.SetWorkers(workers)
	}

	fmt.Printf("running %d seeds of %s from seed %d...\n", runs, label, p.Seed)
	members, err := ens.Run(cmd.Context(), p)
	if members == nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTATE\tSTEPS\tTIME\tDEPTH")
	for _, m := range members {
		if m.Trace == nil {
			if m.Err == nil {
				continue
			}
			fmt.Fprintf(w, "%d\t%v\t-\t-\t%v\n", m.Seed, dynamo.RunFailed, m.Err)
			continue
		}
		last := m.Trace.Last()
		fmt.Fprintf(w, "%d\t%v\t%d\t%.3f\t%.4f\n", m.Seed, m.Trace.State, m.Trace.Len(), last.Time, last.Depth)
	}
	w.Flush()

	s := sim.Summarize(members)
	fmt.Printf("\nruns: %d, failures: %d\n", s.Runs, s.Failures)
	states := make([]dynamo.RunState, 0, len(s.States))
	for st := range s.States {
		states = append(states, st)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	for _, st := range states {
		fmt.Printf("  %v: %d\n", st, s.States[st])
	}
	fmt.Printf("final time:  %.3f ± %.3f s\n", s.MeanTime, s.StdTime)
	fmt.Printf("final depth: %.4f ± %.4f m\n", s.MeanDepth, s.StdDepth)
	return err
}

func batch(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("scenario %s: %d steps\n", sc.Name, len(sc.Steps))

	results, err := automation.RunScenario(cmd.Context(), sc, logger)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSTATE\tSTEPS\tTIME\tDEPTH\tOUTPUT")
	for _, r := range results {
		if r.Trace == nil {
			fmt.Fprintf(w, "%s\t%v\t-\t-\t-\t%v\n", r.Name, dynamo.RunFailed, r.Err)
			continue
		}
		last := r.Trace.Last()
		out := strings.Join(r.Exports, ", ")
		if r.Err != nil {
			out = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%v\t%d\t%.3f\t%.4f\t%s\n", r.Name, r.Trace.State, r.Trace.Len(), last.Time, last.Depth, out)
	}
	w.Flush()
	return err
}

func bench(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = config.ListPresets()
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tDT\tSTATE\tSTEPS\tELAPSED\tSTEPS/S")
	for _, name := range names {
		for _, step := range benchDts {
			cfg := config.GetPreset(name)
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
			}
			cfg.Dt = step
			p, err := cfg.Params()
			if err != nil {
				return fmt.Errorf("%s at dt=%g: %w", name, step, err)
			}

			n := 0
			start := time.Now()
			state, err := sim.New(sim.WithLogger(logger)).RunWithCallback(cmd.Context(), p, func(dynamo.Sample) bool {
				n++
				return true
			})
			elapsed := time.Since(start)
			if errors.Is(err, dynamo.ErrCanceled) {
				w.Flush()
				return err
			}

			rate := float64(n) / elapsed.Seconds()
			fmt.Fprintf(w, "%s\t%g\t%v\t%d\t%v\t%.0f\n", name, step, state, n, elapsed.Round(time.Microsecond), rate)
		}
	}
	return w.Flush()
}
