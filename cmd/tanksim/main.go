package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/san-kum/tanksim/internal/analysis"
	"github.com/san-kum/tanksim/internal/config"
	"github.com/san-kum/tanksim/internal/dynamo"
	"github.com/san-kum/tanksim/internal/experiment"
	"github.com/san-kum/tanksim/internal/report"
	"github.com/san-kum/tanksim/internal/sim"
	"github.com/san-kum/tanksim/internal/storage"
	"github.com/san-kum/tanksim/internal/tanks"
	"github.com/san-kum/tanksim/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	quiet   bool

	integrator string
	duration   float64
	samples    int
	maxStep    float64
	adaptive   bool
	tolerance  float64
	hold       string
	policy     string
	h1         float64
	h2         float64
	inputKind  string
	amplitude  float64
	onset      float64
	// Config file
	configFile string
	// Preset name
	preset string
	// key=value overrides
	sets []string

	showPlot    bool
	pngPath     string
	showInput   bool
	outFile     string
	compareWith []string
	command     float64
	sweepSteps  int
	theme       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "tanksim",
		Short:        "two-tank cascade simulator",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".tanksim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress log output")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "print an ascii chart of the run")
	runCmd.Flags().StringVar(&pngPath, "png", "", "write a png chart to this path")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngPath, "png", "", "write a png chart to this path")
	plotCmd.Flags().BoolVar(&showInput, "input", false, "also chart the pump command")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run samples as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	compareCmd := &cobra.Command{
		Use:   "compare [model]",
		Short: "run one scenario under several integrators",
		Args:  cobra.MaximumNArgs(1),
		RunE:  compareIntegrators,
	}
	scenarioFlags(compareCmd)
	compareCmd.Flags().StringSliceVar(&compareWith, "with", []string{"rk4", "euler", "rk45"}, "integrators, the first is the baseline")

	referenceCmd := &cobra.Command{
		Use:   "reference",
		Short: "run both decoupled reference tanks and chart them together",
		Args:  cobra.NoArgs,
		RunE:  runReference,
	}
	scenarioFlags(referenceCmd)
	referenceCmd.Flags().StringVar(&pngPath, "png", "", "write a png chart to this path")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		RunE:  listPresets,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "steady state, linearization and command sweep",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeSystem,
	}
	analyzeCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	analyzeCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	analyzeCmd.Flags().StringArrayVar(&sets, "set", nil, "override a config value (key=value)")
	analyzeCmd.Flags().Float64Var(&command, "u", 1.0, "pump command for the operating point")
	analyzeCmd.Flags().IntVar(&sweepSteps, "sweep", 11, "commands in the sweep over [0, 1.5*umax]")

	liveCmd := &cobra.Command{
		Use:   "live [run_id]",
		Short: "play back a run in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	scenarioFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "ocean", "color theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd,
		compareCmd, referenceCmd, presetsCmd, analyzeCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scenarioFlags registers the flags that describe one simulation.
func scenarioFlags(cmd *cobra.Command) {
	def := config.DefaultConfig()
	cmd.Flags().StringVar(&integrator, "integrator", def.Integrator, "integrator")
	cmd.Flags().Float64Var(&duration, "time", def.Duration, "duration")
	cmd.Flags().IntVar(&samples, "samples", def.Samples, "grid points")
	cmd.Flags().Float64Var(&maxStep, "max-step", def.MaxStep, "largest substep")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive substeps")
	cmd.Flags().Float64Var(&tolerance, "tol", def.Tolerance, "adaptive tolerance")
	cmd.Flags().StringVar(&hold, "hold", def.Hold, "input hold between samples (zoh, linear)")
	cmd.Flags().StringVar(&policy, "policy", def.Policy, "negative radicand policy (clamp, strict)")
	cmd.Flags().Float64Var(&h1, "h1", 0, "initial height of tank 1")
	cmd.Flags().Float64Var(&h2, "h2", 0, "initial height of tank 2")
	cmd.Flags().StringVar(&inputKind, "input", def.Input.Kind, "pump command (constant, step, ramp, pulse, csv)")
	cmd.Flags().Float64Var(&amplitude, "amplitude", def.Input.Amplitude, "pump command amplitude")
	cmd.Flags().Float64Var(&onset, "onset", 0, "step onset time")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "override a config value (key=value)")
}

func newLogger() log.Logger {
	if quiet {
		return log.NewNopLogger()
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	return log.With(logger, "ts", log.DefaultTimestampUTC)
}

// loadConfig builds the scenario: defaults, then preset or config file,
// then explicitly set flags, then --set overrides.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if len(args) > 0 {
		cfg.Model = args[0]
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("samples") {
		cfg.Samples = samples
	}
	if flags.Changed("max-step") {
		cfg.MaxStep = maxStep
	}
	if flags.Changed("adaptive") {
		cfg.Adaptive = adaptive
	}
	if flags.Changed("tol") {
		cfg.Tolerance = tolerance
	}
	if flags.Changed("hold") {
		cfg.Hold = hold
	}
	if flags.Changed("policy") {
		cfg.Policy = policy
	}
	if flags.Changed("h1") {
		cfg.InitState.H1 = h1
	}
	if flags.Changed("h2") {
		cfg.InitState.H2 = h2
	}
	if flags.Changed("input") {
		cfg.Input.Kind = inputKind
	}
	if flags.Changed("amplitude") {
		cfg.Input.Amplitude = amplitude
	}
	if flags.Changed("onset") {
		cfg.Input.Onset = onset
	}

	if err := cfg.ApplyOverrides(sets); err != nil {
		return nil, err
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// simulate runs the configured scenario with the default metrics attached.
func simulate(ctx context.Context, cfg *config.Config, logger log.Logger) (*sim.Response, experiment.Config, error) {
	expCfg, err := experiment.FromConfig(cfg)
	if err != nil {
		return nil, expCfg, err
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(expCfg, logger)
	if err := exp.Setup(registry, registry.DefaultMetrics(expCfg.Params)); err != nil {
		return nil, expCfg, err
	}

	resp, err := exp.Run(ctx)
	return resp, expCfg, err
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s simulation...\n", cfg.Model)
	start := time.Now()

	resp, expCfg, err := simulate(ctx, cfg, newLogger())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMetadata{
		Model:      cfg.Model,
		Integrator: cfg.Integrator,
		Policy:     cfg.Policy,
		Hold:       cfg.Hold,
		Adaptive:   cfg.Adaptive,
		MaxStep:    cfg.MaxStep,
		Duration:   expCfg.Grid.End(),
		InitState:  expCfg.InitState,
		Params:     expCfg.Params.Params(),
	}, resp)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", resp.Len())
	fmt.Printf("steps: %d (rejected %d, evaluations %d)\n", resp.Stats.Steps, resp.Stats.Rejected, resp.Stats.Evaluations)
	for k, name := range resp.Names {
		fmt.Printf("final %s: %.6f\n", name, resp.Outputs[k][resp.Len()-1])
	}
	printMetrics(os.Stdout, resp.Metrics)

	if showPlot {
		chart, err := report.ASCII(resp, 80, 12, false)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(chart)
	}
	if pngPath != "" {
		if err := report.SavePNG(pngPath, resp, runID, expCfg.Params.MaxHeight); err != nil {
			return err
		}
		fmt.Printf("chart written to %s\n", pngPath)
	}
	return nil
}

func printMetrics(w io.Writer, metrics map[string]float64) {
	if len(metrics) == 0 {
		return
	}
	fmt.Fprintln(w, "\nmetrics:")
	for _, name := range sortedNames(metrics) {
		fmt.Fprintf(w, "  %s: %.6f\n", name, metrics[name])
	}
}

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
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
	fmt.Fprintln(w, "ID\tMODEL\tINTEGRATOR\tSAMPLES\tDURATION\tOVERFLOW\tTIMESTAMP")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%.3f\t%s\n",
			run.ID,
			run.Model,
			run.Integrator,
			run.Samples,
			run.Duration,
			run.Metrics["overflow"],
			run.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

// loadRun resolves a run ID prefix and reads the run back.
func loadRun(st *storage.Store, prefix string) (*storage.RunMetadata, *sim.Response, error) {
	runID, err := st.Resolve(prefix)
	if err != nil {
		return nil, nil, err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	resp, err := st.LoadResponse(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, resp, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, resp, err := loadRun(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s (%s)\n", meta.Model, meta.Integrator)
	fmt.Printf("samples: %d\n\n", resp.Len())

	chart, err := report.ASCII(resp, 80, 12, showInput)
	if err != nil {
		return err
	}
	fmt.Println(chart)

	if pngPath != "" {
		if err := report.SavePNG(pngPath, resp, meta.ID, meta.Params["hmax"]); err != nil {
			return err
		}
		fmt.Printf("\nchart written to %s\n", pngPath)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := st.Resolve(args[0])
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// output opens --output, or stdout when it is unset.
func output() (io.WriteCloser, error) {
	if outFile == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, fmt.Errorf("cannot create %s: %w", outFile, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportCSV(cmd *cobra.Command, args []string) error {
	_, resp, err := loadRun(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}

	w, err := output()
	if err != nil {
		return err
	}
	defer w.Close()
	return storage.WriteCSV(w, resp)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, resp, err := loadRun(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}

	w, err := output()
	if err != nil {
		return err
	}
	defer w.Close()
	return storage.ExportJSON(w, meta.Integrator, resp)
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	expCfg, err := experiment.FromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	start := time.Now()
	results, err := experiment.Compare(ctx, expCfg, experiment.NewRegistry(), compareWith, newLogger())
	if err != nil {
		return err
	}

	fmt.Printf("%s, %d samples over %.2f s, baseline %s (%v)\n\n",
		cfg.Model, len(expCfg.Grid), expCfg.Grid.End(), results[0].Integrator, time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "INTEGRATOR\tSTEPS\tREJECTED\tEVALS\tMAX DEV"
	for _, name := range results[0].Response.Names {
		header += "\tFINAL " + strings.ToUpper(name)
	}
	fmt.Fprintln(w, header)
	for _, c := range results {
		resp := c.Response
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.3e", c.Integrator,
			resp.Stats.Steps, resp.Stats.Rejected, resp.Stats.Evaluations, c.MaxDeviation)
		for k := range resp.Names {
			fmt.Fprintf(w, "\t%.6f", resp.Outputs[k][resp.Len()-1])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func runReference(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	expCfg, err := experiment.FromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	runs, err := experiment.ReferencePair(ctx, expCfg, experiment.NewRegistry(), newLogger())
	if err != nil {
		return err
	}
	both, err := report.Overlay(runs...)
	if err != nil {
		return err
	}

	fmt.Printf("%s, %d samples over %.2f s\n", both.System, both.Len(), expCfg.Grid.End())
	for k, name := range both.Names {
		fmt.Printf("final %s: %.6f\n", name, both.Outputs[k][both.Len()-1])
	}

	chart, err := report.ASCII(both, 80, 12, false)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(chart)

	if pngPath != "" {
		if err := report.SavePNG(pngPath, both, "reference tanks", expCfg.Params.MaxHeight); err != nil {
			return err
		}
		fmt.Printf("chart written to %s\n", pngPath)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tMODEL\tINTEGRATOR\tINPUT\tDURATION\tSAMPLES\tINIT")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		input := fmt.Sprintf("%s(%g)", p.Input.Kind, p.Input.Amplitude)
		stepping := p.Integrator
		if p.Adaptive {
			stepping += " adaptive"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t%d\t[%g %g]\n",
			name, p.Model, stepping, input, p.Duration, p.Samples, p.InitState.H1, p.InitState.H2)
	}
	return w.Flush()
}

func analyzeSystem(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	params, err := cfg.Parameters()
	if err != nil {
		return err
	}
	pol, err := tanks.ParsePolicy(cfg.Policy)
	if err != nil {
		return err
	}

	op, err := analysis.SteadyState(params, command)
	if err != nil {
		return err
	}
	fmt.Printf("operating point at u = %g\n", op.Command)
	fmt.Printf("  inflow: %.6f\n", op.Flow)
	fmt.Printf("  h1: %.6f\n", op.H1)
	fmt.Printf("  h2: %.6f\n", op.H2)
	if op.H1 > params.MaxHeight || op.H2 > params.MaxHeight {
		fmt.Printf("  overflows hmax = %g\n", params.MaxHeight)
	}
	if op.Saturated {
		fmt.Printf("  no equilibrium: discharge saturates above u = %.6f\n", analysis.SaturationCommand(params))
	} else if err := printModes(params, pol, op); err != nil {
		return err
	}

	uMax := analysis.MaxCommand(params)
	fmt.Printf("\nlargest command without overflow: %.6f\n", uMax)
	if sweepSteps >= 2 && uMax > 0 {
		points, err := analysis.Sweep(params, 0, 1.5*uMax, sweepSteps)
		if err != nil {
			return err
		}
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "U\tFLOW\tH1\tH2\tOVERFLOW\tSATURATED")
		for _, p := range points {
			fmt.Fprintf(w, "%.4f\t%.6f\t%.6f\t%.6f\t%t\t%t\n", p.Command, p.Flow, p.H1, p.H2, p.Overflow, p.Saturated)
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if len(args) == 0 {
		return nil
	}
	meta, resp, err := loadRun(storage.New(dataDir), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("\nphase portrait of %s (h1 across, h2 up):\n", meta.ID)
	fmt.Println(analysis.Phase(resp).ASCII(60, 20))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		meta, resp, err := loadRun(storage.New(dataDir), args[0])
		if err != nil {
			return err
		}
		return viz.Play(resp, meta.Params["hmax"], theme)
	}

	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	// the alt screen owns the terminal during playback
	resp, expCfg, err := simulate(ctx, cfg, log.NewNopLogger())
	if err != nil {
		return err
	}
	return viz.Play(resp, expCfg.Params.MaxHeight, theme)
}

// printModes linearizes the cascade at op and prints its eigenmodes.
func printModes(params tanks.Parameters, pol tanks.RadicandPolicy, op analysis.OperatingPoint) error {
	cascade := tanks.NewCascade(tanks.NewModel(params, pol))
	jac, err := analysis.Linearize(cascade, dynamo.State{op.H1, op.H2}, dynamo.Control{op.Command}, 0, 1e-6)
	if err != nil {
		return err
	}
	modes, err := analysis.Modes(jac)
	if err != nil {
		return err
	}
	fmt.Println("\nlinearized modes:")
	for _, m := range modes {
		stability := "stable"
		if !m.Stable() {
			stability = "unstable"
		}
		fmt.Printf("  lambda = %.6f%+.6fi  tau = %.6f s  (%s)\n",
			real(m.Eigenvalue), imag(m.Eigenvalue), m.TimeConstant, stability)
	}
	return nil
}
