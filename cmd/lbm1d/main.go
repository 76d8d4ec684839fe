package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/lbm1d/internal/analysis"
	"github.com/san-kum/lbm1d/internal/automation"
	"github.com/san-kum/lbm1d/internal/config"
	"github.com/san-kum/lbm1d/internal/export"
	"github.com/san-kum/lbm1d/internal/logging"
	"github.com/san-kum/lbm1d/internal/metrics"
	"github.com/san-kum/lbm1d/internal/sim"
	"github.com/san-kum/lbm1d/internal/storage"
	"github.com/san-kum/lbm1d/internal/viz"
)

var (
	dataDir  string
	logLevel string
	logger   *slog.Logger

	nx            int
	nt            int
	omega         float64
	dx            float64
	dt            float64
	energies      []string
	configFile    string
	preset        string
	snapshotEvery int
	noSave        bool
	showPlot      bool

	frameRate int
	sweepSite int
	workers   int

	amplitude float64
	trials    int
	seed      int64
	outFile   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "lbm1d",
		Short:         "one-dimensional lattice Boltzmann gas with binding energies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLogger(logLevel, os.Stderr)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".lbm1d", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level (error, warn, info, debug, trace)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and archive its occupations",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSolverFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not archive the run")
	runCmd.Flags().BoolVar(&showPlot, "plot", true, "plot final occupations")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "step a simulation interactively",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSolverFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	sweepCmd := &cobra.Command{
		Use:   "sweep (omega|energy) v1,v2,...",
		Short: "run one simulation per parameter value in parallel",
		Args:  cobra.ExactArgs(2),
		RunE:  runSweep,
	}
	addSolverFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&sweepSite, "site", -1, "site for energy sweeps (default: center)")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (default: GOMAXPROCS)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list archived runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot archived occupations and snapshots",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spatial spectrum and moments of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON on stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export per-site profile to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportCSV(os.Stdout, args[0])
		},
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the occupation profile of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default: stdout)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a phased scenario that changes binding energies between phases",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	disorderCmd := &cobra.Command{
		Use:   "disorder",
		Short: "monte carlo over random binding energy landscapes",
		Args:  cobra.NoArgs,
		RunE:  runDisorder,
	}
	addSolverFlags(disorderCmd)
	disorderCmd.Flags().Float64Var(&amplitude, "amplitude", 0.5, "energies drawn from [-amplitude, amplitude]")
	disorderCmd.Flags().IntVar(&trials, "trials", 20, "number of landscapes")
	disorderCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default: time based)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tNX\tNT\tOMEGA\tENERGIES")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\t%s\n", name, p.Lattice.NX, p.Time.NT, p.Omega, formatEnergies(p.Energies))
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(
		runCmd,
		liveCmd,
		sweepCmd,
		scenarioCmd,
		disorderCmd,
		listCmd,
		plotCmd,
		analyzeCmd,
		exportJSONCmd,
		exportCSVCmd,
		exportSVGCmd,
		presetsCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSolverFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&nx, "nx", config.DefaultNX, "number of lattice sites")
	cmd.Flags().IntVar(&nt, "nt", config.DefaultNT, "number of time steps")
	cmd.Flags().Float64Var(&omega, "omega", config.DefaultOmega, "relaxation rate (stable in [0, 2])")
	cmd.Flags().Float64Var(&dx, "dx", config.DefaultDx, "lattice spacing (recorded only)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "time step (recorded only)")
	cmd.Flags().StringArrayVar(&energies, "energy", nil, "binding energy as site=value (repeatable)")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&snapshotEvery, "snapshot-every", config.DefaultSnapshotEvery, "record occupations every n steps (0 disables)")
}

// resolveConfig layers defaults, preset, config file and explicit flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("nx") {
		cfg.Lattice.NX = nx
	}
	if flags.Changed("nt") {
		cfg.Time.NT = nt
	}
	if flags.Changed("omega") {
		cfg.Omega = omega
	}
	if flags.Changed("dx") {
		cfg.Lattice.Dx = dx
	}
	if flags.Changed("dt") {
		cfg.Time.Dt = dt
	}
	if flags.Changed("snapshot-every") {
		cfg.Run.SnapshotEvery = snapshotEvery
	}
	for _, raw := range energies {
		e, err := config.ParseSiteEnergy(raw)
		if err != nil {
			return nil, err
		}
		cfg.Energies = append(cfg.Energies, e)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Omega < 0 || cfg.Omega > 2 {
		logger.Warn("omega outside [0, 2]; the scheme is likely unstable", "omega", cfg.Omega)
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s (nx=%d, nt=%d, omega=%.3f)...\n", displayName(cfg), cfg.Lattice.NX, cfg.Time.NT, cfg.Omega)

	result, err := metrics.NewSimulator(sim.WithLogger(logger)).Run(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("completed %d steps in %v\n", result.StepsTaken, result.Elapsed)

	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	fmt.Println()
	if showPlot {
		fmt.Println(viz.PlotOccupations(result.Occupations, viz.DefaultPlotOptions()))
		fmt.Println()
	}
	fmt.Println(viz.RenderMetrics("metrics", result.Metrics))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return viz.RunLive(cfg, frameRate)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	values, err := parseValues(args[1])
	if err != nil {
		return err
	}

	site := sweepSite
	if site < 0 {
		site = cfg.Lattice.NX / 2
	}
	if site >= cfg.Lattice.NX {
		return fmt.Errorf("site %d outside lattice of %d sites", site, cfg.Lattice.NX)
	}

	var cfgs []*config.Config
	switch args[0] {
	case "omega":
		cfgs = sim.OmegaConfigs(cfg, values)
	case "energy":
		cfgs = sim.EnergyConfigs(cfg, site, values)
	default:
		return fmt.Errorf("unknown sweep parameter: %s (want omega or energy)", args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	factory := func() *sim.Simulator { return metrics.NewSimulator(sim.WithLogger(logger)) }
	results, err := sim.NewSweep(factory, workers).Run(ctx, cfgs)
	if err != nil {
		return err
	}

	fmt.Printf("sweep of %s over %d values (site %d)\n\n", args[0], len(values), site)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VALUE\tOCC[SITE]\tPEAK\tENTROPY\tGROWTH\tSTABLE")
	for i, res := range results {
		fmt.Fprintf(w, "%g\t%.6f\t%.6f\t%.4f\t%.4f\t%.2f\n",
			values[i],
			res.Occupations[site],
			res.Metrics["peak_occupation"],
			res.Metrics["entropy"],
			res.Metrics["mass_growth"],
			res.Metrics["stability"],
		)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tNX\tNT\tOMEGA\tENERGIES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.3f\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.NX,
			run.NT,
			run.Omega,
			formatEnergies(run.Energies),
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	profile, err := st.LoadProfile(args[0])
	if err != nil {
		return err
	}
	snaps, err := st.LoadSnapshots(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("nx: %d  steps: %d  omega: %.3f\n\n", meta.NX, meta.Steps, meta.Omega)
	fmt.Println(viz.PlotOccupations(profile.Occupations, viz.DefaultPlotOptions()))
	fmt.Println()
	fmt.Println(viz.PlotOccupations(profile.Velocity, viz.PlotOptions{Height: 8, Width: 80, Caption: "velocity vs site"}))

	if len(snaps) > 1 {
		series := make([][]float64, len(snaps))
		steps := make([]string, len(snaps))
		for i, snap := range snaps {
			series[i] = snap.Occupations
			steps[i] = strconv.Itoa(snap.Step)
		}
		fmt.Println()
		fmt.Println(viz.PlotSeries(series, viz.PlotOptions{
			Height:  12,
			Width:   80,
			Caption: "snapshots at steps " + strings.Join(steps, ", "),
		}))
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	profile, err := st.LoadProfile(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("spatial analysis: %s\n\n", meta.ID)

	spectrum := analysis.Spectrum(profile.Occupations)
	if len(spectrum) > 1 {
		fmt.Println(viz.PlotOccupations(spectrum, viz.PlotOptions{Height: 12, Width: 80, Caption: "spectrum magnitude vs wavenumber"}))
		fmt.Println()
	}

	k, wavelength := analysis.DominantWavenumber(profile.Occupations)
	if k > 0 {
		fmt.Printf("dominant wavenumber: %d (wavelength %.2f sites)\n", k, wavelength)
	} else {
		fmt.Println("dominant wavenumber: none (flat profile)")
	}

	mean, sd, err := analysis.Moments(profile.Occupations)
	if err != nil {
		return err
	}
	fmt.Printf("mean site: %.3f\n", mean)
	fmt.Printf("spread: %.3f sites\n", sd)
	fmt.Printf("entropy: %.4f (uniform %.4f)\n", metrics.ShannonEntropy(profile.Occupations), metrics.ShannonEntropy(uniform(len(profile.Occupations))))
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	profile, err := storage.New(dataDir).LoadProfile(args[0])
	if err != nil {
		return err
	}

	w := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := export.WriteProfileSVG(w, profile.Occupations, profile.Energies, export.DefaultSVGOptions()); err != nil {
		return err
	}
	if outFile != "" {
		fmt.Printf("exported to %s\n", outFile)
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario: %s (%d phases, nx=%d, omega=%.3f)\n", sc.Name, len(sc.Phases), sc.Base.Lattice.NX, sc.Base.Omega)
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	fmt.Println()

	results, err := automation.RunScenario(ctx, sc, logger)
	for i, res := range results {
		name := res.Name
		if name == "" {
			name = fmt.Sprintf("phase %d", i+1)
		}
		fmt.Println(viz.PlotOccupations(res.Occupations, viz.PlotOptions{
			Height:  8,
			Width:   80,
			Caption: fmt.Sprintf("%s: step %d, entropy %.4f", name, res.TotalSteps, res.Entropy),
		}))
		fmt.Println()
	}
	return err
}

func runDisorder(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("disorder study", "trials", trials, "amplitude", amplitude, "nx", cfg.Lattice.NX, "nt", cfg.Time.NT)
	results, err := automation.RunDisorder(ctx, automation.DisorderConfig{
		Base:      cfg,
		Amplitude: amplitude,
		Trials:    trials,
		Seed:      seed,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tPEAK SITE\tPEAK\tENTROPY\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%.6f\t%.4f\t%v\n", r.Trial, r.PeakSite, r.PeakOccupation, r.Entropy, r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	meanEntropy, meanPeak, stable, unstable := automation.DisorderStats(results)
	fmt.Printf("\nstable: %d  unstable: %d\n", stable, unstable)
	fmt.Printf("mean entropy: %.4f (uniform %.4f)\n", meanEntropy, metrics.ShannonEntropy(uniform(cfg.Lattice.NX)))
	fmt.Printf("mean peak occupation: %.6f\n", meanPeak)
	return nil
}

func parseValues(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sweep value %q: %w", p, err)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no sweep values in %q", s)
	}
	return values, nil
}

func formatEnergies(es []config.SiteEnergy) string {
	if len(es) == 0 {
		return "-"
	}
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = fmt.Sprintf("%d=%g", e.Site, e.Energy)
	}
	return strings.Join(parts, " ")
}

func displayName(cfg *config.Config) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return "lattice"
}

func uniform(n int) []float64 {
	p := make([]float64, n)
	for i := range p {
		p[i] = 1 / float64(n)
	}
	return p
}
