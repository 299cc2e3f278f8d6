package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/roadsim/internal/brain"
	"github.com/san-kum/roadsim/internal/config"
	"github.com/san-kum/roadsim/internal/control"
	"github.com/san-kum/roadsim/internal/experiment"
	"github.com/san-kum/roadsim/internal/logging"
	"github.com/san-kum/roadsim/internal/sim"
	"github.com/san-kum/roadsim/internal/storage"
	"github.com/san-kum/roadsim/internal/telemetry"
	"github.com/san-kum/roadsim/internal/train"
	"github.com/san-kum/roadsim/internal/viz"
)

const ledgerFile = "ledger.db"

var (
	configFile  string
	preset      string
	frames      int
	population  int
	seed        int64
	generations int
	mutation    float64
	brainPath   string
	exportPath  string
	plot        bool
	runs        int
	frameRate   int
	theme       string
	holdWindow  time.Duration
)

func main() {
	viper.SetEnvPrefix("roadsim")
	viper.AutomaticEnv()
	viper.SetDefault("data", ".roadsim")
	viper.SetDefault("log_level", "")

	rootCmd := &cobra.Command{
		Use:          "roadsim",
		Short:        "self-driving car simulation on a scrolling road",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("data", ".roadsim", "data directory (ROADSIM_DATA)")
	rootCmd.PersistentFlags().String("log-level", "", "trace, debug, info, warn or error (ROADSIM_LOG_LEVEL)")
	_ = viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a scenario headless",
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().StringVar(&brainPath, "brain", "", "starting brain: a brain.json path, a run id, or \"latest\"")
	runCmd.Flags().StringVar(&exportPath, "export", "", "write the run summary as JSON to this path")
	runCmd.Flags().BoolVar(&plot, "plot", false, "plot the leading car's speed")
	runCmd.Flags().IntVar(&runs, "runs", 1, "independent worlds to run in parallel")

	trainCmd := &cobra.Command{
		Use:   "train",
		Short: "evolve neural drivers over several generations",
		RunE:  trainScenario,
	}
	scenarioFlags(trainCmd)
	trainCmd.Flags().IntVar(&generations, "generations", 0, "generations to train, overrides the scenario value when set")
	trainCmd.Flags().Float64Var(&mutation, "mutation", 0, "mutation amount in [0, 1], overrides the scenario value when set")
	trainCmd.Flags().StringVar(&brainPath, "brain", "", "starting brain: a brain.json path, a run id, or \"latest\"")
	trainCmd.Flags().StringVar(&exportPath, "export", "", "write the training summary as JSON to this path")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a scenario in the terminal",
		RunE:  runLive,
	}
	scenarioFlags(liveCmd)
	liveCmd.Flags().StringVar(&brainPath, "brain", "", "starting brain: a brain.json path, a run id, or \"latest\"")
	liveCmd.Flags().IntVar(&frameRate, "fps", 60, "frame rate")
	liveCmd.Flags().DurationVar(&holdWindow, "hold", viz.HoldWindow, "how long an arrow key stays held after its last repeat")
	liveCmd.Flags().StringVar(&theme, "theme", "night", "panel theme ("+strings.Join(viz.ThemeNames(), ", ")+")")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a saved run and its training history",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMODE\tCARS\tTRAFFIC\tFRAMES")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", name, cfg.Mode, cfg.Population, len(cfg.Traffic.Cars), cfg.Frames)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, trainCmd, liveCmd, listCmd, showCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func scenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "named scenario (see roadsim presets)")
	cmd.Flags().IntVar(&frames, "frames", 0, "frames to simulate")
	cmd.Flags().IntVar(&population, "population", 0, "cars under test")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for brains and mutation")
}

// loadScenario resolves the scenario: preset, then config file, then flags.
func loadScenario(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "course"

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		name = preset
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	flags := cmd.Flags()
	if flags.Changed("frames") {
		cfg.Frames = frames
	}
	if flags.Changed("population") {
		cfg.Population = population
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("generations") {
		cfg.Training.Generations = generations
	}
	if flags.Changed("mutation") {
		cfg.Training.Mutation = mutation
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level := viper.GetString("log_level")
	if level == "" {
		level = cfg.LogLevel
	}
	return logging.New(level, w)
}

func openStore() (*storage.Store, error) {
	st := storage.New(viper.GetString("data"))
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

// startingBrain loads the brain named by --brain, falling back to the
// scenario's brain path. It returns nil when neither is set.
func startingBrain(st *storage.Store, cfg *config.Config) (*brain.Network, error) {
	ref := brainPath
	if ref == "" {
		ref = cfg.Brain.Path
	}
	switch {
	case ref == "":
		return nil, nil
	case ref == "latest":
		meta, err := st.Latest("train")
		if err != nil {
			return nil, err
		}
		return st.LoadBrain(meta.ID)
	}
	if _, err := os.Stat(ref); err == nil {
		return brain.Load(ref)
	}
	return st.LoadBrain(ref)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stderr)

	st, err := openStore()
	if err != nil {
		return err
	}
	parent, err := startingBrain(st, cfg)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg, log)
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()
	obs, err := telemetry.New(telemetry.Meter(), name)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if runs > 1 {
		return runEnsemble(ctx, exp, registry, obs, parent, name)
	}

	metrics, err := registry.Metrics()
	if err != nil {
		return err
	}
	exp.Setup(metrics, obs)

	w, err := exp.BuildWorld(parent)
	if err != nil {
		return err
	}

	fmt.Printf("running %s with %d cars...\n", name, len(w.Cars))
	start := time.Now()

	result, err := exp.Run(ctx, w)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		fmt.Printf("interrupted at frame %d\n", result.Frames)
	}

	var best *brain.Network
	if net, ok := w.Best().Controller().(*brain.Network); ok && w.Best().Source().Kind() == control.KindNeural {
		best = net
	}

	meta := &storage.RunMetadata{
		Kind:       "run",
		Preset:     name,
		Mode:       cfg.Mode,
		Seed:       cfg.Seed,
		Frames:     result.Frames,
		Population: len(w.Cars),
		Distance:   result.Distance,
		Damaged:    result.Damaged,
		Metrics:    result.Metrics,
	}
	runID, err := st.Save(meta, best)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d\n", result.Frames)
	fmt.Printf("distance: %.1f\n", result.Distance)
	fmt.Printf("damaged: %d/%d\n", result.Damaged, len(w.Cars))
	fmt.Printf("collisions: %d\n", obs.Collisions())
	fmt.Println("\nmetrics:")
	for _, mname := range registry.ListMetrics() {
		fmt.Printf("  %s: %.4f\n", mname, result.Metrics[mname])
	}

	if plot && len(result.Speeds) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(result.Speeds,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("leading car speed"),
		))
	}

	if exportPath != "" {
		if err := storage.ExportJSON(exportPath, storage.Summary(meta, result)); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", exportPath)
	}
	return nil
}

func runEnsemble(ctx context.Context, exp *experiment.Experiment, registry *experiment.Registry, obs *telemetry.Observer, parent *brain.Network, name string) error {
	// Worlds draw from the experiment's random source, so build them up front.
	worlds := make([]*sim.World, runs)
	for i := range worlds {
		w, err := exp.BuildWorld(parent)
		if err != nil {
			return err
		}
		worlds[i] = w
	}

	s := sim.New(newLogger(exp.Config(), os.Stderr))
	s.AddObserver(obs)
	ens := sim.NewEnsemble(s, func(i int) (*sim.World, error) { return worlds[i], nil }, runs).
		WithMetrics(func() ([]sim.Metric, error) { return registry.Metrics() })

	fmt.Printf("running %d worlds of %s...\n", runs, name)
	start := time.Now()
	results, err := ens.Run(ctx, sim.Config{Frames: exp.Config().Frames})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORLD\tFRAMES\tDISTANCE\tDAMAGED\tSURVIVAL")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%.1f\t%d\t%.2f\n", i, r.Frames, r.Distance, r.Damaged, r.Metrics["survival"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\ncompleted in %v, %d frames, %d collisions\n", time.Since(start), obs.Frames(), obs.Collisions())
	return nil
}

func trainScenario(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stderr)

	st, err := openStore()
	if err != nil {
		return err
	}
	parent, err := startingBrain(st, cfg)
	if err != nil {
		return err
	}

	ledger, err := storage.OpenLedger(filepath.Join(st.Dir(), ledgerFile), log)
	if err != nil {
		return err
	}
	defer ledger.Close()

	exp, err := experiment.New(cfg, log)
	if err != nil {
		return err
	}
	obs, err := telemetry.New(telemetry.Meter(), name)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	runID := storage.NewID("train")
	trainer := train.New(exp, ledger, runID, log)
	trainer.AddObserver(obs)

	fmt.Printf("training %s: %d generations of %d cars\n", name, cfg.Training.Generations, cfg.Population)
	start := time.Now()

	out, err := trainer.Run(ctx, parent)
	if err != nil {
		return err
	}

	last := out.History[len(out.History)-1]
	meta := &storage.RunMetadata{
		ID:          runID,
		Kind:        "train",
		Preset:      name,
		Mode:        cfg.Mode,
		Seed:        cfg.Seed,
		Frames:      last.Frames,
		Population:  cfg.Population,
		Generations: len(out.History),
		Distance:    last.BestDistance,
		Damaged:     last.Population - last.Survivors,
		Metrics:     out.Result.Metrics,
	}
	if _, err := st.Save(meta, out.Best); err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("best distance: %.1f\n", last.BestDistance)
	fmt.Printf("frames simulated: %d\n", obs.Frames())

	if exportPath != "" {
		data := storage.Summary(meta, out.Result)
		data.History = out.History
		if err := storage.ExportJSON(exportPath, data); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", exportPath)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScenario(cmd)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}

	// The view owns the terminal, so logs go to a file.
	logFile, err := os.Create(filepath.Join(st.Dir(), "live.log"))
	if err != nil {
		return err
	}
	defer logFile.Close()
	log := newLogger(cfg, logFile)

	parent, err := startingBrain(st, cfg)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, log)
	if err != nil {
		return err
	}
	obs, err := telemetry.New(telemetry.Meter(), name)
	if err != nil {
		return err
	}

	build := func() (*sim.World, *control.Manual, error) {
		w, err := exp.BuildWorld(parent)
		if err != nil {
			return nil, nil, err
		}
		return w, exp.Manual(), nil
	}

	return viz.Run(build, viz.Options{
		Title:     name,
		Frames:    cfg.Frames,
		FPS:       frameRate,
		Theme:     theme,
		Observers: []sim.Observer{obs},
		Hold:      holdWindow,
	})
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(viper.GetString("data"))
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSCENARIO\tTIME\tCARS\tFRAMES\tDISTANCE\tBRAIN")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%.1f\t%v\n",
			run.ID,
			run.Kind,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Population,
			run.Frames,
			run.Distance,
			run.HasBrain,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(viper.GetString("data"))
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	if err := storage.Export(os.Stdout, storage.ExportData{Run: meta, Frames: meta.Frames, Distance: meta.Distance, Damaged: meta.Damaged, Metrics: meta.Metrics}); err != nil {
		return err
	}
	if meta.Kind != "train" {
		return nil
	}

	ledger, err := storage.OpenLedger(filepath.Join(st.Dir(), ledgerFile), zerolog.Nop())
	if err != nil {
		return err
	}
	defer ledger.Close()

	history, err := ledger.History(runID)
	if err != nil {
		return err
	}
	if len(history) < 2 {
		fmt.Printf("\n%d generation(s) recorded\n", len(history))
		return nil
	}

	distance := make([]float64, len(history))
	survivors := make([]float64, len(history))
	for i, rec := range history {
		distance[i] = rec.BestDistance
		survivors[i] = float64(rec.Survivors)
	}

	fmt.Println()
	fmt.Println(asciigraph.Plot(distance, asciigraph.Height(10), asciigraph.Width(60), asciigraph.Caption("best distance per generation")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(survivors, asciigraph.Height(6), asciigraph.Width(60), asciigraph.Caption("survivors per generation")))
	return nil
}
