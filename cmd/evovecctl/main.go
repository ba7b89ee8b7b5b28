package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/gogpu/gg"

	"evovec/internal/evo"
	"evovec/internal/genotype"
	"evovec/internal/model"
	"evovec/internal/render"
	"evovec/internal/snapshot"
	"evovec/internal/stats"
	"evovec/internal/storage"
	"evovec/pkg/evovec"
)

const (
	defaultRunsDir    = "runs"
	defaultExportsDir = "exports"
	defaultDBPath     = "evovec.db"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "show":
		return runShow(ctx, args[1:])
	case "render":
		return runRender(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// clientFlags are shared by every subcommand that opens a client.
type clientFlags struct {
	store    *string
	dbPath   *string
	runsDir  *string
	logLevel *string
}

func addClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		store:    fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:   fs.String("db-path", defaultDBPath, "sqlite database path"),
		runsDir:  fs.String("runs-dir", defaultRunsDir, "run artifacts directory"),
		logLevel: fs.String("log-level", "info", "log level: debug|info|warn|error"),
	}
}

func (f clientFlags) open(stderr io.Writer) (*evovec.Client, error) {
	logger, err := newLogger(*f.logLevel, stderr)
	if err != nil {
		return nil, err
	}
	gg.SetLogger(logger)
	return evovec.New(evovec.Options{
		StoreKind:  *f.store,
		DBPath:     *f.dbPath,
		RunsDir:    *f.runsDir,
		ExportsDir: defaultExportsDir,
		Logger:     logger,
	})
}

func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, &model.ConfigurationError{Field: "log-level", Err: err}
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to JSON run config")
	runID := fs.String("run-id", "", "explicit run id")
	runIDFormat := fs.String("run-id-format", evovec.DefaultRunIDFormat, "strftime layout for generated run ids")
	continueRun := fs.String("continue-run", "", "seed the annealer from the best set of a stored run")
	seed := fs.Int64("seed", 0, "random seed (0 picks a time based seed)")
	temperature := fs.Float64("temperature", evo.DefaultInitialTemperature, "initial temperature")
	cooling := fs.Float64("cooling", evo.DefaultCooling, "geometric cooling factor in (0,1)")
	threshold := fs.Float64("threshold", evo.DefaultThreshold, "stop once temperature falls below this")
	temperatureScale := fs.Float64("temperature-scale", evo.DefaultTemperatureScale, "multiplier on temperature in the acceptance test")
	polygons := fs.Int("polygons", genotype.DefaultPolygonCount, "polygon count for a fresh run")
	minVertices := fs.Int("min-vertices", genotype.DefaultMinVertices, "minimum vertices per polygon")
	maxVertices := fs.Int("max-vertices", genotype.DefaultMaxVertices, "maximum vertices per polygon")
	rasterEvery := fs.Int("raster-every", snapshot.DefaultRasterEvery, "write a PNG snapshot every N iterations (0 disables)")
	vectorEvery := fs.Int("vector-every", snapshot.DefaultVectorEvery, "write an SVG snapshot every N iterations (0 disables)")
	traceEvery := fs.Int("trace-every", evovec.DefaultTraceEvery, "record a fitness history sample every N iterations (0 disables)")
	renderer := fs.String("renderer", render.BackendGG, "rasterizer: gg|vector")
	maxDim := fs.Int("max-dim", 0, "downscale the reference so its larger side is at most N (0 disables)")
	quiet := fs.Bool("quiet", false, "suppress progress output")
	cf := addClientFlags(fs)

	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return usageError("run requires <input-image> <output-dir>")
	}

	setFlags := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	if err := overrideFromFlags(&req, setFlags, map[string]any{
		"run-id":            *runID,
		"run-id-format":     *runIDFormat,
		"continue-run":      *continueRun,
		"seed":              *seed,
		"temperature":       *temperature,
		"cooling":           *cooling,
		"threshold":         *threshold,
		"temperature-scale": *temperatureScale,
		"polygons":          *polygons,
		"min-vertices":      *minVertices,
		"max-vertices":      *maxVertices,
		"raster-every":      *rasterEvery,
		"vector-every":      *vectorEvery,
		"trace-every":       *traceEvery,
		"renderer":          *renderer,
		"max-dim":           *maxDim,
	}); err != nil {
		return err
	}
	req.InputPath = positional[0]
	req.OutputDir = positional[1]
	if err := req.Validate(); err != nil {
		return err
	}

	if !*quiet {
		printer := newProgressPrinter(os.Stdout)
		req.Progress = printer.report
		req.ProgressEvery = printer.every()
	}

	client, err := cf.open(os.Stderr)
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("run completed run_id=%s seed=%d width=%d height=%d iterations=%d improving=%d annealed=%d\n",
		summary.RunID,
		summary.Seed,
		summary.Width,
		summary.Height,
		summary.Iterations,
		summary.Improving,
		summary.Annealed,
	)
	fmt.Printf("initial_fitness=%d best_fitness=%d final_temperature=%.6f duration=%s\n",
		summary.InitialFitness,
		summary.BestFitness,
		summary.FinalTemperature,
		summary.Duration,
	)
	fmt.Printf("output_dir=%s snapshots=%d snapshot_bytes=%s\n", summary.OutputDir, len(summary.Snapshots), snapshotBytes(summary.Snapshots))
	fmt.Printf("artifacts_dir=%s\n", summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	cf := addClientFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *limit <= 0 {
		return &model.ConfigurationError{Field: "limit", Err: errors.New("limit must be > 0")}
	}

	client, err := cf.open(os.Stderr)
	if err != nil {
		return err
	}
	defer client.Close()

	items, err := client.Runs(ctx, evovec.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		type runsItem struct {
			RunID            string `json:"run_id"`
			CreatedAtUTC     string `json:"created_at_utc"`
			InputPath        string `json:"input_path"`
			Width            int    `json:"width"`
			Height           int    `json:"height"`
			PolygonCount     int    `json:"polygon_count"`
			Seed             int64  `json:"seed"`
			Renderer         string `json:"renderer"`
			Iterations       int    `json:"iterations"`
			FinalBestFitness uint64 `json:"final_best_fitness"`
		}
		out := make([]runsItem, 0, len(items))
		for _, item := range items {
			out = append(out, runsItem(item))
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, item := range items {
		fmt.Printf("run_id=%s created_at=%s input=%s size=%dx%d polygons=%d seed=%d renderer=%s iterations=%d final_best_fitness=%d\n",
			item.RunID,
			item.CreatedAtUTC,
			item.InputPath,
			item.Width,
			item.Height,
			item.PolygonCount,
			item.Seed,
			item.Renderer,
			item.Iterations,
			item.FinalBestFitness,
		)
	}
	return nil
}

func runShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show the most recent run from run index")
	jsonOut := fs.Bool("json", false, "emit run detail as JSON")
	cf := addClientFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := checkRunSelector(*runID, *latest, "show"); err != nil {
		return err
	}

	client, err := cf.open(os.Stderr)
	if err != nil {
		return err
	}
	defer client.Close()

	detail, err := client.Show(ctx, evovec.ShowRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Run       model.RunRecord       `json:"run"`
			History   []model.HistorySample `json:"history"`
			Mutations []stats.MutationCount `json:"mutations"`
		}{detail.Run, detail.History, detail.Mutations})
	}

	r := detail.Run
	fmt.Printf("run_id=%s created_at=%s input=%s output=%s size=%dx%d seed=%d renderer=%s\n",
		r.ID, r.CreatedAtUTC, r.InputPath, r.OutputDir, r.Width, r.Height, r.Seed, r.Renderer)
	if r.ContinuedFrom != "" {
		fmt.Printf("continued_from=%s\n", r.ContinuedFrom)
	}
	fmt.Printf("schedule temperature=%g cooling=%g threshold=%g temperature_scale=%g\n",
		r.InitialTemperature, r.Cooling, r.Threshold, r.TemperatureScale)
	fmt.Printf("polygons=%d vertices=%d..%d\n", r.PolygonCount, r.MinVertices, r.MaxVertices)
	fmt.Printf("iterations=%d improving=%d annealed=%d initial_fitness=%d best_fitness=%d final_temperature=%.6f\n",
		r.Iterations, r.Improving, r.Annealed, r.InitialFitness, r.BestFitness, r.FinalTemperature)
	for _, m := range detail.Mutations {
		fmt.Printf("mutation kind=%s proposed=%d applied=%d accepted=%d\n", m.Kind, m.Proposed, m.Applied, m.Accepted)
	}
	for _, s := range detail.History {
		fmt.Printf("sample iteration=%d temperature=%.6f current=%d best=%d improving=%d annealed=%d\n",
			s.Iteration, s.Temperature, s.Current, s.Best, s.Improving, s.Annealed)
	}
	return nil
}

func runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "render the most recent run from run index")
	outPath := fs.String("out", "", "output file (.png or .svg)")
	renderer := fs.String("renderer", render.BackendGG, "rasterizer for PNG output: gg|vector")
	cf := addClientFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := checkRunSelector(*runID, *latest, "render"); err != nil {
		return err
	}
	if *outPath == "" {
		return usageError("render requires --out")
	}

	client, err := cf.open(os.Stderr)
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.Render(ctx, evovec.RenderRequest{
		RunID:    *runID,
		Latest:   *latest,
		OutPath:  *outPath,
		Renderer: *renderer,
	})
	if err != nil {
		return err
	}
	fmt.Printf("rendered run_id=%s to=%s\n", summary.RunID, summary.Path)
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run from run index")
	outDir := fs.String("out", defaultExportsDir, "export output directory")
	cf := addClientFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if err := checkRunSelector(*runID, *latest, "export"); err != nil {
		return err
	}

	client, err := cf.open(os.Stderr)
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.Export(ctx, evovec.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s to=%s\n", summary.RunID, summary.Directory)
	return nil
}

func checkRunSelector(runID string, latest bool, op string) error {
	if runID != "" && latest {
		return usageError("use either --run-id or --latest, not both")
	}
	if runID == "" && !latest {
		return usageError(fmt.Sprintf("%s requires --run-id or --latest", op))
	}
	return nil
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return usageError(fmt.Sprintf("%s: unexpected arguments: %s", fs.Name(), strings.Join(positional, " ")))
	}
	return nil
}

// parseInterspersed parses flags that may appear before, between or after
// positional arguments, which the flag package alone stops at.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, usageError(fmt.Sprintf("%s: %v", fs.Name(), err))
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

type cliUsageError struct {
	msg string
}

func (e *cliUsageError) Error() string {
	return fmt.Sprintf("%s\nusage: evovecctl <run|runs|show|render|export> [flags]\n  evovecctl run [flags] <input-image> <output-dir>", e.msg)
}

func usageError(msg string) error {
	return &cliUsageError{msg: msg}
}

// exitCode maps configuration and usage problems to 2, everything else to 1.
func exitCode(err error) int {
	var usageErr *cliUsageError
	var cfgErr *model.ConfigurationError
	if errors.As(err, &usageErr) || errors.As(err, &cfgErr) {
		return exitUsage
	}
	return exitFailure
}
