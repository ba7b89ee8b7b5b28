package evovec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ncruces/go-strftime"

	"evovec/internal/evo"
	"evovec/internal/fitness"
	"evovec/internal/genotype"
	"evovec/internal/model"
	"evovec/internal/render"
	"evovec/internal/snapshot"
	"evovec/internal/stats"
	"evovec/internal/storage"
)

const (
	defaultRunsDir    = "runs"
	defaultExportsDir = "exports"
	defaultDBPath     = "evovec.db"

	DefaultRunIDFormat = "%Y%m%d-%H%M%S"
	DefaultTraceEvery  = 1000
)

type Options struct {
	StoreKind  string
	DBPath     string
	RunsDir    string
	ExportsDir string
	Logger     *slog.Logger
}

type Client struct {
	store       storage.Store
	initialized bool

	runsDir    string
	exportsDir string
	logger     *slog.Logger
	now        func() time.Time
}

// RunRequest configures one annealing run. Zero intervals disable the
// corresponding output; use DefaultRunRequest for the documented defaults.
type RunRequest struct {
	InputPath     string
	OutputDir     string
	RunID         string
	RunIDFormat   string
	ContinueRunID string
	// Seed 0 picks a time based seed.
	Seed         int64
	Schedule     evo.Schedule
	PolygonCount int
	Vertices     genotype.VertexRange
	RasterEvery  int
	VectorEvery  int
	TraceEvery   int
	Renderer     string
	MaxDim       int

	// Progress, when set, is called every ProgressEvery iterations and once
	// at termination.
	Progress      func(Progress)
	ProgressEvery int
}

// Progress is a point-in-time view of a running annealer.
type Progress struct {
	Iteration           int
	EstimatedIterations int
	Temperature         float64
	CurrentFitness      uint64
	BestFitness         uint64
	Improving           int
	Annealed            int
	Elapsed             time.Duration
	Done                bool
}

type RunSummary struct {
	RunID            string
	Seed             int64
	ArtifactsDir     string
	OutputDir        string
	Width            int
	Height           int
	Iterations       int
	Improving        int
	Annealed         int
	InitialFitness   uint64
	BestFitness      uint64
	FinalTemperature float64
	Snapshots        []string
	Duration         time.Duration
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	InputPath        string
	Width            int
	Height           int
	PolygonCount     int
	Seed             int64
	Renderer         string
	Iterations       int
	FinalBestFitness uint64
}

type ShowRequest struct {
	RunID  string
	Latest bool
}

type RunDetail struct {
	Run       model.RunRecord
	History   []model.HistorySample
	Mutations []stats.MutationCount
}

type RenderRequest struct {
	RunID    string
	Latest   bool
	OutPath  string
	Renderer string
}

type RenderSummary struct {
	RunID string
	Path  string
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

// DefaultRunRequest returns a request carrying every documented default.
func DefaultRunRequest(inputPath, outputDir string) RunRequest {
	return RunRequest{
		InputPath:    inputPath,
		OutputDir:    outputDir,
		RunIDFormat:  DefaultRunIDFormat,
		Schedule:     evo.DefaultSchedule(),
		PolygonCount: genotype.DefaultPolygonCount,
		Vertices:     genotype.DefaultVertexRange(),
		RasterEvery:  snapshot.DefaultRasterEvery,
		VectorEvery:  snapshot.DefaultVectorEvery,
		TraceEvery:   DefaultTraceEvery,
		Renderer:     render.BackendGG,
	}
}

// Validate reports the first configuration problem as a
// *model.ConfigurationError.
func (r RunRequest) Validate() error {
	if strings.TrimSpace(r.InputPath) == "" {
		return configErr("input", errors.New("input image path is required"))
	}
	if strings.TrimSpace(r.OutputDir) == "" {
		return configErr("output", errors.New("output directory is required"))
	}
	if err := r.Schedule.Validate(); err != nil {
		return configErr("schedule", err)
	}
	if r.ContinueRunID == "" && r.PolygonCount <= 0 {
		return configErr("polygons", fmt.Errorf("%w: got %d", genotype.ErrInvalidPolygonCount, r.PolygonCount))
	}
	if err := r.Vertices.Validate(); err != nil {
		return configErr("vertices", err)
	}
	for _, check := range []struct {
		field string
		value int
	}{
		{"raster-every", r.RasterEvery},
		{"vector-every", r.VectorEvery},
		{"trace-every", r.TraceEvery},
		{"max-dim", r.MaxDim},
		{"progress-every", r.ProgressEvery},
	} {
		if check.value < 0 {
			return configErr(check.field, fmt.Errorf("must be >= 0: got %d", check.value))
		}
	}
	if _, err := render.NewRenderer(r.Renderer); err != nil {
		return configErr("renderer", err)
	}
	return nil
}

func configErr(field string, err error) error {
	return &model.ConfigurationError{Field: field, Err: err}
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	runsDir := opts.RunsDir
	if runsDir == "" {
		runsDir = defaultRunsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		runsDir:    runsDir,
		exportsDir: exportsDir,
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	c.initialized = true
	return nil
}

// Run anneals a polygon approximation of req.InputPath, writing snapshots to
// req.OutputDir and run artifacts under the client's runs directory.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.RunIDFormat == "" {
		req.RunIDFormat = DefaultRunIDFormat
	}
	if req.Renderer == "" {
		req.Renderer = render.BackendGG
	}
	if err := req.Validate(); err != nil {
		return RunSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	started := c.now()
	now := started.UTC()
	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		runID = NewRunID(req.RunIDFormat, now)
	}
	seed := req.Seed
	if seed == 0 {
		seed = genotype.TimeSeed()
	}
	logger := c.logger.With("run_id", runID)

	reference, format, err := render.LoadReference(req.InputPath, req.MaxDim)
	if err != nil {
		return RunSummary{}, err
	}
	width, height := reference.Rect.Dx(), reference.Rect.Dy()
	logger.Info("reference loaded", "path", req.InputPath, "format", format, "width", width, "height", height)

	renderer, err := render.NewRenderer(req.Renderer)
	if err != nil {
		return RunSummary{}, configErr("renderer", err)
	}
	evaluator, err := fitness.NewEvaluator(reference, renderer)
	if err != nil {
		return RunSummary{}, err
	}

	src := genotype.NewSource(seed)
	initial, err := c.initialSet(ctx, req, src, width, height)
	if err != nil {
		return RunSummary{}, err
	}
	initial.VersionedRecord = storage.CurrentVersion()

	inner, err := evo.NewRandomMutation(src, req.Vertices)
	if err != nil {
		return RunSummary{}, configErr("vertices", err)
	}
	tally := newMutationTally(inner)

	policy := &snapshot.Policy{
		Dir:         req.OutputDir,
		RasterEvery: req.RasterEvery,
		VectorEvery: req.VectorEvery,
		Renderer:    renderer,
		Logger:      logger,
	}
	if err := policy.Validate(); err != nil {
		return RunSummary{}, configErr("snapshots", err)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return RunSummary{}, fmt.Errorf("create output dir: %w", err)
	}

	estimated := req.Schedule.EstimatedIterations()
	var history []model.HistorySample
	hook := func(ctx context.Context, a *evo.Annealer, report evo.StepReport) error {
		tally.accept(report)
		state := report.State
		if req.TraceEvery > 0 && state.Iteration%req.TraceEvery == 0 {
			history = append(history, sampleOf(state))
		}
		if policy.Due(state.Iteration) {
			if err := policy.Observe(state.Iteration, a.Best()); err != nil {
				return err
			}
		}
		if req.Progress != nil && req.ProgressEvery > 0 && state.Iteration%req.ProgressEvery == 0 {
			req.Progress(progressOf(state, estimated, c.now().Sub(started), false))
		}
		return nil
	}

	annealer, err := evo.NewAnnealer(ctx, evo.AnnealerConfig{
		Schedule: req.Schedule,
		Rand:     src,
		Mutator:  tally,
		Evaluate: evaluator.Evaluate,
		Hook:     hook,
		Logger:   logger,
	}, initial)
	if err != nil {
		return RunSummary{}, err
	}
	history = append(history, sampleOf(annealer.State()))
	if err := policy.Observe(0, annealer.Best()); err != nil {
		return RunSummary{}, err
	}

	result, err := annealer.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}
	if last := history[len(history)-1]; last.Iteration != result.State.Iteration {
		history = append(history, sampleOf(result.State))
	}
	if err := policy.Final(result.Best); err != nil {
		return RunSummary{}, err
	}
	duration := c.now().Sub(started)
	if req.Progress != nil {
		req.Progress(progressOf(result.State, estimated, duration, true))
	}

	best := result.Best
	best.VersionedRecord = storage.CurrentVersion()
	record := model.RunRecord{
		VersionedRecord:    storage.CurrentVersion(),
		ID:                 runID,
		InputPath:          req.InputPath,
		OutputDir:          req.OutputDir,
		Width:              width,
		Height:             height,
		Seed:               seed,
		Renderer:           req.Renderer,
		PolygonCount:       len(best.Polygons),
		MinVertices:        req.Vertices.Min,
		MaxVertices:        req.Vertices.Max,
		InitialTemperature: req.Schedule.Initial,
		Cooling:            req.Schedule.Cooling,
		Threshold:          req.Schedule.Threshold,
		TemperatureScale:   req.Schedule.Scale,
		ContinuedFrom:      req.ContinueRunID,
		Iterations:         result.State.Iteration,
		Improving:          result.State.Improving,
		Annealed:           result.State.Annealed,
		InitialFitness:     result.InitialFitness,
		BestFitness:        result.BestFitness,
		FinalTemperature:   result.State.Temperature,
		CreatedAtUTC:       now.Format(time.RFC3339Nano),
	}

	if err := c.store.SaveRun(ctx, record); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}
	if err := c.store.SavePolygonSet(ctx, runID, best); err != nil {
		return RunSummary{}, fmt.Errorf("save best set: %w", err)
	}
	if err := c.store.SaveFitnessHistory(ctx, runID, history); err != nil {
		return RunSummary{}, fmt.Errorf("save fitness history: %w", err)
	}

	runDir, err := stats.WriteRunArtifacts(c.runsDir, stats.RunArtifacts{
		Run: record,
		Config: stats.RunConfig{
			RunID:              runID,
			ContinueRunID:      req.ContinueRunID,
			InputPath:          req.InputPath,
			OutputDir:          req.OutputDir,
			Width:              width,
			Height:             height,
			MaxDim:             req.MaxDim,
			Seed:               seed,
			Renderer:           req.Renderer,
			PolygonCount:       record.PolygonCount,
			MinVertices:        req.Vertices.Min,
			MaxVertices:        req.Vertices.Max,
			InitialTemperature: req.Schedule.Initial,
			Cooling:            req.Schedule.Cooling,
			Threshold:          req.Schedule.Threshold,
			TemperatureScale:   req.Schedule.Scale,
			RasterEvery:        req.RasterEvery,
			VectorEvery:        req.VectorEvery,
			TraceEvery:         req.TraceEvery,
		},
		History:          history,
		Best:             best,
		InitialFitness:   result.InitialFitness,
		FinalBestFitness: result.BestFitness,
		Iterations:       result.State.Iteration,
		Improving:        result.State.Improving,
		Annealed:         result.State.Annealed,
		Mutations:        tally.counts(),
	})
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.runsDir, stats.RunIndexEntry{
		RunID:            runID,
		InputPath:        req.InputPath,
		Width:            width,
		Height:           height,
		PolygonCount:     record.PolygonCount,
		Seed:             seed,
		Renderer:         req.Renderer,
		Iterations:       record.Iterations,
		FinalBestFitness: record.BestFitness,
		CreatedAtUTC:     record.CreatedAtUTC,
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:            runID,
		Seed:             seed,
		ArtifactsDir:     filepath.Clean(runDir),
		OutputDir:        filepath.Clean(req.OutputDir),
		Width:            width,
		Height:           height,
		Iterations:       record.Iterations,
		Improving:        record.Improving,
		Annealed:         record.Annealed,
		InitialFitness:   record.InitialFitness,
		BestFitness:      record.BestFitness,
		FinalTemperature: record.FinalTemperature,
		Snapshots:        policy.Written(),
		Duration:         duration,
	}, nil
}

func (c *Client) initialSet(ctx context.Context, req RunRequest, src genotype.Source, width, height int) (model.PolygonSet, error) {
	if req.ContinueRunID == "" {
		set, err := genotype.Construct(src, width, height, req.PolygonCount, req.Vertices)
		if err != nil {
			return model.PolygonSet{}, configErr("polygons", err)
		}
		return set, nil
	}

	set, ok, err := c.loadBest(ctx, req.ContinueRunID)
	if err != nil {
		return model.PolygonSet{}, err
	}
	if !ok {
		return model.PolygonSet{}, configErr("continue-run", fmt.Errorf("run not found: %s", req.ContinueRunID))
	}
	if set.Width != width || set.Height != height {
		return model.PolygonSet{}, configErr("continue-run", fmt.Errorf(
			"run %s was fitted to %dx%d, reference is %dx%d", req.ContinueRunID, set.Width, set.Height, width, height))
	}
	if err := genotype.Validate(set, req.Vertices); err != nil {
		return model.PolygonSet{}, configErr("continue-run", err)
	}
	return set, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			InputPath:        e.InputPath,
			Width:            e.Width,
			Height:           e.Height,
			PolygonCount:     e.PolygonCount,
			Seed:             e.Seed,
			Renderer:         e.Renderer,
			Iterations:       e.Iterations,
			FinalBestFitness: e.FinalBestFitness,
		})
	}
	return out, nil
}

// Show returns the stored summary of one run. The store is consulted first;
// runs recorded by other processes fall back to the on-disk artifacts.
func (c *Client) Show(ctx context.Context, req ShowRequest) (RunDetail, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "show")
	if err != nil {
		return RunDetail{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunDetail{}, err
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return RunDetail{}, err
	}
	if !ok {
		run, ok, err = stats.ReadRunRecord(c.runsDir, runID)
		if err != nil {
			return RunDetail{}, err
		}
		if !ok {
			return RunDetail{}, fmt.Errorf("run not found: %s", runID)
		}
	}

	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return RunDetail{}, err
	}
	if !ok {
		history, _, err = stats.ReadHistoryCSV(filepath.Join(c.runsDir, runID, stats.HistoryCSVFile))
		if err != nil {
			return RunDetail{}, err
		}
	}
	mutations, _, err := stats.ReadMutationStats(c.runsDir, runID)
	if err != nil {
		return RunDetail{}, err
	}
	return RunDetail{Run: run, History: history, Mutations: mutations}, nil
}

// Render rasterizes the best set of a stored run. A .svg output path writes
// the vector form instead.
func (c *Client) Render(ctx context.Context, req RenderRequest) (RenderSummary, error) {
	if strings.TrimSpace(req.OutPath) == "" {
		return RenderSummary{}, configErr("out", errors.New("output path is required"))
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest, "render")
	if err != nil {
		return RenderSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RenderSummary{}, err
	}

	set, ok, err := c.loadBest(ctx, runID)
	if err != nil {
		return RenderSummary{}, err
	}
	if !ok {
		return RenderSummary{}, fmt.Errorf("best polygon set not found for run id: %s", runID)
	}

	if strings.EqualFold(filepath.Ext(req.OutPath), ".svg") {
		if err := render.WriteSVG(req.OutPath, set); err != nil {
			return RenderSummary{}, err
		}
		return RenderSummary{RunID: runID, Path: filepath.Clean(req.OutPath)}, nil
	}

	renderer, err := render.NewRenderer(req.Renderer)
	if err != nil {
		return RenderSummary{}, configErr("renderer", err)
	}
	img, err := renderer.Rasterize(set)
	if err != nil {
		return RenderSummary{}, err
	}
	if err := render.WritePNG(req.OutPath, img); err != nil {
		return RenderSummary{}, err
	}
	return RenderSummary{RunID: runID, Path: filepath.Clean(req.OutPath)}, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, "export")
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.runsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) resolveRunID(runID string, latest bool, op string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", fmt.Errorf("%s requires run id or latest", op)
	}
	entries, err := stats.ListRunIndex(c.runsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func (c *Client) loadBest(ctx context.Context, runID string) (model.PolygonSet, bool, error) {
	set, ok, err := c.store.GetPolygonSet(ctx, runID)
	if err != nil || ok {
		return set, ok, err
	}
	return stats.ReadBestPolygons(c.runsDir, runID)
}

// NewRunID formats now with an strftime layout and appends a short random
// suffix so runs started within the same second stay distinct.
func NewRunID(format string, now time.Time) string {
	if format == "" {
		format = DefaultRunIDFormat
	}
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return strftime.Format(format, now) + "-" + suffix
}

func sampleOf(state evo.State) model.HistorySample {
	return model.HistorySample{
		Iteration:   state.Iteration,
		Temperature: state.Temperature,
		Current:     state.CurrentFitness,
		Best:        state.BestFitness,
		Improving:   state.Improving,
		Annealed:    state.Annealed,
	}
}

func progressOf(state evo.State, estimated int, elapsed time.Duration, done bool) Progress {
	return Progress{
		Iteration:           state.Iteration,
		EstimatedIterations: estimated,
		Temperature:         state.Temperature,
		CurrentFitness:      state.CurrentFitness,
		BestFitness:         state.BestFitness,
		Improving:           state.Improving,
		Annealed:            state.Annealed,
		Elapsed:             elapsed,
		Done:                done,
	}
}
