package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"evovec/internal/model"
)

const (
	runIndexFile = "run_index.json"

	RunFile          = "run.json"
	ConfigFile       = "config.json"
	HistoryJSONFile  = "fitness_history.json"
	HistoryCSVFile   = "fitness_history.csv"
	HistoryPlotFile  = "fitness_history.png"
	BestPolygonsFile = "best_polygons.json"
	MutationsFile    = "mutation_stats.json"
)

// RunConfig is the resolved configuration of one run, written as config.json.
type RunConfig struct {
	RunID              string  `json:"run_id"`
	ContinueRunID      string  `json:"continue_run_id,omitempty"`
	InputPath          string  `json:"input_path"`
	OutputDir          string  `json:"output_dir"`
	Width              int     `json:"width"`
	Height             int     `json:"height"`
	MaxDim             int     `json:"max_dim,omitempty"`
	Seed               int64   `json:"seed"`
	Renderer           string  `json:"renderer"`
	PolygonCount       int     `json:"polygon_count"`
	MinVertices        int     `json:"min_vertices"`
	MaxVertices        int     `json:"max_vertices"`
	InitialTemperature float64 `json:"initial_temperature"`
	Cooling            float64 `json:"cooling"`
	Threshold          float64 `json:"threshold"`
	TemperatureScale   float64 `json:"temperature_scale"`
	RasterEvery        int     `json:"raster_every"`
	VectorEvery        int     `json:"vector_every"`
	TraceEvery         int     `json:"trace_every"`
}

// MutationCount tallies how often one mutation kind was proposed and how
// often it changed the set.
type MutationCount struct {
	Kind     string `json:"kind"`
	Proposed int    `json:"proposed"`
	Applied  int    `json:"applied"`
	Accepted int    `json:"accepted"`
}

type RunArtifacts struct {
	Run              model.RunRecord       `json:"run"`
	Config           RunConfig             `json:"config"`
	History          []model.HistorySample `json:"history"`
	Best             model.PolygonSet      `json:"best"`
	InitialFitness   uint64                `json:"initial_fitness"`
	FinalBestFitness uint64                `json:"final_best_fitness"`
	Iterations       int                   `json:"iterations"`
	Improving        int                   `json:"improving"`
	Annealed         int                   `json:"annealed"`
	Mutations        []MutationCount       `json:"mutations,omitempty"`
}

type RunIndexEntry struct {
	RunID            string `json:"run_id"`
	InputPath        string `json:"input_path"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	PolygonCount     int    `json:"polygon_count"`
	Seed             int64  `json:"seed"`
	Renderer         string `json:"renderer"`
	Iterations       int    `json:"iterations"`
	FinalBestFitness uint64 `json:"final_best_fitness"`
	CreatedAtUTC     string `json:"created_at_utc"`
}

type historyDocument struct {
	InitialFitness   uint64                `json:"initial_fitness"`
	FinalBestFitness uint64                `json:"final_best_fitness"`
	Iterations       int                   `json:"iterations"`
	Improving        int                   `json:"improving"`
	Annealed         int                   `json:"annealed"`
	Samples          []model.HistorySample `json:"samples"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, RunFile), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, ConfigFile), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, HistoryJSONFile), historyDocument{
		InitialFitness:   artifacts.InitialFitness,
		FinalBestFitness: artifacts.FinalBestFitness,
		Iterations:       artifacts.Iterations,
		Improving:        artifacts.Improving,
		Annealed:         artifacts.Annealed,
		Samples:          artifacts.History,
	}); err != nil {
		return "", err
	}
	if err := WriteHistoryCSV(filepath.Join(runDir, HistoryCSVFile), artifacts.History); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, BestPolygonsFile), artifacts.Best); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, MutationsFile), artifacts.Mutations); err != nil {
		return "", err
	}
	if len(artifacts.History) > 1 {
		title := fmt.Sprintf("%s (%d polygons)", artifacts.Config.RunID, artifacts.Config.PolygonCount)
		if err := WriteFitnessPlot(filepath.Join(runDir, HistoryPlotFile), title, artifacts.History); err != nil {
			return "", err
		}
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns indexed runs newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

// ExportRunArtifacts copies a run's artifacts into outDir/<runID>. The plot
// is optional since short runs do not produce one.
func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	files := []string{RunFile, ConfigFile, HistoryJSONFile, HistoryCSVFile, BestPolygonsFile, MutationsFile}
	for _, file := range files {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	plotPath := filepath.Join(src, HistoryPlotFile)
	if _, err := os.Stat(plotPath); err == nil {
		if err := copyFile(plotPath, filepath.Join(dst, HistoryPlotFile)); err != nil {
			return "", err
		}
	} else if !os.IsNotExist(err) {
		return "", err
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	var cfg RunConfig
	ok, err := readJSON(filepath.Join(baseDir, runID, ConfigFile), &cfg)
	if err != nil || !ok {
		return RunConfig{}, ok, err
	}
	return cfg, true, nil
}

func WriteRunConfig(baseDir, runID string, cfg RunConfig) error {
	if strings.TrimSpace(runID) == "" {
		return fmt.Errorf("run id is required")
	}
	if strings.TrimSpace(cfg.RunID) == "" {
		cfg.RunID = strings.TrimSpace(runID)
	}
	if cfg.RunID != strings.TrimSpace(runID) {
		return fmt.Errorf("run config run id mismatch: got=%s want=%s", cfg.RunID, strings.TrimSpace(runID))
	}
	runDir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return err
	}
	return writeJSON(filepath.Join(runDir, ConfigFile), cfg)
}

func ReadRunRecord(baseDir, runID string) (model.RunRecord, bool, error) {
	var run model.RunRecord
	ok, err := readJSON(filepath.Join(baseDir, runID, RunFile), &run)
	if err != nil || !ok {
		return model.RunRecord{}, ok, err
	}
	return run, true, nil
}

func ReadBestPolygons(baseDir, runID string) (model.PolygonSet, bool, error) {
	var set model.PolygonSet
	ok, err := readJSON(filepath.Join(baseDir, runID, BestPolygonsFile), &set)
	if err != nil || !ok {
		return model.PolygonSet{}, ok, err
	}
	return set, true, nil
}

func ReadMutationStats(baseDir, runID string) ([]MutationCount, bool, error) {
	var counts []MutationCount
	ok, err := readJSON(filepath.Join(baseDir, runID, MutationsFile), &counts)
	if err != nil || !ok {
		return nil, ok, err
	}
	return counts, true, nil
}

func readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
