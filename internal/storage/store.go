package storage

import (
	"context"

	"evovec/internal/model"
)

// Store persists annealing runs: the run summary, the best polygon set and
// the sampled fitness trace.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SavePolygonSet(ctx context.Context, runID string, set model.PolygonSet) error
	GetPolygonSet(ctx context.Context, runID string) (model.PolygonSet, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []model.HistorySample) error
	GetFitnessHistory(ctx context.Context, runID string) ([]model.HistorySample, bool, error)
}
