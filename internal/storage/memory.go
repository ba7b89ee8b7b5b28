package storage

import (
	"context"
	"errors"
	"sync"

	"evovec/internal/genotype"
	"evovec/internal/model"
)

var errNotInitialized = errors.New("store is not initialized")

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunRecord
	sets        map[string]model.PolygonSet
	history     map[string][]model.HistorySample
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunRecord)
	s.sets = make(map[string]model.PolygonSet)
	s.history = make(map[string][]model.HistorySample)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunRecord, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	SortRuns(runs)
	return runs, nil
}

func (s *MemoryStore) SavePolygonSet(_ context.Context, runID string, set model.PolygonSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.sets[runID] = genotype.Clone(set)
	return nil
}

func (s *MemoryStore) GetPolygonSet(_ context.Context, runID string) (model.PolygonSet, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[runID]
	if !ok {
		return model.PolygonSet{}, false, nil
	}
	return genotype.Clone(set), true, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []model.HistorySample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errNotInitialized
	}
	s.history[runID] = append([]model.HistorySample(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]model.HistorySample, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]model.HistorySample(nil), history...), true, nil
}
