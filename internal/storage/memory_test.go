package storage

import (
	"context"
	"testing"

	"evovec/internal/model"
)

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, run := range []model.RunRecord{
		{VersionedRecord: CurrentVersion(), ID: "run-2", CreatedAtUTC: "2026-03-02T00:00:00Z", BestFitness: 10},
		{VersionedRecord: CurrentVersion(), ID: "run-1", CreatedAtUTC: "2026-03-01T00:00:00Z", BestFitness: 20},
	} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run: %v", err)
		}
	}

	run, ok, err := store.GetRun(ctx, "run-2")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok || run.BestFitness != 10 {
		t.Fatalf("unexpected run: ok=%t run=%+v", ok, run)
	}
	if _, ok, _ := store.GetRun(ctx, "missing"); ok {
		t.Fatal("expected missing run")
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-1" || runs[1].ID != "run-2" {
		t.Fatalf("unexpected run order: %+v", runs)
	}
}

func TestMemoryStorePolygonSetIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	set := model.PolygonSet{
		VersionedRecord: CurrentVersion(),
		Width:           3,
		Height:          3,
		Polygons: []model.Polygon{{
			Vertices: []model.Vertex{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}},
			Color:    model.Color{R: 9, A: 9},
		}},
	}
	if err := store.SavePolygonSet(ctx, "run-1", set); err != nil {
		t.Fatalf("save set: %v", err)
	}
	set.Polygons[0].Vertices[0].X = 1

	loaded, ok, err := store.GetPolygonSet(ctx, "run-1")
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted set")
	}
	if loaded.Polygons[0].Vertices[0].X != 0 {
		t.Fatal("stored set must not alias the caller's vertices")
	}
	loaded.Polygons[0].Color.R = 100
	again, _, _ := store.GetPolygonSet(ctx, "run-1")
	if again.Polygons[0].Color.R != 9 {
		t.Fatal("loaded set must not alias the stored set")
	}
}

func TestMemoryStoreFitnessHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := []model.HistorySample{
		{Iteration: 0, Temperature: 10, Current: 300, Best: 300},
		{Iteration: 4, Temperature: 0.625, Current: 200, Best: 150, Improving: 2, Annealed: 1},
	}
	if err := store.SaveFitnessHistory(ctx, "run-1", input); err != nil {
		t.Fatalf("save history: %v", err)
	}
	output, ok, err := store.GetFitnessHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted fitness history")
	}
	if len(output) != len(input) || output[1] != input[1] {
		t.Fatalf("unexpected history: %+v", output)
	}
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveRun(context.Background(), model.RunRecord{ID: "x"}); err == nil {
		t.Fatal("expected error before init")
	}
}
