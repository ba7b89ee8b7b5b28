package storage

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"evovec/internal/model"
)

func TestDecodeRunFixture(t *testing.T) {
	data := readFixture(t, "run_record_v1.json")
	run, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if run.ID != "20260101-000000-fixture" || run.Iterations != 4 || run.BestFitness != 1200 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.FinalTemperature != 0.625 || run.Renderer != "gg" {
		t.Fatalf("unexpected run settings: %+v", run)
	}
}

func TestDecodePolygonSetFixture(t *testing.T) {
	set, err := DecodePolygonSet(readFixture(t, "polygon_set_v1.json"))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if set.Width != 4 || set.Height != 3 || len(set.Polygons) != 1 {
		t.Fatalf("unexpected set: %+v", set)
	}
	want := model.Color{R: 12, G: 34, B: 56, A: 78}
	if set.Polygons[0].Color != want || len(set.Polygons[0].Vertices) != 3 {
		t.Fatalf("unexpected polygon: %+v", set.Polygons[0])
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	if _, err := DecodePolygonSet(readFixture(t, "polygon_set_v0.json")); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
	if _, err := DecodeRun([]byte(`{"id":"x"}`)); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got %v", err)
	}
}

func TestPolygonSetCodecRoundTrip(t *testing.T) {
	set := model.PolygonSet{
		VersionedRecord: CurrentVersion(),
		Width:           5,
		Height:          5,
		Polygons: []model.Polygon{
			{Vertices: []model.Vertex{{X: 1, Y: 1}, {X: 4, Y: 1}, {X: 4, Y: 4}, {X: 1, Y: 4}}, Color: model.Color{R: 1, G: 2, B: 3, A: 4}},
		},
	}
	data, err := EncodePolygonSet(set)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodePolygonSet(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, set) {
		t.Fatalf("round trip mismatch: got=%+v want=%+v", decoded, set)
	}
}

func TestSortRuns(t *testing.T) {
	runs := []model.RunRecord{
		{ID: "b", CreatedAtUTC: "2026-01-02T00:00:00Z"},
		{ID: "c", CreatedAtUTC: "2026-01-01T00:00:00Z"},
		{ID: "a", CreatedAtUTC: "2026-01-02T00:00:00Z"},
	}
	SortRuns(runs)
	got := []string{runs[0].ID, runs[1].ID, runs[2].ID}
	if !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Fatalf("unexpected order: %v", got)
	}
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()

	data, err := os.ReadFile(fixturePath(name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

func fixturePath(name string) string {
	return filepath.Join("..", "..", "testdata", "fixtures", name)
}
