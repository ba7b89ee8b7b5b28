package evo

import (
	"fmt"

	"evovec/internal/model"
)

// scriptedSource replays fixed draws so tests can steer every random choice.
type scriptedSource struct {
	ints   []int
	floats []float64
}

func (s *scriptedSource) Intn(n int) int {
	if len(s.ints) == 0 {
		panic("scripted source ran out of ints")
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v < 0 || v >= n {
		panic(fmt.Sprintf("scripted int %d outside [0,%d)", v, n))
	}
	return v
}

func (s *scriptedSource) Float64() float64 {
	if len(s.floats) == 0 {
		panic("scripted source ran out of floats")
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func squareSet(width, height int) model.PolygonSet {
	return model.PolygonSet{
		Width:  width,
		Height: height,
		Polygons: []model.Polygon{
			{
				Vertices: []model.Vertex{{X: 0, Y: 0}, {X: width - 1, Y: 0}, {X: width - 1, Y: height - 1}, {X: 0, Y: height - 1}},
				Color:    model.Color{R: 10, G: 20, B: 30, A: 255},
			},
			{
				Vertices: []model.Vertex{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 2}},
				Color:    model.Color{R: 200, G: 100, B: 50, A: 128},
			},
		},
	}
}

func changedPolygons(a, b model.PolygonSet) []int {
	var changed []int
	for i := range a.Polygons {
		pa, pb := a.Polygons[i], b.Polygons[i]
		if pa.Color != pb.Color || len(pa.Vertices) != len(pb.Vertices) {
			changed = append(changed, i)
			continue
		}
		for j := range pa.Vertices {
			if pa.Vertices[j] != pb.Vertices[j] {
				changed = append(changed, i)
				break
			}
		}
	}
	return changed
}
