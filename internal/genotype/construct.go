package genotype

import (
	"errors"
	"fmt"

	"evovec/internal/model"
)

const (
	DefaultPolygonCount = 50
	DefaultMinVertices  = 6
	DefaultMaxVertices  = 10
)

var (
	ErrRandomSourceRequired = errors.New("random source is required")
	ErrInvalidBounds        = errors.New("image bounds must be > 0")
	ErrInvalidPolygonCount  = errors.New("polygon count must be > 0")
)

// VertexRange bounds the vertex count of every polygon. Min is never below
// model.MinPolygonVertices.
type VertexRange struct {
	Min int
	Max int
}

func DefaultVertexRange() VertexRange {
	return VertexRange{Min: DefaultMinVertices, Max: DefaultMaxVertices}
}

func (r VertexRange) Validate() error {
	if r.Min < model.MinPolygonVertices {
		return fmt.Errorf("min vertices must be >= %d: got %d", model.MinPolygonVertices, r.Min)
	}
	if r.Max < r.Min {
		return fmt.Errorf("max vertices must be >= min vertices: got max=%d min=%d", r.Max, r.Min)
	}
	return nil
}

// Contains reports whether n is an allowed vertex count.
func (r VertexRange) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// initialCount draws from [Min, Max), or returns Min when the range is a
// single value.
func (r VertexRange) initialCount(src Source) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + src.Intn(r.Max-r.Min)
}

// Construct builds a random polygon set covering a width x height image.
func Construct(src Source, width, height, count int, vertices VertexRange) (model.PolygonSet, error) {
	if src == nil {
		return model.PolygonSet{}, ErrRandomSourceRequired
	}
	if width <= 0 || height <= 0 {
		return model.PolygonSet{}, fmt.Errorf("%w: got %dx%d", ErrInvalidBounds, width, height)
	}
	if count <= 0 {
		return model.PolygonSet{}, fmt.Errorf("%w: got %d", ErrInvalidPolygonCount, count)
	}
	if err := vertices.Validate(); err != nil {
		return model.PolygonSet{}, err
	}

	set := model.PolygonSet{
		Width:    width,
		Height:   height,
		Polygons: make([]model.Polygon, count),
	}
	for i := range set.Polygons {
		n := vertices.initialCount(src)
		polygon := model.Polygon{Vertices: make([]model.Vertex, n)}
		for j := range polygon.Vertices {
			polygon.Vertices[j] = RandomVertex(src, width, height)
		}
		polygon.Color = RandomColor(src)
		set.Polygons[i] = polygon
	}
	return set, nil
}

// RandomVertex draws a vertex uniformly inside [0,width) x [0,height).
func RandomVertex(src Source, width, height int) model.Vertex {
	return model.Vertex{
		X: Between(src, 0, width-1),
		Y: Between(src, 0, height-1),
	}
}

// RandomColor draws all four channels uniformly and keeps alpha >= 1.
func RandomColor(src Source) model.Color {
	c := model.Color{
		R: randomChannel(src),
		G: randomChannel(src),
		B: randomChannel(src),
		A: randomChannel(src),
	}
	return c.Visible()
}

// Validate checks the structural invariants of a set against a vertex range.
func Validate(set model.PolygonSet, vertices VertexRange) error {
	if set.Width <= 0 || set.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidBounds, set.Width, set.Height)
	}
	if len(set.Polygons) == 0 {
		return ErrInvalidPolygonCount
	}
	for i, polygon := range set.Polygons {
		if len(polygon.Vertices) < model.MinPolygonVertices {
			return fmt.Errorf("polygon %d has %d vertices", i, len(polygon.Vertices))
		}
		if vertices.Max > 0 && !vertices.Contains(len(polygon.Vertices)) {
			return fmt.Errorf("polygon %d vertex count %d outside [%d, %d]", i, len(polygon.Vertices), vertices.Min, vertices.Max)
		}
		if polygon.Color.A == 0 {
			return fmt.Errorf("polygon %d is fully transparent", i)
		}
		for j, v := range polygon.Vertices {
			if v.X < 0 || v.X >= set.Width || v.Y < 0 || v.Y >= set.Height {
				return fmt.Errorf("polygon %d vertex %d out of bounds: (%d,%d)", i, j, v.X, v.Y)
			}
		}
	}
	return nil
}
