package render

import (
	"fmt"
	"image"
	"strings"

	"evovec/internal/model"
)

const (
	BackendGG     = "gg"
	BackendVector = "vector"
)

// Renderer rasterizes a polygon set onto a transparent width x height
// surface. Polygons are painted in order with source-over blending and filled
// with the non-zero winding rule. The result is non-premultiplied with stride
// 4*width.
type Renderer interface {
	Rasterize(set model.PolygonSet) (*image.NRGBA, error)
}

// NewRenderer returns the backend registered under kind.
func NewRenderer(kind string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", BackendGG:
		return GGRenderer{}, nil
	case BackendVector:
		return VectorRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported renderer backend: %s", kind)
	}
}

func checkSize(backend string, set model.PolygonSet) error {
	if set.Width <= 0 || set.Height <= 0 {
		return &model.RenderError{Backend: backend, Err: fmt.Errorf("invalid surface size %dx%d", set.Width, set.Height)}
	}
	return nil
}

// pathStart is the vertex a closed path is opened from; the first edge then
// runs from the last vertex to the first.
func pathStart(p model.Polygon) (model.Vertex, bool) {
	if len(p.Vertices) == 0 {
		return model.Vertex{}, false
	}
	return p.Vertices[len(p.Vertices)-1], true
}
