package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"evovec/internal/model"
)

// VectorRenderer uses the golang.org/x/image/vector coverage rasterizer.
type VectorRenderer struct{}

func (VectorRenderer) Rasterize(set model.PolygonSet) (*image.NRGBA, error) {
	if err := checkSize(BackendVector, set); err != nil {
		return nil, err
	}
	bounds := image.Rect(0, 0, set.Width, set.Height)
	canvas := image.NewRGBA(bounds)
	z := vector.NewRasterizer(set.Width, set.Height)

	for _, polygon := range set.Polygons {
		start, ok := pathStart(polygon)
		if !ok {
			continue
		}
		z.Reset(set.Width, set.Height)
		z.DrawOp = draw.Over
		z.MoveTo(float32(start.X), float32(start.Y))
		for _, v := range polygon.Vertices {
			z.LineTo(float32(v.X), float32(v.Y))
		}
		z.ClosePath()
		c := polygon.Color
		src := image.NewUniform(color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A})
		z.Draw(canvas, bounds, src, image.Point{})
	}

	out := image.NewNRGBA(bounds)
	draw.Draw(out, bounds, canvas, image.Point{}, draw.Src)
	return out, nil
}
