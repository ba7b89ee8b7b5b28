package render

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"evovec/internal/model"
)

// GGRenderer paints through the gogpu/gg software context.
type GGRenderer struct{}

func (GGRenderer) Rasterize(set model.PolygonSet) (*image.NRGBA, error) {
	if err := checkSize(BackendGG, set); err != nil {
		return nil, err
	}
	dc := gg.NewContext(set.Width, set.Height)
	defer dc.Close()
	dc.SetFillRule(gg.FillRuleNonZero)

	for i, polygon := range set.Polygons {
		start, ok := pathStart(polygon)
		if !ok {
			continue
		}
		c := polygon.Color
		dc.SetRGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255)
		dc.MoveTo(float64(start.X), float64(start.Y))
		for _, v := range polygon.Vertices {
			dc.LineTo(float64(v.X), float64(v.Y))
		}
		dc.ClosePath()
		if err := dc.Fill(); err != nil {
			return nil, &model.RenderError{Backend: BackendGG, Err: fmt.Errorf("fill polygon %d: %w", i, err)}
		}
	}

	rgba, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, &model.RenderError{Backend: BackendGG, Err: fmt.Errorf("unexpected surface type %T", dc.Image())}
	}
	// Image() is premultiplied; draw.Src into NRGBA un-premultiplies.
	out := image.NewNRGBA(rgba.Rect)
	draw.Draw(out, out.Rect, rgba, rgba.Rect.Min, draw.Src)
	return out, nil
}
