package render

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	svg "github.com/ajstarks/svgo"

	"evovec/internal/model"
)

func WritePNG(path string, img image.Image) error {
	return writeFile(path, func(w io.Writer) error {
		return png.Encode(w, img)
	})
}

func WriteSVG(path string, set model.PolygonSet) error {
	return writeFile(path, func(w io.Writer) error {
		return EncodeSVG(w, set)
	})
}

// EncodeSVG writes set as an SVG document with one filled polygon element
// per polygon, in paint order.
func EncodeSVG(w io.Writer, set model.PolygonSet) error {
	bw := bufio.NewWriter(w)
	canvas := svg.New(bw)
	canvas.Start(set.Width, set.Height)
	for _, polygon := range set.Polygons {
		if len(polygon.Vertices) == 0 {
			continue
		}
		xs := make([]int, len(polygon.Vertices))
		ys := make([]int, len(polygon.Vertices))
		for i, v := range polygon.Vertices {
			xs[i], ys[i] = v.X, v.Y
		}
		canvas.Polygon(xs, ys, fillStyle(polygon.Color))
	}
	canvas.End()
	return bw.Flush()
}

func fillStyle(c model.Color) string {
	return fmt.Sprintf("fill:rgb(%d,%d,%d);fill-opacity:%.4f;fill-rule:nonzero", c.R, c.G, c.B, float64(c.A)/255)
}

func writeFile(path string, encode func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
