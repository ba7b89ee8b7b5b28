package snapshot

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"evovec/internal/model"
	"evovec/internal/render"
)

const (
	DefaultRasterEvery = 1000
	DefaultVectorEvery = 10000

	FinalRasterName = "final.png"
	FinalVectorName = "final.svg"
)

// Policy decides which iterations produce snapshot files of the best set.
// An interval of 0 disables that snapshot kind.
type Policy struct {
	Dir         string
	RasterEvery int
	VectorEvery int
	Renderer    render.Renderer
	Logger      *slog.Logger

	written []string
}

func (p *Policy) Validate() error {
	if p.Dir == "" {
		return errors.New("snapshot directory is required")
	}
	if p.RasterEvery < 0 || p.VectorEvery < 0 {
		return fmt.Errorf("snapshot intervals must be >= 0: raster=%d vector=%d", p.RasterEvery, p.VectorEvery)
	}
	if p.Renderer == nil {
		return errors.New("snapshot renderer is required")
	}
	return nil
}

func (p *Policy) RasterDue(iteration int) bool {
	return p.RasterEvery > 0 && iteration%p.RasterEvery == 0
}

func (p *Policy) VectorDue(iteration int) bool {
	return p.VectorEvery > 0 && iteration%p.VectorEvery == 0
}

// Due reports whether Observe would write anything for iteration.
func (p *Policy) Due(iteration int) bool {
	return p.RasterDue(iteration) || p.VectorDue(iteration)
}

// Observe writes the snapshots scheduled for iteration.
func (p *Policy) Observe(iteration int, best model.PolygonSet) error {
	if p.RasterDue(iteration) {
		if err := p.writeRaster(RasterName(iteration), best); err != nil {
			return err
		}
	}
	if p.VectorDue(iteration) {
		if err := p.writeVector(VectorName(iteration), best); err != nil {
			return err
		}
	}
	return nil
}

// Final writes final.png and final.svg regardless of the intervals.
func (p *Policy) Final(best model.PolygonSet) error {
	if err := p.writeRaster(FinalRasterName, best); err != nil {
		return err
	}
	return p.writeVector(FinalVectorName, best)
}

// Written lists the files produced so far, in write order.
func (p *Policy) Written() []string {
	return append([]string(nil), p.written...)
}

func RasterName(iteration int) string {
	return fmt.Sprintf("%07d.png", iteration)
}

func VectorName(iteration int) string {
	return fmt.Sprintf("%07d.svg", iteration)
}

func (p *Policy) writeRaster(name string, best model.PolygonSet) error {
	img, err := p.Renderer.Rasterize(best)
	if err != nil {
		return err
	}
	path := filepath.Join(p.Dir, name)
	if err := render.WritePNG(path, img); err != nil {
		return fmt.Errorf("write raster snapshot: %w", err)
	}
	p.record(path)
	return nil
}

func (p *Policy) writeVector(name string, best model.PolygonSet) error {
	path := filepath.Join(p.Dir, name)
	if err := render.WriteSVG(path, best); err != nil {
		return fmt.Errorf("write vector snapshot: %w", err)
	}
	p.record(path)
	return nil
}

func (p *Policy) record(path string) {
	p.written = append(p.written, path)
	p.logger().Debug("snapshot written", "path", path)
}

func (p *Policy) logger() *slog.Logger {
	if p.Logger == nil {
		p.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.Logger
}
