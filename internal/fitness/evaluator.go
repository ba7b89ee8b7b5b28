package fitness

import (
	"context"
	"errors"
	"fmt"
	"image"

	"evovec/internal/model"
	"evovec/internal/render"
)

var ErrDimensionMismatch = errors.New("rendering does not match reference layout")

// Evaluator scores polygon sets against a fixed reference image.
type Evaluator struct {
	reference *image.NRGBA
	renderer  render.Renderer
}

func NewEvaluator(reference *image.NRGBA, renderer render.Renderer) (*Evaluator, error) {
	if reference == nil {
		return nil, ErrMissingBuffer
	}
	if renderer == nil {
		return nil, errors.New("renderer is required")
	}
	return &Evaluator{reference: reference, renderer: renderer}, nil
}

// Evaluate renders set and returns its distance to the reference.
func (e *Evaluator) Evaluate(ctx context.Context, set model.PolygonSet) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	img, err := e.renderer.Rasterize(set)
	if err != nil {
		return 0, err
	}
	ref := e.reference
	if img.Rect.Dx() != ref.Rect.Dx() || img.Rect.Dy() != ref.Rect.Dy() || img.Stride != ref.Stride {
		return 0, fmt.Errorf("%w: got %dx%d stride %d want %dx%d stride %d",
			ErrDimensionMismatch,
			img.Rect.Dx(), img.Rect.Dy(), img.Stride,
			ref.Rect.Dx(), ref.Rect.Dy(), ref.Stride,
		)
	}
	return Score(ref.Pix, img.Pix)
}
