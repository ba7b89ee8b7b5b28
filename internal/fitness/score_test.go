package fitness

import (
	"context"
	"errors"
	"image"
	"math/rand"
	"testing"

	"evovec/internal/model"
	"evovec/internal/render"
)

func TestScoreBasics(t *testing.T) {
	a := []byte{0, 10, 255, 7}
	b := []byte{3, 10, 250, 7}

	ab, err := Score(a, b)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if ab != 9+25 {
		t.Fatalf("score: got=%d want=34", ab)
	}
	ba, err := Score(b, a)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if ab != ba {
		t.Fatalf("score not symmetric: %d vs %d", ab, ba)
	}
	if same, _ := Score(a, a); same != 0 {
		t.Fatalf("self score: got=%d want=0", same)
	}
}

func TestScoreMonotonicInDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	ref := make([]byte, 64)
	rng.Read(ref)
	cand := append([]byte(nil), ref...)

	prev, _ := Score(ref, cand)
	for i := range cand {
		if ref[i] < 255 {
			cand[i] = 255
		} else {
			cand[i] = 0
		}
		next, err := Score(ref, cand)
		if err != nil {
			t.Fatalf("score: %v", err)
		}
		if next <= prev {
			t.Fatalf("score did not grow at byte %d: %d <= %d", i, next, prev)
		}
		prev = next
	}
}

func TestScoreSaturates(t *testing.T) {
	// Overflowing through real buffers needs ~2^48 bytes; check the adder directly.
	ref := make([]byte, 4)
	cand := []byte{255, 255, 255, 255}
	got, err := Score(ref, cand)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if got != 4*65025 {
		t.Fatalf("score: got=%d", got)
	}
	if sat := saturatingAdd(Max-10, 65025); sat != Max {
		t.Fatalf("expected saturation, got %d", sat)
	}
	if sum := saturatingAdd(1, 2); sum != 3 {
		t.Fatalf("plain add: got %d", sum)
	}
}

func TestScoreRejectsBadBuffers(t *testing.T) {
	if _, err := Score(nil, []byte{1}); !errors.Is(err, ErrMissingBuffer) {
		t.Fatalf("expected missing buffer, got %v", err)
	}
	if _, err := Score([]byte{1}, []byte{1, 2}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected length mismatch, got %v", err)
	}
}

type fixedRenderer struct {
	img *image.NRGBA
	err error
}

func (r fixedRenderer) Rasterize(model.PolygonSet) (*image.NRGBA, error) {
	return r.img, r.err
}

func TestEvaluatorBlackSquareMatchesExactly(t *testing.T) {
	ref := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 3; i < len(ref.Pix); i += 4 {
		ref.Pix[i] = 255
	}
	set := model.PolygonSet{
		Width:  2,
		Height: 2,
		Polygons: []model.Polygon{{
			Vertices: []model.Vertex{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}},
			Color:    model.Color{A: 255},
		}},
	}

	for _, r := range []render.Renderer{render.GGRenderer{}, render.VectorRenderer{}} {
		eval, err := NewEvaluator(ref, r)
		if err != nil {
			t.Fatalf("%T: new evaluator: %v", r, err)
		}
		got, err := eval.Evaluate(context.Background(), set)
		if err != nil {
			t.Fatalf("%T: evaluate: %v", r, err)
		}
		if got != 0 {
			t.Fatalf("%T: fitness: got=%d want=0", r, got)
		}
	}
}

func TestEvaluatorComparesStraightAlpha(t *testing.T) {
	ref := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(ref.Pix); i += 4 {
		copy(ref.Pix[i:i+4], []byte{200, 100, 50, 128})
	}
	set := model.PolygonSet{
		Width:  2,
		Height: 2,
		Polygons: []model.Polygon{{
			Vertices: []model.Vertex{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}},
			Color:    model.Color{R: 200, G: 100, B: 50, A: 128},
		}},
	}

	// Rounding may cost a couple of units per channel; premultiplied output
	// would be off by roughly 100 on red alone.
	const limit = 4 * 4 * 3 * 3
	for _, r := range []render.Renderer{render.GGRenderer{}, render.VectorRenderer{}} {
		eval, err := NewEvaluator(ref, r)
		if err != nil {
			t.Fatalf("%T: new evaluator: %v", r, err)
		}
		got, err := eval.Evaluate(context.Background(), set)
		if err != nil {
			t.Fatalf("%T: evaluate: %v", r, err)
		}
		if got > limit {
			t.Fatalf("%T: fitness: got=%d want <= %d", r, got, limit)
		}
	}
}

func TestEvaluatorRejectsLayoutMismatch(t *testing.T) {
	ref := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	eval, err := NewEvaluator(ref, fixedRenderer{img: image.NewNRGBA(image.Rect(0, 0, 3, 2))})
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	if _, err := eval.Evaluate(context.Background(), model.PolygonSet{Width: 2, Height: 2}); !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}

	boom := errors.New("no surface")
	eval, _ = NewEvaluator(ref, fixedRenderer{err: boom})
	if _, err := eval.Evaluate(context.Background(), model.PolygonSet{}); !errors.Is(err, boom) {
		t.Fatalf("expected renderer error, got %v", err)
	}
}
