package model

import (
	"errors"
	"testing"
)

func TestColorWithChannelKeepsAlphaVisible(t *testing.T) {
	c := Color{R: 10, G: 20, B: 30, A: 40}

	if got := c.WithChannel(3, 0); got.A != 1 {
		t.Fatalf("expected alpha bumped to 1, got %d", got.A)
	}
	if got := c.WithChannel(0, 0); got.R != 0 || got.A != 40 {
		t.Fatalf("unexpected color after red change: %+v", got)
	}
	for i, want := range []uint8{10, 20, 30, 40} {
		if got := c.Channel(i); got != want {
			t.Fatalf("channel %d: got=%d want=%d", i, got, want)
		}
	}
}

func TestPolygonSetVertexCount(t *testing.T) {
	set := PolygonSet{
		Width:  4,
		Height: 4,
		Polygons: []Polygon{
			{Vertices: make([]Vertex, 3)},
			{Vertices: make([]Vertex, 7)},
		},
	}
	if got := set.VertexCount(); got != 10 {
		t.Fatalf("vertex count: got=%d want=10", got)
	}
}

func TestErrorKindsUnwrap(t *testing.T) {
	cause := errors.New("boom")
	cases := []error{
		&ConfigurationError{Field: "cooling", Err: cause},
		&InputError{Path: "in.png", Err: cause},
		&RenderError{Backend: "gg", Err: cause},
	}
	for _, err := range cases {
		if !errors.Is(err, cause) {
			t.Fatalf("expected %T to unwrap to cause", err)
		}
		if err.Error() == "" {
			t.Fatalf("expected message for %T", err)
		}
	}

	var cfgErr *ConfigurationError
	if !errors.As(error(&ConfigurationError{Err: cause}), &cfgErr) {
		t.Fatal("expected errors.As to match ConfigurationError")
	}
}
