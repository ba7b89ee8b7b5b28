package evo

import (
	"errors"
	"reflect"
	"testing"

	"evovec/internal/genotype"
	"evovec/internal/model"
)

func TestRandomMutationTouchesAtMostOnePolygon(t *testing.T) {
	vertices := genotype.VertexRange{Min: 3, Max: 8}
	src := genotype.NewSource(21)
	set, err := genotype.Construct(src, 40, 30, 12, vertices)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	mutator, err := NewRandomMutation(src, vertices)
	if err != nil {
		t.Fatalf("new mutator: %v", err)
	}

	for i := 0; i < 2000; i++ {
		before := genotype.Clone(set)
		mutation, err := mutator.Mutate(&set)
		if err != nil {
			t.Fatalf("mutate %d: %v", i, err)
		}
		changed := changedPolygons(before, set)
		if len(changed) > 1 {
			t.Fatalf("mutation %d changed polygons %v", i, changed)
		}
		if len(changed) == 1 && changed[0] != mutation.Polygon {
			t.Fatalf("mutation %d reported polygon %d but changed %d", i, mutation.Polygon, changed[0])
		}
		if err := genotype.Validate(set, vertices); err != nil {
			t.Fatalf("mutation %d broke invariants: %v", i, err)
		}
	}
}

func TestRandomMutationIsReproducible(t *testing.T) {
	run := func() (model.PolygonSet, []Mutation) {
		vertices := genotype.DefaultVertexRange()
		src := genotype.NewSource(99)
		set, err := genotype.Construct(src, 25, 25, 6, vertices)
		if err != nil {
			t.Fatalf("construct: %v", err)
		}
		mutator, err := NewRandomMutation(src, vertices)
		if err != nil {
			t.Fatalf("new mutator: %v", err)
		}
		var trace []Mutation
		for i := 0; i < 300; i++ {
			m, err := mutator.Mutate(&set)
			if err != nil {
				t.Fatalf("mutate: %v", err)
			}
			trace = append(trace, m)
		}
		return set, trace
	}

	setA, traceA := run()
	setB, traceB := run()
	if !reflect.DeepEqual(traceA, traceB) {
		t.Fatal("mutation traces differ for equal seeds")
	}
	if !reflect.DeepEqual(setA, setB) {
		t.Fatal("mutated sets differ for equal seeds")
	}
}

func TestRandomMutationOnCloneLeavesOriginal(t *testing.T) {
	vertices := genotype.VertexRange{Min: 3, Max: 9}
	src := genotype.NewSource(4)
	original, err := genotype.Construct(src, 16, 16, 5, vertices)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	snapshot := genotype.Clone(original)
	mutator, err := NewRandomMutation(src, vertices)
	if err != nil {
		t.Fatalf("new mutator: %v", err)
	}

	candidate := genotype.Clone(original)
	for i := 0; i < 500; i++ {
		if _, err := mutator.Mutate(&candidate); err != nil {
			t.Fatalf("mutate: %v", err)
		}
	}
	if !reflect.DeepEqual(original, snapshot) {
		t.Fatal("mutating a clone changed the original set")
	}
}

func TestChangeColorBumpsZeroAlpha(t *testing.T) {
	set := squareSet(4, 4)
	// channel 3 (alpha), value 0
	op := &ChangeColor{Rand: &scriptedSource{ints: []int{3, 0}}}
	applied, err := op.Apply(&set, 1)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !applied {
		t.Fatal("expected color change to apply")
	}
	if got := set.Polygons[1].Color.A; got != 1 {
		t.Fatalf("expected alpha 1, got %d", got)
	}
	if set.Polygons[0].Color != (model.Color{R: 10, G: 20, B: 30, A: 255}) {
		t.Fatal("unexpected change to neighbouring polygon")
	}
}

func TestChangeColorRedrawsChosenChannel(t *testing.T) {
	set := squareSet(4, 4)
	op := &ChangeColor{Rand: &scriptedSource{ints: []int{1, 77}}}
	if _, err := op.Apply(&set, 0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := model.Color{R: 10, G: 77, B: 30, A: 255}
	if set.Polygons[0].Color != want {
		t.Fatalf("color: got=%+v want=%+v", set.Polygons[0].Color, want)
	}
}

func TestMoveVertexStaysInBounds(t *testing.T) {
	set := squareSet(5, 3)
	// vertex 2, x=4, y=2
	op := &MoveVertex{Rand: &scriptedSource{ints: []int{2, 4, 2}}}
	if _, err := op.Apply(&set, 0); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := set.Polygons[0].Vertices[2]; got != (model.Vertex{X: 4, Y: 2}) {
		t.Fatalf("vertex: got=%+v", got)
	}
}

func TestChangeTopologyRespectsVertexRange(t *testing.T) {
	cases := []struct {
		name    string
		coin    int
		min     int
		max     int
		want    int
		applied bool
	}{
		{name: "add below max", coin: 0, min: 3, max: 6, want: 5, applied: true},
		{name: "add at max", coin: 0, min: 3, max: 4, want: 4, applied: false},
		{name: "remove above min", coin: 1, min: 3, max: 6, want: 3, applied: true},
		{name: "remove at min", coin: 1, min: 4, max: 6, want: 4, applied: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set := squareSet(4, 4)
			original := genotype.ClonePolygon(set.Polygons[0])
			ints := []int{tc.coin}
			if tc.applied && tc.coin == 0 {
				ints = append(ints, 1, 2)
			}
			op := &ChangeTopology{Rand: &scriptedSource{ints: ints}, Vertices: genotype.VertexRange{Min: tc.min, Max: tc.max}}
			applied, err := op.Apply(&set, 0)
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if applied != tc.applied {
				t.Fatalf("applied: got=%v want=%v", applied, tc.applied)
			}
			got := set.Polygons[0].Vertices
			if len(got) != tc.want {
				t.Fatalf("vertex count: got=%d want=%d", len(got), tc.want)
			}
			for i := 0; i < len(got) && i < len(original.Vertices); i++ {
				if got[i] != original.Vertices[i] {
					t.Fatalf("existing vertex %d changed", i)
				}
			}
			if tc.applied && tc.coin == 0 && got[len(got)-1] != (model.Vertex{X: 1, Y: 2}) {
				t.Fatalf("appended vertex: got=%+v", got[len(got)-1])
			}
		})
	}
}

func TestMutateRejectsInvalidInput(t *testing.T) {
	mutator, err := NewRandomMutation(genotype.NewSource(1), genotype.DefaultVertexRange())
	if err != nil {
		t.Fatalf("new mutator: %v", err)
	}
	if _, err := mutator.Mutate(&model.PolygonSet{Width: 2, Height: 2}); !errors.Is(err, ErrEmptySet) {
		t.Fatalf("expected empty set error, got %v", err)
	}
	if _, err := NewRandomMutation(nil, genotype.DefaultVertexRange()); !errors.Is(err, genotype.ErrRandomSourceRequired) {
		t.Fatalf("expected random source error, got %v", err)
	}
	if _, err := NewRandomMutation(genotype.NewSource(1), genotype.VertexRange{Min: 1, Max: 2}); err == nil {
		t.Fatal("expected vertex range error")
	}

	set := squareSet(4, 4)
	if _, err := (&MoveVertex{Rand: genotype.NewSource(1)}).Apply(&set, 5); !errors.Is(err, ErrPolygonIndex) {
		t.Fatalf("expected index error, got %v", err)
	}
	if _, err := (&ChangeColor{}).Apply(&set, 0); !errors.Is(err, genotype.ErrRandomSourceRequired) {
		t.Fatalf("expected random source error, got %v", err)
	}
}
