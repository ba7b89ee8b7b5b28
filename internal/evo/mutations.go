package evo

import (
	"errors"
	"fmt"

	"evovec/internal/genotype"
	"evovec/internal/model"
)

const (
	MutationMoveVertex     = "move_vertex"
	MutationChangeColor    = "change_color"
	MutationChangeTopology = "change_topology"
)

var (
	ErrEmptySet         = errors.New("polygon set is empty")
	ErrNoMutationChoice = errors.New("no mutation choice available")
	ErrPolygonIndex     = errors.New("polygon index out of range")
)

// MoveVertex re-draws both coordinates of one random vertex.
type MoveVertex struct {
	Rand genotype.Source
}

func (o *MoveVertex) Name() string {
	return MutationMoveVertex
}

func (o *MoveVertex) Apply(set *model.PolygonSet, index int) (bool, error) {
	polygon, err := polygonAt(set, index)
	if err != nil {
		return false, err
	}
	if o == nil || o.Rand == nil {
		return false, genotype.ErrRandomSourceRequired
	}
	if len(polygon.Vertices) == 0 {
		return false, ErrNoMutationChoice
	}
	v := o.Rand.Intn(len(polygon.Vertices))
	polygon.Vertices[v] = genotype.RandomVertex(o.Rand, set.Width, set.Height)
	return true, nil
}

// ChangeColor re-draws one color channel. Alpha never ends at 0.
type ChangeColor struct {
	Rand genotype.Source
}

func (o *ChangeColor) Name() string {
	return MutationChangeColor
}

func (o *ChangeColor) Apply(set *model.PolygonSet, index int) (bool, error) {
	polygon, err := polygonAt(set, index)
	if err != nil {
		return false, err
	}
	if o == nil || o.Rand == nil {
		return false, genotype.ErrRandomSourceRequired
	}
	channel := o.Rand.Intn(4)
	value := uint8(genotype.Between(o.Rand, 0, 255))
	polygon.Color = polygon.Color.WithChannel(channel, value)
	return true, nil
}

// ChangeTopology appends a random vertex or drops the last one with equal
// probability, staying inside Vertices.
type ChangeTopology struct {
	Rand     genotype.Source
	Vertices genotype.VertexRange
}

func (o *ChangeTopology) Name() string {
	return MutationChangeTopology
}

func (o *ChangeTopology) Apply(set *model.PolygonSet, index int) (bool, error) {
	polygon, err := polygonAt(set, index)
	if err != nil {
		return false, err
	}
	if o == nil || o.Rand == nil {
		return false, genotype.ErrRandomSourceRequired
	}
	n := len(polygon.Vertices)
	if o.Rand.Intn(2) == 0 {
		if n+1 > o.Vertices.Max {
			return false, nil
		}
		polygon.Vertices = append(polygon.Vertices, genotype.RandomVertex(o.Rand, set.Width, set.Height))
		return true, nil
	}
	if n-1 < o.Vertices.Min {
		return false, nil
	}
	polygon.Vertices = polygon.Vertices[:n-1]
	return true, nil
}

// Mutation records what a RandomMutation did.
type Mutation struct {
	Polygon int    `json:"polygon"`
	Kind    string `json:"kind"`
	Applied bool   `json:"applied"`
}

// RandomMutation picks one polygon uniformly, then one operator uniformly.
type RandomMutation struct {
	Rand      genotype.Source
	Operators []Operator
}

// NewRandomMutation wires the three standard operators to one source.
func NewRandomMutation(src genotype.Source, vertices genotype.VertexRange) (*RandomMutation, error) {
	if src == nil {
		return nil, genotype.ErrRandomSourceRequired
	}
	if err := vertices.Validate(); err != nil {
		return nil, err
	}
	return &RandomMutation{
		Rand: src,
		Operators: []Operator{
			&MoveVertex{Rand: src},
			&ChangeColor{Rand: src},
			&ChangeTopology{Rand: src, Vertices: vertices},
		},
	}, nil
}

// Mutate applies exactly one localized edit to set.
func (m *RandomMutation) Mutate(set *model.PolygonSet) (Mutation, error) {
	if m == nil || m.Rand == nil {
		return Mutation{}, genotype.ErrRandomSourceRequired
	}
	if set == nil || len(set.Polygons) == 0 {
		return Mutation{}, ErrEmptySet
	}
	if len(m.Operators) == 0 {
		return Mutation{}, ErrNoMutationChoice
	}

	index := m.Rand.Intn(len(set.Polygons))
	op := m.Operators[m.Rand.Intn(len(m.Operators))]
	applied, err := op.Apply(set, index)
	if err != nil {
		return Mutation{}, fmt.Errorf("%s on polygon %d: %w", op.Name(), index, err)
	}
	return Mutation{Polygon: index, Kind: op.Name(), Applied: applied}, nil
}

func polygonAt(set *model.PolygonSet, index int) (*model.Polygon, error) {
	if set == nil || len(set.Polygons) == 0 {
		return nil, ErrEmptySet
	}
	if index < 0 || index >= len(set.Polygons) {
		return nil, fmt.Errorf("%w: %d", ErrPolygonIndex, index)
	}
	return &set.Polygons[index], nil
}
