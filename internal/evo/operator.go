package evo

import "evovec/internal/model"

// Operator edits a single polygon of a set in place.
type Operator interface {
	Name() string
	// Apply mutates set.Polygons[index]. It reports false when the edit was a
	// no-op (for example a topology change blocked by the vertex range).
	Apply(set *model.PolygonSet, index int) (bool, error)
}
