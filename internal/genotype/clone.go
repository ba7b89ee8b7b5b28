package genotype

import "evovec/internal/model"

// Clone returns a deep copy of set. Mutating the copy never affects set.
func Clone(set model.PolygonSet) model.PolygonSet {
	out := set
	if set.Polygons == nil {
		return out
	}
	out.Polygons = make([]model.Polygon, len(set.Polygons))
	for i, polygon := range set.Polygons {
		out.Polygons[i] = ClonePolygon(polygon)
	}
	return out
}

func ClonePolygon(p model.Polygon) model.Polygon {
	out := p
	out.Vertices = append([]model.Vertex(nil), p.Vertices...)
	return out
}
