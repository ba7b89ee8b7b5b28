package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// MinPolygonVertices is the smallest vertex count that still describes a
// closed fillable shape.
const MinPolygonVertices = 3

type Vertex struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Color is a straight (non-premultiplied) RGBA color. A is kept >= 1.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Channel returns the i-th channel in R, G, B, A order.
func (c Color) Channel(i int) uint8 {
	switch i {
	case 0:
		return c.R
	case 1:
		return c.G
	case 2:
		return c.B
	default:
		return c.A
	}
}

// WithChannel returns c with the i-th channel replaced. A zero alpha is
// bumped to 1.
func (c Color) WithChannel(i int, v uint8) Color {
	switch i {
	case 0:
		c.R = v
	case 1:
		c.G = v
	case 2:
		c.B = v
	default:
		c.A = v
	}
	return c.Visible()
}

// Visible returns c with a zero alpha raised to 1.
func (c Color) Visible() Color {
	if c.A == 0 {
		c.A = 1
	}
	return c
}

type Polygon struct {
	Vertices []Vertex `json:"vertices"`
	Color    Color    `json:"color"`
}

// PolygonSet is one candidate solution. Width and Height are copied from the
// reference image and never change.
type PolygonSet struct {
	VersionedRecord
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Polygons []Polygon `json:"polygons"`
}

// VertexCount returns the total number of vertices across all polygons.
func (s PolygonSet) VertexCount() int {
	total := 0
	for _, p := range s.Polygons {
		total += len(p.Vertices)
	}
	return total
}

// RunRecord is the persisted summary of one annealing run.
type RunRecord struct {
	VersionedRecord
	ID                 string  `json:"id"`
	InputPath          string  `json:"input_path"`
	OutputDir          string  `json:"output_dir"`
	Width              int     `json:"width"`
	Height             int     `json:"height"`
	Seed               int64   `json:"seed"`
	Renderer           string  `json:"renderer"`
	PolygonCount       int     `json:"polygon_count"`
	MinVertices        int     `json:"min_vertices"`
	MaxVertices        int     `json:"max_vertices"`
	InitialTemperature float64 `json:"initial_temperature"`
	Cooling            float64 `json:"cooling"`
	Threshold          float64 `json:"threshold"`
	TemperatureScale   float64 `json:"temperature_scale"`
	ContinuedFrom      string  `json:"continued_from,omitempty"`
	Iterations         int     `json:"iterations"`
	Improving          int     `json:"improving"`
	Annealed           int     `json:"annealed"`
	InitialFitness     uint64  `json:"initial_fitness"`
	BestFitness        uint64  `json:"best_fitness"`
	FinalTemperature   float64 `json:"final_temperature"`
	CreatedAtUTC       string  `json:"created_at_utc"`
}

// HistorySample is one trace point of an annealing run.
type HistorySample struct {
	Iteration   int     `json:"iteration"`
	Temperature float64 `json:"temperature"`
	Current     uint64  `json:"current_fitness"`
	Best        uint64  `json:"best_fitness"`
	Improving   int     `json:"improving"`
	Annealed    int     `json:"annealed"`
}
