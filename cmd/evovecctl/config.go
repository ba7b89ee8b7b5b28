package main

import (
	"encoding/json"
	"fmt"
	"os"

	"evovec/internal/model"
	"evovec/pkg/evovec"
)

// loadRunRequestFromConfig overlays a JSON run config on the documented
// defaults. Input and output paths always come from the command line.
func loadRunRequestFromConfig(path string) (evovec.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return evovec.RunRequest{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return evovec.RunRequest{}, err
	}

	req := evovec.DefaultRunRequest("", "")
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asString(raw["run_id_format"]); ok {
		req.RunIDFormat = v
	}
	if v, ok := asString(raw["continue_run"]); ok {
		req.ContinueRunID = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asString(raw["renderer"]); ok {
		req.Renderer = v
	}
	if v, ok := asInt(raw["max_dim"]); ok {
		req.MaxDim = v
	}

	schedule := raw
	if nested, ok := raw["schedule"].(map[string]any); ok {
		schedule = nested
	}
	if v, ok := asFloat64(schedule["temperature"]); ok {
		req.Schedule.Initial = v
	}
	if v, ok := asFloat64(schedule["cooling"]); ok {
		req.Schedule.Cooling = v
	}
	if v, ok := asFloat64(schedule["threshold"]); ok {
		req.Schedule.Threshold = v
	}
	if v, ok := asFloat64(schedule["temperature_scale"]); ok {
		req.Schedule.Scale = v
	}

	if v, ok := asInt(raw["polygons"]); ok {
		req.PolygonCount = v
	}
	if v, ok := asInt(raw["min_vertices"]); ok {
		req.Vertices.Min = v
	}
	if v, ok := asInt(raw["max_vertices"]); ok {
		req.Vertices.Max = v
	}

	if v, ok := asInt(raw["raster_every"]); ok {
		req.RasterEvery = v
	}
	if v, ok := asInt(raw["vector_every"]); ok {
		req.VectorEvery = v
	}
	if v, ok := asInt(raw["trace_every"]); ok {
		req.TraceEvery = v
	}
	return req, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

// overrideFromFlags applies only the flags named in set, so a config file
// value survives unless the flag was given explicitly.
func overrideFromFlags(req *evovec.RunRequest, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "run-id-format":
			req.RunIDFormat = v.(string)
		case "continue-run":
			req.ContinueRunID = v.(string)
		case "seed":
			req.Seed = v.(int64)
		case "temperature":
			req.Schedule.Initial = v.(float64)
		case "cooling":
			req.Schedule.Cooling = v.(float64)
		case "threshold":
			req.Schedule.Threshold = v.(float64)
		case "temperature-scale":
			req.Schedule.Scale = v.(float64)
		case "polygons":
			req.PolygonCount = v.(int)
		case "min-vertices":
			req.Vertices.Min = v.(int)
		case "max-vertices":
			req.Vertices.Max = v.(int)
		case "raster-every":
			req.RasterEvery = v.(int)
		case "vector-every":
			req.VectorEvery = v.(int)
		case "trace-every":
			req.TraceEvery = v.(int)
		case "renderer":
			req.Renderer = v.(string)
		case "max-dim":
			req.MaxDim = v.(int)
		default:
			return fmt.Errorf("unsupported run flag override: %s", name)
		}
	}
	return nil
}

func loadOrDefaultRunRequest(configPath string) (evovec.RunRequest, error) {
	if configPath == "" {
		return evovec.DefaultRunRequest("", ""), nil
	}
	req, err := loadRunRequestFromConfig(configPath)
	if err != nil {
		return evovec.RunRequest{}, &model.ConfigurationError{Field: "config", Err: fmt.Errorf("load %s: %w", configPath, err)}
	}
	return req, nil
}
