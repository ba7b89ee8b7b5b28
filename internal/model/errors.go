package model

import "fmt"

// ConfigurationError reports missing or out-of-range settings. It is raised
// before any optimization work starts.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("configuration: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// InputError reports a reference image that cannot be read or decoded.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// RenderError reports a rasterization backend that could not produce a
// pixel buffer.
type RenderError struct {
	Backend string
	Err     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render (%s): %v", e.Backend, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
