package evo

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultInitialTemperature = 1000.0
	DefaultCooling            = 0.99999
	DefaultThreshold          = 0.01
	DefaultTemperatureScale   = 1.0
)

var ErrInvalidSchedule = errors.New("invalid cooling schedule")

// Schedule is a geometric cooling schedule T <- T*Cooling, frozen once
// T < Threshold. Scale multiplies T in the Metropolis exponent.
type Schedule struct {
	Initial   float64 `json:"initial_temperature"`
	Cooling   float64 `json:"cooling"`
	Threshold float64 `json:"threshold"`
	Scale     float64 `json:"temperature_scale"`
}

func DefaultSchedule() Schedule {
	return Schedule{
		Initial:   DefaultInitialTemperature,
		Cooling:   DefaultCooling,
		Threshold: DefaultThreshold,
		Scale:     DefaultTemperatureScale,
	}
}

func (s Schedule) Validate() error {
	if math.IsNaN(s.Initial) || math.IsInf(s.Initial, 0) || s.Initial < 0 {
		return fmt.Errorf("%w: initial temperature must be finite and >= 0: got %v", ErrInvalidSchedule, s.Initial)
	}
	if !(s.Cooling > 0 && s.Cooling < 1) {
		return fmt.Errorf("%w: cooling factor must be in (0, 1): got %v", ErrInvalidSchedule, s.Cooling)
	}
	if !(s.Threshold > 0) || math.IsInf(s.Threshold, 0) {
		return fmt.Errorf("%w: threshold must be finite and > 0: got %v", ErrInvalidSchedule, s.Threshold)
	}
	if !(s.Scale > 0) || math.IsInf(s.Scale, 0) {
		return fmt.Errorf("%w: temperature scale must be finite and > 0: got %v", ErrInvalidSchedule, s.Scale)
	}
	return nil
}

// Frozen reports whether temperature t ends the run.
func (s Schedule) Frozen(t float64) bool {
	return t < s.Threshold
}

// Next returns the temperature after one cooling step.
func (s Schedule) Next(t float64) float64 {
	return t * s.Cooling
}

// Iterations returns the exact number of iterations a run performs before
// freezing, replaying the same floating point cooling steps the annealer
// takes. Away from exact powers it equals ceil(log(Threshold/Initial)/log(Cooling)).
func (s Schedule) Iterations() (int, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	n := 0
	for t := s.Initial; !s.Frozen(t); t = s.Next(t) {
		n++
	}
	return n, nil
}

// EstimatedIterations is the closed form ceil(log(Threshold/Initial)/log(Cooling)),
// clamped at 0.
func (s Schedule) EstimatedIterations() int {
	if s.Initial <= 0 || s.Threshold <= 0 || s.Cooling <= 0 || s.Cooling >= 1 {
		return 0
	}
	n := math.Ceil(math.Log(s.Threshold/s.Initial) / math.Log(s.Cooling))
	if n < 0 {
		return 0
	}
	return int(n)
}
