// Package main provides CMA-ES optimization for simulation parameters.
package main

import (
	"github.com/mkessel/protoplasm/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Movement
			{Name: "drift", Path: "simulation.drift", Min: 0.001, Max: 0.05, Default: 0.01},
			{Name: "noise", Path: "simulation.noise", Min: 0.0, Max: 0.2, Default: 0.05},
			// Neighborhoods
			{Name: "radius", Path: "simulation.radius", Min: 0.05, Max: 0.5, Default: 0.25},
			// Initial classifier thresholds
			{Name: "solid_threshold", Path: "classifier.solid_threshold", Min: 0.05, Max: 0.5, Default: 0.2},
			{Name: "plasma_threshold", Path: "classifier.plasma_threshold", Min: 0.5, Max: 0.95, Default: 0.8},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	// Clamp values to ensure they're within bounds
	clamped := pv.Clamp(values)

	// Apply each parameter to the config
	// Order must match Specs order
	i := 0

	cfg.Simulation.Drift = clamped[i]
	i++
	cfg.Simulation.Noise = clamped[i]
	i++
	cfg.Simulation.Radius = clamped[i]
	i++

	cfg.Classifier.SolidThreshold = clamped[i]
	i++
	cfg.Classifier.PlasmaThreshold = clamped[i]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Simulation.Drift,
		cfg.Simulation.Noise,
		cfg.Simulation.Radius,
		cfg.Classifier.SolidThreshold,
		cfg.Classifier.PlasmaThreshold,
	}
}
