// Package main provides CMA-ES optimization for follow controller parameters.
package main

import (
	"math"

	"github.com/pthm-cable/companion/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
	Integer bool    // Rounded before use
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
// Ranges keep near_distance < run_distance < catch_up_distance so every
// candidate passes config validation.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Anchor placement
			{Name: "behind_distance", Path: "anchor.behind_distance", Min: 1.5, Max: 4.0, Default: 2.5},
			{Name: "side_distance", Path: "anchor.side_distance", Min: 0.5, Max: 3.0, Default: 1.5},
			{Name: "anchor_recompute", Path: "anchor.recompute_ticks", Min: 2, Max: 30, Default: 10, Integer: true},
			{Name: "displacement_threshold", Path: "anchor.displacement_threshold", Min: 0.5, Max: 4.0, Default: 2},
			// Gait
			{Name: "near_distance", Path: "gait.near_distance", Min: 2.5, Max: 5.5, Default: 4},
			{Name: "run_distance", Path: "gait.run_distance", Min: 6, Max: 10, Default: 8},
			{Name: "lock_ticks", Path: "gait.lock_ticks", Min: 0, Max: 30, Default: 10, Integer: true},
			{Name: "accel_step", Path: "gait.accel_step", Min: 0.005, Max: 0.08, Default: 0.03},
			{Name: "decel_step", Path: "gait.decel_step", Min: 0.005, Max: 0.08, Default: 0.015},
			// Navigation pacing
			{Name: "nav_recompute", Path: "navigation.recompute_ticks", Min: 2, Max: 30, Default: 10, Integer: true},
			{Name: "anchor_epsilon", Path: "navigation.anchor_epsilon", Min: 0.1, Max: 2.0, Default: 0.5},
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

// Clamp ensures all values are within bounds, rounding integer parameters.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Min(math.Max(v[i], spec.Min), spec.Max)
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	// Order must match Specs order
	i := 0
	next := func() float64 { v := clamped[i]; i++; return v }

	cfg.Anchor.BehindDistance = next()
	cfg.Anchor.SideDistance = next()
	cfg.Anchor.RecomputeTicks = int(next())
	cfg.Anchor.DisplacementThreshold = next()

	cfg.Gait.NearDistance = next()
	cfg.Gait.RunDistance = next()
	cfg.Gait.LockTicks = int(next())
	cfg.Gait.AccelStep = next()
	cfg.Gait.DecelStep = next()

	cfg.Navigation.RecomputeTicks = int(next())
	cfg.Navigation.AnchorEpsilon = next()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Anchor.BehindDistance,
		cfg.Anchor.SideDistance,
		float64(cfg.Anchor.RecomputeTicks),
		cfg.Anchor.DisplacementThreshold,

		cfg.Gait.NearDistance,
		cfg.Gait.RunDistance,
		float64(cfg.Gait.LockTicks),
		cfg.Gait.AccelStep,
		cfg.Gait.DecelStep,

		float64(cfg.Navigation.RecomputeTicks),
		cfg.Navigation.AnchorEpsilon,
	}
}
