package main

import (
	"github.com/pthm-cable/evolution/config"
	"github.com/pthm-cable/evolution/world"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the food regrowth parameter set. Sprout rates are
// Poisson means here and converted to exp_ parameters on apply.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "sprout_per_tile", Path: "food.exp_sprout_per_tile", Min: 0.005, Max: 0.5, Default: 0.065},
			{Name: "sprout_per_grass", Path: "food.exp_sprout_per_grass", Min: 0.005, Max: 0.5, Default: 0.065},
			{Name: "repression_range", Path: "food.repression_range", Min: 0.01, Max: 0.25, Default: 0.0625},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return out
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return out
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return out
}

// ApplyToConfig writes clamped parameter values into cfg and refreshes its
// derived values.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) error {
	clamped := pv.Clamp(values)
	cfg.Food.ExpSproutPerTile = world.PoissonParam(clamped[0])
	cfg.Food.ExpSproutPerGrass = world.PoissonParam(clamped[1])
	cfg.Food.RepressionRange = clamped[2]
	return cfg.Refresh()
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return pv.Clamp([]float64{
		world.PoissonMean(cfg.Food.ExpSproutPerTile),
		world.PoissonMean(cfg.Food.ExpSproutPerGrass),
		cfg.Food.RepressionRange,
	})
}
