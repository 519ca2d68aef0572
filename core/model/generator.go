package model

import (
	"fmt"
	"math"
)

// Generator describes the static attributes of a thermal unit. Generators are
// identified by their position in the slice handed to the optimizer.
type Generator struct {
	CostPerUnit float64 `json:"cost_per_unit"` // marginal cost per MWh
	StartupCost float64 `json:"startup_cost"`
	PMin        float64 `json:"p_min"`
	PMax        float64 `json:"p_max"`
	MinUpTime   int     `json:"min_up_time"`   // periods
	MinDownTime int     `json:"min_down_time"` // periods
}

// Validate checks the attributes of a single generator.
func (g Generator) Validate() error {
	for name, v := range map[string]float64{
		"cost_per_unit": g.CostPerUnit,
		"startup_cost":  g.StartupCost,
		"p_min":         g.PMin,
		"p_max":         g.PMax,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidInput, name)
		}
	}
	if g.PMin < 0 || g.PMax < 0 {
		return fmt.Errorf("%w: negative capacity (p_min=%g p_max=%g)", ErrInvalidInput, g.PMin, g.PMax)
	}
	if g.PMin > g.PMax {
		return fmt.Errorf("%w: p_min %g exceeds p_max %g", ErrInvalidInput, g.PMin, g.PMax)
	}
	if g.CostPerUnit < 0 || g.StartupCost < 0 {
		return fmt.Errorf("%w: negative cost", ErrInvalidInput)
	}
	if g.MinUpTime < 0 || g.MinDownTime < 0 {
		return fmt.Errorf("%w: negative min up/down time", ErrInvalidInput)
	}
	return nil
}

// ValidateGenerators checks a generator fleet. An empty fleet is rejected.
func ValidateGenerators(gens []Generator) error {
	if len(gens) == 0 {
		return fmt.Errorf("%w: no generators", ErrInvalidInput)
	}
	for i, g := range gens {
		if err := g.Validate(); err != nil {
			return fmt.Errorf("generator %d: %w", i, err)
		}
	}
	return nil
}

// TotalCapacity returns the sum of p_max over the fleet.
func TotalCapacity(gens []Generator) float64 {
	var sum float64
	for _, g := range gens {
		sum += g.PMax
	}
	return sum
}
