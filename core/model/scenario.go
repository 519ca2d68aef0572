package model

import (
	"fmt"
	"math"
)

// Period is the forecast for a single time step.
type Period struct {
	Demand    float64 `json:"demand"`
	Renewable float64 `json:"renewable"`
}

// NetLoad is the demand left to be served by the thermal fleet.
func (p Period) NetLoad() float64 { return p.Demand - p.Renewable }

// Scenario is an ordered demand/renewable forecast over the horizon.
type Scenario struct {
	ID      string   `json:"id"`
	Periods []Period `json:"periods"`
}

// NewScenario zips demand and renewable series into a scenario. Both series
// must have the same length.
func NewScenario(id string, demand, renewable []float64) (Scenario, error) {
	if len(demand) != len(renewable) {
		return Scenario{}, fmt.Errorf("%w: demand has %d periods, renewable has %d",
			ErrInvalidInput, len(demand), len(renewable))
	}
	s := Scenario{ID: id, Periods: make([]Period, len(demand))}
	for t := range demand {
		s.Periods[t] = Period{Demand: demand[t], Renewable: renewable[t]}
	}
	return s, s.Validate()
}

// Horizon returns the number of time steps.
func (s Scenario) Horizon() int { return len(s.Periods) }

// Validate checks that the scenario is non-empty and all values are finite
// and non-negative.
func (s Scenario) Validate() error {
	if len(s.Periods) == 0 {
		return fmt.Errorf("%w: scenario %q has no periods", ErrInvalidInput, s.ID)
	}
	for t, p := range s.Periods {
		if !finite(p.Demand) || !finite(p.Renewable) {
			return fmt.Errorf("%w: scenario %q period %d is not finite", ErrInvalidInput, s.ID, t)
		}
		if p.Demand < 0 || p.Renewable < 0 {
			return fmt.Errorf("%w: scenario %q period %d has negative value", ErrInvalidInput, s.ID, t)
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
