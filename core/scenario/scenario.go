// Package scenario generates synthetic demand and renewable forecasts.
//
// Values are drawn independently and uniformly per sample and per period;
// there is no temporal or cross-sample correlation. The output depends only
// on the configuration, so a fixed seed reproduces the same scenarios.
package scenario

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/ucommit/core/model"
)

// Range is a closed interval [Low, High].
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

func (r Range) validate(name string) error {
	if r.Low < 0 || r.High < 0 {
		return fmt.Errorf("%w: %s range must be non-negative", model.ErrInvalidInput, name)
	}
	if r.Low > r.High {
		return fmt.Errorf("%w: %s range low %g above high %g", model.ErrInvalidInput, name, r.Low, r.High)
	}
	return nil
}

// Config parameterises the generator.
type Config struct {
	// NumSamples of zero selects the default; a run needs scenarios to
	// train on.
	NumSamples     int    `json:"num_samples"`
	TimePeriods    int    `json:"time_periods"`
	DemandRange    Range  `json:"demand_range"`
	RenewableRange Range  `json:"renewable_range"`
	Seed           uint64 `json:"seed"`
	// HoldOut is the number of extra scenarios, drawn from a derived seed,
	// used to compare cold and warm-started solves. Unset means 10; zero
	// disables the comparison.
	HoldOut *int `json:"hold_out"`
	// Demand and Renewable optionally pin a single scenario used by the
	// solve command instead of generated ones.
	Demand    []float64 `json:"demand"`
	Renewable []float64 `json:"renewable"`
}

// SetDefaults applies fallback values for optional fields.
func (c *Config) SetDefaults() {
	if c.NumSamples == 0 {
		c.NumSamples = 100
	}
	if c.TimePeriods == 0 {
		c.TimePeriods = 24
	}
	if c.HoldOut == nil {
		c.HoldOut = Count(10)
	}
	if c.DemandRange == (Range{}) {
		c.DemandRange = Range{Low: 50, High: 200}
	}
	if c.RenewableRange == (Range{}) {
		c.RenewableRange = Range{Low: 0, High: 50}
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.NumSamples < 0 {
		return fmt.Errorf("%w: num_samples must be positive", model.ErrInvalidInput)
	}
	if c.HoldOut != nil && *c.HoldOut < 0 {
		return fmt.Errorf("%w: hold_out must not be negative", model.ErrInvalidInput)
	}
	if c.TimePeriods <= 0 {
		return fmt.Errorf("%w: time_periods must be positive", model.ErrInvalidInput)
	}
	if err := c.DemandRange.validate("demand"); err != nil {
		return err
	}
	if err := c.RenewableRange.validate("renewable"); err != nil {
		return err
	}
	if len(c.Demand) != len(c.Renewable) {
		return fmt.Errorf("%w: fixed demand has %d periods, renewable has %d",
			model.ErrInvalidInput, len(c.Demand), len(c.Renewable))
	}
	return nil
}

// Count returns a pointer to n, for optional counts such as HoldOut.
func Count(n int) *int { return &n }

// HoldOutCount is the configured hold-out size, zero when unset.
func (c Config) HoldOutCount() int {
	if c.HoldOut == nil {
		return 0
	}
	return *c.HoldOut
}

// Fixed returns the pinned scenario, if configured.
func (c Config) Fixed() (model.Scenario, bool, error) {
	if len(c.Demand) == 0 {
		return model.Scenario{}, false, nil
	}
	sc, err := model.NewScenario("fixed", c.Demand, c.Renewable)
	return sc, true, err
}

// Generator draws scenarios from uniform distributions.
type Generator struct {
	cfg Config
}

// New validates the configuration and returns a Generator.
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg}, nil
}

// Generate returns cfg.NumSamples scenarios of cfg.TimePeriods periods. Each
// call restarts from the configured seed.
func (g *Generator) Generate() []model.Scenario {
	return Generate(g.cfg.NumSamples, g.cfg.TimePeriods, g.cfg.DemandRange, g.cfg.RenewableRange, g.cfg.Seed)
}

// HoldOut returns cfg.HoldOut scenarios independent of Generate.
func (g *Generator) HoldOut() []model.Scenario {
	return Generate(g.cfg.HoldOutCount(), g.cfg.TimePeriods, g.cfg.DemandRange, g.cfg.RenewableRange, g.cfg.Seed^holdOutSalt)
}

const holdOutSalt = 0x5bd1e995

// Generate draws numSamples scenarios. Demand and renewable values of a
// period are drawn in that order from a single seeded source.
func Generate(numSamples, periods int, demand, renewable Range, seed uint64) []model.Scenario {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	dem := distuv.Uniform{Min: demand.Low, Max: demand.High, Src: src}
	ren := distuv.Uniform{Min: renewable.Low, Max: renewable.High, Src: src}

	out := make([]model.Scenario, numSamples)
	for n := range out {
		sc := model.Scenario{
			ID:      scenarioID(seed, n),
			Periods: make([]model.Period, periods),
		}
		for t := range sc.Periods {
			sc.Periods[t].Demand = dem.Rand()
			sc.Periods[t].Renewable = ren.Rand()
		}
		out[n] = sc
	}
	return out
}

// scenarioID derives a stable identifier from the seed and sample index.
func scenarioID(seed uint64, n int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("ucommit/%d/%d", seed, n))).String()
}
