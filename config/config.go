package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/ucommit/core/classifier"
	"github.com/kilianp07/ucommit/core/commitment"
	"github.com/kilianp07/ucommit/core/corpus"
	"github.com/kilianp07/ucommit/core/metrics"
	"github.com/kilianp07/ucommit/core/model"
	"github.com/kilianp07/ucommit/core/scenario"
	"github.com/kilianp07/ucommit/infra/logger"
)

// EnvPrefix marks environment variables overriding file values, e.g.
// UC_SOLVER__TIMEOUT_SECONDS=5 sets solver.timeout_seconds.
const EnvPrefix = "UC_"

type Config struct {
	Generators []model.Generator `json:"generators"`
	Scenario   scenario.Config   `json:"scenario"`
	Solver     commitment.Config `json:"solver"`
	Corpus     corpus.Config     `json:"corpus"`
	Classifier classifier.Config `json:"classifier"`
	Metrics    metrics.Config    `json:"metrics"`
	Logging    logger.Config     `json:"logging"`
}

// DefaultGenerators is the three-unit reference fleet: a cheap base unit, a
// mid-merit unit and an expensive peaker.
func DefaultGenerators() []model.Generator {
	return []model.Generator{
		{CostPerUnit: 20, StartupCost: 100, PMin: 20, PMax: 100, MinUpTime: 1, MinDownTime: 1},
		{CostPerUnit: 25, StartupCost: 100, PMin: 10, PMax: 80, MinUpTime: 1, MinDownTime: 1},
		{CostPerUnit: 30, StartupCost: 100, PMin: 10, PMax: 60, MinUpTime: 1, MinDownTime: 1},
	}
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	if len(c.Generators) == 0 {
		c.Generators = DefaultGenerators()
	}
	c.Scenario.SetDefaults()
	c.Solver.SetDefaults()
	c.Corpus.SetDefaults()
	c.Classifier.SetDefaults()
}

// Validate checks every section and reports all failures.
func (c Config) Validate() error {
	var errs []error
	if err := model.ValidateGenerators(c.Generators); err != nil {
		errs = append(errs, fmt.Errorf("generators: %w", err))
	}
	if err := c.Scenario.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scenario: %w", err))
	}
	if err := c.Solver.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("solver: %w", err))
	}
	if n := len(c.Solver.InitialStatus); n != 0 && n != len(c.Generators) {
		errs = append(errs, fmt.Errorf("solver: initial_status has %d entries for %d generators", n, len(c.Generators)))
	}
	if err := c.Corpus.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("corpus: %w", err))
	}
	if err := c.Classifier.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("classifier: %w", err))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	return errors.Join(errs...)
}

// Load reads a YAML or JSON file, applies UC_ environment overrides, then
// defaults, and validates the result. An empty path loads defaults and the
// environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
