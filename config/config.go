// Package config provides configuration loading, validation, and access
// for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Poke       PokeConfig       `yaml:"poke"`
	Predator   PredatorConfig   `yaml:"predator"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// SimulationConfig holds the population and movement parameters.
type SimulationConfig struct {
	Population int     `yaml:"population"` // Initial agent count
	Steps      int     `yaml:"steps"`      // Steps per run
	Radius     float64 `yaml:"radius"`     // Neighborhood radius
	Drift      float64 `yaml:"drift"`      // Attraction/repulsion coefficient per neighbor
	Noise      float64 `yaml:"noise"`      // Total width of the per-coordinate position jitter
}

// PokeConfig holds the one-time forced state injection.
type PokeConfig struct {
	Enabled bool `yaml:"enabled"`
	Step    int  `yaml:"step"`   // Step index at which the poke fires
	Target  int  `yaml:"target"` // Agent index in initial creation order
	Value   int  `yaml:"value"`  // Forced state, must be in {1,2,3}
}

// PredatorConfig holds predator spawn and hunting parameters.
type PredatorConfig struct {
	SpawnInterval int     `yaml:"spawn_interval"` // Steps before the predator spawns
	Speed         float64 `yaml:"speed"`          // Base movement per step (scales with hunger)
	Radius        float64 `yaml:"radius"`         // Capture radius
}

// ClassifierConfig holds the initial phase thresholds. Mutation can
// replace them mid-run; these only seed the first classifier.
type ClassifierConfig struct {
	SolidThreshold  float64 `yaml:"solid_threshold"`
	PlasmaThreshold float64 `yaml:"plasma_threshold"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowSteps int `yaml:"window_steps"` // Steps per stats window
}

// ValidationError reports a single invalid configuration field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Validate checks the configuration once, up front. Invalid values are
// rejected here rather than clamped; a config that passes never causes
// an error during the run.
func (c *Config) Validate() error {
	if c.Simulation.Population <= 0 {
		return &ValidationError{Field: "simulation.population", Reason: "must be positive"}
	}
	if c.Simulation.Steps < 0 {
		return &ValidationError{Field: "simulation.steps", Reason: "must not be negative"}
	}
	if c.Simulation.Radius < 0 {
		return &ValidationError{Field: "simulation.radius", Reason: "must not be negative"}
	}
	if c.Simulation.Drift < 0 {
		return &ValidationError{Field: "simulation.drift", Reason: "must not be negative"}
	}
	if c.Simulation.Noise < 0 {
		return &ValidationError{Field: "simulation.noise", Reason: "must not be negative"}
	}
	if c.Poke.Enabled {
		if c.Poke.Step < 0 {
			return &ValidationError{Field: "poke.step", Reason: "must not be negative"}
		}
		if c.Poke.Target < 0 || c.Poke.Target >= c.Simulation.Population {
			return &ValidationError{Field: "poke.target", Reason: "outside the initial population"}
		}
		if c.Poke.Value < 1 || c.Poke.Value > 3 {
			return &ValidationError{Field: "poke.value", Reason: "must be 1, 2, or 3"}
		}
	}
	if c.Predator.SpawnInterval <= 0 {
		return &ValidationError{Field: "predator.spawn_interval", Reason: "must be positive"}
	}
	if c.Predator.Speed < 0 {
		return &ValidationError{Field: "predator.speed", Reason: "must not be negative"}
	}
	if c.Predator.Radius < 0 {
		return &ValidationError{Field: "predator.radius", Reason: "must not be negative"}
	}
	if c.Telemetry.WindowSteps <= 0 {
		return &ValidationError{Field: "telemetry.window_steps", Reason: "must be positive"}
	}
	return nil
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The result is
// validated before being returned.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
