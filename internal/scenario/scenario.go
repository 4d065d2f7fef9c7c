// Package scenario provides named topology presets and loads custom ones.
package scenario

import (
	"fmt"
	"sort"

	"wlan-handoff-sim/internal/config"
)

// Scenario is a named, described simulation configuration.
type Scenario struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Config      config.SimulationConfig `json:"config"`
}

// Names returns the built-in scenario names in sorted order.
func Names() []string {
	b := BuiltIn()
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a fresh, defaulted and validated copy of a built-in
// scenario's configuration.
func Lookup(name string) (*config.SimulationConfig, error) {
	s, ok := BuiltIn()[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown scenario %q", config.ErrInvalidConfiguration, name)
	}
	cfg := s.Config
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	return &cfg, nil
}

// Resolve picks the configuration for a run: a config file wins over a
// scenario name, and an empty request yields the default scenario.
func Resolve(path, name string) (*config.SimulationConfig, error) {
	if path != "" {
		return config.Load(path)
	}
	if name == "" {
		name = Default
	}
	return Lookup(name)
}
