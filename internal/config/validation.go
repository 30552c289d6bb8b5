package config

import (
	"fmt"

	"github.com/LeJamon/gorebase/internal/crypto"
)

// ValidateConfig performs validation on the complete configuration.
func ValidateConfig(config *Config) error {
	if err := config.Storage.Validate(); err != nil {
		return fmt.Errorf("storage validation failed: %w", err)
	}
	if err := config.Log.Validate(); err != nil {
		return fmt.Errorf("log validation failed: %w", err)
	}
	if err := config.Identity.Validate(); err != nil {
		return fmt.Errorf("identity validation failed: %w", err)
	}
	if err := config.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation validation failed: %w", err)
	}
	return nil
}

// Validate checks that the seed, if set, decodes.
func (i *IdentityConfig) Validate() error {
	if i.Seed == "" {
		return nil
	}
	_, err := crypto.ParseSeed(i.Seed)
	return err
}

// Validate performs validation on the simulation defaults.
func (s *SimulationConfig) Validate() error {
	if s.Pools < 1 {
		return fmt.Errorf("pools must be at least 1, got %d", s.Pools)
	}
	if s.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", s.Steps)
	}
	return nil
}
