package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/decker502/particlesim/pkg/systems"
)

// RuntimeConfig 运行时配置，来自 PARTICLES_* 环境变量
type RuntimeConfig struct {
	BoundingMode   string  `env:"PARTICLES_BOUNDING_MODE" envDefault:"general"`
	Seed           uint64  `env:"PARTICLES_SEED" envDefault:"0"`
	AppName        string  `env:"PARTICLES_APP_NAME" envDefault:"particlesim"`
	TimeMultiplier float64 `env:"PARTICLES_TIME_MULTIPLIER" envDefault:"1"`
	Verbose        bool    `env:"PARTICLES_VERBOSE" envDefault:"false"`
}

// LoadRuntimeConfig parses the environment and validates the result.
func LoadRuntimeConfig() (RuntimeConfig, error) {
	var cfg RuntimeConfig
	if err := env.Parse(&cfg); err != nil {
		return RuntimeConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if _, err := ParseBoundingMode(cfg.BoundingMode); err != nil {
		return RuntimeConfig{}, err
	}
	if cfg.AppName == "" {
		return RuntimeConfig{}, fmt.Errorf("PARTICLES_APP_NAME cannot be empty")
	}
	if cfg.TimeMultiplier < 0 {
		return RuntimeConfig{}, fmt.Errorf("PARTICLES_TIME_MULTIPLIER cannot be negative, got %v", cfg.TimeMultiplier)
	}
	return cfg, nil
}

// Bounding returns the parsed bounding mode. LoadRuntimeConfig has already
// rejected invalid values.
func (c RuntimeConfig) Bounding() systems.BoundingMode {
	mode, _ := ParseBoundingMode(c.BoundingMode)
	return mode
}

// ParseBoundingMode accepts "general" and "per_particle" (case-insensitive).
func ParseBoundingMode(s string) (systems.BoundingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "general":
		return systems.BoundingGeneral, nil
	case "per_particle", "per-particle", "perparticle":
		return systems.BoundingPerParticle, nil
	default:
		return systems.BoundingGeneral, fmt.Errorf("unknown bounding mode %q", s)
	}
}
