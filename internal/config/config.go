package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Stress  StressConfig  `toml:"stress"`
	Logging LoggingConfig `toml:"logging"`
	Profile ProfileConfig `toml:"profile"`
	Report  ReportConfig  `toml:"report"`
}

type StressConfig struct {
	Duration      time.Duration `toml:"duration"`
	Entities      int           `toml:"entities"`      // initial population
	MaxEntityId   int           `toml:"max_entity_id"` // entity ids are drawn from [0, max_entity_id)
	OpsPerTick    int           `toml:"ops_per_tick"`
	RemoveRatio   float64       `toml:"remove_ratio"` // share of ops that remove (0.0-1.0)
	ValidateEvery int           `toml:"validate_every"`
	Seed          uint64        `toml:"seed"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type ProfileConfig struct {
	Mode string `toml:"mode"` // "", "cpu" or "mem"
	Path string `toml:"path"`
}

type ReportConfig struct {
	Format string `toml:"format"` // "text" or "yaml"
}

// Load reads a TOML file over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Stress.Duration <= 0 {
		errs = append(errs, fmt.Errorf("stress.duration must be positive, got %s", c.Stress.Duration))
	}
	if c.Stress.MaxEntityId <= 0 {
		errs = append(errs, fmt.Errorf("stress.max_entity_id must be positive, got %d", c.Stress.MaxEntityId))
	}
	if c.Stress.Entities < 0 || c.Stress.Entities > c.Stress.MaxEntityId {
		errs = append(errs, fmt.Errorf("stress.entities must be within [0, %d], got %d", c.Stress.MaxEntityId, c.Stress.Entities))
	}
	if c.Stress.OpsPerTick <= 0 {
		errs = append(errs, fmt.Errorf("stress.ops_per_tick must be positive, got %d", c.Stress.OpsPerTick))
	}
	if c.Stress.RemoveRatio < 0 || c.Stress.RemoveRatio > 1 {
		errs = append(errs, fmt.Errorf("stress.remove_ratio must be within [0, 1], got %g", c.Stress.RemoveRatio))
	}
	if c.Stress.ValidateEvery < 0 {
		errs = append(errs, fmt.Errorf("stress.validate_every must not be negative, got %d", c.Stress.ValidateEvery))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem":
	default:
		errs = append(errs, fmt.Errorf("profile.mode must be empty, cpu or mem, got %q", c.Profile.Mode))
	}
	switch c.Report.Format {
	case "text", "yaml":
	default:
		errs = append(errs, fmt.Errorf("report.format must be text or yaml, got %q", c.Report.Format))
	}
	return errors.Join(errs...)
}

func defaults() *Config {
	return &Config{
		Stress: StressConfig{
			Duration:      10 * time.Second,
			Entities:      10000,
			MaxEntityId:   65536,
			OpsPerTick:    1000,
			RemoveRatio:   0.3,
			ValidateEvery: 100,
			Seed:          1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Profile: ProfileConfig{
			Path: ".",
		},
		Report: ReportConfig{
			Format: "text",
		},
	}
}
