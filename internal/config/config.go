package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/timewarplabs/timewarp/internal/warp"
)

// Config is the top-level configuration for a timewarp session.
type Config struct {
	Server ServerConfig `toml:"server"`
	Warp   WarpConfig   `toml:"warp"`
}

// ServerConfig holds control-surface HTTP settings.
type ServerConfig struct {
	Addr    string `toml:"addr"`
	Metrics bool   `toml:"metrics"`
}

// WarpConfig fixes the multiplier bounds at engine construction. The bounds
// are not runtime-reconfigurable.
type WarpConfig struct {
	MinMultiplier     float64 `toml:"min_multiplier"`
	MaxMultiplier     float64 `toml:"max_multiplier"`
	DefaultMultiplier float64 `toml:"default_multiplier"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	lim := warp.DefaultLimits()
	return Config{
		Server: ServerConfig{
			Addr:    ":8080",
			Metrics: true,
		},
		Warp: WarpConfig{
			MinMultiplier:     lim.Min,
			MaxMultiplier:     lim.Max,
			DefaultMultiplier: lim.Default,
		},
	}
}

// Limits converts the warp section into engine limits.
func (c Config) Limits() warp.Limits {
	return warp.Limits{
		Min:     c.Warp.MinMultiplier,
		Max:     c.Warp.MaxMultiplier,
		Default: c.Warp.DefaultMultiplier,
	}
}

// Validate checks that the config is valid.
func (c Config) Validate() error {
	if c.Warp.MinMultiplier <= 0 {
		return fmt.Errorf("min_multiplier must be positive, got %v", c.Warp.MinMultiplier)
	}
	if c.Warp.MaxMultiplier < c.Warp.MinMultiplier {
		return fmt.Errorf("max_multiplier %v is below min_multiplier %v", c.Warp.MaxMultiplier, c.Warp.MinMultiplier)
	}
	if c.Warp.DefaultMultiplier < c.Warp.MinMultiplier || c.Warp.DefaultMultiplier > c.Warp.MaxMultiplier {
		return fmt.Errorf("default_multiplier %v is outside [%v, %v]", c.Warp.DefaultMultiplier, c.Warp.MinMultiplier, c.Warp.MaxMultiplier)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	return nil
}

// LoadFile reads a TOML config file and merges it with defaults.
// Fields not specified in the file retain their default values.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config file: %w", err)
	}
	return cfg, nil
}

// WriteExample writes an example config file to the given path.
func WriteExample(path string) error {
	example := `[server]
addr = ":8080"
metrics = true

[warp]
min_multiplier = 0.0625
max_multiplier = 16.0
default_multiplier = 1.0
`
	return os.WriteFile(path, []byte(example), 0o644)
}
