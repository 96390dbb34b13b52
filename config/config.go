// Package config loads the saju engine configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/warp/saju-engine/saju"
)

// Config holds all engine configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Almanac     AlmanacConfig     `yaml:"almanac"`
	Calculation CalculationConfig `yaml:"calculation"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     string   `yaml:"read_timeout"`
	WriteTimeout    string   `yaml:"write_timeout"`
	IdleTimeout     string   `yaml:"idle_timeout"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

// AlmanacConfig configures the optional 만세력 store.
type AlmanacConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
	SeedFrom     int    `yaml:"seed_from"` // seed on startup when the store is empty
	SeedTo       int    `yaml:"seed_to"`
}

// CalculationConfig sets calculator defaults.
type CalculationConfig struct {
	TimeCorrection bool   `yaml:"time_correction"` // apply true solar time by default
	Location       string `yaml:"location"`        // default location for the correction
	NightZi        bool   `yaml:"night_zi"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     "15s",
			WriteTimeout:    "15s",
			IdleTimeout:     "60s",
			ShutdownTimeout: "30s",
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Almanac: AlmanacConfig{
			Enabled:      false,
			DatabasePath: "data/almanac.db",
		},
		Calculation: CalculationConfig{
			TimeCorrection: false,
			Location:       saju.DefaultLocation,
			NightZi:        true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("SAJU_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SAJU_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("SAJU_DB"); v != "" {
		c.Almanac.DatabasePath = v
		c.Almanac.Enabled = true
	}
	if v := os.Getenv("SAJU_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SAJU_TIME_CORRECTION"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SAJU_TIME_CORRECTION: %w", err)
		}
		c.Calculation.TimeCorrection = on
	}
	return nil
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	for name, v := range map[string]string{
		"read_timeout":     c.Server.ReadTimeout,
		"write_timeout":    c.Server.WriteTimeout,
		"idle_timeout":     c.Server.IdleTimeout,
		"shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid server %s %q: %w", name, v, err)
		}
	}
	if c.Almanac.Enabled && c.Almanac.DatabasePath == "" {
		return fmt.Errorf("almanac enabled without database_path")
	}
	if c.Almanac.SeedFrom != 0 || c.Almanac.SeedTo != 0 {
		if c.Almanac.SeedFrom < saju.MinYear || c.Almanac.SeedTo > saju.MaxYear || c.Almanac.SeedFrom > c.Almanac.SeedTo {
			return fmt.Errorf("invalid almanac seed range %d-%d (supported %d-%d)",
				c.Almanac.SeedFrom, c.Almanac.SeedTo, saju.MinYear, saju.MaxYear)
		}
	}
	if c.Calculation.TimeCorrection {
		if _, err := saju.LocationOffset(c.Calculation.Location); err != nil {
			return fmt.Errorf("invalid calculation location: %w", err)
		}
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// LogLevel parses logging.level.
func (c *Config) LogLevel() (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(c.Logging.Level))); err != nil {
		return lvl, fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	return lvl, nil
}

// SolarTimeOffset is the default correction in minutes (0 when disabled).
func (c *Config) SolarTimeOffset() int {
	if !c.Calculation.TimeCorrection {
		return 0
	}
	off, err := saju.LocationOffset(c.Calculation.Location)
	if err != nil {
		return 0
	}
	return off
}

// Duration helpers fall back to the defaults on unparsable values.

func (c *Config) ReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 15*time.Second)
}

func (c *Config) WriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 15*time.Second)
}

func (c *Config) IdleTimeout() time.Duration {
	return parseDuration(c.Server.IdleTimeout, 60*time.Second)
}

func (c *Config) ShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 30*time.Second)
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
