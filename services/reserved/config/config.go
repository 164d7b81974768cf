package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures runtime configuration for reserved, the reserve engine
// daemon.
type Config struct {
	ListenAddress   string    `yaml:"listen"`
	Environment     string    `yaml:"env"`
	DataDir         string    `yaml:"data_dir"`
	EngineConfig    string    `yaml:"engine_config"`
	ArchiveDatabase string    `yaml:"archive_database"`
	AdminToken      string    `yaml:"admin_token"`
	RateLimit       RateLimit `yaml:"rate_limit"`
	Telemetry       Telemetry `yaml:"telemetry"`
	Log             Log       `yaml:"log"`
}

// RateLimit throttles inbound requests per client address.
type RateLimit struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// Telemetry selects the OTLP exporter target.
type Telemetry struct {
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// Log configures optional rotated file output.
type Log struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load reads, defaults and validates the daemon configuration.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = ":8547"
	}
	if c.RateLimit.PerSecond <= 0 {
		c.RateLimit.PerSecond = 25
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 50
	}
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir must be configured")
	}
	if strings.TrimSpace(c.EngineConfig) == "" {
		return fmt.Errorf("engine_config must point at the engine TOML file")
	}
	if strings.TrimSpace(c.AdminToken) == "" {
		return fmt.Errorf("admin_token must be configured")
	}
	return nil
}
