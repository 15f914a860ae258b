package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all trace configuration.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Database    DatabaseConfig    `toml:"database"`
	Insight     InsightConfig     `toml:"insight"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type InsightConfig struct {
	Explainer string `toml:"explainer"` // "template", "off"
}

type MaintenanceConfig struct {
	StabilityHalfLifeDays int `toml:"stability_half_life_days"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37707,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Insight: InsightConfig{
			Explainer: "template",
		},
		Maintenance: MaintenanceConfig{
			StabilityHalfLifeDays: 14,
		},
	}
}

// DefaultPath returns ~/.trace/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".trace", "config.toml"), nil
}

// Load reads a TOML config from path, layered over Default().
// A missing file is not an error: defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// StabilityHalfLifeMs converts the configured half-life to milliseconds.
// Zero or negative values defer to the topology default.
func (c *Config) StabilityHalfLifeMs() int64 {
	if c.Maintenance.StabilityHalfLifeDays <= 0 {
		return 0
	}
	return int64(c.Maintenance.StabilityHalfLifeDays) * 24 * 60 * 60 * 1000
}
