// Package config provides configuration loading for the arena-unity bridge
// binary.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete bridge configuration
type Config struct {
	Arena  ArenaConfig  `yaml:"arena"`
	NATS   NATSConfig   `yaml:"nats"`
	Bridge BridgeConfig `yaml:"bridge"`
	Log    LogConfig    `yaml:"log"`
}

// ArenaConfig configures where robot models live and how robots are equipped
type ArenaConfig struct {
	// Root is the simulation setup directory holding entities/robots
	// (empty = ../simulation-setup next to the executable)
	Root string `yaml:"root"`
	// RGBDFallback mounts a default RGB-D camera at the laser frame of
	// robots without a camera plugin
	RGBDFallback bool `yaml:"rgbd_fallback"`
	// MinWallThickness replaces zero-length wall axes
	MinWallThickness float64 `yaml:"min_wall_thickness"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
	// ConnectTimeout bounds the initial connection
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// BridgeConfig configures the entity-bridge component
type BridgeConfig struct {
	// StateBucket is the KV bucket mirroring live entities (empty disables)
	StateBucket string `yaml:"state_bucket"`
	// EventPrefix is the subject prefix for lifecycle events
	EventPrefix string `yaml:"event_prefix"`
	// DisableEvents turns lifecycle events off
	DisableEvents bool `yaml:"disable_events"`
	// WatchModels logs robot model edits as they happen
	WatchModels bool `yaml:"watch_models"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Arena: ArenaConfig{
			Root:             "", // Relative to the executable
			MinWallThickness: 0.1,
		},
		NATS: NATSConfig{
			URL:            "nats://localhost:4222",
			ConnectTimeout: 10 * time.Second,
		},
		Bridge: BridgeConfig{
			StateBucket: "ARENA_ENTITIES",
			EventPrefix: "sim.entity",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	if c.NATS.ConnectTimeout <= 0 {
		return fmt.Errorf("nats.connect_timeout must be positive")
	}
	if c.Arena.MinWallThickness < 0 {
		return fmt.Errorf("arena.min_wall_thickness must be non-negative")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values; booleans can only be switched on)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Arena
	if other.Arena.Root != "" {
		c.Arena.Root = other.Arena.Root
	}
	if other.Arena.RGBDFallback {
		c.Arena.RGBDFallback = true
	}
	if other.Arena.MinWallThickness != 0 {
		c.Arena.MinWallThickness = other.Arena.MinWallThickness
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.ConnectTimeout != 0 {
		c.NATS.ConnectTimeout = other.NATS.ConnectTimeout
	}

	// Bridge
	if other.Bridge.StateBucket != "" {
		c.Bridge.StateBucket = other.Bridge.StateBucket
	}
	if other.Bridge.EventPrefix != "" {
		c.Bridge.EventPrefix = other.Bridge.EventPrefix
	}
	if other.Bridge.DisableEvents {
		c.Bridge.DisableEvents = true
	}
	if other.Bridge.WatchModels {
		c.Bridge.WatchModels = true
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}
