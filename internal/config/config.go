// Package config handles service configuration from a YAML file with
// environment overrides.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Remote  RemoteConfig  `yaml:"remote"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	History HistoryConfig `yaml:"history"`
}

// RemoteConfig controls the analysis/generation service client.
type RemoteConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SandboxConfig controls the embedded browsing context.
type SandboxConfig struct {
	BrowserPath string `yaml:"browser_path"`
	Headless    bool   `yaml:"headless"`
}

// HistoryConfig controls persistence.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// LoadFile reads a YAML configuration file. A missing file yields the
// default configuration rather than an error.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Environment variables override file values so keys stay out of
// checked-in configs.
func (c *Config) applyEnv() {
	if v := os.Getenv("SKETCHSIM_API_KEY"); v != "" {
		c.Remote.APIKey = v
	}
	if v := os.Getenv("SKETCHSIM_ENDPOINT"); v != "" {
		c.Remote.Endpoint = v
	}
	if v := os.Getenv("SKETCHSIM_MODEL"); v != "" {
		c.Remote.Model = v
	}
}

func (c *Config) applyDefaults() {
	if c.Remote.Timeout <= 0 {
		c.Remote.Timeout = 90 * time.Second
	}
	if c.History.Path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.History.Path = filepath.Join(dir, "sketch-sim", "history.db")
		} else {
			c.History.Path = "history.db"
		}
	}
}
