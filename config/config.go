// Package config implements the TOML-backed configuration struct this
// tool loads once at startup: load defaults, then overlay the on-disk
// file if one exists, with platform-specific config-path discovery.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds every implementation-defined tunable: recursion depth
// cap, memory ceiling, stack depth cap, signature file location, and
// the serving surface's port/log level.
type Config struct {
	Emulation struct {
		MaxDepth           int `toml:"max_depth"`
		MemoryCeilingBytes int `toml:"memory_ceiling_bytes"`
		MaxStackDepth      int `toml:"max_stack_depth"`
	} `toml:"emulation"`

	Signatures struct {
		FilePath string `toml:"file_path"`
	} `toml:"signatures"`

	Server struct {
		Port     int    `toml:"port"`
		LogLevel string `toml:"log_level"`
	} `toml:"server"`
}

// DefaultConfig returns a Config with conservative emulation defaults
// (max_depth 20, memory ceiling 2^24 bytes) plus this implementation's
// own choices for the server surface.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Emulation.MaxDepth = 20
	cfg.Emulation.MemoryCeilingBytes = 1 << 24
	cfg.Emulation.MaxStackDepth = 1024

	cfg.Signatures.FilePath = ""

	cfg.Server.Port = 8080
	cfg.Server.LogLevel = "info"

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "evmcfg")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "evmcfg")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, falling back to defaults
// when the file doesn't exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
