// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for gatechat.
//
// Configuration sources, in order of precedence:
//   - GATECHAT_* environment variables
//   - ~/.gatechat/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/gatechat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete gatechat configuration.
type Config struct {
	// DataDir is where stores and keys live (default ~/.gatechat)
	DataDir string `toml:"data_dir"`

	Gateway GatewayConfig `toml:"gateway"`
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`
	UI      UIConfig      `toml:"ui"`
}

// GatewayConfig contains gateway client configuration.
type GatewayConfig struct {
	// BaseURL is the gateway API base URL
	BaseURL string `toml:"base_url"`
	// TimeoutSecs bounds non-streaming requests
	TimeoutSecs int `toml:"timeout_secs"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is "file" (one file per store) or "sqlite" (single database)
	Backend string `toml:"backend"`
	// Encrypt wraps the backend with at-rest encryption
	Encrypt bool `toml:"encrypt"`
}

// ServerConfig contains the local proxy server configuration.
type ServerConfig struct {
	Port int `toml:"port"`
}

// UIConfig contains terminal UI configuration.
type UIConfig struct {
	// Theme is "dark" or "light"
	Theme string `toml:"theme"`
	// RenderMarkdown enables markdown rendering of assistant replies
	RenderMarkdown bool `toml:"render_markdown"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			BaseURL:     "https://ai-gateway.vercel.sh/v1",
			TimeoutSecs: 60,
		},
		Storage: StorageConfig{
			Backend: "file",
			Encrypt: true,
		},
		Server: ServerConfig{
			Port: 8787,
		},
		UI: UIConfig{
			Theme:          "dark",
			RenderMarkdown: true,
		},
	}
}

// Timeout returns the gateway request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSecs) * time.Second
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the gatechat data directory (~/.gatechat).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".gatechat"), nil
}

// ConfigPath returns the path of the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the data directory with owner-only permissions.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from the default path, applying defaults and
// environment overrides. A missing file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads configuration from an explicit path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if cfg.DataDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies GATECHAT_* environment variables:
//   - GATECHAT_GATEWAY_URL: overrides gateway.base_url
//   - GATECHAT_DATA_DIR: overrides data_dir
//   - GATECHAT_STORAGE: overrides storage.backend
//   - GATECHAT_NO_ENCRYPT: "1" or "true" disables at-rest encryption
//   - GATECHAT_PORT: overrides server.port
//   - GATECHAT_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if url := os.Getenv("GATECHAT_GATEWAY_URL"); url != "" {
		c.Gateway.BaseURL = url
	}
	if dir := os.Getenv("GATECHAT_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if backend := os.Getenv("GATECHAT_STORAGE"); backend != "" {
		c.Storage.Backend = backend
	}
	if v := os.Getenv("GATECHAT_NO_ENCRYPT"); v == "1" || strings.EqualFold(v, "true") {
		c.Storage.Encrypt = false
	}
	if p := os.Getenv("GATECHAT_PORT"); p != "" {
		if port, err := strconv.Atoi(p); err == nil {
			c.Server.Port = port
		}
	}
	if theme := os.Getenv("GATECHAT_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Gateway.BaseURL, "http://") && !strings.HasPrefix(c.Gateway.BaseURL, "https://") {
		return fmt.Errorf("gateway.base_url must be an http(s) URL, got %q", c.Gateway.BaseURL)
	}
	if c.Gateway.TimeoutSecs <= 0 {
		return fmt.Errorf("gateway.timeout_secs must be positive, got %d", c.Gateway.TimeoutSecs)
	}
	if c.Storage.Backend != "file" && c.Storage.Backend != "sqlite" {
		return fmt.Errorf("storage.backend must be \"file\" or \"sqlite\", got %q", c.Storage.Backend)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		return fmt.Errorf("ui.theme must be \"dark\" or \"light\", got %q", c.UI.Theme)
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default path atomically.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration to an explicit path atomically.
func SaveToPath(cfg *Config, path string) error {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return util.AtomicWriteFile(path, []byte(sb.String()), 0600)
}
