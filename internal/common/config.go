// Package common provides shared utilities for tradevault
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for tradevault
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Logging     LoggingConfig   `toml:"logging"`
	Auth        AuthConfig      `toml:"auth"`
	Sync        SyncConfig      `toml:"sync"`
	Analytics   AnalyticsConfig `toml:"analytics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds path configuration for the 2 storage areas.
type StorageConfig struct {
	Internal AreaConfig `toml:"internal"` // Users + accounts + KV (BadgerHold)
	Ledger   AreaConfig `toml:"ledger"`   // Operations, entries, prices, transactions, symbols (BadgerHold)
}

// AreaConfig holds path configuration for a storage area.
type AreaConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `toml:"level"`
	FilePath string `toml:"file_path"`
}

// AuthConfig holds JWT auth configuration
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"`
}

// GetTokenExpiry parses and returns the token expiry duration
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// SyncConfig holds market price sync scheduler configuration
type SyncConfig struct {
	Enabled  bool   `toml:"enabled"`
	Interval string `toml:"interval"`
}

// GetInterval parses and returns the sync interval (default daily)
func (c *SyncConfig) GetInterval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// AnalyticsConfig holds analytics engine tuning.
type AnalyticsConfig struct {
	SparklinePoints int               `toml:"sparkline_points"`
	ProductLabels   map[string]string `toml:"product_labels"`
}

// defaultProductLabels is the display dictionary for product distribution.
var defaultProductLabels = map[string]string{
	"crypto":     "Criptos",
	"stock":      "Acciones",
	"etf":        "ETFs",
	"derivative": "Derivados",
}

// LoadConfig loads configuration from a TOML file, applying defaults and
// TRADEVAULT_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	config := &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Internal: AreaConfig{Path: "data/internal"},
			Ledger:   AreaConfig{Path: "data/ledger"},
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
		},
		Logging: LoggingConfig{Level: "info"},
		Auth:    AuthConfig{TokenExpiry: "24h"},
		Sync:    SyncConfig{Enabled: true, Interval: "24h"},
		Analytics: AnalyticsConfig{
			SparklinePoints: 30,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if len(config.Analytics.ProductLabels) == 0 {
		config.Analytics.ProductLabels = defaultProductLabels
	}
	if config.Analytics.SparklinePoints <= 0 {
		config.Analytics.SparklinePoints = 30
	}

	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required (set TRADEVAULT_JWT_SECRET or the config file)")
	}

	return config, nil
}

// applyEnvOverrides applies TRADEVAULT_* environment variable overrides.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("TRADEVAULT_ENV"); v != "" {
		config.Environment = v
	}
	if v := os.Getenv("TRADEVAULT_HOST"); v != "" {
		config.Server.Host = v
	}
	if v := os.Getenv("TRADEVAULT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("TRADEVAULT_INTERNAL_PATH"); v != "" {
		config.Storage.Internal.Path = v
	}
	if v := os.Getenv("TRADEVAULT_LEDGER_PATH"); v != "" {
		config.Storage.Ledger.Path = v
	}
	if v := os.Getenv("TRADEVAULT_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("TRADEVAULT_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("TRADEVAULT_EODHD_API_KEY"); v != "" {
		config.Clients.EODHD.APIKey = v
	}
	if v := os.Getenv("TRADEVAULT_SYNC_INTERVAL"); v != "" {
		config.Sync.Interval = v
	}
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
