// Package config loads hevymcp settings from TOML files and HEVYMCP_* env vars.
package config

import "strings"

// Config represents the hevymcp configuration
type Config struct {
	Hevy    HevyConfig    `mapstructure:"hevy" toml:"hevy" json:"hevy" yaml:"hevy"`
	Catalog CatalogConfig `mapstructure:"catalog" toml:"catalog" json:"catalog" yaml:"catalog"`
	Search  SearchConfig  `mapstructure:"search" toml:"search" json:"search" yaml:"search"`
	Server  ServerConfig  `mapstructure:"server" toml:"server" json:"server" yaml:"server"`
	Log     LogConfig     `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
}

// HevyConfig configures the Hevy public API client
type HevyConfig struct {
	APIKey            string  `mapstructure:"api_key" toml:"api_key" json:"api_key" yaml:"api_key"`
	BaseURL           string  `mapstructure:"base_url" toml:"base_url" json:"base_url" yaml:"base_url"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" toml:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second"` // 0 = unlimited
	MaxRetries        int     `mapstructure:"max_retries" toml:"max_retries" json:"max_retries" yaml:"max_retries"`
	PageSize          int     `mapstructure:"page_size" toml:"page_size" json:"page_size" yaml:"page_size"` // Hevy caps this at 100
}

// CatalogConfig locates the exercise template snapshot and its translations
type CatalogConfig struct {
	Path             string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
	TranslationsPath string `mapstructure:"translations_path" toml:"translations_path" json:"translations_path" yaml:"translations_path"` // empty = no Spanish titles
	Watch            bool   `mapstructure:"watch" toml:"watch" json:"watch" yaml:"watch"`
}

// SearchConfig tunes the exercise search tool
type SearchConfig struct {
	DefaultLimit   int    `mapstructure:"default_limit" toml:"default_limit" json:"default_limit" yaml:"default_limit"`
	DictionaryPath string `mapstructure:"dictionary_path" toml:"dictionary_path" json:"dictionary_path" yaml:"dictionary_path"` // YAML overrides merged over the built-in table
}

// ServerConfig configures the MCP transport
type ServerConfig struct {
	Transport string `mapstructure:"transport" toml:"transport" json:"transport" yaml:"transport"` // stdio or http
	Host      string `mapstructure:"host" toml:"host" json:"host" yaml:"host"`
	Port      int    `mapstructure:"port" toml:"port" json:"port" yaml:"port"`
}

// LogConfig configures logger.Initialize
type LogConfig struct {
	JSON      bool `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
	Verbosity int  `mapstructure:"verbosity" toml:"verbosity" json:"verbosity" yaml:"verbosity"`
}

// Transport names
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Defaults
const (
	DefaultBaseURL          = "https://api.hevyapp.com"
	DefaultCatalogPath      = "templates-hevy-exercises.json"
	DefaultTranslationsPath = "templates_hevy_exercises.csv"
	DefaultServerPort       = 3000
	DefaultSearchLimit      = 10
	MaxPageSize             = 100
)

// HasAPIKey reports whether remote Hevy calls are possible
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.Hevy.APIKey) != ""
}

// Redacted returns a copy safe to print: the API key keeps only its last 4 characters.
func (c Config) Redacted() Config {
	key := c.Hevy.APIKey
	switch {
	case key == "":
	case len(key) <= 4:
		c.Hevy.APIKey = "****"
	default:
		c.Hevy.APIKey = strings.Repeat("*", len(key)-4) + key[len(key)-4:]
	}
	return c
}
