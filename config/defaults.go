package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Hevy API defaults
	v.SetDefault("hevy.api_key", "")
	v.SetDefault("hevy.base_url", DefaultBaseURL)
	v.SetDefault("hevy.timeout_seconds", 30)
	v.SetDefault("hevy.requests_per_second", 2.0) // one page every 500ms
	v.SetDefault("hevy.max_retries", 3)
	v.SetDefault("hevy.page_size", MaxPageSize)

	// Catalog defaults
	v.SetDefault("catalog.path", DefaultCatalogPath)
	v.SetDefault("catalog.translations_path", DefaultTranslationsPath)
	v.SetDefault("catalog.watch", false)

	// Search defaults
	v.SetDefault("search.default_limit", DefaultSearchLimit)
	v.SetDefault("search.dictionary_path", "")

	// Server defaults
	v.SetDefault("server.transport", TransportStdio)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", DefaultServerPort)

	// Log defaults
	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)
}

func newDefaultsViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

// BindSensitiveEnvVars binds settings that commonly come from the environment
// under names that predate the HEVYMCP_ prefix.
func BindSensitiveEnvVars(v *viper.Viper) {
	_ = v.BindEnv("hevy.api_key", "HEVYMCP_HEVY_API_KEY", "HEVY_API_KEY")
	_ = v.BindEnv("server.transport", "HEVYMCP_SERVER_TRANSPORT", "MCP_TRANSPORT")
	_ = v.BindEnv("server.port", "HEVYMCP_SERVER_PORT", "PORT")
}

// Timeout returns the per-request HTTP timeout
func (c *Config) Timeout() time.Duration {
	if c.Hevy.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Hevy.TimeoutSeconds) * time.Second
}

// Address returns host:port for the HTTP transport
func (c *Config) Address() string {
	port := c.Server.Port
	if port == 0 {
		port = DefaultServerPort
	}
	return fmt.Sprintf("%s:%d", c.Server.Host, port)
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Catalog: %s, Transport: %s, APIKey: %t}",
		c.Catalog.Path, c.Server.Transport, c.HasAPIKey())
}
