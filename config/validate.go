package config

import (
	"net/url"

	"github.com/gymkit/hevymcp/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Hevy API: base URL must be absolute http(s)
	u, err := url.Parse(c.Hevy.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.Newf("hevy.base_url must be an absolute http(s) URL, got %q", c.Hevy.BaseURL)
	}
	if c.Hevy.TimeoutSeconds < 0 {
		return errors.Newf("hevy.timeout_seconds must be >= 0, got %d", c.Hevy.TimeoutSeconds)
	}
	// 0 = unlimited, negative = invalid
	if c.Hevy.RequestsPerSecond < 0 {
		return errors.Newf("hevy.requests_per_second must be >= 0, got %g", c.Hevy.RequestsPerSecond)
	}
	if c.Hevy.MaxRetries < 0 {
		return errors.Newf("hevy.max_retries must be >= 0, got %d", c.Hevy.MaxRetries)
	}
	if c.Hevy.PageSize < 1 || c.Hevy.PageSize > MaxPageSize {
		return errors.Newf("hevy.page_size must be between 1 and %d, got %d", MaxPageSize, c.Hevy.PageSize)
	}

	if c.Catalog.Path == "" {
		return errors.New("catalog.path cannot be empty")
	}

	// Search limit is clamped at query time, but a non-positive default is a mistake
	if c.Search.DefaultLimit < 1 {
		return errors.Newf("search.default_limit must be >= 1, got %d", c.Search.DefaultLimit)
	}

	switch c.Server.Transport {
	case TransportStdio:
	case TransportHTTP:
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			return errors.Newf("server.port must be between 1 and 65535, got %d", c.Server.Port)
		}
	default:
		return errors.Newf("server.transport must be %q or %q, got %q", TransportStdio, TransportHTTP, c.Server.Transport)
	}

	if c.Log.Verbosity < 0 {
		return errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}

	return nil
}
