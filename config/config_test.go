package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymkit/hevymcp/errors"
)

func TestLoad_Defaults(t *testing.T) {
	// Isolated viper instance without user/system config
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.Hevy.BaseURL)
	assert.Equal(t, 30, cfg.Hevy.TimeoutSeconds)
	assert.Equal(t, 2.0, cfg.Hevy.RequestsPerSecond)
	assert.Equal(t, MaxPageSize, cfg.Hevy.PageSize)
	assert.Equal(t, DefaultCatalogPath, cfg.Catalog.Path)
	assert.Equal(t, DefaultTranslationsPath, cfg.Catalog.TranslationsPath)
	assert.Equal(t, DefaultSearchLimit, cfg.Search.DefaultLimit)
	assert.Equal(t, TransportStdio, cfg.Server.Transport)
	assert.False(t, cfg.HasAPIKey())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "zero rate limit is valid (unlimited)", mutate: func(c *Config) { c.Hevy.RequestsPerSecond = 0 }},
		{name: "http transport", mutate: func(c *Config) { c.Server.Transport = TransportHTTP }},
		{
			name:    "relative base url",
			mutate:  func(c *Config) { c.Hevy.BaseURL = "api.hevyapp.com" },
			wantErr: "hevy.base_url",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.Hevy.RequestsPerSecond = -1 },
			wantErr: "hevy.requests_per_second",
		},
		{
			name:    "page size above hevy cap",
			mutate:  func(c *Config) { c.Hevy.PageSize = 101 },
			wantErr: "hevy.page_size",
		},
		{
			name:    "empty catalog path",
			mutate:  func(c *Config) { c.Catalog.Path = "" },
			wantErr: "catalog.path",
		},
		{
			name:    "zero default limit",
			mutate:  func(c *Config) { c.Search.DefaultLimit = 0 },
			wantErr: "search.default_limit",
		},
		{
			name:    "unknown transport",
			mutate:  func(c *Config) { c.Server.Transport = "sse" },
			wantErr: "server.transport",
		},
		{
			name: "http transport needs a port",
			mutate: func(c *Config) {
				c.Server.Transport = TransportHTTP
				c.Server.Port = 0
			},
			wantErr: "server.port",
		},
		{
			name:    "negative verbosity",
			mutate:  func(c *Config) { c.Log.Verbosity = -1 },
			wantErr: "log.verbosity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hevymcp.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[catalog]
path = "/data/catalog.json"
watch = true

[server]
transport = "http"
port = 8080
`), 0600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/catalog.json", cfg.Catalog.Path)
	assert.True(t, cfg.Catalog.Watch)
	assert.Equal(t, TransportHTTP, cfg.Server.Transport)
	assert.Equal(t, 8080, cfg.Server.Port)
	// Untouched sections keep their defaults
	assert.Equal(t, DefaultBaseURL, cfg.Hevy.BaseURL)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_Cascade(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	nested := filepath.Join(project, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".hevymcp"), 0750))

	require.NoError(t, os.WriteFile(filepath.Join(home, ".hevymcp", "config.toml"), []byte(`
[hevy]
timeout_seconds = 10

[catalog]
path = "user.json"
`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(project, ProjectConfigName), []byte(`
[hevy]
base_url = "https://hevy.example.test"

[catalog]
path = "project.json"
`), 0600))

	t.Setenv("HOME", home)
	t.Setenv("HEVY_API_KEY", "secret-key-1234")
	t.Setenv("HEVYMCP_SEARCH_DEFAULT_LIMIT", "5")
	t.Chdir(nested)

	Reset()
	t.Cleanup(Reset)

	cfg, err := Load()
	require.NoError(t, err)

	// project wins over user, sibling keys from user survive the merge
	assert.Equal(t, "project.json", cfg.Catalog.Path)
	assert.Equal(t, "https://hevy.example.test", cfg.Hevy.BaseURL)
	assert.Equal(t, 10, cfg.Hevy.TimeoutSeconds)
	// env wins over files
	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.Equal(t, "secret-key-1234", cfg.Hevy.APIKey)

	value, err := Get("catalog.path")
	require.NoError(t, err)
	assert.Equal(t, "project.json", value)

	sources := Sources()
	require.NotEmpty(t, sources)
	var foundProject bool
	for _, s := range sources {
		if s.Level == "project" {
			foundProject = true
			assert.True(t, s.Exists)
		}
	}
	assert.True(t, foundProject)
}

func TestSetConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Cleanup(Reset)

	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[search]\ndefault_limit = 25\n"), 0600))

	SetConfigFile(path)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Search.DefaultLimit)

	SetConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	_, err = Load()
	assert.Error(t, err)
}

func TestGet_UnknownKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	Reset()
	t.Cleanup(Reset)

	_, err := Get("no.such.key")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestWriteFile_RotatesBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	for limit := 1; limit <= 5; limit++ {
		cfg := Defaults()
		cfg.Search.DefaultLimit = limit
		require.NoError(t, WriteFile(path, cfg))
	}

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Search.DefaultLimit)

	back1, err := LoadFromFile(path + ".back1")
	require.NoError(t, err)
	assert.Equal(t, 4, back1.Search.DefaultLimit)

	back3, err := LoadFromFile(path + ".back3")
	require.NoError(t, err)
	assert.Equal(t, 2, back3.Search.DefaultLimit)

	_, err = os.Stat(path + ".back4")
	assert.True(t, os.IsNotExist(err))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestInitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	require.NoError(t, InitFile(path, false))

	err := InitFile(path, false)
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllHints(err))

	require.NoError(t, InitFile(path, true))
	_, err = os.Stat(path + ".back1")
	assert.NoError(t, err)
}

func TestRedacted(t *testing.T) {
	cfg := Defaults()
	cfg.Hevy.APIKey = "abcdef123456"

	red := cfg.Redacted()
	assert.Equal(t, "********3456", red.Hevy.APIKey)
	assert.Equal(t, "abcdef123456", cfg.Hevy.APIKey, "original untouched")

	cfg.Hevy.APIKey = "abc"
	assert.Equal(t, "****", cfg.Redacted().Hevy.APIKey)

	cfg.Hevy.APIKey = ""
	assert.Equal(t, "", cfg.Redacted().Hevy.APIKey)
}

func TestAddress(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestUnknownKeys(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"clean", "[catalog]\npath = \"c.json\"\n[server]\nport = 8080\n", nil},
		{"typos", "[hevy]\napi-key = \"k\"\n[server]\nporrt = 8080\n", []string{"hevy.api-key", "server.porrt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			keys, err := UnknownKeys(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, keys)
		})
	}

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[server\n"), 0600))
	_, err := UnknownKeys(bad)
	assert.Error(t, err)
}
