package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/gymkit/hevymcp/errors"
)

// ProjectConfigName is searched for from the working directory upwards
const ProjectConfigName = "hevymcp.toml"

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper
	explicitPath  string
)

// SetConfigFile makes path the highest-precedence config file (the --config flag).
// It resets any cached configuration.
func SetConfigFile(path string) {
	mu.Lock()
	defer mu.Unlock()
	explicitPath = path
	globalConfig = nil
	viperInstance = nil
}

// Load reads the hevymcp configuration using Viper.
// The result is cached until Reset or SetConfigFile is called.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	v, err := initViper()
	if err != nil {
		return nil, err
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}

	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() (*viper.Viper, error) {
	mu.Lock()
	defer mu.Unlock()
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path, defaults applied,
// without consulting other files or the environment.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config from %s", configPath)
	}
	return config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
	explicitPath = ""
}

// initViper initializes Viper with configuration sources and defaults.
// Callers hold mu.
func initViper() (*viper.Viper, error) {
	if viperInstance != nil {
		return viperInstance, nil
	}

	v := viper.New()

	v.SetEnvPrefix("HEVYMCP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	BindSensitiveEnvVars(v)
	SetDefaults(v)

	if err := mergeConfigFiles(v, explicitPath); err != nil {
		return nil, err
	}

	viperInstance = v
	return v, nil
}

// Source describes one file in the configuration cascade
type Source struct {
	Level  string `json:"level"`
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// Sources lists the configuration files in precedence order (lowest first)
func Sources() []Source {
	mu.Lock()
	path := explicitPath
	mu.Unlock()

	var sources []Source
	add := func(level, p string) {
		if p == "" {
			return
		}
		_, err := os.Stat(p)
		sources = append(sources, Source{Level: level, Path: p, Exists: err == nil})
	}

	add("system", SystemConfigPath)
	add("user", UserConfigPath())
	add("project", findProjectConfig())
	add("flag", path)
	return sources
}

// SystemConfigPath is the lowest-precedence config file
const SystemConfigPath = "/etc/hevymcp/config.toml"

// UserConfigPath returns ~/.hevymcp/config.toml, or "" without a home directory
func UserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".hevymcp", "config.toml")
}

// findProjectConfig searches for hevymcp.toml by walking up the directory tree.
// Returns the path to the first file found, or empty string if none found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ProjectConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// mergeConfigFiles merges configuration files in precedence order.
// Precedence (lowest to highest): system < user < project < --config < env vars.
// Missing cascade files are skipped; a missing or broken --config file is an error.
func mergeConfigFiles(v *viper.Viper, explicit string) error {
	configPaths := []string{SystemConfigPath, UserConfigPath(), findProjectConfig()}

	for _, configPath := range configPaths {
		if configPath == "" {
			continue
		}
		if _, err := os.Stat(configPath); err != nil {
			continue
		}
		if err := mergeFile(v, configPath); err != nil {
			return err
		}
	}

	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return errors.Wrapf(err, "config file %s", explicit)
		}
		if err := mergeFile(v, explicit); err != nil {
			return err
		}
	}
	return nil
}

func mergeFile(v *viper.Viper, configPath string) error {
	tempViper := viper.New()
	tempViper.SetConfigFile(configPath)
	tempViper.SetConfigType("toml")

	if err := tempViper.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", configPath)
	}
	if err := v.MergeConfigMap(tempViper.AllSettings()); err != nil {
		return errors.Wrapf(err, "failed to merge config file %s", configPath)
	}
	return nil
}

// Get returns a configuration value using dot notation
func Get(key string) (interface{}, error) {
	v, err := GetViper()
	if err != nil {
		return nil, err
	}
	if !v.IsSet(key) {
		return nil, errors.Wrapf(errors.ErrNotFound, "configuration key %q", key)
	}
	return v.Get(key), nil
}
