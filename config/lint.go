package config

import (
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/gymkit/hevymcp/errors"
)

// UnknownKeys returns the keys in the TOML file at path that do not map to
// any Config field, usually typos such as "api-key" for "api_key". Viper
// ignores such keys silently.
func UnknownKeys(path string) ([]string, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse config file %s", path)
	}

	var keys []string
	for _, key := range md.Undecoded() {
		keys = append(keys, key.String())
	}
	sort.Strings(keys)
	return keys, nil
}
