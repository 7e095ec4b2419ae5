package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/gymkit/hevymcp/errors"
	"github.com/gymkit/hevymcp/logger"
)

// backupCount is how many rotated copies (.back1 .. .back3) are kept
const backupCount = 3

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	// .back3 -> delete, .back2 -> .back3, .back1 -> .back2, current -> .back1
	oldest := backupName(configPath, backupCount)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		logger.Warnw("Failed to delete old config backup", logger.FieldFile, oldest, logger.FieldError, err)
	}

	for i := backupCount - 1; i >= 1; i-- {
		from := backupName(configPath, i)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, backupName(configPath, i+1)); err != nil {
			return errors.Wrapf(err, "failed to rotate %s", from)
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(backupName(configPath, 1), content, 0600); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}

func backupName(configPath string, n int) string {
	return configPath + ".back" + strconv.Itoa(n)
}

// WriteFile marshals cfg to TOML at configPath, rotating backups of any
// existing file first. The file may hold an API key and is written 0600.
func WriteFile(configPath string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	header := []byte("# hevymcp configuration\n")
	if err := os.WriteFile(configPath, append(header, data...), 0600); err != nil {
		return errors.Wrapf(err, "failed to write config %s", configPath)
	}
	return nil
}

// Defaults returns a Config holding only built-in defaults
func Defaults() *Config {
	v := newDefaultsViper()
	cfg, err := LoadWithViper(v)
	if err != nil {
		// Defaults always decode; a failure here is a programming error
		panic(err)
	}
	return cfg
}

// InitFile writes a default config to configPath. It refuses to overwrite
// an existing file unless force is set.
func InitFile(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.WithHint(
			errors.Newf("config file %s already exists", configPath),
			"pass --force to overwrite it (a .back1 copy is kept)",
		)
	}
	return WriteFile(configPath, Defaults())
}
