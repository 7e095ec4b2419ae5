package commands

import (
	"github.com/gymkit/hevymcp/catalog"
	"github.com/gymkit/hevymcp/config"
	"github.com/gymkit/hevymcp/errors"
	"github.com/gymkit/hevymcp/hevy"
	"github.com/gymkit/hevymcp/logger"
	"github.com/gymkit/hevymcp/search"
)

// loadConfig loads and validates the effective configuration
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// newStore builds the catalog store for cfg. Nothing is read until first use.
func newStore(cfg *config.Config) *catalog.Store {
	return catalog.NewStore(catalog.Paths{
		Catalog:      cfg.Catalog.Path,
		Translations: cfg.Catalog.TranslationsPath,
	}, logger.ComponentLogger("catalog"))
}

// newRanker builds the ranker with the built-in dictionary, merged with the
// overrides file when one is configured.
func newRanker(cfg *config.Config) (*search.Ranker, error) {
	dict := search.DefaultDictionary()
	if cfg.Search.DictionaryPath != "" {
		overrides, err := search.LoadDictionary(cfg.Search.DictionaryPath)
		if err != nil {
			return nil, errors.WithHint(
				errors.Wrap(err, "failed to load search dictionary"),
				"fix or unset search.dictionary_path",
			)
		}
		dict = dict.Merge(overrides)
		logger.Infow("Loaded dictionary overrides",
			logger.FieldPath, cfg.Search.DictionaryPath,
			logger.FieldCount, len(overrides))
	}

	ranker := search.NewRanker(dict)
	ranker.SetLogger(logger.ComponentLogger("search"))
	return ranker, nil
}

// newHevyClient creates a Hevy API client from cfg
func newHevyClient(cfg *config.Config) (*hevy.Client, error) {
	return hevy.NewClient(hevy.Config{
		APIKey:            cfg.Hevy.APIKey,
		BaseURL:           cfg.Hevy.BaseURL,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.Hevy.RequestsPerSecond,
		MaxRetries:        cfg.Hevy.MaxRetries,
		Logger:            logger.ComponentLogger("hevy"),
	})
}
