package catalog

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/gymkit/hevymcp/errors"
	"github.com/gymkit/hevymcp/logger"
)

// Paths locates the files a Store loads from
type Paths struct {
	Catalog      string
	Translations string // "" = English-only
}

// Store lazily loads the catalog once and hands out immutable snapshots.
// Reload swaps in a freshly built snapshot; readers holding the previous one
// are unaffected.
type Store struct {
	paths  Paths
	logger *zap.SugaredLogger

	mu      sync.Mutex // serialises loads
	loadErr error
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store for paths. Nothing is read until first use.
func NewStore(paths Paths, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Store{paths: paths, logger: log}
}

// NewStoreFromSnapshot returns a store pre-populated with snap (tests, embedding)
func NewStoreFromSnapshot(snap *Snapshot) *Store {
	s := &Store{logger: zap.NewNop().Sugar()}
	if snap == nil {
		snap = NewSnapshot(nil, nil, Metadata{})
	}
	s.current.Store(snap)
	return s
}

// Paths returns the configured file locations
func (s *Store) Paths() Paths {
	return s.paths
}

// Snapshot returns the current catalog, loading it on first call. It never
// returns nil: when loading fails the error is logged once and an empty
// snapshot is served; Err reports the failure.
func (s *Store) Snapshot() *Snapshot {
	if snap := s.current.Load(); snap != nil {
		return snap
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if snap := s.current.Load(); snap != nil {
		return snap
	}

	snap, err := s.build()
	if err != nil {
		s.loadErr = err
		s.logger.Errorw("Failed to load exercise catalog, serving empty catalog",
			logger.FieldFile, s.paths.Catalog,
			logger.FieldError, err)
		snap = NewSnapshot(nil, nil, Metadata{})
		snap.Path = s.paths.Catalog
	}
	s.current.Store(snap)
	return snap
}

// Err returns the error from the most recent load attempt, if any
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Reload rebuilds the snapshot from disk. On failure the previous snapshot
// stays in place and the error is returned.
func (s *Store) Reload() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.build()
	if err != nil {
		s.loadErr = err
		return s.current.Load(), err
	}

	s.loadErr = nil
	s.current.Store(snap)
	return snap, nil
}

// build reads both files. A missing translations file is not an error.
func (s *Store) build() (*Snapshot, error) {
	if s.paths.Catalog == "" {
		return nil, errors.Wrap(errors.ErrNotFound, "no catalog path configured")
	}

	start := time.Now()
	file, err := LoadFile(s.paths.Catalog)
	if err != nil {
		return nil, err
	}

	var translations Translations
	if s.paths.Translations != "" {
		translations, err = LoadTranslations(s.paths.Translations)
		if err != nil {
			// Spanish titles are optional; search still works in English
			s.logger.Warnw("Translations unavailable, Spanish titles disabled",
				logger.FieldFile, s.paths.Translations,
				logger.FieldError, err)
			translations = nil
		}
	}

	snap := NewSnapshot(file.ExerciseTemplates, translations, file.Metadata)
	snap.Path = s.paths.Catalog
	snap.TranslationsPath = s.paths.Translations

	s.logger.Infow("Exercise catalog loaded",
		logger.FieldFile, s.paths.Catalog,
		logger.FieldCount, snap.Len(),
		"translations", len(snap.Translations),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return snap, nil
}
