package catalog

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/gymkit/hevymcp/errors"
	"github.com/gymkit/hevymcp/hevy"
	"github.com/gymkit/hevymcp/logger"
)

// TemplateLister is the slice of the Hevy client the fetcher needs
type TemplateLister interface {
	ListExerciseTemplates(ctx context.Context, page, pageSize int) (*hevy.ExerciseTemplatePage, error)
}

var _ TemplateLister = (*hevy.Client)(nil)

// maxPages stops a misbehaving server from paging forever
const maxPages = 1000

// FetchResult is the outcome of paging through the exercise templates
type FetchResult struct {
	Records  []ExerciseRecord
	Pages    int
	PageSize int
	Elapsed  time.Duration
	// Partial is set when a page after the first failed; Records holds
	// everything fetched before the failure.
	Partial error
}

// ProgressFunc reports each fetched page
type ProgressFunc func(page, pageCount, fetched int)

// Fetcher downloads the full exercise template catalog. Request pacing is
// left to the client's rate limiter.
type Fetcher struct {
	client   TemplateLister
	pageSize int
	logger   *zap.SugaredLogger
	progress ProgressFunc
}

// NewFetcher creates a fetcher. pageSize is clamped to 1..hevy.MaxPageSize.
func NewFetcher(client TemplateLister, pageSize int, log *zap.SugaredLogger) *Fetcher {
	if pageSize < 1 || pageSize > hevy.MaxPageSize {
		pageSize = hevy.MaxPageSize
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Fetcher{client: client, pageSize: pageSize, logger: log}
}

// OnProgress sets a per-page callback
func (f *Fetcher) OnProgress(fn ProgressFunc) {
	f.progress = fn
}

// Fetch pages through GET /v1/exercise_templates until a short or empty page.
// A failure on the first page is fatal; a later failure keeps what was
// fetched and records it in FetchResult.Partial.
func (f *Fetcher) Fetch(ctx context.Context) (*FetchResult, error) {
	start := time.Now()
	result := &FetchResult{PageSize: f.pageSize}

	for page := 1; page <= maxPages; page++ {
		resp, err := f.client.ListExerciseTemplates(ctx, page, f.pageSize)
		if err != nil {
			if page == 1 || ctx.Err() != nil {
				return nil, errors.Wrap(err, "fetching exercise templates")
			}
			f.logger.Warnw("Stopping catalog fetch early, keeping partial result",
				logger.FieldPage, page,
				logger.FieldCount, len(result.Records),
				logger.FieldError, err)
			result.Partial = err
			break
		}

		result.Pages = page
		for _, t := range resp.ExerciseTemplates {
			result.Records = append(result.Records, FromTemplate(t))
		}

		f.logger.Debugw("Fetched exercise template page",
			logger.FieldPage, page,
			logger.FieldCount, len(resp.ExerciseTemplates),
			logger.FieldTotalCount, len(result.Records))
		if f.progress != nil {
			f.progress(page, resp.PageCount, len(result.Records))
		}

		if len(resp.ExerciseTemplates) < f.pageSize {
			break
		}
		if resp.PageCount > 0 && page >= resp.PageCount {
			break
		}
	}

	result.Elapsed = time.Since(start)
	return result, nil
}

// Save writes result as a snapshot file, keeping the previous one as
// path+".bak".
func Save(path string, result *FetchResult, generatedBy string) (*File, error) {
	file := &File{
		Page:              1,
		PageCount:         int(math.Ceil(float64(len(result.Records)) / float64(max(result.PageSize, 1)))),
		ExerciseTemplates: result.Records,
		Metadata: Metadata{
			TotalExercises:        len(result.Records),
			LastUpdated:           time.Now().UTC().Format(time.RFC3339),
			GeneratedBy:           generatedBy,
			Source:                "Hevy API v1",
			MaxPageSize:           result.PageSize,
			TotalPagesFetched:     result.Pages,
			GenerationTimeSeconds: math.Round(result.Elapsed.Seconds()*100) / 100,
		},
	}
	if file.ExerciseTemplates == nil {
		file.ExerciseTemplates = []ExerciseRecord{}
	}

	data, err := json.MarshalIndent(file, "", "\t")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode catalog")
	}

	if err := replaceFile(path, data); err != nil {
		return nil, err
	}
	return file, nil
}

// replaceFile installs data at path. An existing file is copied to
// path+".bak" first and the new content lands via rename so readers never
// see a half-written file.
func replaceFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return errors.Wrap(err, "failed to create catalog directory")
	}

	if old, err := os.ReadFile(path); err == nil {
		if err := os.WriteFile(path+".bak", old, 0644); err != nil {
			return errors.Wrap(err, "failed to write backup")
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.Wrap(err, "failed to set file permissions")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}
