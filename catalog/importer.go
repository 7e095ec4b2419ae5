package catalog

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	getter "github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/gymkit/hevymcp/errors"
	"github.com/gymkit/hevymcp/logger"
)

// ImportKind selects how an imported file is validated
type ImportKind int

const (
	ImportCatalog ImportKind = iota
	ImportTranslations
)

func (k ImportKind) String() string {
	if k == ImportTranslations {
		return "translations"
	}
	return "catalog"
}

// ImportResult describes an installed file
type ImportResult struct {
	Kind    ImportKind
	Source  string // source after go-getter detection
	Path    string
	Entries int // records or translations
	Bytes   int
}

// Import fetches src and installs it at dst once it parses as kind.
// src is anything go-getter understands: a local path, an http(s) URL,
// s3::, gcs:: or git:: sources. The previous dst is kept as dst+".bak".
// A file with no usable entries is rejected.
func Import(ctx context.Context, src, dst string, kind ImportKind, log *zap.SugaredLogger) (*ImportResult, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}

	detected, err := getter.Detect(src, pwd, getter.Detectors)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "unrecognised source %q: %v", src, err)
	}
	log.Debugw("Resolved import source", "source", src, "detected", detected)

	tempDir, err := os.MkdirTemp("", "hevymcp-import-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp directory")
	}
	defer os.RemoveAll(tempDir)

	tmpFile := filepath.Join(tempDir, filepath.Base(dst))
	client := &getter.Client{
		Ctx:     ctx,
		Src:     detected,
		Dst:     tmpFile,
		Pwd:     pwd,
		Mode:    getter.ClientModeFile,
		Getters: getter.Getters,
	}
	if err := client.Get(); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", src)
	}

	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read fetched file")
	}

	entries, err := validateImport(kind, data)
	if err != nil {
		return nil, errors.Wrapf(err, "%s from %s", kind, src)
	}

	if err := replaceFile(dst, data); err != nil {
		return nil, err
	}

	log.Infow("Imported file",
		"kind", kind.String(),
		"source", detected,
		logger.FieldPath, dst,
		logger.FieldCount, entries)

	return &ImportResult{
		Kind:    kind,
		Source:  detected,
		Path:    dst,
		Entries: entries,
		Bytes:   len(data),
	}, nil
}

func validateImport(kind ImportKind, data []byte) (int, error) {
	switch kind {
	case ImportTranslations:
		translations, err := ParseTranslations(bytes.NewReader(data))
		if err != nil {
			return 0, err
		}
		if len(translations) == 0 {
			return 0, errors.Wrap(errors.ErrInvalidRequest, "no translation rows")
		}
		return len(translations), nil
	default:
		file, err := ParseFile(bytes.NewReader(data))
		if err != nil {
			return 0, err
		}
		if len(file.ExerciseTemplates) == 0 {
			return 0, errors.Wrap(errors.ErrInvalidRequest, "no exercise templates")
		}
		return len(file.ExerciseTemplates), nil
	}
}
