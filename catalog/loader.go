package catalog

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/gymkit/hevymcp/errors"
)

// LoadFile reads a snapshot file from disk
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithHint(
				errors.Wrapf(errors.ErrNotFound, "catalog file %s", path),
				"run `hevymcp catalog update` to download the exercise templates",
			)
		}
		return nil, errors.Wrapf(err, "failed to open catalog %s", path)
	}
	defer f.Close()

	file, err := ParseFile(f)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return file, nil
}

// ParseFile decodes a snapshot. Records without an id or title are dropped.
func ParseFile(r io.Reader) (*File, error) {
	var file File
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, errors.Wrap(err, "failed to decode catalog JSON")
	}

	kept := file.ExerciseTemplates[:0]
	for _, rec := range file.ExerciseTemplates {
		if strings.TrimSpace(rec.ID) == "" || strings.TrimSpace(rec.Title) == "" {
			continue
		}
		kept = append(kept, rec)
	}
	file.ExerciseTemplates = kept
	return &file, nil
}

// LoadTranslations reads the id,title,title_spanish CSV
func LoadTranslations(path string) (Translations, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "translations file %s", path)
		}
		return nil, errors.Wrapf(err, "failed to open translations %s", path)
	}
	defer f.Close()

	translations, err := ParseTranslations(f)
	if err != nil {
		return nil, errors.Wrapf(err, "translations %s", path)
	}
	return translations, nil
}

// ParseTranslations decodes translation rows: id, English title, Spanish title.
// A leading header row (first cell "id") is skipped. Unquoted commas in the
// Spanish title are kept: every cell after the second belongs to it.
// When an id repeats, the last row wins.
func ParseTranslations(r io.Reader) (Translations, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	translations := Translations{}
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read translations CSV")
		}

		if first {
			first = false
			if len(row) > 0 && strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(row[0], "\ufeff")), "id") {
				continue
			}
		}

		if len(row) < 3 {
			continue
		}
		id := strings.TrimSpace(row[0])
		spanish := strings.TrimSpace(strings.Join(row[2:], ","))
		if id == "" || spanish == "" {
			continue
		}
		translations[id] = spanish
	}
	return translations, nil
}
