// Package catalog holds the locally cached Hevy exercise template catalog:
// the JSON snapshot, the Spanish title translations, and the store that
// serves them to the search tool.
package catalog

import (
	"regexp"
	"strings"
	"time"

	"github.com/gymkit/hevymcp/hevy"
)

// ExerciseRecord is one exercise template as stored in the snapshot file.
// Field names follow the Hevy API (snake_case).
type ExerciseRecord struct {
	ID                    string   `json:"id"`
	Title                 string   `json:"title"`
	Type                  string   `json:"type,omitempty"`
	PrimaryMuscleGroup    string   `json:"primary_muscle_group,omitempty"`
	SecondaryMuscleGroups []string `json:"secondary_muscle_groups,omitempty"`
	Equipment             string   `json:"equipment,omitempty"`
	IsCustom              bool     `json:"is_custom"`
}

// FromTemplate converts an API exercise template into a catalog record
func FromTemplate(t hevy.ExerciseTemplate) ExerciseRecord {
	return ExerciseRecord{
		ID:                    t.ID,
		Title:                 t.Title,
		Type:                  t.Type,
		PrimaryMuscleGroup:    t.PrimaryMuscleGroup,
		SecondaryMuscleGroups: t.SecondaryMuscleGroups,
		Equipment:             t.Equipment,
		IsCustom:              t.IsCustom,
	}
}

// Metadata describes how a snapshot file was produced
type Metadata struct {
	TotalExercises        int     `json:"total_exercises,omitempty"`
	LastUpdated           string  `json:"last_updated,omitempty"` // RFC 3339
	GeneratedBy           string  `json:"generated_by,omitempty"`
	Source                string  `json:"source,omitempty"`
	MaxPageSize           int     `json:"max_page_size,omitempty"`
	TotalPagesFetched     int     `json:"total_pages_fetched,omitempty"`
	GenerationTimeSeconds float64 `json:"generation_time_seconds,omitempty"`
}

// File is the on-disk snapshot format
type File struct {
	Page              int              `json:"page,omitempty"`
	PageCount         int              `json:"page_count,omitempty"`
	ExerciseTemplates []ExerciseRecord `json:"exercise_templates"`
	Metadata          Metadata         `json:"metadata"`
}

// Translations maps exercise template id to Spanish title
type Translations map[string]string

// Snapshot is an immutable view of the catalog and its translations.
// Never mutate a Snapshot after NewSnapshot returns it.
type Snapshot struct {
	Records          []ExerciseRecord
	Translations     Translations
	Metadata         Metadata
	Path             string
	TranslationsPath string
	LoadedAt         time.Time

	index map[string]int
}

// NewSnapshot builds a Snapshot and its id index. Translation ids absent
// from records are kept but never consulted.
func NewSnapshot(records []ExerciseRecord, translations Translations, meta Metadata) *Snapshot {
	if translations == nil {
		translations = Translations{}
	}
	index := make(map[string]int, len(records))
	for i, r := range records {
		key := strings.ToUpper(r.ID)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return &Snapshot{
		Records:      records,
		Translations: translations,
		Metadata:     meta,
		LoadedAt:     time.Now(),
		index:        index,
	}
}

// Len returns the number of records
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Lookup finds a record by id, case-insensitively
func (s *Snapshot) Lookup(id string) (ExerciseRecord, bool) {
	if s == nil {
		return ExerciseRecord{}, false
	}
	i, ok := s.index[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return ExerciseRecord{}, false
	}
	return s.Records[i], true
}

// SpanishTitle returns the translated title for id, or ""
func (s *Snapshot) SpanishTitle(id string) string {
	if s == nil {
		return ""
	}
	return s.Translations[id]
}

// LastUpdated parses Metadata.LastUpdated; zero when absent or malformed
func (s *Snapshot) LastUpdated() time.Time {
	if s == nil || s.Metadata.LastUpdated == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s.Metadata.LastUpdated)
	if err != nil {
		return time.Time{}
	}
	return t
}

var templateIDPattern = regexp.MustCompile(`^[0-9A-Fa-f]{8}$`)

// IsValidExerciseTemplateID reports whether id has the Hevy template id
// shape: exactly 8 hexadecimal characters.
func IsValidExerciseTemplateID(id string) bool {
	return templateIDPattern.MatchString(id)
}
