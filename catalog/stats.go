package catalog

import "sort"

// Stats summarises a snapshot for the get-catalog-stats tool and CLI
type Stats struct {
	Total               int            `json:"total"`
	Custom              int            `json:"custom"`
	Translated          int            `json:"translated"`
	TranslationCoverage float64        `json:"translationCoverage"` // percent of records with a Spanish title
	ByMuscleGroup       map[string]int `json:"byMuscleGroup"`
	ByEquipment         map[string]int `json:"byEquipment"`
	LastUpdated         string         `json:"lastUpdated,omitempty"`
	Path                string         `json:"path,omitempty"`
}

// ComputeStats counts records, translations and groupings
func ComputeStats(s *Snapshot) Stats {
	stats := Stats{
		ByMuscleGroup: map[string]int{},
		ByEquipment:   map[string]int{},
	}
	if s == nil {
		return stats
	}

	stats.Total = len(s.Records)
	stats.LastUpdated = s.Metadata.LastUpdated
	stats.Path = s.Path

	for _, r := range s.Records {
		if r.IsCustom {
			stats.Custom++
		}
		if s.Translations[r.ID] != "" {
			stats.Translated++
		}
		stats.ByMuscleGroup[orUnknown(r.PrimaryMuscleGroup)]++
		stats.ByEquipment[orUnknown(r.Equipment)]++
	}

	if stats.Total > 0 {
		stats.TranslationCoverage = float64(stats.Translated) * 100 / float64(stats.Total)
	}
	return stats
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// Count is a name/count pair
type Count struct {
	Name  string
	Count int
}

// SortedCounts orders a grouping by count descending, then name
func SortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
