package catalog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats(t *testing.T) {
	store := NewStore(Paths{
		Catalog:      filepath.Join("testdata", "catalog.json"),
		Translations: filepath.Join("testdata", "translations.csv"),
	}, nil)

	stats := ComputeStats(store.Snapshot())
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 1, stats.Custom)
	// the orphan translation row does not count
	assert.Equal(t, 5, stats.Translated)
	assert.InDelta(t, 83.33, stats.TranslationCoverage, 0.01)
	assert.Equal(t, 2, stats.ByMuscleGroup["quadriceps"])
	assert.Equal(t, 2, stats.ByEquipment["barbell"])
	assert.Equal(t, "2026-09-30T08:15:00Z", stats.LastUpdated)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.TranslationCoverage)
	assert.NotNil(t, stats.ByMuscleGroup)

	stats = ComputeStats(NewSnapshot([]ExerciseRecord{{ID: "0000000A", Title: "Plank"}}, nil, Metadata{}))
	assert.Equal(t, 1, stats.ByMuscleGroup["unknown"])
	assert.Equal(t, 1, stats.ByEquipment["unknown"])
}

func TestSortedCounts(t *testing.T) {
	got := SortedCounts(map[string]int{"chest": 2, "biceps": 1, "abs": 2, "calves": 5})
	require.Len(t, got, 4)
	assert.Equal(t, []Count{
		{Name: "calves", Count: 5},
		{Name: "abs", Count: 2},
		{Name: "chest", Count: 2},
		{Name: "biceps", Count: 1},
	}, got)
}
