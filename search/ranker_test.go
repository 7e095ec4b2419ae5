package search

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gymkit/hevymcp/catalog"
	"github.com/gymkit/hevymcp/errors"
	"github.com/gymkit/hevymcp/logger"
)

var exampleRecords = []catalog.ExerciseRecord{
	{ID: "A1", Title: "Bench Press"},
	{ID: "B2", Title: "Leg Press"},
}

var exampleTranslations = catalog.Translations{"A1": "Press de banca"}

func fixtureSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	store := catalog.NewStore(catalog.Paths{
		Catalog:      filepath.Join("..", "catalog", "testdata", "catalog.json"),
		Translations: filepath.Join("..", "catalog", "testdata", "translations.csv"),
	}, nil)
	snap := store.Snapshot()
	require.NoError(t, store.Err())
	require.Equal(t, 6, snap.Len())
	return snap
}

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

func scores(results []Result) []int {
	out := make([]int, len(results))
	for i, r := range results {
		out[i] = r.RelevanceScore
	}
	return out
}

func TestSearch_ExampleScenario(t *testing.T) {
	r := NewRanker(nil)

	tests := []struct {
		query      string
		translated string
	}{
		{"bench press", "bench press"},
		{"press banca", "bench press"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := r.Search(tt.query, 5, exampleRecords, exampleTranslations)
			require.NoError(t, err)

			assert.Equal(t, tt.query, resp.Query)
			assert.Equal(t, tt.translated, resp.TranslatedQuery)
			// Leg Press keeps one of two words: 1/2 * 80
			assert.Equal(t, []string{"A1", "B2"}, ids(resp.Results))
			assert.Equal(t, []int{100, 40}, scores(resp.Results))
			assert.Equal(t, "Press de banca", resp.Results[0].SpanishTitle)
			assert.Empty(t, resp.Results[1].SpanishTitle)
			assert.Empty(t, resp.Message)
		})
	}
}

func TestSearch_SpanishTitleWithoutDictionary(t *testing.T) {
	r := NewRanker(NewDictionary(nil))

	resp, err := r.Search("press banca", 5, exampleRecords, exampleTranslations)
	require.NoError(t, err)

	require.Equal(t, []string{"A1", "B2"}, ids(resp.Results))
	// both words present in "press de banca": 2/2 * 80 + 10
	assert.Equal(t, 90, resp.Results[0].RelevanceScore)
	assert.Equal(t, "spanish", resp.Results[0].MatchedOn)
	assert.Equal(t, "english", resp.Results[1].MatchedOn)
}

func TestSearch_MissingTranslations(t *testing.T) {
	snap := fixtureSnapshot(t)
	r := NewRanker(nil)

	resp, err := r.Search("squat", 5, snap.Records, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"D04AC939"}, ids(resp.Results))
	assert.Equal(t, 95, resp.Results[0].RelevanceScore)
	assert.Empty(t, resp.Results[0].SpanishTitle)

	withSpanish, err := r.SearchSnapshot("squat", 5, snap)
	require.NoError(t, err)
	require.NotEmpty(t, withSpanish.Results)
	assert.Equal(t, "D04AC939", withSpanish.Results[0].ID)
	assert.Equal(t, "Sentadilla (barra)", withSpanish.Results[0].SpanishTitle)
}

func TestSearch_SpanishQueries(t *testing.T) {
	snap := fixtureSnapshot(t)
	r := NewRanker(nil)

	tests := []struct {
		query  string
		wantID string
	}{
		{"sentadilla", "D04AC939"},
		{"press de banca", "79D0BB3A"},
		{"prensa de piernas", "C6272009"},
		{"tirón a la cara", "BE640BA0"},
		{"curl de bíceps", "37FCC2BB"},
		{"Bench Press", "79D0BB3A"},
		{"face pull", "BE640BA0"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := r.SearchSnapshot(tt.query, 3, snap)
			require.NoError(t, err)
			require.NotEmpty(t, resp.Results)
			assert.Equal(t, tt.wantID, resp.Results[0].ID)
		})
	}
}

func TestSearch_Laws(t *testing.T) {
	snap := fixtureSnapshot(t)
	r := NewRanker(nil)

	queries := []string{"press", "bench press", "barra", "curl", "leg", "a", "sled push", "pull", "máquina", "de"}
	for _, q := range queries {
		for _, limit := range []int{1, 2, 5, 100} {
			resp, err := r.SearchSnapshot(q, limit, snap)
			require.NoError(t, err)

			assert.LessOrEqual(t, len(resp.Results), limit, "size law for %q", q)
			for i, res := range resp.Results {
				assert.Greater(t, res.RelevanceScore, 30, "threshold law for %q", q)
				if i > 0 {
					assert.GreaterOrEqual(t, resp.Results[i-1].RelevanceScore, res.RelevanceScore, "order for %q", q)
				}
			}
		}

		for _, c := range Rank(q, r.Translate(q), snap.Records, snap.Translations) {
			assert.Greater(t, c.FinalScore(), RelevanceFloor)
			assert.LessOrEqual(t, c.FinalScore(), 100.0)
		}
	}
}

func TestRank_DropsScoresRoundingToFloor(t *testing.T) {
	// 8 of 21 query words match: 8/21*80 = 30.48, displayed as 30
	words := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel"}
	target := strings.Join(words, " ")
	for i := 0; i < 13; i++ {
		words = append(words, fmt.Sprintf("x%dq", i))
	}
	query := strings.Join(words, " ")

	score := Score(query, target)
	require.Greater(t, score, RelevanceFloor)
	require.Less(t, score, RelevanceFloor+0.5)

	records := []catalog.ExerciseRecord{{ID: "A1", Title: target}}
	assert.Empty(t, Rank(query, query, records, nil))
}

func TestSearch_StableTies(t *testing.T) {
	records := []catalog.ExerciseRecord{
		{ID: "1", Title: "Push Up"},
		{ID: "2", Title: "Plank"},
		{ID: "3", Title: "Push Up"},
		{ID: "4", Title: "Push Up"},
	}

	resp, err := NewRanker(nil).Search("push up", 10, records, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "4"}, ids(resp.Results))

	resp, err = NewRanker(nil).Search("push up", 2, records, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ids(resp.Results))
	assert.Equal(t, 3, resp.Total)
}

func TestSearch_LimitClamped(t *testing.T) {
	records := make([]catalog.ExerciseRecord, 60)
	for i := range records {
		records[i] = catalog.ExerciseRecord{ID: fmt.Sprintf("%08X", i), Title: fmt.Sprintf("Plank %d", i)}
	}

	resp, err := NewRanker(nil).Search("plank", 1000, records, nil)
	require.NoError(t, err)
	assert.Len(t, resp.Results, MaxLimit)
	assert.Equal(t, 60, resp.Total)
	assert.Equal(t, "00000000", resp.Results[0].ID)
}

func TestSearch_InvalidInput(t *testing.T) {
	r := NewRanker(nil)

	tests := []struct {
		name  string
		query string
		limit int
	}{
		{"empty query", "", 5},
		{"blank query", "  \t", 5},
		{"zero limit", "squat", 0},
		{"negative limit", "squat", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Search(tt.query, tt.limit, exampleRecords, nil)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidRequestError(err))
		})
	}
}

func TestSearch_EmptyCatalog(t *testing.T) {
	r := NewRanker(nil)

	for _, snap := range []*catalog.Snapshot{nil, catalog.NewSnapshot(nil, nil, catalog.Metadata{})} {
		resp, err := r.SearchSnapshot("squat", 5, snap)
		require.NoError(t, err)
		assert.NotNil(t, resp.Results)
		assert.Empty(t, resp.Results)
		assert.Equal(t, MessageEmptyCatalog, resp.Message)
		assert.Equal(t, ExampleQueries, resp.Suggestions)
		assert.Empty(t, resp.DidYouMean)
	}
}

func TestSearch_NoMatch(t *testing.T) {
	snap := fixtureSnapshot(t)

	resp, err := NewRanker(nil).SearchSnapshot("bnch prss", 5, snap)
	require.NoError(t, err)

	assert.Empty(t, resp.Results)
	assert.Zero(t, resp.Total)
	assert.Contains(t, resp.Message, `"bnch prss"`)
	assert.NotEqual(t, MessageEmptyCatalog, resp.Message)
	assert.Equal(t, ExampleQueries, resp.Suggestions)
	assert.Equal(t, []string{"Bench Press (Barbell)"}, resp.DidYouMean)
}

func TestSearch_PassthroughMetadata(t *testing.T) {
	snap := fixtureSnapshot(t)

	resp, err := NewRanker(nil).SearchSnapshot("sled push", 1, snap)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	res := resp.Results[0]
	assert.Equal(t, "A1B2C3D4", res.ID)
	assert.True(t, res.IsCustom)
	assert.Equal(t, "full_body", res.PrimaryMuscleGroup)
	assert.Equal(t, "other", res.Equipment)
	assert.Equal(t, "distance_duration", res.Type)
}

func TestSearch_Logging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := NewRanker(nil)
	r.SetLogger(zap.New(core).Sugar())

	_, err := r.Search("press banca", 5, exampleRecords, exampleTranslations)
	require.NoError(t, err)

	entries := logs.FilterMessage("exercise search").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "press banca", fields[logger.FieldQuery])
	assert.Equal(t, "bench press", fields[logger.FieldTranslatedQuery])
	assert.EqualValues(t, 2, fields[logger.FieldCount])
	assert.EqualValues(t, 100, fields[logger.FieldTopScore])
	assert.Contains(t, fields, "time_us")
}
