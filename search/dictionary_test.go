package search

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymkit/hevymcp/errors"
)

func TestDictionary_Apply(t *testing.T) {
	dict := DefaultDictionary()

	tests := []struct {
		query string
		want  string
	}{
		{"press banca", "bench press"},
		{"Press Banca", "bench press"},
		{"press de banca", "bench press"},
		{"press de banca inclinado", "incline bench press"},
		{"banca", "bench"},
		{"sentadilla con barra", "squat con barbell"},
		{"peso muerto rumano", "romanian deadlift"},
		{"prensa de piernas", "leg press"},
		{"curl de bíceps", "bicep curl"},
		{"jalón al pecho", "lat pulldown"},
		{"remo remo", "row remo"},
		{"hip thrust", "hip thrust"},
		{"  tirón   a la cara ", "face pull"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, dict.Apply(tt.query))
		})
	}
}

func TestDictionary_LongestFirst(t *testing.T) {
	terms := DefaultDictionary().Terms()
	require.NotEmpty(t, terms)
	for i := 1; i < len(terms); i++ {
		assert.GreaterOrEqual(t,
			utf8.RuneCountInString(terms[i-1].Spanish),
			utf8.RuneCountInString(terms[i].Spanish),
			"%q before %q", terms[i-1].Spanish, terms[i].Spanish)
	}
}

func TestDictionary_NoDoubleSubstitution(t *testing.T) {
	terms := DefaultDictionary().Terms()
	for _, value := range terms {
		for _, key := range terms {
			assert.NotContains(t, value.English, key.Spanish,
				"replacement for %q would be rewritten by %q", value.Spanish, key.Spanish)
		}
	}
}

func TestNewDictionary(t *testing.T) {
	dict := NewDictionary([]Term{
		{"b", "x"},
		{"aa", "y"},
		{"cc", "z"},
		{"", "ignored"},
		{"AA", "w"},
	})

	assert.Equal(t, []Term{
		{Spanish: "aa", English: "w"},
		{Spanish: "cc", English: "z"},
		{Spanish: "b", English: "x"},
	}, dict.Terms())
}

func TestDictionary_Merge(t *testing.T) {
	base := DefaultDictionary()
	merged := base.Merge([]Term{
		{"remo", "seated cable row"},
		{"burpees", "burpee"},
	})

	assert.Equal(t, base.Len()+1, merged.Len())
	assert.Equal(t, "seated cable row", merged.Apply("remo"))
	assert.Equal(t, "burpee", merged.Apply("burpees"))
	assert.Equal(t, "row", base.Apply("remo"), "base dictionary unchanged")
}

func TestDictionary_Nil(t *testing.T) {
	var dict *Dictionary
	assert.Equal(t, 0, dict.Len())
	assert.Equal(t, "press banca", dict.Apply(" Press  Banca"))
}

func TestParseDictionary(t *testing.T) {
	terms, err := ParseDictionary([]byte("# gym slang\nbanco plano: flat bench press\nremo: \"cable row\"\nvacío: \"\"\n"))
	require.NoError(t, err)
	assert.Equal(t, []Term{
		{Spanish: "banco plano", English: "flat bench press"},
		{Spanish: "remo", English: "cable row"},
	}, terms)
}

func TestParseDictionary_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"sequence", "- remo\n- sentadilla\n"},
		{"nested value", "remo:\n  en: row\n"},
		{"bad yaml", "remo: [row\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDictionary([]byte(tt.input))
			assert.Error(t, err)
		})
	}

	terms, err := ParseDictionary(nil)
	require.NoError(t, err)
	assert.Empty(t, terms)
}

func TestLoadDictionary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dictionary.yaml")
	require.NoError(t, os.WriteFile(path, []byte("press banca: barbell bench press\n"), 0644))

	terms, err := LoadDictionary(path)
	require.NoError(t, err)
	merged := DefaultDictionary().Merge(terms)
	assert.Equal(t, "barbell bench press", merged.Apply("press banca"))

	_, err = LoadDictionary(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
	assert.True(t, strings.Contains(err.Error(), "missing.yaml"))
}
