package search

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/gymkit/hevymcp/catalog"
	"github.com/gymkit/hevymcp/errors"
	"github.com/gymkit/hevymcp/logger"
)

const (
	// RelevanceFloor is the score a candidate must exceed to be returned
	RelevanceFloor = 30.0

	// MaxLimit bounds the number of results per search
	MaxLimit = 50

	// DefaultLimit is used by callers that do not pass a limit
	DefaultLimit = 10

	maxDidYouMean = 3
)

// Advisory messages for empty results
const (
	MessageEmptyCatalog = "The exercise catalog is empty or could not be loaded. Run `hevymcp catalog update` to download it."
	messageNoMatch      = "No exercises matched %q. Try a shorter query, an English name, or one of the suggestions."
)

// ExampleQueries are offered when a search comes back empty
var ExampleQueries = []string{
	"bench press",
	"press de banca",
	"sentadilla",
	"peso muerto",
	"curl de bíceps",
	"lat pulldown",
}

// Result is one ranked exercise template
type Result struct {
	ID                    string   `json:"id"`
	Title                 string   `json:"title"`
	SpanishTitle          string   `json:"spanishTitle,omitempty"`
	RelevanceScore        int      `json:"relevanceScore"`
	MatchedOn             string   `json:"matchedOn"` // "english" or "spanish"
	Type                  string   `json:"type,omitempty"`
	PrimaryMuscleGroup    string   `json:"primaryMuscleGroup,omitempty"`
	SecondaryMuscleGroups []string `json:"secondaryMuscleGroups,omitempty"`
	Equipment             string   `json:"equipment,omitempty"`
	IsCustom              bool     `json:"isCustom"`
}

// Response is what a search returns. Message and Suggestions are only set
// when Results is empty.
type Response struct {
	Query           string   `json:"query"`
	TranslatedQuery string   `json:"translatedQuery"`
	Results         []Result `json:"results"`
	// Total counts every candidate above the floor, before truncation
	Total       int      `json:"total"`
	Message     string   `json:"message,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	DidYouMean  []string `json:"didYouMean,omitempty"`
}

// Candidate is a scored catalog entry before truncation
type Candidate struct {
	Index        int
	EnglishScore float64
	SpanishScore float64
}

// FinalScore is the better of the two language scores
func (c Candidate) FinalScore() float64 {
	return math.Max(c.EnglishScore, c.SpanishScore)
}

// Ranker scores a catalog against queries. It holds no catalog state, so
// one Ranker can serve any number of catalogs concurrently.
type Ranker struct {
	dict   *Dictionary
	logger *zap.SugaredLogger
}

// NewRanker creates a ranker. A nil dictionary means the built-in one.
func NewRanker(dict *Dictionary) *Ranker {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Ranker{dict: dict}
}

// SetLogger enables debug output for each search
func (r *Ranker) SetLogger(log *zap.SugaredLogger) {
	r.logger = log
}

// Dictionary returns the ranker's dictionary
func (r *Ranker) Dictionary() *Dictionary {
	return r.dict
}

// Translate applies the dictionary to query
func (r *Ranker) Translate(query string) string {
	return r.dict.Apply(query)
}

// SearchSnapshot runs Search over a catalog snapshot
func (r *Ranker) SearchSnapshot(query string, limit int, snap *catalog.Snapshot) (*Response, error) {
	if snap == nil {
		return r.Search(query, limit, nil, nil)
	}
	return r.Search(query, limit, snap.Records, snap.Translations)
}

// Search ranks records against query. The dictionary-translated query is
// scored against each English title, the original query against the Spanish
// title when translations has one; the higher score wins. Candidates scoring
// at or below RelevanceFloor are dropped, the rest sorted by score with ties
// in catalog order and cut to limit (clamped to MaxLimit).
//
// A blank query or a limit below 1 returns errors.ErrInvalidRequest. An empty
// catalog or no match is not an error: the response carries a message.
func (r *Ranker) Search(query string, limit int, records []catalog.ExerciseRecord, translations catalog.Translations) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.NewInvalidRequestError("query must not be empty")
	}
	if limit < 1 {
		return nil, errors.NewInvalidRequestError("limit must be a positive integer, got %d", limit)
	}
	limit = min(limit, MaxLimit)

	start := time.Now()
	translated := r.Translate(query)
	resp := &Response{
		Query:           query,
		TranslatedQuery: translated,
		Results:         []Result{},
	}

	if len(records) == 0 {
		resp.Message = MessageEmptyCatalog
		resp.Suggestions = ExampleQueries
		return resp, nil
	}

	candidates := Rank(query, translated, records, translations)
	resp.Total = len(candidates)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	for _, c := range candidates {
		resp.Results = append(resp.Results, toResult(records[c.Index], translations, c))
	}

	if len(resp.Results) == 0 {
		resp.Message = fmt.Sprintf(messageNoMatch, query)
		resp.Suggestions = ExampleQueries
		resp.DidYouMean = didYouMean(translated, records)
	}

	if r.logger != nil {
		fields := []interface{}{
			logger.FieldQuery, query,
			logger.FieldTranslatedQuery, translated,
			logger.FieldCount, len(resp.Results),
			logger.FieldTotalCount, resp.Total,
			"time_us", time.Since(start).Microseconds(),
		}
		if len(resp.Results) > 0 {
			fields = append(fields, logger.FieldTopScore, resp.Results[0].RelevanceScore)
		}
		r.logger.Debugw("exercise search", fields...)
	}

	return resp, nil
}

// Rank scores every record and returns the candidates above the floor,
// best first. originalQuery is matched against Spanish titles and
// translatedQuery against English ones.
func Rank(originalQuery, translatedQuery string, records []catalog.ExerciseRecord, translations catalog.Translations) []Candidate {
	candidates := make([]Candidate, 0)
	for i, rec := range records {
		c := Candidate{
			Index:        i,
			EnglishScore: Score(translatedQuery, rec.Title),
		}
		if spanish := translations[rec.ID]; spanish != "" {
			c.SpanishScore = Score(originalQuery, spanish)
		}
		// compare the displayed score so a rounded 30 never reaches the caller
		if math.Round(c.FinalScore()) > RelevanceFloor {
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FinalScore() > candidates[j].FinalScore()
	})
	return candidates
}

func toResult(rec catalog.ExerciseRecord, translations catalog.Translations, c Candidate) Result {
	matchedOn := "english"
	if c.SpanishScore > c.EnglishScore {
		matchedOn = "spanish"
	}
	return Result{
		ID:                    rec.ID,
		Title:                 rec.Title,
		SpanishTitle:          translations[rec.ID],
		RelevanceScore:        int(math.Round(c.FinalScore())),
		MatchedOn:             matchedOn,
		Type:                  rec.Type,
		PrimaryMuscleGroup:    rec.PrimaryMuscleGroup,
		SecondaryMuscleGroups: rec.SecondaryMuscleGroups,
		Equipment:             rec.Equipment,
		IsCustom:              rec.IsCustom,
	}
}

// didYouMean proposes titles that contain the query's letters in order
func didYouMean(query string, records []catalog.ExerciseRecord) []string {
	titles := make([]string, len(records))
	for i, rec := range records {
		titles[i] = rec.Title
	}

	var out []string
	seen := map[string]bool{}
	for _, m := range fuzzy.Find(query, titles) {
		if seen[m.Str] {
			continue
		}
		seen[m.Str] = true
		out = append(out, m.Str)
		if len(out) == maxDidYouMean {
			break
		}
	}
	return out
}
