// Package search ranks exercise templates against a free-text query in
// English or Spanish.
//
// Score is the matching heuristic; Ranker applies it to a whole catalog,
// scoring the dictionary-translated query against English titles and the
// untranslated query against Spanish titles and keeping the better of the two.
package search

import (
	"math"
	"strings"
)

// Score values
const (
	ScoreExact    = 100.0
	ScoreContains = 95.0

	wordWeight  = 80.0
	orderBonus  = 10.0
	partialWord = 0.5
)

// Score rates how well query matches target, from 0 to 100.
//
//  1. equal (case-insensitive) → 100
//  2. target contains query → 95
//  3. otherwise each query word is compared with the target words in order
//     and the first hit counts: 1 for an equal word, 0.5 when one contains
//     the other. The hit ratio is scaled to 80, plus 10 when every query word
//     occurs somewhere in the target.
//
// Blank input scores 0. Score is pure and safe for concurrent use.
func Score(query, target string) float64 {
	q := normalize(query)
	t := normalize(target)
	if q == "" || t == "" {
		return 0
	}

	if q == t {
		return ScoreExact
	}
	if strings.Contains(t, q) {
		return ScoreContains
	}

	queryWords := strings.Fields(q)
	targetWords := strings.Fields(t)

	var matched float64
	allPresent := true
	for _, qw := range queryWords {
		for _, tw := range targetWords {
			if tw == qw {
				matched++
				break
			}
			if strings.Contains(tw, qw) || strings.Contains(qw, tw) {
				matched += partialWord
				break
			}
		}
		if !strings.Contains(t, qw) {
			allPresent = false
		}
	}

	score := matched / float64(len(queryWords)) * wordWeight
	if allPresent {
		score += orderBonus
	}
	return math.Min(ScoreExact, score)
}
