package search

import (
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/gymkit/hevymcp/errors"
)

// Term is one Spanish phrase and its English replacement
type Term struct {
	Spanish string
	English string
}

// defaultTerms is the built-in gym vocabulary. No English value may contain
// a Spanish key, otherwise a later, shorter key would rewrite it again.
var defaultTerms = []Term{
	{"press de banca inclinado", "incline bench press"},
	{"press de banca declinado", "decline bench press"},
	{"press de banca", "bench press"},
	{"press banca", "bench press"},
	{"press inclinado", "incline bench press"},
	{"press militar", "overhead press"},
	{"press de hombros", "shoulder press"},
	{"press francés", "skullcrusher"},
	{"prensa de piernas", "leg press"},
	{"prensa", "leg press"},
	{"banca", "bench"},
	{"sentadilla búlgara", "bulgarian split squat"},
	{"sentadillas", "squat"},
	{"sentadilla", "squat"},
	{"peso muerto rumano", "romanian deadlift"},
	{"peso muerto", "deadlift"},
	{"dominadas", "pull up"},
	{"dominada", "pull up"},
	{"jalón al pecho", "lat pulldown"},
	{"jalón", "pulldown"},
	{"remo al mentón", "upright row"},
	{"remo con barra", "bent over row"},
	{"remo", "row"},
	{"curl de bíceps", "bicep curl"},
	{"curl de biceps", "bicep curl"},
	{"curl martillo", "hammer curl"},
	{"curl femoral", "leg curl"},
	{"extensión de cuádriceps", "leg extension"},
	{"extensión de tríceps", "triceps extension"},
	{"tirón a la cara", "face pull"},
	{"elevaciones laterales", "lateral raise"},
	{"elevación lateral", "lateral raise"},
	{"elevaciones frontales", "front raise"},
	{"elevación de gemelos", "calf raise"},
	{"gemelos", "calf raise"},
	{"pantorrillas", "calf raise"},
	{"empuje de cadera", "hip thrust"},
	{"zancadas", "lunge"},
	{"zancada", "lunge"},
	{"fondos", "dips"},
	{"flexiones", "push up"},
	{"aperturas", "fly"},
	{"plancha", "plank"},
	{"abdominales", "crunch"},
	{"encogimientos", "shrug"},
	{"mancuernas", "dumbbell"},
	{"mancuerna", "dumbbell"},
	{"barra", "barbell"},
	{"máquina", "machine"},
	{"maquina", "machine"},
	{"polea", "cable"},
	{"pecho", "chest"},
	{"espalda", "back"},
	{"hombros", "shoulder"},
	{"piernas", "leg"},
	{"glúteos", "glute"},
	{"bíceps", "bicep"},
	{"tríceps", "triceps"},
}

// Dictionary rewrites Spanish gym phrases into English. Terms are applied
// longest key first; keys of equal length keep their definition order.
type Dictionary struct {
	terms []Term
}

// NewDictionary normalises the keys and orders the terms for Apply. Later
// duplicates of a key replace earlier ones in place.
func NewDictionary(terms []Term) *Dictionary {
	seen := make(map[string]int, len(terms))
	ordered := make([]Term, 0, len(terms))
	for _, t := range terms {
		key := normalize(t.Spanish)
		value := normalize(t.English)
		if key == "" {
			continue
		}
		if i, ok := seen[key]; ok {
			ordered[i].English = value
			continue
		}
		seen[key] = len(ordered)
		ordered = append(ordered, Term{Spanish: key, English: value})
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return utf8.RuneCountInString(ordered[i].Spanish) > utf8.RuneCountInString(ordered[j].Spanish)
	})
	return &Dictionary{terms: ordered}
}

// DefaultDictionary returns the built-in vocabulary
func DefaultDictionary() *Dictionary {
	return NewDictionary(defaultTerms)
}

// Merge returns a dictionary with overrides layered over d: existing keys get
// the override's English value, new keys are added.
func (d *Dictionary) Merge(overrides []Term) *Dictionary {
	combined := make([]Term, 0, len(d.terms)+len(overrides))
	combined = append(combined, d.terms...)
	combined = append(combined, overrides...)
	return NewDictionary(combined)
}

// Terms returns the terms in application order
func (d *Dictionary) Terms() []Term {
	out := make([]Term, len(d.terms))
	copy(out, d.terms)
	return out
}

// Len returns the number of terms
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.terms)
}

// Apply normalises query and replaces the first occurrence of each key.
// Once "press de banca" has been rewritten, the shorter "banca" no longer
// matches the same text.
func (d *Dictionary) Apply(query string) string {
	out := normalize(query)
	if d == nil {
		return out
	}
	for _, t := range d.terms {
		if strings.Contains(out, t.Spanish) {
			out = strings.Replace(out, t.Spanish, t.English, 1)
		}
	}
	return out
}

// LoadDictionary reads a YAML mapping of Spanish phrase to English phrase.
// File order is kept so equal-length keys apply in the order written.
func LoadDictionary(path string) ([]Term, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(errors.ErrNotFound, "dictionary file %s", path)
		}
		return nil, errors.Wrapf(err, "failed to read dictionary %s", path)
	}
	terms, err := ParseDictionary(data)
	if err != nil {
		return nil, errors.Wrapf(err, "dictionary %s", path)
	}
	return terms, nil
}

// ParseDictionary decodes a YAML mapping into terms, keeping document order
func ParseDictionary(data []byte) ([]Term, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse dictionary YAML")
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Wrapf(errors.ErrInvalidRequest,
			"dictionary must be a mapping of spanish: english (line %d)", root.Line)
	}

	terms := make([]Term, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, errors.Wrapf(errors.ErrInvalidRequest,
				"dictionary entry %q must map to a string (line %d)", key.Value, value.Line)
		}
		if strings.TrimSpace(key.Value) == "" || strings.TrimSpace(value.Value) == "" {
			continue
		}
		terms = append(terms, Term{Spanish: key.Value, English: value.Value})
	}
	return terms, nil
}
