package semantic

import (
	"strings"

	"github.com/surgebase/porter2"
)

// Stemmer reduces words to a root form so different inflections of a term
// count as one token during TF-IDF scoring and embedding.
type Stemmer struct {
	enabled    bool
	algorithm  string
	minLength  int
	exclusions map[string]bool // words to never stem, e.g. short domain acronyms
}

// NewStemmer builds a stemmer. An empty algorithm defaults to "porter2",
// a negative minLength to 3, and a nil exclusion set to empty.
func NewStemmer(enabled bool, algorithm string, minLength int, exclusions map[string]bool) *Stemmer {
	if algorithm == "" {
		algorithm = "porter2"
	}
	if minLength < 0 {
		minLength = 3
	}
	if exclusions == nil {
		exclusions = make(map[string]bool)
	}
	return &Stemmer{
		enabled:    enabled,
		algorithm:  algorithm,
		minLength:  minLength,
		exclusions: exclusions,
	}
}

// Stem returns the stem of word. Disabled stemmers, excluded words, and
// words shorter than minLength pass through unchanged.
func (s *Stemmer) Stem(word string) string {
	if !s.enabled {
		return word
	}
	if s.exclusions[strings.ToLower(word)] {
		return word
	}
	if len(word) < s.minLength {
		return word
	}
	if s.algorithm == "none" {
		return word
	}
	return porter2.Stem(word)
}
