package reposignal

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/knowledge-engine/internal/semantic"
)

// weightedToken is one token extracted from a doc body along with its
// compound weight: plain words count 1, compounds 2.
type weightedToken struct {
	term   string
	weight int
}

var (
	hyphenated = regexp.MustCompile(`\b[a-zA-Z]+(?:-[a-zA-Z]+)+\b`)
	snakeCase  = regexp.MustCompile(`\b[a-z]+(?:_[a-z]+)+\b`)
	camelCase  = regexp.MustCompile(`\b[a-z]+[A-Z][a-zA-Z]*\b`)
	wordRe     = regexp.MustCompile(`[a-zA-Z]{4,}`)
)

// splitter handles CamelCase/snake_case/hyphenated word-boundary
// detection; one shared instance is enough here.
var splitter = semantic.NewNameSplitter()

// tokenizeDoc extracts lowercase words >=4 chars (weight 1) and
// hyphenated/snake_case/CamelCase compounds (weight 2, using their split
// constituent words).
func tokenizeDoc(text string, stopwords map[string]bool) []weightedToken {
	var tokens []weightedToken
	seenCompoundSpan := map[string]bool{}

	for _, m := range hyphenated.FindAllString(text, -1) {
		seenCompoundSpan[m] = true
		tokens = append(tokens, compoundTokens(m, stopwords)...)
	}
	for _, m := range snakeCase.FindAllString(text, -1) {
		seenCompoundSpan[m] = true
		tokens = append(tokens, compoundTokens(m, stopwords)...)
	}
	for _, m := range camelCase.FindAllString(text, -1) {
		seenCompoundSpan[m] = true
		tokens = append(tokens, compoundTokens(m, stopwords)...)
	}

	for _, w := range wordRe.FindAllString(text, -1) {
		if seenCompoundSpan[w] {
			continue
		}
		lower := strings.ToLower(w)
		if stopwords[lower] {
			continue
		}
		tokens = append(tokens, weightedToken{term: lower, weight: 1})
	}
	return tokens
}

func compoundTokens(compound string, stopwords map[string]bool) []weightedToken {
	var out []weightedToken
	for _, word := range splitter.Split(compound) {
		word = strings.ToLower(word)
		if len(word) < 4 || stopwords[word] {
			continue
		}
		out = append(out, weightedToken{term: word, weight: 2})
	}
	return out
}
