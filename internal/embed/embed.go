// Package embed implements the Embedder: a deterministic, network-free
// text-to-vector feature hasher. embed(text, mode) is a pure function of
// (text, mode, model identity) — there is exactly one model identity here,
// so dimensionality and hashing are fixed constants rather than
// configuration.
package embed

import (
	"math"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/knowledge-engine/internal/semantic"
)

// Dimensionality is the fixed vector width for this build's embedder.
const Dimensionality = 256

// Mode distinguishes asymmetric retrieval encodings. The mode
// only ever changes a single prefix token fed into the hasher; the rest of
// the tokenization and hashing pipeline is identical between modes.
type Mode string

const (
	ModeQuery    Mode = "query"
	ModeDocument Mode = "document"
)

var wordRe = regexp.MustCompile(`[a-zA-Z0-9]+`)

var (
	splitter = semantic.NewNameSplitter()
	stemmer  = semantic.NewStemmer(true, "porter2", 3, nil)
)

// tokenize splits text into stemmed, lowercased constituent words via the
// compound-name splitter and Porter2 stemmer — the same normalization
// pipeline for card bodies and queries alike.
func tokenize(text string) []string {
	var tokens []string
	for _, raw := range wordRe.FindAllString(text, -1) {
		for _, word := range splitter.Split(raw) {
			word = strings.ToLower(word)
			if word == "" {
				continue
			}
			tokens = append(tokens, stemmer.Stem(word))
		}
	}
	return tokens
}

// Embed maps text to an L2-normalized Vector[d], a pure function of
// (text, mode).
func Embed(text string, mode Mode) []float32 {
	vec := make([]float64, Dimensionality)

	tf := map[string]int{}
	for _, tok := range tokenize(text) {
		tf[tok]++
	}
	// The mode prefix is hashed as its own pseudo-token exactly as any other
	// term would be, with a fixed weight — mode changes only this one extra
	// feature, never a separately-branching code path.
	tf["__mode:"+string(mode)] = 1

	for term, freq := range tf {
		bucket := xxhash.Sum64String(term) % uint64(Dimensionality)
		sign := 1.0
		if xxhash.Sum64String("sign:"+term)%2 == 0 {
			sign = -1.0
		}
		vec[bucket] += sign * float64(freq)
	}

	return l2Normalize(vec)
}

// EmbedBatch applies Embed to each input in order.
func EmbedBatch(texts []string, mode Mode) [][]float32 {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = Embed(t, mode)
	}
	return out
}

func l2Normalize(vec []float64) []float32 {
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	out := make([]float32, len(vec))
	if sumSq == 0 {
		return out
	}
	norm := math.Sqrt(sumSq)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}
