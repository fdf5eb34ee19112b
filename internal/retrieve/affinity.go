package retrieve

import (
	"math"
	"strings"

	"github.com/standardbeagle/knowledge-engine/internal/types"
	"github.com/standardbeagle/knowledge-engine/internal/vecmath"
)

// minTextSignalHits: a repo needs at least 2 signal hits to count at all.
const minTextSignalHits = 2

// embeddingMarginThreshold gates embedding affinity on its confidence
// margin.
const embeddingMarginThreshold = 0.03

// textAffinity is the text half of the affinity blend: for each repo,
// count how many of its stored signals appear as substrings
// of the lowercased query (requiring >= 2 hits), then normalize by the max
// across repos.
func textAffinity(query string, signals map[string]types.RepoSignals) map[string]float64 {
	lowerQuery := strings.ToLower(query)
	hits := map[string]int{}
	maxHits := 0
	for repo, rs := range signals {
		n := 0
		for _, sig := range rs.Signals {
			if sig == "" {
				continue
			}
			if strings.Contains(lowerQuery, strings.ToLower(sig)) {
				n++
			}
		}
		if n < minTextSignalHits {
			n = 0
		}
		hits[repo] = n
		if n > maxHits {
			maxHits = n
		}
	}

	out := map[string]float64{}
	if maxHits == 0 {
		return out // no repo clears the >=2 hit bar: text affinity absent for all
	}
	for repo, n := range hits {
		if n > 0 {
			out[repo] = float64(n) / float64(maxHits)
		}
	}
	return out
}

// embeddingAffinity implements the embedding-affinity half: classify the
// query embedding against per-repo centroids with a softmax-like
// normalization, returning nil if the winning margin doesn't clear
// embeddingMarginThreshold.
func embeddingAffinity(queryVec []float32, centroids map[string][]float32) map[string]float64 {
	if len(centroids) == 0 {
		return nil
	}
	repos := make([]string, 0, len(centroids))
	sims := make([]float64, 0, len(centroids))
	for repo, centroid := range centroids {
		repos = append(repos, repo)
		sims = append(sims, vecmath.Cosine(queryVec, centroid))
	}

	probs := softmax(sims)

	best, second := -1.0, -1.0
	for _, p := range probs {
		switch {
		case p > best:
			second = best
			best = p
		case p > second:
			second = p
		}
	}
	if second < 0 {
		second = 0
	}
	if best-second <= embeddingMarginThreshold {
		return nil
	}

	out := make(map[string]float64, len(repos))
	for i, repo := range repos {
		out[repo] = probs[i]
	}
	return out
}

func softmax(xs []float64) []float64 {
	max := xs[0]
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	var sum float64
	exps := make([]float64, len(xs))
	for i, x := range xs {
		exps[i] = math.Exp(x - max)
		sum += exps[i]
	}
	out := make([]float64, len(xs))
	for i, e := range exps {
		out[i] = e / sum
	}
	return out
}

// affinityMultiplier blends the two halves: text mapped to [0.6,1.0],
// embedding mapped to [0.85,1.15], final = 0.60*text + 0.40*embedding when
// text signals are present, else embedding alone. When neither is
// available the multiplier is neutral (1.0).
func affinityMultiplier(repos []string, text map[string]float64, embedding map[string]float64) float64 {
	textScore, hasText := bestOf(repos, text)
	embScore, hasEmbedding := bestOf(repos, embedding)

	mappedText := 0.6 + 0.4*textScore   // [0.6,1.0]
	mappedEmbedding := 0.85 + 0.3*embScore // [0.85,1.15]

	switch {
	case hasText && hasEmbedding:
		return 0.60*mappedText + 0.40*mappedEmbedding
	case hasText:
		return mappedText
	case hasEmbedding:
		return mappedEmbedding
	default:
		return 1.0
	}
}

func bestOf(repos []string, scores map[string]float64) (float64, bool) {
	if scores == nil {
		return 0, false
	}
	best := 0.0
	found := false
	for _, r := range repos {
		if s, ok := scores[r]; ok {
			found = true
			if s > best {
				best = s
			}
		}
	}
	return best, found
}
