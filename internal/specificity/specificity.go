// Package specificity implements the Specificity Scorer: per-repo
// centroid vectors and per-card specificity scores.
package specificity

import "github.com/standardbeagle/knowledge-engine/internal/vecmath"

// CardVector is a card's body embedding paired with its owning repo — the
// Specificity Scorer only needs these two fields from a card/embedding row.
type CardVector struct {
	CardID string
	Repo   string
	Vector []float32
}

// Centroids computes, per repo, the L2-renormalized mean of that repo's
// card body vectors.
func Centroids(cards []CardVector) map[string][]float32 {
	byRepo := map[string][][]float32{}
	for _, c := range cards {
		byRepo[c.Repo] = append(byRepo[c.Repo], c.Vector)
	}
	out := make(map[string][]float32, len(byRepo))
	for repo, vecs := range byRepo {
		out[repo] = vecmath.L2Normalize(vecmath.Mean(vecs))
	}
	return out
}

// Score computes specificity for every card:
// cos(card_vec, own_centroid) - max_other_repos cos(card_vec, centroid),
// mapped from [-2,2] into [0,1].
func Score(cards []CardVector, centroids map[string][]float32) map[string]float64 {
	out := make(map[string]float64, len(cards))
	for _, c := range cards {
		own := centroids[c.Repo]
		ownSim := vecmath.Cosine(c.Vector, own)

		maxOther := -2.0 // below any possible cosine similarity
		for repo, centroid := range centroids {
			if repo == c.Repo {
				continue
			}
			if sim := vecmath.Cosine(c.Vector, centroid); sim > maxOther {
				maxOther = sim
			}
		}
		if maxOther < -1 {
			// Single-repo corpus: there is no "other" to contrast against.
			maxOther = 0
		}

		raw := ownSim - maxOther
		out[c.CardID] = (raw + 2) / 4 // map [-2,2] -> [0,1]
	}
	return out
}
