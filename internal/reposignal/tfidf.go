package reposignal

import (
	"math"
	"sort"
)

const topNDomainTerms = 12

// termScore is one (term, score) pair for a single repo, used to rank before
// truncating to the top-N kept terms.
type termScore struct {
	term  string
	score float64
}

// domainTerms runs cross-corpus TF-IDF across the given
// repo->concatenated-doc-text map, returning the top-N domain terms per
// repo. Terms common to every repo's docs are down-weighted by the IDF
// factor; repo-specific vocabulary survives.
func domainTerms(docsByRepo map[string]string) map[string][]string {
	tfByRepo := map[string]map[string]int{}
	dfByTerm := map[string]int{}

	for repo, text := range docsByRepo {
		tf := map[string]int{}
		for _, tok := range tokenizeDoc(text, stopwords) {
			tf[tok.term] += tok.weight
		}
		tfByRepo[repo] = tf
		for term := range tf {
			dfByTerm[term]++
		}
	}

	n := float64(len(docsByRepo))
	out := map[string][]string{}
	for repo, tf := range tfByRepo {
		var scored []termScore
		for term, freq := range tf {
			if freq < 2 {
				continue // drop hapax legomena
			}
			df := float64(dfByTerm[term])
			score := float64(freq) * math.Log((n+1)/df)
			scored = append(scored, termScore{term: term, score: score})
		}
		sort.Slice(scored, func(i, j int) bool {
			if scored[i].score != scored[j].score {
				return scored[i].score > scored[j].score
			}
			return scored[i].term < scored[j].term
		})
		if len(scored) > topNDomainTerms {
			scored = scored[:topNDomainTerms]
		}
		terms := make([]string, len(scored))
		for i, ts := range scored {
			terms[i] = ts.term
		}
		out[repo] = terms
	}
	return out
}
