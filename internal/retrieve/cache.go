package retrieve

import (
	"context"

	"github.com/standardbeagle/knowledge-engine/internal/types"
	"github.com/standardbeagle/knowledge-engine/internal/vecmath"
)

// checkSemanticCache compares the query embedding against the last N=50
// logged queries' embeddings; a
// cosine > 0.92 hit short-circuits the pipeline, returning the remembered
// card ids verbatim.
func (r *Retriever) checkSemanticCache(ctx context.Context, queryVec []float32) (types.Metric, []string, bool, error) {
	recent, err := r.Store.RecentQueryMetrics(ctx, semanticCacheWindow)
	if err != nil {
		return types.Metric{}, nil, false, err
	}
	var best types.Metric
	bestSim := 0.0
	found := false
	for _, m := range recent {
		sim := vecmath.Cosine(queryVec, m.QueryEmbedding)
		if sim > semanticCacheCosine && sim > bestSim {
			best, bestSim, found = m, sim, true
		}
	}
	if !found {
		return types.Metric{}, nil, false, nil
	}
	return best, best.ResponseCards, true, nil
}
