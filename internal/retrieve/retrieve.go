// Package retrieve implements hybrid retrieval: the full semantic-cache /
// lexical+dense / RRF fusion / multiplier / rerank / hub-cap / accounting
// query pipeline.
package retrieve

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/standardbeagle/knowledge-engine/internal/embed"
	"github.com/standardbeagle/knowledge-engine/internal/store"
	"github.com/standardbeagle/knowledge-engine/internal/types"
	"github.com/standardbeagle/knowledge-engine/internal/vecmath"
)

const (
	defaultLimit        = 5
	fetchMultiplier     = 4
	rrfK                = 60
	semanticCacheWindow = 50
	semanticCacheCosine = 0.92
	defaultMaxHubCards  = 2
)

// Options carries the per-query tunables.
type Options struct {
	Limit         int
	Branch        string
	SemanticQuery string
	DevID         string
}

// Result is what Retrieve returns to a caller.
type Result struct {
	Cards    []types.Card
	CacheHit bool
	// Sources labels each returned card id "semantic", "keyword", or "both",
	// derived from which of the
	// lexical/dense legs (or both) surfaced it before fusion. Empty on a
	// cache hit, since the cached ids were never re-ranked against fresh
	// lexical/dense legs this call.
	Sources map[string]string
	// Scores carries each returned card's final post-multiplier score,
	// for the same response shape's `score` field.
	Scores map[string]float64
}

// Retriever drives the pipeline against a Store and an optional Reranker
// (defaults to EmbeddingReranker when nil).
type Retriever struct {
	Store    *store.Store
	Reranker Reranker
}

func New(s *store.Store) *Retriever {
	return &Retriever{Store: s, Reranker: EmbeddingReranker{}}
}

// Retrieve runs the nine-step query pipeline: semantic cache, lexical and
// dense legs, RRF fusion, multipliers, rerank, hub cap, accounting.
// Cancellation: a client disconnect may abort the response after the hub
// cap, but the Metric row must still be written, so the final log write
// runs against context.Background() rather than the caller's ctx.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) (Result, error) {
	start := time.Now()
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	reranker := r.Reranker
	if reranker == nil {
		reranker = EmbeddingReranker{}
	}

	queryVec := embed.Embed(query, embed.ModeQuery)

	// Step 1: semantic cache.
	if _, ids, ok, err := r.checkSemanticCache(ctx, queryVec); err == nil && ok {
		cards, ferr := r.Store.FetchCardsByIDs(ctx, ids)
		if ferr == nil {
			r.logMetric(query, queryVec, cardIDs(cards), true, start, opts)
			return Result{Cards: cards, CacheHit: true}, nil
		}
	}

	fetchLimit := fetchMultiplier * limit

	// Step 2: lexical retrieval.
	lexHits, err := r.Store.LexicalSearch(ctx, query, fetchLimit)
	if err != nil {
		return Result{}, err
	}
	lexRank := make(map[string]int, len(lexHits))
	for i, h := range lexHits {
		lexRank[h.CardID] = i
	}

	// Step 3: dense retrieval.
	denseQuery := query
	if opts.SemanticQuery != "" {
		denseQuery = opts.SemanticQuery
	}
	denseVec := embed.Embed(denseQuery, embed.ModeQuery)
	denseHits, err := r.Store.VectorScan(ctx, denseVec, store.VectorFilter{}, fetchLimit)
	if err != nil {
		return Result{}, err
	}
	denseRank := make(map[string]int, len(denseHits))
	for i, h := range denseHits {
		denseRank[h.CardID] = i
	}

	// Step 4: Reciprocal Rank Fusion.
	rrfScores := fuseRRF(lexRank, denseRank)
	if len(rrfScores) == 0 {
		r.logMetric(query, queryVec, nil, false, start, opts)
		return Result{Cards: nil, CacheHit: false}, nil
	}

	ids := make([]string, 0, len(rrfScores))
	for id := range rrfScores {
		ids = append(ids, id)
	}
	cards, err := r.Store.FetchCardsByIDs(ctx, ids)
	if err != nil {
		return Result{}, err
	}
	cardByID := make(map[string]types.Card, len(cards))
	for _, c := range cards {
		cardByID[c.ID] = c
	}

	// Step 5/6: multipliers, including repo-affinity.
	signals, err := r.Store.AllRepoSignals(ctx)
	if err != nil {
		return Result{}, err
	}
	textAff := textAffinity(query, signals)
	embAff := r.embeddingAffinityFor(ctx, queryVec)

	type scored struct {
		card  types.Card
		score float64
	}
	var finalScores []scored
	for id, rrf := range rrfScores {
		c, ok := cardByID[id]
		if !ok || c.Stale {
			continue
		}
		if opts.Branch != "" && !branchAllowed(c, opts.Branch) {
			continue
		}
		finalScores = append(finalScores, scored{card: c, score: applyMultipliers(c, rrf, textAff, embAff)})
	}
	sort.SliceStable(finalScores, func(i, j int) bool { return finalScores[i].score > finalScores[j].score })

	fused := make([]types.Card, len(finalScores))
	scoreByID := make(map[string]float64, len(finalScores))
	for i, s := range finalScores {
		fused[i] = s.card
		scoreByID[s.card.ID] = s.score
	}
	sourceByID := make(map[string]string, len(fused))
	for _, c := range fused {
		_, inLex := lexRank[c.ID]
		_, inDense := denseRank[c.ID]
		switch {
		case inLex && inDense:
			sourceByID[c.ID] = "both"
		case inDense:
			sourceByID[c.ID] = "semantic"
		default:
			sourceByID[c.ID] = "keyword"
		}
	}

	// Step 7: rerank (graceful degrade on error, preserving fusion order).
	reranked, rerankErr := rerank(ctx, reranker, query, fused)
	if rerankErr != nil {
		log.Printf("WARNING: %v", rerankErr)
	}

	// Step 8: hub cap.
	capped := applyHubCap(reranked, r.maxHubCards(ctx), limit)

	// Step 9: accounting.
	r.recordUsage(ctx, cardIDs(capped))
	r.logMetric(query, queryVec, cardIDs(capped), false, start, opts)

	scores := make(map[string]float64, len(capped))
	sources := make(map[string]string, len(capped))
	for _, c := range capped {
		scores[c.ID] = scoreByID[c.ID]
		sources[c.ID] = sourceByID[c.ID]
	}
	return Result{Cards: capped, CacheHit: false, Scores: scores, Sources: sources}, nil
}

func branchAllowed(c types.Card, branch string) bool {
	if len(c.ValidBranches) == 0 {
		return true
	}
	for _, b := range c.ValidBranches {
		if b == branch {
			return true
		}
	}
	return false
}

// fuseRRF is Reciprocal Rank Fusion: score = sum 1/(60+rank_i) over
// whichever of the two ranked lists a candidate appears in.
func fuseRRF(lexRank, denseRank map[string]int) map[string]float64 {
	scores := map[string]float64{}
	for id, rank := range lexRank {
		scores[id] += 1.0 / float64(rrfK+rank)
	}
	for id, rank := range denseRank {
		scores[id] += 1.0 / float64(rrfK+rank)
	}
	return scores
}

func applyHubCap(cards []types.Card, maxHub, limit int) []types.Card {
	var out []types.Card
	hubCount := 0
	for _, c := range cards {
		if len(out) >= limit {
			break
		}
		if c.CardType == types.CardTypeHub {
			if hubCount >= maxHub {
				continue
			}
			hubCount++
		}
		out = append(out, c)
	}
	return out
}

func (r *Retriever) maxHubCards(ctx context.Context) int {
	v, ok, err := r.Store.GetConfig(ctx, "max_hub_cards")
	if err != nil || !ok {
		return defaultMaxHubCards
	}
	n := defaultMaxHubCards
	if _, scanErr := fmt.Sscanf(v, "%d", &n); scanErr != nil {
		return defaultMaxHubCards
	}
	return n
}

func (r *Retriever) recordUsage(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	tx, err := r.Store.Begin(ctx)
	if err != nil {
		return
	}
	if err := tx.IncrementUsageCount(ctx, ids); err != nil {
		tx.Rollback()
		return
	}
	tx.Commit()
}

func (r *Retriever) logMetric(query string, queryVec []float32, responseCards []string, cacheHit bool, start time.Time, opts Options) {
	m := types.Metric{
		Query:          query,
		QueryEmbedding: queryVec,
		ResponseCards:  responseCards,
		ResponseTokens: estimateTokens(responseCards),
		CacheHit:       cacheHit,
		LatencyMS:      time.Since(start).Milliseconds(),
		Timestamp:      time.Now(),
		Branch:         opts.Branch,
		DevID:          opts.DevID,
	}
	// Detached from the caller's context: the log row must survive a client
	// disconnect that aborts the response after the hub cap.
	_ = r.Store.LogMetric(context.Background(), m)
}

func estimateTokens(cardIDs []string) int {
	return len(cardIDs) * 1 // placeholder weight; real token accounting is per-card content length at the caller
}

func cardIDs(cards []types.Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

func (r *Retriever) embeddingAffinityFor(ctx context.Context, queryVec []float32) map[string]float64 {
	repos, err := r.Store.AllRepos(ctx)
	if err != nil || len(repos) == 0 {
		return nil
	}
	centroids := map[string][]float32{}
	for _, repo := range repos {
		vecs, err := r.Store.AllEmbeddingsForRepo(ctx, repo)
		if err != nil || len(vecs) == 0 {
			continue
		}
		all := make([][]float32, 0, len(vecs))
		for _, v := range vecs {
			all = append(all, v)
		}
		centroids[repo] = vecmath.L2Normalize(vecmath.Mean(all))
	}
	return embeddingAffinity(queryVec, centroids)
}
