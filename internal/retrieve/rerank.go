package retrieve

import (
	"context"

	"github.com/standardbeagle/knowledge-engine/internal/embed"
	knowerrors "github.com/standardbeagle/knowledge-engine/internal/errors"
	"github.com/standardbeagle/knowledge-engine/internal/types"
	"github.com/standardbeagle/knowledge-engine/internal/vecmath"
)

// Reranker reorders a fused-and-scored candidate list using signal the
// fusion stage doesn't have — the true cross-encoder this interface is
// meant for is a collaborator the orchestrator wires in, never a
// requirement of the retriever itself.
type Reranker interface {
	Rerank(ctx context.Context, query string, cards []types.Card) ([]types.Card, error)
}

// EmbeddingReranker is the built-in cross-encoder stand-in: it re-embeds
// the query and each card's title+content in document mode and
// orders by cosine similarity. This never calls out to a network service,
// so it has no "unavailable" state of its own, but the caller-facing
// Reranker interface still allows a real cross-encoder to be substituted
// and to fail with RerankUnavailable.
type EmbeddingReranker struct{}

func (EmbeddingReranker) Rerank(_ context.Context, query string, cards []types.Card) ([]types.Card, error) {
	qVec := embed.Embed(query, embed.ModeQuery)
	scored := make([]scoredCard, len(cards))
	for i, c := range cards {
		cVec := embed.Embed(c.Title+"\n"+c.Content, embed.ModeDocument)
		scored[i] = scoredCard{card: c, score: vecmath.Cosine(qVec, cVec)}
	}
	stableSortDescending(scored)
	out := make([]types.Card, len(scored))
	for i, sc := range scored {
		out[i] = sc.card
	}
	return out, nil
}

type scoredCard struct {
	card  types.Card
	score float64
}

func stableSortDescending(scored []scoredCard) {
	for i := 1; i < len(scored); i++ {
		for j := i; j > 0 && scored[j].score > scored[j-1].score; j-- {
			scored[j], scored[j-1] = scored[j-1], scored[j]
		}
	}
}

// rerank runs the configured Reranker over the top rerankWindow fused
// candidates and falls back to preserving fusion order on any error — an
// unavailable reranker is observable, never fatal.
func rerank(ctx context.Context, reranker Reranker, query string, fused []types.Card) ([]types.Card, error) {
	if len(fused) == 0 {
		return fused, nil
	}
	window := fused
	rest := []types.Card(nil)
	if len(fused) > rerankWindow {
		window = fused[:rerankWindow]
		rest = fused[rerankWindow:]
	}

	reordered, err := reranker.Rerank(ctx, query, window)
	if err != nil {
		return fused, knowerrors.NewRerankUnavailable(err)
	}
	return append(reordered, rest...), nil
}

const rerankWindow = 20
