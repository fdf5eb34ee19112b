package store

import (
	"context"
	"encoding/json"
	"math"
	"sort"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// encodeVector packs a float32 slice as little-endian bytes for BLOB
// storage.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		bits := math.Float32bits(f)
		buf[4*i+0] = byte(bits)
		buf[4*i+1] = byte(bits >> 8)
		buf[4*i+2] = byte(bits >> 16)
		buf[4*i+3] = byte(bits >> 24)
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		bits := uint32(buf[4*i+0]) | uint32(buf[4*i+1])<<8 | uint32(buf[4*i+2])<<16 | uint32(buf[4*i+3])<<24
		v[i] = math.Float32frombits(bits)
	}
	return v
}

// UpsertEmbedding stores a card's body and title vectors. Every non-stale
// card must have a row here — the
// embedding phase runs immediately after card generation for exactly this
// reason.
func (t *Tx) UpsertEmbedding(ctx context.Context, e types.CardEmbedding) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO card_embeddings (card_id, vector, title_vector, dimensionality)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(card_id) DO UPDATE SET
			vector=excluded.vector, title_vector=excluded.title_vector,
			dimensionality=excluded.dimensionality
	`, e.CardID, encodeVector(e.Vector), encodeVector(e.TitleVector), e.Dimensionality)
	return storeErrf("upsert_embedding", err)
}

// VectorFilter narrows the linear scan to a candidate subset before
// distance computation. The scan is deliberately linear at this corpus
// size; an ANN index is a future scale-out.
type VectorFilter struct {
	CardIDs  []string // nil means "all cards with an embedding"
	CardType *types.CardType
}

// VectorScanResult is one ranked hit from a dense scan.
type VectorScanResult struct {
	CardID     string
	Similarity float64
}

// VectorScan performs a brute-force cosine-similarity scan against
// card_embeddings, returning the top k by similarity to query. This is the
// C11 dense retrieval leg's backing primitive.
func (s *Store) VectorScan(ctx context.Context, query []float32, filter VectorFilter, k int) ([]VectorScanResult, error) {
	sqlQuery := `SELECT ce.card_id, ce.vector FROM card_embeddings ce`
	var args []any
	if filter.CardType != nil {
		sqlQuery += ` JOIN cards c ON c.id = ce.card_id WHERE c.card_type = ? AND c.stale = 0`
		args = append(args, string(*filter.CardType))
	} else {
		sqlQuery += ` JOIN cards c ON c.id = ce.card_id WHERE c.stale = 0`
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, storeErrf("vector_scan", err)
	}
	defer rows.Close()

	var allowed map[string]bool
	if filter.CardIDs != nil {
		allowed = make(map[string]bool, len(filter.CardIDs))
		for _, id := range filter.CardIDs {
			allowed[id] = true
		}
	}

	var results []VectorScanResult
	for rows.Next() {
		var id string
		var buf []byte
		if err := rows.Scan(&id, &buf); err != nil {
			return nil, storeErrf("vector_scan: scan", err)
		}
		if allowed != nil && !allowed[id] {
			continue
		}
		sim := cosineSimilarity(query, decodeVector(buf))
		results = append(results, VectorScanResult{CardID: id, Similarity: sim})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// AllEmbeddingsForRepo loads every (card_id, vector) pair for a repo's
// non-stale cards, used by the retriever's affinity blend to compute repo
// centroids.
func (s *Store) AllEmbeddingsForRepo(ctx context.Context, repo string) (map[string][]float32, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ce.card_id, ce.vector, c.source_repos FROM card_embeddings ce
		JOIN cards c ON c.id = ce.card_id
		WHERE c.source_repos LIKE '%' || ? || '%' AND c.stale = 0
	`, repo)
	if err != nil {
		return nil, storeErrf("all_embeddings_for_repo", err)
	}
	defer rows.Close()

	out := map[string][]float32{}
	for rows.Next() {
		var id, sourceRepos string
		var buf []byte
		if err := rows.Scan(&id, &buf, &sourceRepos); err != nil {
			return nil, storeErrf("all_embeddings_for_repo: scan", err)
		}
		// The LIKE prefilter is a substring match; keep only exact repo members.
		var repos []string
		_ = json.Unmarshal([]byte(sourceRepos), &repos)
		if !cardMatchesRepo(types.Card{SourceRepos: repos}, repo) {
			continue
		}
		out[id] = decodeVector(buf)
	}
	return out, nil
}

// UpdateSpecificity persists a card's computed specificity_score.
func (t *Tx) UpdateSpecificity(ctx context.Context, cardID string, score float64) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE cards SET specificity_score = ? WHERE id = ?`, score, cardID)
	return storeErrf("update_specificity", err)
}
