package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// LogMetric appends a Metric row. Append-only: no update or delete path
// exists for this table.
func (s *Store) LogMetric(ctx context.Context, m types.Metric) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cards, err := json.Marshal(m.ResponseCards)
	if err != nil {
		return storeErrf("log_metric: marshal cards", err)
	}
	var embBytes []byte
	if m.QueryEmbedding != nil {
		embBytes = encodeVector(m.QueryEmbedding)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO metrics (query, query_embedding, response_cards, response_tokens,
			cache_hit, latency_ms, timestamp, branch, dev_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.Query, embBytes, string(cards), m.ResponseTokens, m.CacheHit, m.LatencyMS,
		m.Timestamp.UTC().Format(time.RFC3339), m.Branch, m.DevID)
	return storeErrf("log_metric", err)
}

// RecentQueryMetrics returns the most recent N metrics that carry a query
// embedding, newest first — backs the semantic query cache.
func (s *Store) RecentQueryMetrics(ctx context.Context, n int) ([]types.Metric, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT query, query_embedding, response_cards, response_tokens, cache_hit, latency_ms, timestamp, branch, dev_id
		FROM metrics WHERE query_embedding IS NOT NULL
		ORDER BY id DESC LIMIT ?
	`, n)
	if err != nil {
		return nil, storeErrf("recent_query_metrics", err)
	}
	defer rows.Close()

	var out []types.Metric
	for rows.Next() {
		var m types.Metric
		var emb []byte
		var cards, ts string
		if err := rows.Scan(&m.Query, &emb, &cards, &m.ResponseTokens, &m.CacheHit, &m.LatencyMS, &ts, &m.Branch, &m.DevID); err != nil {
			return nil, storeErrf("recent_query_metrics: scan", err)
		}
		if emb != nil {
			m.QueryEmbedding = decodeVector(emb)
		}
		_ = json.Unmarshal([]byte(cards), &m.ResponseCards)
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			m.Timestamp = parsed
		}
		out = append(out, m)
	}
	return out, nil
}
