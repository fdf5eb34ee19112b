package store

import "context"

// LexicalSearchResult is one ranked hit from the full-text index.
type LexicalSearchResult struct {
	CardID string
	Rank   float64 // FTS5 bm25(); lower is a better match
}

// LexicalSearch runs the query against the cards_fts FTS5 index over
// (title, content, identifiers), ranked by SQLite's built-in bm25(). This is
// the C11 lexical retrieval leg's backing primitive.
func (s *Store) LexicalSearch(ctx context.Context, query string, k int) ([]LexicalSearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bm25(cards_fts) AS rank
		FROM cards_fts
		WHERE cards_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, k)
	if err != nil {
		return nil, storeErrf("lexical_search", err)
	}
	defer rows.Close()

	var out []LexicalSearchResult
	for rows.Next() {
		var r LexicalSearchResult
		if err := rows.Scan(&r.CardID, &r.Rank); err != nil {
			return nil, storeErrf("lexical_search: scan", err)
		}
		out = append(out, r)
	}
	return out, nil
}
