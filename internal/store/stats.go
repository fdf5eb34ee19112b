package store

import "context"

// Stats summarizes workspace-wide counts, backing health()'s
// { status, cards, flows } response shape.
type Stats struct {
	TotalCards int
	StaleCards int
	Flows      int
}

// Stats computes the counts in two simple aggregate queries rather than
// loading every card into Go: the cards table already carries the
// card_type/stale index this relies on.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(stale), 0) FROM cards`)
	if err := row.Scan(&st.TotalCards, &st.StaleCards); err != nil {
		return st, storeErrf("stats: cards", err)
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT flow) FROM cards WHERE flow != ''`)
	if err := row.Scan(&st.Flows); err != nil {
		return st, storeErrf("stats: flows", err)
	}
	return st, nil
}
