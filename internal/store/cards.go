package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

type cardRow struct {
	ID               string
	Flow             string
	Title            string
	Content          string
	CardType         string
	SourceFiles      string
	SourceRepos      string
	Tags             string
	Identifiers      string
	CommitSHA        string
	ContentHash      string
	ValidBranches    sql.NullString
	SpecificityScore float64
	UsageCount       int64
	Stale            bool
	ExpiresAt        sql.NullString
}

func marshalCard(c types.Card) (cardRow, error) {
	sf, err := json.Marshal(c.SourceFiles)
	if err != nil {
		return cardRow{}, storeErrf("marshal source_files", err)
	}
	sr, err := json.Marshal(c.SourceRepos)
	if err != nil {
		return cardRow{}, storeErrf("marshal source_repos", err)
	}
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return cardRow{}, storeErrf("marshal tags", err)
	}
	ids, err := json.Marshal(c.Identifiers)
	if err != nil {
		return cardRow{}, storeErrf("marshal identifiers", err)
	}
	row := cardRow{
		ID:               c.ID,
		Flow:             c.Flow,
		Title:            c.Title,
		Content:          c.Content,
		CardType:         string(c.CardType),
		SourceFiles:      string(sf),
		SourceRepos:      string(sr),
		Tags:             string(tags),
		Identifiers:      string(ids),
		CommitSHA:        c.CommitSHA,
		ContentHash:      c.ContentHash,
		SpecificityScore: c.SpecificityScore,
		UsageCount:       c.UsageCount,
		Stale:            c.Stale,
	}
	if c.ValidBranches != nil {
		vb, err := json.Marshal(c.ValidBranches)
		if err != nil {
			return cardRow{}, storeErrf("marshal valid_branches", err)
		}
		row.ValidBranches = sql.NullString{String: string(vb), Valid: true}
	}
	if c.ExpiresAt != nil {
		row.ExpiresAt = sql.NullString{String: c.ExpiresAt.UTC().Format(time.RFC3339), Valid: true}
	}
	return row, nil
}

func unmarshalCard(row cardRow) (types.Card, error) {
	c := types.Card{
		ID:               row.ID,
		Flow:             row.Flow,
		Title:            row.Title,
		Content:          row.Content,
		CardType:         types.CardType(row.CardType),
		CommitSHA:        row.CommitSHA,
		ContentHash:      row.ContentHash,
		SpecificityScore: row.SpecificityScore,
		UsageCount:       row.UsageCount,
		Stale:            row.Stale,
	}
	if err := json.Unmarshal([]byte(row.SourceFiles), &c.SourceFiles); err != nil {
		return c, storeErrf("unmarshal source_files", err)
	}
	if err := json.Unmarshal([]byte(row.SourceRepos), &c.SourceRepos); err != nil {
		return c, storeErrf("unmarshal source_repos", err)
	}
	if row.Tags != "" {
		_ = json.Unmarshal([]byte(row.Tags), &c.Tags)
	}
	if row.Identifiers != "" {
		_ = json.Unmarshal([]byte(row.Identifiers), &c.Identifiers)
	}
	if row.ValidBranches.Valid {
		_ = json.Unmarshal([]byte(row.ValidBranches.String), &c.ValidBranches)
	}
	if row.ExpiresAt.Valid {
		if t, err := time.Parse(time.RFC3339, row.ExpiresAt.String); err == nil {
			c.ExpiresAt = &t
		}
	}
	return c, nil
}

// UpsertCard inserts a card row, or updates the existing row with the same
// id. content_hash's unique index means two cards with identical (title,
// content) but different ids collide here deliberately: the insert fails
// with a unique-constraint error. Callers that want idempotent regeneration
// should pre-compute the same id+hash so the ON CONFLICT(id) update applies.
func (t *Tx) UpsertCard(ctx context.Context, c types.Card) error {
	row, err := marshalCard(c)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO cards (id, flow, title, content, card_type, source_files, source_repos,
			tags, identifiers, commit_sha, content_hash, valid_branches, specificity_score,
			usage_count, stale, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			flow=excluded.flow, title=excluded.title, content=excluded.content,
			card_type=excluded.card_type, source_files=excluded.source_files,
			source_repos=excluded.source_repos, tags=excluded.tags,
			identifiers=excluded.identifiers, commit_sha=excluded.commit_sha,
			content_hash=excluded.content_hash, valid_branches=excluded.valid_branches,
			specificity_score=excluded.specificity_score, usage_count=excluded.usage_count,
			stale=excluded.stale, expires_at=excluded.expires_at
	`, row.ID, row.Flow, row.Title, row.Content, row.CardType, row.SourceFiles, row.SourceRepos,
		row.Tags, row.Identifiers, row.CommitSHA, row.ContentHash, row.ValidBranches,
		row.SpecificityScore, row.UsageCount, row.Stale, row.ExpiresAt)
	return storeErrf("upsert_card", err)
}

// ReplaceCardsOfTypes atomically deletes every card of the given types and
// inserts newCards in one transaction. Callers MUST call
// RebuildLexicalIndex after commit — this is a required step of the
// orchestrator's card phase, not a best-effort optimization,
// so it is deliberately not folded into this call: the lexical rebuild must
// happen after the transaction commits, not inside it, since the rebuild
// copies rows from the committed cards table.
func (t *Tx) ReplaceCardsOfTypes(ctx context.Context, types_ []types.CardType, newCards []types.Card) error {
	for _, ct := range types_ {
		if _, err := t.tx.ExecContext(ctx, `DELETE FROM cards WHERE card_type = ?`, string(ct)); err != nil {
			return storeErrf("replace_cards_of_types: delete", err)
		}
	}
	for _, c := range newCards {
		if err := t.UpsertCard(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// DeleteExpiredCards removes cards whose expires_at has passed as of now.
func (t *Tx) DeleteExpiredCards(ctx context.Context, now time.Time) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM cards WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		now.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, storeErrf("delete_expired_cards", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RebuildLexicalIndex repopulates the FTS5 table cards_fts from the current
// non-stale rows of the cards table. Must run after any bulk card replacement
// and before the next search.
func (s *Store) RebuildLexicalIndex(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErrf("rebuild_lexical_index: begin", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cards_fts`); err != nil {
		tx.Rollback()
		return storeErrf("rebuild_lexical_index: clear", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cards_fts (id, title, content, identifiers)
		SELECT id, title, content, identifiers FROM cards WHERE stale = 0
	`); err != nil {
		tx.Rollback()
		return storeErrf("rebuild_lexical_index: populate", err)
	}
	if err := tx.Commit(); err != nil {
		return storeErrf("rebuild_lexical_index: commit", err)
	}
	return nil
}

// FetchCardsByIDs loads cards by id, preserving the order of ids where found.
func (s *Store) FetchCardsByIDs(ctx context.Context, ids []string) ([]types.Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]any, len(ids))
	query := "SELECT id, flow, title, content, card_type, source_files, source_repos, tags, identifiers, commit_sha, content_hash, valid_branches, specificity_score, usage_count, stale, expires_at FROM cards WHERE id IN ("
	for i, id := range ids {
		if i > 0 {
			query += ","
		}
		query += "?"
		placeholders[i] = id
	}
	query += ")"

	rows, err := s.db.QueryContext(ctx, query, placeholders...)
	if err != nil {
		return nil, storeErrf("fetch_cards_by_ids", err)
	}
	defer rows.Close()

	byID := map[string]types.Card{}
	for rows.Next() {
		var row cardRow
		if err := rows.Scan(&row.ID, &row.Flow, &row.Title, &row.Content, &row.CardType,
			&row.SourceFiles, &row.SourceRepos, &row.Tags, &row.Identifiers, &row.CommitSHA,
			&row.ContentHash, &row.ValidBranches, &row.SpecificityScore, &row.UsageCount,
			&row.Stale, &row.ExpiresAt); err != nil {
			return nil, storeErrf("fetch_cards_by_ids: scan", err)
		}
		c, err := unmarshalCard(row)
		if err != nil {
			return nil, err
		}
		byID[c.ID] = c
	}

	ordered := make([]types.Card, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

// MarkCardsStale flips stale=true on the given card ids in one transaction,
// used by the Invalidator.
func (t *Tx) MarkCardsStale(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := t.tx.ExecContext(ctx, `UPDATE cards SET stale = 1 WHERE id = ?`, id); err != nil {
			return storeErrf("mark_cards_stale", err)
		}
	}
	return nil
}

// IncrementUsageCount bumps usage_count for each returned card id in one
// transaction.
func (t *Tx) IncrementUsageCount(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := t.tx.ExecContext(ctx, `UPDATE cards SET usage_count = usage_count + 1 WHERE id = ?`, id); err != nil {
			return storeErrf("increment_usage_count", err)
		}
	}
	return nil
}

// CardsForRepoWithFiles returns non-stale cards belonging to repo whose
// source_files intersects candidateFiles — used by the Invalidator.
func (s *Store) CardsForRepoWithFiles(ctx context.Context, repo string, candidateFiles map[string]bool) ([]types.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, flow, title, content, card_type, source_files, source_repos, tags, identifiers,
			commit_sha, content_hash, valid_branches, specificity_score, usage_count, stale, expires_at
		FROM cards WHERE stale = 0 AND source_repos LIKE '%' || ? || '%'
	`, repo)
	if err != nil {
		return nil, storeErrf("cards_for_repo_with_files", err)
	}
	defer rows.Close()

	var out []types.Card
	for rows.Next() {
		var row cardRow
		if err := rows.Scan(&row.ID, &row.Flow, &row.Title, &row.Content, &row.CardType,
			&row.SourceFiles, &row.SourceRepos, &row.Tags, &row.Identifiers, &row.CommitSHA,
			&row.ContentHash, &row.ValidBranches, &row.SpecificityScore, &row.UsageCount,
			&row.Stale, &row.ExpiresAt); err != nil {
			return nil, storeErrf("cards_for_repo_with_files: scan", err)
		}
		c, err := unmarshalCard(row)
		if err != nil {
			return nil, err
		}
		if !cardMatchesRepo(c, repo) {
			continue
		}
		for _, f := range c.SourceFiles {
			if candidateFiles[f] {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

// CardsByTypeWithFile returns non-stale cards of the given type, across
// all repos, whose source_files contains file — used by cross-repo
// invalidation: an api_endpoint edge from a changed BE file to FE file t
// stales any cross_service card elsewhere referencing t.
func (s *Store) CardsByTypeWithFile(ctx context.Context, cardType types.CardType, file string) ([]types.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, flow, title, content, card_type, source_files, source_repos, tags, identifiers,
			commit_sha, content_hash, valid_branches, specificity_score, usage_count, stale, expires_at
		FROM cards WHERE stale = 0 AND card_type = ?
	`, string(cardType))
	if err != nil {
		return nil, storeErrf("cards_by_type_with_file", err)
	}
	defer rows.Close()

	var out []types.Card
	for rows.Next() {
		var row cardRow
		if err := rows.Scan(&row.ID, &row.Flow, &row.Title, &row.Content, &row.CardType,
			&row.SourceFiles, &row.SourceRepos, &row.Tags, &row.Identifiers, &row.CommitSHA,
			&row.ContentHash, &row.ValidBranches, &row.SpecificityScore, &row.UsageCount,
			&row.Stale, &row.ExpiresAt); err != nil {
			return nil, storeErrf("cards_by_type_with_file: scan", err)
		}
		c, err := unmarshalCard(row)
		if err != nil {
			return nil, err
		}
		for _, f := range c.SourceFiles {
			if f == file {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func cardMatchesRepo(c types.Card, repo string) bool {
	for _, r := range c.SourceRepos {
		if r == repo {
			return true
		}
	}
	return false
}
