package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workspace.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertAndFetchCard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	card := types.Card{
		ID:          "card-1",
		Flow:        "billing",
		Title:       "Billing flow",
		Content:     "handles invoices",
		CardType:    types.CardTypeFlow,
		SourceFiles: []string{"api/billing.rb"},
		SourceRepos: []string{"payments"},
		ContentHash: "hash-1",
	}

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertCard(ctx, card))
	require.NoError(t, tx.Commit())

	got, err := s.FetchCardsByIDs(ctx, []string{"card-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Billing flow", got[0].Title)
	require.Equal(t, []string{"payments"}, got[0].SourceRepos)
}

func TestReplaceCardsOfTypesThenRebuildRequired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertCard(ctx, types.Card{
		ID: "c1", Flow: "f", Title: "Alpha", Content: "alpha body",
		CardType: types.CardTypeFlow, SourceFiles: []string{"a.go"},
		SourceRepos: []string{"r"}, ContentHash: "h1", Identifiers: []string{"Alpha"},
	}))
	require.NoError(t, tx.Commit())
	require.NoError(t, s.RebuildLexicalIndex(ctx))

	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.ReplaceCardsOfTypes(ctx, []types.CardType{types.CardTypeFlow}, nil))
	require.NoError(t, tx.Commit())

	// Spec property (§8): search for a just-deleted identifier returns zero
	// hits only once rebuild_lexical_index has been called again.
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT count(*) FROM cards_fts WHERE cards_fts MATCH 'Alpha'`)
	require.NoError(t, row.Scan(&count))
	require.Equal(t, 1, count, "stale FTS row should still be present before rebuild")

	require.NoError(t, s.RebuildLexicalIndex(ctx))
	row = s.db.QueryRowContext(ctx, `SELECT count(*) FROM cards_fts WHERE cards_fts MATCH 'Alpha'`)
	require.NoError(t, row.Scan(&count))
	require.Equal(t, 0, count)
}

func TestAdvisoryRunLock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.AcquireRunLock(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.AcquireRunLock(ctx, "run-2")
	require.NoError(t, err)
	require.False(t, ok, "second run must not acquire the lock while the first holds it")

	require.NoError(t, s.ReleaseRunLock(ctx, "run-1"))

	ok, err = s.AcquireRunLock(ctx, "run-2")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDeleteExpiredCards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertCard(ctx, types.Card{
		ID: "expired", Flow: "f", Title: "t", Content: "c", CardType: types.CardTypeHub,
		SourceFiles: []string{"x.go"}, SourceRepos: []string{"r"}, ContentHash: "h2",
		ExpiresAt: &past,
	}))
	require.NoError(t, err)
	n, err := tx.DeleteExpiredCards(ctx, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.NoError(t, tx.Commit())
}
