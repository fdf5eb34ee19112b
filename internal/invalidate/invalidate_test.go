package invalidate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/knowledge-engine/internal/store"
	"github.com/standardbeagle/knowledge-engine/internal/types"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workspace.db")
	s, err := store.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedCard(t *testing.T, s *store.Store, c types.Card) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.UpsertCard(ctx, c))
	require.NoError(t, tx.Commit())
}

func TestInvalidateStalesCardsWithIntersectingFiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedCard(t, s, types.Card{
		ID: "card-a", Flow: "billing", Title: "t", Content: "c",
		CardType: types.CardTypeFlow, SourceFiles: []string{"app/models/invoice.rb"},
		SourceRepos: []string{"billing-svc"}, ContentHash: "h1",
	})

	res, err := Invalidate(ctx, s, "billing-svc", []string{"app/models/invoice.rb"}, false)
	require.NoError(t, err)
	require.Contains(t, res.StaleCardIDs, "card-a")
}

func TestInvalidateSoundnessLeavesUnrelatedCardsNonStale(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedCard(t, s, types.Card{
		ID: "card-b", Flow: "billing", Title: "t", Content: "c",
		CardType: types.CardTypeFlow, SourceFiles: []string{"app/models/invoice.rb"},
		SourceRepos: []string{"billing-svc"}, ContentHash: "h2",
	})

	res, err := Invalidate(ctx, s, "billing-svc", []string{"app/controllers/unrelated.rb"}, false)
	require.NoError(t, err)
	require.NotContains(t, res.StaleCardIDs, "card-b")
}

func TestClassifyFileRules(t *testing.T) {
	require.Equal(t, categorySchema, classifyFile("db/migrations/001_create_invoices.sql"))
	require.Equal(t, categoryRoutes, classifyFile("config/routes.rb"))
	require.Equal(t, categoryModel, classifyFile("app/models/invoice.rb"))
	require.Equal(t, categoryManifest, classifyFile("package.json"))
	require.Equal(t, categoryStylesheet, classifyFile("web/src/Billing.scss"))
	require.Equal(t, categoryOrdinary, classifyFile("app/services/invoice_calculator.rb"))
}

func TestInvalidateModelChangeCascadesToAboutArchitectureRulesAndSpecialist(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	res, err := Invalidate(ctx, s, "billing-svc", []string{"app/models/invoice.rb"}, false)
	require.NoError(t, err)
	require.ElementsMatch(t, res.StaleDocTypes, []types.DocType{
		types.DocTypeAbout, types.DocTypeArchitecture, types.DocTypeRules, types.DocTypeSpecialist,
	})
}

func TestInvalidateChangelogOnlyStalesOnMergeEvent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	res, err := Invalidate(ctx, s, "billing-svc", []string{"app/services/x.rb"}, false)
	require.NoError(t, err)
	require.NotContains(t, res.StaleDocTypes, types.DocTypeChangelog)

	res, err = Invalidate(ctx, s, "billing-svc", []string{"app/services/x.rb"}, true)
	require.NoError(t, err)
	require.Contains(t, res.StaleDocTypes, types.DocTypeChangelog)
}

func TestInvalidateCrossRepoPropagation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedCard(t, s, types.Card{
		ID: "cross-1", Flow: "billing-web", Title: "t", Content: "c",
		CardType:    types.CardTypeCrossService,
		SourceFiles: []string{"web/src/Billing.tsx"},
		SourceRepos: []string{"billing-svc", "web-app"}, ContentHash: "h3",
	})

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.ReplaceEdges(ctx, []string{"billing-svc"}, []types.GraphEdge{
		{
			SourceFile: "api/controllers/billing.rb", TargetFile: "web/src/Billing.tsx",
			Relation: types.RelationAPIEndpoint, Repo: "billing-svc",
			Endpoint: &types.EndpointMetadata{Method: "GET", Route: "/invoices/:id"},
		},
	}))
	require.NoError(t, tx.Commit())

	res, err := Invalidate(ctx, s, "billing-svc", []string{"api/controllers/billing.rb"}, false)
	require.NoError(t, err)
	require.Contains(t, res.StaleCrossServiceCardIDs, "cross-1")
	require.Contains(t, res.StaleCardIDs, "cross-1")
}

func TestInvalidateCrossRepoPropagationRequiresSourceFileChanged(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedCard(t, s, types.Card{
		ID: "cross-2", Flow: "billing-web", Title: "t", Content: "c",
		CardType:    types.CardTypeCrossService,
		SourceFiles: []string{"web/src/Billing.tsx"},
		SourceRepos: []string{"billing-svc", "web-app"}, ContentHash: "h4",
	})

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.ReplaceEdges(ctx, []string{"billing-svc"}, []types.GraphEdge{
		{
			SourceFile: "api/controllers/billing.rb", TargetFile: "web/src/Billing.tsx",
			Relation: types.RelationAPIEndpoint, Repo: "billing-svc",
			Endpoint: &types.EndpointMetadata{Method: "GET", Route: "/invoices/:id"},
		},
	}))
	require.NoError(t, tx.Commit())

	res, err := Invalidate(ctx, s, "billing-svc", []string{"api/controllers/unrelated.rb"}, false)
	require.NoError(t, err)
	require.Empty(t, res.StaleCrossServiceCardIDs)
}
