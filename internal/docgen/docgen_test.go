package docgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

type fakeLLM struct {
	fail bool
}

func (f fakeLLM) Generate(ctx context.Context, dt types.DocType, prompt string) (string, error) {
	if f.fail {
		return "", context.DeadlineExceeded
	}
	return "generated: " + string(dt), nil
}

func testInput() Input {
	return Input{
		Repo: "billing-svc",
		Profile: types.RepoProfile{
			Repo: "billing-svc", PrimaryLanguage: "ruby",
			Frameworks: []string{"rails"}, PackageManager: "bundler",
		},
		Files: []types.ParsedFile{
			{Path: "app/models/invoice.rb", Repo: "billing-svc"},
			{Path: "app/controllers/invoices_controller.rb", Repo: "billing-svc"},
		},
		Thermal:    map[string]float64{"app/models/invoice.rb": 0.9, "app/controllers/invoices_controller.rb": 0.2},
		OtherRepos: []string{"web-app"},
	}
}

func TestGenerateAllNoLLMProducesStructuralContentForEveryType(t *testing.T) {
	g := New(nil)
	res := g.GenerateAll(context.Background(), testInput(), Options{})

	require.Len(t, res.Docs, len(GeneratedDocTypes))
	require.Len(t, res.Errors, len(GeneratedDocTypes))
	for _, d := range res.Docs {
		require.NotEmpty(t, d.Content)
		require.Equal(t, "billing-svc", d.Repo)
		require.False(t, d.Stale)
	}
}

func TestGenerateAllWithLLMUsesItsContent(t *testing.T) {
	g := New(fakeLLM{})
	res := g.GenerateAll(context.Background(), testInput(), Options{})

	require.Empty(t, res.Errors)
	for _, d := range res.Docs {
		require.Contains(t, d.Content, "generated: "+string(d.DocType))
	}
}

func TestGenerateAllLLMFailureFallsBackStructurally(t *testing.T) {
	g := New(fakeLLM{fail: true})
	res := g.GenerateAll(context.Background(), testInput(), Options{})

	require.NotEmpty(t, res.Errors)
	for _, d := range res.Docs {
		require.NotContains(t, d.Content, "generated:")
	}
}

func TestGenerateAllSkipsFreshExistingDocsWhenSkipExisting(t *testing.T) {
	existing := map[types.DocType]types.ProjectDoc{
		types.DocTypeReadme: {Repo: "billing-svc", DocType: types.DocTypeReadme, Content: "old readme", Stale: false},
	}
	in := testInput()
	in.Existing = existing

	g := New(fakeLLM{})
	res := g.GenerateAll(context.Background(), in, Options{SkipExisting: true})

	require.Contains(t, res.Skipped, types.DocTypeReadme)
	for _, d := range res.Docs {
		require.NotEqual(t, types.DocTypeReadme, d.DocType)
	}
}

func TestGenerateAllForceRegenerateOverridesSkipExisting(t *testing.T) {
	existing := map[types.DocType]types.ProjectDoc{
		types.DocTypeReadme: {Repo: "billing-svc", DocType: types.DocTypeReadme, Content: "old readme", Stale: false},
	}
	in := testInput()
	in.Existing = existing

	g := New(fakeLLM{})
	res := g.GenerateAll(context.Background(), in, Options{SkipExisting: true, ForceRegenerate: true})

	require.Empty(t, res.Skipped)
	found := false
	for _, d := range res.Docs {
		if d.DocType == types.DocTypeReadme {
			found = true
			require.Contains(t, d.Content, "generated: readme")
		}
	}
	require.True(t, found)
}

func TestGenerateAllRegeneratesStaleExistingDocsEvenWithSkipExisting(t *testing.T) {
	existing := map[types.DocType]types.ProjectDoc{
		types.DocTypeReadme: {Repo: "billing-svc", DocType: types.DocTypeReadme, Content: "old readme", Stale: true},
	}
	in := testInput()
	in.Existing = existing

	g := New(fakeLLM{})
	res := g.GenerateAll(context.Background(), in, Options{SkipExisting: true})

	require.NotContains(t, res.Skipped, types.DocTypeReadme)
}

func TestPromptForRendersNonEmptyTemplateForEveryType(t *testing.T) {
	in := testInput()
	for _, dt := range GeneratedDocTypes {
		require.NotEmpty(t, promptFor(dt, in), "doc type %s", dt)
	}
}

func TestStructuralContentCitesObservedRoutes(t *testing.T) {
	in := testInput()
	in.CrossRepo = []types.GraphEdge{
		{SourceFile: "app/controllers/invoices_controller.rb", TargetFile: "web/src/Billing.tsx",
			Relation: types.RelationAPIEndpoint, Repo: "billing-svc",
			Endpoint: &types.EndpointMetadata{Method: "GET", Route: "/invoices/:id"}},
	}
	content := structuralContent(types.DocTypeBEOverview, in)
	require.Contains(t, content, "GET /invoices/:id")
}

func TestStructuralContentCitesTopFilesByHeat(t *testing.T) {
	content := structuralContent(types.DocTypeArchitecture, testInput())
	require.Contains(t, content, "app/models/invoice.rb")
	// hotter file should appear before the cooler one
	hotIdx := indexOf(content, "app/models/invoice.rb")
	coolIdx := indexOf(content, "app/controllers/invoices_controller.rb")
	require.Less(t, hotIdx, coolIdx)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
