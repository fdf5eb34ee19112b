package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

func TestBuildEdgesImportAndAssociation(t *testing.T) {
	files := []types.ParsedFile{
		{
			Path: "/repo/service/billing.go",
			Repo: "payments",
			Classes: []types.ParsedClass{
				{Name: "BillingService", Associations: []string{"Invoice"}},
			},
			Imports: []string{"payments/models"},
		},
		{
			Path: "/repo/models/invoice.go",
			Repo: "payments",
			Classes: []types.ParsedClass{
				{Name: "Invoice", IsModel: true},
			},
		},
	}

	edges := BuildEdges(files, "/repo")
	require.NotEmpty(t, edges)

	var gotAssociation bool
	for _, e := range edges {
		if e.Relation == types.RelationAssociation {
			require.Equal(t, "service/billing.go", e.SourceFile)
			require.Equal(t, "models/invoice.go", e.TargetFile)
			gotAssociation = true
		}
	}
	require.True(t, gotAssociation, "expected an association edge from BillingService to Invoice")
}

func TestBuildEdgesAPIEndpoint(t *testing.T) {
	files := []types.ParsedFile{
		{
			Path: "/repo/api/controllers/billing.go",
			Repo: "api",
			Functions: []types.ParsedFunction{
				{Name: "ListInvoices", Route: &types.EndpointMetadata{Method: "GET", Route: "/billing"}},
			},
		},
		{
			Path:      "/repo/web/src/Billing.tsx",
			Repo:      "web",
			RouteRefs: []string{"/billing"},
		},
	}

	edges := BuildEdges(files, "/repo")
	require.Len(t, edges, 1)
	require.Equal(t, types.RelationAPIEndpoint, edges[0].Relation)
	require.Equal(t, "api/controllers/billing.go", edges[0].SourceFile)
	require.Equal(t, "web/src/Billing.tsx", edges[0].TargetFile)
	require.Equal(t, "/billing", edges[0].Endpoint.Route)
	require.Equal(t, "api", edges[0].Repo)
}

func TestBuildEdgesAPIEndpointParamRoutes(t *testing.T) {
	files := []types.ParsedFile{
		{
			Path: "/repo/api/users.go",
			Repo: "api",
			Functions: []types.ParsedFunction{
				{Name: "GetUser", Route: &types.EndpointMetadata{Method: "GET", Route: "/users/:id"}},
			},
		},
		{
			Path:      "/repo/web/user.ts",
			Repo:      "web",
			RouteRefs: []string{"/users/42"},
		},
		{
			Path:      "/repo/web/unrelated.ts",
			Repo:      "web",
			RouteRefs: []string{"/orders/42"},
		},
	}

	edges := BuildEdges(files, "/repo")
	require.Len(t, edges, 1)
	require.Equal(t, "web/user.ts", edges[0].TargetFile)
}

func TestBuildEdgesDeduplicates(t *testing.T) {
	files := []types.ParsedFile{
		{
			Path:    "/repo/a.go",
			Repo:    "r",
			Imports: []string{"b", "b", "b"},
		},
		{Path: "/repo/b.go", Repo: "r"},
	}
	edges := BuildEdges(files, "/repo")
	require.Len(t, edges, 1)
}
