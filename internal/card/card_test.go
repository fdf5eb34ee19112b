package card

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

func TestBuildFlowCardsMarksHub(t *testing.T) {
	flows := []types.Flow{
		{Name: "checkout", Files: []string{"svc/checkout.go"}, Repos: []string{"svc"}, IsHub: false},
		{Name: "core", Files: []string{"svc/core.go"}, Repos: []string{"svc"}, IsHub: true},
	}
	cards := BuildFlowCards(flows, nil, nil, "abc123")
	require.Len(t, cards, 2)

	var hubCard, flowCard *types.Card
	for i := range cards {
		switch cards[i].CardType {
		case types.CardTypeHub:
			hubCard = &cards[i]
		case types.CardTypeFlow:
			flowCard = &cards[i]
		}
	}
	require.NotNil(t, hubCard)
	require.NotNil(t, flowCard)
	require.Equal(t, "abc123", hubCard.CommitSHA)
	require.NotEmpty(t, hubCard.ContentHash)
	require.NotEmpty(t, hubCard.ID)
	require.NotEqual(t, hubCard.ID, flowCard.ID)
}

func TestCardIDIsOrderIndependent(t *testing.T) {
	id1 := cardID("checkout", types.CardTypeFlow, []string{"a.go", "b.go"})
	id2 := cardID("checkout", types.CardTypeFlow, []string{"b.go", "a.go"})
	require.Equal(t, id1, id2)
}

func TestNotableFilesOrdersByHeat(t *testing.T) {
	files := []string{"cold.go", "hot.go", "warm.go"}
	thermal := map[string]float64{"hot.go": 1.0, "warm.go": 0.5, "cold.go": 0.1}
	ordered := notableFiles(files, thermal)
	require.Equal(t, []string{"hot.go", "warm.go", "cold.go"}, ordered)
}

func TestBuildModelCardsOnlyIncludesModelClasses(t *testing.T) {
	files := []types.ParsedFile{
		{
			Path: "svc/user.go", Repo: "svc",
			Classes: []types.ParsedClass{
				{Name: "User", IsModel: true, Associations: []string{"Account"}},
				{Name: "UserController", IsModel: false},
			},
		},
	}
	cards := BuildModelCards(files, "sha1")
	require.Len(t, cards, 1)
	require.Equal(t, "User", cards[0].Title)
	require.Equal(t, types.CardTypeModel, cards[0].CardType)
	require.Contains(t, cards[0].Content, "Account")
}

func TestBuildCrossServiceCardsOnePerRepoPair(t *testing.T) {
	files := []types.ParsedFile{
		{Path: "web/api.ts", Repo: "web"},
		{Path: "api/routes.go", Repo: "api"},
	}
	edges := []types.GraphEdge{
		{SourceFile: "api/routes.go", TargetFile: "web/api.ts", Relation: types.RelationAPIEndpoint, Repo: "api",
			Endpoint: &types.EndpointMetadata{Method: "GET", Route: "/users"}},
		{SourceFile: "api/routes.go", TargetFile: "web/api.ts", Relation: types.RelationAPIEndpoint, Repo: "api",
			Endpoint: &types.EndpointMetadata{Method: "POST", Route: "/users"}},
	}
	cards := BuildCrossServiceCards(edges, files, "sha2")
	require.Len(t, cards, 1)
	require.Equal(t, types.CardTypeCrossService, cards[0].CardType)
	require.ElementsMatch(t, []string{"web", "api"}, cards[0].SourceRepos)
	require.Contains(t, cards[0].Content, "GET /users")
	require.Contains(t, cards[0].Content, "POST /users")
}

func TestGenerateCombinesAllShapes(t *testing.T) {
	flows := []types.Flow{{Name: "core", Files: []string{"svc/core.go"}, Repos: []string{"svc"}}}
	files := []types.ParsedFile{
		{Path: "svc/core.go", Repo: "svc", Classes: []types.ParsedClass{{Name: "Order", IsModel: true}}},
	}
	cards := Generate(flows, files, nil, nil, "sha3")
	require.Len(t, cards, 2) // one flow card, one model card
}
