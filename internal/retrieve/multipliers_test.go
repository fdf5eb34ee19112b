package retrieve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

func TestTypeBoostTable(t *testing.T) {
	require.Equal(t, 1.0, typeBoost(types.CardTypeModel))
	require.Equal(t, 1.0, typeBoost(types.CardTypeFlow))
	require.Equal(t, 0.95, typeBoost(types.CardTypeCrossService))
	require.Equal(t, 0.4, typeBoost(types.CardTypeHub))
	require.Equal(t, 1.1, typeBoost(types.CardTypeDevInsight))
}

func TestUsageBoostIncreasesWithUsage(t *testing.T) {
	require.Equal(t, 1.0, usageBoost(0))
	require.Greater(t, usageBoost(10), usageBoost(0))
}

func TestSpecificityMultiplierRange(t *testing.T) {
	require.InDelta(t, 0.6, specificityMultiplier(0), 1e-9)
	require.InDelta(t, 1.0, specificityMultiplier(1), 1e-9)
}

func TestTextAffinityRequiresTwoHits(t *testing.T) {
	signals := map[string]types.RepoSignals{
		"billing": {Repo: "billing", Signals: []string{"billing", "invoice", "payment"}},
		"web":     {Repo: "web", Signals: []string{"react"}},
	}
	aff := textAffinity("how do billing invoice flows work", signals)
	require.Contains(t, aff, "billing")
	require.NotContains(t, aff, "web")
}

func TestAffinityMultiplierNeutralWhenAbsent(t *testing.T) {
	require.Equal(t, 1.0, affinityMultiplier([]string{"r"}, nil, nil))
}

func TestAffinityMultiplierTextOnly(t *testing.T) {
	text := map[string]float64{"r": 1.0}
	m := affinityMultiplier([]string{"r"}, text, nil)
	require.InDelta(t, 1.0, m, 1e-9)
}

func TestEmbeddingAffinityRequiresMargin(t *testing.T) {
	centroids := map[string][]float32{
		"a": {1, 0},
		"b": {0.999, 0.001},
	}
	// Near-identical centroids: softmax margin should not clear the threshold.
	aff := embeddingAffinity([]float32{1, 0}, centroids)
	require.Nil(t, aff)
}

func TestApplyHubCapRespectsLimitAndMaxHub(t *testing.T) {
	cards := []types.Card{
		{ID: "h1", CardType: types.CardTypeHub},
		{ID: "h2", CardType: types.CardTypeHub},
		{ID: "h3", CardType: types.CardTypeHub},
		{ID: "m1", CardType: types.CardTypeModel},
	}
	capped := applyHubCap(cards, 1, 10)
	hubCount := 0
	for _, c := range capped {
		if c.CardType == types.CardTypeHub {
			hubCount++
		}
	}
	require.Equal(t, 1, hubCount)
	require.Contains(t, cardIDs(capped), "m1")
}
