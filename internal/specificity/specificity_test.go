package specificity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCentroidsAreMeanOfRepoVectors(t *testing.T) {
	cards := []CardVector{
		{CardID: "a", Repo: "svc", Vector: []float32{1, 0}},
		{CardID: "b", Repo: "svc", Vector: []float32{0, 1}},
	}
	centroids := Centroids(cards)
	require.Contains(t, centroids, "svc")
	// mean of (1,0) and (0,1) renormalized is (0.707, 0.707)
	require.InDelta(t, centroids["svc"][0], centroids["svc"][1], 1e-6)
}

func TestScoreHigherForCardsAlignedWithOwnRepo(t *testing.T) {
	cards := []CardVector{
		{CardID: "svc-a", Repo: "svc", Vector: []float32{1, 0}},
		{CardID: "svc-b", Repo: "svc", Vector: []float32{1, 0}},
		{CardID: "web-a", Repo: "web", Vector: []float32{0, 1}},
		{CardID: "web-b", Repo: "web", Vector: []float32{0, 1}},
	}
	centroids := Centroids(cards)
	scores := Score(cards, centroids)

	for _, id := range []string{"svc-a", "svc-b", "web-a", "web-b"} {
		require.GreaterOrEqual(t, scores[id], 0.0)
		require.LessOrEqual(t, scores[id], 1.0)
	}
	// Every card here is perfectly aligned with its own centroid and
	// orthogonal to the other repo's: raw = 1 - 0 = 1 -> (1+2)/4.
	require.InDelta(t, 0.75, scores["svc-a"], 1e-6)
	require.InDelta(t, 0.75, scores["web-a"], 1e-6)
}

func TestScoreLowerWhenCardResemblesAnotherRepo(t *testing.T) {
	cards := []CardVector{
		{CardID: "svc-a", Repo: "svc", Vector: []float32{1, 0}},
		{CardID: "web-a", Repo: "web", Vector: []float32{1, 0}}, // identical to svc's centroid
	}
	centroids := Centroids(cards)
	scores := Score(cards, centroids)
	// web-a matches svc's centroid exactly as well as its own -> raw=0 -> 0.5
	require.InDelta(t, 0.5, scores["web-a"], 1e-6)
}

func TestScoreSingleRepoHasNoOtherContrast(t *testing.T) {
	cards := []CardVector{
		{CardID: "only-a", Repo: "solo", Vector: []float32{1, 0}},
	}
	centroids := Centroids(cards)
	scores := Score(cards, centroids)
	require.InDelta(t, 0.75, scores["only-a"], 1e-6) // ownSim=1, maxOther=0 -> (1-0+2)/4
}
