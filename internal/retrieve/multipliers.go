package retrieve

import (
	"math"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// typeBoost is the per-card-type scoring table. Hubs are heavily
// penalised; insight cards get a mild lift.
func typeBoost(t types.CardType) float64 {
	switch t {
	case types.CardTypeModel, types.CardTypeFlow:
		return 1.0
	case types.CardTypeCrossService:
		return 0.95
	case types.CardTypeHub:
		return 0.4
	case types.CardTypeDevInsight: // == CardTypeConvInsight
		return 1.1
	default:
		return 1.0
	}
}

// usageBoost rewards frequently returned cards, logarithmically.
func usageBoost(usageCount int64) float64 {
	return 1 + 0.05*math.Log2(1+float64(usageCount))
}

// specificityMultiplier maps a card's specificity score into [0.6, 1.0].
func specificityMultiplier(score float64) float64 {
	return 0.6 + 0.4*score
}

// applyMultipliers applies the card-level multipliers in fixed order:
// type boost, usage boost, specificity, then repo-affinity.
func applyMultipliers(c types.Card, rrfScore float64, textAff, embAff map[string]float64) float64 {
	score := rrfScore
	score *= typeBoost(c.CardType)
	score *= usageBoost(c.UsageCount)
	score *= specificityMultiplier(c.SpecificityScore)
	score *= affinityMultiplier(c.SourceRepos, textAff, embAff)
	return score
}
