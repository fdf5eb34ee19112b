package card

import "github.com/standardbeagle/knowledge-engine/internal/types"

// Generate runs the full Card Generator pass: flow/hub cards, model cards,
// and cross-service cards, in the order the orchestrator deletes-then-
// inserts them.
func Generate(flows []types.Flow, files []types.ParsedFile, edges []types.GraphEdge, thermal map[string]float64, commitSHA string) []types.Card {
	var cards []types.Card
	cards = append(cards, BuildFlowCards(flows, files, thermal, commitSHA)...)
	cards = append(cards, BuildModelCards(files, commitSHA)...)
	cards = append(cards, BuildCrossServiceCards(edges, files, commitSHA)...)
	return cards
}
