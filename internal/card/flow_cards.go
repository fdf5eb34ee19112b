package card

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// BuildFlowCards emits one card per flow: card_type=hub for flows marked
// IsHub, card_type=flow otherwise.
func BuildFlowCards(flows []types.Flow, files []types.ParsedFile, thermal map[string]float64, commitSHA string) []types.Card {
	var cards []types.Card
	for _, flow := range flows {
		cardType := types.CardTypeFlow
		if flow.IsHub {
			cardType = types.CardTypeHub
		}

		notable := notableFiles(flow.Files, thermal)
		paths := pathSet(flow.Files)

		cards = append(cards, types.Card{
			ID:          cardID(flow.Name, cardType, flow.Files),
			Flow:        flow.Name,
			Title:       flowTitle(flow),
			Content:     flowContent(flow, notable),
			CardType:    cardType,
			SourceFiles: notable,
			SourceRepos: append([]string(nil), flow.Repos...),
			Identifiers: identifiersFor(files, paths),
			CommitSHA:   commitSHA,
			ContentHash: contentHash(flowTitle(flow), flowContent(flow, notable)),
		})
	}
	return cards
}

func flowTitle(flow types.Flow) string {
	if flow.IsHub {
		return fmt.Sprintf("%s (hub)", flow.Name)
	}
	return flow.Name
}

func flowContent(flow types.Flow, notable []string) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("Flow **%s** spans %d file(s) across %s.",
		flow.Name, len(flow.Files), strings.Join(flow.Repos, ", ")))
	if flow.IsHub {
		lines = append(lines, "This flow is a hub: it touches a disproportionate share of the codebase and is penalised at query time.")
	}
	if len(notable) > 0 {
		lines = append(lines, "", "Notable files:")
		for _, f := range notable {
			lines = append(lines, "- "+f)
		}
	}
	return strings.Join(lines, "\n")
}
