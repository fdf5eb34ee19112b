package card

import (
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// repoPair is an unordered pair of repo names, used to dedupe cross-service
// cards down to one per repo pair.
type repoPair struct{ a, b string }

func newRepoPair(a, b string) repoPair {
	if a > b {
		a, b = b, a
	}
	return repoPair{a, b}
}

// BuildCrossServiceCards emits one card per pair of repos connected by at
// least one api_endpoint edge.
func BuildCrossServiceCards(edges []types.GraphEdge, files []types.ParsedFile, commitSHA string) []types.Card {
	byPair := map[repoPair][]types.GraphEdge{}
	edgeRepo := map[string]string{} // file path -> repo, for edges whose own .Repo is the source side only
	for _, f := range files {
		edgeRepo[f.Path] = f.Repo
	}

	for _, e := range edges {
		if e.Relation != types.RelationAPIEndpoint || e.Endpoint == nil {
			continue
		}
		targetRepo := edgeRepo[e.TargetFile]
		if targetRepo == "" || targetRepo == e.Repo {
			continue
		}
		pair := newRepoPair(e.Repo, targetRepo)
		byPair[pair] = append(byPair[pair], e)
	}

	var cards []types.Card
	for pair, pairEdges := range byPair {
		sort.Slice(pairEdges, func(i, j int) bool {
			return pairEdges[i].SourceFile < pairEdges[j].SourceFile
		})

		var sourceFiles []string
		for _, e := range pairEdges {
			sourceFiles = append(sourceFiles, e.SourceFile, e.TargetFile)
		}
		sourceFiles = dedupe(sourceFiles)
		paths := pathSet(sourceFiles)

		flowName := fmt.Sprintf("%s <-> %s", pair.a, pair.b)
		title := flowName
		content := crossServiceContent(pair, pairEdges)

		cards = append(cards, types.Card{
			ID:          cardID(flowName, types.CardTypeCrossService, sourceFiles),
			Flow:        flowName,
			Title:       title,
			Content:     content,
			CardType:    types.CardTypeCrossService,
			SourceFiles: sourceFiles,
			SourceRepos: []string{pair.a, pair.b},
			Identifiers: identifiersFor(files, paths),
			CommitSHA:   commitSHA,
			ContentHash: contentHash(title, content),
		})
	}
	return cards
}

func crossServiceContent(pair repoPair, edges []types.GraphEdge) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("**%s** and **%s** are connected by %d API endpoint(s):", pair.a, pair.b, len(edges)))
	lines = append(lines, "")
	for _, e := range edges {
		lines = append(lines, fmt.Sprintf("- `%s %s` — %s -> %s", e.Endpoint.Method, e.Endpoint.Route, e.SourceFile, e.TargetFile))
	}
	return strings.Join(lines, "\n")
}
