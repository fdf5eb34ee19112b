package card

import (
	"fmt"
	"strings"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// BuildModelCards emits one card per durable data entity (a class with
// IsModel=true) with its associations and owning repo.
func BuildModelCards(files []types.ParsedFile, commitSHA string) []types.Card {
	var cards []types.Card
	for _, f := range files {
		for _, cls := range f.Classes {
			if !cls.IsModel {
				continue
			}

			paths := pathSet([]string{f.Path})
			title := cls.Name
			content := modelContent(cls, f)

			cards = append(cards, types.Card{
				ID:          cardID(cls.Name, types.CardTypeModel, []string{f.Path}),
				Flow:        "",
				Title:       title,
				Content:     content,
				CardType:    types.CardTypeModel,
				SourceFiles: []string{f.Path},
				SourceRepos: []string{f.Repo},
				Identifiers: identifiersFor(files, paths),
				CommitSHA:   commitSHA,
				ContentHash: contentHash(title, content),
			})
		}
	}
	return cards
}

func modelContent(cls types.ParsedClass, f types.ParsedFile) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("**%s** is a data model owned by `%s` (repo `%s`).", cls.Name, f.Path, f.Repo))
	if len(cls.Associations) > 0 {
		lines = append(lines, "", "Associations:")
		for _, a := range cls.Associations {
			lines = append(lines, "- "+a)
		}
	}
	return strings.Join(lines, "\n")
}
