package docgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// orderByHeat stable-sorts paths by descending thermal weight, unknown paths
// last. Grounded on internal/card.orderByHeat's identical heat-ordering
// idiom (kept local rather than exported from internal/card to avoid a
// cross-package dependency for one small helper).
func orderByHeat(paths []string, thermal map[string]float64) {
	sort.SliceStable(paths, func(i, j int) bool {
		return thermal[paths[i]] > thermal[paths[j]]
	})
}

// structuralContent builds a citation-grounded fallback body for a doc type
// when no LLM collaborator is available or the call failed. It never
// fabricates prose about code it hasn't seen; it lists what the structural
// phases (stack profile, git signals, parser) actually observed.
func structuralContent(dt types.DocType, in Input) string {
	ctx := newPromptContext(in)
	var b strings.Builder

	switch dt {
	case types.DocTypeReadme:
		fmt.Fprintf(&b, "# %s\n\n", in.Repo)
		fmt.Fprintf(&b, "Primary language: %s. Package manager: %s.\n", ctx.PrimaryLanguage, ctx.PackageManager)
		writeFrameworks(&b, ctx.Frameworks)
	case types.DocTypeAbout:
		fmt.Fprintf(&b, "%s is a %s repository", in.Repo, ctx.PrimaryLanguage)
		if len(in.OtherRepos) > 0 {
			fmt.Fprintf(&b, " in a workspace of %d other repos", len(in.OtherRepos))
		}
		b.WriteString(".\n")
	case types.DocTypeArchitecture:
		b.WriteString("## Most actively changed files\n\n")
		writeFileList(&b, ctx.TopFiles)
	case types.DocTypeCodeStyle:
		fmt.Fprintf(&b, "Language: %s. No style guide has been authored; follow existing file conventions.\n", ctx.PrimaryLanguage)
	case types.DocTypeRules:
		b.WriteString("No contribution rules have been authored for this repo yet.\n")
	case types.DocTypeStyles:
		if len(ctx.Frameworks) == 0 {
			b.WriteString("No frontend styling surface detected.\n")
		} else {
			writeFrameworks(&b, ctx.Frameworks)
		}
	case types.DocTypePages:
		b.WriteString("## Candidate pages (by recent activity)\n\n")
		writeFileList(&b, ctx.TopFiles)
	case types.DocTypeBEOverview:
		fmt.Fprintf(&b, "Language: %s. Package manager: %s.\n", ctx.PrimaryLanguage, ctx.PackageManager)
		writeFrameworks(&b, ctx.Frameworks)
		writeRoutes(&b, ctx.Routes)
	case types.DocTypeBusiness, types.DocTypeProduct:
		fmt.Fprintf(&b, "No business/product summary has been authored for %s yet.\n", in.Repo)
	case types.DocTypeCrossRepo:
		if len(in.OtherRepos) == 0 {
			b.WriteString("No other repos registered in this workspace.\n")
		} else {
			b.WriteString("## Other repos in this workspace\n\n")
			for _, r := range in.OtherRepos {
				fmt.Fprintf(&b, "- %s\n", r)
			}
		}
		writeRoutes(&b, ctx.Routes)
	case types.DocTypeSpecialist:
		b.WriteString("## Subsystems by recent activity\n\n")
		writeFileList(&b, ctx.TopFiles)
		writeRoutes(&b, ctx.Routes)
	default:
		fmt.Fprintf(&b, "No structural summary is defined for doc type %q.\n", dt)
	}

	return b.String()
}

func writeFrameworks(b *strings.Builder, frameworks []string) {
	if len(frameworks) == 0 {
		b.WriteString("No frameworks detected.\n")
		return
	}
	fmt.Fprintf(b, "Frameworks: %s.\n", strings.Join(frameworks, ", "))
}

func writeRoutes(b *strings.Builder, routes []string) {
	if len(routes) == 0 {
		return
	}
	b.WriteString("\n## Observed routes\n\n")
	for _, r := range routes {
		fmt.Fprintf(b, "- %s\n", r)
	}
}

func writeFileList(b *strings.Builder, paths []string) {
	if len(paths) == 0 {
		b.WriteString("No files recorded.\n")
		return
	}
	for _, p := range paths {
		fmt.Fprintf(b, "- %s\n", p)
	}
}
