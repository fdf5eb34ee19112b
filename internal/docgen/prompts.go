package docgen

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"text/template"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// promptFiles embeds one text/template per generated doc type, keyed by
// the DocType enum rather than a bare string.
//
//go:embed prompts/*.tmpl
var promptFiles embed.FS

var promptTemplates = mustParseTemplates()

func mustParseTemplates() map[types.DocType]*template.Template {
	out := make(map[types.DocType]*template.Template, len(GeneratedDocTypes))
	for _, dt := range GeneratedDocTypes {
		name := string(dt) + ".tmpl"
		tmpl, err := template.New(name).ParseFS(promptFiles, "prompts/"+name)
		if err != nil {
			panic(fmt.Sprintf("docgen: failed to parse embedded prompt %s: %v", name, err))
		}
		out[dt] = tmpl
	}
	return out
}

// promptContext is the data handed to each doc type's template.
type promptContext struct {
	Repo           string
	PrimaryLanguage string
	Frameworks     []string
	IsLambda       bool
	PackageManager string
	FileCount      int
	TopFiles       []string
	OtherRepos     []string
	Routes         []string
}

func newPromptContext(in Input) promptContext {
	paths := make([]string, 0, len(in.Files))
	for _, f := range in.Files {
		paths = append(paths, f.Path)
	}
	orderByHeat(paths, in.Thermal)
	if len(paths) > 10 {
		paths = paths[:10]
	}
	frameworks := append([]string(nil), in.Profile.Frameworks...)
	sort.Strings(frameworks)
	return promptContext{
		Repo:            in.Repo,
		PrimaryLanguage: in.Profile.PrimaryLanguage,
		Frameworks:      frameworks,
		IsLambda:        in.Profile.IsLambda,
		PackageManager:  in.Profile.PackageManager,
		FileCount:       len(in.Files),
		TopFiles:        paths,
		OtherRepos:      in.OtherRepos,
		Routes:          apiRoutes(in.CrossRepo),
	}
}

// apiRoutes extracts "METHOD route" strings from api_endpoint edges, used by
// the cross_repo/specialist/be_overview doc types to ground their content in
// edges the Graph Builder actually observed rather than invented contract
// descriptions.
func apiRoutes(edges []types.GraphEdge) []string {
	var routes []string
	for _, e := range edges {
		if e.Relation != types.RelationAPIEndpoint || e.Endpoint == nil {
			continue
		}
		routes = append(routes, e.Endpoint.Method+" "+e.Endpoint.Route)
	}
	sort.Strings(routes)
	return routes
}

// promptFor renders the doc type's template against the repo's structural
// context. Never errors in practice since mustParseTemplates validates every
// template at package init; Generate(ctx) of the LLMClient collaborator is
// where real failures (network, quota) surface.
func promptFor(dt types.DocType, in Input) string {
	tmpl, ok := promptTemplates[dt]
	if !ok {
		return ""
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newPromptContext(in)); err != nil {
		return ""
	}
	return buf.String()
}
