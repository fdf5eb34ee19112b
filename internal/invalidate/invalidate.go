// Package invalidate marks cards and
// ProjectDocs stale on a file-change event, including the pattern-rule
// cascade onto doc types and cross-repo propagation through api_endpoint
// edges.
package invalidate

import (
	"context"
	"path/filepath"
	"regexp"

	"github.com/standardbeagle/knowledge-engine/internal/store"
	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// fileCategory is the coarse classification a changed file falls into for
// the doc-staling pattern rules.
type fileCategory string

const (
	categorySchema     fileCategory = "schema"
	categoryRoutes     fileCategory = "routes"
	categoryModel      fileCategory = "model"
	categoryManifest   fileCategory = "manifest"
	categoryStylesheet fileCategory = "stylesheet"
	categoryOrdinary   fileCategory = "ordinary"
)

// fileRules classifies a changed file's path into the category that
// drives doc staling. Order matters: first match wins.
var fileRules = []struct {
	category fileCategory
	path     *regexp.Regexp
	base     *regexp.Regexp
}{
	{categorySchema, regexp.MustCompile(`(?i)(/migrate/|/migrations/|schema\.(rb|json|graphql|prisma)$|\.sql$)`), nil},
	{categoryRoutes, regexp.MustCompile(`(?i)(config/routes|/routes/|routes\.rb$|urls\.py$|router\.(go|js|ts|tsx)$)`), nil},
	{categoryModel, regexp.MustCompile(`(?i)(/models?/|/entities/|/app/models/)`), nil},
	{categoryStylesheet, nil, regexp.MustCompile(`(?i)\.(css|scss|sass|less)$`)},
	{categoryManifest, nil, regexp.MustCompile(`^(go\.mod|go\.sum|package\.json|Gemfile|Gemfile\.lock|requirements\.txt|pyproject\.toml|Cargo\.toml|composer\.json|pom\.xml|build\.gradle(\.kts)?)$`)},
}

func classifyFile(path string) fileCategory {
	base := filepath.Base(path)
	for _, r := range fileRules {
		if r.path != nil && r.path.MatchString(path) {
			return r.category
		}
		if r.base != nil && r.base.MatchString(base) {
			return r.category
		}
	}
	return categoryOrdinary
}

// docRulesByCategory: schema stales architecture and rules; routes stale
// architecture; models stale about, architecture, and rules; package
// manifests stale readme; stylesheets stale styles; ordinary sources stale
// code_style.
var docRulesByCategory = map[fileCategory][]types.DocType{
	categorySchema:     {types.DocTypeArchitecture, types.DocTypeRules},
	categoryRoutes:     {types.DocTypeArchitecture},
	categoryModel:      {types.DocTypeAbout, types.DocTypeArchitecture, types.DocTypeRules},
	categoryManifest:   {types.DocTypeReadme},
	categoryStylesheet: {types.DocTypeStyles},
	categoryOrdinary:   {types.DocTypeCodeStyle},
}

// specialistCascadeFrom names the doc types whose staling also cascades
// onto the specialist doc.
var specialistCascadeFrom = map[types.DocType]bool{
	types.DocTypeAbout:        true,
	types.DocTypeArchitecture: true,
	types.DocTypeRules:        true,
}

// Result reports what a single Invalidate call staled, shaping the `sync`
// API's `{indexed, invalidated}` response.
type Result struct {
	StaleCardIDs             []string
	StaleDocTypes            []types.DocType
	StaleCrossServiceCardIDs []string
}

// Invalidate processes one repo's change event. All reads
// run before the single write transaction opens — the Store's one-writer-
// connection model (internal/store.Store) means interleaving a read against
// s.db while a Tx is open on the same pool would block the calling
// goroutine on itself.
func Invalidate(ctx context.Context, s *store.Store, repo string, changedFiles []string, isMergeEvent bool) (Result, error) {
	var res Result

	candidateSet := make(map[string]bool, len(changedFiles))
	for _, f := range changedFiles {
		candidateSet[f] = true
	}

	cards, err := s.CardsForRepoWithFiles(ctx, repo, candidateSet)
	if err != nil {
		return res, err
	}
	staleIDs := make([]string, len(cards))
	for i, c := range cards {
		staleIDs[i] = c.ID
	}

	docTypeSet := map[types.DocType]bool{}
	for _, f := range changedFiles {
		for _, dt := range docRulesByCategory[classifyFile(f)] {
			docTypeSet[dt] = true
		}
	}
	for dt := range docTypeSet {
		if specialistCascadeFrom[dt] {
			docTypeSet[types.DocTypeSpecialist] = true
			break
		}
	}
	if isMergeEvent {
		docTypeSet[types.DocTypeChangelog] = true
	}
	docTypes := make([]types.DocType, 0, len(docTypeSet))
	for dt := range docTypeSet {
		docTypes = append(docTypes, dt)
	}

	crossIDs, err := crossRepoPropagation(ctx, s, repo, candidateSet)
	if err != nil {
		return res, err
	}

	tx, err := s.Begin(ctx)
	if err != nil {
		return res, err
	}
	if len(staleIDs) > 0 {
		if err := tx.MarkCardsStale(ctx, staleIDs); err != nil {
			tx.Rollback()
			return res, err
		}
	}
	if len(docTypes) > 0 {
		if err := tx.MarkDocsStale(ctx, repo, docTypes); err != nil {
			tx.Rollback()
			return res, err
		}
	}
	if len(crossIDs) > 0 {
		if err := tx.MarkCardsStale(ctx, crossIDs); err != nil {
			tx.Rollback()
			return res, err
		}
	}
	if err := tx.Commit(); err != nil {
		return res, err
	}

	res.StaleCardIDs = append(staleIDs, crossIDs...)
	res.StaleDocTypes = docTypes
	res.StaleCrossServiceCardIDs = crossIDs
	return res, nil
}

// crossRepoPropagation finds cross_service cards elsewhere in the workspace
// that reference an FE file reached by an api_endpoint edge from a changed
// BE file in repo.
func crossRepoPropagation(ctx context.Context, s *store.Store, repo string, candidateSet map[string]bool) ([]string, error) {
	edges, err := s.EdgesByRelation(ctx, types.RelationAPIEndpoint)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var ids []string
	for _, e := range edges {
		if e.Repo != repo || !candidateSet[e.SourceFile] {
			continue
		}
		crossCards, err := s.CardsByTypeWithFile(ctx, types.CardTypeCrossService, e.TargetFile)
		if err != nil {
			return nil, err
		}
		for _, c := range crossCards {
			if seen[c.ID] {
				continue
			}
			seen[c.ID] = true
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}
