// Package docgen drives the indexer's doc-generation phase:
// the 12 auto-maintained ProjectDoc types, each either generated,
// skipped, or left as-is, with idempotence governed by SkipExisting /
// ForceRegenerate. Actual prose authoring is an external LLM collaborator
// reached through the narrow
// LLMClient interface; when no client is configured or a call fails, every
// doc type still gets a structural, citation-grounded fallback body so the
// Repo Signal Generator and the retriever always have something to read.
package docgen

import (
	"context"
	"time"

	knowerrors "github.com/standardbeagle/knowledge-engine/internal/errors"
	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// LLMClient is the narrow collaborator interface for doc prose
// generation. Generate returns the rendered markdown body for one doc
// type.
type LLMClient interface {
	Generate(ctx context.Context, docType types.DocType, prompt string) (string, error)
}

// GeneratedDocTypes is the ordered auto-generation set. DocTypeMemory
// and DocTypeAPIContracts exist in the data model but are not
// part of the auto-generation pass — they are hand-authored or populated by
// other phases.
var GeneratedDocTypes = []types.DocType{
	types.DocTypeReadme,
	types.DocTypeAbout,
	types.DocTypeArchitecture,
	types.DocTypeCodeStyle,
	types.DocTypeRules,
	types.DocTypeStyles,
	types.DocTypePages,
	types.DocTypeBEOverview,
	types.DocTypeBusiness,
	types.DocTypeProduct,
	types.DocTypeCrossRepo,
	types.DocTypeSpecialist,
}

// Input is the per-repo structural context available to doc generation,
// assembled by the orchestrator from earlier phases (parse, graph, stack
// profile, git signals).
type Input struct {
	Repo         string
	Profile      types.RepoProfile
	Files        []types.ParsedFile
	Thermal      map[string]float64
	Existing     map[types.DocType]types.ProjectDoc
	CrossRepo    []types.GraphEdge // api_endpoint edges touching this repo, for cross_repo/specialist docs
	OtherRepos   []string
}

// Options governs generation idempotence.
type Options struct {
	SkipExisting    bool
	ForceRegenerate bool
}

// Result is the per-repo summary of a GenerateAll pass, shaped to back the
// `refresh` API's `{refreshed, skipped, errors[]}` response.
type Result struct {
	Docs      []types.ProjectDoc
	Refreshed []types.DocType
	Skipped   []types.DocType
	Errors    []error
}

// Generator drives doc generation for one repo at a time. LLM may be nil,
// in which case every doc type falls back to structural content.
type Generator struct {
	LLM LLMClient
}

func New(llm LLMClient) *Generator {
	return &Generator{LLM: llm}
}

// GenerateAll runs the idempotent generate/skip decision for every doc type
// in GeneratedDocTypes and returns the resulting ProjectDoc rows (the caller
// — the orchestrator — is responsible for persisting them via the Store).
func (g *Generator) GenerateAll(ctx context.Context, in Input, opts Options) Result {
	var res Result
	now := time.Now()

	for _, dt := range GeneratedDocTypes {
		existing, hasExisting := in.Existing[dt]
		if hasExisting && !existing.Stale && !opts.ForceRegenerate && opts.SkipExisting {
			res.Skipped = append(res.Skipped, dt)
			continue
		}

		content, err := g.render(ctx, dt, in)
		if err != nil {
			res.Errors = append(res.Errors, err)
		}

		doc := types.ProjectDoc{
			Repo:            in.Repo,
			DocType:         dt,
			Content:         content,
			SourceFilePaths: sourcePathsFor(dt, in),
			Stale:           false,
			UpdatedAt:       now,
		}
		res.Docs = append(res.Docs, doc)
		res.Refreshed = append(res.Refreshed, dt)
	}

	return res
}

// render produces the body for one doc type: LLM prose when a client is
// configured and succeeds, structural fallback otherwise. An LLM failure is
// never fatal: the doc degrades to structural-only output and the failure
// is counted.
func (g *Generator) render(ctx context.Context, dt types.DocType, in Input) (string, error) {
	if g.LLM == nil {
		return structuralContent(dt, in), knowerrors.NewLlmUnavailable(string(dt))
	}
	prompt := promptFor(dt, in)
	content, err := g.LLM.Generate(ctx, dt, prompt)
	if err != nil {
		return structuralContent(dt, in), knowerrors.NewLlmUnavailable(string(dt))
	}
	return content, nil
}

// sourcePathsFor records which files a generated doc cites, so the
// Invalidator can later stale it by source-path intersection the same
// way it stales cards.
func sourcePathsFor(dt types.DocType, in Input) []string {
	return thermalOrderedPaths(in)
}

func thermalOrderedPaths(in Input) []string {
	paths := make([]string, 0, len(in.Files))
	for _, f := range in.Files {
		paths = append(paths, f.Path)
	}
	orderByHeat(paths, in.Thermal)
	if len(paths) > 10 {
		paths = paths[:10]
	}
	return paths
}
