package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/standardbeagle/knowledge-engine/internal/docgen"
	"github.com/standardbeagle/knowledge-engine/internal/embed"
	"github.com/standardbeagle/knowledge-engine/internal/specificity"
	"github.com/standardbeagle/knowledge-engine/internal/store"
	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// phase6DocGeneration runs internal/docgen per repo and persists whatever it
// returns, folding the error count into the phase log without itself
// knowing whether a doc's prose came from a model or the structural
// fallback.
func phase6DocGeneration(ctx context.Context, s *store.Store, repos []RepoRef, allFiles []types.ParsedFile, profiles map[string]types.RepoProfile, thermalByRepo map[string]map[string]float64, edges []types.GraphEdge, opts Options, rep *Report) docgen.Result {
	filesByRepo := map[string][]types.ParsedFile{}
	for _, f := range allFiles {
		filesByRepo[f.Repo] = append(filesByRepo[f.Repo], f)
	}

	gen := docgen.New(opts.LLM)
	merged := docgen.Result{}
	for _, r := range repos {
		existingDocs, _ := s.DocsForRepo(ctx, r.Name)
		existing := make(map[types.DocType]types.ProjectDoc, len(existingDocs))
		for _, d := range existingDocs {
			existing[d.DocType] = d
		}

		var otherRepos []string
		for _, other := range repos {
			if other.Name != r.Name {
				otherRepos = append(otherRepos, other.Name)
			}
		}

		in := docgen.Input{
			Repo:       r.Name,
			Profile:    profiles[r.Name],
			Files:      filesByRepo[r.Name],
			Thermal:    thermalByRepo[r.Name],
			Existing:   existing,
			CrossRepo:  edgesTouching(edges, r.Name),
			OtherRepos: otherRepos,
		}
		result := gen.GenerateAll(ctx, in, docgen.Options{
			SkipExisting:    !opts.ForceRegenerateDocs,
			ForceRegenerate: opts.ForceRegenerateDocs,
		})

		if err := withTx(ctx, s, func(tx *store.Tx) error {
			for _, d := range result.Docs {
				if err := tx.UpsertProjectDoc(ctx, d); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			rep.Errors = append(rep.Errors, PhaseError{Phase: "doc_generation", Repo: r.Name, Err: err})
			continue
		}

		merged.Refreshed = append(merged.Refreshed, result.Refreshed...)
		merged.Skipped = append(merged.Skipped, result.Skipped...)
		merged.Errors = append(merged.Errors, result.Errors...)
	}
	return merged
}

func edgesTouching(edges []types.GraphEdge, repo string) []types.GraphEdge {
	var out []types.GraphEdge
	for _, e := range edges {
		if e.Repo == repo {
			out = append(out, e)
		}
	}
	return out
}

// phase9Embeddings embeds every card's title and body, then recomputes
// specificity and centroids over the full embedded set.
func phase9Embeddings(ctx context.Context, s *store.Store, cards []types.Card) (int, error) {
	vectors := make([]specificity.CardVector, 0, len(cards))
	bodyVecs := make(map[string][]float32, len(cards))
	titleVecs := make(map[string][]float32, len(cards))

	for _, c := range cards {
		body := embed.Embed(c.Content, embed.ModeDocument)
		title := embed.Embed(c.Title, embed.ModeDocument)
		bodyVecs[c.ID] = body
		titleVecs[c.ID] = title

		repo := ""
		if len(c.SourceRepos) > 0 {
			repo = c.SourceRepos[0]
		}
		vectors = append(vectors, specificity.CardVector{CardID: c.ID, Repo: repo, Vector: body})
	}

	centroids := specificity.Centroids(vectors)
	scores := specificity.Score(vectors, centroids)

	written := 0
	err := withTx(ctx, s, func(tx *store.Tx) error {
		for _, c := range cards {
			dim := len(bodyVecs[c.ID])
			if err := tx.UpsertEmbedding(ctx, types.CardEmbedding{
				CardID: c.ID, Vector: bodyVecs[c.ID], TitleVector: titleVecs[c.ID], Dimensionality: dim,
			}); err != nil {
				return err
			}
			if err := tx.UpdateSpecificity(ctx, c.ID, scores[c.ID]); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	return written, err
}

// phase10FileIndex upserts the per-file row with current heat score and
// branch name.
func phase10FileIndex(ctx context.Context, s *store.Store, files []types.ParsedFile, thermalByRepo map[string]map[string]float64, branchByRepo map[string]string, rep *Report) int {
	indexed := 0
	err := withTx(ctx, s, func(tx *store.Tx) error {
		for _, f := range files {
			heat := thermalByRepo[f.Repo][f.Path]
			parsed, err := json.Marshal(f)
			if err != nil {
				return err
			}
			if err := tx.UpsertFileIndex(ctx, types.FileIndex{
				Path: f.Path, Repo: f.Repo, Branch: branchByRepo[f.Repo],
				FileRole: f.FileRole, ParsedData: parsed, HeatScore: heat,
			}); err != nil {
				return err
			}
			indexed++
		}
		return nil
	})
	if err != nil {
		rep.Errors = append(rep.Errors, PhaseError{Phase: "file_index", Err: err})
	}
	return indexed
}

// phase11WriteDocs writes generated docs to <dir>/<repo>/<doc_type>.md,
// skipping unchanged content by comparing a content hash against the file
// already on disk.
func phase11WriteDocs(ctx context.Context, s *store.Store, repos []RepoRef, dir string) (int, error) {
	written := 0
	for _, r := range repos {
		docs, err := s.DocsForRepo(ctx, r.Name)
		if err != nil {
			return written, err
		}
		repoDir := filepath.Join(dir, r.Name)
		if err := os.MkdirAll(repoDir, 0o755); err != nil {
			return written, err
		}
		for _, d := range docs {
			path := filepath.Join(repoDir, string(d.DocType)+".md")
			if sameContentOnDisk(path, d.Content) {
				continue
			}
			if err := os.WriteFile(path, []byte(d.Content), 0o644); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}

func sameContentOnDisk(path, content string) bool {
	existing, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return hashOf(string(existing)) == hashOf(content)
}

func hashOf(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
