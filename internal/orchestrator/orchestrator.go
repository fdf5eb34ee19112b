// Package orchestrator drives the indexer: a single-advisory-locked,
// 12-phase run that parses every registered repo, rebuilds the graph and
// flows, regenerates docs, cards, and embeddings, and upserts the file
// index.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	knowerrors "github.com/standardbeagle/knowledge-engine/internal/errors"
	"github.com/standardbeagle/knowledge-engine/internal/card"
	"github.com/standardbeagle/knowledge-engine/internal/codeparser"
	"github.com/standardbeagle/knowledge-engine/internal/docgen"
	"github.com/standardbeagle/knowledge-engine/internal/flow"
	"github.com/standardbeagle/knowledge-engine/internal/gitsignals"
	"github.com/standardbeagle/knowledge-engine/internal/graph"
	"github.com/standardbeagle/knowledge-engine/internal/reposignal"
	"github.com/standardbeagle/knowledge-engine/internal/stackprofile"
	"github.com/standardbeagle/knowledge-engine/internal/store"
	"github.com/standardbeagle/knowledge-engine/internal/telemetry"
	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// RepoRef is one registered repo, the orchestrator's unit of per-repo work
//`).
type RepoRef struct {
	Name string
	Path string
}

// Options configures one run. LLM is nil when no provider is configured;
// every LLM-gated phase degrades to structural-only output in that case.
type Options struct {
	LLM                 docgen.LLMClient
	ForceRegenerateDocs bool
	ThermalSince        string // git --since window, e.g. "180 days"; defaults applied by Run
	WriteDocsToDir      string // empty disables phase 11's filesystem write
	CommitSHA           string
	// Telemetry is nil by default; telemetry is strictly opt-in.
	// When set, Run emits one RunSummary to it after
	// the phase loop finishes; a failed Emit is logged, never fatal.
	Telemetry telemetry.TelemetrySink
}

// PhaseError records a non-fatal, per-file or per-repo failure folded into
// the phase log rather than aborting the run — per-file errors never halt
// a phase.
type PhaseError struct {
	Phase string
	Repo  string
	Err   error
}

func (e PhaseError) Error() string {
	if e.Repo == "" {
		return fmt.Sprintf("%s: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s[%s]: %v", e.Phase, e.Repo, e.Err)
}

// Report summarizes one completed run, shaping both the CLI phase log
// and the
// refresh()/reindex-status() API responses.
type Report struct {
	RunID             string
	FilesParsed       int
	FilesSkipped      int
	FilesUnparseable  int
	EdgesBuilt        int
	FlowsDetected     int
	CardsWritten      int
	EmbeddingsWritten int
	FilesIndexed      int
	DocsRefreshed     []types.DocType
	DocsSkipped       []types.DocType
	Errors            []PhaseError
}

const defaultThermalSince = "180 days"

// Run executes one full indexing pass across every repo in repos, holding
// the Store's single advisory lock for the run's duration. workspaceRoot is
// the common ancestor used to relativize parsed file paths when building the
// graph (internal/graph.BuildEdges).
func Run(ctx context.Context, s *store.Store, workspaceRoot string, repos []RepoRef, opts Options) (Report, error) {
	if opts.ThermalSince == "" {
		opts.ThermalSince = defaultThermalSince
	}

	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	acquired, err := s.AcquireRunLock(ctx, runID)
	if err != nil {
		return Report{}, knowerrors.NewStoreError("acquire_run_lock", err)
	}
	if !acquired {
		holder, _, _ := s.CurrentRunLock(ctx)
		return Report{}, knowerrors.NewConcurrentRunError(holder)
	}
	defer s.ReleaseRunLock(ctx, runID)

	rep := Report{RunID: runID}
	if err := s.StartIndexRun(ctx, runID, time.Now()); err != nil {
		return rep, knowerrors.NewStoreError("start_index_run", err)
	}

	runErr := runPhases(ctx, s, workspaceRoot, repos, opts, runID, &rep)

	status, errMsg := "done", ""
	if runErr != nil {
		status, errMsg = "error", runErr.Error()
	}
	_ = s.FinishIndexRun(ctx, runID, status, errMsg, time.Now())

	if opts.Telemetry != nil {
		summary := telemetry.RunSummary{
			RunID:             rep.RunID,
			Timestamp:         time.Now(),
			FilesParsed:       rep.FilesParsed,
			FilesSkipped:      rep.FilesSkipped,
			FilesUnparseable:  rep.FilesUnparseable,
			EdgesBuilt:        rep.EdgesBuilt,
			FlowsDetected:     rep.FlowsDetected,
			CardsWritten:      rep.CardsWritten,
			EmbeddingsWritten: rep.EmbeddingsWritten,
			FilesIndexed:      rep.FilesIndexed,
			ErrorCount:        len(rep.Errors),
		}
		if emitErr := opts.Telemetry.Emit(summary); emitErr != nil {
			logPhase(ctx, s, runID, fmt.Sprintf("telemetry: emit failed: %v", emitErr))
		}
	}

	return rep, runErr
}

func logPhase(ctx context.Context, s *store.Store, runID, line string) {
	_ = s.AppendRunLog(ctx, runID, line)
}

func runPhases(ctx context.Context, s *store.Store, workspaceRoot string, repos []RepoRef, opts Options, runID string, rep *Report) error {
	// Phase 0: intelligence — per-repo thermal maps and current branch,
	// persisted last_indexed_at. Thermal keys come back repo-relative from
	// git and are rewritten into the workspace-wide "<repo>/<path>" form
	// every later phase keys files on.
	thermalByRepo := map[string]map[string]float64{}
	branchByRepo := map[string]string{}
	for _, r := range repos {
		thermal, branch := phase0Intelligence(ctx, r, opts.ThermalSince)
		prefixed := make(map[string]float64, len(thermal))
		for p, heat := range thermal {
			prefixed[r.Name+"/"+p] = heat
		}
		thermalByRepo[r.Name] = prefixed
		branchByRepo[r.Name] = branch
	}
	if err := s.SetConfig(ctx, "last_indexed_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return knowerrors.NewStoreError("set_last_indexed_at", err)
	}
	logPhase(ctx, s, runID, "phase 0: intelligence gathered for "+fmt.Sprint(len(repos))+" repos")

	// Phase 1: parse each repo on a CPU-bounded worker pool, union across
	// repos. Results land in a per-repo slot so the union keeps registration
	// order regardless of which parse finishes first.
	type repoParse struct {
		files []types.ParsedFile
		stats codeparser.ParseStats
		err   error
	}
	parsed := make([]repoParse, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, r := range repos {
		g.Go(func() error {
			files, stats, err := codeparser.New().ParseRepo(gctx, r.Path, r.Name, codeparser.IgnoreConfig{})
			parsed[i] = repoParse{files: files, stats: stats, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var allFiles []types.ParsedFile
	for i, r := range repos {
		res := parsed[i]
		if res.err != nil {
			rep.Errors = append(rep.Errors, PhaseError{Phase: "parse", Repo: r.Name, Err: res.err})
			continue
		}
		// Parsed paths are absolute; every consumer from here on (edges,
		// flows, thermal lookups, cards, the file index, sync invalidation)
		// keys on "<repo>/<path-within-repo>", so rewrite exactly once.
		for j := range res.files {
			res.files[j].Path = repoRelPath(r.Name, r.Path, res.files[j].Path)
		}
		allFiles = append(allFiles, res.files...)
		rep.FilesParsed += res.stats.FilesSeen
		rep.FilesSkipped += res.stats.Skipped
		rep.FilesUnparseable += res.stats.Unparseable
		if len(res.stats.Errors) > 0 {
			rep.Errors = append(rep.Errors, PhaseError{
				Phase: "parse_files", Repo: r.Name, Err: knowerrors.NewMultiError(res.stats.Errors),
			})
		}
	}
	logPhase(ctx, s, runID, fmt.Sprintf("phase 1: parsed %d files · %d skipped · %d unparseable", rep.FilesParsed, rep.FilesSkipped, rep.FilesUnparseable))

	// Phase 2: build edges, replace atomically.
	edges := graph.BuildEdges(allFiles, workspaceRoot)
	rep.EdgesBuilt = len(edges)
	repoNames := make([]string, len(repos))
	for i, r := range repos {
		repoNames[i] = r.Name
	}
	if err := withTx(ctx, s, func(tx *store.Tx) error {
		return tx.ReplaceEdges(ctx, repoNames, edges)
	}); err != nil {
		return knowerrors.NewStoreError("replace_edges", err)
	}
	logPhase(ctx, s, runID, fmt.Sprintf("phase 2: built %d edges", rep.EdgesBuilt))

	// Phase 3: optional discovery passes, gated on LLM availability.
	var seedFlows []types.SeedFlow
	if opts.LLM != nil {
		seedFlows = discoverSeedFlows(allFiles)
		logPhase(ctx, s, runID, fmt.Sprintf("phase 3: discovered %d seed flows", len(seedFlows)))
	} else {
		logPhase(ctx, s, runID, "phase 3: skipped (no LLM configured)")
	}

	// Phase 4: flow detection.
	fileRepo := make(map[string]string, len(allFiles))
	allPaths := make([]string, len(allFiles))
	for i, f := range allFiles {
		allPaths[i] = f.Path
		fileRepo[f.Path] = f.Repo
	}
	flows := flow.Detect(allPaths, edges, seedFlows, fileRepo)
	rep.FlowsDetected = len(flows)
	logPhase(ctx, s, runID, fmt.Sprintf("phase 4: detected %d flows", len(flows)))

	// Phase 5: stack profiling + signal pass 1.
	profiles := map[string]types.RepoProfile{}
	classKindsByRepo := map[string][]types.ComponentType{}
	for _, f := range allFiles {
		for _, cls := range f.Classes {
			classKindsByRepo[f.Repo] = append(classKindsByRepo[f.Repo], cls.Kind)
		}
	}
	for _, r := range repos {
		profile := stackprofile.Profile(r.Path, r.Name)
		profiles[r.Name] = profile
		if err := withTx(ctx, s, func(tx *store.Tx) error {
			return tx.UpsertRepoProfile(ctx, profile)
		}); err != nil {
			rep.Errors = append(rep.Errors, PhaseError{Phase: "stack_profile", Repo: r.Name, Err: err})
		}
	}
	signalPass1 := make([]reposignal.RepoInput, len(repos))
	for i, r := range repos {
		signalPass1[i] = reposignal.RepoInput{Repo: r.Name, Profile: profiles[r.Name], ClassKinds: classKindsByRepo[r.Name]}
	}
	for _, rs := range reposignal.Generate(signalPass1, time.Now()) {
		if err := withTx(ctx, s, func(tx *store.Tx) error {
			return tx.UpsertRepoSignals(ctx, rs)
		}); err != nil {
			rep.Errors = append(rep.Errors, PhaseError{Phase: "signals_pass1", Repo: rs.Repo, Err: err})
		}
	}
	logPhase(ctx, s, runID, "phase 5: stack profiles and signal pass 1 complete")

	// Phase 6: doc generation, delegated entirely to internal/docgen.
	docResult := phase6DocGeneration(ctx, s, repos, allFiles, profiles, thermalByRepo, edges, opts, rep)
	rep.DocsRefreshed = docResult.Refreshed
	rep.DocsSkipped = docResult.Skipped
	logPhase(ctx, s, runID, fmt.Sprintf("phase 6: refreshed %d docs · skipped %d · %d errors", len(docResult.Refreshed), len(docResult.Skipped), len(docResult.Errors)))

	// Phase 7: signal pass 2, now with fresh docs.
	signalPass2 := make([]reposignal.RepoInput, len(repos))
	for i, r := range repos {
		docs, _ := s.DocsForRepo(ctx, r.Name)
		signalPass2[i] = reposignal.RepoInput{
			Repo: r.Name, Profile: profiles[r.Name], ClassKinds: classKindsByRepo[r.Name],
			DocText: concatSignalDocs(docs),
		}
	}
	for _, rs := range reposignal.Generate(signalPass2, time.Now()) {
		if err := withTx(ctx, s, func(tx *store.Tx) error {
			return tx.UpsertRepoSignals(ctx, rs)
		}); err != nil {
			rep.Errors = append(rep.Errors, PhaseError{Phase: "signals_pass2", Repo: rs.Repo, Err: err})
		}
	}
	logPhase(ctx, s, runID, "phase 7: signal pass 2 complete")

	// Phase 8: card generation, delete-then-insert, mandatory lexical rebuild.
	thermalAll := mergeThermal(thermalByRepo)
	cards := card.Generate(flows, allFiles, edges, thermalAll, opts.CommitSHA)
	rep.CardsWritten = len(cards)
	regenTypes := []types.CardType{types.CardTypeFlow, types.CardTypeHub, types.CardTypeModel, types.CardTypeCrossService}
	var expired int64
	if err := withTx(ctx, s, func(tx *store.Tx) error {
		n, err := tx.DeleteExpiredCards(ctx, time.Now())
		if err != nil {
			return err
		}
		expired = n
		return tx.ReplaceCardsOfTypes(ctx, regenTypes, cards)
	}); err != nil {
		return knowerrors.NewStoreError("replace_cards", err)
	}
	if err := s.RebuildLexicalIndex(ctx); err != nil {
		return knowerrors.NewStoreError("rebuild_lexical_index", err)
	}
	logPhase(ctx, s, runID, fmt.Sprintf("phase 8: wrote %d cards · %d expired removed · lexical index rebuilt", rep.CardsWritten, expired))

	// Phase 9: embeddings, specificity, centroid refresh.
	emitted, err := phase9Embeddings(ctx, s, cards)
	rep.EmbeddingsWritten = emitted
	if err != nil {
		rep.Errors = append(rep.Errors, PhaseError{Phase: "embeddings", Err: err})
	}
	logPhase(ctx, s, runID, fmt.Sprintf("phase 9: embedded %d cards", emitted))

	// Phase 10: file index upsert with heat scores.
	indexed := phase10FileIndex(ctx, s, allFiles, thermalByRepo, branchByRepo, rep)
	rep.FilesIndexed = indexed
	logPhase(ctx, s, runID, fmt.Sprintf("phase 10: indexed %d files", indexed))

	// Phase 11: optional filesystem doc writing, idempotent hash-skip.
	if opts.WriteDocsToDir != "" {
		written, err := phase11WriteDocs(ctx, s, repos, opts.WriteDocsToDir)
		if err != nil {
			rep.Errors = append(rep.Errors, PhaseError{Phase: "write_docs", Err: err})
		}
		logPhase(ctx, s, runID, fmt.Sprintf("phase 11: wrote %d doc files to disk", written))
	}

	return nil
}

// repoRelPath rewrites an absolute parsed path into the workspace-wide
// "<repoName>/<path-within-repo>" form.
func repoRelPath(repoName, repoRoot, abs string) string {
	rel, err := filepath.Rel(repoRoot, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return repoName + "/" + filepath.ToSlash(rel)
}

func phase0Intelligence(ctx context.Context, r RepoRef, since string) (map[string]float64, string) {
	provider, err := gitsignals.NewProvider(r.Path)
	if err != nil {
		return map[string]float64{}, ""
	}
	thermal, err := provider.ThermalMap(ctx, since)
	if err != nil {
		thermal = map[string]float64{}
	}
	branch, _ := provider.CurrentBranch(ctx)
	return thermal, branch
}

func withTx(ctx context.Context, s *store.Store, fn func(tx *store.Tx) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func mergeThermal(byRepo map[string]map[string]float64) map[string]float64 {
	out := map[string]float64{}
	for _, m := range byRepo {
		for path, heat := range m {
			out[path] = heat
		}
	}
	return out
}

func concatSignalDocs(docs []types.ProjectDoc) string {
	wanted := map[types.DocType]bool{}
	for _, dt := range types.SignalDocTypes {
		wanted[dt] = true
	}
	var out string
	for _, d := range docs {
		if wanted[d.DocType] && d.Content != "" {
			out += d.Content + "\n"
		}
	}
	return out
}

func discoverSeedFlows(files []types.ParsedFile) []types.SeedFlow {
	byDir := map[string]map[string]bool{}
	for _, f := range files {
		for _, cls := range f.Classes {
			if cls.Kind != types.ComponentTypeViewController {
				continue
			}
			dir := filepath.Dir(f.Path)
			if byDir[dir] == nil {
				byDir[dir] = map[string]bool{}
			}
			byDir[dir][f.Path] = true
			break
		}
	}
	var seeds []types.SeedFlow
	for dir, set := range byDir {
		paths := make([]string, 0, len(set))
		for p := range set {
			paths = append(paths, p)
		}
		seeds = append(seeds, types.SeedFlow{Name: "page:" + filepath.Base(dir), Files: paths})
	}
	return seeds
}
