// Package mcp exposes the indexer and retriever as a Model Context
// Protocol tool set: sync, search, health, repos, refresh, reindex, and
// config tools over one shared Workspace facade.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/standardbeagle/knowledge-engine/internal/docgen"
	"github.com/standardbeagle/knowledge-engine/internal/invalidate"
	"github.com/standardbeagle/knowledge-engine/internal/orchestrator"
	"github.com/standardbeagle/knowledge-engine/internal/retrieve"
	"github.com/standardbeagle/knowledge-engine/internal/store"
	"github.com/standardbeagle/knowledge-engine/internal/types"
)

const configKeyExtraRepos = "extra_repos"

// Workspace is the one facade every tool handler calls through: it owns no
// transport concerns and can be exercised directly from tests without going
// through MCP's JSON envelope.
type Workspace struct {
	Store *store.Store
	LLM   docgen.LLMClient
	Root  string // workspace_root; used as the base dir for RepoRef.Path resolution by callers

	retriever *retrieve.Retriever

	runMu sync.Mutex // serializes this process's own reindex-stale goroutines; Store's run lock covers cross-process
}

func NewWorkspace(s *store.Store, llm docgen.LLMClient, root string) *Workspace {
	return &Workspace{Store: s, LLM: llm, Root: root, retriever: retrieve.New(s)}
}

// RepoEntry is the persisted shape of one entry in the extra_repos config
// key.
type RepoEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ListRepos reads the registered-repo set from config.
func (w *Workspace) ListRepos(ctx context.Context) ([]RepoEntry, error) {
	raw, ok, err := w.Store.GetConfig(ctx, configKeyExtraRepos)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var repos []RepoEntry
	if err := json.Unmarshal([]byte(raw), &repos); err != nil {
		return nil, fmt.Errorf("extra_repos: %w", err)
	}
	return repos, nil
}

func (w *Workspace) saveRepos(ctx context.Context, repos []RepoEntry) error {
	raw, err := json.Marshal(repos)
	if err != nil {
		return err
	}
	return w.Store.SetConfig(ctx, configKeyExtraRepos, string(raw))
}

// RegisterRepo adds (name, path) to the registry, replacing any existing
// entry of the same name, then kicks off a background reindex covering the
// whole registered set.
func (w *Workspace) RegisterRepo(ctx context.Context, name, path string) (reindexing bool, err error) {
	repos, err := w.ListRepos(ctx)
	if err != nil {
		return false, err
	}
	replaced := false
	for i, r := range repos {
		if r.Name == name {
			repos[i].Path = path
			replaced = true
			break
		}
	}
	if !replaced {
		repos = append(repos, RepoEntry{Name: name, Path: path})
	}
	if err := w.saveRepos(ctx, repos); err != nil {
		return false, err
	}

	queued, _, err := w.startReindex(ctx, "")
	return queued, err
}

// UnregisterRepo removes name from the registry. It does not stale or
// delete that repo's already-indexed cards/docs — unregister is a registry
// operation only, leaving existing content queryable until the next full
// reindex naturally replaces it.
func (w *Workspace) UnregisterRepo(ctx context.Context, name string) error {
	repos, err := w.ListRepos(ctx)
	if err != nil {
		return err
	}
	out := repos[:0]
	for _, r := range repos {
		if r.Name != name {
			out = append(out, r)
		}
	}
	return w.saveRepos(ctx, out)
}

func (w *Workspace) repoRefs(ctx context.Context) ([]orchestrator.RepoRef, error) {
	repos, err := w.ListRepos(ctx)
	if err != nil {
		return nil, err
	}
	refs := make([]orchestrator.RepoRef, len(repos))
	for i, r := range repos {
		refs[i] = orchestrator.RepoRef{Name: r.Name, Path: r.Path}
	}
	return refs, nil
}

// RepoRefs exports repoRefs for callers that need to drive
// orchestrator.Run synchronously themselves (cmd/knowctl's `index`
// subcommand runs in the foreground rather than through the
// background-goroutine path startReindex uses).
func (w *Workspace) RepoRefs(ctx context.Context) ([]orchestrator.RepoRef, error) {
	return w.repoRefs(ctx)
}

// SyncResult shapes the `sync` API's `{ indexed, invalidated }` response.
type SyncResult struct {
	Indexed     bool
	Invalidated invalidate.Result
}

// ChangedFile is one entry of sync()'s changedFiles array.
type ChangedFile struct {
	Path   string
	Status string // added, modified, deleted
}

// Sync runs the invalidator for one change event and, for merge/pull
// events, triggers a reindex. A true single-repo-only reindex would need
// the orchestrator to rebuild cross-repo edges from a partial file set, so
// the scope is this workspace's registered repos, not this repo alone.
func (w *Workspace) Sync(ctx context.Context, repo string, eventType string, changedFiles []ChangedFile) (SyncResult, error) {
	// Editors send paths relative to the repo root; stored card/doc/edge
	// paths are workspace-wide "<repo>/<path>", so normalize before the
	// intersection checks.
	paths := make([]string, len(changedFiles))
	for i, f := range changedFiles {
		p := filepath.ToSlash(f.Path)
		if !strings.HasPrefix(p, repo+"/") {
			p = repo + "/" + p
		}
		paths[i] = p
	}
	isMerge := eventType == "merge" || eventType == "pull"

	res, err := invalidate.Invalidate(ctx, w.Store, repo, paths, isMerge)
	if err != nil {
		return SyncResult{}, err
	}

	indexed := false
	if isMerge {
		queued, _, rerr := w.startReindex(ctx, "")
		if rerr != nil {
			return SyncResult{Invalidated: res}, rerr
		}
		indexed = queued
	}
	return SyncResult{Indexed: indexed, Invalidated: res}, nil
}

// SearchResult is one entry of the `search` API's response array.
type SearchResult struct {
	Card   types.Card
	Score  float64
	Source string
}

func (w *Workspace) Search(ctx context.Context, query string, limit int, branch string) ([]SearchResult, error) {
	res, err := w.retriever.Retrieve(ctx, query, retrieve.Options{Limit: limit, Branch: branch})
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, len(res.Cards))
	for i, c := range res.Cards {
		out[i] = SearchResult{Card: c, Score: res.Scores[c.ID], Source: res.Sources[c.ID]}
	}
	return out, nil
}

// Health backs `health() -> { status, cards, flows }`.
type HealthResult struct {
	Status string
	Cards  int
	Flows  int
}

func (w *Workspace) Health(ctx context.Context) (HealthResult, error) {
	stats, err := w.Store.Stats(ctx)
	if err != nil {
		return HealthResult{Status: "error"}, err
	}
	status := "ok"
	if _, running, err := w.Store.CurrentRunLock(ctx); err == nil && running {
		status = "indexing"
	}
	return HealthResult{Status: status, Cards: stats.TotalCards, Flows: stats.Flows}, nil
}

// RefreshResult backs `refresh({repo?}) -> {refreshed, skipped, errors[]}`.
type RefreshResult struct {
	Refreshed []types.DocType
	Skipped   []types.DocType
	Errors    []string
}

// Refresh regenerates stale docs only, reconstituting each repo's docgen.Input
// from already-persisted state (FileIndex rows, repo profile, graph edges)
// rather than re-parsing from disk — refresh is meant to be cheap and is not
// expected to pick up brand-new files, only re-author stale doc content.
func (w *Workspace) Refresh(ctx context.Context, repo string) (RefreshResult, error) {
	allRepos, err := w.Store.AllRepos(ctx)
	if err != nil {
		return RefreshResult{}, err
	}
	targets := allRepos
	if repo != "" {
		targets = []string{repo}
	}

	gen := docgen.New(w.LLM)
	var out RefreshResult
	for _, r := range targets {
		in, err := w.buildDocInput(ctx, r, allRepos)
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
			continue
		}
		result := gen.GenerateAll(ctx, in, docgen.Options{SkipExisting: true})

		if err := w.withTx(ctx, func(tx *store.Tx) error {
			for _, d := range result.Docs {
				if err := tx.UpsertProjectDoc(ctx, d); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			out.Errors = append(out.Errors, err.Error())
			continue
		}
		out.Refreshed = append(out.Refreshed, result.Refreshed...)
		out.Skipped = append(out.Skipped, result.Skipped...)
		for _, e := range result.Errors {
			out.Errors = append(out.Errors, e.Error())
		}
	}
	return out, nil
}

func (w *Workspace) buildDocInput(ctx context.Context, repo string, allRepos []string) (docgen.Input, error) {
	files, err := w.Store.FilesForRepo(ctx, repo)
	if err != nil {
		return docgen.Input{}, err
	}
	var parsed []types.ParsedFile
	thermal := map[string]float64{}
	for _, f := range files {
		thermal[f.Path] = f.HeatScore
		var pf types.ParsedFile
		if err := json.Unmarshal(f.ParsedData, &pf); err == nil {
			parsed = append(parsed, pf)
		}
	}

	var profile types.RepoProfile
	if p, err := w.Store.RepoProfileFor(ctx, repo); err == nil && p != nil {
		profile = *p
	}

	existingDocs, err := w.Store.DocsForRepo(ctx, repo)
	if err != nil {
		return docgen.Input{}, err
	}
	existing := make(map[types.DocType]types.ProjectDoc, len(existingDocs))
	for _, d := range existingDocs {
		existing[d.DocType] = d
	}

	edges, err := w.Store.AllEdges(ctx)
	if err != nil {
		return docgen.Input{}, err
	}
	var cross []types.GraphEdge
	for _, e := range edges {
		if e.Repo == repo {
			cross = append(cross, e)
		}
	}

	var other []string
	for _, r := range allRepos {
		if r != repo {
			other = append(other, r)
		}
	}

	return docgen.Input{
		Repo: repo, Profile: profile, Files: parsed, Thermal: thermal,
		Existing: existing, CrossRepo: cross, OtherRepos: other,
	}, nil
}

// ReindexStaleResult backs `reindex-stale({repo?})`'s three-way response
// (202 queued / 409 already-running / 200 nothing-to-do). HTTP
// status codes belong to the HTTP surface; this tool-layer result carries
// the same three states as a Queued/AlreadyRunning pair plus a count.
type ReindexStaleResult struct {
	Queued         bool
	AlreadyRunning bool
	StaleCount     int
}

func (w *Workspace) ReindexStale(ctx context.Context, repo string) (ReindexStaleResult, error) {
	staleCount, err := w.staleCount(ctx, repo)
	if err != nil {
		return ReindexStaleResult{}, err
	}
	if staleCount == 0 {
		return ReindexStaleResult{StaleCount: 0}, nil
	}
	queued, alreadyRunning, err := w.startReindex(ctx, repo)
	if err != nil {
		return ReindexStaleResult{}, err
	}
	return ReindexStaleResult{Queued: queued, AlreadyRunning: alreadyRunning, StaleCount: staleCount}, nil
}

func (w *Workspace) staleCount(ctx context.Context, repo string) (int, error) {
	if repo == "" {
		stats, err := w.Store.Stats(ctx)
		if err != nil {
			return 0, err
		}
		docs, err := w.totalStaleDocs(ctx, "")
		if err != nil {
			return 0, err
		}
		return stats.StaleCards + docs, nil
	}

	files, err := w.Store.FilesForRepo(ctx, repo)
	if err != nil {
		return 0, err
	}
	candidates := make(map[string]bool, len(files))
	for _, f := range files {
		candidates[f.Path] = true
	}
	cards, err := w.Store.CardsForRepoWithFiles(ctx, repo, candidates)
	if err != nil {
		return 0, err
	}
	staleCards := 0
	for _, c := range cards {
		if c.Stale {
			staleCards++
		}
	}
	docs, err := w.totalStaleDocs(ctx, repo)
	if err != nil {
		return 0, err
	}
	return staleCards + docs, nil
}

func (w *Workspace) totalStaleDocs(ctx context.Context, repo string) (int, error) {
	repos := []string{repo}
	if repo == "" {
		all, err := w.Store.AllRepos(ctx)
		if err != nil {
			return 0, err
		}
		repos = all
	}
	total := 0
	for _, r := range repos {
		docs, err := w.Store.DocsForRepo(ctx, r)
		if err != nil {
			return 0, err
		}
		for _, d := range docs {
			if d.Stale {
				total++
			}
		}
	}
	return total, nil
}

// startReindex launches orchestrator.Run in the background over the full
// registered repo set. The repo argument is accepted for API symmetry with
// reindex-stale({repo}) but, per the Sync doc comment above, true
// single-repo scoping is future work. Returns queued=false,
// alreadyRunning=true if a run is already in flight.
func (w *Workspace) startReindex(ctx context.Context, repo string) (queued bool, alreadyRunning bool, err error) {
	refs, err := w.repoRefs(ctx)
	if err != nil {
		return false, false, err
	}
	if len(refs) == 0 {
		return false, false, nil
	}

	w.runMu.Lock()
	defer w.runMu.Unlock()

	if _, running, err := w.Store.CurrentRunLock(ctx); err == nil && running {
		return false, true, nil
	}

	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := orchestrator.Run(runCtx, w.Store, w.Root, refs, orchestrator.Options{LLM: w.LLM}); err != nil {
			log.Printf("WARNING: background reindex failed: %v", err)
		}
	}()
	return true, false, nil
}

// ReindexStatus backs `reindex-status() -> {status, startedAt, finishedAt, log[], error?}`.
func (w *Workspace) ReindexStatus(ctx context.Context) (*store.IndexRunStatus, error) {
	return w.Store.LatestIndexRun(ctx)
}

// GetConfig backs the config `GET` API: the full `{key:value}` map.
func (w *Workspace) GetConfig(ctx context.Context) (map[string]string, error) {
	return w.Store.AllConfig(ctx)
}

// PutConfig backs the config `PUT` API: merge the given keys into the
// store, one SetConfig per key. This layer does not validate values beyond
// what Store.SetConfig already accepts — key-specific validation, e.g.
// max_hub_cards' integer parsing, lives at each key's point of use.
func (w *Workspace) PutConfig(ctx context.Context, kv map[string]string) error {
	for k, v := range kv {
		if err := w.Store.SetConfig(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workspace) withTx(ctx context.Context, fn func(tx *store.Tx) error) error {
	tx, err := w.Store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
