package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// UpsertProjectDoc writes or replaces a (repo, doc_type) document.
func (t *Tx) UpsertProjectDoc(ctx context.Context, d types.ProjectDoc) error {
	paths, err := json.Marshal(d.SourceFilePaths)
	if err != nil {
		return storeErrf("upsert_project_doc: marshal paths", err)
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO project_docs (repo, doc_type, content, source_file_paths, stale, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo, doc_type) DO UPDATE SET
			content=excluded.content, source_file_paths=excluded.source_file_paths,
			stale=excluded.stale, updated_at=excluded.updated_at
	`, d.Repo, string(d.DocType), d.Content, string(paths), d.Stale, d.UpdatedAt.UTC().Format(time.RFC3339))
	return storeErrf("upsert_project_doc", err)
}

// MarkDocsStale flips stale=true for the given (repo, doc_type) pairs, used
// by the Invalidator's pattern-rule cascade.
func (t *Tx) MarkDocsStale(ctx context.Context, repo string, docTypes []types.DocType) error {
	for _, dt := range docTypes {
		if _, err := t.tx.ExecContext(ctx, `UPDATE project_docs SET stale = 1 WHERE repo = ? AND doc_type = ?`, repo, string(dt)); err != nil {
			return storeErrf("mark_docs_stale", err)
		}
	}
	return nil
}

// DocsForRepo returns every persisted doc for a repo, including stale ones
// (the Repo Signal Generator reads "non-empty docs" regardless of
// staleness — freshness is the orchestrator's concern, not the signal
// generator's).
func (s *Store) DocsForRepo(ctx context.Context, repo string) ([]types.ProjectDoc, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT repo, doc_type, content, source_file_paths, stale, updated_at FROM project_docs WHERE repo = ?`, repo)
	if err != nil {
		return nil, storeErrf("docs_for_repo", err)
	}
	defer rows.Close()

	var out []types.ProjectDoc
	for rows.Next() {
		var d types.ProjectDoc
		var dt, paths, updated string
		if err := rows.Scan(&d.Repo, &dt, &d.Content, &paths, &d.Stale, &updated); err != nil {
			return nil, storeErrf("docs_for_repo: scan", err)
		}
		d.DocType = types.DocType(dt)
		_ = json.Unmarshal([]byte(paths), &d.SourceFilePaths)
		if ts, err := time.Parse(time.RFC3339, updated); err == nil {
			d.UpdatedAt = ts
		}
		out = append(out, d)
	}
	return out, nil
}

// AllRepos returns the distinct repo names with at least one indexed file,
// persisted doc, or stack profile — used to enumerate the workspace.
func (s *Store) AllRepos(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT repo FROM file_index
		UNION SELECT DISTINCT repo FROM project_docs
		UNION SELECT DISTINCT repo FROM repo_profiles
	`)
	if err != nil {
		return nil, storeErrf("all_repos", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, storeErrf("all_repos: scan", err)
		}
		out = append(out, r)
	}
	return out, nil
}
