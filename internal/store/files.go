package store

import (
	"context"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// UpsertFileIndex writes the per-file row with its current heat score and
// branch name.
func (t *Tx) UpsertFileIndex(ctx context.Context, f types.FileIndex) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO file_index (path, repo, branch, file_role, parsed_data, heat_score)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo, path) DO UPDATE SET
			branch=excluded.branch, file_role=excluded.file_role,
			parsed_data=excluded.parsed_data, heat_score=excluded.heat_score
	`, f.Path, f.Repo, f.Branch, string(f.FileRole), f.ParsedData, f.HeatScore)
	return storeErrf("upsert_file_index", err)
}

// FilesForRepo returns every indexed file for a repo.
func (s *Store) FilesForRepo(ctx context.Context, repo string) ([]types.FileIndex, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, repo, branch, file_role, parsed_data, heat_score FROM file_index WHERE repo = ?`, repo)
	if err != nil {
		return nil, storeErrf("files_for_repo", err)
	}
	defer rows.Close()

	var out []types.FileIndex
	for rows.Next() {
		var f types.FileIndex
		var role string
		if err := rows.Scan(&f.Path, &f.Repo, &f.Branch, &role, &f.ParsedData, &f.HeatScore); err != nil {
			return nil, storeErrf("files_for_repo: scan", err)
		}
		f.FileRole = types.FileRole(role)
		out = append(out, f)
	}
	return out, nil
}
