package store

import (
	"context"
	"encoding/json"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// ReplaceEdges atomically regenerates the graph_edges table for the given
// repos. Edges are regenerated wholesale each run,
// never patched incrementally.
func (t *Tx) ReplaceEdges(ctx context.Context, repos []string, edges []types.GraphEdge) error {
	for _, repo := range repos {
		if _, err := t.tx.ExecContext(ctx, `DELETE FROM graph_edges WHERE repo = ?`, repo); err != nil {
			return storeErrf("replace_edges: delete", err)
		}
	}
	for _, e := range edges {
		meta := "{}"
		if e.Endpoint != nil {
			b, err := json.Marshal(e.Endpoint)
			if err != nil {
				return storeErrf("replace_edges: marshal metadata", err)
			}
			meta = string(b)
		}
		if _, err := t.tx.ExecContext(ctx, `
			INSERT INTO graph_edges (source_file, target_file, relation, repo, metadata)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(source_file, target_file, relation) DO UPDATE SET metadata = excluded.metadata
		`, e.SourceFile, e.TargetFile, string(e.Relation), e.Repo, meta); err != nil {
			return storeErrf("replace_edges: insert", err)
		}
	}
	return nil
}

// EdgesByRelation returns all persisted edges of a given relation, used by
// the Card Generator (cross-service pairs) and the Invalidator (cross-repo
// propagation).
func (s *Store) EdgesByRelation(ctx context.Context, relation types.EdgeRelation) ([]types.GraphEdge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source_file, target_file, relation, repo, metadata FROM graph_edges WHERE relation = ?`, string(relation))
	if err != nil {
		return nil, storeErrf("edges_by_relation", err)
	}
	defer rows.Close()

	var out []types.GraphEdge
	for rows.Next() {
		var e types.GraphEdge
		var rel, meta string
		if err := rows.Scan(&e.SourceFile, &e.TargetFile, &rel, &e.Repo, &meta); err != nil {
			return nil, storeErrf("edges_by_relation: scan", err)
		}
		e.Relation = types.EdgeRelation(rel)
		if meta != "{}" && meta != "" {
			var ep types.EndpointMetadata
			if err := json.Unmarshal([]byte(meta), &ep); err == nil {
				e.Endpoint = &ep
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// AllEdges returns the full edge set, used by the Flow Detector.
func (s *Store) AllEdges(ctx context.Context) ([]types.GraphEdge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source_file, target_file, relation, repo, metadata FROM graph_edges`)
	if err != nil {
		return nil, storeErrf("all_edges", err)
	}
	defer rows.Close()

	var out []types.GraphEdge
	for rows.Next() {
		var e types.GraphEdge
		var rel, meta string
		if err := rows.Scan(&e.SourceFile, &e.TargetFile, &rel, &e.Repo, &meta); err != nil {
			return nil, storeErrf("all_edges: scan", err)
		}
		e.Relation = types.EdgeRelation(rel)
		if meta != "{}" && meta != "" {
			var ep types.EndpointMetadata
			if err := json.Unmarshal([]byte(meta), &ep); err == nil {
				e.Endpoint = &ep
			}
		}
		out = append(out, e)
	}
	return out, nil
}
