package store

import (
	"context"
	"encoding/json"
	"time"
)

// IndexRunStatus mirrors the reindex-status() response shape.
type IndexRunStatus struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt *time.Time
	PhaseLog   []string
	Status     string // idle, running, done, error
	Error      string
}

// StartIndexRun records a new run row.
func (s *Store) StartIndexRun(ctx context.Context, runID string, startedAt time.Time) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO index_runs (run_id, started_at, phase_log, status)
		VALUES (?, ?, '[]', 'running')
	`, runID, startedAt.UTC().Format(time.RFC3339))
	return storeErrf("start_index_run", err)
}

// AppendRunLog appends one line to the rolling phase log, truncated to the
// last 200 lines.
func (s *Store) AppendRunLog(ctx context.Context, runID, line string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	row := s.db.QueryRowContext(ctx, `SELECT phase_log FROM index_runs WHERE run_id = ?`, runID)
	var raw string
	if err := row.Scan(&raw); err != nil {
		return storeErrf("append_run_log: read", err)
	}
	var log []string
	_ = json.Unmarshal([]byte(raw), &log)
	log = append(log, line)
	if len(log) > 200 {
		log = log[len(log)-200:]
	}
	encoded, err := json.Marshal(log)
	if err != nil {
		return storeErrf("append_run_log: marshal", err)
	}
	_, err = s.db.ExecContext(ctx, `UPDATE index_runs SET phase_log = ? WHERE run_id = ?`, string(encoded), runID)
	return storeErrf("append_run_log: write", err)
}

// FinishIndexRun marks a run done or error.
func (s *Store) FinishIndexRun(ctx context.Context, runID, status, errMsg string, finishedAt time.Time) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		UPDATE index_runs SET status = ?, error = ?, finished_at = ? WHERE run_id = ?
	`, status, errMsg, finishedAt.UTC().Format(time.RFC3339), runID)
	return storeErrf("finish_index_run", err)
}

// LatestIndexRun returns the most recently started run, if any.
func (s *Store) LatestIndexRun(ctx context.Context) (*IndexRunStatus, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, started_at, finished_at, phase_log, status, error
		FROM index_runs ORDER BY started_at DESC LIMIT 1
	`)
	var st IndexRunStatus
	var started string
	var finished *string
	var log string
	if err := row.Scan(&st.RunID, &started, &finished, &log, &st.Status, &st.Error); err != nil {
		return nil, nil //nolint:nilerr // no runs yet
	}
	if ts, err := time.Parse(time.RFC3339, started); err == nil {
		st.StartedAt = ts
	}
	if finished != nil {
		if ts, err := time.Parse(time.RFC3339, *finished); err == nil {
			st.FinishedAt = &ts
		}
	}
	_ = json.Unmarshal([]byte(log), &st.PhaseLog)
	return &st, nil
}
