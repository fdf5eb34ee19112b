package store

import (
	"context"
	"database/sql"
)

// GetConfig reads a SearchConfig key/value entry. ok is false when unset.
func (s *Store) GetConfig(ctx context.Context, key string) (value string, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM search_config WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, storeErrf("get_config", err)
	}
	return value, true, nil
}

// SetConfig writes a SearchConfig key/value entry.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return storeErrf("set_config", err)
}

// AllConfig returns every SearchConfig key/value pair, for the settings
// GET surface.
func (s *Store) AllConfig(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM search_config`)
	if err != nil {
		return nil, storeErrf("all_config", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, storeErrf("all_config: scan", err)
		}
		out[k] = v
	}
	return out, nil
}

const runLockKey = "__advisory_run_lock"

// AcquireRunLock records run_id as the holder of the single advisory lock
// preventing concurrent index runs. Returns false if another run already
// holds it.
func (s *Store) AcquireRunLock(ctx context.Context, runID string) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO search_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO NOTHING
	`, runLockKey, runID)
	if err != nil {
		return false, storeErrf("acquire_run_lock", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErrf("acquire_run_lock: rows affected", err)
	}
	return n > 0, nil
}

// ReleaseRunLock clears the advisory lock if runID currently holds it.
func (s *Store) ReleaseRunLock(ctx context.Context, runID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx, `DELETE FROM search_config WHERE key = ? AND value = ?`, runLockKey, runID)
	return storeErrf("release_run_lock", err)
}

// CurrentRunLock returns the run id currently holding the advisory lock, if any.
func (s *Store) CurrentRunLock(ctx context.Context) (string, bool, error) {
	return s.GetConfig(ctx, runLockKey)
}
