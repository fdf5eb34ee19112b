package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/standardbeagle/knowledge-engine/internal/types"
)

// UpsertRepoSignals writes derived signals unless an existing row is
// locked, in which case the write is silently skipped — locked rows are
// never overwritten by the derivator.
func (t *Tx) UpsertRepoSignals(ctx context.Context, rs types.RepoSignals) error {
	var locked bool
	row := t.tx.QueryRowContext(ctx, `SELECT locked FROM repo_signals WHERE repo = ?`, rs.Repo)
	if err := row.Scan(&locked); err == nil && locked && rs.SignalSource == types.SignalSourceDerived {
		return nil
	}

	signals, err := json.Marshal(rs.Signals)
	if err != nil {
		return storeErrf("upsert_repo_signals: marshal", err)
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO repo_signals (repo, signals, signal_source, locked, generated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(repo) DO UPDATE SET
			signals=excluded.signals, signal_source=excluded.signal_source,
			locked=excluded.locked, generated_at=excluded.generated_at
	`, rs.Repo, string(signals), string(rs.SignalSource), rs.Locked, rs.GeneratedAt.UTC().Format(time.RFC3339))
	return storeErrf("upsert_repo_signals", err)
}

// RepoSignalsFor returns the persisted signals for one repo, if any.
func (s *Store) RepoSignalsFor(ctx context.Context, repo string) (*types.RepoSignals, error) {
	row := s.db.QueryRowContext(ctx, `SELECT repo, signals, signal_source, locked, generated_at FROM repo_signals WHERE repo = ?`, repo)
	var rs types.RepoSignals
	var signals, source, gen string
	if err := row.Scan(&rs.Repo, &signals, &source, &rs.Locked, &gen); err != nil {
		return nil, nil //nolint:nilerr // not found is not an error for this caller
	}
	_ = json.Unmarshal([]byte(signals), &rs.Signals)
	rs.SignalSource = types.SignalSource(source)
	if ts, err := time.Parse(time.RFC3339, gen); err == nil {
		rs.GeneratedAt = ts
	}
	return &rs, nil
}

// AllRepoSignals returns every repo's signals, used by the retriever's
// affinity blend and the cross-corpus TF-IDF pass.
func (s *Store) AllRepoSignals(ctx context.Context) (map[string]types.RepoSignals, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT repo, signals, signal_source, locked, generated_at FROM repo_signals`)
	if err != nil {
		return nil, storeErrf("all_repo_signals", err)
	}
	defer rows.Close()

	out := map[string]types.RepoSignals{}
	for rows.Next() {
		var rs types.RepoSignals
		var signals, source, gen string
		if err := rows.Scan(&rs.Repo, &signals, &source, &rs.Locked, &gen); err != nil {
			return nil, storeErrf("all_repo_signals: scan", err)
		}
		_ = json.Unmarshal([]byte(signals), &rs.Signals)
		rs.SignalSource = types.SignalSource(source)
		if ts, err := time.Parse(time.RFC3339, gen); err == nil {
			rs.GeneratedAt = ts
		}
		out[rs.Repo] = rs
	}
	return out, nil
}

// UpsertRepoProfile writes the Stack Profiler's output for one repo.
func (t *Tx) UpsertRepoProfile(ctx context.Context, p types.RepoProfile) error {
	fw, err := json.Marshal(p.Frameworks)
	if err != nil {
		return storeErrf("upsert_repo_profile: marshal frameworks", err)
	}
	sk, err := json.Marshal(p.SkillIDs)
	if err != nil {
		return storeErrf("upsert_repo_profile: marshal skills", err)
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO repo_profiles (repo, primary_language, frameworks, is_lambda, package_manager, skill_ids)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo) DO UPDATE SET
			primary_language=excluded.primary_language, frameworks=excluded.frameworks,
			is_lambda=excluded.is_lambda, package_manager=excluded.package_manager,
			skill_ids=excluded.skill_ids
	`, p.Repo, p.PrimaryLanguage, string(fw), p.IsLambda, p.PackageManager, string(sk))
	return storeErrf("upsert_repo_profile", err)
}

// RepoProfileFor returns the persisted stack profile for one repo.
func (s *Store) RepoProfileFor(ctx context.Context, repo string) (*types.RepoProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT repo, primary_language, frameworks, is_lambda, package_manager, skill_ids FROM repo_profiles WHERE repo = ?`, repo)
	var p types.RepoProfile
	var fw, sk string
	if err := row.Scan(&p.Repo, &p.PrimaryLanguage, &fw, &p.IsLambda, &p.PackageManager, &sk); err != nil {
		return nil, nil //nolint:nilerr
	}
	_ = json.Unmarshal([]byte(fw), &p.Frameworks)
	_ = json.Unmarshal([]byte(sk), &p.SkillIDs)
	return &p, nil
}
