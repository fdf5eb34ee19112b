package store

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type migration struct {
	number   int
	name     string
	filename string
	sql      string
}

// loadMigrations reads the embedded migration files in ascending numeric
// order. Filenames are `NNN_description.sql`; the number is the sole sort
// key so migrations can be renamed without reordering.
func loadMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	migs := make([]migration, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		var num int
		var name string
		if _, err := fmt.Sscanf(e.Name(), "%d_", &num); err != nil {
			return nil, fmt.Errorf("migration %s: name must start with NNN_: %w", e.Name(), err)
		}
		name = strings.TrimSuffix(strings.SplitN(e.Name(), "_", 2)[1], ".sql")
		content, err := migrationFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		migs = append(migs, migration{number: num, name: name, filename: e.Name(), sql: string(content)})
	}

	sort.Slice(migs, func(i, j int) bool { return migs[i].number < migs[j].number })
	return migs, nil
}

// applyMigrations runs every migration not yet recorded in
// schema_migrations, each in its own transaction. Migration SQL is written
// to be idempotent (IF NOT EXISTS), so a migration that partially applied
// before a crash is safe to re-run in full.
func (s *Store) applyMigrations() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		number INTEGER PRIMARY KEY,
		name   TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	migs, err := loadMigrations()
	if err != nil {
		return err
	}

	applied := map[int]bool{}
	rows, err := s.db.Query(`SELECT number FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return err
		}
		applied[n] = true
	}
	rows.Close()

	for _, m := range migs {
		if applied[m.number] {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.filename, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", m.filename, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(number, name) VALUES (?, ?)`, m.number, m.name); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.filename, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.filename, err)
		}
	}
	return nil
}
