// Package store implements the embedded relational+vector store: cards,
// embeddings, edges, files, docs, signals, and metrics behind a single
// SQLite file with WAL journaling, on the pure-Go modernc.org/sqlite
// driver (no cgo).
package store

import (
	"context"
	"database/sql"
	"sync"

	_ "modernc.org/sqlite"

	knowerrors "github.com/standardbeagle/knowledge-engine/internal/errors"
)

// Store is the single-writer embedded database for one workspace. All
// mutation goes through Tx (Begin/Commit/Rollback); reads may run directly
// against db, which database/sql already pools safely for SQLite's
// single-writer/multi-reader WAL model.
type Store struct {
	db   *sql.DB
	path string

	// writeMu serializes logical write transactions so WAL ordering stays
	// single-writer; database/sql's own
	// connection pool is not sufficient on its own because SQLite allows
	// only one writer connection to hold the WAL lock at a time and we want
	// callers to queue rather than retry on SQLITE_BUSY.
	writeMu sync.Mutex
}

// Open creates or opens the workspace database file at path, enables WAL
// journaling, and applies any pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, knowerrors.NewStoreError("open", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writer connections
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, knowerrors.NewStoreError("enable wal", err)
	}
	if _, err := db.Exec(`PRAGMA synchronous=NORMAL`); err != nil {
		db.Close()
		return nil, knowerrors.NewStoreError("set synchronous", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		db.Close()
		return nil, knowerrors.NewStoreError("enable foreign_keys", err)
	}

	s := &Store{db: db, path: path}
	if err := s.applyMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is a batched transaction handle returned by Begin.
type Tx struct {
	tx  *sql.Tx
	rel func()
}

// Begin starts a write transaction, serialized against any other in-flight
// write transaction on this Store.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	s.writeMu.Lock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.writeMu.Unlock()
		return nil, knowerrors.NewStoreError("begin", err)
	}
	return &Tx{tx: tx, rel: s.writeMu.Unlock}, nil
}

// Commit commits the transaction and releases the write lock.
func (t *Tx) Commit() error {
	defer t.rel()
	if err := t.tx.Commit(); err != nil {
		return knowerrors.NewStoreError("commit", err)
	}
	return nil
}

// Rollback rolls back the transaction and releases the write lock. Safe to
// call after a successful Commit (no-op).
func (t *Tx) Rollback() error {
	defer t.rel()
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return knowerrors.NewStoreError("rollback", err)
	}
	return nil
}

func storeErrf(op string, err error) error {
	if err == nil {
		return nil
	}
	return knowerrors.NewStoreError(op, err)
}
