// Package daymem is the durable core of the journal: one note per calendar
// day in SQLite, plus an embedding index over note text used for semantic
// retrieval. The store is the single source of truth for notes; embeddings
// are best-effort and allowed to lag, but never reference a missing note
// (enforced by ON DELETE CASCADE).
package daymem

import (
	"database/sql"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
)

// Open opens (or creates) the journal database and brings the schema up.
// Safe to call repeatedly; migration is idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &InitError{Err: err}
	}

	// one connection: pragmas below are per-connection, and a single handle
	// serializes all storage I/O
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, &InitError{Err: err}
	}

	// the embedding table relies on cascading deletes
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, &InitError{Err: err}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, &InitError{Err: err}
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// SetEmbedder attaches the vector provider. Without one, embedding updates
// are no-ops and retrieval returns nothing.
func (s *Store) SetEmbedder(e Embedder) {
	s.embedder = e
}

func (s *Store) HasEmbedder() bool {
	return s.embedder != nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}
