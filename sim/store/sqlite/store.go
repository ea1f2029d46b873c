// Package sqlite provides an embedded durable Store backend. It keeps the
// engine's MemStore as the working state and persists a full JSON snapshot
// inside one sqlite transaction per Commit, so durability moves in
// maintenance-period units: a crash between commits loses at most one period.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/JamesBuckley3/supply-chain-simulator/sim"
)

const stateBucket = "state"

// Store is a snapshotting sqlite-backed Store.
type Store struct {
	*sim.MemStore
	db   *sql.DB
	path string
}

// Open creates or reopens the database at path and loads the last committed
// snapshot, if any, into the working state.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "supplychain.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{MemStore: sim.NewMemStore(), db: db, path: path}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() error {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM state WHERE bucket = ?`, stateBucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	var st sim.StoreState
	if err := json.Unmarshal(payload, &st); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if err := s.ImportState(st); err != nil {
		return fmt.Errorf("import state: %w", err)
	}
	return nil
}

// Commit makes the working state durable: it marks the boundary in the
// MemStore, then writes the exported snapshot inside one transaction.
func (s *Store) Commit(ctx context.Context) error {
	if err := s.MemStore.Commit(ctx); err != nil {
		return err
	}
	payload, err := json.Marshal(s.ExportState())
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO state (bucket, payload) VALUES (?, ?)
		 ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
		stateBucket, payload); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close closes the database. Uncommitted working-state mutations are
// discarded, matching the engine's crash semantics.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ sim.Store = (*Store)(nil)
