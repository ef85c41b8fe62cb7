// Package sqlite persists rosters and nominations to a single-file SQLite database.
// Reads are served from an in-memory copy; every successful write is flushed to disk.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/db"
)

const (
	kindRoster     = "roster"
	kindNomination = "nomination"
)

// DB wraps the in-memory store with write-through persistence
type DB struct {
	*db.MemoryDB
	sqlDB *sql.DB
	mu    sync.Mutex
	path  string
}

// Open loads (or creates) the database file at path
func Open(path string) (*DB, error) {
	if path == "" {
		path = "rosters.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS documents (
		kind TEXT NOT NULL,
		id TEXT NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (kind, id)
	)`); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	s := &DB{MemoryDB: db.NewMemoryDB(), sqlDB: sqlDB, path: path}
	if err := s.load(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *DB) load() error {
	rows, err := s.sqlDB.Query(`SELECT kind, payload FROM documents`)
	if err != nil {
		return fmt.Errorf("failed to select documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rosters []model.SamplingRoster
	var nominations []model.ShipNomination
	for rows.Next() {
		var kind string
		var payload []byte
		if err := rows.Scan(&kind, &payload); err != nil {
			return fmt.Errorf("failed to scan document: %w", err)
		}
		switch kind {
		case kindRoster:
			var r model.SamplingRoster
			if err := json.Unmarshal(payload, &r); err != nil {
				return fmt.Errorf("failed to decode roster: %w", err)
			}
			rosters = append(rosters, r)
		case kindNomination:
			var n model.ShipNomination
			if err := json.Unmarshal(payload, &n); err != nil {
				return fmt.Errorf("failed to decode nomination: %w", err)
			}
			nominations = append(nominations, n)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating documents: %w", err)
	}

	s.Import(rosters, nominations)
	return nil
}

func (s *DB) upsert(ctx context.Context, kind, id string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO documents(kind, id, payload) VALUES(?, ?, ?)
		 ON CONFLICT(kind, id) DO UPDATE SET payload = excluded.payload`,
		kind, id, payload); err != nil {
		return fmt.Errorf("failed to upsert %s %s: %w", kind, id, err)
	}
	return nil
}

// Save validates the roster, writes it to disk and only then updates memory
func (s *DB) Save(ctx context.Context, roster *model.SamplingRoster) (*model.SamplingRoster, error) {
	return s.MemoryDB.SaveWith(ctx, roster, func(ctx context.Context, doc *model.SamplingRoster) error {
		return s.upsert(ctx, kindRoster, doc.ID, doc)
	})
}

// DeleteByID removes the row first so a failed delete leaves both copies in place
func (s *DB) DeleteByID(ctx context.Context, id string) error {
	return s.MemoryDB.DeleteWith(ctx, id, func(ctx context.Context, id string) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM documents WHERE kind = ? AND id = ?`, kindRoster, id); err != nil {
			return fmt.Errorf("failed to delete roster %s: %w", id, err)
		}
		return nil
	})
}

func (s *DB) SaveNomination(ctx context.Context, nomination *model.ShipNomination) (*model.ShipNomination, error) {
	return s.MemoryDB.SaveNominationWith(ctx, nomination, func(ctx context.Context, doc *model.ShipNomination) error {
		return s.upsert(ctx, kindNomination, doc.ID, doc)
	})
}

// Close closes the underlying database file
func (s *DB) Close() {
	_ = s.sqlDB.Close()
}

// Path returns the configured database path.
func (s *DB) Path() string { return s.path }
