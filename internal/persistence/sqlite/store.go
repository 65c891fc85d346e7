package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/example/session-planner/internal/persistence"
	_ "modernc.org/sqlite"
)

// Collection names double as primary keys in the collections table.
const (
	collectionSessions = "sessions"
	collectionUsers    = "users"
	collectionSpeakers = "speakers"
	collectionSettings = "settings"
)

// Store is a four-collection document store over a single SQLite table. Each
// collection is one JSON document read and written wholesale; a single writer
// lock serializes every read-modify-write cycle.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Open establishes the SQLite connection for the given DSN.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// modernc's driver serializes writes per connection; one connection keeps
	// the whole store on the single-writer model the repositories assume.
	db.SetMaxOpenConns(1)

	return &Store{db: db, now: time.Now}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate creates the collections table when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate collections table: %w", err)
	}
	return nil
}

// Seed writes the default content for every collection that is still absent.
// Collections that already hold a document are left untouched.
func (s *Store) Seed(ctx context.Context, seed persistence.Seed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	defaults := []struct {
		name  string
		value any
	}{
		{collectionSessions, seed.Sessions},
		{collectionUsers, seed.Users},
		{collectionSpeakers, seed.Speakers},
		{collectionSettings, seed.Settings},
	}

	for _, def := range defaults {
		_, found, err := s.readDocument(ctx, def.name)
		if err != nil {
			return err
		}
		if found {
			continue
		}
		if err := s.writeValue(ctx, def.name, def.value); err != nil {
			return err
		}
	}

	return nil
}

// readDocument returns the raw JSON document for a collection. Callers must
// hold the appropriate lock.
func (s *Store) readDocument(ctx context.Context, name string) ([]byte, bool, error) {
	var document string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM collections WHERE name = ?`, name).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read collection %s: %w", name, err)
	}
	return []byte(document), true, nil
}

// writeDocument replaces a collection document wholesale. Callers must hold
// the write lock.
func (s *Store) writeDocument(ctx context.Context, name string, document []byte) error {
	const query = `
		INSERT INTO collections (name, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, name, string(document), s.now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write collection %s: %w", name, err)
	}
	return nil
}

func (s *Store) writeValue(ctx context.Context, name string, value any) error {
	document, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", name, err)
	}
	return s.writeDocument(ctx, name, document)
}

// readIntoDocument decodes a previously read raw document into out.
func (s *Store) readIntoDocument(document []byte, name string, out any) error {
	if err := json.Unmarshal(document, out); err != nil {
		return fmt.Errorf("decode collection %s: %w", name, err)
	}
	return nil
}

// readInto decodes a collection document into out, leaving out untouched when
// the collection is absent. Callers must hold the appropriate lock.
func (s *Store) readInto(ctx context.Context, name string, out any) error {
	document, found, err := s.readDocument(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if err := json.Unmarshal(document, out); err != nil {
		return fmt.Errorf("decode collection %s: %w", name, err)
	}
	return nil
}
