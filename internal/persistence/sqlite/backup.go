package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/session-planner/internal/persistence"
)

// BackupRepository implements persistence.BackupRepository over the store.
type BackupRepository struct {
	store *Store
}

// NewBackupRepository wires a backup repository to the store.
func NewBackupRepository(store *Store) *BackupRepository {
	return &BackupRepository{store: store}
}

// backupDocument is the export/import wire format: the union of the four
// collections plus an export timestamp. Absent keys decode as nil and are
// skipped on import.
type backupDocument struct {
	Sessions   json.RawMessage `json:"sessions,omitempty"`
	Users      json.RawMessage `json:"users,omitempty"`
	Speakers   json.RawMessage `json:"speakers,omitempty"`
	Settings   json.RawMessage `json:"settings,omitempty"`
	ExportedAt string          `json:"exportedAt,omitempty"`
}

// ExportData serializes the whole store as one indented JSON document.
func (r *BackupRepository) ExportData(ctx context.Context) ([]byte, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	document := backupDocument{
		ExportedAt: r.store.now().UTC().Format(time.RFC3339),
	}

	reads := []struct {
		name     string
		target   *json.RawMessage
		fallback string
	}{
		{collectionSessions, &document.Sessions, "[]"},
		{collectionUsers, &document.Users, "[]"},
		{collectionSpeakers, &document.Speakers, "[]"},
		{collectionSettings, &document.Settings, "{}"},
	}

	for _, read := range reads {
		raw, found, err := r.store.readDocument(ctx, read.name)
		if err != nil {
			return nil, err
		}
		if !found {
			raw = []byte(read.fallback)
		}
		*read.target = json.RawMessage(raw)
	}

	out, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export document: %w", err)
	}
	return out, nil
}

// ImportData applies an export document to the store. Each collection key is
// applied independently; keys missing from the document leave the existing
// data untouched. The whole document is validated before anything is
// written, so a malformed import leaves the store unchanged.
func (r *BackupRepository) ImportData(ctx context.Context, data []byte) error {
	var document backupDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return fmt.Errorf("%w: %v", persistence.ErrImport, err)
	}

	type pending struct {
		name  string
		value any
	}
	writes := make([]pending, 0, 4)

	if document.Sessions != nil {
		sessions := make([]persistence.Session, 0)
		if err := json.Unmarshal(document.Sessions, &sessions); err != nil {
			return fmt.Errorf("%w: sessions: %v", persistence.ErrImport, err)
		}
		writes = append(writes, pending{collectionSessions, sessions})
	}
	if document.Users != nil {
		users := make([]persistence.User, 0)
		if err := json.Unmarshal(document.Users, &users); err != nil {
			return fmt.Errorf("%w: users: %v", persistence.ErrImport, err)
		}
		writes = append(writes, pending{collectionUsers, users})
	}
	if document.Speakers != nil {
		speakers := make([]persistence.Speaker, 0)
		if err := json.Unmarshal(document.Speakers, &speakers); err != nil {
			return fmt.Errorf("%w: speakers: %v", persistence.ErrImport, err)
		}
		writes = append(writes, pending{collectionSpeakers, speakers})
	}
	if document.Settings != nil {
		var settings persistence.AppSettings
		if err := json.Unmarshal(document.Settings, &settings); err != nil {
			return fmt.Errorf("%w: settings: %v", persistence.ErrImport, err)
		}
		writes = append(writes, pending{collectionSettings, settings})
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, write := range writes {
		if err := r.store.writeValue(ctx, write.name, write.value); err != nil {
			return err
		}
	}

	return nil
}
