package sqlite

import (
	"context"

	"github.com/example/session-planner/internal/persistence"
)

// SettingsRepository implements persistence.SettingsRepository over the store.
type SettingsRepository struct {
	store *Store
}

// NewSettingsRepository wires a settings repository to the store.
func NewSettingsRepository(store *Store) *SettingsRepository {
	return &SettingsRepository{store: store}
}

// GetSettings returns the singleton settings record.
func (r *SettingsRepository) GetSettings(ctx context.Context) (persistence.AppSettings, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var settings persistence.AppSettings
	document, found, err := r.store.readDocument(ctx, collectionSettings)
	if err != nil {
		return persistence.AppSettings{}, err
	}
	if !found {
		return persistence.AppSettings{}, persistence.ErrNotFound
	}
	if err := r.store.readIntoDocument(document, collectionSettings, &settings); err != nil {
		return persistence.AppSettings{}, err
	}
	return settings, nil
}

// SaveSettings replaces the settings record wholesale.
func (r *SettingsRepository) SaveSettings(ctx context.Context, settings persistence.AppSettings) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.writeValue(ctx, collectionSettings, settings)
}
