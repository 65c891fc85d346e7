package sqlite

import (
	"context"

	"github.com/example/session-planner/internal/persistence"
)

// SpeakerRepository implements persistence.SpeakerRepository over the store.
type SpeakerRepository struct {
	store *Store
}

// NewSpeakerRepository wires a speaker repository to the store.
func NewSpeakerRepository(store *Store) *SpeakerRepository {
	return &SpeakerRepository{store: store}
}

// GetSpeaker retrieves one speaker by ID.
func (r *SpeakerRepository) GetSpeaker(ctx context.Context, id string) (persistence.Speaker, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	speakers, err := r.readLocked(ctx)
	if err != nil {
		return persistence.Speaker{}, err
	}
	for _, speaker := range speakers {
		if speaker.ID == id {
			return speaker, nil
		}
	}
	return persistence.Speaker{}, persistence.ErrNotFound
}

// ListSpeakers returns the whole speakers collection in stored order.
func (r *SpeakerRepository) ListSpeakers(ctx context.Context) ([]persistence.Speaker, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.readLocked(ctx)
}

// UpsertSpeaker replaces the speaker with a matching ID or appends it.
func (r *SpeakerRepository) UpsertSpeaker(ctx context.Context, speaker persistence.Speaker) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	speakers, err := r.readLocked(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i := range speakers {
		if speakers[i].ID == speaker.ID {
			speakers[i] = speaker
			replaced = true
			break
		}
	}
	if !replaced {
		speakers = append(speakers, speaker)
	}

	return r.store.writeValue(ctx, collectionSpeakers, speakers)
}

// DeleteSpeaker removes a speaker by ID. Sessions referencing the speaker
// keep their dangling config entries; lookups tolerate the missing target.
func (r *SpeakerRepository) DeleteSpeaker(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	speakers, err := r.readLocked(ctx)
	if err != nil {
		return err
	}

	filtered := make([]persistence.Speaker, 0, len(speakers))
	for _, speaker := range speakers {
		if speaker.ID != id {
			filtered = append(filtered, speaker)
		}
	}
	if len(filtered) == len(speakers) {
		return persistence.ErrNotFound
	}

	return r.store.writeValue(ctx, collectionSpeakers, filtered)
}

func (r *SpeakerRepository) readLocked(ctx context.Context) ([]persistence.Speaker, error) {
	speakers := make([]persistence.Speaker, 0)
	if err := r.store.readInto(ctx, collectionSpeakers, &speakers); err != nil {
		return nil, err
	}
	return speakers, nil
}
