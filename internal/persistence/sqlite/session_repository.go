package sqlite

import (
	"context"

	"github.com/example/session-planner/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository over the store.
type SessionRepository struct {
	store *Store
}

// NewSessionRepository wires a session repository to the store.
func NewSessionRepository(store *Store) *SessionRepository {
	return &SessionRepository{store: store}
}

// GetSession retrieves one session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	sessions, err := r.readLocked(ctx)
	if err != nil {
		return persistence.Session{}, err
	}
	for _, session := range sessions {
		if session.ID == id {
			return normalizeSession(session), nil
		}
	}
	return persistence.Session{}, persistence.ErrNotFound
}

// ListSessions returns the whole sessions collection in stored order.
func (r *SessionRepository) ListSessions(ctx context.Context) ([]persistence.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	sessions, err := r.readLocked(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]persistence.Session, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, normalizeSession(session))
	}
	return out, nil
}

// UpsertSession replaces the session with a matching ID or appends it.
func (r *SessionRepository) UpsertSession(ctx context.Context, session persistence.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sessions, err := r.readLocked(ctx)
	if err != nil {
		return err
	}

	session = normalizeSession(session)
	replaced := false
	for i := range sessions {
		if sessions[i].ID == session.ID {
			sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append(sessions, session)
	}

	return r.store.writeValue(ctx, collectionSessions, sessions)
}

// DeleteSession removes a session by ID.
func (r *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sessions, err := r.readLocked(ctx)
	if err != nil {
		return err
	}

	filtered := make([]persistence.Session, 0, len(sessions))
	for _, session := range sessions {
		if session.ID != id {
			filtered = append(filtered, session)
		}
	}
	if len(filtered) == len(sessions) {
		return persistence.ErrNotFound
	}

	return r.store.writeValue(ctx, collectionSessions, filtered)
}

// AppendSubscriber adds one subscriber to the end of a session's list and
// returns the updated session. Order of earlier subscribers is preserved and
// duplicates are accepted.
func (r *SessionRepository) AppendSubscriber(ctx context.Context, sessionID string, subscriber persistence.Subscriber) (persistence.Session, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sessions, err := r.readLocked(ctx)
	if err != nil {
		return persistence.Session{}, err
	}

	for i := range sessions {
		if sessions[i].ID != sessionID {
			continue
		}
		sessions[i] = normalizeSession(sessions[i])
		sessions[i].Subscribers = append(sessions[i].Subscribers, subscriber)
		if err := r.store.writeValue(ctx, collectionSessions, sessions); err != nil {
			return persistence.Session{}, err
		}
		return sessions[i], nil
	}

	return persistence.Session{}, persistence.ErrNotFound
}

func (r *SessionRepository) readLocked(ctx context.Context) ([]persistence.Session, error) {
	sessions := make([]persistence.Session, 0)
	if err := r.store.readInto(ctx, collectionSessions, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// normalizeSession guarantees the list invariants: speakers and subscribers
// are empty lists, never nil.
func normalizeSession(session persistence.Session) persistence.Session {
	if session.Speakers == nil {
		session.Speakers = []persistence.SessionSpeakerConfig{}
	}
	if session.Subscribers == nil {
		session.Subscribers = []persistence.Subscriber{}
	}
	return session
}
