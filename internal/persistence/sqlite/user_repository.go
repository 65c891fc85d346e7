package sqlite

import (
	"context"

	"github.com/example/session-planner/internal/persistence"
)

// UserRepository implements persistence.UserRepository over the store.
type UserRepository struct {
	store *Store
}

// NewUserRepository wires a user repository to the store.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// GetUser retrieves one user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users, err := r.readLocked(ctx)
	if err != nil {
		return persistence.User{}, err
	}
	for _, user := range users {
		if user.ID == id {
			return user, nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

// ListUsers returns the whole users collection in stored order.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.readLocked(ctx)
}

// UpsertUser replaces the user with a matching ID or appends it.
func (r *UserRepository) UpsertUser(ctx context.Context, user persistence.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.readLocked(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i := range users {
		if users[i].ID == user.ID {
			users[i] = user
			replaced = true
			break
		}
	}
	if !replaced {
		users = append(users, user)
	}

	return r.store.writeValue(ctx, collectionUsers, users)
}

// DeleteUser removes a user by ID.
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.readLocked(ctx)
	if err != nil {
		return err
	}

	filtered := make([]persistence.User, 0, len(users))
	for _, user := range users {
		if user.ID != id {
			filtered = append(filtered, user)
		}
	}
	if len(filtered) == len(users) {
		return persistence.ErrNotFound
	}

	return r.store.writeValue(ctx, collectionUsers, filtered)
}

func (r *UserRepository) readLocked(ctx context.Context) ([]persistence.User, error) {
	users := make([]persistence.User, 0)
	if err := r.store.readInto(ctx, collectionUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}
