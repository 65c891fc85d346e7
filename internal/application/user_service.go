package application

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpsertUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id string) error
}

// PINHasher derives a storable hash from a plaintext PIN.
type PINHasher func(pin string) (string, error)

// UserService orchestrates validation, authorization, and persistence for staff accounts.
type UserService struct {
	users       UserRepository
	hashPIN     PINHasher
	idGenerator func() string
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, hashPIN PINHasher, idGenerator func() string) *UserService {
	if hashPIN == nil {
		hashPIN = HashPIN
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &UserService{users: users, hashPIN: hashPIN, idGenerator: idGenerator}
}

// SaveUser creates or updates a staff account for administrators. PINs are
// hashed before storage; an empty PIN on update keeps the existing hash.
func (s *UserService) SaveUser(ctx context.Context, params SaveUserParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if !params.Principal.IsAdmin {
		return User{}, ErrUnauthorized
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	normalized := normalizeUserInput(params.Input)
	isNew := params.UserID == ""

	vErr := validateUserInput(normalized, isNew)
	if vErr.HasErrors() {
		return User{}, vErr
	}

	user := User{
		ID:      params.UserID,
		Name:    normalized.Name,
		Role:    normalized.Role,
		Email:   normalized.Email,
		Picture: normalized.Picture,
	}

	if isNew {
		user.ID = s.idGenerator()
	} else {
		existing, err := s.users.GetUser(ctx, params.UserID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return User{}, ErrNotFound
			}
			return User{}, err
		}
		user.PINHash = existing.PINHash
	}

	if normalized.PIN != "" {
		hash, err := s.hashPIN(normalized.PIN)
		if err != nil {
			return User{}, fmt.Errorf("hash pin: %w", err)
		}
		user.PINHash = hash
	}

	if err := s.users.UpsertUser(ctx, user); err != nil {
		return User{}, err
	}

	return user, nil
}

// DeleteUser removes a staff account for administrators. The last remaining
// administrator cannot be deleted.
func (s *UserService) DeleteUser(ctx context.Context, principal Principal, userID string) error {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	if s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	target, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if target.Role == RoleAdmin {
		users, err := s.users.ListUsers(ctx)
		if err != nil {
			return err
		}
		admins := 0
		for _, user := range users {
			if user.Role == RoleAdmin {
				admins++
			}
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	return nil
}

// ListUsers returns all staff accounts for administrators, sorted by name.
func (s *UserService) ListUsers(ctx context.Context, principal Principal) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	if s.users == nil {
		return nil, nil
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]User, len(users))
	copy(out, users)

	sort.Slice(out, func(i, j int) bool {
		if strings.EqualFold(out[i].Name, out[j].Name) {
			return out[i].ID < out[j].ID
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})

	return out, nil
}

func normalizeUserInput(input UserInput) UserInput {
	return UserInput{
		Name:    strings.TrimSpace(input.Name),
		PIN:     strings.TrimSpace(input.PIN),
		Role:    Role(strings.TrimSpace(string(input.Role))),
		Email:   strings.ToLower(strings.TrimSpace(input.Email)),
		Picture: strings.TrimSpace(input.Picture),
	}
}

func validateUserInput(input UserInput, isNew bool) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}

	if input.Role != RoleAdmin && input.Role != RoleTeacher {
		vErr.add("role", "role is invalid")
	}

	if isNew && input.PIN == "" {
		vErr.add("pin", "pin is required")
	}
	if input.PIN != "" && len(input.PIN) < 4 {
		vErr.add("pin", "pin must be at least 4 digits")
	}

	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			vErr.add("email", "email is invalid")
		}
	}

	return vErr
}
