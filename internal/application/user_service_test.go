package application

import (
	"context"
	"errors"
	"testing"
)

type fakeUserRepo struct {
	users map[string]User
	order []string
}

func newFakeUserRepo(users ...User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]User)}
	for _, user := range users {
		repo.users[user.ID] = user
		repo.order = append(repo.order, user.ID)
	}
	return repo
}

func (r *fakeUserRepo) GetUser(_ context.Context, id string) (User, error) {
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) ListUsers(_ context.Context) ([]User, error) {
	out := make([]User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.users[id])
	}
	return out, nil
}

func (r *fakeUserRepo) UpsertUser(_ context.Context, user User) error {
	if _, exists := r.users[user.ID]; !exists {
		r.order = append(r.order, user.ID)
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) DeleteUser(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func fakeHasher(pin string) (string, error) {
	return "hashed:" + pin, nil
}

func TestSaveUserHashesPIN(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	svc := NewUserService(repo, fakeHasher, sequentialIDs("u"))

	user, err := svc.SaveUser(context.Background(), SaveUserParams{
		Principal: adminPrincipal(),
		Input:     UserInput{Name: "Ada", PIN: "1102", Role: RoleAdmin},
	})
	if err != nil {
		t.Fatalf("save user: %v", err)
	}
	if user.PINHash != "hashed:1102" {
		t.Errorf("expected hashed pin, got %q", user.PINHash)
	}
	if user.ID != "u-1" {
		t.Errorf("expected generated id, got %q", user.ID)
	}
}

func TestSaveUserEmptyPINKeepsHash(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo(User{ID: "u-1", Name: "Ada", PINHash: "hashed:old", Role: RoleAdmin})
	svc := NewUserService(repo, fakeHasher, sequentialIDs("u"))

	user, err := svc.SaveUser(context.Background(), SaveUserParams{
		Principal: adminPrincipal(),
		UserID:    "u-1",
		Input:     UserInput{Name: "Ada Lovelace", Role: RoleAdmin},
	})
	if err != nil {
		t.Fatalf("save user: %v", err)
	}
	if user.PINHash != "hashed:old" {
		t.Errorf("expected existing hash preserved, got %q", user.PINHash)
	}
	if user.Name != "Ada Lovelace" {
		t.Errorf("expected updated name, got %q", user.Name)
	}
}

func TestSaveUserValidation(t *testing.T) {
	t.Parallel()

	svc := NewUserService(newFakeUserRepo(), fakeHasher, sequentialIDs("u"))

	cases := map[string]UserInput{
		"missing name":     {PIN: "1102", Role: RoleAdmin},
		"missing pin":      {Name: "Ada", Role: RoleAdmin},
		"short pin":        {Name: "Ada", PIN: "12", Role: RoleAdmin},
		"bad role":         {Name: "Ada", PIN: "1102", Role: "MANAGER"},
		"malformed email":  {Name: "Ada", PIN: "1102", Role: RoleAdmin, Email: "not-an-address"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SaveUser(context.Background(), SaveUserParams{Principal: adminPrincipal(), Input: input})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSaveUserRequiresAdmin(t *testing.T) {
	t.Parallel()

	svc := NewUserService(newFakeUserRepo(), fakeHasher, sequentialIDs("u"))

	_, err := svc.SaveUser(context.Background(), SaveUserParams{
		Principal: Principal{UserID: "u-teacher"},
		Input:     UserInput{Name: "Ada", PIN: "1102", Role: RoleTeacher},
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDeleteUserLastAdminGuard(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo(
		User{ID: "u-1", Name: "Ada", Role: RoleAdmin},
		User{ID: "u-2", Name: "Grace", Role: RoleTeacher},
	)
	svc := NewUserService(repo, fakeHasher, sequentialIDs("u"))
	ctx := context.Background()

	if err := svc.DeleteUser(ctx, adminPrincipal(), "u-1"); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("expected ErrLastAdmin, got %v", err)
	}

	// Teachers can always be removed.
	if err := svc.DeleteUser(ctx, adminPrincipal(), "u-2"); err != nil {
		t.Fatalf("delete teacher: %v", err)
	}

	// With a second administrator present the guard no longer applies.
	repo.UpsertUser(ctx, User{ID: "u-3", Name: "Edsger", Role: RoleAdmin})
	if err := svc.DeleteUser(ctx, adminPrincipal(), "u-1"); err != nil {
		t.Fatalf("delete admin with another remaining: %v", err)
	}
}

func TestDeleteUserMissing(t *testing.T) {
	t.Parallel()

	svc := NewUserService(newFakeUserRepo(), fakeHasher, sequentialIDs("u"))
	if err := svc.DeleteUser(context.Background(), adminPrincipal(), "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsersSortedByName(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo(
		User{ID: "u-1", Name: "grace", Role: RoleTeacher},
		User{ID: "u-2", Name: "Ada", Role: RoleAdmin},
	)
	svc := NewUserService(repo, fakeHasher, sequentialIDs("u"))

	users, err := svc.ListUsers(context.Background(), adminPrincipal())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 || users[0].Name != "Ada" || users[1].Name != "grace" {
		t.Fatalf("expected case-insensitive name order, got %+v", users)
	}

	if _, err := svc.ListUsers(context.Background(), Principal{UserID: "u-teacher"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin listing, got %v", err)
	}
}
