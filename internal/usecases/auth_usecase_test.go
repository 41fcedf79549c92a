package usecases_test

import (
	"context"
	"testing"

	"warelay/internal/entities"
	"warelay/internal/usecases"
)

type fakeUserStore struct {
	users map[string]*entities.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*entities.User{}}
}

func (f *fakeUserStore) Create(_ context.Context, user *entities.User) error {
	user.ID = len(f.users) + 1
	f.users[user.Username] = user
	return nil
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*entities.User, error) {
	return f.users[username], nil
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	auth := usecases.NewAuthUsecase(store, "test-secret")
	ctx := context.Background()

	if err := auth.Register(ctx, "operator", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if store.users["operator"].PasswordHash == "hunter22" {
		t.Fatal("password must be hashed")
	}

	token, err := auth.Login(ctx, "operator", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}
}

func TestAuth_RejectsWrongPassword(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	auth := usecases.NewAuthUsecase(store, "test-secret")
	ctx := context.Background()

	if err := auth.Register(ctx, "operator", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := auth.Login(ctx, "operator", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}
	if _, err := auth.Login(ctx, "nobody", "hunter22"); err == nil {
		t.Fatal("expected login failure for unknown user")
	}
}

func TestAuth_RejectsDuplicateUsername(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	auth := usecases.NewAuthUsecase(store, "test-secret")
	ctx := context.Background()

	if err := auth.Register(ctx, "operator", "hunter22"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := auth.Register(ctx, "operator", "other"); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestAuth_EnsureAdminIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newFakeUserStore()
	auth := usecases.NewAuthUsecase(store, "test-secret")
	ctx := context.Background()

	if err := auth.EnsureAdmin(ctx, "root", "root"); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if err := auth.EnsureAdmin(ctx, "root", "root"); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if len(store.users) != 1 {
		t.Fatalf("expected a single admin, got %d users", len(store.users))
	}
	if store.users["root"].Role != "admin" {
		t.Fatalf("expected admin role, got %s", store.users["root"].Role)
	}
}
