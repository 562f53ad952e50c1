package memory

import (
	"context"
	"errors"
	"testing"

	"untrivially-api/internal/domain"
)

func TestUserRepositoryUniqueEmail(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	user := domain.User{Email: "a@example.com", Name: "A"}
	if err := repo.Create(ctx, &user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.ID == "" || user.CreatedAt.IsZero() {
		t.Fatalf("expected id and created at assigned")
	}

	dup := domain.User{Email: "a@example.com", Name: "Other"}
	if err := repo.Create(ctx, &dup); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	got, err := repo.FindByEmail(ctx, "a@example.com")
	if err != nil || got.ID != user.ID {
		t.Fatalf("find by email: %+v, %v", got, err)
	}
	if _, err := repo.FindByID(ctx, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
