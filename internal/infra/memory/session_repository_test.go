package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"untrivially-api/internal/domain"
)

func TestSessionRepositoryLifecycle(t *testing.T) {
	users := NewUserRepository()
	repo := NewSessionRepository(users)
	ctx := context.Background()

	user := domain.User{Email: "a@example.com", Name: "A"}
	if err := users.Create(ctx, &user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	token := &domain.RefreshToken{UserID: user.ID, HashedToken: "h1", CreatedAt: time.Now()}
	if err := repo.Create(ctx, token); err != nil {
		t.Fatalf("create: %v", err)
	}
	if token.ID == "" {
		t.Fatalf("expected id assigned")
	}

	found, err := repo.FindByHash(ctx, "h1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.User.Email != "a@example.com" {
		t.Fatalf("expected joined user, got %+v", found.User)
	}

	if n, _ := repo.DeleteByHash(ctx, "h1"); n != 1 {
		t.Fatalf("expected delete")
	}
	if _, err := repo.FindByHash(ctx, "h1"); !errors.Is(err, domain.ErrRefreshTokenNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSessionRepositoryTakeByHashOnce(t *testing.T) {
	users := NewUserRepository()
	repo := NewSessionRepository(users)
	ctx := context.Background()

	user := domain.User{Email: "a@example.com", Name: "A"}
	_ = users.Create(ctx, &user)
	_ = repo.Create(ctx, &domain.RefreshToken{UserID: user.ID, HashedToken: "h1", CreatedAt: time.Now()})

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.TakeByHash(ctx, "h1"); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestSessionRepositoryBulkDeletes(t *testing.T) {
	users := NewUserRepository()
	repo := NewSessionRepository(users)
	ctx := context.Background()
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_ = repo.Create(ctx, &domain.RefreshToken{UserID: "u1", HashedToken: "a", CreatedAt: old})
	_ = repo.Create(ctx, &domain.RefreshToken{UserID: "u1", HashedToken: "b", CreatedAt: old.Add(48 * time.Hour)})
	_ = repo.Create(ctx, &domain.RefreshToken{UserID: "u2", HashedToken: "c", CreatedAt: old.Add(48 * time.Hour)})

	listed, _ := repo.ListByUser(ctx, "u1")
	if len(listed) != 2 || listed[0].HashedToken != "b" {
		t.Fatalf("expected newest first, got %+v", listed)
	}

	if n, _ := repo.DeleteCreatedBefore(ctx, old.Add(time.Hour)); n != 1 {
		t.Fatalf("expected one stale token purged, got %d", n)
	}
	if n, _ := repo.DeleteByUser(ctx, "u1"); n != 1 {
		t.Fatalf("expected one remaining token for u1, got %d", n)
	}
	if listed, _ := repo.ListByUser(ctx, "u2"); len(listed) != 1 {
		t.Fatalf("other user's sessions must survive")
	}
}
