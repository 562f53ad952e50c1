package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"untrivially-api/internal/app"
	"untrivially-api/internal/domain"

	"github.com/google/uuid"
)

// SessionRepository is an in-memory implementation of app.SessionRepository.
// Users are resolved through the given repository to mirror the SQL join.
type SessionRepository struct {
	users app.UserRepository

	mu     sync.Mutex
	byHash map[string]domain.RefreshToken
}

func NewSessionRepository(users app.UserRepository) *SessionRepository {
	return &SessionRepository{
		users:  users,
		byHash: make(map[string]domain.RefreshToken),
	}
}

func (r *SessionRepository) Create(_ context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = uuid.NewString()
	stored := *token
	stored.User = domain.User{}
	r.byHash[token.HashedToken] = stored
	return nil
}

func (r *SessionRepository) FindByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	r.mu.Lock()
	token, ok := r.byHash[hash]
	r.mu.Unlock()
	if !ok {
		return domain.RefreshToken{}, domain.ErrRefreshTokenNotFound
	}
	return r.withUser(ctx, token)
}

func (r *SessionRepository) TakeByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	r.mu.Lock()
	token, ok := r.byHash[hash]
	delete(r.byHash, hash)
	r.mu.Unlock()
	if !ok {
		return domain.RefreshToken{}, domain.ErrRefreshTokenNotFound
	}
	return r.withUser(ctx, token)
}

func (r *SessionRepository) DeleteByHash(_ context.Context, hash string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byHash[hash]; !ok {
		return 0, nil
	}
	delete(r.byHash, hash)
	return 1, nil
}

func (r *SessionRepository) ListByUser(_ context.Context, userID string) ([]domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tokens := make([]domain.RefreshToken, 0)
	for _, t := range r.byHash {
		if t.UserID == userID {
			tokens = append(tokens, t)
		}
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].CreatedAt.After(tokens[j].CreatedAt) })
	return tokens, nil
}

func (r *SessionRepository) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for hash, t := range r.byHash {
		if t.UserID == userID {
			delete(r.byHash, hash)
			n++
		}
	}
	return n, nil
}

func (r *SessionRepository) DeleteCreatedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for hash, t := range r.byHash {
		if t.CreatedAt.Before(cutoff) {
			delete(r.byHash, hash)
			n++
		}
	}
	return n, nil
}

func (r *SessionRepository) withUser(ctx context.Context, token domain.RefreshToken) (domain.RefreshToken, error) {
	user, err := r.users.FindByID(ctx, token.UserID)
	if err != nil {
		// the SQL join yields no row for a missing user
		return domain.RefreshToken{}, domain.ErrRefreshTokenNotFound
	}
	token.User = user
	return token, nil
}
