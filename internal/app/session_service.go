package app

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"untrivially-api/internal/domain"
)

// refreshTokenBytes is the amount of randomness in a raw refresh token.
const refreshTokenBytes = 40

// Tokens is the credential pair handed to a client after login or rotation.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	User         domain.User
}

// SessionService issues, resolves, rotates and revokes refresh tokens.
type SessionService struct {
	sessions SessionRepository
	tokens   AccessTokenIssuer
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewSessionService wires the service. A zero ttl keeps tokens valid until used or revoked.
func NewSessionService(sessions SessionRepository, tokens AccessTokenIssuer, ttl time.Duration, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		sessions: sessions,
		tokens:   tokens,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// NewSessionServiceWithClock is for deterministic expiry in tests.
func NewSessionServiceWithClock(sessions SessionRepository, tokens AccessTokenIssuer, ttl time.Duration, now func() time.Time) *SessionService {
	s := NewSessionService(sessions, tokens, ttl, nil)
	s.now = now
	return s
}

// HashToken returns the hex SHA-256 of a raw refresh token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// CreateRefreshToken stores a new session for the user and returns the raw token.
// Only the hash is persisted.
func (s *SessionService) CreateRefreshToken(ctx context.Context, userID, userAgent, ipAddress string) (string, error) {
	raw, err := randomHex(refreshTokenBytes)
	if err != nil {
		return "", err
	}
	now := s.now()
	record := &domain.RefreshToken{
		UserID:      userID,
		HashedToken: HashToken(raw),
		UserAgent:   userAgent,
		IPAddress:   ipAddress,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.sessions.Create(ctx, record); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return raw, nil
}

// FindRefreshToken resolves a raw token to its session and owning user.
func (s *SessionService) FindRefreshToken(ctx context.Context, raw string) (domain.RefreshToken, error) {
	if raw == "" {
		return domain.RefreshToken{}, domain.ErrRefreshTokenNotFound
	}
	record, err := s.sessions.FindByHash(ctx, HashToken(raw))
	if err != nil {
		return domain.RefreshToken{}, err
	}
	if s.stale(record) {
		if _, err := s.sessions.DeleteByHash(ctx, record.HashedToken); err != nil {
			s.logger.WarnContext(ctx, "failed to drop stale refresh token", "error", err)
		}
		return domain.RefreshToken{}, domain.ErrRefreshTokenNotFound
	}
	return record, nil
}

// DeleteRefreshToken removes the session for a raw token and returns how many were removed.
func (s *SessionService) DeleteRefreshToken(ctx context.Context, raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	return s.sessions.DeleteByHash(ctx, HashToken(raw))
}

// Rotate consumes a refresh token and issues a new access token and refresh token for the
// same user. Unknown, stale and already rotated tokens all fail with
// domain.ErrRefreshTokenNotFound.
func (s *SessionService) Rotate(ctx context.Context, raw, userAgent, ipAddress string) (Tokens, error) {
	if raw == "" {
		return Tokens{}, domain.ErrRefreshTokenNotFound
	}
	record, err := s.sessions.TakeByHash(ctx, HashToken(raw))
	if err != nil {
		if errors.Is(err, domain.ErrRefreshTokenNotFound) {
			s.logger.WarnContext(ctx, "refresh token rejected", "ip", ipAddress)
		}
		return Tokens{}, err
	}
	if s.stale(record) {
		s.logger.InfoContext(ctx, "stale refresh token presented", "userId", record.UserID)
		return Tokens{}, domain.ErrRefreshTokenNotFound
	}
	return s.issue(ctx, record.User, userAgent, ipAddress)
}

// Issue mints a fresh credential pair for a user.
func (s *SessionService) Issue(ctx context.Context, user domain.User, userAgent, ipAddress string) (Tokens, error) {
	return s.issue(ctx, user, userAgent, ipAddress)
}

func (s *SessionService) issue(ctx context.Context, user domain.User, userAgent, ipAddress string) (Tokens, error) {
	access, err := s.tokens.Issue(user)
	if err != nil {
		return Tokens{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.CreateRefreshToken(ctx, user.ID, userAgent, ipAddress)
	if err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// ListSessions returns the user's live sessions, marking the one that currentRaw belongs to.
func (s *SessionService) ListSessions(ctx context.Context, userID, currentRaw string) ([]domain.Session, error) {
	records, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	current := ""
	if currentRaw != "" {
		current = HashToken(currentRaw)
	}
	sessions := make([]domain.Session, 0, len(records))
	for _, r := range records {
		if s.stale(r) {
			continue
		}
		sessions = append(sessions, domain.Session{
			ID:        r.ID,
			UserAgent: r.UserAgent,
			IPAddress: r.IPAddress,
			CreatedAt: r.CreatedAt,
			Current:   r.HashedToken == current,
		})
	}
	return sessions, nil
}

// RevokeAll ends every session of the user.
func (s *SessionService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.sessions.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "sessions revoked", "userId", userID, "count", n)
	return n, nil
}

// PurgeStale deletes sessions older than the configured TTL. It is a no-op without a TTL.
func (s *SessionService) PurgeStale(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	return s.sessions.DeleteCreatedBefore(ctx, s.now().Add(-s.ttl))
}

func (s *SessionService) stale(record domain.RefreshToken) bool {
	return s.ttl > 0 && s.now().Sub(record.CreatedAt) > s.ttl
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
