package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"untrivially-api/internal/domain"
)

// stateTTL bounds how long a login may take between redirect and callback.
const stateTTL = 10 * time.Minute

// LoginRequest carries the OAuth callback parameters and the client's fingerprint.
type LoginRequest struct {
	State     string
	Code      string
	UserAgent string
	IPAddress string
}

// AuthService drives OAuth login, user lookup and logout.
type AuthService struct {
	users    UserRepository
	sessions *SessionService
	provider OAuthProvider
	states   StateStore
	logger   *slog.Logger
}

func NewAuthService(users UserRepository, sessions *SessionService, provider OAuthProvider, states StateStore, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		provider: provider,
		states:   states,
		logger:   logger,
	}
}

// BeginLogin stores a fresh state value and returns the provider's consent URL.
func (s *AuthService) BeginLogin(ctx context.Context) (string, error) {
	state, err := randomHex(32)
	if err != nil {
		return "", err
	}
	if err := s.states.Save(ctx, state, stateTTL); err != nil {
		return "", fmt.Errorf("save oauth state: %w", err)
	}
	return s.provider.AuthCodeURL(state), nil
}

// CompleteLogin validates the state, fetches the profile, finds or creates the user by
// email and issues a credential pair.
func (s *AuthService) CompleteLogin(ctx context.Context, req LoginRequest) (Tokens, error) {
	if req.State == "" || req.Code == "" {
		return Tokens{}, domain.ErrInvalidOAuthState
	}
	ok, err := s.states.Consume(ctx, req.State)
	if err != nil {
		return Tokens{}, fmt.Errorf("consume oauth state: %w", err)
	}
	if !ok {
		return Tokens{}, domain.ErrInvalidOAuthState
	}

	profile, err := s.provider.FetchProfile(ctx, req.Code)
	if err != nil {
		return Tokens{}, err
	}

	user, err := s.findOrCreateUser(ctx, profile)
	if err != nil {
		return Tokens{}, err
	}
	s.logger.InfoContext(ctx, "user logged in", "userId", user.ID)
	return s.sessions.Issue(ctx, user, req.UserAgent, req.IPAddress)
}

func (s *AuthService) findOrCreateUser(ctx context.Context, profile domain.OAuthProfile) (domain.User, error) {
	user, err := s.users.FindByEmail(ctx, profile.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, err
	}

	user = domain.User{Email: profile.Email, Name: profile.Name}
	if profile.Picture != "" {
		picture := profile.Picture
		user.AvatarURL = &picture
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			// Lost a race with a concurrent first login.
			return s.users.FindByEmail(ctx, profile.Email)
		}
		return domain.User{}, err
	}
	s.logger.InfoContext(ctx, "user created", "userId", user.ID)
	return user, nil
}

// Me returns the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

// Logout ends the session that the raw refresh token belongs to.
func (s *AuthService) Logout(ctx context.Context, rawRefreshToken string) (int64, error) {
	return s.sessions.DeleteRefreshToken(ctx, rawRefreshToken)
}
