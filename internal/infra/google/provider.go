// Package google implements the OAuth authorization-code flow against Google.
package google

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"untrivially-api/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

const (
	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	defaultTimeout     = 10 * time.Second
)

var scopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// Config configures the provider. Endpoint and UserInfoURL default to Google's.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
}

// userInfo is the subset of the userinfo payload the service relies on.
type userInfo struct {
	ID      string `json:"id" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name" validate:"required"`
	Picture string `json:"picture" validate:"required,url"`
}

// Provider exchanges authorization codes and fetches the user's profile.
type Provider struct {
	oauth       *oauth2.Config
	client      *http.Client
	userInfoURL string
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewProvider(cfg Config, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = googleoauth.Endpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = defaultUserInfoURL
	}
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		client:      &http.Client{Timeout: timeout},
		userInfoURL: userInfoURL,
		validate:    validator.New(),
		logger:      logger,
	}
}

// AuthCodeURL returns the consent page URL carrying the state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// FetchProfile exchanges the code for a token and loads the user info with it.
func (p *Provider) FetchProfile(ctx context.Context, code string) (domain.OAuthProfile, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		p.logger.WarnContext(ctx, "google code exchange failed", "error", err)
		return domain.OAuthProfile{}, errors.Wrap(domain.ErrOAuthExchange, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return domain.OAuthProfile{}, errors.Wrap(err, "failed to create user info request")
	}
	tok.SetAuthHeader(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.OAuthProfile{}, errors.Wrap(domain.ErrOAuthExchange, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		p.logger.WarnContext(ctx, "google user info rejected", "status", resp.StatusCode, "body", string(body))
		return domain.OAuthProfile{}, errors.Wrapf(domain.ErrOAuthExchange, "user info request failed with status %d", resp.StatusCode)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return domain.OAuthProfile{}, errors.Wrap(domain.ErrInvalidProfile, err.Error())
	}
	if err := p.validate.Struct(info); err != nil {
		return domain.OAuthProfile{}, errors.Wrap(domain.ErrInvalidProfile, err.Error())
	}

	return domain.OAuthProfile{
		ProviderID: info.ID,
		Email:      info.Email,
		Name:       info.Name,
		Picture:    info.Picture,
	}, nil
}
