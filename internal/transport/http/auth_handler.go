package http

import (
	"net/http"

	"untrivially-api/internal/app"
	"untrivially-api/internal/domain"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type authHandler struct {
	auth     *app.AuthService
	sessions *app.SessionService
	cookies  refreshCookie
}

func newAuthHandler(auth *app.AuthService, sessions *app.SessionService, cookies refreshCookie) *authHandler {
	return &authHandler{auth: auth, sessions: sessions, cookies: cookies}
}

// BeginGoogleLogin redirects to the consent page.
func (h *authHandler) BeginGoogleLogin(c echo.Context) error {
	url, err := h.auth.BeginLogin(c.Request().Context())
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, url)
}

// GoogleCallback completes the login, sets the refresh cookie and returns the access token.
func (h *authHandler) GoogleCallback(c echo.Context) error {
	if c.QueryParam("error") != "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Login was cancelled or denied.")
	}
	tokens, err := h.auth.CompleteLogin(c.Request().Context(), app.LoginRequest{
		State:     c.QueryParam("state"),
		Code:      c.QueryParam("code"),
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	})
	if err != nil {
		return err
	}
	h.cookies.set(c, tokens.RefreshToken)
	return c.JSON(http.StatusOK, loginResponse{
		AccessToken: tokens.AccessToken,
		User:        newUserResponse(tokens.User),
	})
}

// Refresh rotates the refresh cookie. Any failure clears it.
func (h *authHandler) Refresh(c echo.Context) error {
	raw := h.cookies.read(c)
	if raw == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Refresh token not found.")
	}
	tokens, err := h.sessions.Rotate(c.Request().Context(), raw, c.Request().UserAgent(), c.RealIP())
	if err != nil {
		if errors.Is(err, domain.ErrRefreshTokenNotFound) {
			h.cookies.clear(c)
		}
		return err
	}
	h.cookies.set(c, tokens.RefreshToken)
	return c.JSON(http.StatusOK, accessTokenResponse{AccessToken: tokens.AccessToken})
}

// Logout ends the session carried by the cookie.
func (h *authHandler) Logout(c echo.Context) error {
	if _, err := h.auth.Logout(c.Request().Context(), h.cookies.read(c)); err != nil {
		return err
	}
	h.cookies.clear(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *authHandler) Me(c echo.Context) error {
	user, err := h.auth.Me(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]userResponse{"user": newUserResponse(user)})
}

func (h *authHandler) ListSessions(c echo.Context) error {
	sessions, err := h.sessions.ListSessions(c.Request().Context(), currentUserID(c), h.cookies.read(c))
	if err != nil {
		return err
	}
	out := make([]sessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = sessionResponse(s)
	}
	return c.JSON(http.StatusOK, map[string][]sessionResponse{"sessions": out})
}

// RevokeSessions logs the user out everywhere.
func (h *authHandler) RevokeSessions(c echo.Context) error {
	if _, err := h.sessions.RevokeAll(c.Request().Context(), currentUserID(c)); err != nil {
		return err
	}
	h.cookies.clear(c)
	return c.NoContent(http.StatusNoContent)
}
