package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RefreshCookieName carries the raw refresh token.
const RefreshCookieName = "untrivially_refresh_token"

type refreshCookie struct {
	secure bool
	ttl    time.Duration
}

func (rc refreshCookie) set(c echo.Context, raw string) {
	cookie := rc.base()
	cookie.Value = raw
	if rc.ttl > 0 {
		cookie.MaxAge = int(rc.ttl / time.Second)
	}
	c.SetCookie(cookie)
}

func (rc refreshCookie) clear(c echo.Context) {
	cookie := rc.base()
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	c.SetCookie(cookie)
}

func (rc refreshCookie) read(c echo.Context) string {
	cookie, err := c.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (rc refreshCookie) base() *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   rc.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
