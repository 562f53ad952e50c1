package http

import (
	"log/slog"
	"net/http"
	"time"

	"untrivially-api/internal/app"
	"untrivially-api/internal/infra/auth"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// AccessTokenVerifier validates bearer tokens.
type AccessTokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Deps are the collaborators the router needs.
type Deps struct {
	Quizzes  *app.QuizService
	Auth     *app.AuthService
	Sessions *app.SessionService
	Tokens   AccessTokenVerifier
	Logger   *slog.Logger

	// SecureCookies marks the refresh cookie Secure (outside development).
	SecureCookies bool
	// RefreshTTL bounds the cookie lifetime. Zero leaves it a session cookie.
	RefreshTTL time.Duration
}

// NewRouter builds the echo instance with every route registered.
func NewRouter(deps Deps) *echo.Echo {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	validate := newRequestValidator()
	e.Validator = validate
	e.HTTPErrorHandler = newErrorHandler(logger)

	e.Use(echomiddleware.Recover())
	e.Use(requestLogger(logger))
	e.Use(echomiddleware.BodyLimit("1M"))

	cookies := refreshCookie{secure: deps.SecureCookies, ttl: deps.RefreshTTL}
	authn := authenticate(deps.Tokens)
	authHandler := newAuthHandler(deps.Auth, deps.Sessions, cookies)
	quizHandler := newQuizHandler(deps.Quizzes, validate)

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, messageResponse{Message: "Welcome to the Untrivially API"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/login/google", authHandler.BeginGoogleLogin)
	e.GET("/auth/google/callback", authHandler.GoogleCallback)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.POST("/auth/logout", authHandler.Logout, authn)
	e.GET("/auth/sessions", authHandler.ListSessions, authn)
	e.DELETE("/auth/sessions", authHandler.RevokeSessions, authn)
	e.GET("/me", authHandler.Me, authn)

	quizzes := e.Group("/quizzes", authn)
	quizzes.GET("", quizHandler.List)
	quizzes.POST("", quizHandler.Create)
	quizzes.GET("/:id", quizHandler.Get)
	quizzes.PUT("/:id", quizHandler.Update)
	quizzes.DELETE("/:id", quizHandler.Delete)

	quizzes.POST("/:quizId/questions", quizHandler.CreateQuestion)
	quizzes.PATCH("/:quizId/questions/:questionId", quizHandler.UpdateQuestion)
	quizzes.DELETE("/:quizId/questions/:questionId", quizHandler.DeleteQuestion)

	quizzes.POST("/:quizId/questions/:questionId/answers", quizHandler.CreateAnswer)
	quizzes.PATCH("/:quizId/questions/:questionId/answers/:answerId", quizHandler.UpdateAnswer)
	quizzes.DELETE("/:quizId/questions/:questionId/answers/:answerId", quizHandler.DeleteAnswer)

	return e
}
