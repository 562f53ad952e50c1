package http

import (
	"log/slog"
	"net/http"

	"untrivially-api/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorMapping struct {
	target  error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{domain.ErrQuizNotFound, http.StatusNotFound, "Quiz not found or not owned by user"},
	{domain.ErrQuestionNotFound, http.StatusNotFound, "Quiz or Question not found or not owned by user"},
	{domain.ErrAnswerNotFound, http.StatusNotFound, "Quiz, Question or Answer not found or not owned by user"},
	{domain.ErrUserNotFound, http.StatusNotFound, "User not found."},
	{domain.ErrTooFewAnswers, http.StatusBadRequest, domain.MinAnswersMessage},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "Invalid or expired token"},
	{domain.ErrRefreshTokenNotFound, http.StatusUnauthorized, "Invalid refresh token."},
	{domain.ErrInvalidOAuthState, http.StatusUnauthorized, "Invalid or expired login state."},
	{domain.ErrInvalidProfile, http.StatusBadGateway, "Identity provider returned an invalid profile."},
	{domain.ErrOAuthExchange, http.StatusBadGateway, "Identity provider request failed."},
}

// newErrorHandler maps domain errors to statuses and {"message"} bodies.
// Unknown errors are logged and answered with a generic 500.
func newErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := http.StatusInternalServerError, "Internal server error, please try again later"
		var httpErr *echo.HTTPError
		var validationErrs validator.ValidationErrors
		mapped := false
		for _, m := range errorMappings {
			if errors.Is(err, m.target) {
				status, message, mapped = m.status, m.message, true
				break
			}
		}

		switch {
		case mapped:
		case errors.As(err, &validationErrs):
			status, message = http.StatusBadRequest, describeValidation(validationErrs)
		case errors.As(err, &httpErr):
			status = httpErr.Code
			message = http.StatusText(httpErr.Code)
			if msg, ok := httpErr.Message.(string); ok {
				message = msg
			}
		default:
			logger.ErrorContext(c.Request().Context(), "unhandled error",
				slog.Any("error", err),
				slog.String("path", c.Request().URL.Path),
				slog.String("method", c.Request().Method),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, messageResponse{Message: message})
	}
}

func describeValidation(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Invalid request"
	}
	fe := errs[0]
	switch fe.Tag() {
	case "min":
		if fe.Field() == "Options" {
			return "Must have at least two options"
		}
		if fe.Field() == "Answers" {
			return "Must have at least two answers"
		}
	case "required":
		return "Invalid request: " + fe.Field() + " is required"
	case "url":
		return "Invalid request: " + fe.Field() + " must be a URL"
	case "uuid":
		return "Invalid request: " + fe.Field() + " must be a UUID"
	}
	return "Invalid request: " + fe.Field() + " failed " + fe.Tag() + " validation"
}
