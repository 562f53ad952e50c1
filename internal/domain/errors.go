package domain

import "errors"

// MinAnswersMessage is the user-facing text for ErrTooFewAnswers.
const MinAnswersMessage = "A question must have at least two answers."

var (
	// ErrQuizNotFound covers absent quizzes, quizzes owned by someone else and malformed ids alike.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates the question is not part of the verified quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAnswerNotFound indicates the answer is not part of the verified question.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrTooFewAnswers is returned when a question would end up with fewer than two answers.
	ErrTooFewAnswers = errors.New("a question must have at least two answers")
	// ErrUserNotFound indicates no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when creating a user whose email is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrRefreshTokenNotFound covers forged, stale and already-rotated refresh tokens.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	// ErrInvalidToken indicates a malformed, expired or badly signed access token.
	ErrInvalidToken = errors.New("invalid access token")
	// ErrInvalidOAuthState indicates an unknown, expired or reused OAuth state parameter.
	ErrInvalidOAuthState = errors.New("invalid oauth state")
	// ErrInvalidProfile indicates the OAuth provider returned an unusable user-info payload.
	ErrInvalidProfile = errors.New("invalid oauth profile")
	// ErrOAuthExchange indicates the provider rejected the code or could not be reached.
	ErrOAuthExchange = errors.New("oauth exchange failed")
)
