package app

import (
	"context"
	"time"

	"untrivially-api/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	// Create assigns ID and CreatedAt. It returns domain.ErrUserExists on a duplicate email.
	Create(ctx context.Context, user *domain.User) error
}

// QuizStore is the set of quiz operations available inside and outside a transaction.
type QuizStore interface {
	// FindQuiz returns domain.ErrQuizNotFound when no quiz has the id.
	FindQuiz(ctx context.Context, quizID string, withTree bool) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, userID string) ([]domain.Quiz, error)
	// InsertQuizTree stores the quiz with all questions and answers and assigns quiz.ID.
	InsertQuizTree(ctx context.Context, quiz *domain.Quiz) error
	UpdateQuizWhereOwner(ctx context.Context, quizID, userID string, patch domain.QuizPatch, at time.Time) (int64, error)
	DeleteQuizWhereOwner(ctx context.Context, quizID, userID string) (int64, error)

	InsertQuestion(ctx context.Context, question *domain.Question) error
	UpdateQuestion(ctx context.Context, question *domain.Question) error
	DeleteQuestion(ctx context.Context, quizID, questionID string) (int64, error)

	InsertAnswer(ctx context.Context, answer *domain.Answer) error
	UpdateAnswer(ctx context.Context, answer *domain.Answer) error
	// ClearCorrect sets is_correct=false on every answer of the question except exceptID.
	ClearCorrect(ctx context.Context, questionID, exceptID string, at time.Time) error
	DeleteAnswer(ctx context.Context, questionID, answerID string) (int64, error)
}

// QuizRepository is a QuizStore that can run a function inside one transaction.
// Everything fn does through the passed store commits or rolls back together.
type QuizRepository interface {
	QuizStore
	RunInTx(ctx context.Context, fn func(ctx context.Context, store QuizStore) error) error
}

// QuizCache serves quiz reads and drops entries after mutations.
type QuizCache interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string) error
}

// SessionRepository persists refresh tokens by hash.
type SessionRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	// FindByHash joins the owning user. It returns domain.ErrRefreshTokenNotFound on a miss.
	FindByHash(ctx context.Context, hash string) (domain.RefreshToken, error)
	// TakeByHash deletes the matching record and returns it with its user in one atomic step,
	// so only one of several concurrent callers can obtain a given token.
	TakeByHash(ctx context.Context, hash string) (domain.RefreshToken, error)
	DeleteByHash(ctx context.Context, hash string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]domain.RefreshToken, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// StateStore keeps single-use OAuth state values.
type StateStore interface {
	Save(ctx context.Context, state string, ttl time.Duration) error
	// Consume reports whether the state existed and removes it.
	Consume(ctx context.Context, state string) (bool, error)
}

// OAuthProvider performs the authorization-code flow against an identity provider.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	// FetchProfile exchanges the code and returns the validated user info.
	FetchProfile(ctx context.Context, code string) (domain.OAuthProfile, error)
}

// AccessTokenIssuer mints short-lived access credentials.
type AccessTokenIssuer interface {
	Issue(user domain.User) (string, error)
}
