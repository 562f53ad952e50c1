package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// User is an account created on first OAuth login.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL *string   `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// RefreshToken is one active session. Only the SHA-256 of the raw token is kept.
type RefreshToken struct {
	ID          string
	UserID      string
	HashedToken string
	UserAgent   string
	IPAddress   string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// User is populated by lookups that join the owning user.
	User User
}

// Session is the client-facing view of a refresh token.
type Session struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"userAgent"`
	IPAddress string    `json:"ipAddress"`
	CreatedAt time.Time `json:"createdAt"`
	Current   bool      `json:"current"`
}

// OAuthProfile is the validated identity returned by the OAuth provider.
type OAuthProfile struct {
	ProviderID string
	Email      string
	Name       string
	Picture    string
}

// Answer is one option of a question. At most one answer per question is correct.
type Answer struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"questionId"`
	Text       string    `json:"text"`
	ImageURL   *string   `json:"imageUrl"`
	IsCorrect  bool      `json:"isCorrect"`
	Position   int       `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Question belongs to exactly one quiz and keeps at least two answers.
type Question struct {
	ID        string    `json:"id"`
	QuizID    string    `json:"quizId"`
	Title     string    `json:"title"`
	ImageURL  *string   `json:"imageUrl"`
	Position  int       `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Answers   []Answer  `json:"answers"`
}

// Quiz is owned by one user. SubID prefixes every descendant id.
type Quiz struct {
	ID        string     `json:"id"`
	SubID     string     `json:"subId"`
	Title     string     `json:"title"`
	UserID    string     `json:"userId"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Questions []Question `json:"questions"`
}

// OptionDraft is one option of a question in a quiz authoring request.
type OptionDraft struct {
	Text     string
	ImageURL *string
}

// QuestionDraft names its correct option by index into Options.
type QuestionDraft struct {
	Title              string
	ImageURL           *string
	Options            []OptionDraft
	CorrectOptionIndex int
}

// QuizDraft is the raw authoring input for a whole quiz.
type QuizDraft struct {
	Title     string
	Questions []QuestionDraft
}

// QuizPatch updates title-level quiz fields.
type QuizPatch struct {
	Title *string
}

// NewAnswer is the input for adding an answer.
type NewAnswer struct {
	Text      string
	ImageURL  *string
	IsCorrect bool
}

// NewQuestion is the input for adding a question with its answers.
type NewQuestion struct {
	Title    string
	ImageURL *string
	Answers  []NewAnswer
}

// QuestionPatch updates only the supplied question fields.
type QuestionPatch struct {
	Title    *string
	ImageURL Field[string]
}

// AnswerPatch updates only the supplied answer fields.
type AnswerPatch struct {
	Text      *string
	ImageURL  Field[string]
	IsCorrect *bool
}

// Field distinguishes an absent value from an explicit null in partial updates.
// Set reports whether the field was supplied; a nil Value clears it.
type Field[T any] struct {
	Set   bool
	Value *T
}

// Some returns a supplied, non-null field.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

// Null returns a supplied field that clears the value.
func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// UnmarshalJSON is only invoked for keys present in the payload.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}
