package postgres

import (
	"time"

	"untrivially-api/internal/domain"

	"github.com/uptrace/bun"
)

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email     string    `bun:"email,notnull"`
	Name      string    `bun:"name,notnull"`
	AvatarURL *string   `bun:"avatar_url"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type quizModel struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID        string    `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	SubID     string    `bun:"sub_id,notnull"`
	Title     string    `bun:"title,notnull"`
	UserID    string    `bun:"user_id,type:uuid,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type questionModel struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID        string    `bun:"id,pk"`
	QuizID    string    `bun:"quiz_id,type:uuid,notnull"`
	Title     string    `bun:"title,notnull"`
	ImageURL  *string   `bun:"image_url"`
	Position  int       `bun:"position,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type answerModel struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID         string    `bun:"id,pk"`
	QuestionID string    `bun:"question_id,notnull"`
	Text       string    `bun:"text,notnull"`
	ImageURL   *string   `bun:"image_url"`
	IsCorrect  bool      `bun:"is_correct,notnull"`
	Position   int       `bun:"position,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

func (m userModel) toDomain() domain.User {
	return domain.User{
		ID:        m.ID,
		Email:     m.Email,
		Name:      m.Name,
		AvatarURL: m.AvatarURL,
		CreatedAt: m.CreatedAt,
	}
}

func (m quizModel) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:        m.ID,
		SubID:     m.SubID,
		Title:     m.Title,
		UserID:    m.UserID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Questions: []domain.Question{},
	}
}

func (m questionModel) toDomain() domain.Question {
	return domain.Question{
		ID:        m.ID,
		QuizID:    m.QuizID,
		Title:     m.Title,
		ImageURL:  m.ImageURL,
		Position:  m.Position,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Answers:   []domain.Answer{},
	}
}

func (m answerModel) toDomain() domain.Answer {
	return domain.Answer{
		ID:         m.ID,
		QuestionID: m.QuestionID,
		Text:       m.Text,
		ImageURL:   m.ImageURL,
		IsCorrect:  m.IsCorrect,
		Position:   m.Position,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func newQuestionModel(q domain.Question) questionModel {
	return questionModel{
		ID:        q.ID,
		QuizID:    q.QuizID,
		Title:     q.Title,
		ImageURL:  q.ImageURL,
		Position:  q.Position,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}

func newAnswerModel(a domain.Answer) answerModel {
	return answerModel{
		ID:         a.ID,
		QuestionID: a.QuestionID,
		Text:       a.Text,
		ImageURL:   a.ImageURL,
		IsCorrect:  a.IsCorrect,
		Position:   a.Position,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}
