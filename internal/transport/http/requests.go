package http

import (
	"time"

	"untrivially-api/internal/domain"
)

type optionRequest struct {
	Text     *string `json:"text" validate:"required"`
	ImageURL *string `json:"imageUrl" validate:"omitempty,url"`
}

type quizQuestionRequest struct {
	Title              *string         `json:"title" validate:"required"`
	ImageURL           *string         `json:"imageUrl" validate:"omitempty,url"`
	Options            []optionRequest `json:"options" validate:"min=2,dive"`
	CorrectOptionIndex *int            `json:"correctOptionIndex" validate:"required,min=0"`
}

type createQuizRequest struct {
	Title     *string               `json:"title" validate:"required"`
	Questions []quizQuestionRequest `json:"questions" validate:"required,dive"`
}

func (r createQuizRequest) toDraft() domain.QuizDraft {
	draft := domain.QuizDraft{Title: *r.Title, Questions: make([]domain.QuestionDraft, len(r.Questions))}
	for i, q := range r.Questions {
		options := make([]domain.OptionDraft, len(q.Options))
		for j, o := range q.Options {
			options[j] = domain.OptionDraft{Text: *o.Text, ImageURL: o.ImageURL}
		}
		draft.Questions[i] = domain.QuestionDraft{
			Title:              *q.Title,
			ImageURL:           q.ImageURL,
			Options:            options,
			CorrectOptionIndex: *q.CorrectOptionIndex,
		}
	}
	return draft
}

type updateQuizRequest struct {
	Title *string `json:"title"`
}

// answerRequest fields are pointers so that a missing key fails validation
// instead of decoding to its zero value.
type answerRequest struct {
	Text      *string `json:"text" validate:"required"`
	ImageURL  *string `json:"imageUrl" validate:"omitempty,url"`
	IsCorrect *bool   `json:"isCorrect" validate:"required"`
}

func (r answerRequest) toNewAnswer() domain.NewAnswer {
	return domain.NewAnswer{Text: *r.Text, ImageURL: r.ImageURL, IsCorrect: *r.IsCorrect}
}

type createQuestionRequest struct {
	Title    *string         `json:"title" validate:"required"`
	ImageURL *string         `json:"imageUrl" validate:"omitempty,url"`
	Answers  []answerRequest `json:"answers" validate:"min=2,dive"`
}

func (r createQuestionRequest) toNewQuestion() domain.NewQuestion {
	answers := make([]domain.NewAnswer, len(r.Answers))
	for i, a := range r.Answers {
		answers[i] = a.toNewAnswer()
	}
	return domain.NewQuestion{Title: *r.Title, ImageURL: r.ImageURL, Answers: answers}
}

type updateQuestionRequest struct {
	Title    *string              `json:"title"`
	ImageURL domain.Field[string] `json:"imageUrl"`
}

type updateAnswerRequest struct {
	Text      *string              `json:"text"`
	ImageURL  domain.Field[string] `json:"imageUrl"`
	IsCorrect *bool                `json:"isCorrect"`
}

// userResponse leaves out everything but the public profile.
type userResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatarUrl"`
}

func newUserResponse(u domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email, AvatarURL: u.AvatarURL}
}

type loginResponse struct {
	AccessToken string       `json:"accessToken"`
	User        userResponse `json:"user"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"userAgent"`
	IPAddress string    `json:"ipAddress"`
	CreatedAt time.Time `json:"createdAt"`
	Current   bool      `json:"current"`
}
