package app

import (
	"context"
	"errors"

	"untrivially-api/internal/domain"

	"github.com/google/uuid"
)

// Scope is a quiz whose ownership has been verified, together with its loaded children.
// Mutations receive a Scope instead of re-querying the quiz.
type Scope struct {
	Quiz domain.Quiz
}

// Question returns the question with the given id if it belongs to the scoped quiz.
func (s Scope) Question(questionID string) (domain.Question, bool) {
	for _, q := range s.Quiz.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return domain.Question{}, false
}

// Answer returns the answer if it belongs to the given question of the scoped quiz.
func (s Scope) Answer(questionID, answerID string) (domain.Answer, bool) {
	q, ok := s.Question(questionID)
	if !ok {
		return domain.Answer{}, false
	}
	for _, a := range q.Answers {
		if a.ID == answerID {
			return a, true
		}
	}
	return domain.Answer{}, false
}

// verifyOwnership loads the quiz tree and checks the owner. Absent, foreign and
// malformed quizzes all yield domain.ErrQuizNotFound.
func verifyOwnership(ctx context.Context, store QuizStore, userID, quizID string) (Scope, error) {
	if _, err := uuid.Parse(quizID); err != nil {
		return Scope{}, domain.ErrQuizNotFound
	}
	quiz, err := store.FindQuiz(ctx, quizID, true)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			return Scope{}, domain.ErrQuizNotFound
		}
		return Scope{}, err
	}
	if quiz.UserID != userID {
		return Scope{}, domain.ErrQuizNotFound
	}
	return Scope{Quiz: quiz}, nil
}
