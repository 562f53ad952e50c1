package app_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"untrivially-api/internal/app"
	"untrivially-api/internal/domain"
	"untrivially-api/internal/infra/memory"
)

const (
	ownerID    = "owner-1"
	intruderID = "intruder-1"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("ID%03d", n)
	}
}

func newTestService() (*app.QuizService, *memory.QuizRepository) {
	repo := memory.NewQuizRepository()
	cache := memory.NewQuizCache(repo, 0)
	return app.NewQuizService(repo, cache, nil, app.WithIDGenerator(sequentialIDs())), repo
}

func twoOptionDraft(correct int) domain.QuizDraft {
	return domain.QuizDraft{
		Title: "Capitals",
		Questions: []domain.QuestionDraft{
			{
				Title:              "Capital of France?",
				Options:            []domain.OptionDraft{{Text: "Paris"}, {Text: "Lyon"}},
				CorrectOptionIndex: correct,
			},
		},
	}
}

func mustCreateQuiz(t *testing.T, service *app.QuizService) domain.Quiz {
	t.Helper()
	quiz, err := service.CreateQuiz(context.Background(), ownerID, twoOptionDraft(0))
	if err != nil {
		t.Fatalf("create quiz failed: %v", err)
	}
	return quiz
}

func TestCreateQuizAssignsHierarchicalIDs(t *testing.T) {
	service, _ := newTestService()
	quiz := mustCreateQuiz(t, service)

	if quiz.ID == "" || quiz.SubID != "ID001" {
		t.Fatalf("unexpected quiz ids: id=%q subId=%q", quiz.ID, quiz.SubID)
	}
	q := quiz.Questions[0]
	if q.ID != "ID001-ID002" {
		t.Fatalf("expected question id ID001-ID002, got %q", q.ID)
	}
	for _, a := range q.Answers {
		if !strings.HasPrefix(a.ID, q.ID+"-") {
			t.Fatalf("answer id %q is not prefixed by its question id", a.ID)
		}
		if a.QuestionID != q.ID {
			t.Fatalf("answer %q points at question %q", a.ID, a.QuestionID)
		}
	}
	if !q.Answers[0].IsCorrect || q.Answers[1].IsCorrect {
		t.Fatalf("expected only the first option to be correct, got %+v", q.Answers)
	}

	stored, err := service.GetQuiz(context.Background(), quiz.ID)
	if err != nil {
		t.Fatalf("get quiz failed: %v", err)
	}
	if len(stored.Questions) != 1 || len(stored.Questions[0].Answers) != 2 {
		t.Fatalf("stored tree mismatch: %+v", stored)
	}
}

func TestCreateQuizOutOfRangeIndexLeavesNoCorrectAnswer(t *testing.T) {
	service, _ := newTestService()
	quiz, err := service.CreateQuiz(context.Background(), ownerID, twoOptionDraft(5))
	if err != nil {
		t.Fatalf("create quiz failed: %v", err)
	}
	if n := app.CountCorrect(quiz.Questions[0].Answers); n != 0 {
		t.Fatalf("expected no correct answers, got %d", n)
	}
}

func TestCreateQuizRejectsSingleOption(t *testing.T) {
	service, repo := newTestService()
	draft := twoOptionDraft(0)
	draft.Questions[0].Options = draft.Questions[0].Options[:1]

	if _, err := service.CreateQuiz(context.Background(), ownerID, draft); !errors.Is(err, domain.ErrTooFewAnswers) {
		t.Fatalf("expected ErrTooFewAnswers, got %v", err)
	}
	quizzes, _ := repo.ListQuizzes(context.Background(), ownerID)
	if len(quizzes) != 0 {
		t.Fatalf("expected nothing stored, got %d quizzes", len(quizzes))
	}
}

func TestListQuizzesOnlyReturnsOwn(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()
	mustCreateQuiz(t, service)
	if _, err := service.CreateQuiz(ctx, intruderID, twoOptionDraft(1)); err != nil {
		t.Fatalf("create quiz failed: %v", err)
	}

	quizzes, err := service.ListQuizzes(ctx, ownerID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0].UserID != ownerID {
		t.Fatalf("expected one quiz of the owner, got %+v", quizzes)
	}
}

func TestUpdateAndDeleteQuizAreOwnerScoped(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()
	quiz := mustCreateQuiz(t, service)
	title := "Hijacked"

	n, err := service.UpdateQuiz(ctx, intruderID, quiz.ID, domain.QuizPatch{Title: &title})
	if err != nil || n != 0 {
		t.Fatalf("expected 0 rows for foreign update, got %d (%v)", n, err)
	}
	n, err = service.DeleteQuiz(ctx, intruderID, quiz.ID)
	if err != nil || n != 0 {
		t.Fatalf("expected 0 rows for foreign delete, got %d (%v)", n, err)
	}
	n, err = service.UpdateQuiz(ctx, ownerID, "not-a-uuid", domain.QuizPatch{Title: &title})
	if err != nil || n != 0 {
		t.Fatalf("expected 0 rows for malformed id, got %d (%v)", n, err)
	}

	title = "Renamed"
	if n, err = service.UpdateQuiz(ctx, ownerID, quiz.ID, domain.QuizPatch{Title: &title}); err != nil || n != 1 {
		t.Fatalf("expected owner update to match 1, got %d (%v)", n, err)
	}
	got, err := service.GetQuiz(ctx, quiz.ID)
	if err != nil || got.Title != "Renamed" {
		t.Fatalf("expected renamed quiz, got %q (%v)", got.Title, err)
	}

	if n, err = service.DeleteQuiz(ctx, ownerID, quiz.ID); err != nil || n != 1 {
		t.Fatalf("expected owner delete to match 1, got %d (%v)", n, err)
	}
	if _, err := service.GetQuiz(ctx, quiz.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound after delete, got %v", err)
	}
}

func TestGetQuizServesFreshDataAfterMutation(t *testing.T) {
	repo := memory.NewQuizRepository()
	cache := memory.NewQuizCache(repo, time.Hour)
	service := app.NewQuizService(repo, cache, nil)
	ctx := context.Background()
	quiz := mustCreateQuiz(t, service)

	if _, err := service.GetQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("warm cache failed: %v", err)
	}
	title := "New question"
	q, err := service.UpdateQuestion(ctx, ownerID, quiz.ID, quiz.Questions[0].ID, domain.QuestionPatch{Title: &title})
	if err != nil {
		t.Fatalf("update question failed: %v", err)
	}
	if q.Title != title {
		t.Fatalf("expected updated title, got %q", q.Title)
	}

	got, err := service.GetQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get quiz failed: %v", err)
	}
	if got.Questions[0].Title != title {
		t.Fatalf("expected cache to be invalidated, got %q", got.Questions[0].Title)
	}
}

func TestForeignQuizIsIndistinguishableFromMissing(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()
	quiz := mustCreateQuiz(t, service)
	answers := []domain.NewAnswer{{Text: "a", IsCorrect: true}, {Text: "b"}}

	_, err := service.CreateQuestion(ctx, intruderID, quiz.ID, domain.NewQuestion{Title: "x", Answers: answers})
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	_, err = service.CreateQuestion(ctx, ownerID, "00000000-0000-0000-0000-000000000000", domain.NewQuestion{Title: "x", Answers: answers})
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound for a missing quiz, got %v", err)
	}
	title := "Capital of Spain?"
	_, err = service.UpdateQuestion(ctx, intruderID, quiz.ID, quiz.Questions[0].ID, domain.QuestionPatch{Title: &title})
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound for a foreign question, got %v", err)
	}
	if _, err := service.VerifyOwnership(ctx, ownerID, "garbage"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound for a malformed id, got %v", err)
	}

	q := quiz.Questions[0]
	if _, err := service.CreateAnswer(ctx, intruderID, quiz.ID, q.ID, domain.NewAnswer{Text: "Nice", IsCorrect: true}); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound for a foreign answer insert, got %v", err)
	}
	if n, err := service.DeleteAnswer(ctx, intruderID, quiz.ID, q.ID, q.Answers[0].ID); n != 0 || !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound for a foreign answer delete, got %d (%v)", n, err)
	}
	if n, err := service.DeleteQuestion(ctx, intruderID, quiz.ID, q.ID); n != 0 || !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound for a foreign question delete, got %d (%v)", n, err)
	}

	got, _ := service.GetQuiz(ctx, quiz.ID)
	if len(got.Questions) != 1 || got.Questions[0].Title != "Capital of France?" {
		t.Fatalf("foreign write leaked into quiz: %+v", got.Questions)
	}
	gotAnswers := got.Questions[0].Answers
	if len(gotAnswers) != 2 || !gotAnswers[0].IsCorrect || gotAnswers[1].IsCorrect {
		t.Fatalf("foreign write changed the answers: %+v", gotAnswers)
	}
}

func TestCreateQuestionKeepsFirstCorrect(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()
	quiz := mustCreateQuiz(t, service)

	q, err := service.CreateQuestion(ctx, ownerID, quiz.ID, domain.NewQuestion{
		Title:   "2 + 2?",
		Answers: []domain.NewAnswer{{Text: "3"}, {Text: "4", IsCorrect: true}, {Text: "four", IsCorrect: true}},
	})
	if err != nil {
		t.Fatalf("create question failed: %v", err)
	}
	if !strings.HasPrefix(q.ID, quiz.SubID+"-") {
		t.Fatalf("question id %q not prefixed by quiz sub id %q", q.ID, quiz.SubID)
	}
	if app.CountCorrect(q.Answers) != 1 || !q.Answers[1].IsCorrect {
		t.Fatalf("expected only the second answer correct, got %+v", q.Answers)
	}

	got, _ := service.GetQuiz(ctx, quiz.ID)
	if len(got.Questions) != 2 || got.Questions[1].ID != q.ID {
		t.Fatalf("expected new question appended, got %+v", got.Questions)
	}

	if _, err := service.CreateQuestion(ctx, ownerID, quiz.ID, domain.NewQuestion{
		Title:   "lonely",
		Answers: []domain.NewAnswer{{Text: "only"}},
	}); !errors.Is(err, domain.ErrTooFewAnswers) {
		t.Fatalf("expected ErrTooFewAnswers, got %v", err)
	}
}

func TestUpdateQuestionClearsImage(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()
	quiz := mustCreateQuiz(t, service)
	questionID := quiz.Questions[0].ID

	q, err := service.UpdateQuestion(ctx, ownerID, quiz.ID, questionID, domain.QuestionPatch{ImageURL: domain.Some("https://example.com/a.png")})
	if err != nil || q.ImageURL == nil {
		t.Fatalf("expected image set, got %+v (%v)", q.ImageURL, err)
	}
	q, err = service.UpdateQuestion(ctx, ownerID, quiz.ID, questionID, domain.QuestionPatch{})
	if err != nil || q.ImageURL == nil {
		t.Fatalf("expected absent field to keep the image, got %+v (%v)", q.ImageURL, err)
	}
	q, err = service.UpdateQuestion(ctx, ownerID, quiz.ID, questionID, domain.QuestionPatch{ImageURL: domain.Null[string]()})
	if err != nil || q.ImageURL != nil {
		t.Fatalf("expected image cleared, got %+v (%v)", q.ImageURL, err)
	}

	if _, err := service.UpdateQuestion(ctx, ownerID, quiz.ID, "missing", domain.QuestionPatch{}); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestSingleCorrectAnswerIsMaintained(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()
	quiz := mustCreateQuiz(t, service)
	q := quiz.Questions[0]

	added, err := service.CreateAnswer(ctx, ownerID, quiz.ID, q.ID, domain.NewAnswer{Text: "Marseille", IsCorrect: true})
	if err != nil {
		t.Fatalf("create answer failed: %v", err)
	}
	got, _ := service.GetQuiz(ctx, quiz.ID)
	answers := got.Questions[0].Answers
	if len(answers) != 3 || app.CountCorrect(answers) != 1 || answers[2].ID != added.ID || !answers[2].IsCorrect {
		t.Fatalf("expected the new answer to be the only correct one, got %+v", answers)
	}

	correct := true
	if _, err := service.UpdateAnswer(ctx, ownerID, quiz.ID, q.ID, q.Answers[1].ID, domain.AnswerPatch{IsCorrect: &correct}); err != nil {
		t.Fatalf("update answer failed: %v", err)
	}
	got, _ = service.GetQuiz(ctx, quiz.ID)
	answers = got.Questions[0].Answers
	if app.CountCorrect(answers) != 1 || !answers[1].IsCorrect {
		t.Fatalf("expected the second answer to be the only correct one, got %+v", answers)
	}

	text := "Lyon!"
	a, err := service.UpdateAnswer(ctx, ownerID, quiz.ID, q.ID, q.Answers[1].ID, domain.AnswerPatch{Text: &text})
	if err != nil || a.Text != text || !a.IsCorrect {
		t.Fatalf("expected text-only update to keep the flag, got %+v (%v)", a, err)
	}
}

func TestAnswerMustBelongToQuestion(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()
	quiz := mustCreateQuiz(t, service)
	other, err := service.CreateQuestion(ctx, ownerID, quiz.ID, domain.NewQuestion{
		Title:   "other",
		Answers: []domain.NewAnswer{{Text: "x"}, {Text: "y"}},
	})
	if err != nil {
		t.Fatalf("create question failed: %v", err)
	}

	text := "moved"
	_, err = service.UpdateAnswer(ctx, ownerID, quiz.ID, other.ID, quiz.Questions[0].Answers[0].ID, domain.AnswerPatch{Text: &text})
	if !errors.Is(err, domain.ErrAnswerNotFound) {
		t.Fatalf("expected ErrAnswerNotFound, got %v", err)
	}
	_, err = service.CreateAnswer(ctx, ownerID, quiz.ID, "missing", domain.NewAnswer{Text: "z"})
	if !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestDeleteAnswerKeepsMinimum(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()
	quiz := mustCreateQuiz(t, service)
	q := quiz.Questions[0]

	if _, err := service.DeleteAnswer(ctx, ownerID, quiz.ID, q.ID, q.Answers[0].ID); !errors.Is(err, domain.ErrTooFewAnswers) {
		t.Fatalf("expected ErrTooFewAnswers, got %v", err)
	}

	added, err := service.CreateAnswer(ctx, ownerID, quiz.ID, q.ID, domain.NewAnswer{Text: "Nice"})
	if err != nil {
		t.Fatalf("create answer failed: %v", err)
	}
	n, err := service.DeleteAnswer(ctx, ownerID, quiz.ID, q.ID, added.ID)
	if err != nil || n != 1 {
		t.Fatalf("expected one answer deleted, got %d (%v)", n, err)
	}

	got, _ := service.GetQuiz(ctx, quiz.ID)
	if len(got.Questions[0].Answers) != app.MinAnswers {
		t.Fatalf("expected %d answers, got %d", app.MinAnswers, len(got.Questions[0].Answers))
	}
}

func TestDeleteQuestion(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()
	quiz := mustCreateQuiz(t, service)

	if _, err := service.DeleteQuestion(ctx, intruderID, quiz.ID, quiz.Questions[0].ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	n, err := service.DeleteQuestion(ctx, ownerID, quiz.ID, quiz.Questions[0].ID)
	if err != nil || n != 1 {
		t.Fatalf("expected one question deleted, got %d (%v)", n, err)
	}
	got, _ := service.GetQuiz(ctx, quiz.ID)
	if len(got.Questions) != 0 {
		t.Fatalf("expected empty quiz, got %+v", got.Questions)
	}
	if _, err := service.DeleteQuestion(ctx, ownerID, quiz.ID, quiz.Questions[0].ID); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestMutationsStampTimestampsFromClock(t *testing.T) {
	repo := memory.NewQuizRepository()
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	service := app.NewQuizService(repo, nil, nil, app.WithQuizClock(clock))
	ctx := context.Background()

	quiz := mustCreateQuiz(t, service)
	if !quiz.CreatedAt.Equal(now) || !quiz.UpdatedAt.Equal(now) {
		t.Fatalf("expected quiz stamped %v, got %v / %v", now, quiz.CreatedAt, quiz.UpdatedAt)
	}
	for _, a := range quiz.Questions[0].Answers {
		if !a.CreatedAt.Equal(now) {
			t.Fatalf("expected answer stamped %v, got %v", now, a.CreatedAt)
		}
	}

	created := now
	now = now.Add(time.Hour)
	correct := true
	a, err := service.UpdateAnswer(ctx, ownerID, quiz.ID, quiz.Questions[0].ID, quiz.Questions[0].Answers[1].ID, domain.AnswerPatch{IsCorrect: &correct})
	if err != nil {
		t.Fatalf("update answer failed: %v", err)
	}
	if !a.CreatedAt.Equal(created) || !a.UpdatedAt.Equal(now) {
		t.Fatalf("expected created %v updated %v, got %v / %v", created, now, a.CreatedAt, a.UpdatedAt)
	}

	title := "Later"
	if _, err := service.UpdateQuiz(ctx, ownerID, quiz.ID, domain.QuizPatch{Title: &title}); err != nil {
		t.Fatalf("update quiz failed: %v", err)
	}
	got, err := service.GetQuiz(ctx, quiz.ID)
	if err != nil {
		t.Fatalf("get quiz failed: %v", err)
	}
	if !got.UpdatedAt.Equal(now) || !got.CreatedAt.Equal(created) {
		t.Fatalf("expected quiz updated at %v, got %v", now, got.UpdatedAt)
	}
	if !got.Questions[0].Answers[0].UpdatedAt.Equal(now) {
		t.Fatalf("expected the cleared answer to be stamped %v, got %v", now, got.Questions[0].Answers[0].UpdatedAt)
	}
}
