package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"untrivially-api/internal/app"
	"untrivially-api/internal/domain"

	"github.com/google/uuid"
)

// QuizRepository is an in-memory implementation of app.QuizRepository.
// Transactions are serialised and work on a copy that replaces the live data on commit.
type QuizRepository struct {
	mu   sync.Mutex
	data *quizData
}

type quizData struct {
	quizzes map[string]domain.Quiz
}

func NewQuizRepository() *QuizRepository {
	return &QuizRepository{data: &quizData{quizzes: make(map[string]domain.Quiz)}}
}

func (r *QuizRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, store app.QuizStore) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	working := r.data.clone()
	if err := fn(ctx, &quizStore{data: working}); err != nil {
		return err
	}
	r.data = working
	return nil
}

// LoadQuiz satisfies the cache loaders.
func (r *QuizRepository) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return r.FindQuiz(ctx, quizID, true)
}

func (r *QuizRepository) FindQuiz(ctx context.Context, quizID string, withTree bool) (domain.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store().FindQuiz(ctx, quizID, withTree)
}

func (r *QuizRepository) ListQuizzes(ctx context.Context, userID string) ([]domain.Quiz, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store().ListQuizzes(ctx, userID)
}

func (r *QuizRepository) InsertQuizTree(ctx context.Context, quiz *domain.Quiz) error {
	return r.RunInTx(ctx, func(ctx context.Context, store app.QuizStore) error {
		return store.InsertQuizTree(ctx, quiz)
	})
}

func (r *QuizRepository) UpdateQuizWhereOwner(ctx context.Context, quizID, userID string, patch domain.QuizPatch, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store().UpdateQuizWhereOwner(ctx, quizID, userID, patch, at)
}

func (r *QuizRepository) DeleteQuizWhereOwner(ctx context.Context, quizID, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store().DeleteQuizWhereOwner(ctx, quizID, userID)
}

func (r *QuizRepository) InsertQuestion(ctx context.Context, question *domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store().InsertQuestion(ctx, question)
}

func (r *QuizRepository) UpdateQuestion(ctx context.Context, question *domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store().UpdateQuestion(ctx, question)
}

func (r *QuizRepository) DeleteQuestion(ctx context.Context, quizID, questionID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store().DeleteQuestion(ctx, quizID, questionID)
}

func (r *QuizRepository) InsertAnswer(ctx context.Context, answer *domain.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store().InsertAnswer(ctx, answer)
}

func (r *QuizRepository) UpdateAnswer(ctx context.Context, answer *domain.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store().UpdateAnswer(ctx, answer)
}

func (r *QuizRepository) ClearCorrect(ctx context.Context, questionID, exceptID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store().ClearCorrect(ctx, questionID, exceptID, at)
}

func (r *QuizRepository) DeleteAnswer(ctx context.Context, questionID, answerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store().DeleteAnswer(ctx, questionID, answerID)
}

// store must be called with mu held.
func (r *QuizRepository) store() *quizStore {
	return &quizStore{data: r.data}
}

// quizStore operates on quizData without locking.
type quizStore struct {
	data *quizData
}

func (s *quizStore) FindQuiz(_ context.Context, quizID string, withTree bool) (domain.Quiz, error) {
	quiz, ok := s.data.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if !withTree {
		quiz.Questions = []domain.Question{}
		return quiz, nil
	}
	return cloneQuiz(quiz), nil
}

func (s *quizStore) ListQuizzes(_ context.Context, userID string) ([]domain.Quiz, error) {
	quizzes := make([]domain.Quiz, 0)
	for _, q := range s.data.quizzes {
		if q.UserID != userID {
			continue
		}
		q.Questions = []domain.Question{}
		quizzes = append(quizzes, q)
	}
	sort.Slice(quizzes, func(i, j int) bool {
		if !quizzes[i].CreatedAt.Equal(quizzes[j].CreatedAt) {
			return quizzes[i].CreatedAt.Before(quizzes[j].CreatedAt)
		}
		return quizzes[i].ID < quizzes[j].ID
	})
	return quizzes, nil
}

func (s *quizStore) InsertQuizTree(_ context.Context, quiz *domain.Quiz) error {
	quiz.ID = uuid.NewString()
	for i := range quiz.Questions {
		quiz.Questions[i].QuizID = quiz.ID
	}
	s.data.quizzes[quiz.ID] = cloneQuiz(*quiz)
	return nil
}

func (s *quizStore) UpdateQuizWhereOwner(_ context.Context, quizID, userID string, patch domain.QuizPatch, at time.Time) (int64, error) {
	quiz, ok := s.data.quizzes[quizID]
	if !ok || quiz.UserID != userID {
		return 0, nil
	}
	if patch.Title != nil {
		quiz.Title = *patch.Title
	}
	quiz.UpdatedAt = at
	s.data.quizzes[quizID] = quiz
	return 1, nil
}

func (s *quizStore) DeleteQuizWhereOwner(_ context.Context, quizID, userID string) (int64, error) {
	quiz, ok := s.data.quizzes[quizID]
	if !ok || quiz.UserID != userID {
		return 0, nil
	}
	delete(s.data.quizzes, quizID)
	return 1, nil
}

func (s *quizStore) InsertQuestion(_ context.Context, question *domain.Question) error {
	quiz, ok := s.data.quizzes[question.QuizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	quiz.Questions = append(quiz.Questions, cloneQuestion(*question))
	sortQuestions(quiz.Questions)
	s.data.quizzes[quiz.ID] = quiz
	return nil
}

func (s *quizStore) UpdateQuestion(_ context.Context, question *domain.Question) error {
	quiz, qi, ok := s.locateQuestion(question.ID)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	stored := &quiz.Questions[qi]
	stored.Title = question.Title
	stored.ImageURL = question.ImageURL
	stored.UpdatedAt = question.UpdatedAt
	return nil
}

func (s *quizStore) DeleteQuestion(_ context.Context, quizID, questionID string) (int64, error) {
	quiz, ok := s.data.quizzes[quizID]
	if !ok {
		return 0, nil
	}
	for i, q := range quiz.Questions {
		if q.ID == questionID {
			quiz.Questions = append(quiz.Questions[:i], quiz.Questions[i+1:]...)
			s.data.quizzes[quizID] = quiz
			return 1, nil
		}
	}
	return 0, nil
}

func (s *quizStore) InsertAnswer(_ context.Context, answer *domain.Answer) error {
	quiz, qi, ok := s.locateQuestion(answer.QuestionID)
	if !ok {
		return domain.ErrQuestionNotFound
	}
	q := &quiz.Questions[qi]
	q.Answers = append(q.Answers, *answer)
	sortAnswers(q.Answers)
	return nil
}

func (s *quizStore) UpdateAnswer(_ context.Context, answer *domain.Answer) error {
	quiz, qi, ok := s.locateQuestion(answer.QuestionID)
	if !ok {
		return domain.ErrAnswerNotFound
	}
	for i := range quiz.Questions[qi].Answers {
		stored := &quiz.Questions[qi].Answers[i]
		if stored.ID != answer.ID {
			continue
		}
		stored.Text = answer.Text
		stored.ImageURL = answer.ImageURL
		stored.IsCorrect = answer.IsCorrect
		stored.UpdatedAt = answer.UpdatedAt
		return nil
	}
	return domain.ErrAnswerNotFound
}

func (s *quizStore) ClearCorrect(_ context.Context, questionID, exceptID string, at time.Time) error {
	quiz, qi, ok := s.locateQuestion(questionID)
	if !ok {
		return nil
	}
	for i := range quiz.Questions[qi].Answers {
		a := &quiz.Questions[qi].Answers[i]
		if a.ID != exceptID && a.IsCorrect {
			a.IsCorrect = false
			a.UpdatedAt = at
		}
	}
	return nil
}

func (s *quizStore) DeleteAnswer(_ context.Context, questionID, answerID string) (int64, error) {
	quiz, qi, ok := s.locateQuestion(questionID)
	if !ok {
		return 0, nil
	}
	q := &quiz.Questions[qi]
	for i, a := range q.Answers {
		if a.ID == answerID {
			q.Answers = append(q.Answers[:i], q.Answers[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// locateQuestion returns the owning quiz and the question index. The returned quiz shares
// its Questions backing array with the stored value, so in-place edits are persisted.
func (s *quizStore) locateQuestion(questionID string) (domain.Quiz, int, bool) {
	for _, quiz := range s.data.quizzes {
		for i, q := range quiz.Questions {
			if q.ID == questionID {
				return quiz, i, true
			}
		}
	}
	return domain.Quiz{}, 0, false
}

func (d *quizData) clone() *quizData {
	out := &quizData{quizzes: make(map[string]domain.Quiz, len(d.quizzes))}
	for id, q := range d.quizzes {
		out.quizzes[id] = cloneQuiz(q)
	}
	return out
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		questions[i] = cloneQuestion(question)
	}
	q.Questions = questions
	return q
}

func cloneQuestion(q domain.Question) domain.Question {
	answers := make([]domain.Answer, len(q.Answers))
	copy(answers, q.Answers)
	q.Answers = answers
	return q
}

func sortQuestions(questions []domain.Question) {
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Position < questions[j].Position })
}

func sortAnswers(answers []domain.Answer) {
	sort.SliceStable(answers, func(i, j int) bool { return answers[i].Position < answers[j].Position })
}
