package app

import (
	"context"
	"log/slog"
	"time"

	"untrivially-api/internal/domain"
	"untrivially-api/internal/shortid"

	"github.com/google/uuid"
)

// QuizService contains the quiz authoring and mutation use cases.
type QuizService struct {
	quizzes QuizRepository
	cache   QuizCache
	logger  *slog.Logger
	newID   func() string
	now     func() time.Time
}

// QuizOption customises a QuizService.
type QuizOption func(*QuizService)

// WithIDGenerator replaces the short id source (deterministic ids in tests).
func WithIDGenerator(fn func() string) QuizOption {
	return func(s *QuizService) { s.newID = fn }
}

// WithQuizClock replaces the timestamp source.
func WithQuizClock(now func() time.Time) QuizOption {
	return func(s *QuizService) { s.now = now }
}

// NewQuizService wires the service. cache may be nil, in which case reads go to the repository.
func NewQuizService(quizzes QuizRepository, cache QuizCache, logger *slog.Logger, opts ...QuizOption) *QuizService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &QuizService{
		quizzes: quizzes,
		cache:   cache,
		logger:  logger,
		newID:   shortid.New,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListQuizzes returns the user's quizzes without their question trees.
func (s *QuizService) ListQuizzes(ctx context.Context, userID string) ([]domain.Quiz, error) {
	return s.quizzes.ListQuizzes(ctx, userID)
}

// GetQuiz returns a quiz with its full tree.
func (s *QuizService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if _, err := uuid.Parse(quizID); err != nil {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if s.cache != nil {
		return s.cache.GetQuiz(ctx, quizID)
	}
	return s.quizzes.FindQuiz(ctx, quizID, true)
}

// VerifyOwnership loads the quiz tree and confirms userID owns it.
func (s *QuizService) VerifyOwnership(ctx context.Context, userID, quizID string) (Scope, error) {
	return verifyOwnership(ctx, s.quizzes, userID, quizID)
}

// CreateQuiz assigns hierarchical ids to the draft and stores the whole tree atomically.
func (s *QuizService) CreateQuiz(ctx context.Context, userID string, draft domain.QuizDraft) (domain.Quiz, error) {
	quiz, err := s.buildQuiz(userID, draft)
	if err != nil {
		return domain.Quiz{}, err
	}
	err = s.quizzes.RunInTx(ctx, func(ctx context.Context, store QuizStore) error {
		return store.InsertQuizTree(ctx, &quiz)
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	s.logger.InfoContext(ctx, "quiz created", "quizId", quiz.ID, "userId", userID, "questions", len(quiz.Questions))
	return quiz, nil
}

func (s *QuizService) buildQuiz(userID string, draft domain.QuizDraft) (domain.Quiz, error) {
	now := s.now()
	quiz := domain.Quiz{
		SubID:     s.newID(),
		Title:     draft.Title,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
		Questions: make([]domain.Question, 0, len(draft.Questions)),
	}
	for i, qd := range draft.Questions {
		if len(qd.Options) < MinAnswers {
			return domain.Quiz{}, domain.ErrTooFewAnswers
		}
		question := domain.Question{
			ID:        quiz.SubID + "-" + s.newID(),
			Title:     qd.Title,
			ImageURL:  qd.ImageURL,
			Position:  i,
			CreatedAt: now,
			UpdatedAt: now,
			Answers:   make([]domain.Answer, 0, len(qd.Options)),
		}
		ids := make([]string, len(qd.Options))
		for j := range qd.Options {
			ids[j] = question.ID + "-" + s.newID()
		}
		correctID := ResolveCorrectOption(ids, qd.CorrectOptionIndex)
		for j, opt := range qd.Options {
			question.Answers = append(question.Answers, domain.Answer{
				ID:         ids[j],
				QuestionID: question.ID,
				Text:       opt.Text,
				ImageURL:   opt.ImageURL,
				IsCorrect:  correctID != "" && ids[j] == correctID,
				Position:   j,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz, nil
}

// UpdateQuiz applies title-level changes to a quiz owned by userID and returns the
// number of matched quizzes. Zero means absent or not owned.
func (s *QuizService) UpdateQuiz(ctx context.Context, userID, quizID string, patch domain.QuizPatch) (int64, error) {
	if _, err := uuid.Parse(quizID); err != nil {
		return 0, nil
	}
	n, err := s.quizzes.UpdateQuizWhereOwner(ctx, quizID, userID, patch, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.invalidate(ctx, quizID)
	}
	return n, nil
}

// DeleteQuiz removes a quiz owned by userID; children go with it.
func (s *QuizService) DeleteQuiz(ctx context.Context, userID, quizID string) (int64, error) {
	if _, err := uuid.Parse(quizID); err != nil {
		return 0, nil
	}
	n, err := s.quizzes.DeleteQuizWhereOwner(ctx, quizID, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.invalidate(ctx, quizID)
		s.logger.InfoContext(ctx, "quiz deleted", "quizId", quizID, "userId", userID)
	}
	return n, nil
}

// CreateQuestion adds a question with its answers. Only the first answer claiming to be
// correct keeps the flag.
func (s *QuizService) CreateQuestion(ctx context.Context, userID, quizID string, in domain.NewQuestion) (domain.Question, error) {
	if len(in.Answers) < MinAnswers {
		return domain.Question{}, domain.ErrTooFewAnswers
	}
	var question domain.Question
	err := s.mutate(ctx, userID, quizID, func(ctx context.Context, store QuizStore, scope Scope) error {
		now := s.now()
		question = domain.Question{
			ID:        scope.Quiz.SubID + "-" + s.newID(),
			QuizID:    scope.Quiz.ID,
			Title:     in.Title,
			ImageURL:  in.ImageURL,
			Position:  nextQuestionPosition(scope.Quiz.Questions),
			CreatedAt: now,
			UpdatedAt: now,
		}
		for i, a := range KeepFirstCorrect(in.Answers) {
			question.Answers = append(question.Answers, domain.Answer{
				ID:         question.ID + "-" + s.newID(),
				QuestionID: question.ID,
				Text:       a.Text,
				ImageURL:   a.ImageURL,
				IsCorrect:  a.IsCorrect,
				Position:   i,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}
		return store.InsertQuestion(ctx, &question)
	})
	if err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

// UpdateQuestion changes the supplied fields of a question in the user's quiz.
func (s *QuizService) UpdateQuestion(ctx context.Context, userID, quizID, questionID string, patch domain.QuestionPatch) (domain.Question, error) {
	var question domain.Question
	err := s.mutate(ctx, userID, quizID, func(ctx context.Context, store QuizStore, scope Scope) error {
		q, ok := scope.Question(questionID)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		if patch.Title != nil {
			q.Title = *patch.Title
		}
		if patch.ImageURL.Set {
			q.ImageURL = patch.ImageURL.Value
		}
		q.UpdatedAt = s.now()
		if err := store.UpdateQuestion(ctx, &q); err != nil {
			return err
		}
		question = q
		return nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return question, nil
}

// DeleteQuestion removes a question (and its answers) from the user's quiz.
func (s *QuizService) DeleteQuestion(ctx context.Context, userID, quizID, questionID string) (int64, error) {
	var count int64
	err := s.mutate(ctx, userID, quizID, func(ctx context.Context, store QuizStore, scope Scope) error {
		if _, ok := scope.Question(questionID); !ok {
			return domain.ErrQuestionNotFound
		}
		n, err := store.DeleteQuestion(ctx, scope.Quiz.ID, questionID)
		count = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CreateAnswer adds an answer. A new correct answer replaces the previous one.
func (s *QuizService) CreateAnswer(ctx context.Context, userID, quizID, questionID string, in domain.NewAnswer) (domain.Answer, error) {
	var answer domain.Answer
	err := s.mutate(ctx, userID, quizID, func(ctx context.Context, store QuizStore, scope Scope) error {
		q, ok := scope.Question(questionID)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		now := s.now()
		if in.IsCorrect && len(EnforceSingleCorrect(q.Answers, "")) > 0 {
			if err := store.ClearCorrect(ctx, q.ID, "", now); err != nil {
				return err
			}
		}
		answer = domain.Answer{
			ID:         q.ID + "-" + s.newID(),
			QuestionID: q.ID,
			Text:       in.Text,
			ImageURL:   in.ImageURL,
			IsCorrect:  in.IsCorrect,
			Position:   nextAnswerPosition(q.Answers),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return store.InsertAnswer(ctx, &answer)
	})
	if err != nil {
		return domain.Answer{}, err
	}
	return answer, nil
}

// UpdateAnswer changes the supplied fields. Marking an answer correct unsets the others first.
func (s *QuizService) UpdateAnswer(ctx context.Context, userID, quizID, questionID, answerID string, patch domain.AnswerPatch) (domain.Answer, error) {
	var answer domain.Answer
	err := s.mutate(ctx, userID, quizID, func(ctx context.Context, store QuizStore, scope Scope) error {
		q, ok := scope.Question(questionID)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		a, ok := scope.Answer(questionID, answerID)
		if !ok {
			return domain.ErrAnswerNotFound
		}
		now := s.now()
		if patch.IsCorrect != nil && *patch.IsCorrect && len(EnforceSingleCorrect(q.Answers, a.ID)) > 0 {
			if err := store.ClearCorrect(ctx, q.ID, a.ID, now); err != nil {
				return err
			}
		}
		if patch.Text != nil {
			a.Text = *patch.Text
		}
		if patch.ImageURL.Set {
			a.ImageURL = patch.ImageURL.Value
		}
		if patch.IsCorrect != nil {
			a.IsCorrect = *patch.IsCorrect
		}
		a.UpdatedAt = now
		if err := store.UpdateAnswer(ctx, &a); err != nil {
			return err
		}
		answer = a
		return nil
	})
	if err != nil {
		return domain.Answer{}, err
	}
	return answer, nil
}

// DeleteAnswer removes an answer unless the question would drop below MinAnswers,
// in which case domain.ErrTooFewAnswers is returned and nothing is deleted.
func (s *QuizService) DeleteAnswer(ctx context.Context, userID, quizID, questionID, answerID string) (int64, error) {
	var count int64
	err := s.mutate(ctx, userID, quizID, func(ctx context.Context, store QuizStore, scope Scope) error {
		q, ok := scope.Question(questionID)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		if !CanDeleteAnswer(len(q.Answers)) {
			return domain.ErrTooFewAnswers
		}
		if _, ok := scope.Answer(questionID, answerID); !ok {
			return domain.ErrAnswerNotFound
		}
		n, err := store.DeleteAnswer(ctx, q.ID, answerID)
		count = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// mutate runs fn in one transaction after the ownership check and drops the cached quiz on success.
func (s *QuizService) mutate(ctx context.Context, userID, quizID string, fn func(ctx context.Context, store QuizStore, scope Scope) error) error {
	err := s.quizzes.RunInTx(ctx, func(ctx context.Context, store QuizStore) error {
		scope, err := verifyOwnership(ctx, store, userID, quizID)
		if err != nil {
			return err
		}
		return fn(ctx, store, scope)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, quizID)
	return nil
}

func (s *QuizService) invalidate(ctx context.Context, quizID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, quizID); err != nil {
		s.logger.WarnContext(ctx, "quiz cache invalidation failed", "quizId", quizID, "error", err)
	}
}

func nextQuestionPosition(questions []domain.Question) int {
	next := 0
	for _, q := range questions {
		if q.Position >= next {
			next = q.Position + 1
		}
	}
	return next
}

func nextAnswerPosition(answers []domain.Answer) int {
	next := 0
	for _, a := range answers {
		if a.Position >= next {
			next = a.Position + 1
		}
	}
	return next
}
