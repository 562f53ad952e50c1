package postgres

import (
	"context"
	"database/sql"
	"time"

	"untrivially-api/internal/app"
	"untrivially-api/internal/domain"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// QuizRepository stores quizzes, questions and answers through bun.
type QuizRepository struct {
	db *bun.DB
	quizStore
}

func NewQuizRepository(db *bun.DB) *QuizRepository {
	return &QuizRepository{db: db, quizStore: quizStore{db: db}}
}

func (r *QuizRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, store app.QuizStore) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &quizStore{db: tx, lockQuiz: true})
	})
}

// LoadQuiz satisfies the cache loaders.
func (r *QuizRepository) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return r.FindQuiz(ctx, quizID, true)
}

// quizStore runs against either the pool or an open transaction.
// Inside a transaction lockQuiz makes FindQuiz take the quiz row with FOR UPDATE,
// so writers to the same quiz run one after another and each sees the tree the
// previous one committed.
type quizStore struct {
	db       bun.IDB
	lockQuiz bool
}

func (s *quizStore) FindQuiz(ctx context.Context, quizID string, withTree bool) (domain.Quiz, error) {
	var m quizModel
	q := s.db.NewSelect().Model(&m).Where("id = ?", quizID).Limit(1)
	if s.lockQuiz {
		q = q.For("UPDATE")
	}
	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, errors.Wrap(err, "select quiz")
	}
	quiz := m.toDomain()
	if !withTree {
		return quiz, nil
	}
	quiz.Questions, err = s.loadQuestions(ctx, quiz.ID)
	if err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func (s *quizStore) loadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	var questionRows []questionModel
	err := s.db.NewSelect().
		Model(&questionRows).
		Where("quiz_id = ?", quizID).
		Order("position ASC", "created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "select questions")
	}
	questions := make([]domain.Question, len(questionRows))
	if len(questionRows) == 0 {
		return questions, nil
	}

	ids := make([]string, len(questionRows))
	index := make(map[string]int, len(questionRows))
	for i, row := range questionRows {
		questions[i] = row.toDomain()
		ids[i] = row.ID
		index[row.ID] = i
	}

	var answerRows []answerModel
	err = s.db.NewSelect().
		Model(&answerRows).
		Where("question_id IN (?)", bun.In(ids)).
		Order("position ASC", "created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "select answers")
	}
	for _, row := range answerRows {
		i := index[row.QuestionID]
		questions[i].Answers = append(questions[i].Answers, row.toDomain())
	}
	return questions, nil
}

func (s *quizStore) ListQuizzes(ctx context.Context, userID string) ([]domain.Quiz, error) {
	var rows []quizModel
	err := s.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "select quizzes")
	}
	quizzes := make([]domain.Quiz, len(rows))
	for i, row := range rows {
		quizzes[i] = row.toDomain()
	}
	return quizzes, nil
}

func (s *quizStore) InsertQuizTree(ctx context.Context, quiz *domain.Quiz) error {
	m := quizModel{
		SubID:     quiz.SubID,
		Title:     quiz.Title,
		UserID:    quiz.UserID,
		CreatedAt: quiz.CreatedAt,
		UpdatedAt: quiz.UpdatedAt,
	}
	if _, err := s.db.NewInsert().Model(&m).Returning("id").Exec(ctx); err != nil {
		return errors.Wrap(err, "insert quiz")
	}
	quiz.ID = m.ID

	questions := make([]questionModel, 0, len(quiz.Questions))
	var answers []answerModel
	for i := range quiz.Questions {
		quiz.Questions[i].QuizID = quiz.ID
		questions = append(questions, newQuestionModel(quiz.Questions[i]))
		for _, a := range quiz.Questions[i].Answers {
			answers = append(answers, newAnswerModel(a))
		}
	}
	if len(questions) > 0 {
		if _, err := s.db.NewInsert().Model(&questions).Exec(ctx); err != nil {
			return errors.Wrap(err, "insert questions")
		}
	}
	if len(answers) > 0 {
		if _, err := s.db.NewInsert().Model(&answers).Exec(ctx); err != nil {
			return errors.Wrap(err, "insert answers")
		}
	}
	return nil
}

func (s *quizStore) UpdateQuizWhereOwner(ctx context.Context, quizID, userID string, patch domain.QuizPatch, at time.Time) (int64, error) {
	q := s.db.NewUpdate().
		Model((*quizModel)(nil)).
		Set("updated_at = ?", at).
		Where("id = ?", quizID).
		Where("user_id = ?", userID)
	if patch.Title != nil {
		q = q.Set("title = ?", *patch.Title)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "update quiz")
	}
	return res.RowsAffected()
}

func (s *quizStore) DeleteQuizWhereOwner(ctx context.Context, quizID, userID string) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*quizModel)(nil)).
		Where("id = ?", quizID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "delete quiz")
	}
	return res.RowsAffected()
}

func (s *quizStore) InsertQuestion(ctx context.Context, question *domain.Question) error {
	m := newQuestionModel(*question)
	if _, err := s.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return errors.Wrap(err, "insert question")
	}
	if len(question.Answers) == 0 {
		return nil
	}
	answers := make([]answerModel, len(question.Answers))
	for i, a := range question.Answers {
		answers[i] = newAnswerModel(a)
	}
	if _, err := s.db.NewInsert().Model(&answers).Exec(ctx); err != nil {
		return errors.Wrap(err, "insert answers")
	}
	return nil
}

func (s *quizStore) UpdateQuestion(ctx context.Context, question *domain.Question) error {
	m := newQuestionModel(*question)
	res, err := s.db.NewUpdate().
		Model(&m).
		Column("title", "image_url", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "update question")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (s *quizStore) DeleteQuestion(ctx context.Context, quizID, questionID string) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*questionModel)(nil)).
		Where("id = ?", questionID).
		Where("quiz_id = ?", quizID).
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "delete question")
	}
	return res.RowsAffected()
}

func (s *quizStore) InsertAnswer(ctx context.Context, answer *domain.Answer) error {
	m := newAnswerModel(*answer)
	if _, err := s.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return errors.Wrap(err, "insert answer")
	}
	return nil
}

func (s *quizStore) UpdateAnswer(ctx context.Context, answer *domain.Answer) error {
	m := newAnswerModel(*answer)
	res, err := s.db.NewUpdate().
		Model(&m).
		Column("text", "image_url", "is_correct", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "update answer")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAnswerNotFound
	}
	return nil
}

func (s *quizStore) ClearCorrect(ctx context.Context, questionID, exceptID string, at time.Time) error {
	_, err := s.db.NewUpdate().
		Model((*answerModel)(nil)).
		Set("is_correct = FALSE").
		Set("updated_at = ?", at).
		Where("question_id = ?", questionID).
		Where("is_correct").
		Where("id <> ?", exceptID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "clear correct answers")
	}
	return nil
}

func (s *quizStore) DeleteAnswer(ctx context.Context, questionID, answerID string) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*answerModel)(nil)).
		Where("id = ?", answerID).
		Where("question_id = ?", questionID).
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "delete answer")
	}
	return res.RowsAffected()
}
