package http

import (
	"net/http"

	"untrivially-api/internal/app"
	"untrivially-api/internal/domain"

	"github.com/labstack/echo/v4"
)

type quizHandler struct {
	quizzes  *app.QuizService
	validate *requestValidator
}

func newQuizHandler(quizzes *app.QuizService, validate *requestValidator) *quizHandler {
	return &quizHandler{quizzes: quizzes, validate: validate}
}

func (h *quizHandler) List(c echo.Context) error {
	quizzes, err := h.quizzes.ListQuizzes(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string][]domain.Quiz{"quizzes": quizzes})
}

func (h *quizHandler) Get(c echo.Context) error {
	id, err := h.quizID(c, "id")
	if err != nil {
		return err
	}
	quiz, err := h.quizzes.GetQuiz(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]domain.Quiz{"quiz": quiz})
}

func (h *quizHandler) Create(c echo.Context) error {
	var req createQuizRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	for _, q := range req.Questions {
		if *q.CorrectOptionIndex >= len(q.Options) {
			return echo.NewHTTPError(http.StatusBadRequest, "Correct option index must be within the bounds of the options array")
		}
	}
	quiz, err := h.quizzes.CreateQuiz(c.Request().Context(), currentUserID(c), req.toDraft())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, quiz)
}

func (h *quizHandler) Update(c echo.Context) error {
	id, err := h.quizID(c, "id")
	if err != nil {
		return err
	}
	var req updateQuizRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	n, err := h.quizzes.UpdateQuiz(c.Request().Context(), currentUserID(c), id, domain.QuizPatch{Title: req.Title})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrQuizNotFound
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *quizHandler) Delete(c echo.Context) error {
	id, err := h.quizID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.quizzes.DeleteQuiz(c.Request().Context(), currentUserID(c), id)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrQuizNotFound
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *quizHandler) CreateQuestion(c echo.Context) error {
	quizID, err := h.quizID(c, "quizId")
	if err != nil {
		return err
	}
	var req createQuestionRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	question, err := h.quizzes.CreateQuestion(c.Request().Context(), currentUserID(c), quizID, req.toNewQuestion())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]domain.Question{"question": question})
}

func (h *quizHandler) UpdateQuestion(c echo.Context) error {
	quizID, err := h.quizID(c, "quizId")
	if err != nil {
		return err
	}
	var req updateQuestionRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := h.validate.validateImageField(req.ImageURL); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request: imageUrl must be a URL")
	}
	question, err := h.quizzes.UpdateQuestion(c.Request().Context(), currentUserID(c), quizID, c.Param("questionId"),
		domain.QuestionPatch{Title: req.Title, ImageURL: req.ImageURL})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]domain.Question{"question": question})
}

func (h *quizHandler) DeleteQuestion(c echo.Context) error {
	quizID, err := h.quizID(c, "quizId")
	if err != nil {
		return err
	}
	n, err := h.quizzes.DeleteQuestion(c.Request().Context(), currentUserID(c), quizID, c.Param("questionId"))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrQuestionNotFound
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *quizHandler) CreateAnswer(c echo.Context) error {
	quizID, err := h.quizID(c, "quizId")
	if err != nil {
		return err
	}
	var req answerRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	answer, err := h.quizzes.CreateAnswer(c.Request().Context(), currentUserID(c), quizID, c.Param("questionId"), req.toNewAnswer())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]domain.Answer{"answer": answer})
}

func (h *quizHandler) UpdateAnswer(c echo.Context) error {
	quizID, err := h.quizID(c, "quizId")
	if err != nil {
		return err
	}
	var req updateAnswerRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}
	if err := h.validate.validateImageField(req.ImageURL); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request: imageUrl must be a URL")
	}
	answer, err := h.quizzes.UpdateAnswer(c.Request().Context(), currentUserID(c), quizID, c.Param("questionId"), c.Param("answerId"),
		domain.AnswerPatch{Text: req.Text, ImageURL: req.ImageURL, IsCorrect: req.IsCorrect})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]domain.Answer{"answer": answer})
}

func (h *quizHandler) DeleteAnswer(c echo.Context) error {
	quizID, err := h.quizID(c, "quizId")
	if err != nil {
		return err
	}
	n, err := h.quizzes.DeleteAnswer(c.Request().Context(), currentUserID(c), quizID, c.Param("questionId"), c.Param("answerId"))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAnswerNotFound
	}
	return c.NoContent(http.StatusNoContent)
}

// quizID reads a path parameter that must hold a UUID.
func (h *quizHandler) quizID(c echo.Context, name string) (string, error) {
	id := c.Param(name)
	if err := h.validate.validateVar(id, "uuid"); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "Invalid request: "+name+" must be a UUID")
	}
	return id, nil
}

func (h *quizHandler) bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	return c.Validate(req)
}
