package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/brain-trails/internal/infrastructure/auth"
	"github.com/pot-code/brain-trails/internal/infrastructure/validate"
	"github.com/pot-code/brain-trails/internal/quiz"
)

type QuizHandler struct {
	JWTUtil     *auth.JWTUtil
	QuizUseCase quiz.QuizUseCase
	Validator   validate.Validator
}

func NewQuizHandler(JWTUtil *auth.JWTUtil, QuizUseCase quiz.QuizUseCase, Validator validate.Validator) *QuizHandler {
	return &QuizHandler{JWTUtil, QuizUseCase, Validator}
}

func quizError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, quiz.ErrQuizNotFound):
		return respondError(c, http.StatusNotFound, err)
	case errors.Is(err, quiz.ErrEmptyNotes):
		return respondError(c, http.StatusBadRequest, err)
	case errors.Is(err, quiz.ErrGenerationFailed):
		return c.JSON(http.StatusInternalServerError,
			NewRESTStandardError(http.StatusInternalServerError, quiz.ErrGenerationFailed.Error()).
				SetDetail(err.Error()).SetTraceID(traceID(c)))
	}
	return err
}

func (qh *QuizHandler) HandleListQuizzes(c echo.Context) error {
	quizzes, err := qh.QuizUseCase.ListQuizzes(c.Request().Context(), currentUser(c, qh.JWTUtil))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, quizzes)
}

func (qh *QuizHandler) HandleGenerate(c echo.Context) error {
	post := new(quiz.GenerateRequest)
	if ok, err := bindAndValidate(c, qh.Validator, post); !ok {
		return err
	}
	q, err := qh.QuizUseCase.Generate(c.Request().Context(), currentUser(c, qh.JWTUtil), post)
	if err != nil {
		return quizError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"quiz": q})
}

func (qh *QuizHandler) HandleGetQuiz(c echo.Context) error {
	q, err := qh.QuizUseCase.GetQuiz(c.Request().Context(), currentUser(c, qh.JWTUtil), c.Param("id"))
	if err != nil {
		return quizError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

func (qh *QuizHandler) HandleQuestions(c echo.Context) error {
	q, err := qh.QuizUseCase.GetQuiz(c.Request().Context(), currentUser(c, qh.JWTUtil), c.Param("id"))
	if err != nil {
		return quizError(c, err)
	}
	head := *q
	head.Questions = nil
	return c.JSON(http.StatusOK, echo.Map{"quiz": &head, "questions": q.Questions})
}

func (qh *QuizHandler) HandleSubmitAttempt(c echo.Context) error {
	post := new(quiz.AttemptRequest)
	if ok, err := bindAndValidate(c, qh.Validator, post); !ok {
		return err
	}
	result, err := qh.QuizUseCase.SubmitAttempt(c.Request().Context(), currentUser(c, qh.JWTUtil), c.Param("id"), post)
	if err != nil {
		return quizError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (qh *QuizHandler) HandleDeleteQuiz(c echo.Context) error {
	if err := qh.QuizUseCase.DeleteQuiz(c.Request().Context(), currentUser(c, qh.JWTUtil), c.Param("id")); err != nil {
		return quizError(c, err)
	}
	return message(c, http.StatusOK, "Quiz deleted")
}
