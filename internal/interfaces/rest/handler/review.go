package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/brain-trails/internal/deck"
	"github.com/pot-code/brain-trails/internal/infrastructure/auth"
	"github.com/pot-code/brain-trails/internal/infrastructure/validate"
	"github.com/pot-code/brain-trails/internal/review"
	"github.com/pot-code/brain-trails/internal/srs"
)

// ReviewHandler spaced repetition endpoints
type ReviewHandler struct {
	JWTUtil       *auth.JWTUtil
	ReviewUseCase review.ReviewUseCase
}

func NewReviewHandler(JWTUtil *auth.JWTUtil, ReviewUseCase review.ReviewUseCase) *ReviewHandler {
	return &ReviewHandler{JWTUtil, ReviewUseCase}
}

type reviewRequest struct {
	Quality *int `json:"quality"`
}

// HandleReview grade a card, quality defaults to 3 and is clamped to [0, 5]
func (rh *ReviewHandler) HandleReview(c echo.Context) error {
	post := new(reviewRequest)
	if err := c.Bind(post); err != nil {
		return bindFailed(c, err)
	}
	quality := srs.DefaultQuality
	if post.Quality != nil {
		quality = *post.Quality
	}

	result, err := rh.ReviewUseCase.Review(c.Request().Context(), currentUser(c, rh.JWTUtil), c.Param("id"), quality)
	if err != nil {
		switch {
		case errors.Is(err, deck.ErrFlashcardNotFound):
			return respondError(c, http.StatusNotFound, err)
		case errors.Is(err, review.ErrConcurrentReview):
			return respondError(c, http.StatusConflict, err)
		}
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (rh *ReviewHandler) HandleNextDue(c echo.Context) error {
	card, err := rh.ReviewUseCase.NextDue(c.Request().Context(), currentUser(c, rh.JWTUtil))
	if err != nil {
		if errors.Is(err, review.ErrNoCardsDue) {
			return message(c, http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, card)
}

// HandleListDue limit query parameter is optional
func (rh *ReviewHandler) HandleListDue(c echo.Context) error {
	limit, errs := validate.PositiveInt("limit", c.QueryParam("limit"))
	if errs != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", errs).
			SetTraceID(traceID(c)))
	}
	cards, err := rh.ReviewUseCase.ListDue(c.Request().Context(), currentUser(c, rh.JWTUtil), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cards)
}

func (rh *ReviewHandler) HandleDueCount(c echo.Context) error {
	n, err := rh.ReviewUseCase.DueCount(c.Request().Context(), currentUser(c, rh.JWTUtil))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"due": n})
}
