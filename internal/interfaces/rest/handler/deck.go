package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/brain-trails/internal/deck"
	"github.com/pot-code/brain-trails/internal/infrastructure/auth"
	"github.com/pot-code/brain-trails/internal/infrastructure/validate"
)

// DeckHandler decks and the flashcards in them
type DeckHandler struct {
	JWTUtil     *auth.JWTUtil
	DeckUseCase deck.DeckUseCase
	Validator   validate.Validator
}

func NewDeckHandler(JWTUtil *auth.JWTUtil, DeckUseCase deck.DeckUseCase, Validator validate.Validator) *DeckHandler {
	return &DeckHandler{JWTUtil, DeckUseCase, Validator}
}

type deckRequest struct {
	Name string `json:"name" validate:"required,notblank,max=120"`
}

type flashcardRequest struct {
	Question string `json:"question" validate:"required,notblank"`
	Answer   string `json:"answer" validate:"required,notblank"`
}

// deckError map ownership errors to 404, everything else is unexpected
func deckError(c echo.Context, err error) error {
	if errors.Is(err, deck.ErrDeckNotFound) || errors.Is(err, deck.ErrFlashcardNotFound) {
		return respondError(c, http.StatusNotFound, err)
	}
	return err
}

func (dh *DeckHandler) HandleListDecks(c echo.Context) error {
	decks, err := dh.DeckUseCase.ListDecks(c.Request().Context(), currentUser(c, dh.JWTUtil))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, decks)
}

func (dh *DeckHandler) HandleCreateDeck(c echo.Context) error {
	post := new(deckRequest)
	if ok, err := bindAndValidate(c, dh.Validator, post); !ok {
		return err
	}
	d, err := dh.DeckUseCase.CreateDeck(c.Request().Context(), currentUser(c, dh.JWTUtil), post.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (dh *DeckHandler) HandleRenameDeck(c echo.Context) error {
	post := new(deckRequest)
	if ok, err := bindAndValidate(c, dh.Validator, post); !ok {
		return err
	}
	d, err := dh.DeckUseCase.RenameDeck(c.Request().Context(), currentUser(c, dh.JWTUtil), c.Param("id"), post.Name)
	if err != nil {
		return deckError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (dh *DeckHandler) HandleDeleteDeck(c echo.Context) error {
	if err := dh.DeckUseCase.DeleteDeck(c.Request().Context(), currentUser(c, dh.JWTUtil), c.Param("id")); err != nil {
		return deckError(c, err)
	}
	return message(c, http.StatusOK, "Deck deleted")
}

func (dh *DeckHandler) HandleListFlashcards(c echo.Context) error {
	cards, err := dh.DeckUseCase.ListFlashcards(c.Request().Context(), currentUser(c, dh.JWTUtil), c.Param("id"))
	if err != nil {
		return deckError(c, err)
	}
	return c.JSON(http.StatusOK, cards)
}

func (dh *DeckHandler) HandleCreateFlashcard(c echo.Context) error {
	post := new(flashcardRequest)
	if ok, err := bindAndValidate(c, dh.Validator, post); !ok {
		return err
	}
	card, err := dh.DeckUseCase.CreateFlashcard(c.Request().Context(), currentUser(c, dh.JWTUtil), c.Param("id"),
		post.Question, post.Answer)
	if err != nil {
		return deckError(c, err)
	}
	return c.JSON(http.StatusCreated, card)
}

func (dh *DeckHandler) HandleUpdateFlashcard(c echo.Context) error {
	post := new(deck.FlashcardPatch)
	if ok, err := bindAndValidate(c, dh.Validator, post); !ok {
		return err
	}
	card, err := dh.DeckUseCase.UpdateFlashcard(c.Request().Context(), currentUser(c, dh.JWTUtil), c.Param("id"), post)
	if err != nil {
		return deckError(c, err)
	}
	return c.JSON(http.StatusOK, card)
}

func (dh *DeckHandler) HandleDeleteFlashcard(c echo.Context) error {
	if err := dh.DeckUseCase.DeleteFlashcard(c.Request().Context(), currentUser(c, dh.JWTUtil), c.Param("id")); err != nil {
		return deckError(c, err)
	}
	return message(c, http.StatusOK, "Flashcard deleted")
}

// HandleImport multipart upload of an xlsx workbook in the file field
func (dh *DeckHandler) HandleImport(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate fields",
			validate.Field("file", "file is required")).SetTraceID(traceID(c)))
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx") {
		return c.JSON(http.StatusBadRequest, NewRESTValidationError(http.StatusBadRequest, "Failed to validate fields",
			validate.Field("file", "file must be an .xlsx workbook")).SetTraceID(traceID(c)))
	}
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	result, err := dh.DeckUseCase.ImportFlashcards(c.Request().Context(), currentUser(c, dh.JWTUtil), c.Param("id"), src)
	if err != nil {
		if errors.Is(err, deck.ErrInvalidWorkbook) {
			return respondError(c, http.StatusBadRequest, err)
		}
		return deckError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
