package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/brain-trails/internal/infrastructure/auth"
	"github.com/pot-code/brain-trails/internal/infrastructure/validate"
	"github.com/pot-code/brain-trails/internal/note"
)

type NoteHandler struct {
	JWTUtil     *auth.JWTUtil
	NoteUseCase note.NoteUseCase
	Validator   validate.Validator
}

func NewNoteHandler(JWTUtil *auth.JWTUtil, NoteUseCase note.NoteUseCase, Validator validate.Validator) *NoteHandler {
	return &NoteHandler{JWTUtil, NoteUseCase, Validator}
}

type noteRequest struct {
	Title   string         `json:"title" validate:"required,notblank,max=150"`
	Content string         `json:"content" validate:"required,notblank"`
	Summary *string        `json:"summary"`
	Tags    []note.TagName `json:"tags"`
}

type summarizeRequest struct {
	Content string `json:"content"`
}

func noteError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, note.ErrNoteNotFound):
		return respondError(c, http.StatusNotFound, err)
	case errors.Is(err, note.ErrEmptyContent):
		return respondError(c, http.StatusBadRequest, err)
	}
	return err
}

func (nh *NoteHandler) HandleListNotes(c echo.Context) error {
	notes, err := nh.NoteUseCase.ListNotes(c.Request().Context(), currentUser(c, nh.JWTUtil))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notes)
}

func (nh *NoteHandler) HandleGetNote(c echo.Context) error {
	n, err := nh.NoteUseCase.GetNote(c.Request().Context(), currentUser(c, nh.JWTUtil), c.Param("id"))
	if err != nil {
		return noteError(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

func (nh *NoteHandler) HandleCreateNote(c echo.Context) error {
	post := new(noteRequest)
	if ok, err := bindAndValidate(c, nh.Validator, post); !ok {
		return err
	}
	n, err := nh.NoteUseCase.CreateNote(c.Request().Context(), currentUser(c, nh.JWTUtil),
		post.Title, post.Content, post.Summary, post.Tags)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, n)
}

func (nh *NoteHandler) HandleUpdateNote(c echo.Context) error {
	post := new(note.NotePatch)
	if ok, err := bindAndValidate(c, nh.Validator, post); !ok {
		return err
	}
	n, err := nh.NoteUseCase.UpdateNote(c.Request().Context(), currentUser(c, nh.JWTUtil), c.Param("id"), post)
	if err != nil {
		return noteError(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

func (nh *NoteHandler) HandleDeleteNote(c echo.Context) error {
	if err := nh.NoteUseCase.DeleteNote(c.Request().Context(), currentUser(c, nh.JWTUtil), c.Param("id")); err != nil {
		return noteError(c, err)
	}
	return message(c, http.StatusOK, "Note removed")
}

// HandleSummarizeNote summarize a stored note and keep the summary on it
func (nh *NoteHandler) HandleSummarizeNote(c echo.Context) error {
	summary, err := nh.NoteUseCase.SummarizeNote(c.Request().Context(), currentUser(c, nh.JWTUtil), c.Param("id"))
	if err != nil {
		return noteError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"summary": summary})
}

// HandleSummarize summarize ad hoc content without storing anything
func (nh *NoteHandler) HandleSummarize(c echo.Context) error {
	post := new(summarizeRequest)
	if err := c.Bind(post); err != nil {
		return bindFailed(c, err)
	}
	summary, err := nh.NoteUseCase.Summarize(c.Request().Context(), post.Content)
	if err != nil {
		return noteError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"summary": summary})
}

func (nh *NoteHandler) HandleListTags(c echo.Context) error {
	tags, err := nh.NoteUseCase.ListTags(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}
