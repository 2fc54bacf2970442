package note

import (
	"context"
	"strings"

	"github.com/pot-code/brain-trails/internal/textgen"
	"go.elastic.co/apm"
)

// NoteUseCaseImpl ...
type NoteUseCaseImpl struct {
	NoteRepository NoteRepository
	Generator      textgen.Generator
}

var _ NoteUseCase = &NoteUseCaseImpl{}

// NewNoteUseCase ...
func NewNoteUseCase(NoteRepository NoteRepository, Generator textgen.Generator) *NoteUseCaseImpl {
	return &NoteUseCaseImpl{NoteRepository, Generator}
}

func (nu *NoteUseCaseImpl) ListNotes(ctx context.Context, userID string) ([]*NoteModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "NoteUseCaseImpl.ListNotes", "service")
	defer apmSpan.End()

	return nu.NoteRepository.ListNotes(ctx, userID)
}

func (nu *NoteUseCaseImpl) GetNote(ctx context.Context, userID, noteID string) (*NoteModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "NoteUseCaseImpl.GetNote", "service")
	defer apmSpan.End()

	note, err := nu.NoteRepository.FindNote(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, ErrNoteNotFound
	}
	return note, nil
}

func (nu *NoteUseCaseImpl) CreateNote(ctx context.Context, userID, title, content string, summary *string, tags []TagName) (*NoteModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "NoteUseCaseImpl.CreateNote", "service")
	defer apmSpan.End()

	note := &NoteModel{
		UserID:  userID,
		Title:   strings.TrimSpace(title),
		Content: strings.TrimSpace(content),
		Summary: summary,
	}
	if err := nu.NoteRepository.SaveNote(ctx, note, normalizeTags(tags)); err != nil {
		return nil, err
	}
	return note, nil
}

func (nu *NoteUseCaseImpl) UpdateNote(ctx context.Context, userID, noteID string, patch *NotePatch) (*NoteModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "NoteUseCaseImpl.UpdateNote", "service")
	defer apmSpan.End()

	note, err := nu.GetNote(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		note.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		note.Content = strings.TrimSpace(*patch.Content)
	}
	if patch.Summary != nil {
		note.Summary = patch.Summary
	}
	var tags []string
	if patch.Tags != nil {
		tags = normalizeTags(*patch.Tags)
	}
	if err := nu.NoteRepository.UpdateNote(ctx, note, tags, patch.Tags != nil); err != nil {
		return nil, err
	}
	return note, nil
}

func (nu *NoteUseCaseImpl) DeleteNote(ctx context.Context, userID, noteID string) error {
	apmSpan, _ := apm.StartSpan(ctx, "NoteUseCaseImpl.DeleteNote", "service")
	defer apmSpan.End()

	ok, err := nu.NoteRepository.DeleteNote(ctx, userID, noteID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoteNotFound
	}
	return nil
}

// SummarizeNote generate a summary of the note content and store it on the note
func (nu *NoteUseCaseImpl) SummarizeNote(ctx context.Context, userID, noteID string) (string, error) {
	apmSpan, _ := apm.StartSpan(ctx, "NoteUseCaseImpl.SummarizeNote", "service")
	defer apmSpan.End()

	note, err := nu.GetNote(ctx, userID, noteID)
	if err != nil {
		return "", err
	}
	summary, err := nu.Generator.Summarize(ctx, note.Content, SummarySentences)
	if err != nil {
		return "", err
	}
	note.Summary = &summary
	if err := nu.NoteRepository.UpdateNote(ctx, note, nil, false); err != nil {
		return "", err
	}
	return summary, nil
}

func (nu *NoteUseCaseImpl) Summarize(ctx context.Context, content string) (string, error) {
	apmSpan, _ := apm.StartSpan(ctx, "NoteUseCaseImpl.Summarize", "service")
	defer apmSpan.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyContent
	}
	return nu.Generator.Summarize(ctx, content, SummarySentences)
}

func (nu *NoteUseCaseImpl) ListTags(ctx context.Context) ([]*TagModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "NoteUseCaseImpl.ListTags", "service")
	defer apmSpan.End()

	return nu.NoteRepository.ListTags(ctx)
}
