package note

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// DefaultTagColor color of tags created on first use
const DefaultTagColor = "#6366F1"

// SummarySentences sentence budget of generated summaries
const SummarySentences = 3

var (
	// ErrNoteNotFound note missing or owned by someone else
	ErrNoteNotFound = errors.New("Note not found")
	// ErrEmptyContent nothing to summarize
	ErrEmptyContent = errors.New("content is required")
)

type TagModel struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type NoteModel struct {
	ID        string      `json:"id"`
	UserID    string      `json:"-"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Summary   *string     `json:"summary"`
	Tags      []*TagModel `json:"tags"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TagName accepts either "name" or {"name": "name"}
type TagName string

func (tn *TagName) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*tn = TagName(obj.Name)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*tn = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*tn = TagName(s)
	return nil
}

// normalizeTags trimmed, non empty, first occurrence wins
func normalizeTags(in []TagName) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		name := strings.TrimSpace(string(t))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// NotePatch nil fields are left untouched, a non nil Tags replaces every tag
type NotePatch struct {
	Title   *string    `json:"title" validate:"omitempty,notblank,max=150"`
	Content *string    `json:"content" validate:"omitempty,notblank"`
	Summary *string    `json:"summary"`
	Tags    *[]TagName `json:"tags"`
}

type NoteRepository interface {
	ListNotes(ctx context.Context, userID string) ([]*NoteModel, error)
	FindNote(ctx context.Context, userID, noteID string) (*NoteModel, error)
	SaveNote(ctx context.Context, note *NoteModel, tags []string) error
	UpdateNote(ctx context.Context, note *NoteModel, tags []string, replaceTags bool) error
	DeleteNote(ctx context.Context, userID, noteID string) (bool, error)
	ListTags(ctx context.Context) ([]*TagModel, error)
}

type NoteUseCase interface {
	ListNotes(ctx context.Context, userID string) ([]*NoteModel, error)
	GetNote(ctx context.Context, userID, noteID string) (*NoteModel, error)
	CreateNote(ctx context.Context, userID, title, content string, summary *string, tags []TagName) (*NoteModel, error)
	UpdateNote(ctx context.Context, userID, noteID string, patch *NotePatch) (*NoteModel, error)
	DeleteNote(ctx context.Context, userID, noteID string) error
	SummarizeNote(ctx context.Context, userID, noteID string) (string, error)
	Summarize(ctx context.Context, content string) (string, error)
	ListTags(ctx context.Context) ([]*TagModel, error)
}
