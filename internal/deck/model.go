package deck

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrDeckNotFound deck missing or owned by someone else
	ErrDeckNotFound = errors.New("Deck not found")
	// ErrFlashcardNotFound flashcard missing or its deck owned by someone else
	ErrFlashcardNotFound = errors.New("Flashcard not found")
	// ErrInvalidWorkbook upload is not a readable xlsx file
	ErrInvalidWorkbook = errors.New("Invalid workbook")
)

type DeckModel struct {
	ID             string    `json:"id"`
	UserID         string    `json:"-"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	FlashcardCount int       `json:"flashcard_count"`
}

type FlashcardModel struct {
	ID        string    `json:"id"`
	DeckID    string    `json:"deck_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FlashcardPatch nil fields are left untouched
type FlashcardPatch struct {
	Question *string `json:"question" validate:"omitempty,notblank"`
	Answer   *string `json:"answer" validate:"omitempty,notblank"`
}

type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

type DeckRepository interface {
	ListDecks(ctx context.Context, userID string) ([]*DeckModel, error)
	FindDeck(ctx context.Context, userID, deckID string) (*DeckModel, error)
	SaveDeck(ctx context.Context, deck *DeckModel) error
	UpdateDeck(ctx context.Context, deck *DeckModel) error
	DeleteDeck(ctx context.Context, userID, deckID string) (bool, error)
	ListFlashcards(ctx context.Context, deckID string) ([]*FlashcardModel, error)
	FindFlashcard(ctx context.Context, userID, cardID string) (*FlashcardModel, error)
	SaveFlashcards(ctx context.Context, cards ...*FlashcardModel) error
	UpdateFlashcard(ctx context.Context, card *FlashcardModel) error
	DeleteFlashcard(ctx context.Context, cardID string) error
}

// DueCountInvalidator drops cached review counters of a user
type DueCountInvalidator interface {
	InvalidateDueCount(ctx context.Context, userID string)
}

type DeckUseCase interface {
	ListDecks(ctx context.Context, userID string) ([]*DeckModel, error)
	CreateDeck(ctx context.Context, userID, name string) (*DeckModel, error)
	RenameDeck(ctx context.Context, userID, deckID, name string) (*DeckModel, error)
	DeleteDeck(ctx context.Context, userID, deckID string) error
	ListFlashcards(ctx context.Context, userID, deckID string) ([]*FlashcardModel, error)
	CreateFlashcard(ctx context.Context, userID, deckID, question, answer string) (*FlashcardModel, error)
	GetFlashcard(ctx context.Context, userID, cardID string) (*FlashcardModel, error)
	UpdateFlashcard(ctx context.Context, userID, cardID string, patch *FlashcardPatch) (*FlashcardModel, error)
	DeleteFlashcard(ctx context.Context, userID, cardID string) error
	ImportFlashcards(ctx context.Context, userID, deckID string, workbook io.Reader) (*ImportResult, error)
}
