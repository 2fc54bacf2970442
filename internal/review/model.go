package review

import (
	"context"
	"errors"
	"time"

	"github.com/pot-code/brain-trails/internal/deck"
	"github.com/pot-code/brain-trails/internal/srs"
)

var (
	// ErrNoCardsDue nothing to review right now
	ErrNoCardsDue = errors.New("No cards due for review!")
	// ErrConcurrentReview the progress kept changing underneath the review
	ErrConcurrentReview = errors.New("Flashcard is being reviewed concurrently, try again")
	// ErrProgressExists a first review lost the race against another one
	ErrProgressExists = errors.New("progress already exists")
)

// ProgressModel persisted scheduling state of one (user, flashcard) pair
type ProgressModel struct {
	ID          string
	UserID      string
	FlashcardID string
	Version     int
	srs.Progress
}

// ReviewResult response of a review
type ReviewResult struct {
	FlashcardID  string     `json:"flashcard_id"`
	NextReview   *time.Time `json:"next_review"`
	Interval     int        `json:"interval"`
	EaseFactor   float64    `json:"ease_factor"`
	Repetitions  int        `json:"repetitions"`
	LastReviewed *time.Time `json:"last_reviewed"`
}

func newReviewResult(p *ProgressModel) *ReviewResult {
	return &ReviewResult{
		FlashcardID:  p.FlashcardID,
		NextReview:   p.NextReview,
		Interval:     p.Interval,
		EaseFactor:   p.EaseFactor,
		Repetitions:  p.Repetitions,
		LastReviewed: p.LastReviewed,
	}
}

// DueCard a flashcard waiting for review, never reviewed cards carry the initial progress
type DueCard struct {
	ID          string     `json:"id"`
	Question    string     `json:"question"`
	Answer      string     `json:"answer"`
	DeckID      string     `json:"deck_id"`
	Interval    int        `json:"interval"`
	EaseFactor  float64    `json:"ease_factor"`
	Repetitions int        `json:"repetitions"`
	NextReview  *time.Time `json:"next_review"`
}

// FlashcardFinder resolve a flashcard owned by the user
type FlashcardFinder interface {
	GetFlashcard(ctx context.Context, userID, cardID string) (*deck.FlashcardModel, error)
}

type ProgressRepository interface {
	FindProgress(ctx context.Context, userID, cardID string) (*ProgressModel, error)
	InsertProgress(ctx context.Context, p *ProgressModel) error
	UpdateProgress(ctx context.Context, p *ProgressModel) (bool, error)
	ListDue(ctx context.Context, userID string, at time.Time, limit int) ([]*DueCard, error)
	CountDue(ctx context.Context, userID string, at time.Time) (int, error)
	ListLearners(ctx context.Context) ([]string, error)
}

type ReviewUseCase interface {
	Review(ctx context.Context, userID, cardID string, quality int) (*ReviewResult, error)
	NextDue(ctx context.Context, userID string) (*DueCard, error)
	ListDue(ctx context.Context, userID string, limit int) ([]*DueCard, error)
	DueCount(ctx context.Context, userID string) (int, error)
	RefreshDueCounts(ctx context.Context) error
}
