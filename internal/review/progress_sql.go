package review

import (
	"context"
	"time"

	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
	"github.com/pot-code/brain-trails/internal/infrastructure/uuid"
	"github.com/pot-code/brain-trails/internal/srs"
)

type ProgressSQL struct {
	Conn          driver.ITransactionalDB
	UUIDGenerator uuid.Generator
}

var _ ProgressRepository = &ProgressSQL{}

func NewProgressRepository(Conn driver.ITransactionalDB, UUIDGenerator uuid.Generator) *ProgressSQL {
	return &ProgressSQL{Conn, UUIDGenerator}
}

// FindProgress nil when the card was never reviewed by the user
func (repo *ProgressSQL) FindProgress(ctx context.Context, userID, cardID string) (*ProgressModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT id, user_id, flashcard_id, version, repetitions, ease_factor,
	interval_days, last_reviewed, next_review
	FROM flashcard_progress WHERE user_id = $1 AND flashcard_id = $2`, userID, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		p := new(ProgressModel)
		if err := rows.Scan(&p.ID, &p.UserID, &p.FlashcardID, &p.Version, &p.Repetitions, &p.EaseFactor,
			&p.Interval, &p.LastReviewed, &p.NextReview); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, rows.Err()
}

// InsertProgress ErrProgressExists when another review created the row first
func (repo *ProgressSQL) InsertProgress(ctx context.Context, p *ProgressModel) error {
	id, err := repo.UUIDGenerator.Generate()
	if err != nil {
		return err
	}
	p.ID = id
	p.Version = 1
	_, err = repo.Conn.ExecContext(ctx, `INSERT INTO flashcard_progress (id, user_id, flashcard_id, repetitions,
	ease_factor, interval_days, last_reviewed, next_review, version) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.UserID, p.FlashcardID, p.Repetitions, p.EaseFactor, p.Interval, utc(p.LastReviewed), utc(p.NextReview), p.Version)
	if driver.IsUniqueViolation(err) {
		return ErrProgressExists
	}
	return err
}

// UpdateProgress write p if the stored version still equals p.Version, false when it moved on
func (repo *ProgressSQL) UpdateProgress(ctx context.Context, p *ProgressModel) (bool, error) {
	res, err := repo.Conn.ExecContext(ctx, `UPDATE flashcard_progress
	SET repetitions = $1, ease_factor = $2, interval_days = $3, last_reviewed = $4, next_review = $5, version = $6
	WHERE id = $7 AND version = $8`, p.Repetitions, p.EaseFactor, p.Interval, utc(p.LastReviewed), utc(p.NextReview),
		p.Version+1, p.ID, p.Version)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil || n == 0 {
		return false, err
	}
	p.Version++
	return true, nil
}

const dueFilter = `FROM flashcards f
JOIN decks d ON d.id = f.deck_id
LEFT JOIN flashcard_progress p ON p.flashcard_id = f.id AND p.user_id = $1
WHERE d.user_id = $2 AND (p.next_review IS NULL OR p.next_review <= $3)`

// ListDue reviewed cards by due date, then never reviewed cards by creation
func (repo *ProgressSQL) ListDue(ctx context.Context, userID string, at time.Time, limit int) ([]*DueCard, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT f.id, f.question, f.answer, f.deck_id,
	p.interval_days, p.ease_factor, p.repetitions, p.next_review `+dueFilter+`
	ORDER BY CASE WHEN p.next_review IS NULL THEN 1 ELSE 0 END, p.next_review, f.created_at, f.id
	LIMIT $4`, userID, userID, at.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*DueCard, 0)
	for rows.Next() {
		var (
			card        = new(DueCard)
			interval    *int
			easeFactor  *float64
			repetitions *int
		)
		if err := rows.Scan(&card.ID, &card.Question, &card.Answer, &card.DeckID,
			&interval, &easeFactor, &repetitions, &card.NextReview); err != nil {
			return nil, err
		}
		card.Interval, card.EaseFactor, card.Repetitions = srs.DefaultInterval, srs.DefaultEaseFactor, 0
		if interval != nil {
			card.Interval = *interval
		}
		if easeFactor != nil {
			card.EaseFactor = *easeFactor
		}
		if repetitions != nil {
			card.Repetitions = *repetitions
		}
		result = append(result, card)
	}
	return result, rows.Err()
}

func (repo *ProgressSQL) CountDue(ctx context.Context, userID string, at time.Time) (int, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT COUNT(*) `+dueFilter, userID, userID, at.UTC())
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}

// ListLearners users owning at least one deck
func (repo *ProgressSQL) ListLearners(ctx context.Context) ([]string, error) {
	rows, err := repo.Conn.QueryContext(ctx, `SELECT DISTINCT user_id FROM decks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
