package deck

import (
	"context"
	"time"

	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
	"github.com/pot-code/brain-trails/internal/infrastructure/uuid"
)

type DeckSQL struct {
	Conn          driver.ITransactionalDB
	UUIDGenerator uuid.Generator
}

var _ DeckRepository = &DeckSQL{}

func NewDeckRepository(Conn driver.ITransactionalDB, UUIDGenerator uuid.Generator) *DeckSQL {
	return &DeckSQL{Conn, UUIDGenerator}
}

func (repo *DeckSQL) queryDecks(ctx context.Context, query string, args ...interface{}) ([]*DeckModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*DeckModel, 0)
	for rows.Next() {
		item := new(DeckModel)
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name, &item.CreatedAt, &item.FlashcardCount); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

const deckSelect = `SELECT d.id, d.user_id, d.name, d.created_at,
	(SELECT COUNT(*) FROM flashcards f WHERE f.deck_id = d.id)
FROM decks d`

// ListDecks newest first
func (repo *DeckSQL) ListDecks(ctx context.Context, userID string) ([]*DeckModel, error) {
	return repo.queryDecks(ctx, deckSelect+` WHERE d.user_id = $1 ORDER BY d.created_at DESC, d.id DESC`, userID)
}

// FindDeck nil when the deck does not exist or belongs to another user
func (repo *DeckSQL) FindDeck(ctx context.Context, userID, deckID string) (*DeckModel, error) {
	decks, err := repo.queryDecks(ctx, deckSelect+` WHERE d.id = $1 AND d.user_id = $2`, deckID, userID)
	if err != nil || len(decks) == 0 {
		return nil, err
	}
	return decks[0], nil
}

func (repo *DeckSQL) SaveDeck(ctx context.Context, deck *DeckModel) error {
	id, err := repo.UUIDGenerator.Generate()
	if err != nil {
		return err
	}
	deck.ID = id
	deck.CreatedAt = time.Now().UTC()
	_, err = repo.Conn.ExecContext(ctx, `INSERT INTO decks (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		deck.ID, deck.UserID, deck.Name, deck.CreatedAt)
	return err
}

func (repo *DeckSQL) UpdateDeck(ctx context.Context, deck *DeckModel) error {
	_, err := repo.Conn.ExecContext(ctx, `UPDATE decks SET name = $1 WHERE id = $2 AND user_id = $3`,
		deck.Name, deck.ID, deck.UserID)
	return err
}

// DeleteDeck flashcards and their progress go with the deck
func (repo *DeckSQL) DeleteDeck(ctx context.Context, userID, deckID string) (bool, error) {
	res, err := repo.Conn.ExecContext(ctx, `DELETE FROM decks WHERE id = $1 AND user_id = $2`, deckID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (repo *DeckSQL) queryFlashcards(ctx context.Context, query string, args ...interface{}) ([]*FlashcardModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*FlashcardModel, 0)
	for rows.Next() {
		item := new(FlashcardModel)
		if err := rows.Scan(&item.ID, &item.DeckID, &item.Question, &item.Answer, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// ListFlashcards newest first
func (repo *DeckSQL) ListFlashcards(ctx context.Context, deckID string) ([]*FlashcardModel, error) {
	return repo.queryFlashcards(ctx, `SELECT id, deck_id, question, answer, created_at, updated_at
	FROM flashcards WHERE deck_id = $1 ORDER BY created_at DESC, id DESC`, deckID)
}

// FindFlashcard resolve a card through the owning deck, nil when not owned
func (repo *DeckSQL) FindFlashcard(ctx context.Context, userID, cardID string) (*FlashcardModel, error) {
	cards, err := repo.queryFlashcards(ctx, `SELECT f.id, f.deck_id, f.question, f.answer, f.created_at, f.updated_at
	FROM flashcards f JOIN decks d ON d.id = f.deck_id
	WHERE f.id = $1 AND d.user_id = $2`, cardID, userID)
	if err != nil || len(cards) == 0 {
		return nil, err
	}
	return cards[0], nil
}

// SaveFlashcards insert all cards in one transaction
func (repo *DeckSQL) SaveFlashcards(ctx context.Context, cards ...*FlashcardModel) error {
	now := time.Now().UTC()
	for i, card := range cards {
		id, err := repo.UUIDGenerator.Generate()
		if err != nil {
			return err
		}
		card.ID = id
		// keep import order stable under created_at ordering
		card.CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
		card.UpdatedAt = card.CreatedAt
	}
	return driver.WithTx(ctx, repo.Conn, nil, func(tx driver.ITransactionalDB) error {
		for _, card := range cards {
			if _, err := tx.ExecContext(ctx, `INSERT INTO flashcards (id, deck_id, question, answer, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`, card.ID, card.DeckID, card.Question, card.Answer, card.CreatedAt, card.UpdatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (repo *DeckSQL) UpdateFlashcard(ctx context.Context, card *FlashcardModel) error {
	card.UpdatedAt = time.Now().UTC()
	_, err := repo.Conn.ExecContext(ctx, `UPDATE flashcards SET question = $1, answer = $2, updated_at = $3 WHERE id = $4`,
		card.Question, card.Answer, card.UpdatedAt, card.ID)
	return err
}

func (repo *DeckSQL) DeleteFlashcard(ctx context.Context, cardID string) error {
	_, err := repo.Conn.ExecContext(ctx, `DELETE FROM flashcards WHERE id = $1`, cardID)
	return err
}
