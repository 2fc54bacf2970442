package deck

import (
	"context"
	"io"
	"strings"

	"go.elastic.co/apm"
)

// DeckUseCaseImpl ...
type DeckUseCaseImpl struct {
	DeckRepository DeckRepository
	DueCounts      DueCountInvalidator // optional
}

var _ DeckUseCase = &DeckUseCaseImpl{}

// NewDeckUseCase ...
func NewDeckUseCase(DeckRepository DeckRepository, DueCounts DueCountInvalidator) *DeckUseCaseImpl {
	return &DeckUseCaseImpl{DeckRepository, DueCounts}
}

// cardsChanged new or removed cards change what is due
func (du *DeckUseCaseImpl) cardsChanged(ctx context.Context, userID string) {
	if du.DueCounts != nil {
		du.DueCounts.InvalidateDueCount(ctx, userID)
	}
}

func (du *DeckUseCaseImpl) ListDecks(ctx context.Context, userID string) ([]*DeckModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "DeckUseCaseImpl.ListDecks", "service")
	defer apmSpan.End()

	return du.DeckRepository.ListDecks(ctx, userID)
}

func (du *DeckUseCaseImpl) CreateDeck(ctx context.Context, userID, name string) (*DeckModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "DeckUseCaseImpl.CreateDeck", "service")
	defer apmSpan.End()

	deck := &DeckModel{UserID: userID, Name: strings.TrimSpace(name)}
	if err := du.DeckRepository.SaveDeck(ctx, deck); err != nil {
		return nil, err
	}
	return deck, nil
}

func (du *DeckUseCaseImpl) RenameDeck(ctx context.Context, userID, deckID, name string) (*DeckModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "DeckUseCaseImpl.RenameDeck", "service")
	defer apmSpan.End()

	deck, err := du.ownedDeck(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	deck.Name = strings.TrimSpace(name)
	if err := du.DeckRepository.UpdateDeck(ctx, deck); err != nil {
		return nil, err
	}
	return deck, nil
}

func (du *DeckUseCaseImpl) DeleteDeck(ctx context.Context, userID, deckID string) error {
	apmSpan, _ := apm.StartSpan(ctx, "DeckUseCaseImpl.DeleteDeck", "service")
	defer apmSpan.End()

	ok, err := du.DeckRepository.DeleteDeck(ctx, userID, deckID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrDeckNotFound
	}
	du.cardsChanged(ctx, userID)
	return nil
}

func (du *DeckUseCaseImpl) ownedDeck(ctx context.Context, userID, deckID string) (*DeckModel, error) {
	deck, err := du.DeckRepository.FindDeck(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	if deck == nil {
		return nil, ErrDeckNotFound
	}
	return deck, nil
}

func (du *DeckUseCaseImpl) ListFlashcards(ctx context.Context, userID, deckID string) ([]*FlashcardModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "DeckUseCaseImpl.ListFlashcards", "service")
	defer apmSpan.End()

	if _, err := du.ownedDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}
	return du.DeckRepository.ListFlashcards(ctx, deckID)
}

func (du *DeckUseCaseImpl) CreateFlashcard(ctx context.Context, userID, deckID, question, answer string) (*FlashcardModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "DeckUseCaseImpl.CreateFlashcard", "service")
	defer apmSpan.End()

	if _, err := du.ownedDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}
	card := &FlashcardModel{
		DeckID:   deckID,
		Question: strings.TrimSpace(question),
		Answer:   strings.TrimSpace(answer),
	}
	if err := du.DeckRepository.SaveFlashcards(ctx, card); err != nil {
		return nil, err
	}
	du.cardsChanged(ctx, userID)
	return card, nil
}

// GetFlashcard ErrFlashcardNotFound unless the card's deck belongs to userID
func (du *DeckUseCaseImpl) GetFlashcard(ctx context.Context, userID, cardID string) (*FlashcardModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "DeckUseCaseImpl.GetFlashcard", "service")
	defer apmSpan.End()

	card, err := du.DeckRepository.FindFlashcard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrFlashcardNotFound
	}
	return card, nil
}

func (du *DeckUseCaseImpl) UpdateFlashcard(ctx context.Context, userID, cardID string, patch *FlashcardPatch) (*FlashcardModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "DeckUseCaseImpl.UpdateFlashcard", "service")
	defer apmSpan.End()

	card, err := du.GetFlashcard(ctx, userID, cardID)
	if err != nil {
		return nil, err
	}
	if patch.Question != nil {
		card.Question = strings.TrimSpace(*patch.Question)
	}
	if patch.Answer != nil {
		card.Answer = strings.TrimSpace(*patch.Answer)
	}
	if err := du.DeckRepository.UpdateFlashcard(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

func (du *DeckUseCaseImpl) DeleteFlashcard(ctx context.Context, userID, cardID string) error {
	apmSpan, _ := apm.StartSpan(ctx, "DeckUseCaseImpl.DeleteFlashcard", "service")
	defer apmSpan.End()

	if _, err := du.GetFlashcard(ctx, userID, cardID); err != nil {
		return err
	}
	if err := du.DeckRepository.DeleteFlashcard(ctx, cardID); err != nil {
		return err
	}
	du.cardsChanged(ctx, userID)
	return nil
}

// ImportFlashcards add the cards of an xlsx workbook to the deck
func (du *DeckUseCaseImpl) ImportFlashcards(ctx context.Context, userID, deckID string, workbook io.Reader) (*ImportResult, error) {
	apmSpan, _ := apm.StartSpan(ctx, "DeckUseCaseImpl.ImportFlashcards", "service")
	defer apmSpan.End()

	if _, err := du.ownedDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}
	cards, result, err := parseWorkbook(deckID, workbook)
	if err != nil {
		return nil, err
	}
	if len(cards) > 0 {
		if err := du.DeckRepository.SaveFlashcards(ctx, cards...); err != nil {
			return nil, err
		}
		du.cardsChanged(ctx, userID)
	}
	result.Created = len(cards)
	return result, nil
}
