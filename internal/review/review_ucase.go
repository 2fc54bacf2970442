package review

import (
	"context"
	"errors"
	"time"

	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
	"github.com/pot-code/brain-trails/internal/infrastructure/logging"
	"github.com/pot-code/brain-trails/internal/srs"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// maxReviewAttempts bound on optimistic retries of one review
const maxReviewAttempts = 5

// ReviewUseCaseImpl ...
type ReviewUseCaseImpl struct {
	ProgressRepository ProgressRepository
	Flashcards         FlashcardFinder
	DueCounts          *DueCountCache
	Scheduler          *srs.Scheduler
	DueLimit           int
	now                srs.Clock
}

var _ ReviewUseCase = &ReviewUseCaseImpl{}

// NewReviewUseCase ...
func NewReviewUseCase(
	ProgressRepository ProgressRepository,
	Flashcards FlashcardFinder,
	KVStore driver.KeyValueDB,
	DueLimit int,
	CacheTTL time.Duration,
) *ReviewUseCaseImpl {
	clock := func() time.Time { return time.Now().UTC() }
	return &ReviewUseCaseImpl{
		ProgressRepository: ProgressRepository,
		Flashcards:         Flashcards,
		DueCounts:          NewDueCountCache(KVStore, CacheTTL),
		Scheduler:          srs.NewScheduler(clock),
		DueLimit:           DueLimit,
		now:                clock,
	}
}

// Review grade a flashcard and persist the new schedule
func (ru *ReviewUseCaseImpl) Review(ctx context.Context, userID, cardID string, quality int) (*ReviewResult, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ReviewUseCaseImpl.Review", "service")
	defer apmSpan.End()

	if _, err := ru.Flashcards.GetFlashcard(ctx, userID, cardID); err != nil {
		return nil, err
	}

	repo := ru.ProgressRepository
	logger := logging.ExtractLoggerFromContext(ctx)
	for attempt := 1; attempt <= maxReviewAttempts; attempt++ {
		current, err := repo.FindProgress(ctx, userID, cardID)
		if err != nil {
			return nil, err
		}

		if current == nil {
			p := &ProgressModel{UserID: userID, FlashcardID: cardID}
			p.Progress = ru.Scheduler.Review(srs.NewProgress(), quality)
			err := repo.InsertProgress(ctx, p)
			if errors.Is(err, ErrProgressExists) {
				logger.Debug("first review raced, retrying as update", zap.String("flashcard.id", cardID), zap.Int("attempt", attempt))
				continue
			}
			if err != nil {
				return nil, err
			}
			ru.DueCounts.InvalidateDueCount(ctx, userID)
			return newReviewResult(p), nil
		}

		current.Progress = ru.Scheduler.Review(current.Progress, quality)
		ok, err := repo.UpdateProgress(ctx, current)
		if err != nil {
			return nil, err
		}
		if ok {
			ru.DueCounts.InvalidateDueCount(ctx, userID)
			return newReviewResult(current), nil
		}
		logger.Debug("progress version moved, retrying", zap.String("flashcard.id", cardID), zap.Int("attempt", attempt))
	}
	return nil, ErrConcurrentReview
}

// NextDue the card that has been due the longest
func (ru *ReviewUseCaseImpl) NextDue(ctx context.Context, userID string) (*DueCard, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ReviewUseCaseImpl.NextDue", "service")
	defer apmSpan.End()

	cards, err := ru.ProgressRepository.ListDue(ctx, userID, ru.now(), 1)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, ErrNoCardsDue
	}
	return cards[0], nil
}

// ListDue limit <= 0 uses DueLimit
func (ru *ReviewUseCaseImpl) ListDue(ctx context.Context, userID string, limit int) ([]*DueCard, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ReviewUseCaseImpl.ListDue", "service")
	defer apmSpan.End()

	if limit <= 0 {
		limit = ru.DueLimit
	}
	return ru.ProgressRepository.ListDue(ctx, userID, ru.now(), limit)
}

// DueCount cached count, computed live on a miss
func (ru *ReviewUseCaseImpl) DueCount(ctx context.Context, userID string) (int, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ReviewUseCaseImpl.DueCount", "service")
	defer apmSpan.End()

	if n, ok := ru.DueCounts.Get(ctx, userID); ok {
		return n, nil
	}
	return ru.cacheDueCount(ctx, userID)
}

func (ru *ReviewUseCaseImpl) cacheDueCount(ctx context.Context, userID string) (int, error) {
	n, err := ru.ProgressRepository.CountDue(ctx, userID, ru.now())
	if err != nil {
		return 0, err
	}
	ru.DueCounts.Set(ctx, userID, n)
	return n, nil
}

// RefreshDueCounts recompute the cached due count of every learner
func (ru *ReviewUseCaseImpl) RefreshDueCounts(ctx context.Context) error {
	apmSpan, _ := apm.StartSpan(ctx, "ReviewUseCaseImpl.RefreshDueCounts", "service")
	defer apmSpan.End()

	users, err := ru.ProgressRepository.ListLearners(ctx)
	if err != nil {
		return err
	}
	for _, id := range users {
		if _, err := ru.cacheDueCount(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
