package stats

import (
	"context"
	"math"
	"time"

	"go.elastic.co/apm"
)

// StatsUseCaseImpl ...
type StatsUseCaseImpl struct {
	StatsRepository StatsRepository
	DueCounter      DueCounter
	Sessions        RecentSessions
	now             func() time.Time
}

var _ StatsUseCase = &StatsUseCaseImpl{}

// NewStatsUseCase ...
func NewStatsUseCase(StatsRepository StatsRepository, DueCounter DueCounter, Sessions RecentSessions) *StatsUseCaseImpl {
	return &StatsUseCaseImpl{
		StatsRepository: StatsRepository,
		DueCounter:      DueCounter,
		Sessions:        Sessions,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Overview activity totals with a live due count and the newest sessions
func (su *StatsUseCaseImpl) Overview(ctx context.Context, userID string) (*OverviewModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "StatsUseCaseImpl.Overview", "service")
	defer apmSpan.End()

	now := su.now()
	counts, err := su.StatsRepository.Counts(ctx, userID)
	if err != nil {
		return nil, err
	}
	due, err := su.DueCounter.CountDue(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	recent, err := su.Sessions.ListSessions(ctx, userID, RecentSessionCount)
	if err != nil {
		return nil, err
	}
	for _, s := range recent {
		s.Derive(now)
	}

	return &OverviewModel{
		FlashcardsCreated: counts.Flashcards,
		FlashcardsDue:     due,
		NotesCreated:      counts.Notes,
		QuizzesCreated:    counts.Quizzes,
		QuizzesCompleted:  counts.QuizResults,
		MinutesStudied:    counts.MinutesStudied,
		RecentSessions:    recent,
	}, nil
}

// Study session totals, average focus over sessions with a non-zero score
func (su *StatsUseCaseImpl) Study(ctx context.Context, userID string) (*StudyModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "StatsUseCaseImpl.Study", "service")
	defer apmSpan.End()

	totals, err := su.StatsRepository.SessionTotals(ctx, userID, su.now().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	return &StudyModel{
		TotalSessions:  totals.Sessions,
		TotalMinutes:   totals.Minutes,
		AverageFocus:   AverageFocus(totals.FocusSum, totals.FocusScored),
		WeeklySessions: totals.SessionsFrom,
	}, nil
}

// AverageFocus mean rounded to two decimals, zero without scores
func AverageFocus(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(n)*100) / 100
}
