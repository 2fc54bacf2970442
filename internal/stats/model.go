package stats

import (
	"context"
	"time"

	"github.com/pot-code/brain-trails/internal/planner"
)

// RecentSessionCount sessions listed in the overview
const RecentSessionCount = 5

type OverviewModel struct {
	FlashcardsCreated int                     `json:"flashcards_created"`
	FlashcardsDue     int                     `json:"flashcards_due"`
	NotesCreated      int                     `json:"notes_created"`
	QuizzesCreated    int                     `json:"quizzes_created"`
	QuizzesCompleted  int                     `json:"quizzes_completed"`
	MinutesStudied    int                     `json:"minutes_studied"`
	RecentSessions    []*planner.SessionModel `json:"recent_sessions"`
}

type StudyModel struct {
	TotalSessions  int     `json:"total_sessions"`
	TotalMinutes   int     `json:"total_minutes"`
	AverageFocus   float64 `json:"average_focus"`
	WeeklySessions int     `json:"weekly_sessions"`
}

// Counts per user totals read straight from storage
type Counts struct {
	Flashcards     int
	Notes          int
	Quizzes        int
	QuizResults    int
	MinutesStudied int
}

// SessionTotals aggregate over every session of a user
type SessionTotals struct {
	Sessions     int
	Minutes      int
	FocusSum     int
	FocusScored  int
	SessionsFrom int // sessions starting at or after the requested time
}

type StatsRepository interface {
	Counts(ctx context.Context, userID string) (*Counts, error)
	SessionTotals(ctx context.Context, userID string, since time.Time) (*SessionTotals, error)
}

// DueCounter live number of cards due for a user
type DueCounter interface {
	CountDue(ctx context.Context, userID string, at time.Time) (int, error)
}

// RecentSessions newest sessions of a user
type RecentSessions interface {
	ListSessions(ctx context.Context, userID string, limit int) ([]*planner.SessionModel, error)
}

type StatsUseCase interface {
	Overview(ctx context.Context, userID string) (*OverviewModel, error)
	Study(ctx context.Context, userID string) (*StudyModel, error)
}
