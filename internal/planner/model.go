package planner

import (
	"context"
	"errors"
	"strings"
	"time"
)

// session states, derived on read
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// DefaultSessionType applied when a session is created without a type
const DefaultSessionType = "focus"

// ErrSessionNotFound session missing or owned by someone else
var ErrSessionNotFound = errors.New("Session not found")

type SessionModel struct {
	ID          string     `json:"id"`
	UserID      string     `json:"-"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	SessionType string     `json:"session_type"`
	Duration    *int       `json:"duration"` // minutes
	FocusScore  *int       `json:"focus_score"`
	Notes       string     `json:"notes"`
	Status      string     `json:"status"`
}

// Derive fill Status relative to now
func (s *SessionModel) Derive(now time.Time) *SessionModel {
	switch {
	case s.EndTime != nil:
		s.Status = StatusCompleted
	case !s.StartTime.After(now):
		s.Status = StatusInProgress
	default:
		s.Status = StatusScheduled
	}
	return s
}

// Minutes studied in the session, the stored duration wins over the time span
func (s *SessionModel) Minutes() int {
	if s.Duration != nil {
		return *s.Duration
	}
	if s.EndTime != nil {
		return minutesBetween(s.StartTime, *s.EndTime)
	}
	return 0
}

func minutesBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}

// SessionPatch request body of create and update. Timestamps are ISO 8601 strings, an
// unparseable value counts as absent.
type SessionPatch struct {
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	SessionType *string `json:"session_type" validate:"omitempty,max=50"`
	Duration    *int    `json:"duration" validate:"omitempty,min=0"`
	FocusScore  *int    `json:"focus_score" validate:"omitempty,min=0,max=100"`
	Notes       *string `json:"notes"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parse an ISO 8601 timestamp, values without a zone are UTC
func ParseTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// WeekdayMinutes minutes studied on one day of a week, Weekday 0 is Monday
type WeekdayMinutes struct {
	Weekday   int   `json:"weekday"`
	Minutes   int   `json:"minutes"`
	Timestamp int64 `json:"timestamp"` // start of day, milliseconds
}

type SessionRepository interface {
	ListSessions(ctx context.Context, userID string, limit int) ([]*SessionModel, error)
	ListSessionsBetween(ctx context.Context, userID string, from, to time.Time) ([]*SessionModel, error)
	FindSession(ctx context.Context, userID, sessionID string) (*SessionModel, error)
	SaveSession(ctx context.Context, session *SessionModel) error
	UpdateSession(ctx context.Context, session *SessionModel) error
	DeleteSession(ctx context.Context, userID, sessionID string) (bool, error)
	ListOpenSessions(ctx context.Context, startedBefore time.Time) ([]*SessionModel, error)
}

type PlannerUseCase interface {
	ListSessions(ctx context.Context, userID string) ([]*SessionModel, error)
	GetSession(ctx context.Context, userID, sessionID string) (*SessionModel, error)
	CreateSession(ctx context.Context, userID string, patch *SessionPatch) (*SessionModel, error)
	UpdateSession(ctx context.Context, userID, sessionID string, patch *SessionPatch) (*SessionModel, error)
	DeleteSession(ctx context.Context, userID, sessionID string) error
	EndSession(ctx context.Context, userID, sessionID string) (*SessionModel, error)
	WeeklyMinutes(ctx context.Context, userID string, at time.Time) ([]*WeekdayMinutes, error)
	CloseStale(ctx context.Context) (int, error)
}
