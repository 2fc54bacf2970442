package planner

import (
	"context"
	"strings"
	"time"

	"github.com/pot-code/brain-trails/internal/infrastructure/logging"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// PlannerUseCaseImpl ...
type PlannerUseCaseImpl struct {
	SessionRepository SessionRepository
	StaleAfter        time.Duration // open sessions older than this are closed by CloseStale
	now               func() time.Time
}

var _ PlannerUseCase = &PlannerUseCaseImpl{}

// NewPlannerUseCase ...
func NewPlannerUseCase(SessionRepository SessionRepository, StaleAfter time.Duration) *PlannerUseCaseImpl {
	return &PlannerUseCaseImpl{
		SessionRepository: SessionRepository,
		StaleAfter:        StaleAfter,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func (pu *PlannerUseCaseImpl) derive(sessions []*SessionModel) []*SessionModel {
	now := pu.now()
	for _, s := range sessions {
		s.Derive(now)
	}
	return sessions
}

func (pu *PlannerUseCaseImpl) ListSessions(ctx context.Context, userID string) ([]*SessionModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "PlannerUseCaseImpl.ListSessions", "service")
	defer apmSpan.End()

	sessions, err := pu.SessionRepository.ListSessions(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	return pu.derive(sessions), nil
}

func (pu *PlannerUseCaseImpl) GetSession(ctx context.Context, userID, sessionID string) (*SessionModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "PlannerUseCaseImpl.GetSession", "service")
	defer apmSpan.End()

	session, err := pu.SessionRepository.FindSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session.Derive(pu.now()), nil
}

// CreateSession start defaults to now and type to focus
func (pu *PlannerUseCaseImpl) CreateSession(ctx context.Context, userID string, patch *SessionPatch) (*SessionModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "PlannerUseCaseImpl.CreateSession", "service")
	defer apmSpan.End()

	session := &SessionModel{
		UserID:      userID,
		StartTime:   pu.now(),
		SessionType: DefaultSessionType,
	}
	if patch.StartTime != nil {
		if t := ParseTime(*patch.StartTime); t != nil {
			session.StartTime = *t
		}
	}
	if patch.EndTime != nil {
		session.EndTime = ParseTime(*patch.EndTime)
	}
	if patch.SessionType != nil && strings.TrimSpace(*patch.SessionType) != "" {
		session.SessionType = strings.TrimSpace(*patch.SessionType)
	}
	session.Duration = patch.Duration
	session.FocusScore = patch.FocusScore
	if patch.Notes != nil {
		session.Notes = *patch.Notes
	}
	fillDuration(session, patch)

	if err := pu.SessionRepository.SaveSession(ctx, session); err != nil {
		return nil, err
	}
	return session.Derive(pu.now()), nil
}

// UpdateSession apply the present fields. An unparseable start keeps the old value, an
// unparseable end clears it.
func (pu *PlannerUseCaseImpl) UpdateSession(ctx context.Context, userID, sessionID string, patch *SessionPatch) (*SessionModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "PlannerUseCaseImpl.UpdateSession", "service")
	defer apmSpan.End()

	session, err := pu.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if patch.StartTime != nil {
		if t := ParseTime(*patch.StartTime); t != nil {
			session.StartTime = *t
		}
	}
	if patch.EndTime != nil {
		session.EndTime = ParseTime(*patch.EndTime)
	}
	if patch.Duration != nil {
		session.Duration = patch.Duration
	}
	if patch.FocusScore != nil {
		session.FocusScore = patch.FocusScore
	}
	if patch.Notes != nil {
		session.Notes = *patch.Notes
	}
	if patch.SessionType != nil {
		session.SessionType = *patch.SessionType
	}
	fillDuration(session, patch)

	if err := pu.SessionRepository.UpdateSession(ctx, session); err != nil {
		return nil, err
	}
	return session.Derive(pu.now()), nil
}

// fillDuration whole minutes between start and end unless the request carried a duration
func fillDuration(s *SessionModel, patch *SessionPatch) {
	if s.EndTime == nil || (patch.Duration != nil && *patch.Duration != 0) {
		return
	}
	minutes := minutesBetween(s.StartTime, *s.EndTime)
	s.Duration = &minutes
}

func (pu *PlannerUseCaseImpl) DeleteSession(ctx context.Context, userID, sessionID string) error {
	apmSpan, _ := apm.StartSpan(ctx, "PlannerUseCaseImpl.DeleteSession", "service")
	defer apmSpan.End()

	ok, err := pu.SessionRepository.DeleteSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// EndSession close the session now, a completed session is returned unchanged
func (pu *PlannerUseCaseImpl) EndSession(ctx context.Context, userID, sessionID string) (*SessionModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "PlannerUseCaseImpl.EndSession", "service")
	defer apmSpan.End()

	session, err := pu.GetSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.EndTime != nil {
		return session, nil
	}
	now := pu.now()
	session.EndTime = &now
	if session.Duration == nil {
		minutes := minutesBetween(session.StartTime, now)
		session.Duration = &minutes
	}
	if err := pu.SessionRepository.UpdateSession(ctx, session); err != nil {
		return nil, err
	}
	return session.Derive(now), nil
}

// WeekStart midnight UTC of the Monday of the week containing at
func WeekStart(at time.Time) time.Time {
	at = at.UTC()
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -weekday(day))
}

func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeeklyMinutes minutes studied on each day of the week containing at, Monday first
func (pu *PlannerUseCaseImpl) WeeklyMinutes(ctx context.Context, userID string, at time.Time) ([]*WeekdayMinutes, error) {
	apmSpan, _ := apm.StartSpan(ctx, "PlannerUseCaseImpl.WeeklyMinutes", "service")
	defer apmSpan.End()

	start := WeekStart(at)
	sessions, err := pu.SessionRepository.ListSessionsBetween(ctx, userID, start, start.AddDate(0, 0, 7))
	if err != nil {
		return nil, err
	}

	result := make([]*WeekdayMinutes, 7)
	for i := range result {
		result[i] = &WeekdayMinutes{
			Weekday:   i,
			Timestamp: start.AddDate(0, 0, i).UnixMilli(),
		}
	}
	for _, s := range sessions {
		result[weekday(s.StartTime)].Minutes += s.Minutes()
	}
	return result, nil
}

// CloseStale end every session left open longer than StaleAfter at start + StaleAfter
func (pu *PlannerUseCaseImpl) CloseStale(ctx context.Context) (int, error) {
	apmSpan, _ := apm.StartSpan(ctx, "PlannerUseCaseImpl.CloseStale", "service")
	defer apmSpan.End()

	if pu.StaleAfter <= 0 {
		return 0, nil
	}
	logger := logging.ExtractLoggerFromContext(ctx)
	sessions, err := pu.SessionRepository.ListOpenSessions(ctx, pu.now().Add(-pu.StaleAfter))
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, s := range sessions {
		end := s.StartTime.Add(pu.StaleAfter)
		s.EndTime = &end
		if s.Duration == nil {
			minutes := int(pu.StaleAfter / time.Minute)
			s.Duration = &minutes
		}
		if err := pu.SessionRepository.UpdateSession(ctx, s); err != nil {
			return closed, err
		}
		logger.Debug("closed stale session", zap.String("session.id", s.ID), zap.String("user.id", s.UserID))
		closed++
	}
	return closed, nil
}
