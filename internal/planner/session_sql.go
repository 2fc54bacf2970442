package planner

import (
	"context"
	"time"

	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
	"github.com/pot-code/brain-trails/internal/infrastructure/uuid"
)

type SessionSQL struct {
	Conn          driver.ITransactionalDB
	UUIDGenerator uuid.Generator
}

var _ SessionRepository = &SessionSQL{}

func NewSessionRepository(Conn driver.ITransactionalDB, UUIDGenerator uuid.Generator) *SessionSQL {
	return &SessionSQL{Conn, UUIDGenerator}
}

const sessionColumns = `id, user_id, start_time, end_time, session_type, duration, focus_score, notes`

func (repo *SessionSQL) query(ctx context.Context, query string, args ...interface{}) ([]*SessionModel, error) {
	rows, err := repo.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*SessionModel, 0)
	for rows.Next() {
		var (
			s     = new(SessionModel)
			notes *string
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.StartTime, &s.EndTime, &s.SessionType, &s.Duration,
			&s.FocusScore, &notes); err != nil {
			return nil, err
		}
		s.StartTime = s.StartTime.UTC()
		s.EndTime = utc(s.EndTime)
		if notes != nil {
			s.Notes = *notes
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// ListSessions newest start first, limit <= 0 returns everything
func (repo *SessionSQL) ListSessions(ctx context.Context, userID string, limit int) ([]*SessionModel, error) {
	if limit > 0 {
		return repo.query(ctx, `SELECT `+sessionColumns+` FROM study_sessions WHERE user_id = $1
		ORDER BY start_time DESC, id DESC LIMIT $2`, userID, limit)
	}
	return repo.query(ctx, `SELECT `+sessionColumns+` FROM study_sessions WHERE user_id = $1
	ORDER BY start_time DESC, id DESC`, userID)
}

// ListSessionsBetween sessions starting in [from, to)
func (repo *SessionSQL) ListSessionsBetween(ctx context.Context, userID string, from, to time.Time) ([]*SessionModel, error) {
	return repo.query(ctx, `SELECT `+sessionColumns+` FROM study_sessions
	WHERE user_id = $1 AND start_time >= $2 AND start_time < $3 ORDER BY start_time`, userID, from.UTC(), to.UTC())
}

func (repo *SessionSQL) FindSession(ctx context.Context, userID, sessionID string) (*SessionModel, error) {
	sessions, err := repo.query(ctx, `SELECT `+sessionColumns+` FROM study_sessions WHERE id = $1 AND user_id = $2`,
		sessionID, userID)
	if err != nil || len(sessions) == 0 {
		return nil, err
	}
	return sessions[0], nil
}

func (repo *SessionSQL) SaveSession(ctx context.Context, s *SessionModel) error {
	id, err := repo.UUIDGenerator.Generate()
	if err != nil {
		return err
	}
	s.ID = id
	_, err = repo.Conn.ExecContext(ctx, `INSERT INTO study_sessions (`+sessionColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, s.ID, s.UserID, s.StartTime.UTC(), utc(s.EndTime), s.SessionType,
		s.Duration, s.FocusScore, s.Notes)
	return err
}

func (repo *SessionSQL) UpdateSession(ctx context.Context, s *SessionModel) error {
	_, err := repo.Conn.ExecContext(ctx, `UPDATE study_sessions
	SET start_time = $1, end_time = $2, session_type = $3, duration = $4, focus_score = $5, notes = $6
	WHERE id = $7 AND user_id = $8`, s.StartTime.UTC(), utc(s.EndTime), s.SessionType, s.Duration, s.FocusScore,
		s.Notes, s.ID, s.UserID)
	return err
}

func (repo *SessionSQL) DeleteSession(ctx context.Context, userID, sessionID string) (bool, error) {
	res, err := repo.Conn.ExecContext(ctx, `DELETE FROM study_sessions WHERE id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListOpenSessions sessions of every user without an end that started before the given time
func (repo *SessionSQL) ListOpenSessions(ctx context.Context, startedBefore time.Time) ([]*SessionModel, error) {
	return repo.query(ctx, `SELECT `+sessionColumns+` FROM study_sessions
	WHERE end_time IS NULL AND start_time <= $1 ORDER BY start_time`, startedBefore.UTC())
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
