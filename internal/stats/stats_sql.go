package stats

import (
	"context"
	"time"

	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
)

type StatsSQL struct {
	Conn driver.ITransactionalDB
}

var _ StatsRepository = &StatsSQL{}

func NewStatsRepository(Conn driver.ITransactionalDB) *StatsSQL {
	return &StatsSQL{Conn}
}

func (repo *StatsSQL) scanInts(ctx context.Context, query string, dest []interface{}, args ...interface{}) error {
	rows, err := repo.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (repo *StatsSQL) Counts(ctx context.Context, userID string) (*Counts, error) {
	c := new(Counts)
	err := repo.scanInts(ctx, `SELECT
	(SELECT COUNT(*) FROM flashcards f JOIN decks d ON d.id = f.deck_id WHERE d.user_id = $1),
	(SELECT COUNT(*) FROM notes WHERE user_id = $2),
	(SELECT COUNT(*) FROM quizzes WHERE user_id = $3),
	(SELECT COUNT(*) FROM quiz_results WHERE user_id = $4),
	(SELECT COALESCE(SUM(duration), 0) FROM study_sessions WHERE user_id = $5)`,
		[]interface{}{&c.Flashcards, &c.Notes, &c.Quizzes, &c.QuizResults, &c.MinutesStudied},
		userID, userID, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (repo *StatsSQL) SessionTotals(ctx context.Context, userID string, since time.Time) (*SessionTotals, error) {
	st := new(SessionTotals)
	err := repo.scanInts(ctx, `SELECT
	COUNT(*),
	COALESCE(SUM(duration), 0),
	COALESCE(SUM(CASE WHEN focus_score <> 0 THEN focus_score ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN focus_score <> 0 THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN start_time >= $1 THEN 1 ELSE 0 END), 0)
	FROM study_sessions WHERE user_id = $2`,
		[]interface{}{&st.Sessions, &st.Minutes, &st.FocusSum, &st.FocusScored, &st.SessionsFrom},
		since.UTC(), userID)
	if err != nil {
		return nil, err
	}
	return st, nil
}
