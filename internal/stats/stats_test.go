package stats

import (
	"context"
	"testing"
	"time"

	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
	"github.com/pot-code/brain-trails/internal/infrastructure/uuid"
	"github.com/pot-code/brain-trails/internal/planner"
	"github.com/pot-code/brain-trails/internal/review"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC)

type fixture struct {
	conn driver.ITransactionalDB
	su   *StatsUseCaseImpl
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	conn, err := driver.NewSQLiteConn(driver.MemoryDSN, &driver.DBConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(ctx) })
	require.NoError(t, driver.EnsureSchema(ctx, conn))

	for _, id := range []string{"ada", "grace"} {
		_, err := conn.ExecContext(ctx, `INSERT INTO users (id, username, email, password, display_name, bio, theme,
		avatar_url, login_retry, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			id, id, id+"@example.com", "x", id, "", "system", "", 0, fixedNow, fixedNow)
		require.NoError(t, err)
	}

	gen := uuid.NewNanoIDGenerator(16)
	su := NewStatsUseCase(NewStatsRepository(conn), review.NewProgressRepository(conn, gen),
		planner.NewSessionRepository(conn, gen))
	su.now = func() time.Time { return fixedNow }
	return &fixture{conn, su}
}

func (f *fixture) exec(t *testing.T, query string, args ...interface{}) {
	t.Helper()
	_, err := f.conn.ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}

func (f *fixture) session(t *testing.T, id, userID string, start time.Time, duration, focus *int) {
	t.Helper()
	f.exec(t, `INSERT INTO study_sessions (id, user_id, start_time, end_time, session_type, duration, focus_score, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, id, userID, start, nil, "focus", duration, focus, "")
}

func intPtr(i int) *int { return &i }

func TestAverageFocus(t *testing.T) {
	assert.Equal(t, 0.0, AverageFocus(0, 0))
	assert.Equal(t, 66.67, AverageFocus(200, 3))
	assert.Equal(t, 80.0, AverageFocus(160, 2))
}

func TestStatsUseCase_Overview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.exec(t, `INSERT INTO decks (id, user_id, name, created_at) VALUES ($1, $2, $3, $4)`, "d1", "ada", "Bio", fixedNow)
	for _, id := range []string{"c1", "c2", "c3"} {
		f.exec(t, `INSERT INTO flashcards (id, deck_id, question, answer, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`, id, "d1", "q", "a", fixedNow, fixedNow)
	}
	// c1 scheduled in the future, c2 overdue, c3 never reviewed
	f.exec(t, `INSERT INTO flashcard_progress (id, user_id, flashcard_id, repetitions, ease_factor, interval_days,
	last_reviewed, next_review, version) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		"p1", "ada", "c1", 2, 2.5, 6, fixedNow, fixedNow.AddDate(0, 0, 6), 1)
	f.exec(t, `INSERT INTO flashcard_progress (id, user_id, flashcard_id, repetitions, ease_factor, interval_days,
	last_reviewed, next_review, version) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		"p2", "ada", "c2", 1, 2.5, 1, fixedNow.AddDate(0, 0, -2), fixedNow.AddDate(0, 0, -1), 1)
	f.exec(t, `INSERT INTO notes (id, user_id, title, content, summary, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`, "n1", "ada", "t", "c", nil, fixedNow, fixedNow)
	f.exec(t, `INSERT INTO quizzes (id, user_id, title, time_limit, created_at) VALUES ($1, $2, $3, $4, $5)`,
		"q1", "ada", "Smart Quiz", 120, fixedNow)
	f.exec(t, `INSERT INTO quiz_results (id, user_id, quiz_id, score, answers, duration_seconds, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`, "r1", "ada", "q1", 50.0, "[]", 30, fixedNow)
	for i := 0; i < 6; i++ {
		f.session(t, string(rune('a'+i)), "ada", fixedNow.Add(-time.Duration(i)*time.Hour), intPtr(10), nil)
	}
	f.session(t, "other", "grace", fixedNow, intPtr(500), nil)

	o, err := f.su.Overview(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, 3, o.FlashcardsCreated)
	assert.Equal(t, 2, o.FlashcardsDue)
	assert.Equal(t, 1, o.NotesCreated)
	assert.Equal(t, 1, o.QuizzesCreated)
	assert.Equal(t, 1, o.QuizzesCompleted)
	assert.Equal(t, 60, o.MinutesStudied)
	require.Len(t, o.RecentSessions, RecentSessionCount)
	assert.Equal(t, "a", o.RecentSessions[0].ID)
	assert.Equal(t, planner.StatusInProgress, o.RecentSessions[0].Status)

	o, err = f.su.Overview(ctx, "grace")
	require.NoError(t, err)
	assert.Zero(t, o.FlashcardsCreated)
	assert.Equal(t, 500, o.MinutesStudied)
}

func TestStatsUseCase_Study(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.session(t, "s1", "ada", fixedNow.AddDate(0, 0, -1), intPtr(30), intPtr(90))
	f.session(t, "s2", "ada", fixedNow.AddDate(0, 0, -3), nil, intPtr(70))
	f.session(t, "s3", "ada", fixedNow.AddDate(0, 0, -10), intPtr(20), intPtr(0))

	s, err := f.su.Study(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, &StudyModel{TotalSessions: 3, TotalMinutes: 50, AverageFocus: 80, WeeklySessions: 2}, s)

	s, err = f.su.Study(ctx, "grace")
	require.NoError(t, err)
	assert.Equal(t, &StudyModel{}, s)
}
