package planner

import (
	"context"
	"testing"
	"time"

	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
	"github.com/pot-code/brain-trails/internal/infrastructure/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday
var fixedNow = time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC)

func newTestUseCase(t *testing.T) *PlannerUseCaseImpl {
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
	pu := NewPlannerUseCase(NewSessionRepository(conn, uuid.NewNanoIDGenerator(16)), 4*time.Hour)
	pu.now = func() time.Time { return fixedNow }
	return pu
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want *time.Time
	}{
		{"2024-03-06T10:00:00Z", &time.Time{}},
		{"2024-03-06T12:00:00+02:00", &time.Time{}},
		{"2024-03-06T10:00:00", &time.Time{}},
		{"2024-03-06T10:00", &time.Time{}},
		{"not a time", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseTime(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC), *got)
		})
	}
}

func TestSessionModel_Derive(t *testing.T) {
	end := fixedNow
	assert.Equal(t, StatusCompleted, (&SessionModel{StartTime: fixedNow.Add(time.Hour), EndTime: &end}).Derive(fixedNow).Status)
	assert.Equal(t, StatusInProgress, (&SessionModel{StartTime: fixedNow}).Derive(fixedNow).Status)
	assert.Equal(t, StatusScheduled, (&SessionModel{StartTime: fixedNow.Add(time.Minute)}).Derive(fixedNow).Status)
}

func TestPlannerUseCase_CreateSession(t *testing.T) {
	ctx := context.Background()
	pu := newTestUseCase(t)

	s, err := pu.CreateSession(ctx, "ada", &SessionPatch{StartTime: strPtr("garbage")})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, s.StartTime)
	assert.Equal(t, DefaultSessionType, s.SessionType)
	assert.Equal(t, StatusInProgress, s.Status)
	assert.Nil(t, s.Duration)

	s, err = pu.CreateSession(ctx, "ada", &SessionPatch{
		StartTime:   strPtr("2024-03-06T09:00:00Z"),
		EndTime:     strPtr("2024-03-06T09:50:30Z"),
		SessionType: strPtr("review"),
		Notes:       strPtr("chapter 3"),
	})
	require.NoError(t, err)
	require.NotNil(t, s.Duration)
	assert.Equal(t, 50, *s.Duration)
	assert.Equal(t, StatusCompleted, s.Status)

	got, err := pu.GetSession(ctx, "ada", s.ID)
	require.NoError(t, err)
	assert.Equal(t, "review", got.SessionType)
	assert.Equal(t, "chapter 3", got.Notes)
	assert.Equal(t, time.Date(2024, 3, 6, 9, 50, 30, 0, time.UTC), *got.EndTime)

	_, err = pu.GetSession(ctx, "grace", s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	list, err := pu.ListSessions(ctx, "ada")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, fixedNow, list[0].StartTime)
}

func TestPlannerUseCase_UpdateSession(t *testing.T) {
	ctx := context.Background()
	pu := newTestUseCase(t)

	s, err := pu.CreateSession(ctx, "ada", &SessionPatch{StartTime: strPtr("2024-03-07T09:00:00Z")})
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, s.Status)

	s, err = pu.UpdateSession(ctx, "ada", s.ID, &SessionPatch{EndTime: strPtr("2024-03-07T10:30:00Z"), FocusScore: intPtr(80)})
	require.NoError(t, err)
	assert.Equal(t, 90, *s.Duration)
	assert.Equal(t, 80, *s.FocusScore)

	// an explicit duration wins over the time span
	s, err = pu.UpdateSession(ctx, "ada", s.ID, &SessionPatch{Duration: intPtr(45)})
	require.NoError(t, err)
	assert.Equal(t, 45, *s.Duration)

	// unparseable end clears it, unparseable start is ignored
	s, err = pu.UpdateSession(ctx, "ada", s.ID, &SessionPatch{StartTime: strPtr("nope"), EndTime: strPtr("nope")})
	require.NoError(t, err)
	assert.Nil(t, s.EndTime)
	assert.Equal(t, time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC), s.StartTime)
	assert.Equal(t, StatusScheduled, s.Status)

	_, err = pu.UpdateSession(ctx, "grace", s.ID, &SessionPatch{})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPlannerUseCase_EndAndDelete(t *testing.T) {
	ctx := context.Background()
	pu := newTestUseCase(t)

	s, err := pu.CreateSession(ctx, "ada", &SessionPatch{StartTime: strPtr("2024-03-06T14:20:00Z")})
	require.NoError(t, err)

	s, err = pu.EndSession(ctx, "ada", s.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s.Status)
	assert.Equal(t, fixedNow, *s.EndTime)
	assert.Equal(t, 40, *s.Duration)

	assert.ErrorIs(t, pu.DeleteSession(ctx, "grace", s.ID), ErrSessionNotFound)
	require.NoError(t, pu.DeleteSession(ctx, "ada", s.ID))
	_, err = pu.EndSession(ctx, "ada", s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestPlannerUseCase_CloseStale(t *testing.T) {
	ctx := context.Background()
	pu := newTestUseCase(t)

	stale, err := pu.CreateSession(ctx, "ada", &SessionPatch{StartTime: strPtr("2024-03-06T08:00:00Z")})
	require.NoError(t, err)
	fresh, err := pu.CreateSession(ctx, "grace", &SessionPatch{StartTime: strPtr("2024-03-06T14:00:00Z")})
	require.NoError(t, err)

	n, err := pu.CloseStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := pu.GetSession(ctx, "ada", stale.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC), *got.EndTime)
	assert.Equal(t, 240, *got.Duration)

	got, err = pu.GetSession(ctx, "grace", fresh.ID)
	require.NoError(t, err)
	assert.Nil(t, got.EndTime)
}

func TestPlannerUseCase_WeeklyMinutes(t *testing.T) {
	ctx := context.Background()
	pu := newTestUseCase(t)

	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), WeekStart(fixedNow))
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), WeekStart(time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)))

	for _, p := range []*SessionPatch{
		{StartTime: strPtr("2024-03-04T09:00:00Z"), Duration: intPtr(30)},
		{StartTime: strPtr("2024-03-04T18:00:00Z"), EndTime: strPtr("2024-03-04T18:25:00Z")},
		{StartTime: strPtr("2024-03-10T10:00:00Z"), Duration: intPtr(15)},
		{StartTime: strPtr("2024-03-11T10:00:00Z"), Duration: intPtr(99)}, // next week
	} {
		_, err := pu.CreateSession(ctx, "ada", p)
		require.NoError(t, err)
	}

	week, err := pu.WeeklyMinutes(ctx, "ada", fixedNow)
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.Equal(t, 55, week[0].Minutes)
	assert.Equal(t, 0, week[2].Minutes)
	assert.Equal(t, 15, week[6].Minutes)
	assert.Equal(t, 6, week[6].Weekday)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC).UnixMilli(), week[0].Timestamp)
}
