package user

import (
	"context"
	"testing"
	"time"

	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
	"github.com/pot-code/brain-trails/internal/infrastructure/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestUseCase(t *testing.T) (*UserUseCaseImpl, *UserSQL) {
	t.Helper()
	conn, err := driver.NewSQLiteConn(driver.MemoryDSN, &driver.DBConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(context.Background()) })
	require.NoError(t, driver.EnsureSchema(context.Background(), conn))

	repo := NewUserRepository(conn, uuid.NewNanoIDGenerator(16))
	uu := NewUserUseCase(repo, 3, 15*time.Minute)
	uu.HashCost = bcrypt.MinCost
	return uu, repo
}

func signUpAda(t *testing.T, uu *UserUseCaseImpl) *UserModel {
	t.Helper()
	u, err := uu.SignUp(context.Background(), &UserModel{Username: "ada", Email: " Ada@Example.com ", Password: "password1"})
	require.NoError(t, err)
	return u
}

func TestUserUseCase_SignUp(t *testing.T) {
	ctx := context.Background()
	uu, repo := newTestUseCase(t)

	u := signUpAda(t, uu)
	assert.Len(t, u.ID, 16)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "ada", u.DisplayName)
	assert.NotEqual(t, "password1", u.Password)

	prefs, err := repo.FindPreferences(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, prefs)
	assert.Equal(t, DefaultPreferences(u.ID), prefs)

	_, err = uu.SignUp(ctx, &UserModel{Username: "ada", Email: "other@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrDuplicatedUser)
	_, err = uu.SignUp(ctx, &UserModel{Username: "grace", Email: "ADA@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrDuplicatedUser)
}

func TestUserRepository_SaveUserUniqueViolation(t *testing.T) {
	_, repo := newTestUseCase(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveUser(ctx, &UserModel{Username: "ada", Email: "ada@example.com", Password: "x", Theme: DefaultTheme}))
	err := repo.SaveUser(ctx, &UserModel{Username: "ada", Email: "x@example.com", Password: "x", Theme: DefaultTheme})
	assert.ErrorIs(t, err, ErrDuplicatedUser)
}

func TestUserUseCase_SignIn(t *testing.T) {
	ctx := context.Background()
	uu, _ := newTestUseCase(t)
	signUpAda(t, uu)

	u, err := uu.SignIn(ctx, "ada", "password1")
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)

	u, err = uu.SignIn(ctx, "ADA@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)

	_, err = uu.SignIn(ctx, "nobody", "password1")
	assert.ErrorIs(t, err, ErrNoSuchUser)
}

func TestUserUseCase_SignInLock(t *testing.T) {
	ctx := context.Background()
	uu, _ := newTestUseCase(t)
	signUpAda(t, uu)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	uu.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := uu.SignIn(ctx, "ada", "wrong-password")
		assert.ErrorIs(t, err, ErrNoSuchUser)
	}
	_, err := uu.SignIn(ctx, "ada", "password1")
	assert.ErrorIs(t, err, ErrUserTooManyRetry)

	now = now.Add(16 * time.Minute)
	_, err = uu.SignIn(ctx, "ada", "password1")
	assert.NoError(t, err)
}

func TestUserUseCase_Profile(t *testing.T) {
	ctx := context.Background()
	uu, _ := newTestUseCase(t)
	ada := signUpAda(t, uu)

	bio, blank := "mathematician", "  "
	u, err := uu.UpdateProfile(ctx, ada.ID, &ProfilePatch{Bio: &bio, DisplayName: &blank})
	require.NoError(t, err)
	assert.Equal(t, "mathematician", u.Bio)
	assert.Equal(t, "ada", u.DisplayName)

	got, err := uu.GetUser(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "mathematician", got.Bio)
	assert.Equal(t, DefaultTheme, got.Theme)

	_, err = uu.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserUseCase_Preferences(t *testing.T) {
	ctx := context.Background()
	uu, _ := newTestUseCase(t)
	ada := signUpAda(t, uu)

	goal, off := 50, false
	prefs, err := uu.UpdatePreferences(ctx, ada.ID, &PreferencesPatch{DailyGoalMinutes: &goal, NotificationsEnabled: &off})
	require.NoError(t, err)
	assert.Equal(t, 50, prefs.DailyGoalMinutes)
	assert.Equal(t, DefaultFocusMusic, prefs.FocusMusic)

	got, err := uu.GetPreferences(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.DailyGoalMinutes)
	assert.False(t, got.NotificationsEnabled)

	// unknown user falls back to defaults
	got, err = uu.GetPreferences(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences("nobody"), got)
}

func TestUserUseCase_Exists(t *testing.T) {
	ctx := context.Background()
	uu, _ := newTestUseCase(t)
	signUpAda(t, uu)

	ok, err := uu.Exists(ctx, "ada", "")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = uu.Exists(ctx, "", "ADA@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = uu.Exists(ctx, "grace", "grace@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}
