package user

import (
	"context"
	"errors"
	"time"
)

// preference defaults for accounts that never saved any
const (
	DefaultTheme            = "system"
	DefaultFocusMusic       = "lofi"
	DefaultDailyGoalMinutes = 25
)

var (
	// ErrNoSuchUser failed to validate the credential
	ErrNoSuchUser = errors.New("No such user or password is incorrect")
	// ErrDuplicatedUser unique key constraint violation
	ErrDuplicatedUser = errors.New("Username or email is already registered")
	// ErrUserTooManyRetry account locked after repeated failures
	ErrUserTooManyRetry = errors.New("Too many failed login attempts, try again later")
	// ErrUserNotFound id does not resolve to an account
	ErrUserNotFound = errors.New("User not found")
)

type UserModel struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Password    string     `json:"-"`
	DisplayName string     `json:"display_name"`
	Bio         string     `json:"bio"`
	Theme       string     `json:"theme"`
	AvatarURL   string     `json:"avatar_url"`
	LoginRetry  int        `json:"-"`
	LastLogin   *time.Time `json:"-"` // last login attempt
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`
}

type PreferencesModel struct {
	UserID               string `json:"-"`
	Theme                string `json:"theme"`
	FocusMusic           string `json:"focus_music"`
	DailyGoalMinutes     int    `json:"daily_goal_minutes"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

// DefaultPreferences preferences of a fresh account
func DefaultPreferences(userID string) *PreferencesModel {
	return &PreferencesModel{
		UserID:               userID,
		Theme:                DefaultTheme,
		FocusMusic:           DefaultFocusMusic,
		DailyGoalMinutes:     DefaultDailyGoalMinutes,
		NotificationsEnabled: true,
	}
}

// ProfilePatch nil fields are left untouched
type ProfilePatch struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=120"`
	Bio         *string `json:"bio"`
	Theme       *string `json:"theme" validate:"omitempty,max=32"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,max=255"`
}

// PreferencesPatch nil fields are left untouched
type PreferencesPatch struct {
	Theme                *string `json:"theme" validate:"omitempty,max=32"`
	FocusMusic           *string `json:"focus_music" validate:"omitempty,max=64"`
	DailyGoalMinutes     *int    `json:"daily_goal_minutes" validate:"omitempty,min=0,max=1440"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
}

type UserRepository interface {
	FindByCredential(ctx context.Context, identifier string) (*UserModel, error)
	FindByID(ctx context.Context, id string) (*UserModel, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	SaveUser(ctx context.Context, post *UserModel) error
	UpdateLogin(ctx context.Context, post *UserModel) error
	UpdateProfile(ctx context.Context, post *UserModel) error
	FindPreferences(ctx context.Context, userID string) (*PreferencesModel, error)
	SavePreferences(ctx context.Context, prefs *PreferencesModel) error
}

type UserUseCase interface {
	SignUp(ctx context.Context, post *UserModel) (*UserModel, error)
	SignIn(ctx context.Context, identifier, password string) (*UserModel, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	GetUser(ctx context.Context, id string) (*UserModel, error)
	UpdateProfile(ctx context.Context, id string, patch *ProfilePatch) (*UserModel, error)
	GetPreferences(ctx context.Context, id string) (*PreferencesModel, error)
	UpdatePreferences(ctx context.Context, id string, patch *PreferencesPatch) (*PreferencesModel, error)
}
