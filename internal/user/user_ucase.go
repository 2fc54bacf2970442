package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.elastic.co/apm"
	"golang.org/x/crypto/bcrypt"
)

// UserUseCaseImpl ...
type UserUseCaseImpl struct {
	UserRepository UserRepository
	MaximumRetry   int           // failed attempts before the account is locked, 0 disables locking
	RetryTimeout   time.Duration // lock duration
	HashCost       int
	now            func() time.Time
}

var _ UserUseCase = &UserUseCaseImpl{}

// NewUserUseCase ...
func NewUserUseCase(
	UserRepository UserRepository,
	MaximumRetry int,
	RetryTimeout time.Duration,
) *UserUseCaseImpl {
	return &UserUseCaseImpl{
		UserRepository: UserRepository,
		MaximumRetry:   MaximumRetry,
		RetryTimeout:   RetryTimeout,
		HashCost:       bcrypt.DefaultCost,
		now:            time.Now,
	}
}

// SignUp create a user, post.Password holds the plain password
func (uu *UserUseCaseImpl) SignUp(ctx context.Context, post *UserModel) (*UserModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.SignUp", "service")
	defer apmSpan.End()

	ur := uu.UserRepository
	post.Username = strings.TrimSpace(post.Username)
	post.Email = strings.ToLower(strings.TrimSpace(post.Email))

	// search for existence
	if ok, err := ur.Exists(ctx, post.Username, post.Email); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrDuplicatedUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(post.Password), uu.HashCost)
	if err != nil {
		return nil, err
	}
	post.Password = string(hash)
	if post.DisplayName == "" {
		post.DisplayName = post.Username
	}
	if post.Theme == "" {
		post.Theme = DefaultTheme
	}

	if err := ur.SaveUser(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// SignIn check credential, counting failures against the lock threshold
func (uu *UserUseCaseImpl) SignIn(ctx context.Context, identifier, password string) (*UserModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.SignIn", "service")
	defer apmSpan.End()

	ur := uu.UserRepository
	user, err := ur.FindByCredential(ctx, strings.TrimSpace(identifier))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNoSuchUser
	}

	now := uu.now().UTC()
	if uu.MaximumRetry > 0 && user.LoginRetry >= uu.MaximumRetry {
		if user.LastLogin != nil && now.Before(user.LastLogin.Add(uu.RetryTimeout)) {
			return nil, ErrUserTooManyRetry
		}
		// lock expired
		user.LoginRetry = 0
	}

	user.LastLogin = &now
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, err
		}
		user.LoginRetry++
		if err := ur.UpdateLogin(ctx, user); err != nil {
			return nil, err
		}
		return nil, ErrNoSuchUser
	}

	// reset retry number
	user.LoginRetry = 0
	if err := ur.UpdateLogin(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Exists find if user exists in database
func (uu *UserUseCaseImpl) Exists(ctx context.Context, username, email string) (bool, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.Exists", "service")
	defer apmSpan.End()

	return uu.UserRepository.Exists(ctx, strings.TrimSpace(username), strings.TrimSpace(email))
}

func (uu *UserUseCaseImpl) GetUser(ctx context.Context, id string) (*UserModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.GetUser", "service")
	defer apmSpan.End()

	user, err := uu.UserRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}
	return user, nil
}

func (uu *UserUseCaseImpl) UpdateProfile(ctx context.Context, id string, patch *ProfilePatch) (*UserModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.UpdateProfile", "service")
	defer apmSpan.End()

	user, err := uu.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*patch.DisplayName)
		if user.DisplayName == "" {
			user.DisplayName = user.Username
		}
	}
	if patch.Bio != nil {
		user.Bio = *patch.Bio
	}
	if patch.Theme != nil {
		user.Theme = *patch.Theme
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = *patch.AvatarURL
	}
	if err := uu.UserRepository.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetPreferences stored preferences or the defaults
func (uu *UserUseCaseImpl) GetPreferences(ctx context.Context, id string) (*PreferencesModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.GetPreferences", "service")
	defer apmSpan.End()

	prefs, err := uu.UserRepository.FindPreferences(ctx, id)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		return DefaultPreferences(id), nil
	}
	return prefs, nil
}

func (uu *UserUseCaseImpl) UpdatePreferences(ctx context.Context, id string, patch *PreferencesPatch) (*PreferencesModel, error) {
	apmSpan, _ := apm.StartSpan(ctx, "UserUseCaseImpl.UpdatePreferences", "service")
	defer apmSpan.End()

	prefs, err := uu.GetPreferences(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Theme != nil {
		prefs.Theme = *patch.Theme
	}
	if patch.FocusMusic != nil {
		prefs.FocusMusic = *patch.FocusMusic
	}
	if patch.DailyGoalMinutes != nil {
		prefs.DailyGoalMinutes = *patch.DailyGoalMinutes
	}
	if patch.NotificationsEnabled != nil {
		prefs.NotificationsEnabled = *patch.NotificationsEnabled
	}
	if err := uu.UserRepository.SavePreferences(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}
