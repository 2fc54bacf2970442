package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/brain-trails/internal/infrastructure/auth"
	"github.com/pot-code/brain-trails/internal/infrastructure/driver"
	"github.com/pot-code/brain-trails/internal/infrastructure/validate"
	"github.com/pot-code/brain-trails/internal/user"
)

// UserHandler account related operations
type UserHandler struct {
	JWTUtil     *auth.JWTUtil
	KVStore     driver.KeyValueDB
	UserUseCase user.UserUseCase
	Validator   validate.Validator
}

// NewUserHandler create an user controller instance
func NewUserHandler(
	JWTUtil *auth.JWTUtil,
	KVStore driver.KeyValueDB,
	UserUseCase user.UserUseCase,
	Validator validate.Validator,
) *UserHandler {
	return &UserHandler{
		JWTUtil:     JWTUtil,
		KVStore:     KVStore,
		UserUseCase: UserUseCase,
		Validator:   Validator,
	}
}

type signUpRequest struct {
	Username string `json:"username" validate:"required,notblank,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,min=8"`
}

type signInRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	User         *user.UserModel `json:"user,omitempty"`
}

func identityOf(u *user.UserModel) *auth.Identity {
	return &auth.Identity{ID: u.ID, Email: u.Email, Username: u.Username}
}

// HandleSignUp ...
func (uh *UserHandler) HandleSignUp(c echo.Context) error {
	post := new(signUpRequest)
	if ok, err := bindAndValidate(c, uh.Validator, post); !ok {
		return err
	}

	_, err := uh.UserUseCase.SignUp(c.Request().Context(), &user.UserModel{
		Username: post.Username,
		Email:    post.Email,
		Password: post.Password,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicatedUser) {
			return respondError(c, http.StatusConflict, err)
		}
		return err
	}
	return message(c, http.StatusCreated, "Account created. You can now log in.")
}

// HandleSignIn username or email plus password
func (uh *UserHandler) HandleSignIn(c echo.Context) error {
	ju := uh.JWTUtil
	post := new(signInRequest)
	if ok, err := bindAndValidate(c, uh.Validator, post); !ok {
		return err
	}
	if errs := uh.Validator.AllEmpty([]string{"username", "email"}, post.Username, post.Email); errs != nil {
		return validationFailed(c, errs)
	}
	identifier := post.Username
	if identifier == "" {
		identifier = post.Email
	}

	u, err := uh.UserUseCase.SignIn(c.Request().Context(), identifier, post.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNoSuchUser):
			return respondError(c, http.StatusUnauthorized, err)
		case errors.Is(err, user.ErrUserTooManyRetry):
			return respondError(c, http.StatusForbidden, err)
		}
		return err
	}

	// issue JWT
	access, err := ju.GenerateTokenStr(identityOf(u))
	if err != nil {
		return err
	}
	refresh, err := ju.GenerateRefreshTokenStr(identityOf(u))
	if err != nil {
		return err
	}
	ju.SetClientToken(c, access)
	return c.JSON(http.StatusOK, &tokenResponse{AccessToken: access, RefreshToken: refresh, User: u})
}

// HandleRefresh exchange a refresh token for a new access token
func (uh *UserHandler) HandleRefresh(c echo.Context) error {
	ju := uh.JWTUtil
	post := new(refreshRequest)
	if ok, err := bindAndValidate(c, uh.Validator, post); !ok {
		return err
	}

	claims, err := ju.ValidateRefresh(post.RefreshToken)
	if err != nil {
		return respondError(c, http.StatusUnauthorized, errors.New("Invalid refresh token"))
	}
	if revoked, err := uh.KVStore.Exists(c.Request().Context(), post.RefreshToken); err != nil {
		return err
	} else if revoked {
		return respondError(c, http.StatusUnauthorized, errors.New("Invalid refresh token"))
	}

	access, err := ju.GenerateTokenStr(&auth.Identity{ID: claims.UID, Email: claims.Email, Username: claims.Name})
	if err != nil {
		return err
	}
	ju.SetClientToken(c, access)
	return c.JSON(http.StatusOK, &tokenResponse{AccessToken: access})
}

// HandleSignOut blacklist the presented token until it expires
func (uh *UserHandler) HandleSignOut(c echo.Context) error {
	ju := uh.JWTUtil
	tokenStr, err := ju.ExtractToken(c)
	if err != nil {
		return c.NoContent(http.StatusUnauthorized)
	}
	token, err := ju.Validate(tokenStr)
	if err != nil {
		return c.NoContent(http.StatusUnauthorized)
	}
	ctx := c.Request().Context()
	ju.ClearClientToken(c)
	if err := uh.KVStore.SetEX(ctx, tokenStr, token.UID, token.TimeRemaining()); err != nil {
		return err
	}

	// the refresh token is optional
	post := new(refreshRequest)
	if err := c.Bind(post); err == nil && post.RefreshToken != "" {
		if refresh, err := ju.ValidateRefresh(post.RefreshToken); err == nil && refresh.UID == token.UID {
			if err := uh.KVStore.SetEX(ctx, post.RefreshToken, refresh.UID, refresh.TimeRemaining()); err != nil {
				return err
			}
		}
	}
	return message(c, http.StatusOK, "Signed out")
}

// HandleMe the caller and their preferences
func (uh *UserHandler) HandleMe(c echo.Context) error {
	ctx := c.Request().Context()
	uid := currentUser(c, uh.JWTUtil)

	u, err := uh.UserUseCase.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return respondError(c, http.StatusNotFound, err)
		}
		return err
	}
	prefs, err := uh.UserUseCase.GetPreferences(ctx, uid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"user": u, "preferences": prefs})
}

func (uh *UserHandler) HandleUpdatePreferences(c echo.Context) error {
	post := new(user.PreferencesPatch)
	if ok, err := bindAndValidate(c, uh.Validator, post); !ok {
		return err
	}
	prefs, err := uh.UserUseCase.UpdatePreferences(c.Request().Context(), currentUser(c, uh.JWTUtil), post)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"preferences": prefs})
}

func (uh *UserHandler) HandleGetProfile(c echo.Context) error {
	u, err := uh.UserUseCase.GetUser(c.Request().Context(), currentUser(c, uh.JWTUtil))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return respondError(c, http.StatusNotFound, err)
		}
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (uh *UserHandler) HandleUpdateProfile(c echo.Context) error {
	post := new(user.ProfilePatch)
	if ok, err := bindAndValidate(c, uh.Validator, post); !ok {
		return err
	}
	u, err := uh.UserUseCase.UpdateProfile(c.Request().Context(), currentUser(c, uh.JWTUtil), post)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return respondError(c, http.StatusNotFound, err)
		}
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// HandleUserExists ...
func (uh *UserHandler) HandleUserExists(c echo.Context) error {
	username, email := c.QueryParam("username"), c.QueryParam("email")
	if errs := uh.Validator.AllEmpty([]string{"username", "email"}, username, email); errs != nil {
		return c.JSON(http.StatusBadRequest,
			NewRESTValidationError(http.StatusBadRequest, "Failed to validate params", errs).SetTraceID(traceID(c)))
	}

	existing, err := uh.UserUseCase.Exists(c.Request().Context(), username, email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, existing)
}
