package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
)

// token kinds
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var (
	// ErrNoToken no token in header or cookie
	ErrNoToken = errors.New("no token presented")
	// ErrTokenKind an access token was used where a refresh token is expected or vice versa
	ErrTokenKind = errors.New("wrong token kind")
)

// Identity the subject a token is issued to
type Identity struct {
	ID       string
	Email    string
	Username string
}

// AppTokenClaims .
type AppTokenClaims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`

	jwt.StandardClaims
}

// TimeRemaining remaining time before the token get expired
func (tk *AppTokenClaims) TimeRemaining() time.Duration {
	exp := time.Unix(tk.ExpiresAt, 0)
	now := time.Now()

	if exp.Before(now) {
		return 0
	}
	return exp.Sub(now)
}

// JWTUtil .
type JWTUtil struct {
	secret         []byte
	tokenName      string
	timeout        time.Duration
	refreshTimeout time.Duration
	method         jwt.SigningMethod
}

// NewJWTUtil create a JWTUtil instance
func NewJWTUtil(method, secret, tokenName string, timeout, refreshTimeout time.Duration) *JWTUtil {
	var signMethod jwt.SigningMethod
	switch method {
	case "HS512":
		signMethod = jwt.SigningMethodHS512
	default:
		signMethod = jwt.SigningMethodHS256
	}
	return &JWTUtil{
		method:         signMethod,
		secret:         []byte(secret),
		tokenName:      tokenName,
		timeout:        timeout,
		refreshTimeout: refreshTimeout,
	}
}

// Sign sign token
func (ju *JWTUtil) Sign(claims *AppTokenClaims) (string, error) {
	token := jwt.NewWithClaims(ju.method, claims)
	return token.SignedString(ju.secret)
}

// Validate validate access token string with secret and return AppTokenClaims
func (ju *JWTUtil) Validate(tokenStr string) (*AppTokenClaims, error) {
	return ju.validateKind(tokenStr, KindAccess)
}

// ValidateRefresh validate a refresh token string
func (ju *JWTUtil) ValidateRefresh(tokenStr string) (*AppTokenClaims, error) {
	return ju.validateKind(tokenStr, KindRefresh)
}

func (ju *JWTUtil) validateKind(tokenStr, kind string) (*AppTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AppTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != ju.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return ju.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims := token.Claims.(*AppTokenClaims)
	if claims.Kind != kind {
		return nil, ErrTokenKind
	}
	return claims, nil
}

// GenerateTokenStr generate access token for the identity
func (ju *JWTUtil) GenerateTokenStr(id *Identity) (string, error) {
	return ju.issue(id, KindAccess, ju.timeout)
}

// GenerateRefreshTokenStr generate refresh token for the identity
func (ju *JWTUtil) GenerateRefreshTokenStr(id *Identity) (string, error) {
	return ju.issue(id, KindRefresh, ju.refreshTimeout)
}

func (ju *JWTUtil) issue(id *Identity, kind string, lifetime time.Duration) (string, error) {
	now := time.Now()
	return ju.Sign(&AppTokenClaims{
		UID:   id.ID,
		Email: id.Email,
		Name:  id.Username,
		Kind:  kind,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(lifetime).Unix(),
			Subject:   id.ID,
		},
	})
}

// RefreshToken push token expiration to now + timeout
func (ju *JWTUtil) RefreshToken(claims *AppTokenClaims) *AppTokenClaims {
	claims.ExpiresAt = time.Now().Add(ju.timeout).Unix()
	return claims
}

// SetClientToken set token in client cookie
func (ju *JWTUtil) SetClientToken(c echo.Context, tokenStr string) {
	c.SetCookie(&http.Cookie{
		Name:     ju.tokenName,
		Value:    tokenStr,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ju.timeout),
	})
}

// ClearClientToken clear client cookie
func (ju *JWTUtil) ClearClientToken(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     ju.tokenName,
		Value:    "",
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

// SetContextToken set token in App context
func (ju *JWTUtil) SetContextToken(c echo.Context, token *AppTokenClaims) {
	c.Set(ju.tokenName, token)
}

// GetContextToken get token from App context
func (ju *JWTUtil) GetContextToken(c echo.Context) *AppTokenClaims {
	v, ok := c.Get(ju.tokenName).(*AppTokenClaims)
	if ok {
		return v
	}
	return nil
}

// ExtractToken get token string from the Authorization header, falling back to the cookie
func (ju *JWTUtil) ExtractToken(c echo.Context) (string, error) {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && strings.TrimSpace(parts[1]) != "" {
			return strings.TrimSpace(parts[1]), nil
		}
		return "", ErrNoToken
	}
	token, err := c.Cookie(ju.tokenName)
	if err != nil || token.Value == "" {
		return "", ErrNoToken
	}
	return token.Value, nil
}
