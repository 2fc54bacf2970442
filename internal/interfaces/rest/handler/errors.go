package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/brain-trails/internal/infrastructure/auth"
	"github.com/pot-code/brain-trails/internal/infrastructure/validate"
)

// RESTStandardError response error
type RESTStandardError struct {
	Type    string `json:"type,omitempty"`
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Detail  string `json:"detail,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

func NewRESTStandardError(code int, title string) *RESTStandardError {
	return &RESTStandardError{
		Code:  code,
		Title: title,
	}
}

func (re RESTStandardError) Error() string {
	return re.Detail
}

func (re RESTStandardError) SetDetail(detail string) RESTStandardError {
	re.Detail = detail
	return re
}

func (re RESTStandardError) SetTraceID(traceID string) RESTStandardError {
	re.TraceID = traceID
	return re
}

// RESTValidationError standard validation error
type RESTValidationError struct {
	RESTStandardError
	InvalidParams []*validate.FieldError `json:"invalid_params"`
}

func NewRESTValidationError(code int, title string, internal []*validate.FieldError) *RESTValidationError {
	return &RESTValidationError{
		RESTStandardError: RESTStandardError{
			Code:  code,
			Title: title,
		},
		InvalidParams: internal,
	}
}

func (rve RESTValidationError) Error() string {
	return rve.Detail
}

func (rve RESTValidationError) SetTraceID(traceID string) RESTValidationError {
	rve.TraceID = traceID
	return rve
}

func traceID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// respondError reply with a standard error carrying the trace id, err becomes the title
func respondError(c echo.Context, code int, err error) error {
	return c.JSON(code, NewRESTStandardError(code, err.Error()).SetTraceID(traceID(c)))
}

func bindFailed(c echo.Context, err error) error {
	detail := err.Error()
	if he, ok := err.(*echo.HTTPError); ok && he.Internal != nil {
		detail = he.Internal.Error()
	}
	return c.JSON(http.StatusBadRequest,
		NewRESTStandardError(http.StatusBadRequest, "Failed to bind request body").SetDetail(detail).SetTraceID(traceID(c)))
}

func validationFailed(c echo.Context, errs []*validate.FieldError) error {
	return c.JSON(http.StatusBadRequest,
		NewRESTValidationError(http.StatusBadRequest, "Failed to validate fields", errs).SetTraceID(traceID(c)))
}

func message(c echo.Context, code int, text string) error {
	return c.JSON(code, echo.Map{"message": text})
}

// bindAndValidate decode the body into v and run struct validation, replying on failure
func bindAndValidate(c echo.Context, v validate.Validator, post interface{}) (bool, error) {
	if err := c.Bind(post); err != nil {
		return false, bindFailed(c, err)
	}
	if errs := v.Struct(post); errs != nil {
		return false, validationFailed(c, errs)
	}
	return true, nil
}

// currentUser id of the caller, set by the token middleware
func currentUser(c echo.Context, ju *auth.JWTUtil) string {
	if claims := ju.GetContextToken(c); claims != nil {
		return claims.UID
	}
	return ""
}
