package validate

import (
	"fmt"
	"strconv"
	"time"
)

// FieldError field error to be nested by other errors
type FieldError struct {
	Domain string `json:"domain"`
	Reason string `json:"reason"`
}

// NewFieldError create new field error
func NewFieldError(domain string, reason string) *FieldError {
	return &FieldError{domain, reason}
}

func (fe *FieldError) Error() string {
	if fe.Domain == "" {
		return fe.Reason
	}
	return fe.Domain + ": " + fe.Reason
}

// Field single field error list
func Field(domain string, reason string) []*FieldError {
	return []*FieldError{NewFieldError(domain, reason)}
}

// PositiveInt parses an optional query value, empty raw yields 0
func PositiveInt(name string, raw string) (int, []*FieldError) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, Field(name, fmt.Sprintf("%s must be a positive integer", name))
	}
	return n, nil
}

// RFC3339 parses an optional timestamp, empty raw yields fallback
func RFC3339(name string, raw string, fallback time.Time) (time.Time, []*FieldError) {
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fallback, Field(name, fmt.Sprintf("%s must be in RFC3339 layout, %s", name, err.Error()))
	}
	return t, nil
}

// Validator .
type Validator interface {
	Struct(s interface{}) []*FieldError
	Empty(varName string, s interface{}) []*FieldError
	AllEmpty(names []string, fields ...interface{}) []*FieldError
}
