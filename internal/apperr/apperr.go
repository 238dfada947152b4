// Package apperr defines the error taxonomy shared by services and the HTTP
// layer: sentinel errors for authorization outcomes and a Validation type for
// input rejected before any state change.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the caller may not act on this resource.
	ErrForbidden = errors.New("forbidden")
)

// Validation is an input error detected before any state change.
type Validation struct {
	Message string
}

func (v Validation) Error() string {
	return v.Message
}

// Validationf builds a Validation error.
func Validationf(format string, args ...any) error {
	return Validation{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a Validation error.
func IsValidation(err error) bool {
	var v Validation
	return errors.As(err, &v)
}
