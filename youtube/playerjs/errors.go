package playerjs

import (
	"encoding/json"
	"fmt"

	"github.com/ytget/ytstream/errs"
)

// Error codes
const (
	ErrCodeDecipherNotFound       = "DECIPHER_FUNCTION_NOT_FOUND"
	ErrCodeDecipherHelperNotFound = "DECIPHER_HELPER_NOT_FOUND"
	ErrCodeNTransformNotFound     = "NTRANSFORM_FUNCTION_NOT_FOUND"
	ErrCodeBodyUnterminated       = "FUNCTION_BODY_UNTERMINATED"
	ErrCodeVersionNotFound        = "PLAYER_VERSION_NOT_FOUND"
)

// Error represents a structured extraction error with code and details
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap maps pattern-lookup failures onto the shared sentinel so callers can
// match with errors.Is without importing this package's codes.
func (e *Error) Unwrap() error {
	switch e.Code {
	case ErrCodeDecipherNotFound, ErrCodeDecipherHelperNotFound, ErrCodeNTransformNotFound:
		return errs.ErrPatternNotFound
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	type Alias Error
	return json.Marshal(&struct {
		*Alias
		Error string `json:"error"`
	}{
		Alias: (*Alias)(e),
		Error: e.Error(),
	})
}

// NewError creates a new Error with the given code and message
func NewError(code string, message string, details ...any) *Error {
	e := &Error{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		e.Details = details[0]
	}
	return e
}

// IsNotFound returns true if the error is a pattern-lookup failure
func IsNotFound(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Code == ErrCodeDecipherNotFound || e.Code == ErrCodeDecipherHelperNotFound || e.Code == ErrCodeNTransformNotFound
	}
	return false
}
