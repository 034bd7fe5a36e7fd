package common

import (
	"errors"
	"fmt"
)

// Store-level sentinels shared across repositories and services.
var (
	// ErrNotFound marks a referenced job, event or attempt that does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict marks a lost conditional-transition race; the caller must
	// abandon its claim, not retry it.
	ErrConflict = errors.New("status conflict")
)

// APIError is the JSON error surface returned by handlers.
type APIError struct {
	Status  int            `json:"-"`
	Message string         `json:"error"`
	Fields  map[string]any `json:"fields,omitempty"`
}

func (e APIError) Error() string {
	return e.Message
}

func Errf(status int, format string, args ...any) APIError {
	return APIError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// NewAPIError creates an APIError with status, message, and optional fields.
func NewAPIError(status int, message string, fields map[string]any) APIError {
	return APIError{
		Status:  status,
		Message: message,
		Fields:  fields,
	}
}
