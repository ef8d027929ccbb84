package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// Error represents a typed domain error with HTTP awareness.
//
// MessageKey names an entry of the message catalog; the HTTP boundary
// resolves it for the caller's locale and falls back to Message.
type Error struct {
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	MessageKey string       `json:"-"`
	Status     int          `json:"status"`
	Fields     []FieldError `json:"-"`
	Err        error        `json:"-"`
}

// FieldError describes one failure of a validation problem. Key and Params
// select a catalog entry; Message is the untranslated fallback.
type FieldError struct {
	Field   string
	Key     string
	Params  []string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials  = &Error{Code: "INVALID_CREDENTIALS", Status: http.StatusUnauthorized, Message: "invalid username or password", MessageKey: MsgInvalidCredentials}
	ErrInactiveAccount     = &Error{Code: "ACCOUNT_INACTIVE", Status: http.StatusUnauthorized, Message: "account is not active", MessageKey: MsgUserNotActive}
	ErrAuthFailed          = &Error{Code: "AUTH_FAILED", Status: http.StatusUnauthorized, Message: "authentication failed", MessageKey: MsgAuthFailed}
	ErrInvalidRefreshToken = &Error{Code: "INVALID_REFRESH_TOKEN", Status: http.StatusUnauthorized, Message: "invalid refresh token", MessageKey: MsgInvalidRefreshToken}
	ErrInvalidToken        = &Error{Code: "INVALID_TOKEN", Status: http.StatusUnauthorized, Message: "invalid token", MessageKey: MsgInvalidToken}
	ErrUnauthorized        = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden           = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrNotFound            = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict            = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation          = &Error{Code: "VALIDATION_ERROR", Status: http.StatusBadRequest, Message: "one or more validation errors occurred", MessageKey: MsgValidationFailed}
	ErrInternal            = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrServiceUnavailable  = New("SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "service unavailable")
	ErrRefreshInProgress   = &Error{Code: "REFRESH_IN_PROGRESS", Status: http.StatusUnauthorized, Message: "invalid refresh token", MessageKey: MsgInvalidRefreshToken}
)

// Message catalog keys shared with pkg/i18n.
const (
	MsgUserNotActive       = "account.usernotactive"
	MsgInvalidCredentials  = "account.invalidcredentials"
	MsgInvalidRefreshToken = "account.invalidrefreshtoken"
	MsgInvalidToken        = "account.invalidtoken"
	MsgAuthFailed          = "auth.failed"
	MsgValidationFailed    = "validation.failed"
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Validation builds a 400 error carrying every field failure.
func Validation(fields ...FieldError) *Error {
	clone := *ErrValidation
	clone.Fields = fields
	return &clone
}

// FieldNames returns the distinct failing field names in a stable order.
func (e *Error) FieldNames() []string {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(e.Fields))
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if _, ok := seen[f.Field]; ok {
			continue
		}
		seen[f.Field] = struct{}{}
		names = append(names, f.Field)
	}
	sort.Strings(names)
	return names
}

// WithCause copies base and attaches err as the wrapped cause.
func WithCause(base *Error, err error) *Error {
	if base == nil {
		return nil
	}
	clone := *base
	clone.Err = err
	return &clone
}
