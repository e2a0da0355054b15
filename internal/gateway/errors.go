package gateway

import (
	"errors"
	"fmt"
)

// Error codes reported by the backend. Table errors use PostgreSQL SQLSTATE
// codes where one exists.
const (
	CodeUniqueViolation    = "23505"
	CodeForeignKey         = "23503"
	CodePermissionDenied   = "42501"
	CodeNoRows             = "PGRST116"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUserExists         = "user_already_exists"
	CodeBadJWT             = "bad_jwt"
	CodeInvalidRequest     = "invalid_request"
	CodeInternal           = "XX000"
)

// Error is the error half of a backend {data, error} response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds an *Error with a formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the backend code carried by err, or "" if there is none.
func CodeOf(err error) string {
	var gErr *Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a uniqueness conflict.
func IsUniqueViolation(err error) bool {
	return CodeOf(err) == CodeUniqueViolation
}

// IsNotFound reports whether a single-row read matched nothing.
func IsNotFound(err error) bool {
	return CodeOf(err) == CodeNoRows
}

// IsPermissionDenied reports whether a row policy rejected the call.
func IsPermissionDenied(err error) bool {
	return CodeOf(err) == CodePermissionDenied
}
