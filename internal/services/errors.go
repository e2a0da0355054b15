package services

import (
	"errors"
	"sort"
	"strings"

	"ecofinds/internal/gateway"
)

var (
	// ErrValidation wraps every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotOwner is returned when a user acts on another user's listing.
	ErrNotOwner = errors.New("product belongs to another user")
	// ErrOwnProduct is returned when a seller adds their own listing to the cart.
	ErrOwnProduct = errors.New("cannot add your own product to the cart")
)

// ValidationError maps form fields to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Message returns the text to show a user for an auth error: the backend's
// message when it sent one.
func Message(err error) string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Error()
	}
	var gErr *gateway.Error
	if errors.As(err, &gErr) && gErr.Message != "" {
		return gErr.Message
	}
	return "Something went wrong, please try again"
}
