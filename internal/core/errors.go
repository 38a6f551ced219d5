package core

import (
	"errors"
	"strings"
)

var (
	// ErrFormNotFound is returned when a form ID does not resolve to a form
	ErrFormNotFound = errors.New("form not found")
	// ErrCacheMiss is returned by cache repositories for missing or expired entries
	ErrCacheMiss = errors.New("cache entry not found")
	// ErrInvalidForm is returned when a form definition is incomplete
	ErrInvalidForm = errors.New("invalid form")
)

// ValidationError reports a payload that does not satisfy its form's schema
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "payload validation failed: " + strings.Join(e.Errors, "; ")
}
