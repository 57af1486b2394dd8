package models

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateUsername  = errors.New("that username is not available")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("login required")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
)

// ValidationError holds one message per offending form field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Messages(), "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Messages returns the field messages ordered by field name.
func (e *ValidationError) Messages() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return msgs
}
