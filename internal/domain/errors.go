package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidInput   = errors.New("invalid input")
	ErrBackend        = errors.New("recruiting backend error")
)

// ValidationError collects field level problems that can be shown next to
// form inputs. It matches ErrInvalidInput.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return "invalid input"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for f := range v.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, v.FieldErrors[f])
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

func (v *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Add records a message for field. The first message for a field wins.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, ok := v.FieldErrors[field]; ok {
		return
	}
	v.FieldErrors[field] = message
}

// HasErrors reports whether any field problems were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Err returns v when it holds field errors and nil otherwise.
func (v *ValidationError) Err() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

// BackendError is a failed call to the recruiting backend. Message is safe
// to show to the user.
type BackendError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	return e.Message
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

// UserMessage returns the text to show for err, or fallback when err carries
// nothing suitable.
func UserMessage(err error, fallback string) string {
	var be *BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) && ve.HasErrors() {
		return ve.Error()
	}
	return fallback
}
