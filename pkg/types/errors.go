package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Request errors.
var (
	ErrInvalidID = errors.New("invalid id")
	ErrNotFound  = errors.New("not found")
	ErrTransport = errors.New("transport error")
)

// Query and event errors.
var (
	ErrInvalidFilter = errors.New("invalid filter")
	ErrInvalidSort   = errors.New("invalid sort")
	ErrInvalidPage   = errors.New("invalid page")
	ErrInvalidEvent  = errors.New("invalid live event")
)

// View and channel errors.
var (
	// ErrSuperseded is returned by a fetch whose query was replaced by a
	// newer one before the response arrived. Its result was discarded.
	ErrSuperseded       = errors.New("query superseded")
	ErrRetriesExhausted = errors.New("reconnect attempts exhausted")
)

// ErrValidation is the root of every record validation failure.
var ErrValidation = errors.New("record validation failed")

// StatusError reports a non-2xx response from the base service.
// It matches ErrTransport, and ErrNotFound for 404 responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, msg)
}

// Is reports whether target is one of the sentinels this error stands for.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return true
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// FieldError is a validation failure for one field of a record.
type FieldError struct {
	FieldID string `json:"fieldId"`
	KeyName string `json:"keyName"`
	Message string `json:"message"`
}

// ValidationErrors collects per-field failures. A submission carrying any
// of them is never sent to the server.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, fe := range v {
		msgs[i] = fe.Message
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(msgs, "; "))
}

func (v ValidationErrors) Unwrap() error { return ErrValidation }

// ForField returns the messages recorded against the given field id.
func (v ValidationErrors) ForField(fieldID string) []string {
	var out []string
	for _, fe := range v {
		if fe.FieldID == fieldID {
			out = append(out, fe.Message)
		}
	}
	return out
}
