// Package llm defines the contract shared by the AI backends and the errors
// they report.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single backend HTTP call.
const DefaultTimeout = 30 * time.Second

// UserAgent is sent by the HTTP backends.
const UserAgent = "revise"

// ErrUnreachable indicates the endpoint could not be reached (connection refused, DNS, timeout).
var ErrUnreachable = errors.New("AI endpoint unreachable")

// Backend sends a persona instruction followed by the caller's text and
// returns the model's raw reply text. Backends do not retry and do not cache.
type Backend interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// APIError is a non-200 response from the AI endpoint. Body is the response
// body as plain text.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("AI endpoint returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("AI endpoint returned HTTP %d: %s", e.StatusCode, e.Body)
}

// ParseError reports malformed or absent structured data in an AI response.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return "parse AI response: " + e.Reason
	}
	return "parse AI response: " + e.Reason + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Func adapts a function to Backend.
type Func func(ctx context.Context, system, user string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}
