// Package store provides an HTTP client for the extension store publishing
// API: OAuth2 token management, multipart artifact upload, publish, status
// and rollout control, and a bounded poller for asynchronous upload jobs.
package store

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Category sentinels. Use errors.Is(err, store.ErrValidation) to check.
var (
	ErrValidation = errors.New("store: invalid input")
	ErrAuth       = errors.New("store: authentication failed")
	ErrTimeout    = errors.New("store: timed out waiting for upload")
)

// Sentinel errors for HTTP status code classification.
var (
	ErrBadRequest   = errors.New("store: bad request")
	ErrUnauthorized = errors.New("store: unauthorized")
	ErrForbidden    = errors.New("store: forbidden")
	ErrNotFound     = errors.New("store: not found")
	ErrConflict     = errors.New("store: conflict")
	ErrThrottled    = errors.New("store: throttled")
	ErrServerError  = errors.New("store: server error")
)

// ValidationError reports malformed caller input. It is always returned
// before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("store: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// AuthError wraps a token endpoint failure. Both ErrAuth and the underlying
// cause (e.g. *oauth2.RetrieveError) are reachable through errors.Is/As.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("store: authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() []error {
	return []error{ErrAuth, e.Err}
}

// HTTPError is returned for any non-2xx response from a store endpoint.
// Body holds the raw response text for debugging.
type HTTPError struct {
	StatusCode int
	Body       string
	Err        error // sentinel, for errors.Is()
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("store: HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when an upload job did not reach a terminal
// state within the caller-supplied bound.
type TimeoutError struct {
	ItemID    string
	Waited    time.Duration
	LastState UploadState
}

func (e *TimeoutError) Error() string {
	if e.LastState != "" {
		return fmt.Sprintf("store: item %s still %s after %s", e.ItemID, e.LastState, e.Waited)
	}

	return fmt.Sprintf("store: item %s did not finish uploading after %s", e.ItemID, e.Waited)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for codes with no dedicated sentinel.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrThrottled
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}
