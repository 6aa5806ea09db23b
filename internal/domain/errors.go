package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	// ErrNoUsableSource is returned when every media candidate of a post
	// turned out to be empty or unreachable.
	ErrNoUsableSource = errors.New("no usable media source")

	// ErrUnknownPlatform is returned when a URL matches no platform table entry.
	ErrUnknownPlatform = errors.New("unknown platform")

	// ErrRateLimited is returned when an upstream throttles us.
	ErrRateLimited = errors.New("rate limited")
)

// FetchError is a hard upstream failure: a non-success HTTP status or a
// transport error on a call the extractor cannot proceed without.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status code %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a FetchError. status and err are each optional.
func NewFetchError(url string, status int, err error) *FetchError {
	return &FetchError{URL: url, Status: status, Err: err}
}

// ShapeError is a hard upstream failure: the call succeeded but an expected
// field or structure is missing from the response (API changed, post
// deleted or private).
type ShapeError struct {
	URL   string
	Field string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("unexpected response shape for %s: missing %s", e.URL, e.Field)
}

// NewShapeError creates a ShapeError.
func NewShapeError(url, field string) *ShapeError {
	return &ShapeError{URL: url, Field: field}
}
