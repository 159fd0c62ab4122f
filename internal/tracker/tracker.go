// Package tracker defines the contract between the dashboard reconciler and
// the issue tracker backends.
package tracker

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse is returned when the tracker answers an issue
	// listing with something other than a JSON array.
	ErrMalformedResponse = errors.New("malformed issue list response")

	// ErrIssuesDisabled is returned when the target repository has its
	// issue tracker turned off.
	ErrIssuesDisabled = errors.New("issues are disabled for this repository")
)

// IssueSummary is the minimal view of a remote issue used for title lookup
type IssueSummary struct {
	ID    int
	Title string
}

// Issue is the fetched content of a single issue
type Issue struct {
	Number int
	Title  string
	Body   string
}

// Client is implemented by every tracker backend. A client is bound to a
// single repository at construction time.
type Client interface {
	ListIssues(ctx context.Context) ([]IssueSummary, error)
	GetIssue(ctx context.Context, number int, useCache bool) (*Issue, error)
	CreateIssue(ctx context.Context, title, body string) error
	UpdateIssue(ctx context.Context, number int, title, body string) error
	CloseIssue(ctx context.Context, number int) error
}

// APIError is a non-2xx answer from a tracker API
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tracker api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("tracker api returned status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
