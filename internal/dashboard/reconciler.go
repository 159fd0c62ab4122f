// Package dashboard keeps a single dependency dashboard issue in sync with
// the desired title and body.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/clintrovert/depdash/internal/config"
	"github.com/clintrovert/depdash/internal/tracker"
)

// Sanitizer transforms text before it is sent to the tracker
type Sanitizer interface {
	Sanitize(text string) string
}

// Options configures a Reconciler
type Options struct {
	Endpoint   string
	Repository string
	Client     tracker.Client
	Sanitizer  Sanitizer
	Logger     *zap.Logger
}

// Reconciler owns the cached issue list for one repository. It is not safe
// for concurrent use.
type Reconciler struct {
	endpoint   string
	repository string
	client     tracker.Client
	sanitizer  Sanitizer
	logger     *zap.Logger
	issues     []tracker.IssueSummary
}

// New validates opts and creates a Reconciler
func New(opts Options) (*Reconciler, error) {
	if opts.Endpoint == "" {
		return nil, &config.ConfigurationError{Field: "endpoint", Reason: "a dashboard endpoint URL is required"}
	}
	if opts.Repository == "" {
		return nil, &config.ConfigurationError{Field: "repository", Reason: "a repository identifier is required"}
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("tracker client is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sanitizer := opts.Sanitizer
	if sanitizer == nil {
		sanitizer = passthrough{}
	}

	return &Reconciler{
		endpoint:   opts.Endpoint,
		repository: opts.Repository,
		client:     opts.Client,
		sanitizer:  sanitizer,
		logger:     logger.With(zap.String("repository", opts.Repository)),
	}, nil
}

// Repository returns the repository identifier the reconciler works on
func (r *Reconciler) Repository() string {
	return r.repository
}

// Endpoint returns the tracker base URL
func (r *Reconciler) Endpoint() string {
	return r.endpoint
}

// CachedIssues returns a copy of the issue list from the last refresh
func (r *Reconciler) CachedIssues() []tracker.IssueSummary {
	out := make([]tracker.IssueSummary, len(r.issues))
	copy(out, r.issues)
	return out
}

// listIssues always refetches and replaces the cache. A malformed listing
// empties the cache and is not reported as an error.
func (r *Reconciler) listIssues(ctx context.Context) ([]tracker.IssueSummary, error) {
	issues, err := r.client.ListIssues(ctx)
	if err != nil {
		if errors.Is(err, tracker.ErrMalformedResponse) {
			r.logger.Warn("issue list response is not an array", zap.Error(err))
			r.issues = []tracker.IssueSummary{}
			return r.issues, nil
		}
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	cached := make([]tracker.IssueSummary, 0, len(issues))
	for _, issue := range issues {
		cached = append(cached, tracker.IssueSummary{ID: issue.ID, Title: issue.Title})
	}
	r.issues = cached
	return r.issues, nil
}

func findByTitle(issues []tracker.IssueSummary, title string) (tracker.IssueSummary, bool) {
	for _, issue := range issues {
		if issue.Title == title {
			return issue, true
		}
	}
	return tracker.IssueSummary{}, false
}

// IssueResult is the outcome of a lookup. A nil Issue with a nil Err means
// nothing matched.
type IssueResult struct {
	Issue *tracker.Issue
	Err   error
}

// Found reports whether an issue was returned
func (r IssueResult) Found() bool {
	return r.Issue != nil
}

// GetIssue fetches an issue by number. useCache is handed to the tracker
// client's response cache.
func (r *Reconciler) GetIssue(ctx context.Context, number int, useCache bool) IssueResult {
	issue, err := r.client.GetIssue(ctx, number, useCache)
	if err != nil {
		r.logger.Warn("failed to get issue", zap.Int("number", number), zap.Error(err))
		return IssueResult{Err: err}
	}
	if issue == nil {
		err := fmt.Errorf("issue %d not returned by tracker", number)
		r.logger.Warn("failed to get issue", zap.Int("number", number), zap.Error(err))
		return IssueResult{Err: err}
	}
	return IssueResult{Issue: &tracker.Issue{Number: number, Title: issue.Title, Body: issue.Body}}
}

// FindIssue returns the first issue whose title matches exactly
func (r *Reconciler) FindIssue(ctx context.Context, title string) IssueResult {
	issues, err := r.listIssues(ctx)
	if err != nil {
		r.logger.Warn("failed to find issue", zap.String("title", title), zap.Error(err))
		return IssueResult{Err: err}
	}

	match, ok := findByTitle(issues, title)
	if !ok {
		return IssueResult{}
	}
	return r.GetIssue(ctx, match.ID, true)
}

// EnsureIssueClosed closes every open issue titled title. Errors are
// returned to the caller.
func (r *Reconciler) EnsureIssueClosed(ctx context.Context, title string) error {
	issues, err := r.listIssues(ctx)
	if err != nil {
		return err
	}

	for _, issue := range issues {
		if issue.Title != title {
			continue
		}
		r.logger.Debug("closing issue", zap.Int("number", issue.ID), zap.String("title", title))
		if err := r.client.CloseIssue(ctx, issue.ID); err != nil {
			return fmt.Errorf("failed to close issue %d: %w", issue.ID, err)
		}
		r.logger.Info("closed issue", zap.Int("number", issue.ID), zap.String("title", title))
	}
	return nil
}

func isIssuesDisabled(err error) bool {
	if errors.Is(err, tracker.ErrIssuesDisabled) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "issues are disabled")
}

type passthrough struct{}

func (passthrough) Sanitize(text string) string { return text }
