package dashboard

import (
	"context"

	"go.uber.org/zap"
)

// Outcome is what EnsureIssue did
type Outcome int

const (
	// Unchanged means the issue already matched and nothing was sent
	Unchanged Outcome = iota
	// Created means a new issue was opened
	Created
	// Updated means an existing issue got a new title or body
	Updated
	// Failed means the tracker call failed; see EnsureResult.Err
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Failed:
		return "failed"
	default:
		return "unchanged"
	}
}

// EnsureIssueInput describes the desired dashboard issue
type EnsureIssueInput struct {
	Title string
	// ReuseTitle is an older title to adopt when no issue has Title yet
	ReuseTitle string
	Body       string
}

// EnsureResult reports the outcome of EnsureIssue. Err is set only when
// Outcome is Failed.
type EnsureResult struct {
	Outcome Outcome
	Err     error
}

// Changed reports whether the tracker was mutated
func (r EnsureResult) Changed() bool {
	return r.Outcome == Created || r.Outcome == Updated
}

// EnsureIssue creates the issue or brings an existing one in line with in.
// It never returns an error; failures are logged and reported in the result.
func (r *Reconciler) EnsureIssue(ctx context.Context, in EnsureIssueInput) EnsureResult {
	outcome, err := r.ensureIssue(ctx, in)
	if err == nil {
		return EnsureResult{Outcome: outcome}
	}

	if isIssuesDisabled(err) {
		r.logger.Debug("could not ensure issue, issues are disabled",
			zap.String("title", in.Title),
			zap.Error(err),
		)
	} else {
		r.logger.Warn("could not ensure issue",
			zap.String("title", in.Title),
			zap.Error(err),
		)
	}
	return EnsureResult{Outcome: Failed, Err: err}
}

func (r *Reconciler) ensureIssue(ctx context.Context, in EnsureIssueInput) (Outcome, error) {
	body := r.sanitizer.Sanitize(in.Body)

	issues, err := r.listIssues(ctx)
	if err != nil {
		return Failed, err
	}

	existing, found := findByTitle(issues, in.Title)
	if !found && in.ReuseTitle != "" {
		existing, found = findByTitle(issues, in.ReuseTitle)
	}

	if !found {
		if err := r.client.CreateIssue(ctx, in.Title, body); err != nil {
			return Failed, err
		}
		r.logger.Info("issue created", zap.String("title", in.Title))
		return Created, nil
	}

	current := r.GetIssue(ctx, existing.ID, true)
	if current.Err != nil {
		return Failed, current.Err
	}

	if existing.Title == in.Title && current.Issue.Body == body {
		r.logger.Debug("issue is up to date", zap.Int("number", existing.ID), zap.String("title", in.Title))
		return Unchanged, nil
	}

	if err := r.client.UpdateIssue(ctx, existing.ID, in.Title, body); err != nil {
		return Failed, err
	}
	r.logger.Info("issue updated",
		zap.Int("number", existing.ID),
		zap.String("title", in.Title),
		zap.Bool("renamed", existing.Title != in.Title),
	)
	return Updated, nil
}
