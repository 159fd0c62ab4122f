package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/clintrovert/depdash/internal/tracker"
)

// Client wraps the GitHub issues API for a single repository
type Client struct {
	apiClient *github.Client
	logger    *zap.Logger
	owner     string
	repo      string
	cache     *tracker.ResponseCache
}

// NewClient creates a new GitHub client. repository is "owner/name"; an
// empty baseURL targets github.com.
func NewClient(baseURL, repository, accessToken string, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("repository %q is not in owner/name form", repository)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if accessToken != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: accessToken},
		)
		tc := oauth2.NewClient(ctx, ts)
		tc.Timeout = httpClient.Timeout
		httpClient = tc
	}

	apiClient := github.NewClient(httpClient)
	if baseURL != "" {
		var err error
		apiClient, err = apiClient.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure github endpoint: %w", err)
		}
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiClient: apiClient,
		logger:    logger,
		owner:     owner,
		repo:      repo,
		cache:     tracker.NewResponseCache(),
	}, nil
}

// ListIssues returns open issues, skipping pull requests
func (c *Client) ListIssues(ctx context.Context) ([]tracker.IssueSummary, error) {
	c.cache.Reset()

	opts := &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var issues []tracker.IssueSummary
	for {
		page, resp, err := c.apiClient.Issues.ListByRepo(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues: %w", mapError(err))
		}
		for _, issue := range page {
			if issue.IsPullRequest() {
				continue
			}
			issues = append(issues, tracker.IssueSummary{ID: issue.GetNumber(), Title: issue.GetTitle()})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	c.logger.Debug("listed issues",
		zap.String("owner", c.owner),
		zap.String("repo", c.repo),
		zap.Int("count", len(issues)),
	)
	return issues, nil
}

// GetIssue fetches an issue body, served from the response cache when allowed
func (c *Client) GetIssue(ctx context.Context, number int, useCache bool) (*tracker.Issue, error) {
	if useCache {
		if issue, ok := c.cache.Get(number); ok {
			return issue, nil
		}
	}

	remote, _, err := c.apiClient.Issues.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get issue %d: %w", number, mapError(err))
	}

	issue := &tracker.Issue{Number: number, Title: remote.GetTitle(), Body: remote.GetBody()}
	c.cache.Put(issue)
	return issue, nil
}

// CreateIssue opens a new issue
func (c *Client) CreateIssue(ctx context.Context, title, body string) error {
	issue, _, err := c.apiClient.Issues.Create(ctx, c.owner, c.repo, &github.IssueRequest{
		Title: github.String(title),
		Body:  github.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to create issue: %w", mapError(err))
	}

	c.logger.Info("created issue",
		zap.String("owner", c.owner),
		zap.String("repo", c.repo),
		zap.Int("number", issue.GetNumber()),
	)
	return nil
}

// UpdateIssue replaces the title and body of an issue
func (c *Client) UpdateIssue(ctx context.Context, number int, title, body string) error {
	c.cache.Evict(number)
	_, _, err := c.apiClient.Issues.Edit(ctx, c.owner, c.repo, number, &github.IssueRequest{
		Title: github.String(title),
		Body:  github.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to update issue %d: %w", number, mapError(err))
	}
	return nil
}

// CloseIssue sets the issue state to closed
func (c *Client) CloseIssue(ctx context.Context, number int) error {
	c.cache.Evict(number)
	_, _, err := c.apiClient.Issues.Edit(ctx, c.owner, c.repo, number, &github.IssueRequest{
		State: github.String("closed"),
	})
	if err != nil {
		return fmt.Errorf("failed to close issue %d: %w", number, mapError(err))
	}
	return nil
}

// mapError turns go-github errors into tracker errors. GitHub answers 410
// Gone when issues are turned off for a repository.
func mapError(err error) error {
	var errResp *github.ErrorResponse
	if !errors.As(err, &errResp) || errResp.Response == nil {
		return err
	}

	apiErr := &tracker.APIError{
		StatusCode: errResp.Response.StatusCode,
		Message:    errResp.Message,
		Err:        err,
	}
	if errResp.Response.StatusCode == http.StatusGone {
		apiErr.Err = fmt.Errorf("%w: %v", tracker.ErrIssuesDisabled, err)
	}
	return apiErr
}

var _ tracker.Client = (*Client)(nil)
