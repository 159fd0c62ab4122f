package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	jira "github.com/andygrunwald/go-jira"
	"go.uber.org/zap"

	"github.com/clintrovert/depdash/internal/tracker"
)

// Options configures the Jira client
type Options struct {
	BaseURL     string
	ProjectKey  string
	Username    string
	APIToken    string
	IssueType   string
	CloseStatus string
	HTTPClient  *http.Client
}

// Client wraps Jira API client functionality for one project
type Client struct {
	client      *jira.Client
	logger      *zap.Logger
	projectKey  string
	issueType   string
	closeStatus string
	cache       *tracker.ResponseCache
}

// NewClient creates a new Jira client
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	if opts.ProjectKey == "" {
		return nil, errors.New("jira project key is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if opts.Username != "" || opts.APIToken != "" {
		tp := jira.BasicAuthTransport{
			Username:  opts.Username,
			Password:  opts.APIToken,
			Transport: httpClient.Transport,
		}
		authed := tp.Client()
		authed.Timeout = httpClient.Timeout
		httpClient = authed
	}

	client, err := jira.NewClient(httpClient, opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	issueType := opts.IssueType
	if issueType == "" {
		issueType = "Task"
	}
	closeStatus := opts.CloseStatus
	if closeStatus == "" {
		closeStatus = "Done"
	}

	return &Client{
		client:      client,
		logger:      logger,
		projectKey:  opts.ProjectKey,
		issueType:   issueType,
		closeStatus: closeStatus,
		cache:       tracker.NewResponseCache(),
	}, nil
}

// ListIssues returns every unresolved issue of the project, oldest first
func (c *Client) ListIssues(ctx context.Context) ([]tracker.IssueSummary, error) {
	c.cache.Reset()

	jql := fmt.Sprintf("project = \"%s\" AND statusCategory != Done ORDER BY created ASC", c.projectKey)
	opts := &jira.SearchOptions{MaxResults: 100, Fields: []string{"summary"}}

	var issues []tracker.IssueSummary
	err := c.client.Issue.SearchPagesWithContext(ctx, jql, opts, func(issue jira.Issue) error {
		id, err := strconv.Atoi(issue.ID)
		if err != nil {
			c.logger.Warn("skipping issue with non-numeric id", zap.String("issue", issue.Key), zap.Error(err))
			return nil
		}
		title := ""
		if issue.Fields != nil {
			title = issue.Fields.Summary
		}
		issues = append(issues, tracker.IssueSummary{ID: id, Title: title})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search issues: %w", err)
	}

	return issues, nil
}

// GetIssue retrieves an issue description by numeric id
func (c *Client) GetIssue(ctx context.Context, number int, useCache bool) (*tracker.Issue, error) {
	if useCache {
		if issue, ok := c.cache.Get(number); ok {
			return issue, nil
		}
	}

	remote, _, err := c.client.Issue.GetWithContext(ctx, strconv.Itoa(number), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}

	issue := &tracker.Issue{Number: number}
	if remote.Fields != nil {
		issue.Title = remote.Fields.Summary
		issue.Body = remote.Fields.Description
	}
	c.cache.Put(issue)
	return issue, nil
}

// CreateIssue opens a new issue in the project
func (c *Client) CreateIssue(ctx context.Context, title, body string) error {
	issue := &jira.Issue{
		Fields: &jira.IssueFields{
			Project:     jira.Project{Key: c.projectKey},
			Type:        jira.IssueType{Name: c.issueType},
			Summary:     title,
			Description: body,
		},
	}

	created, _, err := c.client.Issue.CreateWithContext(ctx, issue)
	if err != nil {
		return fmt.Errorf("failed to create issue: %w", err)
	}

	c.logger.Info("created issue", zap.String("project", c.projectKey), zap.String("issue", created.Key))
	return nil
}

// UpdateIssue replaces summary and description
func (c *Client) UpdateIssue(ctx context.Context, number int, title, body string) error {
	c.cache.Evict(number)
	data := map[string]interface{}{
		"fields": map[string]interface{}{
			"summary":     title,
			"description": body,
		},
	}
	if _, err := c.client.Issue.UpdateIssueWithContext(ctx, strconv.Itoa(number), data); err != nil {
		return fmt.Errorf("failed to update issue: %w", err)
	}
	return nil
}

// CloseIssue moves the issue to the configured close status
func (c *Client) CloseIssue(ctx context.Context, number int) error {
	c.cache.Evict(number)
	id := strconv.Itoa(number)

	transitions, _, err := c.client.Issue.GetTransitionsWithContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get transitions: %w", err)
	}

	var transitionID string
	for _, transition := range transitions {
		if strings.EqualFold(transition.To.Name, c.closeStatus) {
			transitionID = transition.ID
			break
		}
	}

	if transitionID == "" {
		return fmt.Errorf("transition to status %s not found", c.closeStatus)
	}

	if _, err := c.client.Issue.DoTransitionWithContext(ctx, id, transitionID); err != nil {
		return fmt.Errorf("failed to transition issue: %w", err)
	}

	return nil
}

var _ tracker.Client = (*Client)(nil)
