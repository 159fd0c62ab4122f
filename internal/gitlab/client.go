// Package gitlab is a tracker client for GitLab-compatible issue APIs
// (project issues addressed by iid, bodies stored in description).
package gitlab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/clintrovert/depdash/internal/tracker"
)

const perPage = 100

// Client talks to the issues endpoints of one project
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	project    string
	cache      *tracker.ResponseCache
	logger     *zap.Logger
}

// NewClient creates a client for repository on the API rooted at baseURL.
// An empty token sends unauthenticated requests.
func NewClient(baseURL, repository, token string, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse endpoint: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		authed := oauth2.NewClient(ctx, ts)
		authed.Timeout = httpClient.Timeout
		httpClient = authed
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    u,
		project:    repository,
		cache:      tracker.NewResponseCache(),
		logger:     logger,
	}, nil
}

type remoteIssue struct {
	IID         int    `json:"iid"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// issueRequest always carries both fields so an empty body clears the
// stored description.
type issueRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type stateRequest struct {
	StateEvent string `json:"state_event"`
}

type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

func (c *Client) issuesPath() string {
	return "projects/" + url.PathEscape(c.project) + "/issues"
}

// ListIssues returns every open issue, following pagination. Each listing
// starts a new reconcile, so the response cache is cleared first.
func (c *Client) ListIssues(ctx context.Context) ([]tracker.IssueSummary, error) {
	c.cache.Reset()

	var issues []tracker.IssueSummary
	page := 1

	for page > 0 {
		query := url.Values{}
		query.Set("state", "opened")
		query.Set("per_page", strconv.Itoa(perPage))
		query.Set("page", strconv.Itoa(page))

		body, header, err := c.do(ctx, http.MethodGet, c.issuesPath()+"?"+query.Encode(), nil)
		if err != nil {
			return nil, err
		}

		var raw json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", tracker.ErrMalformedResponse, err)
		}
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || trimmed[0] != '[' {
			return nil, tracker.ErrMalformedResponse
		}

		var remote []remoteIssue
		if err := json.Unmarshal(trimmed, &remote); err != nil {
			return nil, fmt.Errorf("%w: %v", tracker.ErrMalformedResponse, err)
		}
		for _, issue := range remote {
			issues = append(issues, tracker.IssueSummary{ID: issue.IID, Title: issue.Title})
		}

		page = nextPage(header.Get("X-Next-Page"), page)
	}

	c.logger.Debug("listed issues", zap.String("project", c.project), zap.Int("count", len(issues)))
	return issues, nil
}

// GetIssue fetches one issue. With useCache a previously fetched copy is
// returned without a request.
func (c *Client) GetIssue(ctx context.Context, number int, useCache bool) (*tracker.Issue, error) {
	if useCache {
		if issue, ok := c.cache.Get(number); ok {
			return issue, nil
		}
	}

	body, _, err := c.do(ctx, http.MethodGet, c.issuesPath()+"/"+strconv.Itoa(number), nil)
	if err != nil {
		return nil, err
	}

	var remote remoteIssue
	if err := json.Unmarshal(body, &remote); err != nil {
		return nil, fmt.Errorf("failed to decode issue %d: %w", number, err)
	}

	issue := &tracker.Issue{Number: number, Title: remote.Title, Body: remote.Description}
	c.cache.Put(issue)
	return issue, nil
}

// CreateIssue opens a new issue
func (c *Client) CreateIssue(ctx context.Context, title, body string) error {
	_, _, err := c.do(ctx, http.MethodPost, c.issuesPath(), issueRequest{Title: title, Description: body})
	if err != nil {
		return fmt.Errorf("failed to create issue: %w", err)
	}
	return nil
}

// UpdateIssue replaces the title and description of an issue
func (c *Client) UpdateIssue(ctx context.Context, number int, title, body string) error {
	c.cache.Evict(number)
	path := c.issuesPath() + "/" + strconv.Itoa(number)
	if _, _, err := c.do(ctx, http.MethodPut, path, issueRequest{Title: title, Description: body}); err != nil {
		return fmt.Errorf("failed to update issue %d: %w", number, err)
	}
	return nil
}

// CloseIssue transitions an issue to closed
func (c *Client) CloseIssue(ctx context.Context, number int) error {
	c.cache.Evict(number)
	path := c.issuesPath() + "/" + strconv.Itoa(number)
	if _, _, err := c.do(ctx, http.MethodPut, path, stateRequest{StateEvent: "close"}); err != nil {
		return fmt.Errorf("failed to close issue %d: %w", number, err)
	}
	return nil
}

// nextPage parses X-Next-Page. It returns 0 when there is no later page,
// including when the header does not move past current.
func nextPage(header string, current int) int {
	next, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || next <= current {
		return 0
	}
	return next
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, http.Header, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request url: %w", err)
	}
	endpoint := c.baseURL.ResolveReference(ref)

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, newAPIError(resp.StatusCode, body)
	}
	return body, resp.Header, nil
}

func newAPIError(status int, body []byte) error {
	apiErr := &tracker.APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case len(parsed.Message) > 0:
			var text string
			if json.Unmarshal(parsed.Message, &text) == nil {
				apiErr.Message = text
			} else {
				apiErr.Message = string(parsed.Message)
			}
		case parsed.Error != "":
			apiErr.Message = parsed.Error
		}
	}

	if status == http.StatusForbidden && strings.Contains(strings.ToLower(apiErr.Message), "disabled") {
		apiErr.Err = tracker.ErrIssuesDisabled
	}
	return apiErr
}

var _ tracker.Client = (*Client)(nil)
