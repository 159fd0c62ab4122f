// Package testutil provides shared test doubles.
package testutil

import (
	"context"
	"sync"

	"github.com/clintrovert/depdash/internal/tracker"
)

// Call records one mutation sent to MockTracker
type Call struct {
	Method string
	Number int
	Title  string
	Body   string
}

// MockTracker is an in-memory tracker.Client. Created issues become visible
// to the next ListIssues call, so it can be used for round-trip tests.
type MockTracker struct {
	mu sync.Mutex

	Issues []tracker.IssueSummary
	Bodies map[int]string
	NextID int

	ListErr   error
	GetErr    error
	CreateErr error
	UpdateErr error
	CloseErr  error

	Calls      []Call
	GetCalls   int
	ListCalls  int
	LastUseGet bool
}

// NewMockTracker creates a MockTracker seeded with issues
func NewMockTracker(issues ...tracker.IssueSummary) *MockTracker {
	m := &MockTracker{
		Bodies: make(map[int]string),
		NextID: 1,
	}
	for _, issue := range issues {
		m.Issues = append(m.Issues, issue)
		if issue.ID >= m.NextID {
			m.NextID = issue.ID + 1
		}
	}
	return m
}

// ListIssues returns a copy of the current issue list
func (m *MockTracker) ListIssues(_ context.Context) ([]tracker.IssueSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]tracker.IssueSummary, len(m.Issues))
	copy(out, m.Issues)
	return out, nil
}

// GetIssue returns the stored body of number
func (m *MockTracker) GetIssue(_ context.Context, number int, useCache bool) (*tracker.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	m.LastUseGet = useCache
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	issue := &tracker.Issue{Number: number, Body: m.Bodies[number]}
	for _, summary := range m.Issues {
		if summary.ID == number {
			issue.Title = summary.Title
		}
	}
	return issue, nil
}

// CreateIssue appends a new issue
func (m *MockTracker) CreateIssue(_ context.Context, title, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, Call{Method: "create", Title: title, Body: body})
	if m.CreateErr != nil {
		return m.CreateErr
	}
	id := m.NextID
	m.NextID++
	m.Issues = append(m.Issues, tracker.IssueSummary{ID: id, Title: title})
	m.Bodies[id] = body
	return nil
}

// UpdateIssue replaces the title and body of number
func (m *MockTracker) UpdateIssue(_ context.Context, number int, title, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, Call{Method: "update", Number: number, Title: title, Body: body})
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for i := range m.Issues {
		if m.Issues[i].ID == number {
			m.Issues[i].Title = title
		}
	}
	m.Bodies[number] = body
	return nil
}

// CloseIssue removes number from the open list
func (m *MockTracker) CloseIssue(_ context.Context, number int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, Call{Method: "close", Number: number})
	if m.CloseErr != nil {
		return m.CloseErr
	}
	open := m.Issues[:0]
	for _, issue := range m.Issues {
		if issue.ID != number {
			open = append(open, issue)
		}
	}
	m.Issues = open
	return nil
}

// CallsTo returns the recorded calls of one method
func (m *MockTracker) CallsTo(method string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, c := range m.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

var _ tracker.Client = (*MockTracker)(nil)
