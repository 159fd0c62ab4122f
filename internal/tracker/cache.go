package tracker

import "sync"

// ResponseCache memoizes fetched issues by number. It backs the useCache flag
// of Client.GetIssue and is independent from the reconciler's title list.
type ResponseCache struct {
	mu     sync.RWMutex
	issues map[int]Issue
}

// NewResponseCache creates an empty cache
func NewResponseCache() *ResponseCache {
	return &ResponseCache{issues: make(map[int]Issue)}
}

// Get returns a copy of the cached issue, if any
func (c *ResponseCache) Get(number int) (*Issue, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	issue, ok := c.issues[number]
	if !ok {
		return nil, false
	}
	return &issue, true
}

// Put stores a copy of issue under its number
func (c *ResponseCache) Put(issue *Issue) {
	if issue == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issues[issue.Number] = *issue
}

// Evict drops the entry for number. Clients call it after mutating an issue.
func (c *ResponseCache) Evict(number int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.issues, number)
}

// Len reports the number of cached issues
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.issues)
}

// Reset drops every entry. Clients call it on each list refresh so a cached
// body never outlives one reconcile.
func (c *ResponseCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issues = make(map[int]Issue)
}
