// Package sanitize removes registered secrets from text before it is sent to
// a tracker.
package sanitize

import (
	"cmp"
	"encoding/base64"
	"slices"
	"strings"
	"sync"
)

// Redacted replaces every secret occurrence
const Redacted = "**redacted**"

// Sanitizer redacts a set of secrets and their base64 encodings
type Sanitizer struct {
	mu      sync.RWMutex
	secrets map[string]struct{}
}

// New creates a Sanitizer that already knows the given secrets
func New(secrets ...string) *Sanitizer {
	s := &Sanitizer{secrets: make(map[string]struct{})}
	for _, secret := range secrets {
		s.Add(secret)
	}
	return s
}

// Add registers a secret. Empty strings are ignored.
func (s *Sanitizer) Add(secret string) {
	if secret == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[secret] = struct{}{}
	s.secrets[base64.StdEncoding.EncodeToString([]byte(secret))] = struct{}{}
}

// Sanitize returns text with every registered secret replaced
func (s *Sanitizer) Sanitize(text string) string {
	if text == "" {
		return text
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.secrets) == 0 {
		return text
	}

	// Longest secrets first; overlapping matches resolve to the longer one.
	secrets := make([]string, 0, len(s.secrets))
	for secret := range s.secrets {
		secrets = append(secrets, secret)
	}
	slices.SortFunc(secrets, func(a, b string) int {
		if n := cmp.Compare(len(b), len(a)); n != 0 {
			return n
		}
		return strings.Compare(a, b)
	})

	pairs := make([]string, 0, len(secrets)*2)
	for _, secret := range secrets {
		pairs = append(pairs, secret, Redacted)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
