package sanitize

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_RedactsSecrets(t *testing.T) {
	s := New("glpat-secret")

	got := s.Sanitize("token is glpat-secret, keep it safe")
	assert.Equal(t, "token is **redacted**, keep it safe", got)
}

func TestSanitize_RedactsBase64(t *testing.T) {
	s := New("hunter2")
	encoded := base64.StdEncoding.EncodeToString([]byte("hunter2"))

	got := s.Sanitize("auth: " + encoded)
	assert.Equal(t, "auth: **redacted**", got)
}

func TestSanitize_NoSecrets(t *testing.T) {
	s := New()
	s.Add("")

	assert.Equal(t, "plain text", s.Sanitize("plain text"))
	assert.Equal(t, "", s.Sanitize(""))
}

func TestSanitize_AddLater(t *testing.T) {
	s := New()
	assert.Equal(t, "a-token", s.Sanitize("a-token"))

	s.Add("a-token")
	assert.Equal(t, Redacted, s.Sanitize("a-token"))
}

func TestSanitize_OverlappingSecretsPreferLongest(t *testing.T) {
	for i := 0; i < 50; i++ {
		s := New("abc", "abcdef", "ab")
		assert.Equal(t, "x**redacted**x", s.Sanitize("xabcdefx"))
		assert.Equal(t, "**redacted**-**redacted**", s.Sanitize("abc-ab"))
	}
}
