package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DEPDASH_PLATFORM", "DEPDASH_ENDPOINT", "DEPDASH_REPOSITORY", "DEPDASH_TOKEN",
		"DEPDASH_USERNAME", "DEPDASH_JIRA_ISSUE_TYPE", "DEPDASH_JIRA_CLOSE_STATUS",
		"DEPDASH_HTTP_TIMEOUT", "REST_PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, PlatformGitLab, cfg.Platform)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "Task", cfg.JiraIssueType)
	assert.Equal(t, "Done", cfg.JiraCloseStatus)
	assert.Equal(t, "8080", cfg.RESTPort)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "depdash.toml")
	content := `
platform = "github"
endpoint = "https://ghe.example.com/"
repository = "acme/widgets"
token = "file-token"
http_timeout = "5s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("DEPDASH_TOKEN", "env-token")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, PlatformGitHub, cfg.Platform)
	assert.Equal(t, "https://ghe.example.com/", cfg.Endpoint)
	assert.Equal(t, "acme/widgets", cfg.Repository)
	assert.Equal(t, "env-token", cfg.Token)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEPDASH_HTTP_TIMEOUT", "soon")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{
			name: "valid",
			cfg:  Config{Platform: PlatformGitLab, Endpoint: "https://gitlab.example.com/api/v4/", Repository: "acme/widgets"},
		},
		{
			name:      "missing endpoint",
			cfg:       Config{Platform: PlatformGitLab, Repository: "acme/widgets"},
			wantField: "endpoint",
		},
		{
			name:      "missing repository",
			cfg:       Config{Platform: PlatformGitLab, Endpoint: "https://gitlab.example.com/api/v4/"},
			wantField: "repository",
		},
		{
			name:      "unknown platform",
			cfg:       Config{Platform: "bitbucket", Endpoint: "https://example.com", Repository: "acme/widgets"},
			wantField: "platform",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrConfiguration)
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "https://gitlab.example.com/acme/widgets.git", want: "acme/widgets"},
		{raw: "https://gitlab.example.com/acme/sub/widgets", want: "acme/sub/widgets"},
		{raw: "git@github.com:acme/widgets.git", want: "acme/widgets"},
		{raw: "ssh://git@github.com/acme/widgets.git", want: "acme/widgets"},
		{raw: "https://example.com/justone", wantErr: true},
		{raw: "widgets", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseRemoteURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInferRepository(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{"git@gitlab.example.com:acme/widgets.git"},
	})
	require.NoError(t, err)

	cfg := &Config{Platform: PlatformGitLab}
	require.NoError(t, cfg.InferRepository(dir))
	assert.Equal(t, "acme/widgets", cfg.Repository)

	explicit := &Config{Platform: PlatformGitLab, Repository: "other/repo"}
	require.NoError(t, explicit.InferRepository(dir))
	assert.Equal(t, "other/repo", explicit.Repository)

	jira := &Config{Platform: PlatformJira}
	require.NoError(t, jira.InferRepository(dir))
	assert.Empty(t, jira.Repository)
}

func TestInferRepository_NotARepository(t *testing.T) {
	cfg := &Config{Platform: PlatformGitLab}
	err := cfg.InferRepository(t.TempDir())
	assert.Error(t, err)
	assert.Empty(t, cfg.Repository)
}
