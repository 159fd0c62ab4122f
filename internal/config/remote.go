package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5"
)

// RepositoryFromRemote derives a repository identifier ("group/name") from
// the origin remote of the git repository containing dir.
func RepositoryFromRemote(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to open repository: %w", err)
	}

	remote, err := repo.Remote("origin")
	if err != nil {
		return "", fmt.Errorf("failed to get remote: %w", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote origin has no url")
	}

	return parseRemoteURL(urls[0])
}

// InferRepository fills an empty Repository from the git remote in dir.
// Platforms that are not git hosts are left alone.
func (c *Config) InferRepository(dir string) error {
	if c.Repository != "" || c.Platform == PlatformJira {
		return nil
	}
	repository, err := RepositoryFromRemote(dir)
	if err != nil {
		return err
	}
	c.Repository = repository
	return nil
}

func parseRemoteURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	var path string

	switch {
	case strings.Contains(raw, "://"):
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("failed to parse remote url: %w", err)
		}
		path = u.Path
	case strings.Contains(raw, ":"):
		// scp-like syntax: git@host:group/name.git
		path = raw[strings.Index(raw, ":")+1:]
	default:
		return "", fmt.Errorf("unrecognized remote url %q", raw)
	}

	path = strings.Trim(strings.TrimSuffix(path, ".git"), "/")
	if !strings.Contains(path, "/") {
		return "", fmt.Errorf("remote url %q has no repository path", raw)
	}
	return path, nil
}
