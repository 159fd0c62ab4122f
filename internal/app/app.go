// Package app wires configuration into a ready-to-use dashboard reconciler.
package app

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/clintrovert/depdash/internal/config"
	"github.com/clintrovert/depdash/internal/dashboard"
	"github.com/clintrovert/depdash/internal/github"
	"github.com/clintrovert/depdash/internal/gitlab"
	"github.com/clintrovert/depdash/internal/jira"
	"github.com/clintrovert/depdash/internal/sanitize"
	"github.com/clintrovert/depdash/internal/tracker"
)

// App holds the components built from a Config
type App struct {
	Config     *config.Config
	Tracker    tracker.Client
	Sanitizer  *sanitize.Sanitizer
	Reconciler *dashboard.Reconciler
}

// New validates cfg and builds the tracker client and reconciler
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	client, err := NewTracker(cfg, httpClient, logger)
	if err != nil {
		return nil, err
	}

	sanitizer := sanitize.New(cfg.Token)

	reconciler, err := dashboard.New(dashboard.Options{
		Endpoint:   cfg.Endpoint,
		Repository: cfg.Repository,
		Client:     client,
		Sanitizer:  sanitizer,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("dashboard initialized",
		zap.String("platform", cfg.Platform),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("repository", cfg.Repository),
	)

	return &App{
		Config:     cfg,
		Tracker:    client,
		Sanitizer:  sanitizer,
		Reconciler: reconciler,
	}, nil
}

// NewTracker creates the tracker client selected by cfg.Platform
func NewTracker(cfg *config.Config, httpClient *http.Client, logger *zap.Logger) (tracker.Client, error) {
	switch cfg.Platform {
	case config.PlatformGitLab:
		client, err := gitlab.NewClient(cfg.Endpoint, cfg.Repository, cfg.Token, httpClient, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create gitlab client: %w", err)
		}
		return client, nil
	case config.PlatformGitHub:
		client, err := github.NewClient(cfg.Endpoint, cfg.Repository, cfg.Token, httpClient, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create github client: %w", err)
		}
		return client, nil
	case config.PlatformJira:
		client, err := jira.NewClient(jira.Options{
			BaseURL:     cfg.Endpoint,
			ProjectKey:  cfg.Repository,
			Username:    cfg.Username,
			APIToken:    cfg.Token,
			IssueType:   cfg.JiraIssueType,
			CloseStatus: cfg.JiraCloseStatus,
			HTTPClient:  httpClient,
		}, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, &config.ConfigurationError{Field: "platform", Reason: fmt.Sprintf("unsupported platform %q", cfg.Platform)}
	}
}
