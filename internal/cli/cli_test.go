package cli

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clintrovert/depdash/internal/api/rest"
	"github.com/clintrovert/depdash/internal/config"
	"github.com/clintrovert/depdash/internal/dashboard"
	"github.com/clintrovert/depdash/internal/testutil"
	"github.com/clintrovert/depdash/internal/tracker"
)

func mockBuilder(mock *testutil.MockTracker) Builder {
	return func(cfg *config.Config, logger *zap.Logger) (rest.Service, error) {
		return dashboard.New(dashboard.Options{
			Endpoint:   "https://gitlab.example.com/api/v4/",
			Repository: "acme/widgets",
			Client:     mock,
			Logger:     logger,
		})
	}
}

func run(t *testing.T, build Builder, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DEPDASH_HTTP_TIMEOUT", "")

	root := NewRootCommand(build, zap.NewNop(), "test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestEnsure_Created(t *testing.T) {
	mock := testutil.NewMockTracker()

	out, err := run(t, mockBuilder(mock), "", "ensure", "--title", "Dependency Dashboard", "--body", "body")
	require.NoError(t, err)
	assert.Equal(t, "created\n", out)
	assert.Len(t, mock.CallsTo("create"), 1)
}

func TestEnsure_Unchanged(t *testing.T) {
	mock := testutil.NewMockTracker(tracker.IssueSummary{ID: 1, Title: "Dependency Dashboard"})
	mock.Bodies[1] = "body"

	out, err := run(t, mockBuilder(mock), "", "ensure", "--title", "Dependency Dashboard", "--body", "body")
	require.NoError(t, err)
	assert.Equal(t, "unchanged\n", out)
	assert.Empty(t, mock.Calls)
}

func TestEnsure_BodyFromStdin(t *testing.T) {
	mock := testutil.NewMockTracker()

	_, err := run(t, mockBuilder(mock), "from stdin", "ensure", "--title", "T", "--body-file", "-")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", mock.CallsTo("create")[0].Body)
}

func TestEnsure_BodyFromReport(t *testing.T) {
	mock := testutil.NewMockTracker()
	path := filepath.Join(t.TempDir(), "report.toml")
	report := `
header = "Pending updates"

[[sections]]
title = "Open"

[[sections.items]]
label = "Update zap"
checked = true
`
	require.NoError(t, os.WriteFile(path, []byte(report), 0o600))

	_, err := run(t, mockBuilder(mock), "", "ensure", "--title", "T", "--report", path)
	require.NoError(t, err)
	assert.Equal(t, "Pending updates\n\n## Open\n\n - [x] Update zap\n", mock.CallsTo("create")[0].Body)
}

func TestEnsure_Failure(t *testing.T) {
	mock := testutil.NewMockTracker()
	mock.ListErr = assert.AnError

	out, err := run(t, mockBuilder(mock), "", "ensure", "--title", "T", "--body", "b")
	require.NoError(t, err)
	assert.Contains(t, out, "no change:")

	_, err = run(t, mockBuilder(mock), "", "ensure", "--title", "T", "--body", "b", "--fail-on-error")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestEnsure_FlagValidation(t *testing.T) {
	mock := testutil.NewMockTracker()

	_, err := run(t, mockBuilder(mock), "", "ensure", "--body", "b")
	assert.Error(t, err)

	_, err = run(t, mockBuilder(mock), "", "ensure", "--title", "T", "--body", "b", "--body-file", "x")
	assert.Error(t, err)

	_, err = run(t, mockBuilder(mock), "", "ensure", "--title", "T", "--body-file", "-", "--watch", "1m")
	assert.Error(t, err)

	_, err = run(t, mockBuilder(mock), "", "ensure", "--title", "T", "--body-file", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
	assert.Empty(t, mock.Calls)
}

func TestClose(t *testing.T) {
	mock := testutil.NewMockTracker(
		tracker.IssueSummary{ID: 1, Title: "Old"},
		tracker.IssueSummary{ID: 2, Title: "Old"},
	)

	_, err := run(t, mockBuilder(mock), "", "close", "--title", "Old")
	require.NoError(t, err)
	assert.Len(t, mock.CallsTo("close"), 2)

	mock.CloseErr = assert.AnError
	mock.Issues = []tracker.IssueSummary{{ID: 3, Title: "Old"}}
	_, err = run(t, mockBuilder(mock), "", "close", "--title", "Old")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestFind(t *testing.T) {
	mock := testutil.NewMockTracker(tracker.IssueSummary{ID: 5, Title: "Dependency Dashboard"})
	mock.Bodies[5] = "stored"

	out, err := run(t, mockBuilder(mock), "", "find", "--title", "Dependency Dashboard")
	require.NoError(t, err)
	assert.JSONEq(t, `{"number":5,"body":"stored"}`, out)

	out, err = run(t, mockBuilder(mock), "", "find", "--title", "Missing")
	require.NoError(t, err)
	assert.Equal(t, "null\n", out)
}

func TestGet(t *testing.T) {
	mock := testutil.NewMockTracker(tracker.IssueSummary{ID: 5, Title: "Dependency Dashboard"})
	mock.Bodies[5] = "stored"

	out, err := run(t, mockBuilder(mock), "", "get", "5", "--no-cache")
	require.NoError(t, err)
	assert.JSONEq(t, `{"number":5,"body":"stored"}`, out)
	assert.False(t, mock.LastUseGet)

	_, err = run(t, mockBuilder(mock), "", "get", "five")
	assert.Error(t, err)

	mock.GetErr = assert.AnError
	_, err = run(t, mockBuilder(mock), "", "get", "5")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestBuilderError(t *testing.T) {
	build := func(*config.Config, *zap.Logger) (rest.Service, error) {
		return nil, &config.ConfigurationError{Field: "endpoint", Reason: "missing"}
	}

	_, err := run(t, build, "", "close", "--title", "T")
	assert.True(t, errors.Is(err, config.ErrConfiguration))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	r, err := mockBuilder(testutil.NewMockTracker())(&config.Config{}, zap.NewNop())
	require.NoError(t, err)
	handler := rest.NewRouter(rest.NewHandler(r, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, listener, handler, zap.NewNop())
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
