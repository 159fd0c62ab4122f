// Package watch re-applies the dashboard issue on an interval.
package watch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/clintrovert/depdash/internal/dashboard"
)

// Ensurer is the part of the reconciler the watcher drives
type Ensurer interface {
	EnsureIssue(ctx context.Context, in dashboard.EnsureIssueInput) dashboard.EnsureResult
}

// Source produces the desired issue for each tick, typically by re-reading
// a body file.
type Source func() (dashboard.EnsureIssueInput, error)

// Watcher reconciles the dashboard issue periodically
type Watcher struct {
	ensurer  Ensurer
	source   Source
	interval time.Duration
	logger   *zap.Logger
	onResult func(dashboard.EnsureResult)
}

// NewWatcher creates a new Watcher
func NewWatcher(ensurer Ensurer, source Source, interval time.Duration, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		ensurer:  ensurer,
		source:   source,
		interval: interval,
		logger:   logger,
	}
}

// OnResult registers a callback invoked after every reconciliation
func (w *Watcher) OnResult(fn func(dashboard.EnsureResult)) {
	w.onResult = fn
}

// Start runs until ctx is cancelled
func (w *Watcher) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Initial run
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stopping dashboard watcher")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Watcher) tick(ctx context.Context) {
	in, err := w.source()
	if err != nil {
		w.logger.Error("failed to read desired dashboard", zap.Error(err))
		return
	}

	res := w.ensurer.EnsureIssue(ctx, in)
	if res.Changed() {
		w.logger.Info("dashboard reconciled",
			zap.String("title", in.Title),
			zap.Stringer("outcome", res.Outcome),
		)
	}
	if w.onResult != nil {
		w.onResult(res)
	}
}
