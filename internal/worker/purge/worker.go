// Package purge removes scam history entries past the retention period.
package purge

import (
	"context"
	"time"

	"github.com/robalyx/scamguard/internal/metrics"
	"github.com/robalyx/scamguard/internal/scam/history"
	"github.com/robalyx/scamguard/pkg/utils"
	"go.uber.org/zap"
)

// Worker periodically purges old scam history.
type Worker struct {
	store     history.Store
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// New creates a new purge worker.
func New(store history.Store, retention, interval time.Duration, logger *zap.Logger) *Worker {
	if retention <= 0 {
		retention = history.DefaultRetention
	}

	if interval <= 0 {
		interval = 24 * time.Hour
	}

	return &Worker{
		store:     store,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		logger:    logger.Named("purge_worker"),
	}
}

// WithClock replaces the time source. Used by tests.
func (w *Worker) WithClock(now func() time.Time) *Worker {
	w.now = now
	return w
}

// Start runs a purge immediately and then once per interval until the
// context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Purge Worker started",
		zap.Duration("retention", w.retention),
		zap.Duration("interval", w.interval))

	for !utils.ContextGuard(ctx) {
		w.RunOnce(ctx)

		if !utils.IntervalSleep(ctx, w.interval, w.logger, "purge worker") {
			return
		}
	}
}

// RunOnce deletes every entry sent before the retention cutoff and returns
// the number removed. Failures are logged and retried on the next run.
func (w *Worker) RunOnce(ctx context.Context) int {
	cutoff := w.now().Add(-w.retention)

	affected, err := w.store.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		w.logger.Error("Error purging scam history",
			zap.Time("cutoffDate", cutoff),
			zap.Error(err))

		return 0
	}

	metrics.HistoryPurged.Add(float64(affected))

	if affected > 0 {
		w.logger.Info("Purged old scam history",
			zap.Int("affected", affected),
			zap.Time("cutoffDate", cutoff))
	}

	return affected
}
