// Package sweep drives the flood detector's expiry scan.
package sweep

import (
	"context"
	"time"

	"github.com/robalyx/scamguard/internal/metrics"
	"github.com/robalyx/scamguard/internal/scam/flood"
	"github.com/robalyx/scamguard/pkg/utils"
	"go.uber.org/zap"
)

// DefaultInterval is used when no interval is configured.
const DefaultInterval = 10 * time.Second

// Worker periodically removes expired flood fingerprints.
type Worker struct {
	detector *flood.Detector
	interval time.Duration
	logger   *zap.Logger
}

// New creates a new sweep worker.
func New(detector *flood.Detector, interval time.Duration, logger *zap.Logger) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Worker{
		detector: detector,
		interval: interval,
		logger:   logger.Named("sweep_worker"),
	}
}

// Start sweeps once per interval until the context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Sweep Worker started", zap.Duration("interval", w.interval))

	for utils.IntervalSleep(ctx, w.interval, w.logger, "sweep worker") {
		w.RunOnce()
	}
}

// RunOnce sweeps expired fingerprints and updates the fingerprint gauge.
func (w *Worker) RunOnce() int {
	removed := w.detector.Sweep()
	fingerprints, flagged := w.detector.Stats()

	metrics.FloodFingerprints.Set(float64(fingerprints))

	if removed > 0 {
		w.logger.Debug("Swept flood fingerprints",
			zap.Int("removed", removed),
			zap.Int("remaining", fingerprints),
			zap.Int("flagged", flagged))
	}

	return removed
}
