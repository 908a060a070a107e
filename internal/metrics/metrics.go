// Package metrics exposes Prometheus counters for the scam blocker.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	MessagesChecked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scamguard_messages_checked_total",
		Help: "Total number of guild messages run through scam detection",
	})

	ScamsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scamguard_scams_detected_total",
		Help: "Total number of detected scam messages",
	}, []string{"mode", "source"})

	DuplicateScams = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scamguard_duplicate_scams_total",
		Help: "Total number of scam messages already reported within the duplicate window",
	})

	FloodFlags = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scamguard_flood_flags_total",
		Help: "Total number of users flagged for message flooding",
	})

	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scamguard_side_effect_failures_total",
		Help: "Total number of failed platform actions",
	}, []string{"action"})

	ModeratorDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scamguard_moderator_decisions_total",
		Help: "Total number of moderator answers to scam reports",
	}, []string{"decision"})

	HistoryPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scamguard_history_purged_total",
		Help: "Total number of purged scam history entries",
	})

	FloodFingerprints = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scamguard_flood_fingerprints",
		Help: "Current number of tracked message fingerprints",
	})
)

// Side effect action labels.
const (
	ActionDelete     = "delete"
	ActionQuarantine = "quarantine"
	ActionNotify     = "notify"
	ActionReport     = "report"
	ActionDisable    = "disable_controls"
)

// Server serves the /metrics endpoint.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer creates a metrics server listening on addr.
func NewServer(addr string, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.Named("metrics"),
	}
}

// Run serves until ctx is done, then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Metrics server listening", zap.String("address", s.srv.Addr))

		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.srv.Shutdown(shutdownCtx)
}
