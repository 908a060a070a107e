package setup

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"go.uber.org/zap"
)

// debugServer serves the runtime profiles on localhost only.
type debugServer struct {
	srv      *http.Server
	listener net.Listener
	logger   *zap.Logger
}

// startDebugServer listens on localhost:port, port 0 picks a free port.
// The profile handlers are mounted on their own mux so the metrics server
// never exposes them.
func startDebugServer(port int, logger *zap.Logger) (*debugServer, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for pprof: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	s := &debugServer{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			// Profiles and traces stream for their requested duration
			WriteTimeout: 2 * time.Minute,
		},
		listener: listener,
		logger:   logger.Named("pprof"),
	}

	go func() {
		s.logger.Warn("pprof endpoint enabled, do not expose it in production",
			zap.String("address", s.Addr()))

		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("pprof server stopped", zap.Error(err))
		}
	}()

	return s, nil
}

// Addr returns the address the server listens on.
func (s *debugServer) Addr() string {
	return s.listener.Addr().String()
}

// Close shuts the server down, dropping requests still running at ctx's deadline.
func (s *debugServer) Close(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
