package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lowaak/smart-trainer/pose-trainer-app/internal/go_func_utils"
)

// Server exposes a registry on /metrics
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
}

func NewServer(addr string, gatherer prometheus.Gatherer, logger *log.Logger) *Server {
	if logger == nil {
		panic("MetricsServer: logger cannot be nil")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves in the background
func (s *Server) Start() {
	go_func_utils.SafeGo(s.logger, "metrics server", func() {
		s.logger.Printf("MetricsServer: listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("MetricsServer: server error: %v", err)
		}
	})
}

// Shutdown stops the server
func (s *Server) Shutdown(ctx context.Context) {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Printf("MetricsServer: shutdown error: %v", err)
	}
}
