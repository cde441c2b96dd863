// Package api serves the most recent frame over HTTP for photo frames and
// dashboards that poll, alongside fetch health and Prometheus metrics.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/lox/tideline/internal/metrics"
	"github.com/lox/tideline/internal/store"
)

// Server holds the last presented frame in memory. It doubles as a display
// sink so the render loop can hand it frames directly.
type Server struct {
	store *store.Store
	addr  string
	log   logrus.FieldLogger

	mu         sync.RWMutex
	frame      []byte
	renderedAt time.Time
}

// NewServer listens on addr. st may be nil, in which case /health reports
// frame state only.
func NewServer(addr string, st *store.Store, log logrus.FieldLogger) *Server {
	return &Server{
		store: st,
		addr:  addr,
		log:   log.WithField("component", "api"),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/timeline.png", s.handleTimeline)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.log.WithField("addr", s.addr).Info("http server listening")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) latest() ([]byte, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.renderedAt
}
