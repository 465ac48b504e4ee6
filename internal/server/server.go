// Package server publishes the most recently generated calendar over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pfrederiksen/sports-calendar/internal/logger"
	"github.com/pfrederiksen/sports-calendar/internal/metrics"
	"github.com/pfrederiksen/sports-calendar/internal/pipeline"
)

const shutdownTimeout = 10 * time.Second

// Health is the body of GET /healthz.
type Health struct {
	Status      string     `json:"status"` // "ok" or "starting"
	GeneratedAt *time.Time `json:"generated_at,omitempty"`
	Events      int        `json:"events"`
	Placeholder bool       `json:"placeholder"`
	Failure     string     `json:"failure,omitempty"`
}

// Server holds the latest calendar document and serves it.
type Server struct {
	mu  sync.RWMutex
	doc *pipeline.Document

	router chi.Router
}

// New builds the router. m may be nil, in which case /metrics is not mounted.
func New(m *metrics.Metrics) *Server {
	s := &Server{}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)
	r.Use(requestLogger)

	r.Get("/calendar.ics", s.handleCalendar)
	r.Get("/healthz", s.handleHealth)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	s.router = r
	return s
}

// Publish replaces the served document.
func (s *Server) Publish(doc *pipeline.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
}

func (s *Server) current() *pipeline.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	doc := s.current()
	if doc == nil {
		w.Header().Set("Retry-After", "30")
		http.Error(w, "calendar not generated yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="master.ics"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Text)))
	w.Header().Set("Last-Modified", doc.GeneratedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write([]byte(doc.Text))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := Health{Status: "starting"}
	if doc := s.current(); doc != nil {
		generated := doc.GeneratedAt
		h = Health{
			Status:      "ok",
			GeneratedAt: &generated,
			Events:      doc.Events,
			Placeholder: doc.Placeholder,
			Failure:     doc.Failure,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h); err != nil {
		logger.Error("Failed to encode health response", nil, err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("HTTP request", logger.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(started).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		})
	})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logger.Fields{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("HTTP server shutting down", nil)
		return srv.Shutdown(shutdownCtx)
	}
}
