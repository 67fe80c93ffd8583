// Package remote serves a companion HTTP view of the assistant: every intent
// as a REST call, lifecycle events over a websocket and Prometheus metrics.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.aimuz.me/interviewcoder/config"
	"go.aimuz.me/interviewcoder/internal/types"
)

// Controller is the set of intents the companion view can trigger.
type Controller interface {
	GetState() types.State
	TakeScreenshot() (*types.Screenshot, error)
	ProcessQueue() bool
	ResetAll()
	ToggleRecording() (types.RecordingState, error)
	ResetAudio()
	ClearCache() error
	GetHistory() []types.HistoryEntry
	GetConfig() config.Config
	SaveConfig(cfg config.Config) error
}

// Server is the companion HTTP server.
type Server struct {
	ctrl     Controller
	hub      *Hub
	gatherer prometheus.Gatherer
	srv      *http.Server
}

// New creates a Server. gatherer may be nil to disable /metrics.
func New(ctrl Controller, gatherer prometheus.Gatherer) *Server {
	return &Server{ctrl: ctrl, hub: NewHub(), gatherer: gatherer}
}

// Broadcast forwards a lifecycle event to websocket clients.
func (s *Server) Broadcast(event string, data any) {
	s.hub.Broadcast(event, data)
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", s.getState)
		r.Get("/history", s.getHistory)
		r.Post("/screenshots", s.takeScreenshot)
		r.Post("/process", s.processQueue)
		r.Post("/reset", s.resetAll)
		r.Post("/recording/toggle", s.toggleRecording)
		r.Post("/audio/reset", s.resetAudio)
		r.Delete("/cache", s.clearCache)
		r.Get("/config", s.getConfig)
		r.Put("/config", s.putConfig)
		r.Get("/events", s.hub.ServeHTTP)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start listens on addr in the background.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.srv = &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("serve remote", "error", err)
		}
	}()
	slog.Info("remote view listening", "addr", ln.Addr().String())
	return nil
}

// Shutdown stops the listener and disconnects websocket clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		defer func() {
			slog.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, types.ErrConfigInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrCapabilityUnavailable), errors.Is(err, types.ErrUnsupportedOperation):
		status = http.StatusNotImplemented
	case errors.Is(err, types.ErrRecordingFailed):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
