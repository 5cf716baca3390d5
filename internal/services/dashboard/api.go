// Package dashboard serves the frames produced by a telemetry session to
// viewers over HTTP, WebSocket and gRPC health.
package dashboard

import (
	"bufio"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/LeonardoBeccarini/smartstick_monitor/internal/services/telemetry"
)

// FrameSource is the read side of a telemetry.Session.
type FrameSource interface {
	ID() string
	Latest() (telemetry.Frame, bool)
	Subscribe(buffer int) (<-chan telemetry.Frame, func())
	Health() telemetry.Health
	Now() time.Time
}

var _ FrameSource = (*telemetry.Session)(nil)

type Options struct {
	// StaleAfter is how old the last successful tick may be before the
	// service reports itself degraded and not ready.
	StaleAfter time.Duration
	// Metrics, when set, is mounted on /metrics.
	Metrics http.Handler
	// StoreState, when set, is reported on /healthz.
	StoreState StoreState
	Logger     *slog.Logger
}

// NewHandler wires every dashboard route on a fresh mux.
func NewHandler(src FrameSource, opts Options) http.Handler {
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("GET /dashboard/data", &dataHandler{src: src})
	mux.Handle("GET /dashboard/history", &historyHandler{src: src})
	mux.Handle("GET /dashboard/alerts", &alertsHandler{src: src})
	mux.Handle("GET /dashboard/stream", newStreamHandler(src, opts.Logger))
	mux.Handle("GET /healthz", NewHealthHandler(src, opts.StaleAfter, opts.StoreState))
	mux.Handle("GET /readyz", NewReadyHandler(src, opts.StaleAfter))
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}
	return logRequests(mux, opts.Logger)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func warmingUp(w http.ResponseWriter) {
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "warming_up"})
}

type dataHandler struct{ src FrameSource }

func (h *dataHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	f, ok := h.src.Latest()
	if !ok {
		warmingUp(w)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

type historyHandler struct{ src FrameSource }

func (h *historyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	f, ok := h.src.Latest()
	if !ok {
		warmingUp(w)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		SessionID string `json:"session_id"`
		Tick      uint64 `json:"tick"`
		History   any    `json:"history"`
		Stats     any    `json:"stats"`
	}{f.SessionID, f.Tick, f.History, f.Stats})
}

type alertsHandler struct{ src FrameSource }

func (h *alertsHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	f, ok := h.src.Latest()
	if !ok {
		warmingUp(w)
		return
	}
	writeJSON(w, http.StatusOK, f.Alerts)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack is needed by the WebSocket upgrade on /dashboard/stream.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("dashboard: response writer cannot be hijacked")
	}
	return h.Hijack()
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug("dashboard: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.code,
			"took", time.Since(start),
		)
	})
}
