package dashboard

import (
	"net/http"
	"time"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusDown     = "down"
)

// StoreState reports the store's circuit breaker state ("closed",
// "half-open" or "open"). Drivers without a breaker pass nil.
type StoreState func() string

const breakerOpen = "open"

type healthReport struct {
	Status            string  `json:"status"`
	SessionID         string  `json:"session_id"`
	LastSuccessAgeSec float64 `json:"last_success_age_sec"`
	LastError         string  `json:"last_error,omitempty"`
	LastErrorAgeSec   float64 `json:"last_error_age_sec,omitempty"`
	StoreBreaker      string  `json:"store_breaker,omitempty"`
}

// assess maps the tick loop health onto ok / degraded / down:
// down before any successful tick, degraded while failing, stale or while
// the store breaker is open.
func assess(src FrameSource, staleAfter time.Duration, storeState StoreState) healthReport {
	h := src.Health()
	now := src.Now()
	rep := healthReport{SessionID: src.ID(), LastSuccessAgeSec: -1}
	if storeState != nil {
		rep.StoreBreaker = storeState()
	}

	age := h.SuccessAge(now)
	if age >= 0 {
		rep.LastSuccessAgeSec = age.Seconds()
	}
	if h.LastError != nil {
		rep.LastError = h.LastError.Error()
		rep.LastErrorAgeSec = now.Sub(h.LastErrorAt).Seconds()
	}

	switch {
	case age < 0:
		rep.Status = statusDown
	case h.Failing() || age > staleAfter || rep.StoreBreaker == breakerOpen:
		rep.Status = statusDegraded
	default:
		rep.Status = statusOK
	}
	return rep
}

type healthHandler struct {
	src        FrameSource
	staleAfter time.Duration
	storeState StoreState
}

func NewHealthHandler(src FrameSource, staleAfter time.Duration, storeState StoreState) http.Handler {
	return &healthHandler{src: src, staleAfter: staleAfter, storeState: storeState}
}

// /healthz always answers 200; the body carries the verdict.
func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, assess(h.src, h.staleAfter, h.storeState))
}

// /readyz: 200 only after a successful tick within the staleness window.
type readyHandler struct {
	src        FrameSource
	staleAfter time.Duration
}

func NewReadyHandler(src FrameSource, staleAfter time.Duration) http.Handler {
	return &readyHandler{src: src, staleAfter: staleAfter}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	age := h.src.Health().SuccessAge(h.src.Now())
	ready := age >= 0 && age <= h.staleAfter
	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, struct {
		Ready bool `json:"ready"`
	}{ready})
}
