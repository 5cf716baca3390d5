// Package observability carries the metrics port used by the tick loop and
// its Prometheus implementation.
package observability

// Metric names understood by PromObs. Unknown names are ignored.
const (
	TicksTotal           = "stick_ticks_total"
	StoreFailuresTotal   = "stick_store_failures_total"
	SamplesAdmittedTotal = "stick_samples_admitted_total"
	FramesDroppedTotal   = "stick_viewer_frames_dropped_total"

	HistoryLength      = "stick_history_length"
	MeanLatencyMs      = "stick_mean_latency_ms"
	MeanSignalDbm      = "stick_mean_signal_strength_dbm"
	SuccessRatePercent = "stick_success_rate_percent"
	MaxRTTMs           = "stick_max_rtt_ms"
	ActiveAlerts       = "stick_active_alerts"
	EmergencyActive    = "stick_emergency_active"

	TickDurationSeconds = "stick_tick_duration_seconds"
)

type Observability interface {
	IncCounter(name string, v float64)
	SetGauge(name string, v float64)
	ObserveLatency(name string, seconds float64)
}

// Nop discards everything.
type Nop struct{}

func (Nop) IncCounter(string, float64)     {}
func (Nop) SetGauge(string, float64)       {}
func (Nop) ObserveLatency(string, float64) {}
