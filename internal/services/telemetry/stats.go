package telemetry

import (
	"fmt"

	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/messages"
)

type AggregateStats struct {
	MeanLatencyMs         float64 `json:"mean_latency_ms"`
	MeanSignalStrengthDbm float64 `json:"mean_signal_strength_dbm"`
	SuccessRatePercent    float64 `json:"success_rate_percent"`
	MaxRTTMs              float64 `json:"max_rtt_ms"`
	Samples               int     `json:"samples"`
	TotalEmergencies      int     `json:"total_emergencies"`
	TotalObstacles        int     `json:"total_obstacles"`
	TotalRF               int     `json:"total_rf"`
}

// EventCounts are the sizes of the three raw event collections.
type EventCounts struct {
	Emergencies int
	Obstacles   int
	RF          int
}

// Aggregate summarises the window. An empty window yields zeros.
func Aggregate(samples []messages.NetworkSample, counts EventCounts) AggregateStats {
	st := AggregateStats{
		Samples:          len(samples),
		TotalEmergencies: counts.Emergencies,
		TotalObstacles:   counts.Obstacles,
		TotalRF:          counts.RF,
	}
	if len(samples) == 0 {
		return st
	}

	var latency, signal float64
	var ok int
	for _, s := range samples {
		latency += s.LatencyMs
		signal += s.SignalStrengthDbm
		if s.TransmissionResult == resultSuccess {
			ok++
		}
		if s.RTTMs > st.MaxRTTMs {
			st.MaxRTTMs = s.RTTMs
		}
	}
	n := float64(len(samples))
	st.MeanLatencyMs = latency / n
	st.MeanSignalStrengthDbm = signal / n
	st.SuccessRatePercent = float64(ok) / n * 100
	return st
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

type AlertKind string

const (
	AlertHighLatency        AlertKind = "high_latency"
	AlertWeakSignal         AlertKind = "weak_signal"
	AlertFailedTransmission AlertKind = "failed_transmission"
	AlertHighRTT            AlertKind = "high_rtt"
)

type Thresholds struct {
	HighLatencyMs float64 `json:"high_latency_ms"`
	WeakSignalDbm float64 `json:"weak_signal_dbm"`
	HighRTTMs     float64 `json:"high_rtt_ms"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{HighLatencyMs: 500, WeakSignalDbm: -70, HighRTTMs: 1500}
}

type Alert struct {
	Kind      AlertKind `json:"kind"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Threshold float64   `json:"threshold"`
	Actual    float64   `json:"actual"`
}

// AlertReport is never silent: with no alert AllClear is set and Message says so.
type AlertReport struct {
	Alerts   []Alert `json:"alerts"`
	AllClear bool    `json:"all_clear"`
	Message  string  `json:"message"`
}

const allClearMessage = "All systems normal"

// EvaluateAlerts checks each rule independently against the window and its
// aggregates. Alerts are recomputed every tick.
func EvaluateAlerts(samples []messages.NetworkSample, st AggregateStats, th Thresholds) AlertReport {
	var alerts []Alert

	if len(samples) > 0 && st.MeanLatencyMs > th.HighLatencyMs {
		alerts = append(alerts, Alert{
			Kind:      AlertHighLatency,
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("High latency detected: %.1f ms average", st.MeanLatencyMs),
			Threshold: th.HighLatencyMs,
			Actual:    st.MeanLatencyMs,
		})
	}
	if len(samples) > 0 && st.MeanSignalStrengthDbm < th.WeakSignalDbm {
		alerts = append(alerts, Alert{
			Kind:      AlertWeakSignal,
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("Weak signal strength: %.1f dBm average", st.MeanSignalStrengthDbm),
			Threshold: th.WeakSignalDbm,
			Actual:    st.MeanSignalStrengthDbm,
		})
	}

	failed := 0
	for _, s := range samples {
		if s.TransmissionResult != resultSuccess {
			failed++
		}
	}
	if failed > 0 {
		alerts = append(alerts, Alert{
			Kind:     AlertFailedTransmission,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("Failed transmissions detected: %d of %d", failed, len(samples)),
			Actual:   float64(failed),
		})
	}

	if st.MaxRTTMs > th.HighRTTMs {
		alerts = append(alerts, Alert{
			Kind:      AlertHighRTT,
			Severity:  SeverityInfo,
			Message:   fmt.Sprintf("High RTT detected: %.1f ms peak", st.MaxRTTMs),
			Threshold: th.HighRTTMs,
			Actual:    st.MaxRTTMs,
		})
	}

	if len(alerts) == 0 {
		return AlertReport{Alerts: []Alert{}, AllClear: true, Message: allClearMessage}
	}
	return AlertReport{
		Alerts:  alerts,
		Message: fmt.Sprintf("%d alert(s) active", len(alerts)),
	}
}
