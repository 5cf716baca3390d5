package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/entities"
	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/messages"
)

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" Synthetic ")
	require.NoError(t, err)
	assert.Equal(t, PolicySynthetic, p)

	_, err = ParsePolicy("guess")
	assert.Error(t, err)
}

func TestPacketSize(t *testing.T) {
	assert.Equal(t, 430.0, PacketSize(entities.EventGPSUpdate))
	assert.Equal(t, 300.0, PacketSize(entities.EventSensor1Reading))
	assert.Equal(t, 300.0, PacketSize(entities.EventSensor2Reading))
	assert.Equal(t, 260.0, PacketSize(entities.EventRFReceived))
	assert.Equal(t, 240.0, PacketSize(entities.EventIdle))
	assert.Equal(t, 240.0, PacketSize(entities.EventMonitoring))
}

func TestEstimateReported(t *testing.T) {
	e := NewEstimator(EstimatorConfig{Policy: PolicyReported}, seeded(), newStepClock(epoch, time.Second))

	st := entities.SystemStatus{WiFi: entities.WiFi{RSSI: -61, HasRSSI: true}}
	net := messages.NetworkLatency{Current: 87, PacketSize: 512, Status: "success", HasStatus: true}

	s := e.Estimate(entities.EventMonitoring, st, net)
	assert.Equal(t, "08:00:00", s.Timestamp) // Kuala Lumpur is UTC+8
	assert.Equal(t, 87.0, s.LatencyMs)
	assert.Equal(t, 174.0, s.RTTMs)
	assert.Equal(t, 512.0, s.PacketSizeBytes)
	assert.Equal(t, -61.0, s.SignalStrengthDbm)
	assert.Equal(t, "SUCCESS", s.TransmissionResult)
	assert.True(t, s.Connected)
	assert.Equal(t, "Connected", s.NetworkStatus)
	assert.Zero(t, s.No)
}

func TestEstimateReportedMissingFields(t *testing.T) {
	e := NewEstimator(EstimatorConfig{Policy: PolicyReported, DefaultStatus: "unknown"}, seeded(), newStepClock(epoch, time.Second))

	s := e.Estimate(entities.EventMonitoring, entities.SystemStatus{}, messages.NetworkLatency{})
	assert.Zero(t, s.LatencyMs)
	assert.Zero(t, s.RTTMs)
	assert.Zero(t, s.SignalStrengthDbm)
	assert.Zero(t, s.PacketSizeBytes)
	assert.Equal(t, "UNKNOWN", s.TransmissionResult)
	assert.False(t, s.Connected)
	assert.Equal(t, "Failed", s.NetworkStatus)
}

func TestEstimateFailedStatus(t *testing.T) {
	e := NewEstimator(EstimatorConfig{}, seeded(), newStepClock(epoch, time.Second))
	s := e.Estimate(entities.EventRFReceived, entities.SystemStatus{}, messages.NetworkLatency{Status: "failed", HasStatus: true})
	assert.Equal(t, "FAILED", s.TransmissionResult)
	assert.False(t, s.Connected)
}

func TestEstimateSynthetic(t *testing.T) {
	e := NewEstimator(EstimatorConfig{Policy: PolicySynthetic}, seeded(), newStepClock(epoch, time.Second))

	for i := 0; i < 500; i++ {
		s := e.Estimate(entities.EventRFReceived, entities.SystemStatus{}, messages.NetworkLatency{})
		require.GreaterOrEqual(t, s.LatencyMs, 35.0)
		require.LessOrEqual(t, s.LatencyMs, 145.0)
		require.Equal(t, s.LatencyMs*2, s.RTTMs)
		require.GreaterOrEqual(t, s.SignalStrengthDbm, -65.0)
		require.LessOrEqual(t, s.SignalStrengthDbm, -45.0)
		require.Equal(t, 260.0, s.PacketSizeBytes)
		require.Equal(t, "SUCCESS", s.TransmissionResult)
	}

	gps := e.Estimate(entities.EventGPSUpdate, entities.SystemStatus{WiFi: entities.WiFi{RSSI: -80, HasRSSI: true}}, messages.NetworkLatency{})
	assert.Equal(t, 430.0, gps.PacketSizeBytes)
	assert.Equal(t, -80.0, gps.SignalStrengthDbm)
}

func TestEstimateCustomLocation(t *testing.T) {
	e := NewEstimator(EstimatorConfig{Location: time.UTC}, seeded(), newStepClock(epoch.Add(13*time.Hour+5*time.Minute+9*time.Second), time.Second))
	s := e.Estimate(entities.EventMonitoring, entities.SystemStatus{}, messages.NetworkLatency{})
	assert.Equal(t, "13:05:09", s.Timestamp)
}
