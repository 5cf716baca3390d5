package telemetry

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/entities"
	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/messages"
)

// Policy selects where the network figures of a sample come from.
type Policy string

const (
	// PolicyReported trusts what the device wrote under network/latency.
	PolicyReported Policy = "reported"
	// PolicySynthetic fabricates latency, signal and packet size for demos.
	PolicySynthetic Policy = "synthetic"
)

const (
	DefaultTimeZone = "Asia/Kuala_Lumpur"
	TimestampLayout = "15:04:05"

	resultSuccess = "SUCCESS"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyReported, PolicySynthetic:
		return p, nil
	default:
		return "", fmt.Errorf("unknown estimator policy %q", s)
	}
}

// Clock is injected so tests can pin the sample timestamp.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}

// packetBase is the fixed header size; the payload depends on what was sent.
const packetBase = 180

// PacketSize is the synthetic packet size for an event type.
func PacketSize(evt entities.EventType) float64 {
	switch evt {
	case entities.EventGPSUpdate:
		return packetBase + 250
	case entities.EventSensor1Reading, entities.EventSensor2Reading:
		return packetBase + 120
	case entities.EventRFReceived:
		return packetBase + 80
	default:
		return packetBase + 60
	}
}

type EstimatorConfig struct {
	Policy Policy
	// DefaultStatus is used when the device did not report a transmission status.
	DefaultStatus string
	Location      *time.Location
}

type Estimator struct {
	cfg   EstimatorConfig
	rng   *rand.Rand
	clock Clock
}

// NewEstimator fills unset config with defaults. A nil rng gets a randomly
// seeded PCG source; a nil clock reads the wall clock.
func NewEstimator(cfg EstimatorConfig, rng *rand.Rand, clock Clock) *Estimator {
	if cfg.Policy == "" {
		cfg.Policy = PolicyReported
	}
	if cfg.DefaultStatus == "" {
		cfg.DefaultStatus = "success"
	}
	if cfg.Location == nil {
		loc, err := time.LoadLocation(DefaultTimeZone)
		if err != nil {
			loc = time.UTC
		}
		cfg.Location = loc
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Estimator{cfg: cfg, rng: rng, clock: clock}
}

func (e *Estimator) Policy() Policy { return e.cfg.Policy }

// Estimate builds the sample for the current tick. The sequence number is
// left for the history buffer to assign.
func (e *Estimator) Estimate(evt entities.EventType, st entities.SystemStatus, net messages.NetworkLatency) messages.NetworkSample {
	var latency, signal, packet float64

	switch e.cfg.Policy {
	case PolicySynthetic:
		latency = float64(35 + e.rng.IntN(111))
		if st.WiFi.HasRSSI {
			signal = st.WiFi.RSSI
		} else {
			signal = float64(-65 + e.rng.IntN(21))
		}
		packet = PacketSize(evt)
	default:
		latency = net.Current
		if st.WiFi.HasRSSI {
			signal = st.WiFi.RSSI
		}
		packet = net.PacketSize
	}

	status := e.cfg.DefaultStatus
	if net.HasStatus {
		status = net.Status
	}
	result := strings.ToUpper(status)
	connected := result == resultSuccess
	label := "Failed"
	if connected {
		label = "Connected"
	}

	return messages.NetworkSample{
		Timestamp:          e.clock.Now().In(e.cfg.Location).Format(TimestampLayout),
		EventType:          evt,
		LatencyMs:          latency,
		RTTMs:              latency * 2,
		SignalStrengthDbm:  signal,
		PacketSizeBytes:    packet,
		TransmissionResult: result,
		Connected:          connected,
		NetworkStatus:      label,
	}
}
