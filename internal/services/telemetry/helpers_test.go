package telemetry

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/messages"
)

// stepClock advances by step on every call to Now.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock(start time.Time, step time.Duration) *stepClock {
	return &stepClock{now: start, step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

var epoch = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func seeded() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }

func sampleAt(ts string, latency float64) messages.NetworkSample {
	return messages.NetworkSample{
		Timestamp:          ts,
		LatencyMs:          latency,
		RTTMs:              latency * 2,
		SignalStrengthDbm:  -50,
		TransmissionResult: "SUCCESS",
		Connected:          true,
		NetworkStatus:      "Connected",
	}
}
