package telemetry

import "github.com/LeonardoBeccarini/smartstick_monitor/internal/model/messages"

const DefaultHistoryCapacity = 20

// History is the rolling window of network samples for one session.
// Samples are numbered 1..n in admission order; eviction renumbers them.
// It is not safe for concurrent use; Session serialises access.
type History struct {
	capacity int
	samples  []messages.NetworkSample
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		capacity: capacity,
		samples:  make([]messages.NetworkSample, 0, capacity+1),
	}
}

// Admit appends s unless its timestamp equals the last admitted one.
// Only the immediate predecessor is compared.
func (h *History) Admit(s messages.NetworkSample) bool {
	if n := len(h.samples); n > 0 && h.samples[n-1].Timestamp == s.Timestamp {
		return false
	}
	s.No = len(h.samples) + 1
	h.samples = append(h.samples, s)

	if len(h.samples) > h.capacity {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:len(h.samples)-1]
		for i := range h.samples {
			h.samples[i].No = i + 1
		}
	}
	return true
}

// Samples returns a copy of the window, oldest first.
func (h *History) Samples() []messages.NetworkSample {
	out := make([]messages.NetworkSample, len(h.samples))
	copy(out, h.samples)
	return out
}

func (h *History) Len() int { return len(h.samples) }

func (h *History) Capacity() int { return h.capacity }

// Last returns the newest sample, if any.
func (h *History) Last() (messages.NetworkSample, bool) {
	if len(h.samples) == 0 {
		return messages.NetworkSample{}, false
	}
	return h.samples[len(h.samples)-1], true
}
