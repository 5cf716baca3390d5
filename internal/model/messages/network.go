package messages

import "github.com/LeonardoBeccarini/smartstick_monitor/internal/model/entities"

// NetworkLatency is the `network/latency` tree measured on the device.
type NetworkLatency struct {
	Current    float64 `json:"current"`     // ms
	PacketSize float64 `json:"packet_size"` // bytes
	Status     string  `json:"status"`
	HasStatus  bool    `json:"-"`
}

// NetworkSample is one row of the rolling network performance history.
// RTTMs is always 2*LatencyMs.
type NetworkSample struct {
	No                 int                `json:"no"`
	Timestamp          string             `json:"timestamp"` // HH:MM:SS, device local time
	EventType          entities.EventType `json:"event_type"`
	LatencyMs          float64            `json:"latency_ms"`
	RTTMs              float64            `json:"rtt_ms"`
	SignalStrengthDbm  float64            `json:"signal_strength_dbm"`
	PacketSizeBytes    float64            `json:"packet_size_bytes"`
	TransmissionResult string             `json:"transmission_result"`
	Connected          bool               `json:"connected"`
	NetworkStatus      string             `json:"network_status"` // Connected | Failed
}
