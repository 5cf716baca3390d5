package telemetry

import (
	"time"

	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/entities"
	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/messages"
)

// Frame is everything a viewer needs to render one tick. Frames handed out
// by Session are never mutated afterwards.
type Frame struct {
	SessionID      string                   `json:"session_id"`
	Tick           uint64                   `json:"tick"`
	GeneratedAt    time.Time                `json:"generated_at"`
	Status         entities.SystemStatus    `json:"status"`
	EventType      entities.EventType       `json:"event_type"`
	Current        messages.NetworkSample   `json:"current"`
	Admitted       bool                     `json:"admitted"`
	History        []messages.NetworkSample `json:"history"`
	Stats          AggregateStats           `json:"stats"`
	Alerts         AlertReport              `json:"alerts"`
	Emergencies    []messages.EmergencyRow  `json:"emergencies"`
	Obstacles      []messages.ObstacleRow   `json:"obstacles"`
	RFEvents       []messages.RFRow         `json:"rf_events"`
	LatestLocation *messages.Location       `json:"latest_location"`
	Warnings       []string                 `json:"warnings"`
}
