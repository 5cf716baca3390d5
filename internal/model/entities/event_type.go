package entities

// EventType labels what produced the telemetry of the current tick.
type EventType string

const (
	EventIdle           EventType = "System Idle"
	EventGPSUpdate      EventType = "GPS Location Update"
	EventSensor1Reading EventType = "Sensor 1 Reading"
	EventSensor2Reading EventType = "Sensor 2 Reading"
	EventRFReceived     EventType = "RF Signal Received"
	EventMonitoring     EventType = "System Monitoring"
)
