package telemetry

import "github.com/LeonardoBeccarini/smartstick_monitor/internal/model/entities"

// Classify picks the single event type for a status snapshot. The checks run
// in a fixed order and the first match wins: an active emergency hides any
// sensor detection, and sensor 1 hides sensor 2.
func Classify(st entities.SystemStatus) entities.EventType {
	switch {
	case st.Emergency.Active:
		return entities.EventGPSUpdate
	case st.Sensors.Sensor1.Detecting:
		return entities.EventSensor1Reading
	case st.Sensors.Sensor2.Detecting:
		return entities.EventSensor2Reading
	case st.RF.Active:
		return entities.EventRFReceived
	default:
		return entities.EventMonitoring
	}
}
