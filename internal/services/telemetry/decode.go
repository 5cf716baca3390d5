package telemetry

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/entities"
	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/messages"
	"github.com/LeonardoBeccarini/smartstick_monitor/internal/store"
)

// objectOf parses raw as a JSON object. Anything else (missing, null, scalar,
// invalid) becomes the empty result, whose lookups all miss.
func objectOf(raw []byte) gjson.Result {
	if store.IsEmpty(raw) || !gjson.ValidBytes(raw) {
		return gjson.Result{}
	}
	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		return gjson.Result{}
	}
	return r
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

func parseStatus(raw []byte) entities.SystemStatus {
	root := objectOf(raw)

	var st entities.SystemStatus
	st.Sensors.Sensor1 = parseUltrasonic(root.Get("sensors.sensor1"))
	st.Sensors.Sensor2 = parseUltrasonic(root.Get("sensors.sensor2"))
	st.Actuators.Buzzer = root.Get("actuators.buzzer").Bool()
	st.Actuators.Vibration = root.Get("actuators.vibration").Bool()
	st.RF.Active = root.Get("rf.active").Bool()
	st.Emergency.Active = root.Get("emergency.active").Bool()
	if rssi := root.Get("wifi.rssi"); present(rssi) {
		st.WiFi.RSSI = rssi.Float()
		st.WiFi.HasRSSI = true
	}
	return st
}

func parseUltrasonic(r gjson.Result) entities.UltrasonicSensor {
	return entities.UltrasonicSensor{
		Distance:  r.Get("distance").Float(),
		Detecting: r.Get("detecting").Bool(),
	}
}

func parseNetwork(raw []byte) messages.NetworkLatency {
	root := objectOf(raw)
	n := messages.NetworkLatency{
		Current:    root.Get("current").Float(),
		PacketSize: root.Get("packet_size").Float(),
	}
	if s := root.Get("status"); present(s) {
		n.Status = s.String()
		n.HasStatus = true
	}
	return n
}

// parseLog keeps the children of an event collection in the order the store
// returned them. Integer-keyed collections arrive as arrays with null holes;
// the holes are skipped.
func parseLog(raw []byte) messages.EventLog {
	if store.IsEmpty(raw) || !gjson.ValidBytes(raw) {
		return nil
	}
	r := gjson.ParseBytes(raw)
	isArray := r.IsArray()
	if !r.IsObject() && !isArray {
		return nil
	}

	var (
		out messages.EventLog
		idx int
	)
	r.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if isArray {
			k = strconv.Itoa(idx)
		}
		idx++
		if value.Type == gjson.Null {
			return true
		}
		out = append(out, messages.RawEvent{Key: k, Body: []byte(value.Raw)})
		return true
	})
	return out
}
