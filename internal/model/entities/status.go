package entities

// UltrasonicSensor is one of the two obstacle sensors mounted on the stick.
type UltrasonicSensor struct {
	Distance  float64 `json:"distance"` // cm
	Detecting bool    `json:"detecting"`
}

type Sensors struct {
	Sensor1 UltrasonicSensor `json:"sensor1"`
	Sensor2 UltrasonicSensor `json:"sensor2"`
}

type Actuators struct {
	Buzzer    bool `json:"buzzer"`
	Vibration bool `json:"vibration"`
}

type RF struct {
	Active bool `json:"active"`
}

type Emergency struct {
	Active bool `json:"active"`
}

// WiFi holds the link quality reported by the device. HasRSSI is false when
// the device did not report a value at all, which is different from 0 dBm.
type WiFi struct {
	RSSI    float64 `json:"rssi"`
	HasRSSI bool    `json:"has_rssi"`
}

// SystemStatus is the normalized `system/status` tree. Every field defaults to
// its zero value when the device did not report it.
type SystemStatus struct {
	Sensors   Sensors   `json:"sensors"`
	Actuators Actuators `json:"actuators"`
	RF        RF        `json:"rf"`
	Emergency Emergency `json:"emergency"`
	WiFi      WiFi      `json:"wifi"`
}
