package messages

// RawEvent is a single child of one of the `events/*` logs, kept as the raw
// JSON the store returned so projection can apply its own defaults.
type RawEvent struct {
	Key  string `json:"key"`
	Body []byte `json:"-"`
}

// EventLog is an event collection in store iteration order.
type EventLog []RawEvent

// EmergencyRow is the display projection of an `events/emergency` entry.
type EmergencyRow struct {
	No               int     `json:"no"`
	Time             string  `json:"time"`
	Latitude         string  `json:"latitude"`
	Longitude        string  `json:"longitude"`
	Location         string  `json:"location"`
	Status           string  `json:"status"`
	NotificationSent bool    `json:"notification_sent"`
	Notification     string  `json:"notification"` // Sent | Failed
	HasLocation      bool    `json:"has_location"`
	Lat              float64 `json:"lat,omitempty"`
	Lon              float64 `json:"lon,omitempty"`
}

// ObstacleRow is the display projection of an `events/obstacles` entry.
type ObstacleRow struct {
	No      int     `json:"no"`
	Time    string  `json:"time"`
	Sensor1 float64 `json:"sensor1"` // cm
	Sensor2 float64 `json:"sensor2"` // cm
}

// RFRow is the display projection of an `events/rf` entry.
type RFRow struct {
	No     int    `json:"no"`
	Time   string `json:"time"`
	Status string `json:"status"`
}

// Location is a usable GPS fix taken from the latest emergency event.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
