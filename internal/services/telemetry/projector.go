package telemetry

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/messages"
)

// ErrMalformedCoordinate is returned when a latitude or longitude is not a number.
var ErrMalformedCoordinate = errors.New("malformed coordinate")

const notAvailable = "N/A"

// Projection is the display form of the three event logs.
type Projection struct {
	Emergencies    []messages.EmergencyRow
	Obstacles      []messages.ObstacleRow
	RFEvents       []messages.RFRow
	LatestLocation *messages.Location
	Warnings       []string
}

func Project(emergency, obstacles, rf messages.EventLog) Projection {
	p := Projection{
		Emergencies: ProjectEmergencies(emergency),
		Obstacles:   ProjectObstacles(obstacles),
		RFEvents:    ProjectRF(rf),
	}
	loc, warn := LatestLocation(p.Emergencies)
	p.LatestLocation = loc
	if warn != "" {
		p.Warnings = append(p.Warnings, warn)
	}
	return p
}

func stringOr(r gjson.Result, def string) string {
	if !present(r) {
		return def
	}
	return r.String()
}

func ProjectEmergencies(log messages.EventLog) []messages.EmergencyRow {
	rows := make([]messages.EmergencyRow, 0, len(log))
	for i, ev := range log {
		body := gjson.ParseBytes(ev.Body)
		row := messages.EmergencyRow{
			No:               i + 1,
			Time:             stringOr(body.Get("timestamp"), notAvailable),
			Latitude:         stringOr(body.Get("latitude"), "0"),
			Longitude:        stringOr(body.Get("longitude"), "0"),
			Status:           strings.ToUpper(stringOr(body.Get("status"), notAvailable)),
			NotificationSent: body.Get("notificationSent").Bool(),
		}
		row.Location = row.Latitude + ", " + row.Longitude
		row.Notification = "Failed"
		if row.NotificationSent {
			row.Notification = "Sent"
		}
		if lat, lon, err := parseCoordinates(row.Latitude, row.Longitude); err == nil && lat != 0 && lon != 0 {
			row.HasLocation = true
			row.Lat, row.Lon = lat, lon
		}
		rows = append(rows, row)
	}
	return rows
}

func ProjectObstacles(log messages.EventLog) []messages.ObstacleRow {
	rows := make([]messages.ObstacleRow, 0, len(log))
	for i, ev := range log {
		body := gjson.ParseBytes(ev.Body)
		rows = append(rows, messages.ObstacleRow{
			No:      i + 1,
			Time:    stringOr(body.Get("timestamp"), notAvailable),
			Sensor1: body.Get("sensor1").Float(),
			Sensor2: body.Get("sensor2").Float(),
		})
	}
	return rows
}

func ProjectRF(log messages.EventLog) []messages.RFRow {
	rows := make([]messages.RFRow, 0, len(log))
	for i, ev := range log {
		body := gjson.ParseBytes(ev.Body)
		rows = append(rows, messages.RFRow{
			No:     i + 1,
			Time:   stringOr(body.Get("timestamp"), notAvailable),
			Status: strings.ToUpper(stringOr(body.Get("status"), notAvailable)),
		})
	}
	return rows
}

// LatestLocation looks at the newest emergency only. When it has no usable
// fix the second return value explains why; an empty log returns neither.
func LatestLocation(rows []messages.EmergencyRow) (*messages.Location, string) {
	if len(rows) == 0 {
		return nil, ""
	}
	last := rows[len(rows)-1]
	lat, lon, err := parseCoordinates(last.Latitude, last.Longitude)
	if err != nil {
		return nil, fmt.Sprintf("Emergency #%d: invalid GPS coordinates (%s)", last.No, last.Location)
	}
	if lat == 0 || lon == 0 {
		return nil, fmt.Sprintf("Emergency #%d: GPS location not available", last.No)
	}
	return &messages.Location{Lat: lat, Lon: lon}, ""
}

func parseCoordinates(latS, lonS string) (float64, float64, error) {
	lat, err := parseCoordinate(latS)
	if err != nil {
		return 0, 0, err
	}
	lon, err := parseCoordinate(lonS)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedCoordinate, s)
	}
	return v, nil
}
