package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/messages"
)

func logOf(bodies ...string) messages.EventLog {
	out := make(messages.EventLog, 0, len(bodies))
	for i, b := range bodies {
		out = append(out, messages.RawEvent{Key: string(rune('a' + i)), Body: []byte(b)})
	}
	return out
}

func TestProjectEmergencies(t *testing.T) {
	rows := ProjectEmergencies(logOf(
		`{"timestamp":"09:00:01","latitude":3.139,"longitude":101.6869,"status":"sent","notificationSent":true}`,
		`{}`,
	))
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].No)
	assert.Equal(t, "09:00:01", rows[0].Time)
	assert.Equal(t, "3.139, 101.6869", rows[0].Location)
	assert.Equal(t, "SENT", rows[0].Status)
	assert.Equal(t, "Sent", rows[0].Notification)
	assert.True(t, rows[0].HasLocation)
	assert.Equal(t, 3.139, rows[0].Lat)

	assert.Equal(t, 2, rows[1].No)
	assert.Equal(t, "N/A", rows[1].Time)
	assert.Equal(t, "0", rows[1].Latitude)
	assert.Equal(t, "0", rows[1].Longitude)
	assert.Equal(t, "N/A", rows[1].Status)
	assert.Equal(t, "Failed", rows[1].Notification)
	assert.False(t, rows[1].HasLocation)
}

func TestLatestLocationUsesNewestOnly(t *testing.T) {
	p := Project(logOf(
		`{"latitude":"3.1","longitude":"101.6"}`,
		`{"latitude":"1.5","longitude":"103.7"}`,
	), nil, nil)
	require.NotNil(t, p.LatestLocation)
	assert.Equal(t, messages.Location{Lat: 1.5, Lon: 103.7}, *p.LatestLocation)
	assert.Empty(t, p.Warnings)
}

func TestLatestLocationZeroFix(t *testing.T) {
	p := Project(logOf(
		`{"latitude":"3.1","longitude":"101.6"}`,
		`{"latitude":0,"longitude":101.6}`,
	), nil, nil)
	assert.Nil(t, p.LatestLocation)
	require.Len(t, p.Warnings, 1)
	assert.Contains(t, p.Warnings[0], "#2")
	assert.Contains(t, p.Warnings[0], "not available")
}

func TestLatestLocationMalformed(t *testing.T) {
	p := Project(logOf(`{"latitude":"north","longitude":"101.6"}`), nil, nil)
	assert.Nil(t, p.LatestLocation)
	require.Len(t, p.Warnings, 1)
	assert.Contains(t, p.Warnings[0], "invalid GPS coordinates")

	_, _, err := parseCoordinates("north", "1")
	assert.True(t, errors.Is(err, ErrMalformedCoordinate))
}

func TestLatestLocationEmpty(t *testing.T) {
	loc, warn := LatestLocation(nil)
	assert.Nil(t, loc)
	assert.Empty(t, warn)
}

func TestProjectObstaclesAndRF(t *testing.T) {
	obs := ProjectObstacles(logOf(`{"timestamp":"10:00:00","sensor1":25.5,"sensor2":"80"}`, `{"timestamp":"10:00:05"}`))
	require.Len(t, obs, 2)
	assert.Equal(t, messages.ObstacleRow{No: 1, Time: "10:00:00", Sensor1: 25.5, Sensor2: 80}, obs[0])
	assert.Equal(t, messages.ObstacleRow{No: 2, Time: "10:00:05"}, obs[1])

	rf := ProjectRF(logOf(`{"timestamp":"10:01:00","status":"received"}`, `{}`))
	require.Len(t, rf, 2)
	assert.Equal(t, messages.RFRow{No: 1, Time: "10:01:00", Status: "RECEIVED"}, rf[0])
	assert.Equal(t, messages.RFRow{No: 2, Time: "N/A", Status: "N/A"}, rf[1])
}

func TestProjectEmergencyNotificationKey(t *testing.T) {
	rows := ProjectEmergencies(logOf(
		`{"timestamp":"09:10:00","notificationSent":true}`,
		`{"timestamp":"09:11:00","notificationSent":false}`,
		`{"timestamp":"09:12:00","notification_sent":true}`,
	))
	require.Len(t, rows, 3)
	assert.True(t, rows[0].NotificationSent)
	assert.Equal(t, "Sent", rows[0].Notification)
	assert.Equal(t, "Failed", rows[1].Notification)
	// only the device's camelCase key counts
	assert.Equal(t, "Failed", rows[2].Notification)
}
