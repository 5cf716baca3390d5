package stick_simulator

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/entities"
	"github.com/LeonardoBeccarini/smartstick_monitor/internal/services/telemetry"
	"github.com/LeonardoBeccarini/smartstick_monitor/internal/store"
)

// storePublisher writes published trees straight into a memory store.
type storePublisher struct {
	store  *store.MemoryStore
	order  []string
	closed bool
}

func (p *storePublisher) Publish(path string, payload []byte) error {
	p.order = append(p.order, path)
	p.store.Set(path, payload)
	return nil
}

func (p *storePublisher) Close() { p.closed = true }

type cmdMessage struct{ payload []byte }

func (m cmdMessage) Duplicate() bool   { return false }
func (m cmdMessage) Qos() byte         { return 1 }
func (m cmdMessage) Retained() bool    { return false }
func (m cmdMessage) Topic() string     { return "smartstick/" + CommandPath }
func (m cmdMessage) MessageID() uint16 { return 1 }
func (m cmdMessage) Payload() []byte   { return m.payload }
func (m cmdMessage) Ack()              {}

func newSim(t *testing.T) (*StickSimulator, *storePublisher) {
	t.Helper()
	pub := &storePublisher{store: store.NewMemoryStore()}
	gen := NewDataGenerator(rand.New(rand.NewPCG(7, 11)), time.UTC)
	sim := NewStickSimulator(nil, pub, gen, nil)
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	sim.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return sim, pub
}

func TestPublishOnceStatusLast(t *testing.T) {
	sim, pub := newSim(t)
	require.NoError(t, sim.PublishOnce())
	require.Len(t, pub.order, 5)
	assert.Equal(t, "system/status", pub.order[4])
}

func TestManualEmergencyIsReadable(t *testing.T) {
	sim, pub := newSim(t)

	require.NoError(t, sim.handleMessage("", cmdMessage{payload: []byte(`{"latitude":1.5,"longitude":103.75}`)}))
	require.NoError(t, sim.PublishOnce())

	snap, err := telemetry.NewReader(pub.store).Read(context.Background())
	require.NoError(t, err)

	assert.True(t, snap.Status.Emergency.Active)
	assert.True(t, snap.Status.Actuators.Vibration)
	assert.Equal(t, entities.EventGPSUpdate, telemetry.Classify(snap.Status))
	assert.True(t, snap.Status.WiFi.HasRSSI)
	assert.True(t, snap.Network.HasStatus)

	proj := telemetry.Project(snap.Emergency, snap.Obstacles, snap.RF)
	require.NotEmpty(t, proj.Emergencies)
	require.NotNil(t, proj.LatestLocation)
	assert.InDelta(t, 1.5, proj.LatestLocation.Lat, 1e-9)
	assert.InDelta(t, 103.75, proj.LatestLocation.Lon, 1e-9)
	assert.Equal(t, "ACTIVE", proj.Emergencies[len(proj.Emergencies)-1].Status)
}

func TestEventLogsStayOrderedAndCapped(t *testing.T) {
	sim, pub := newSim(t)
	for i := 0; i < maxEvents+20; i++ {
		sim.generator.TriggerEmergency(&Point{Lat: float64(i + 1), Lon: 1})
		require.NoError(t, sim.PublishOnce())
	}

	e, _, _ := sim.generator.Counts()
	assert.Equal(t, maxEvents, e)

	raw, err := pub.store.Get(context.Background(), "events/emergency")
	require.NoError(t, err)
	var tree map[string]emergencyEvent
	require.NoError(t, json.Unmarshal(raw, &tree))
	assert.Len(t, tree, maxEvents)

	snap, err := telemetry.NewReader(pub.store).Read(context.Background())
	require.NoError(t, err)
	rows := telemetry.ProjectEmergencies(snap.Emergency)
	require.Len(t, rows, maxEvents)
	// oldest surviving first, newest last
	assert.Equal(t, "21.000000", rows[0].Latitude)
	assert.Equal(t, "70.000000", rows[len(rows)-1].Latitude)
}

func TestGeneratorLatencyRange(t *testing.T) {
	gen := NewDataGenerator(rand.New(rand.NewPCG(3, 4)), nil)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 200; i++ {
		trees := gen.Next(start.Add(time.Duration(i) * time.Second))
		lat := trees["network/latency"].(latencyTree)
		require.GreaterOrEqual(t, lat.Current, 30)
		require.LessOrEqual(t, lat.Current, 200)
		st := trees["system/status"].(statusTree)
		require.GreaterOrEqual(t, st.WiFi.RSSI, -75)
		require.LessOrEqual(t, st.WiFi.RSSI, -45)
	}
}

func TestBadCommandRejected(t *testing.T) {
	sim, _ := newSim(t)
	assert.Error(t, sim.handleMessage("", cmdMessage{payload: []byte(`{nope`)}))
}
