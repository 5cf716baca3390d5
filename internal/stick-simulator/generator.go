package stick_simulator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// ====== Tunables ======
const (
	// detectRangeCm: an ultrasonic sensor "detects" below this distance.
	detectRangeCm = 100.0
	maxRangeCm    = 400.0

	// per-tick probabilities
	pEmergency = 0.02
	pRF        = 0.05
	pFailed    = 0.04
	pNoFix     = 0.25

	emergencyTicks = 5
	rfTicks        = 2

	// maxEvents caps each published event log.
	maxEvents = 50
)

// Home is the default position the simulated user walks around.
var Home = Point{Lat: 3.1390, Lon: 101.6869}

type Point struct {
	Lat, Lon float64
}

// Trees is one publishable snapshot, keyed by tree path.
type Trees map[string]any

type ultrasonic struct {
	Distance  float64 `json:"distance"`
	Detecting bool    `json:"detecting"`
}

type statusTree struct {
	Sensors struct {
		Sensor1 ultrasonic `json:"sensor1"`
		Sensor2 ultrasonic `json:"sensor2"`
	} `json:"sensors"`
	Actuators struct {
		Buzzer    bool `json:"buzzer"`
		Vibration bool `json:"vibration"`
	} `json:"actuators"`
	RF struct {
		Active bool `json:"active"`
	} `json:"rf"`
	Emergency struct {
		Active bool `json:"active"`
	} `json:"emergency"`
	WiFi struct {
		RSSI int `json:"rssi"`
	} `json:"wifi"`
}

type latencyTree struct {
	Current    int    `json:"current"`
	PacketSize int    `json:"packet_size"`
	Status     string `json:"status"`
}

type emergencyEvent struct {
	Timestamp        string `json:"timestamp"`
	Latitude         string `json:"latitude"`
	Longitude        string `json:"longitude"`
	Status           string `json:"status"`
	NotificationSent bool   `json:"notificationSent"`
}

type obstacleEvent struct {
	Timestamp string  `json:"timestamp"`
	Sensor1   float64 `json:"sensor1"`
	Sensor2   float64 `json:"sensor2"`
}

type rfEvent struct {
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

// eventLog keeps insertion order through zero-padded keys, the way push ids
// sort in the realtime database.
type eventLog[T any] struct {
	seq  int
	keys []string
	vals map[string]T
}

func (l *eventLog[T]) add(v T) {
	if l.vals == nil {
		l.vals = make(map[string]T)
	}
	l.seq++
	k := fmt.Sprintf("ev%06d", l.seq)
	l.keys = append(l.keys, k)
	l.vals[k] = v
	if len(l.keys) > maxEvents {
		delete(l.vals, l.keys[0])
		l.keys = l.keys[1:]
	}
}

func (l *eventLog[T]) snapshot() map[string]T {
	out := make(map[string]T, len(l.vals))
	for k, v := range l.vals {
		out[k] = v
	}
	return out
}

func (l *eventLog[T]) size() int { return len(l.keys) }

// DataGenerator evolves the simulated stick one tick at a time.
type DataGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
	loc *time.Location

	pos       Point
	dist      [2]float64
	emergency int // remaining active ticks
	rf        int
	forced    *Point

	emergencies eventLog[emergencyEvent]
	obstacles   eventLog[obstacleEvent]
	rfEvents    eventLog[rfEvent]
}

// NewDataGenerator starts at home with both sensors clear. A nil rng gets a
// random seed.
func NewDataGenerator(rng *rand.Rand, loc *time.Location) *DataGenerator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DataGenerator{
		rng:  rng,
		loc:  loc,
		pos:  Home,
		dist: [2]float64{maxRangeCm, maxRangeCm},
	}
}

// TriggerEmergency makes the next tick raise an emergency at p (or the
// current position when p is nil).
func (g *DataGenerator) TriggerEmergency(p *Point) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p == nil {
		cur := g.pos
		p = &cur
	}
	g.forced = p
}

// Next advances one tick and returns every tree to publish.
func (g *DataGenerator) Next(now time.Time) Trees {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := now.In(g.loc).Format("15:04:05")

	// walk
	g.pos.Lat += (g.rng.Float64() - 0.5) * 0.0002
	g.pos.Lon += (g.rng.Float64() - 0.5) * 0.0002
	for i := range g.dist {
		g.dist[i] = clamp(g.dist[i]+(g.rng.Float64()-0.55)*60, 5, maxRangeCm)
	}

	var st statusTree
	st.Sensors.Sensor1 = ultrasonic{Distance: round1(g.dist[0]), Detecting: g.dist[0] < detectRangeCm}
	st.Sensors.Sensor2 = ultrasonic{Distance: round1(g.dist[1]), Detecting: g.dist[1] < detectRangeCm}
	if st.Sensors.Sensor1.Detecting || st.Sensors.Sensor2.Detecting {
		g.obstacles.add(obstacleEvent{Timestamp: ts, Sensor1: st.Sensors.Sensor1.Distance, Sensor2: st.Sensors.Sensor2.Distance})
	}

	switch {
	case g.forced != nil:
		g.raiseEmergency(ts, *g.forced, true)
		g.forced = nil
	case g.emergency == 0 && g.rng.Float64() < pEmergency:
		at := g.pos
		if g.rng.Float64() < pNoFix {
			at = Point{}
		}
		g.raiseEmergency(ts, at, g.rng.Float64() > 0.1)
	}
	if g.emergency > 0 {
		st.Emergency.Active = true
		g.emergency--
	}

	if g.rf == 0 && g.rng.Float64() < pRF {
		g.rf = rfTicks
		g.rfEvents.add(rfEvent{Timestamp: ts, Status: "received"})
	}
	if g.rf > 0 {
		st.RF.Active = true
		g.rf--
	}

	obstacle := st.Sensors.Sensor1.Detecting || st.Sensors.Sensor2.Detecting
	st.Actuators.Buzzer = obstacle
	st.Actuators.Vibration = obstacle || st.Emergency.Active
	st.WiFi.RSSI = -75 + g.rng.IntN(31)

	lat := latencyTree{
		Current:    30 + g.rng.IntN(171),
		PacketSize: packetSize(st),
		Status:     "success",
	}
	if g.rng.Float64() < pFailed {
		lat.Status = "failed"
	}

	return Trees{
		"system/status":    st,
		"network/latency":  lat,
		"events/emergency": g.emergencies.snapshot(),
		"events/obstacles": g.obstacles.snapshot(),
		"events/rf":        g.rfEvents.snapshot(),
	}
}

func (g *DataGenerator) raiseEmergency(ts string, at Point, notified bool) {
	g.emergency = emergencyTicks
	g.emergencies.add(emergencyEvent{
		Timestamp:        ts,
		Latitude:         formatCoord(at.Lat),
		Longitude:        formatCoord(at.Lon),
		Status:           "active",
		NotificationSent: notified,
	})
}

// Counts returns the sizes of the three event logs.
func (g *DataGenerator) Counts() (emergencies, obstacles, rf int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.emergencies.size(), g.obstacles.size(), g.rfEvents.size()
}

// ===== Helpers =====

func packetSize(st statusTree) int {
	switch {
	case st.Emergency.Active:
		return 430
	case st.Sensors.Sensor1.Detecting || st.Sensors.Sensor2.Detecting:
		return 300
	case st.RF.Active:
		return 260
	default:
		return 240
	}
}

func formatCoord(v float64) string {
	if v == 0 {
		return "0"
	}
	return fmt.Sprintf("%.6f", v)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
