package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/entities"
	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/messages"
	"github.com/LeonardoBeccarini/smartstick_monitor/internal/store"
)

// Tree paths read on every tick.
const (
	PathSystemStatus    = "system/status"
	PathNetworkLatency  = "network/latency"
	PathEventsEmergency = "events/emergency"
	PathEventsObstacles = "events/obstacles"
	PathEventsRF        = "events/rf"
)

// ErrStoreUnavailable marks a tick that could not read the store.
var ErrStoreUnavailable = errors.New("store unavailable")

// Snapshot is the normalized state read in one tick. Missing trees are empty.
type Snapshot struct {
	Status    entities.SystemStatus
	Network   messages.NetworkLatency
	Emergency messages.EventLog
	Obstacles messages.EventLog
	RF        messages.EventLog
}

// Reader is the only component that talks to the store.
type Reader struct {
	store store.Store
}

func NewReader(s store.Store) *Reader {
	return &Reader{store: s}
}

// Read fetches all five trees. The first failing fetch aborts the read with an
// error wrapping ErrStoreUnavailable; no partial snapshot is returned.
func (r *Reader) Read(ctx context.Context) (Snapshot, error) {
	paths := [...]string{PathSystemStatus, PathNetworkLatency, PathEventsEmergency, PathEventsObstacles, PathEventsRF}
	var raws [len(paths)][]byte
	for i, p := range paths {
		raw, err := r.store.Get(ctx, p)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: read %s: %w", ErrStoreUnavailable, p, err)
		}
		raws[i] = raw
	}

	return Snapshot{
		Status:    parseStatus(raws[0]),
		Network:   parseNetwork(raws[1]),
		Emergency: parseLog(raws[2]),
		Obstacles: parseLog(raws[3]),
		RF:        parseLog(raws[4]),
	}, nil
}
