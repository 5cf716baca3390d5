package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/smartstick_monitor/internal/model/entities"
	"github.com/LeonardoBeccarini/smartstick_monitor/internal/observability"
	"github.com/LeonardoBeccarini/smartstick_monitor/internal/store"
)

type countingObs struct {
	observability.Nop
	counters map[string]float64
	gauges   map[string]float64
}

func newCountingObs() *countingObs {
	return &countingObs{counters: map[string]float64{}, gauges: map[string]float64{}}
}

func (c *countingObs) IncCounter(name string, v float64) { c.counters[name] += v }
func (c *countingObs) SetGauge(name string, v float64)   { c.gauges[name] = v }

func newTestSession(t *testing.T, m store.Store, step time.Duration, opts ...SessionOption) *Session {
	t.Helper()
	est := NewEstimator(EstimatorConfig{Policy: PolicyReported}, seeded(), newStepClock(epoch, step))
	opts = append([]SessionOption{WithSessionID("test-session"), WithClock(newStepClock(epoch, time.Second))}, opts...)
	return NewSession(NewReader(m), est, SessionConfig{
		PollInterval:    time.Millisecond,
		RetryDelay:      time.Millisecond,
		HistoryCapacity: 20,
	}, opts...)
}

func TestSessionTick(t *testing.T) {
	obs := newCountingObs()
	s := newTestSession(t, seedStore(t), time.Second, WithObservability(obs))

	_, ok := s.Latest()
	require.False(t, ok)

	f, err := s.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "test-session", f.SessionID)
	assert.Equal(t, uint64(1), f.Tick)
	assert.Equal(t, entities.EventSensor1Reading, f.EventType)
	assert.True(t, f.Admitted)
	assert.Equal(t, 1, f.Current.No)
	assert.Equal(t, 72.0, f.Current.LatencyMs)
	require.Len(t, f.History, 1)
	assert.Equal(t, 2, f.Stats.TotalEmergencies)
	assert.Equal(t, 2, f.Stats.TotalObstacles)
	assert.Zero(t, f.Stats.TotalRF)
	assert.True(t, f.Alerts.AllClear)
	require.Len(t, f.Emergencies, 2)
	assert.Nil(t, f.LatestLocation)
	assert.Len(t, f.Warnings, 1)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, f.Tick, latest.Tick)

	assert.Equal(t, 1.0, obs.counters[observability.TicksTotal])
	assert.Equal(t, 1.0, obs.counters[observability.SamplesAdmittedTotal])
	assert.Equal(t, 1.0, obs.gauges[observability.HistoryLength])
}

func TestSessionSameSecondIsNotAdmitted(t *testing.T) {
	s := newTestSession(t, seedStore(t), 0)

	first, err := s.Tick(context.Background())
	require.NoError(t, err)
	second, err := s.Tick(context.Background())
	require.NoError(t, err)

	assert.True(t, first.Admitted)
	assert.False(t, second.Admitted)
	assert.Equal(t, 2, second.Current.No)
	assert.Len(t, second.History, 1)
	assert.Equal(t, uint64(2), second.Tick)
}

func TestSessionFailureLeavesHistoryUntouched(t *testing.T) {
	m := seedStore(t)
	obs := newCountingObs()
	s := newTestSession(t, m, time.Second, WithObservability(obs))

	_, err := s.Tick(context.Background())
	require.NoError(t, err)

	m.FailWith(PathEventsRF, errors.New("timeout"))
	_, err = s.Tick(context.Background())
	require.ErrorIs(t, err, ErrStoreUnavailable)

	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(1), latest.Tick)
	assert.Equal(t, 1, s.history.Len())
	assert.Equal(t, 1.0, obs.counters[observability.StoreFailuresTotal])
	assert.True(t, s.Health().Failing())

	m.FailWith(PathEventsRF, nil)
	f, err := s.Tick(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.History, 2)
	assert.False(t, s.Health().Failing())
}

func TestSessionSubscribeDropsForSlowViewer(t *testing.T) {
	obs := newCountingObs()
	s := newTestSession(t, seedStore(t), time.Second, WithObservability(obs))
	ch, cancel := s.Subscribe(1)
	defer cancel()

	for i := 0; i < 3; i++ {
		_, err := s.Tick(context.Background())
		require.NoError(t, err)
	}

	f := <-ch
	assert.Equal(t, uint64(1), f.Tick)
	assert.Equal(t, 2.0, obs.counters[observability.FramesDroppedTotal])

	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestSessionRun(t *testing.T) {
	m := seedStore(t)
	m.FailWith(PathSystemStatus, errors.New("flaky"))
	s := newTestSession(t, m, time.Second)

	ch, unsubscribe := s.Subscribe(16)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Health().LastError != nil }, time.Second, time.Millisecond)
	m.FailWith(PathSystemStatus, nil)

	var got []Frame
	timeout := time.After(2 * time.Second)
	for len(got) < 3 {
		select {
		case f := <-ch:
			got = append(got, f)
		case <-timeout:
			t.Fatalf("received %d frames before timeout", len(got))
		}
	}
	cancel()
	require.NoError(t, <-done)

	for i, f := range got {
		assert.Equal(t, uint64(i+1), f.Tick)
		assert.Len(t, f.History, i+1)
	}
}

func TestSessionRunRetriesOnRetryDelay(t *testing.T) {
	m := seedStore(t)
	m.FailWith(PathNetworkLatency, errors.New("flaky"))
	est := NewEstimator(EstimatorConfig{Policy: PolicyReported}, seeded(), newStepClock(epoch, time.Second))
	s := NewSession(NewReader(m), est, SessionConfig{
		PollInterval:    time.Hour,
		RetryDelay:      time.Millisecond,
		HistoryCapacity: 20,
	}, WithClock(newStepClock(epoch, time.Second)))

	ch, unsubscribe := s.Subscribe(1)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Health().LastError != nil }, time.Second, time.Millisecond)
	m.FailWith(PathNetworkLatency, nil)

	select {
	case f := <-ch:
		assert.Equal(t, uint64(1), f.Tick)
	case <-time.After(time.Second):
		t.Fatal("no frame after the store recovered")
	}
	assert.False(t, s.Health().Failing())

	cancel()
	require.NoError(t, <-done)
}
