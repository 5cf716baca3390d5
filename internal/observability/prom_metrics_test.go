package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromObsRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPromObs(reg)

	p.IncCounter(TicksTotal, 1)
	p.IncCounter(TicksTotal, 2)
	p.IncCounter(StoreFailuresTotal, 1)
	p.SetGauge(MeanLatencyMs, 87.5)
	p.SetGauge(MeanLatencyMs, 90)
	p.ObserveLatency(TickDurationSeconds, 0.004)

	assert.Equal(t, 3.0, testutil.ToFloat64(p.counters[TicksTotal]))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.counters[StoreFailuresTotal]))
	assert.Equal(t, 90.0, testutil.ToFloat64(p.gauges[MeanLatencyMs]))

	n, err := testutil.GatherAndCount(reg, TickDurationSeconds)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPromObsIgnoresUnknownNames(t *testing.T) {
	p := NewPromObs(prometheus.NewRegistry())
	assert.NotPanics(t, func() {
		p.IncCounter("nope_total", 1)
		p.SetGauge("nope", 1)
		p.ObserveLatency("nope_seconds", 1)
	})
}

func TestPromObsDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPromObs(reg)
	assert.Panics(t, func() { NewPromObs(reg) })
}
