package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs creates the stick metrics and registers them on reg
// (prometheus.DefaultRegisterer when nil).
func NewPromObs(reg prometheus.Registerer) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	}

	p := &PromObs{
		counters: map[string]prometheus.Counter{
			TicksTotal:           counter(TicksTotal, "Completed poll ticks."),
			StoreFailuresTotal:   counter(StoreFailuresTotal, "Ticks abandoned because the store was unreachable."),
			SamplesAdmittedTotal: counter(SamplesAdmittedTotal, "Network samples admitted into the rolling history."),
			FramesDroppedTotal:   counter(FramesDroppedTotal, "Frames not delivered to a slow viewer."),
		},
		gauges: map[string]prometheus.Gauge{
			HistoryLength:      gauge(HistoryLength, "Samples currently held in the rolling history."),
			MeanLatencyMs:      gauge(MeanLatencyMs, "Mean latency over the rolling history."),
			MeanSignalDbm:      gauge(MeanSignalDbm, "Mean signal strength over the rolling history."),
			SuccessRatePercent: gauge(SuccessRatePercent, "Share of SUCCESS transmissions in the rolling history."),
			MaxRTTMs:           gauge(MaxRTTMs, "Highest round trip time in the rolling history."),
			ActiveAlerts:       gauge(ActiveAlerts, "Alerts raised by the last tick."),
			EmergencyActive:    gauge(EmergencyActive, "1 while the emergency button is active."),
		},
		histos: map[string]prometheus.Observer{
			TickDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    TickDurationSeconds,
				Help:    "Duration of a full read and derive tick.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			}),
		},
	}

	for _, c := range p.counters {
		reg.MustRegister(c)
	}
	for _, g := range p.gauges {
		reg.MustRegister(g)
	}
	for _, h := range p.histos {
		reg.MustRegister(h.(prometheus.Collector))
	}
	return p
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

var _ Observability = (*PromObs)(nil)
