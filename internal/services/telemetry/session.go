package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/smartstick_monitor/internal/observability"
)

const (
	DefaultPollInterval = 200 * time.Millisecond
	DefaultRetryDelay   = 500 * time.Millisecond
)

type SessionConfig struct {
	PollInterval    time.Duration
	RetryDelay      time.Duration
	HistoryCapacity int
	Thresholds      Thresholds
}

type SessionOption func(*Session)

func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func WithObservability(o observability.Observability) SessionOption {
	return func(s *Session) {
		if o != nil {
			s.obs = o
		}
	}
}

func WithClock(c Clock) SessionOption {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithSessionID(id string) SessionOption {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// Session owns the rolling history of one monitoring session and runs the
// only tick loop that mutates it. Viewers read published frames through
// Latest or Subscribe.
type Session struct {
	id        string
	cfg       SessionConfig
	reader    *Reader
	estimator *Estimator
	history   *History
	obs       observability.Observability
	log       *slog.Logger
	clock     Clock

	tick uint64

	mu          sync.RWMutex
	latest      *Frame
	lastSuccess time.Time
	lastErr     error
	lastErrAt   time.Time
	subs        map[uint64]chan Frame
	nextSub     uint64
}

func NewSession(reader *Reader, estimator *Estimator, cfg SessionConfig, opts ...SessionOption) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	s := &Session{
		id:        uuid.NewString(),
		cfg:       cfg,
		reader:    reader,
		estimator: estimator,
		history:   NewHistory(cfg.HistoryCapacity),
		obs:       observability.Nop{},
		log:       slog.Default(),
		clock:     SystemClock,
		subs:      make(map[uint64]chan Frame),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Run ticks until ctx is cancelled. A failed read is logged and retried after
// the fixed retry delay instead of the poll interval.
func (s *Session) Run(ctx context.Context) error {
	s.log.Info("telemetry: session started",
		"session", s.id,
		"policy", s.estimator.Policy(),
		"poll_interval", s.cfg.PollInterval,
		"history_capacity", s.history.Capacity(),
	)

	retry := backoff.WithContext(backoff.NewConstantBackOff(s.cfg.RetryDelay), ctx)
	tick := func() error {
		_, err := s.Tick(ctx)
		return err
	}
	abandoned := func(err error, wait time.Duration) {
		s.log.Warn("telemetry: tick abandoned", "session", s.id, "err", err, "retry_in", wait)
	}

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("telemetry: session stopped", "session", s.id, "ticks", s.ticks())
			return nil
		case <-timer.C:
		}

		// a failed tick is retried every RetryDelay until one lands
		_ = backoff.RetryNotify(tick, retry, abandoned)
		timer.Reset(s.cfg.PollInterval)
	}
}

// Tick reads the store once and, on success, advances the history and
// publishes a new frame. On failure the history is left untouched.
// Tick must not be called concurrently with itself or with Run.
func (s *Session) Tick(ctx context.Context) (Frame, error) {
	start := time.Now()
	snap, err := s.reader.Read(ctx)
	if err != nil {
		s.recordFailure(err)
		return Frame{}, err
	}

	evt := Classify(snap.Status)
	sample := s.estimator.Estimate(evt, snap.Status, snap.Network)
	admitted := s.history.Admit(sample)
	if admitted {
		sample, _ = s.history.Last()
		s.obs.IncCounter(observability.SamplesAdmittedTotal, 1)
	} else {
		sample.No = s.history.Len() + 1
	}

	samples := s.history.Samples()
	stats := Aggregate(samples, EventCounts{
		Emergencies: len(snap.Emergency),
		Obstacles:   len(snap.Obstacles),
		RF:          len(snap.RF),
	})
	alerts := EvaluateAlerts(samples, stats, s.cfg.Thresholds)
	proj := Project(snap.Emergency, snap.Obstacles, snap.RF)
	for _, w := range proj.Warnings {
		s.log.Debug("telemetry: projection warning", "session", s.id, "warning", w)
	}

	s.mu.Lock()
	s.tick++
	frame := Frame{
		SessionID:      s.id,
		Tick:           s.tick,
		GeneratedAt:    s.clock.Now(),
		Status:         snap.Status,
		EventType:      evt,
		Current:        sample,
		Admitted:       admitted,
		History:        samples,
		Stats:          stats,
		Alerts:         alerts,
		Emergencies:    proj.Emergencies,
		Obstacles:      proj.Obstacles,
		RFEvents:       proj.RFEvents,
		LatestLocation: proj.LatestLocation,
		Warnings:       proj.Warnings,
	}
	s.latest = &frame
	s.lastSuccess = frame.GeneratedAt
	dropped := s.broadcastLocked(frame)
	s.mu.Unlock()

	s.record(frame, time.Since(start), dropped)
	return frame, nil
}

func (s *Session) record(f Frame, took time.Duration, dropped int) {
	s.obs.IncCounter(observability.TicksTotal, 1)
	s.obs.ObserveLatency(observability.TickDurationSeconds, took.Seconds())
	s.obs.SetGauge(observability.HistoryLength, float64(f.Stats.Samples))
	s.obs.SetGauge(observability.MeanLatencyMs, f.Stats.MeanLatencyMs)
	s.obs.SetGauge(observability.MeanSignalDbm, f.Stats.MeanSignalStrengthDbm)
	s.obs.SetGauge(observability.SuccessRatePercent, f.Stats.SuccessRatePercent)
	s.obs.SetGauge(observability.MaxRTTMs, f.Stats.MaxRTTMs)
	s.obs.SetGauge(observability.ActiveAlerts, float64(len(f.Alerts.Alerts)))
	emergency := 0.0
	if f.Status.Emergency.Active {
		emergency = 1
	}
	s.obs.SetGauge(observability.EmergencyActive, emergency)
	if dropped > 0 {
		s.obs.IncCounter(observability.FramesDroppedTotal, float64(dropped))
	}
}

func (s *Session) recordFailure(err error) {
	if errors.Is(err, ErrStoreUnavailable) {
		s.obs.IncCounter(observability.StoreFailuresTotal, 1)
	}
	s.mu.Lock()
	s.lastErr = err
	s.lastErrAt = s.clock.Now()
	s.mu.Unlock()
}

func (s *Session) ticks() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// Latest returns the most recent frame, or false before the first
// successful tick.
func (s *Session) Latest() (Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Frame{}, false
	}
	return *s.latest, true
}

// Health describes how the tick loop is doing.
type Health struct {
	LastSuccess time.Time
	LastError   error
	LastErrorAt time.Time
}

// SuccessAge is the time since the last successful tick, or -1 if none.
func (h Health) SuccessAge(now time.Time) time.Duration {
	if h.LastSuccess.IsZero() {
		return -1
	}
	return now.Sub(h.LastSuccess)
}

// Failing reports whether the latest outcome was an error.
func (h Health) Failing() bool {
	return h.LastError != nil && h.LastErrorAt.After(h.LastSuccess)
}

func (s *Session) Health() Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Health{LastSuccess: s.lastSuccess, LastError: s.lastErr, LastErrorAt: s.lastErrAt}
}

func (s *Session) Now() time.Time { return s.clock.Now() }

// Subscribe returns a channel receiving every future frame. A subscriber that
// falls behind by more than buffer frames misses frames; it never stalls the
// loop. The returned func unsubscribes and closes the channel.
func (s *Session) Subscribe(buffer int) (<-chan Frame, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Frame, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *Session) broadcastLocked(f Frame) int {
	dropped := 0
	for _, ch := range s.subs {
		select {
		case ch <- f:
		default:
			dropped++
		}
	}
	return dropped
}
