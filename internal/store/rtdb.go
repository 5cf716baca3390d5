package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const maxTreeBytes = 8 << 20

// ErrTreeTooLarge is returned when a subtree exceeds maxTreeBytes. The body is
// rejected rather than truncated into invalid JSON.
var ErrTreeTooLarge = errors.New("rtdb: tree too large")

// RTDBConfig configures the REST driver for a Firebase Realtime Database (or
// its local emulator).
type RTDBConfig struct {
	DatabaseURL string
	AuthToken   string // database secret or ID token, sent as ?auth=
	Timeout     time.Duration

	BreakerFailures int
	BreakerOpenFor  time.Duration
	BreakerInterval time.Duration
}

// RTDBStore reads trees through the RTDB REST API: GET <base>/<path>.json.
// Calls go through a circuit breaker so a dead database fails fast.
type RTDBStore struct {
	base    string
	auth    string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

func NewRTDBStore(cfg RTDBConfig) (*RTDBStore, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.DatabaseURL), "/")
	if base == "" {
		return nil, errors.New("rtdb: database url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("rtdb: invalid database url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	fails := cfg.BreakerFailures
	if fails < 1 {
		fails = 5
	}
	return &RTDBStore{
		base:   base,
		auth:   cfg.AuthToken,
		client: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "rtdb",
			Interval: cfg.BreakerInterval,
			Timeout:  cfg.BreakerOpenFor,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= uint32(fails)
			},
		}),
	}, nil
}

func (s *RTDBStore) Get(ctx context.Context, path string) ([]byte, error) {
	res, err := s.breaker.Execute(func() (any, error) {
		return s.fetch(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

// BreakerState exposes the breaker state for health reporting.
func (s *RTDBStore) BreakerState() string {
	return s.breaker.State().String()
}

func (s *RTDBStore) fetch(ctx context.Context, path string) ([]byte, error) {
	u := s.base + "/" + normalizePath(path) + ".json"
	if s.auth != "" {
		u += "?auth=" + url.QueryEscape(s.auth)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("rtdb %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rtdb %s request error: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rtdb %s: upstream status %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTreeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("rtdb %s read error: %w", path, err)
	}
	if len(body) > maxTreeBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTreeTooLarge, path, maxTreeBytes)
	}
	return body, nil
}

var _ Store = (*RTDBStore)(nil)
