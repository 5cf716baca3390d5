// Package config loads the monitor configuration from an optional YAML file
// and STICK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

const EnvPrefix = "STICK"

// Store drivers.
const (
	DriverRTDB     = "rtdb"
	DriverFirebase = "firebase"
	DriverMQTT     = "mqtt"
	DriverMemory   = "memory"
)

type Config struct {
	Store     StoreConfig     `mapstructure:"store"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Poll      PollConfig      `mapstructure:"poll"`
	History   HistoryConfig   `mapstructure:"history"`
	Estimator EstimatorConfig `mapstructure:"estimator"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Timezone  string          `mapstructure:"timezone"`
	HTTP      ListenConfig    `mapstructure:"http"`
	GRPC      ListenConfig    `mapstructure:"grpc"`
	Health    HealthConfig    `mapstructure:"health"`
	Log       LogConfig       `mapstructure:"log"`
}

type StoreConfig struct {
	Driver          string        `mapstructure:"driver"`
	DatabaseURL     string        `mapstructure:"database_url"`
	AuthToken       string        `mapstructure:"auth_token"`
	CredentialsFile string        `mapstructure:"credentials_file"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Breaker         BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	Failures uint32        `mapstructure:"failures"`
	OpenFor  time.Duration `mapstructure:"open_for"`
	Interval time.Duration `mapstructure:"interval"`
}

type MQTTConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type PollConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type HistoryConfig struct {
	Capacity int `mapstructure:"capacity"`
}

type EstimatorConfig struct {
	Policy        string `mapstructure:"policy"`
	DefaultStatus string `mapstructure:"default_status"`
}

type AlertsConfig struct {
	HighLatencyMs float64 `mapstructure:"high_latency_ms"`
	WeakSignalDbm float64 `mapstructure:"weak_signal_dbm"`
	HighRTTMs     float64 `mapstructure:"high_rtt_ms"`
}

type ListenConfig struct {
	Addr string `mapstructure:"addr"`
}

type HealthConfig struct {
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", DriverRTDB)
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.auth_token", "")
	v.SetDefault("store.credentials_file", "")
	v.SetDefault("store.timeout", "3s")
	v.SetDefault("store.breaker.failures", 5)
	v.SetDefault("store.breaker.open_for", "10s")
	v.SetDefault("store.breaker.interval", "0s")

	v.SetDefault("mqtt.host", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.user", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.client_id", "smartstick-dashboard")
	v.SetDefault("mqtt.topic_prefix", "smartstick")

	v.SetDefault("poll.interval", "200ms")
	v.SetDefault("poll.retry_delay", "500ms")
	v.SetDefault("history.capacity", 20)
	v.SetDefault("estimator.policy", "reported")
	v.SetDefault("estimator.default_status", "success")
	v.SetDefault("alerts.high_latency_ms", 500)
	v.SetDefault("alerts.weak_signal_dbm", -70)
	v.SetDefault("alerts.high_rtt_ms", 1500)
	v.SetDefault("timezone", "Asia/Kuala_Lumpur")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("grpc.addr", ":50051")
	v.SetDefault("health.stale_after", "5s")
	v.SetDefault("log.level", "info")
}

// Load reads path (skipped when empty) and applies STICK_* overrides, e.g.
// STICK_STORE_DRIVER=memory or STICK_POLL_INTERVAL=1s.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Estimator.Policy = strings.ToLower(strings.TrimSpace(c.Estimator.Policy))
	c.MQTT.TopicPrefix = strings.Trim(c.MQTT.TopicPrefix, "/")
}

func (c *Config) validate() error {
	var errs []error

	switch c.Store.Driver {
	case DriverRTDB:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("store.database_url is required for the rtdb driver"))
		}
	case DriverFirebase:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("store.database_url is required for the firebase driver"))
		}
	case DriverMQTT:
		if c.MQTT.Host == "" || c.MQTT.TopicPrefix == "" {
			errs = append(errs, errors.New("mqtt.host and mqtt.topic_prefix are required for the mqtt driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("store.driver %q is not one of rtdb, firebase, mqtt, memory", c.Store.Driver))
	}

	if c.Poll.Interval <= 0 {
		errs = append(errs, errors.New("poll.interval must be positive"))
	}
	if c.Poll.RetryDelay <= 0 {
		errs = append(errs, errors.New("poll.retry_delay must be positive"))
	}
	if c.History.Capacity < 1 {
		errs = append(errs, errors.New("history.capacity must be at least 1"))
	}
	if c.Estimator.Policy != "reported" && c.Estimator.Policy != "synthetic" {
		errs = append(errs, fmt.Errorf("estimator.policy %q is not one of reported, synthetic", c.Estimator.Policy))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid: %w", errors.Join(errs...))
	}
	return nil
}

// Location returns the configured device time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}
