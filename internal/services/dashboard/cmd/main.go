package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/LeonardoBeccarini/smartstick_monitor/internal/config"
	"github.com/LeonardoBeccarini/smartstick_monitor/internal/observability"
	"github.com/LeonardoBeccarini/smartstick_monitor/internal/services/dashboard"
	"github.com/LeonardoBeccarini/smartstick_monitor/internal/services/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("dashboard: load config", "err", err)
		os.Exit(1)
	}
	level, _ := config.ParseLevel(cfg.Log.Level)
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("dashboard: exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === Store ===
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if st.close != nil {
		defer st.close()
	}
	log.Info("dashboard: store ready", "driver", cfg.Store.Driver)

	// === Metrics ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	obs := observability.NewPromObs(reg)

	// === Session ===
	policy, err := telemetry.ParsePolicy(cfg.Estimator.Policy)
	if err != nil {
		return err
	}
	estimator := telemetry.NewEstimator(telemetry.EstimatorConfig{
		Policy:        policy,
		DefaultStatus: cfg.Estimator.DefaultStatus,
		Location:      cfg.Location(),
	}, nil, nil)
	session := telemetry.NewSession(telemetry.NewReader(st), estimator, telemetry.SessionConfig{
		PollInterval:    cfg.Poll.Interval,
		RetryDelay:      cfg.Poll.RetryDelay,
		HistoryCapacity: cfg.History.Capacity,
		Thresholds: telemetry.Thresholds{
			HighLatencyMs: cfg.Alerts.HighLatencyMs,
			WeakSignalDbm: cfg.Alerts.WeakSignalDbm,
			HighRTTMs:     cfg.Alerts.HighRTTMs,
		},
	}, telemetry.WithLogger(log), telemetry.WithObservability(obs))

	var storeState dashboard.StoreState
	if b, ok := st.Store.(interface{ BreakerState() string }); ok {
		storeState = b.BreakerState
	}

	// === HTTP ===
	hs := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: dashboard.NewHandler(session, dashboard.Options{
			StaleAfter: cfg.Health.StaleAfter,
			Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
			StoreState: storeState,
			Logger:     log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// === gRPC health ===
	var gs *grpc.Server
	var lis net.Listener
	reporter := dashboard.NewHealthReporter(session, cfg.Health.StaleAfter, time.Second, storeState, log)
	if cfg.GRPC.Addr != "" {
		lis, err = net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return err
		}
		gs = grpc.NewServer()
		reporter.Register(gs)
	}

	errCh := make(chan error, 5)
	var wg sync.WaitGroup
	goRun := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				log.Error("dashboard: component failed", "component", name, "err", err)
				errCh <- err
				stop()
			}
		}()
	}

	if st.run != nil {
		goRun("store", func() error { return st.run(ctx) })
	}
	goRun("session", func() error { return session.Run(ctx) })
	goRun("grpc-health", func() error { reporter.Run(ctx); return nil })
	goRun("http", func() error {
		log.Info("dashboard: HTTP listening", "addr", cfg.HTTP.Addr)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if gs != nil {
		goRun("grpc", func() error {
			log.Info("dashboard: gRPC listening", "addr", cfg.GRPC.Addr)
			return gs.Serve(lis)
		})
	}

	<-ctx.Done()
	log.Info("dashboard: shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var errs []error
	if err := hs.Shutdown(shCtx); err != nil {
		errs = append(errs, err)
	}
	if gs != nil {
		dashboard.StopGRPC(shCtx, gs)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
