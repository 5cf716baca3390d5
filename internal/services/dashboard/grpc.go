package dashboard

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name of the dashboard.
const ServiceName = "smartstick.Dashboard"

// HealthReporter mirrors the session health onto a standard gRPC health
// server, both for ServiceName and for the overall ("") status.
type HealthReporter struct {
	src        FrameSource
	server     *health.Server
	staleAfter time.Duration
	storeState StoreState
	every      time.Duration
	log        *slog.Logger
}

func NewHealthReporter(src FrameSource, staleAfter, every time.Duration, storeState StoreState, log *slog.Logger) *HealthReporter {
	if every <= 0 {
		every = time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthReporter{src: src, server: hs, staleAfter: staleAfter, storeState: storeState, every: every, log: log}
}

// Register adds the health service to gs.
func (r *HealthReporter) Register(gs *grpc.Server) {
	healthpb.RegisterHealthServer(gs, r.server)
}

func (r *HealthReporter) Server() *health.Server { return r.server }

// Update publishes the current verdict once. Only "ok" counts as serving.
func (r *HealthReporter) Update() healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if assess(r.src, r.staleAfter, r.storeState).Status == statusOK {
		st = healthpb.HealthCheckResponse_SERVING
	}
	r.server.SetServingStatus("", st)
	r.server.SetServingStatus(ServiceName, st)
	return st
}

// Run refreshes the status until ctx ends, then marks everything as shut down.
func (r *HealthReporter) Run(ctx context.Context) {
	t := time.NewTicker(r.every)
	defer t.Stop()
	last := r.Update()
	for {
		select {
		case <-ctx.Done():
			r.server.Shutdown()
			return
		case <-t.C:
			if st := r.Update(); st != last {
				r.log.Info("dashboard: grpc health changed", "from", last.String(), "to", st.String())
				last = st
			}
		}
	}
}

// StopGRPC drains gs gracefully, falling back to a hard stop when ctx ends
// first. Open Watch streams never finish on their own.
func StopGRPC(ctx context.Context, gs *grpc.Server) {
	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		gs.Stop()
		<-done
	}
}
