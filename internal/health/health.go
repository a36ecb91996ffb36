package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	StatusHealthy     = "healthy"
	StatusUnavailable = "unavailable"
	StatusDegraded    = "degraded"
)

type CheckFunc func(ctx context.Context) error

type ComponentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Report struct {
	Status     string                     `json:"overall_status"`
	Components map[string]ComponentStatus `json:"services"`
	Timestamp  time.Time                  `json:"timestamp"`
}

func (r Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// Checker runs named dependency probes. Components registered as optional
// degrade the report instead of failing it.
type Checker struct {
	mu       sync.RWMutex
	checks   map[string]CheckFunc
	optional map[string]bool
	timeout  time.Duration
}

func NewChecker(timeout time.Duration) *Checker {
	return &Checker{
		checks:   make(map[string]CheckFunc),
		optional: make(map[string]bool),
		timeout:  timeout,
	}
}

func (c *Checker) Register(name string, fn CheckFunc, optional bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
	c.optional[name] = optional
}

func (c *Checker) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for n := range c.checks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *Checker) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	report := Report{
		Status:     StatusHealthy,
		Components: make(map[string]ComponentStatus),
		Timestamp:  time.Now(),
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, fn := range c.checks {
		if err := fn(ctx); err != nil {
			report.Components[name] = ComponentStatus{Status: StatusUnavailable, Message: err.Error()}
			if c.optional[name] {
				if report.Status == StatusHealthy {
					report.Status = StatusDegraded
				}
			} else {
				report.Status = StatusUnavailable
			}
			continue
		}
		report.Components[name] = ComponentStatus{Status: StatusHealthy, Message: "Service is responding"}
	}
	return report
}

// NewGRPCServer returns a gRPC server exposing grpc.health.v1 and reflection.
func NewGRPCServer() (*grpc.Server, *health.Server) {
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)
	return s, hs
}

type Prober struct {
	checker  *Checker
	server   *health.Server
	interval time.Duration
	log      *zap.Logger
}

func NewProber(checker *Checker, server *health.Server, interval time.Duration, log *zap.Logger) *Prober {
	return &Prober{checker: checker, server: server, interval: interval, log: log}
}

// Probe runs the checks once and publishes the result on the health server.
// The overall ("") service is NOT_SERVING only when a required component fails.
func (p *Prober) Probe(ctx context.Context) Report {
	report := p.checker.Check(ctx)

	overall := healthpb.HealthCheckResponse_SERVING
	if report.Status == StatusUnavailable {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	p.server.SetServingStatus("", overall)

	for name, comp := range report.Components {
		status := healthpb.HealthCheckResponse_SERVING
		if comp.Status != StatusHealthy {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		p.server.SetServingStatus(name, status)
	}
	return report
}

// Run probes on every tick until ctx is done, then marks everything NOT_SERVING.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	last := p.Probe(ctx).Status
	for {
		select {
		case <-ctx.Done():
			p.server.Shutdown()
			return
		case <-ticker.C:
			report := p.Probe(ctx)
			if report.Status != last {
				p.log.Warn("health status changed", zap.String("from", last), zap.String("to", report.Status))
				last = report.Status
			}
		}
	}
}
