package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/tys-station-agent/internal/domain"
	"github.com/boddenberg/tys-station-agent/internal/infra/observability"
	"github.com/boddenberg/tys-station-agent/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("handler")

const healthProbeTimeout = 3 * time.Second

// Services groups the application services the router exposes.
type Services struct {
	Provisioner *service.Provisioner
	Profiler    *service.Profiler
	Profiles    *service.ProfileService
}

// HealthCheck is one dependency probed by GET /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Options holds router settings that do not come from services.
type Options struct {
	// StaticDir, when set, is served at "/" (operator dashboard).
	StaticDir string
	// OperatorJWTSecret, when set, guards every mutating route.
	OperatorJWTSecret string
	HealthChecks      []HealthCheck
}

// NewRouter creates the HTTP router with all routes and middleware.
// Backend-specific routes are only mounted for the backend that supports them.
func NewRouter(svc Services, opts Options, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	backend := ""
	var accessFields []zap.Field
	if svc.Provisioner != nil {
		backend = svc.Provisioner.Backend()
		accessFields = append(accessFields, zap.String("backend", backend))
	}

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger, accessFields...))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(backend, opts.HealthChecks, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	r.Get("/v1/metrics/provisioning", provisioningMetricsHandler(metrics))

	// --- Agent API ---
	if svc.Profiles != nil {
		r.Get("/status", statusHandler(svc.Profiles, logger))
	}
	if svc.Provisioner != nil {
		r.Get("/stations", listStationsHandler(svc.Provisioner, logger))
	}

	r.Group(func(r chi.Router) {
		if opts.OperatorJWTSecret != "" {
			r.Use(OperatorAuthMiddleware(opts.OperatorJWTSecret, logger))
		}

		if svc.Profiler != nil {
			r.Post("/aiProfile", aiProfileHandler(svc.Profiler, logger))
		}
		if svc.Provisioner != nil {
			r.Post("/createStation", createStationHandler(svc.Provisioner, logger))
		}

		switch backend {
		case "direct":
			if svc.Profiles != nil {
				r.Post("/setProfile", setProfileHandler(svc.Profiles, logger))
			}
			r.Post("/stations/{stationId}/enable", setStationEnabledHandler(svc.Provisioner, true, logger))
			r.Post("/stations/{stationId}/disable", setStationEnabledHandler(svc.Provisioner, false, logger))
		case "orchestrator":
			r.Post("/createClient", createClientHandler(svc.Provisioner, logger))
		}
	})

	// --- Dashboard ---
	if opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(backend string, checks []HealthCheck, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
		defer cancel()

		now := time.Now().Format(time.RFC3339)
		services := make([]domain.ServiceHealth, len(checks)+1)
		services[0] = domain.ServiceHealth{Name: "agent", Status: "healthy", LastChecked: now}

		// Probes never fail the group; each records its own status.
		var g errgroup.Group
		for i, hc := range checks {
			i, hc := i, hc
			g.Go(func() error {
				start := time.Now()
				err := hc.Check(ctx)
				sh := domain.ServiceHealth{
					Name:        hc.Name,
					Status:      "healthy",
					LatencyMs:   time.Since(start).Milliseconds(),
					LastChecked: now,
				}
				if err != nil {
					logger.Warn("health probe failed", zap.String("service", hc.Name), zap.Error(err))
					sh.Status = "degraded"
					sh.Error = err.Error()
				}
				services[i+1] = sh
				return nil
			})
		}
		_ = g.Wait()

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overallStatus = "degraded"
				break
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Backend:  backend,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func provisioningMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
