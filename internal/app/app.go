// Package app wires configuration, collaborators and services together.
// Both the HTTP server and the operator CLI build on it.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/tys-station-agent/internal/config"
	"github.com/boddenberg/tys-station-agent/internal/domain"
	"github.com/boddenberg/tys-station-agent/internal/handler"
	"github.com/boddenberg/tys-station-agent/internal/infra/cache"
	"github.com/boddenberg/tys-station-agent/internal/infra/client"
	"github.com/boddenberg/tys-station-agent/internal/infra/observability"
	"github.com/boddenberg/tys-station-agent/internal/infra/resilience"
	"github.com/boddenberg/tys-station-agent/internal/infra/store"
	"github.com/boddenberg/tys-station-agent/internal/service"

	"go.uber.org/zap"
)

// App holds the fully wired services.
type App struct {
	Config  *config.Config
	Metrics *observability.Metrics
	Store   *store.FileStore

	Provisioner *service.Provisioner
	Profiler    *service.Profiler
	Profiles    *service.ProfileService

	HealthChecks []handler.HealthCheck

	profileCache *cache.InMemory[*domain.ProfileSuggestion]
}

// New builds every collaborator for the configured backend.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	metrics := observability.NewMetrics()
	profileStore := store.NewFileStore(cfg.ProfilePath, logger)

	retry := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var (
		backend      service.Backend
		backendProbe handler.HealthCheck
	)
	// Health probes get their own breakers so a monitor polling a dead
	// backend cannot open the breaker that guards live traffic.
	switch cfg.Backend {
	case config.BackendDirect:
		stations := client.NewStationClient(httpClient, cfg.StationAPIURL, cfg.StationAPIKey,
			resilience.NewCircuitBreaker(observability.ServiceStations, logger), logger)
		backend = service.NewDirectBackend(stations, retry, metrics, logger)
		probe := client.NewStationClient(httpClient, cfg.StationAPIURL, cfg.StationAPIKey,
			resilience.NewCircuitBreaker(probeBreakerName(observability.ServiceStations), logger), logger)
		backendProbe = handler.HealthCheck{Name: observability.ServiceStations, Check: func(ctx context.Context) error {
			_, err := probe.ListStations(ctx)
			return err
		}}
	case config.BackendOrchestrator:
		orch := client.NewOrchestratorClient(httpClient, cfg.OrchestratorURL,
			resilience.NewCircuitBreaker(observability.ServiceOrchestrator, logger), logger)
		backend = service.NewOrchestratorBackend(orch, retry, metrics, logger)
		probe := client.NewOrchestratorClient(httpClient, cfg.OrchestratorURL,
			resilience.NewCircuitBreaker(probeBreakerName(observability.ServiceOrchestrator), logger), logger)
		backendProbe = handler.HealthCheck{Name: observability.ServiceOrchestrator, Check: func(ctx context.Context) error {
			_, err := probe.ListStations(ctx)
			return err
		}}
	default:
		return nil, fmt.Errorf("unknown station backend %q", cfg.Backend)
	}

	// Generation is slow; it gets its own timeout.
	llm, err := client.NewLLMClient(&http.Client{Timeout: cfg.LLMTimeout}, cfg.LLMURL, cfg.LLMModel,
		resilience.NewCircuitBreaker(observability.ServiceLLM, logger), logger)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}

	profileCache := cache.New[*domain.ProfileSuggestion](cfg.ProfileCacheTTL)

	return &App{
		Config:       cfg,
		Metrics:      metrics,
		Store:        profileStore,
		Provisioner:  service.NewProvisioner(profileStore, backend, metrics, logger),
		Profiler:     service.NewProfiler(llm, profileStore, profileCache, metrics, logger),
		Profiles:     service.NewProfileService(profileStore, logger),
		profileCache: profileCache,
		HealthChecks: []handler.HealthCheck{
			backendProbe,
			{Name: observability.ServiceStore, Check: profileStore.Check},
		},
	}, nil
}

func probeBreakerName(service string) string {
	return service + "-healthz"
}

// Services returns the services exposed over HTTP.
func (a *App) Services() handler.Services {
	return handler.Services{
		Provisioner: a.Provisioner,
		Profiler:    a.Profiler,
		Profiles:    a.Profiles,
	}
}

// Router builds the HTTP handler for this app.
func (a *App) Router(logger *zap.Logger) http.Handler {
	return handler.NewRouter(a.Services(), handler.Options{
		StaticDir:         a.Config.StaticDir,
		OperatorJWTSecret: a.Config.OperatorJWTSecret,
		HealthChecks:      a.HealthChecks,
	}, a.Metrics, logger)
}

// Close releases background resources.
func (a *App) Close() {
	a.profileCache.Close()
}
