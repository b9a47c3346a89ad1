package service

import (
	"context"
	"errors"

	"github.com/boddenberg/tys-station-agent/internal/domain"
	"github.com/boddenberg/tys-station-agent/internal/infra/observability"
	"github.com/boddenberg/tys-station-agent/internal/infra/resilience"
	"github.com/boddenberg/tys-station-agent/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/provisioning")

// Backend is a provisioning strategy. Exactly one is active per deployment.
type Backend interface {
	// Kind returns the STATION_BACKEND name.
	Kind() string
	// Provision decides on and performs at most one station creation.
	Provision(ctx context.Context, profile *domain.CustomerProfile) (*domain.ProvisionResult, error)
	// Stations returns the backend's inventory listing.
	Stations(ctx context.Context) ([]domain.Station, error)
}

// ClientRegistrar is implemented by backends that scope stations by client.
type ClientRegistrar interface {
	RegisterClient(ctx context.Context, name string, plan int) (string, error)
}

// StationToggler is implemented by backends that can enable/disable stations.
type StationToggler interface {
	SetStationEnabled(ctx context.Context, stationID int, enabled bool) error
}

// ============================================================
// Direct station API
// ============================================================

// DirectBackend enforces the plan quota locally against the live inventory
// and names stations "radio-<business_type>-<n>".
type DirectBackend struct {
	api     port.StationAPI
	retry   resilience.Config
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDirectBackend creates the direct backend. retry applies to listing only,
// and only transport failures are retried.
func NewDirectBackend(api port.StationAPI, retry resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *DirectBackend {
	return &DirectBackend{api: api, retry: listingRetry(retry), metrics: metrics, logger: logger}
}

// Kind implements Backend.
func (d *DirectBackend) Kind() string { return "direct" }

// Provision implements Backend.
func (d *DirectBackend) Provision(ctx context.Context, profile *domain.CustomerProfile) (*domain.ProvisionResult, error) {
	ctx, span := tracer.Start(ctx, "DirectBackend.Provision")
	defer span.End()

	if !profile.IsConfigured() {
		return domain.NewNegativeResult(domain.OutcomeProfileNotConfigured), nil
	}
	if profile.PaymentBlocked() {
		return domain.NewNegativeResult(domain.OutcomePaymentInactive), nil
	}

	businessType := profile.BusinessTypeValue()
	span.SetAttributes(attribute.String("business_type", businessType), attribute.Int("plan", profile.PlanValue()))

	stations, err := d.Stations(ctx)
	if err != nil {
		return nil, err
	}

	existing := domain.CountWithPrefix(stations, domain.StationPrefix(businessType))
	limit := domain.PlanQuota(profile.Plan)
	if existing >= limit {
		res := domain.NewNegativeResult(domain.OutcomeQuotaExceeded)
		res.Existing, res.Limit = existing, limit
		return res, nil
	}

	shortName, displayName := domain.StationNames(businessType, existing+1)
	created, err := d.api.CreateStation(ctx, shortName, displayName)
	if err != nil {
		recordExternalError(d.metrics, err)
		return nil, err
	}

	return &domain.ProvisionResult{
		Outcome:   domain.OutcomeCreated,
		Reply:     domain.ReplyStationCreated,
		StationID: created.RemoteID(),
		ShortName: shortName,
		Existing:  existing,
		Limit:     limit,
	}, nil
}

// Stations implements Backend. Listing is read-only, so it is the one call
// retried with backoff.
func (d *DirectBackend) Stations(ctx context.Context) ([]domain.Station, error) {
	var stations []domain.Station
	err := resilience.RetryWithBackoff(ctx, d.retry, func() error {
		var err error
		stations, err = d.api.ListStations(ctx)
		return err
	})
	if err != nil {
		recordExternalError(d.metrics, err)
		return nil, err
	}
	return stations, nil
}

// SetStationEnabled implements StationToggler.
func (d *DirectBackend) SetStationEnabled(ctx context.Context, stationID int, enabled bool) error {
	if err := d.api.SetStationEnabled(ctx, stationID, enabled); err != nil {
		recordExternalError(d.metrics, err)
		return err
	}
	return nil
}

// ============================================================
// Orchestrator
// ============================================================

// OrchestratorBackend delegates quota and naming to the orchestrator.
type OrchestratorBackend struct {
	api     port.OrchestratorAPI
	retry   resilience.Config
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewOrchestratorBackend creates the orchestrator backend.
func NewOrchestratorBackend(api port.OrchestratorAPI, retry resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *OrchestratorBackend {
	return &OrchestratorBackend{api: api, retry: listingRetry(retry), metrics: metrics, logger: logger}
}

func listingRetry(cfg resilience.Config) resilience.Config {
	if cfg.Retryable == nil {
		cfg.Retryable = resilience.IsTransient
	}
	return cfg
}

// Kind implements Backend.
func (o *OrchestratorBackend) Kind() string { return "orchestrator" }

// Provision implements Backend.
func (o *OrchestratorBackend) Provision(ctx context.Context, profile *domain.CustomerProfile) (*domain.ProvisionResult, error) {
	ctx, span := tracer.Start(ctx, "OrchestratorBackend.Provision")
	defer span.End()

	if profile.ClientID == "" {
		return domain.NewNegativeResult(domain.OutcomeClientNotConfigured), nil
	}
	if profile.PaymentBlocked() {
		return domain.NewNegativeResult(domain.OutcomePaymentInactive), nil
	}
	span.SetAttributes(attribute.String("client.id", profile.ClientID))

	resp, err := o.api.CreateStationForClient(ctx, profile.ClientID)
	if err != nil {
		recordExternalError(o.metrics, err)
		return nil, err
	}

	reply := resp.Message
	if reply == "" {
		reply = domain.ReplyStationCreated
	}
	return &domain.ProvisionResult{
		Outcome:   domain.OutcomeDelegated,
		Reply:     reply,
		StationID: resp.StationID,
	}, nil
}

// Stations implements Backend. The orchestrator listing is global.
func (o *OrchestratorBackend) Stations(ctx context.Context) ([]domain.Station, error) {
	var stations []domain.Station
	err := resilience.RetryWithBackoff(ctx, o.retry, func() error {
		var err error
		stations, err = o.api.ListStations(ctx)
		return err
	})
	if err != nil {
		recordExternalError(o.metrics, err)
		return nil, err
	}
	return stations, nil
}

// RegisterClient implements ClientRegistrar.
func (o *OrchestratorBackend) RegisterClient(ctx context.Context, name string, plan int) (string, error) {
	id, err := o.api.CreateClient(ctx, name, plan)
	if err != nil {
		recordExternalError(o.metrics, err)
		return "", err
	}
	return id, nil
}

// recordExternalError counts a collaborator failure under its service label.
func recordExternalError(m *observability.Metrics, err error) {
	var (
		remote    *domain.ErrRemote
		transport *domain.ErrTransport
		open      *domain.ErrCircuitOpen
		store     *domain.ErrStore
	)
	switch {
	case errors.As(err, &remote):
		m.IncrExternalError(remote.Service)
	case errors.As(err, &transport):
		m.IncrExternalError(transport.Service)
	case errors.As(err, &open):
		m.IncrExternalError(open.Service)
	case errors.As(err, &store):
		m.IncrExternalError(observability.ServiceStore)
	}
}
