package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/tys-station-agent/internal/domain"
	"github.com/boddenberg/tys-station-agent/internal/infra/observability"
	"github.com/boddenberg/tys-station-agent/internal/infra/resilience"
	"github.com/boddenberg/tys-station-agent/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Provisioner is the provisioning decision engine. It loads the profile,
// hands it to the configured Backend, and serializes the
// check-then-create critical section so concurrent callers cannot both
// observe the same inventory count.
type Provisioner struct {
	store   port.ProfileStore
	backend Backend
	lock    *resilience.Bulkhead
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewProvisioner creates the engine with all dependencies injected.
func NewProvisioner(store port.ProfileStore, backend Backend, metrics *observability.Metrics, logger *zap.Logger) *Provisioner {
	return &Provisioner{
		store:   store,
		backend: backend,
		lock:    resilience.NewBulkhead(1),
		metrics: metrics,
		logger:  logger,
	}
}

// Backend returns the active backend name.
func (p *Provisioner) Backend() string {
	return p.backend.Kind()
}

// Provision attempts to create one station for the stored profile.
// Negative outcomes are returned as results; only collaborator and store
// failures are errors.
func (p *Provisioner) Provision(ctx context.Context) (*domain.ProvisionResult, error) {
	ctx, span := tracer.Start(ctx, "Provisioner.Provision")
	defer span.End()
	span.SetAttributes(attribute.String("backend", p.backend.Kind()))

	if err := p.lock.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.lock.Release()

	start := time.Now()
	defer func() {
		p.metrics.RecordDuration("provision", time.Since(start))
	}()

	profile, err := p.store.Load(ctx)
	if err != nil {
		recordExternalError(p.metrics, err)
		return nil, fmt.Errorf("load profile: %w", err)
	}

	result, err := p.backend.Provision(ctx, profile)
	if err != nil {
		p.logger.Error("provisioning failed",
			zap.String("backend", p.backend.Kind()),
			zap.Error(err),
		)
		return nil, err
	}

	p.metrics.IncrOutcome(result.Outcome)
	span.SetAttributes(attribute.String("outcome", string(result.Outcome)))

	if result.Succeeded() {
		fields := []zap.Field{
			zap.String("backend", p.backend.Kind()),
			zap.String("outcome", string(result.Outcome)),
		}
		if !result.StationID.IsZero() {
			fields = append(fields, zap.String("station_id", result.StationID.String()))
		}
		if result.ShortName != "" {
			fields = append(fields, zap.String("short_name", result.ShortName))
		}
		p.logger.Info("station provisioned", fields...)
	} else {
		p.logger.Info("provisioning refused",
			zap.String("backend", p.backend.Kind()),
			zap.String("outcome", string(result.Outcome)),
			zap.Int("existing", result.Existing),
			zap.Int("limit", result.Limit),
		)
	}
	return result, nil
}

// CreateClient registers the profile with the orchestrator, stores the
// returned client id and marks the payment as paid.
//
// It does not check for an existing client_id: calling it twice registers
// two remote clients. The paid transition is unconditional; no payment is
// verified anywhere.
func (p *Provisioner) CreateClient(ctx context.Context) (*domain.ClientResult, error) {
	registrar, ok := p.backend.(ClientRegistrar)
	if !ok {
		return nil, &domain.ErrUnsupported{Operation: "createClient", Backend: p.backend.Kind()}
	}

	ctx, span := tracer.Start(ctx, "Provisioner.CreateClient")
	defer span.End()

	if err := p.lock.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.lock.Release()

	start := time.Now()
	defer func() {
		p.metrics.RecordDuration("create_client", time.Since(start))
	}()

	profile, err := p.store.Load(ctx)
	if err != nil {
		recordExternalError(p.metrics, err)
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if !profile.IsConfigured() {
		p.logger.Info("client registration refused", zap.String("outcome", string(domain.OutcomeProfileNotConfigured)))
		return &domain.ClientResult{
			Outcome: domain.OutcomeProfileNotConfigured,
			Reply:   domain.ReplyProfileNotConfigured,
		}, nil
	}

	clientID, err := registrar.RegisterClient(ctx, profile.BusinessTypeValue(), profile.PlanValue())
	if err != nil {
		p.logger.Error("client registration failed", zap.Error(err))
		return nil, err
	}

	profile.ClientID = clientID
	profile.Payment.Status = domain.PaymentPaid
	p.logger.Warn("payment marked as paid without verification",
		zap.String("client_id", clientID),
	)

	// The remote client already exists; a failed save is not rolled back.
	if err := p.store.Save(ctx, profile); err != nil {
		recordExternalError(p.metrics, err)
		return nil, fmt.Errorf("save profile: %w", err)
	}

	return &domain.ClientResult{Reply: domain.ReplyClientCreated, ClientID: clientID}, nil
}

// Stations returns the active backend's listing.
func (p *Provisioner) Stations(ctx context.Context) ([]domain.Station, error) {
	ctx, span := tracer.Start(ctx, "Provisioner.Stations")
	defer span.End()

	start := time.Now()
	defer func() {
		p.metrics.RecordDuration("list_stations", time.Since(start))
	}()

	return p.backend.Stations(ctx)
}

// SetStationEnabled toggles a station when the backend supports it.
func (p *Provisioner) SetStationEnabled(ctx context.Context, stationID int, enabled bool) error {
	toggler, ok := p.backend.(StationToggler)
	if !ok {
		return &domain.ErrUnsupported{Operation: "setStationEnabled", Backend: p.backend.Kind()}
	}

	ctx, span := tracer.Start(ctx, "Provisioner.SetStationEnabled")
	defer span.End()
	span.SetAttributes(attribute.Int("station.id", stationID), attribute.Bool("station.enabled", enabled))

	if err := toggler.SetStationEnabled(ctx, stationID, enabled); err != nil {
		p.logger.Error("station toggle failed", zap.Int("station_id", stationID), zap.Error(err))
		return err
	}
	p.logger.Info("station toggled", zap.Int("station_id", stationID), zap.Bool("enabled", enabled))
	return nil
}
