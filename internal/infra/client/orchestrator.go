package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/boddenberg/tys-station-agent/internal/domain"
	"github.com/boddenberg/tys-station-agent/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const serviceOrchestrator = "orchestrator"

// OrchestratorClient talks to the in-network orchestrator, which owns
// quota and naming for client-scoped stations. No authentication.
type OrchestratorClient struct {
	req requester
	cb  *gobreaker.CircuitBreaker
}

// NewOrchestratorClient creates a new OrchestratorClient.
func NewOrchestratorClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, logger *zap.Logger) *OrchestratorClient {
	return &OrchestratorClient{
		req: requester{
			httpClient: httpClient,
			baseURL:    baseURL,
			service:    serviceOrchestrator,
			logger:     logger,
		},
		cb: cb,
	}
}

// CreateClient registers a customer and returns the orchestrator client id.
// Numeric ids are returned in their decimal form.
func (c *OrchestratorClient) CreateClient(ctx context.Context, name string, plan int) (string, error) {
	ctx, span := tracer.Start(ctx, "OrchestratorClient.CreateClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.name", name), attribute.Int("client.plan", plan))

	return resilience.Execute(c.cb, serviceOrchestrator, func() (string, error) {
		var resp domain.CreateClientResponse
		if err := c.req.do(ctx, http.MethodPost, "/clients", domain.CreateClientRequest{Name: name, Plan: plan}, &resp); err != nil {
			return "", err
		}
		if resp.ClientID.IsZero() {
			return "", &domain.ErrRemote{Service: serviceOrchestrator, Status: http.StatusOK, Body: "orchestrator returned no client_id"}
		}
		return resp.ClientID.String(), nil
	})
}

// CreateStationForClient asks the orchestrator for one more station.
func (c *OrchestratorClient) CreateStationForClient(ctx context.Context, clientID string) (*domain.ClientStationResponse, error) {
	ctx, span := tracer.Start(ctx, "OrchestratorClient.CreateStationForClient")
	defer span.End()
	span.SetAttributes(attribute.String("client.id", clientID))

	return resilience.Execute(c.cb, serviceOrchestrator, func() (*domain.ClientStationResponse, error) {
		var resp domain.ClientStationResponse
		path := fmt.Sprintf("/clients/%s/stations", url.PathEscape(clientID))
		if err := c.req.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
}

// ListStations returns the orchestrator's global listing (not client-scoped).
func (c *OrchestratorClient) ListStations(ctx context.Context) ([]domain.Station, error) {
	ctx, span := tracer.Start(ctx, "OrchestratorClient.ListStations")
	defer span.End()

	return resilience.Execute(c.cb, serviceOrchestrator, func() ([]domain.Station, error) {
		var stations []domain.Station
		if err := c.req.do(ctx, http.MethodGet, "/stations", nil, &stations); err != nil {
			return nil, err
		}
		return stations, nil
	})
}
