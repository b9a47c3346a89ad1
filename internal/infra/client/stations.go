package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/tys-station-agent/internal/domain"
	"github.com/boddenberg/tys-station-agent/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const serviceStations = "stations"

// StationClient talks to the station-hosting admin API with a bearer key.
type StationClient struct {
	req requester
	cb  *gobreaker.CircuitBreaker
}

// NewStationClient creates a new StationClient.
func NewStationClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, logger *zap.Logger) *StationClient {
	return &StationClient{
		req: requester{
			httpClient: httpClient,
			baseURL:    baseURL,
			service:    serviceStations,
			headers:    map[string]string{"Authorization": "Bearer " + apiKey},
			logger:     logger,
		},
		cb: cb,
	}
}

// ListStations returns every station visible to the API key.
func (c *StationClient) ListStations(ctx context.Context) ([]domain.Station, error) {
	ctx, span := tracer.Start(ctx, "StationClient.ListStations")
	defer span.End()

	return resilience.Execute(c.cb, serviceStations, func() ([]domain.Station, error) {
		var stations []domain.Station
		if err := c.req.do(ctx, http.MethodGet, "/admin/stations", nil, &stations); err != nil {
			return nil, err
		}
		span.SetAttributes(attribute.Int("stations.count", len(stations)))
		return stations, nil
	})
}

// CreateStation creates a station; the backend may reject the name.
func (c *StationClient) CreateStation(ctx context.Context, shortName, displayName string) (*domain.Station, error) {
	ctx, span := tracer.Start(ctx, "StationClient.CreateStation")
	defer span.End()
	span.SetAttributes(attribute.String("station.short_name", shortName))

	body := domain.CreateStationRequest{
		Name:        displayName,
		ShortName:   shortName,
		Description: domain.StationDescription,
	}

	return resilience.Execute(c.cb, serviceStations, func() (*domain.Station, error) {
		var created domain.Station
		if err := c.req.do(ctx, http.MethodPost, "/admin/stations", body, &created); err != nil {
			return nil, err
		}
		return &created, nil
	})
}

// SetStationEnabled toggles a station on or off.
func (c *StationClient) SetStationEnabled(ctx context.Context, stationID int, enabled bool) error {
	ctx, span := tracer.Start(ctx, "StationClient.SetStationEnabled")
	defer span.End()
	span.SetAttributes(attribute.Int("station.id", stationID), attribute.Bool("station.enabled", enabled))

	_, err := resilience.Execute(c.cb, serviceStations, func() (struct{}, error) {
		path := fmt.Sprintf("/admin/stations/%d", stationID)
		return struct{}{}, c.req.do(ctx, http.MethodPut, path, map[string]bool{"is_enabled": enabled}, nil)
	})
	return err
}
