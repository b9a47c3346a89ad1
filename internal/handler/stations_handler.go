package handler

import (
	"net/http"
	"strconv"

	"github.com/boddenberg/tys-station-agent/internal/domain"
	"github.com/boddenberg/tys-station-agent/internal/infra/observability"
	"github.com/boddenberg/tys-station-agent/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Stations
// ============================================================

type createStationResponse struct {
	Reply     string            `json:"reply"`
	StationID domain.ExternalID `json:"station_id,omitempty"`
}

type createClientResponse struct {
	Reply    string `json:"reply"`
	ClientID string `json:"client_id,omitempty"`
}

func createStationHandler(p *service.Provisioner, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /createStation")
		defer span.End()

		result, err := p.Provision(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("outcome", string(result.Outcome)))
		observability.Annotate(ctx, zap.String("outcome", string(result.Outcome)))
		if !result.StationID.IsZero() {
			observability.Annotate(ctx, zap.String("station_id", result.StationID.String()))
		}

		writeJSON(w, http.StatusOK, createStationResponse{
			Reply:     result.Reply,
			StationID: result.StationID,
		})
	}
}

func createClientHandler(p *service.Provisioner, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /createClient")
		defer span.End()

		result, err := p.CreateClient(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if result.ClientID != "" {
			observability.Annotate(ctx, zap.String("client_id", result.ClientID))
		}
		writeJSON(w, http.StatusOK, createClientResponse{
			Reply:    result.Reply,
			ClientID: result.ClientID,
		})
	}
}

func listStationsHandler(p *service.Provisioner, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /stations")
		defer span.End()

		stations, err := p.Stations(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if stations == nil {
			stations = []domain.Station{}
		}
		span.SetAttributes(attribute.Int("stations.count", len(stations)))
		writeJSON(w, http.StatusOK, stations)
	}
}

func setStationEnabledHandler(p *service.Provisioner, enabled bool, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /stations/{stationId}")
		defer span.End()

		stationID, err := strconv.Atoi(chi.URLParam(r, "stationId"))
		if err != nil || stationID <= 0 {
			writeError(w, http.StatusBadRequest, "station id must be a positive integer")
			return
		}

		if err := p.SetStationEnabled(ctx, stationID, enabled); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"station_id": stationID,
			"is_enabled": enabled,
		})
	}
}
