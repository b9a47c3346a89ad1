package handler

import (
	"net/http"

	"github.com/boddenberg/tys-station-agent/internal/domain"
	"github.com/boddenberg/tys-station-agent/internal/infra/observability"
	"github.com/boddenberg/tys-station-agent/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Profile
// ============================================================

type aiProfileRequest struct {
	Description string `json:"description"`
}

type aiProfileResponse struct {
	Reply string                    `json:"reply"`
	AI    *domain.ProfileSuggestion `json:"ai"`
}

type setProfileRequest struct {
	BusinessType *string `json:"business_type"`
	Plan         *int    `json:"plan"`
}

type replyResponse struct {
	Reply string `json:"reply"`
}

func aiProfileHandler(profiler *service.Profiler, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /aiProfile")
		defer span.End()

		var req aiProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		suggestion, err := profiler.Profile(ctx, req.Description)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(
			attribute.String("business_type", suggestion.BusinessType),
			attribute.Int("plan", suggestion.RecommendedPlan),
		)
		observability.Annotate(ctx,
			zap.String("business_type", suggestion.BusinessType),
			zap.Int("plan", suggestion.RecommendedPlan),
		)

		writeJSON(w, http.StatusOK, aiProfileResponse{
			Reply: domain.ReplyAIProfileUpdated,
			AI:    suggestion,
		})
	}
}

func setProfileHandler(profiles *service.ProfileService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /setProfile")
		defer span.End()

		var req setProfileRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := profiles.SetProfile(ctx, req.BusinessType, req.Plan); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, replyResponse{Reply: domain.ReplyProfileUpdated})
	}
}

func statusHandler(profiles *service.ProfileService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /status")
		defer span.End()

		profile, err := profiles.Status(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}
