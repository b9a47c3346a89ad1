package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/tys-station-agent/internal/domain"
	"github.com/boddenberg/tys-station-agent/internal/port"

	"go.uber.org/zap"
)

// ProfileService exposes the stored profile and the manual override.
type ProfileService struct {
	store  port.ProfileStore
	logger *zap.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(store port.ProfileStore, logger *zap.Logger) *ProfileService {
	return &ProfileService{store: store, logger: logger}
}

// Status returns the current profile record.
func (s *ProfileService) Status(ctx context.Context) (*domain.CustomerProfile, error) {
	profile, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// SetProfile overwrites business type and plan as given, nil included.
// No check against the quota table: an unknown plan simply yields zero quota.
func (s *ProfileService) SetProfile(ctx context.Context, businessType *string, plan *int) error {
	profile, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	profile.BusinessType = businessType
	profile.Plan = plan

	if err := s.store.Save(ctx, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	s.logger.Info("profile updated manually",
		zap.String("business_type", profile.BusinessTypeValue()),
		zap.Int("plan", profile.PlanValue()),
	)
	return nil
}
