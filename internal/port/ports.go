// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/tys-station-agent/internal/domain"
)

// ProfileStore persists the single customer profile document.
type ProfileStore interface {
	// Load returns the stored profile, creating the default one on first use.
	Load(ctx context.Context) (*domain.CustomerProfile, error)
	Save(ctx context.Context, profile *domain.CustomerProfile) error
}

// StationAPI is the station-hosting admin API.
type StationAPI interface {
	ListStations(ctx context.Context) ([]domain.Station, error)
	CreateStation(ctx context.Context, shortName, displayName string) (*domain.Station, error)
	SetStationEnabled(ctx context.Context, stationID int, enabled bool) error
}

// OrchestratorAPI is the client-scoped provisioning service.
type OrchestratorAPI interface {
	CreateClient(ctx context.Context, name string, plan int) (string, error)
	CreateStationForClient(ctx context.Context, clientID string) (*domain.ClientStationResponse, error)
	ListStations(ctx context.Context) ([]domain.Station, error)
}

// TextGenerator produces a free-text completion for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
