package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Backend names accepted by STATION_BACKEND.
const (
	BackendDirect       = "direct"
	BackendOrchestrator = "orchestrator"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port      int    `env:"PORT" envDefault:"4000" validate:"gt=0,lt=65536"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	StaticDir string `env:"STATIC_DIR"`

	// Profile store
	ProfilePath string `env:"PROFILE_PATH" envDefault:"memory.json" validate:"required"`

	// Provisioning backend: direct station API or orchestrator
	Backend         string `env:"STATION_BACKEND" envDefault:"direct" validate:"oneof=direct orchestrator"`
	StationAPIURL   string `env:"STATION_API_URL" envDefault:"https://tuneyourstore.net/api" validate:"required_if=Backend direct,omitempty,url"`
	StationAPIKey   string `env:"STATION_API_KEY" validate:"required_if=Backend direct"`
	OrchestratorURL string `env:"ORCHESTRATOR_URL" envDefault:"http://localhost:5000" validate:"required_if=Backend orchestrator,omitempty,url"`

	// Language model
	LLMURL   string `env:"LLM_URL" envDefault:"http://localhost:11434/api/generate" validate:"required,url"`
	LLMModel string `env:"LLM_MODEL" envDefault:"llama3" validate:"required"`

	// HTTP client
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"5s" validate:"gt=0"`
	LLMTimeout  time.Duration `env:"LLM_TIMEOUT" envDefault:"60s" validate:"gt=0"`

	// Resilience (caller-side retry for read-only listing only)
	MaxRetries     int           `env:"MAX_RETRIES" envDefault:"0" validate:"gte=0,lte=10"`
	InitialBackoff time.Duration `env:"INITIAL_BACKOFF" envDefault:"200ms"`

	// Cache
	ProfileCacheTTL time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"10m" validate:"gt=0"`

	// Observability
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Operator auth; empty leaves mutation routes open
	OperatorJWTSecret string `env:"OPERATOR_JWT_SECRET"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
