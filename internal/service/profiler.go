package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/tys-station-agent/internal/domain"
	"github.com/boddenberg/tys-station-agent/internal/infra/observability"
	"github.com/boddenberg/tys-station-agent/internal/port"

	"go.uber.org/zap"
)

// ErrNoJSONObject is returned by ExtractJSONObject when the text holds no
// "{ ... }" span.
var ErrNoJSONObject = errors.New("no JSON object found")

const profilePromptTemplate = `
Analizza questa attività:
"%s"

Rispondi SOLO in JSON:
{
 "business_type": "...",
 "recommended_plan": 29 | 69 | 159,
 "reason": "...",
 "upsell": "..."
}
`

// BuildProfilePrompt embeds a business description in the profiling prompt.
func BuildProfilePrompt(description string) string {
	return fmt.Sprintf(profilePromptTemplate, description)
}

// ExtractJSONObject returns the text from the first '{' to the last '}'
// inclusive. It is not a parser: prose containing braces before or after
// the object, or several objects, yields a span that will not decode.
func ExtractJSONObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", ErrNoJSONObject
	}
	return text[start : end+1], nil
}

// Profiler classifies a business with the language model and stores the
// suggested business type and plan.
type Profiler struct {
	llm     port.TextGenerator
	store   port.ProfileStore
	cache   port.Cache[*domain.ProfileSuggestion]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewProfiler creates a new Profiler.
func NewProfiler(
	llm port.TextGenerator,
	store port.ProfileStore,
	cache port.Cache[*domain.ProfileSuggestion],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Profiler {
	return &Profiler{
		llm:     llm,
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// Profile asks the model about description and persists business_type and
// plan from its answer. reason and upsell are returned but not stored.
// On any failure the profile is left untouched.
func (p *Profiler) Profile(ctx context.Context, description string) (*domain.ProfileSuggestion, error) {
	ctx, span := tracer.Start(ctx, "Profiler.Profile")
	defer span.End()

	if strings.TrimSpace(description) == "" {
		return nil, &domain.ErrValidation{Field: "description", Message: "must not be empty"}
	}

	suggestion, err := p.suggest(ctx, description)
	if err != nil {
		p.metrics.IncrProfiling("error")
		p.logger.Error("profiling failed", zap.Error(err))
		return nil, err
	}
	p.metrics.IncrProfiling("success")

	profile, err := p.store.Load(ctx)
	if err != nil {
		recordExternalError(p.metrics, err)
		return nil, fmt.Errorf("load profile: %w", err)
	}
	profile.SetBusiness(suggestion.BusinessType, suggestion.RecommendedPlan)
	if err := p.store.Save(ctx, profile); err != nil {
		recordExternalError(p.metrics, err)
		return nil, fmt.Errorf("save profile: %w", err)
	}

	p.logger.Info("profile updated from language model",
		zap.String("business_type", suggestion.BusinessType),
		zap.Int("plan", suggestion.RecommendedPlan),
	)
	return suggestion, nil
}

func (p *Profiler) suggest(ctx context.Context, description string) (*domain.ProfileSuggestion, error) {
	if cached, ok := p.cache.Get(description); ok {
		p.metrics.IncrCacheHit("profiler")
		return cached, nil
	}
	p.metrics.IncrCacheMiss("profiler")

	start := time.Now()
	completion, err := p.llm.Generate(ctx, BuildProfilePrompt(description))
	p.metrics.RecordDuration("llm_generate", time.Since(start))
	if err != nil {
		recordExternalError(p.metrics, err)
		return nil, &domain.ErrProfiling{Reason: "language model call failed", Err: err}
	}

	raw, err := ExtractJSONObject(completion)
	if err != nil {
		return nil, &domain.ErrProfiling{Reason: "completion contains no JSON object", Err: err}
	}

	var suggestion domain.ProfileSuggestion
	if err := json.Unmarshal([]byte(raw), &suggestion); err != nil {
		return nil, &domain.ErrProfiling{Reason: "malformed JSON in completion", Err: err}
	}

	p.cache.Set(description, &suggestion)
	return &suggestion, nil
}
