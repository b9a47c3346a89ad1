package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/tys-station-agent/internal/domain"
	"github.com/boddenberg/tys-station-agent/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const serviceLLM = "llm"

// LLMClient calls a non-streaming text-generation endpoint
// ({model, prompt, stream:false} -> {response}).
type LLMClient struct {
	req   requester
	path  string
	model string
	cb    *gobreaker.CircuitBreaker
}

// NewLLMClient creates a client for the full generate URL
// (e.g. http://localhost:11434/api/generate).
func NewLLMClient(httpClient *http.Client, generateURL, model string, cb *gobreaker.CircuitBreaker, logger *zap.Logger) (*LLMClient, error) {
	u, err := url.Parse(generateURL)
	if err != nil {
		return nil, err
	}
	path := u.EscapedPath()
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	u.Path, u.RawPath, u.RawQuery = "", "", ""

	return &LLMClient{
		req: requester{
			httpClient: httpClient,
			baseURL:    u.String(),
			service:    serviceLLM,
			logger:     logger,
		},
		path:  path,
		model: model,
		cb:    cb,
	}, nil
}

// Model returns the configured model name.
func (c *LLMClient) Model() string {
	return c.model
}

// Generate sends prompt and returns the raw completion text.
func (c *LLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "LLMClient.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.model), attribute.Int("llm.prompt_chars", len(prompt)))

	return resilience.Execute(c.cb, serviceLLM, func() (string, error) {
		var resp domain.GenerateResponse
		body := domain.GenerateRequest{Model: c.model, Prompt: prompt, Stream: false}
		if err := c.req.do(ctx, http.MethodPost, c.path, body, &resp); err != nil {
			return "", err
		}
		return resp.Response, nil
	})
}
