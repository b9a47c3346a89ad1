package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/boddenberg/tys-station-agent/internal/domain"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// requester is the HTTP plumbing shared by every collaborator client.
// It performs exactly one attempt: retry policy belongs to the caller.
type requester struct {
	httpClient *http.Client
	baseURL    string
	service    string
	headers    map[string]string
	logger     *zap.Logger
}

// do sends body (if any) as JSON and decodes a 2xx response into out (if any).
// Non-2xx responses become *domain.ErrRemote carrying the raw body;
// failures to get a response at all become *domain.ErrTransport.
func (r *requester) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", r.service, err)
		}
		reader = bytes.NewReader(payload)
	}

	url := r.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", r.service, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set(middleware.RequestIDHeader, requestID(ctx))
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Error("outbound request failed",
			zap.String("service", r.service),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return &domain.ErrTransport{Service: r.service, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.ErrTransport{Service: r.service, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.Warn("outbound request rejected",
			zap.String("service", r.service),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(raw)),
		)
		return &domain.ErrRemote{Service: r.service, Status: resp.StatusCode, Body: string(raw)}
	}

	r.logger.Debug("outbound request OK",
		zap.String("service", r.service),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.ErrRemote{
			Service: r.service,
			Status:  resp.StatusCode,
			Body:    fmt.Sprintf("undecodable %s response: %v", r.service, err),
		}
	}
	return nil
}

// requestID forwards the inbound request id, or mints one for calls made
// outside an HTTP request (CLI, health probes).
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
