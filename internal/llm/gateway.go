package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/briefing-platform/internal/model"
	"github.com/capitalize-ai/briefing-platform/pkg/logger"
	"github.com/capitalize-ai/briefing-platform/pkg/metrics"
)

const (
	// DefaultTimeout bounds a single provider call.
	DefaultTimeout = 30 * time.Second

	maxResponseBody = 8 << 20
)

// HTTPGateway calls provider endpoints over plain HTTP + JSON.
type HTTPGateway struct {
	client *http.Client
	logger *logger.Logger
	tracer trace.Tracer
}

// NewHTTPGateway creates a gateway whose calls are bounded by timeout.
func NewHTTPGateway(timeout time.Duration, log *logger.Logger) *HTTPGateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewHTTPGatewayWithClient(&http.Client{Timeout: timeout}, log)
}

// NewHTTPGatewayWithClient creates a gateway using a caller-supplied client.
func NewHTTPGatewayWithClient(client *http.Client, log *logger.Logger) *HTTPGateway {
	return &HTTPGateway{
		client: client,
		logger: log,
		tracer: otel.Tracer("github.com/capitalize-ai/briefing-platform/internal/llm"),
	}
}

// Call sends prompt to the persona's endpoint and returns the extracted text.
func (g *HTTPGateway) Call(ctx context.Context, persona *model.Persona, prompt string) (string, error) {
	adapter := AdapterFor(persona.Provider)

	ctx, span := g.tracer.Start(ctx, "llm.Call", trace.WithAttributes(
		attribute.String("llm.provider", adapter.Name()),
		attribute.String("llm.persona", persona.Name),
	))
	defer span.End()

	start := time.Now()
	text, status, err := g.do(ctx, adapter, persona, prompt)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = outcomeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		g.logger.Warn("llm call failed",
			zap.String("persona", persona.Name),
			zap.String("provider", adapter.Name()),
			zap.Int("status", status),
			zap.Duration("latency", elapsed),
			zap.Error(err),
		)
	} else {
		g.logger.Debug("llm call completed",
			zap.String("persona", persona.Name),
			zap.String("provider", adapter.Name()),
			zap.Duration("latency", elapsed),
			zap.Int("response_len", len(text)),
		)
	}
	if status != 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	metrics.RecordLLMCall(adapter.Name(), outcome, elapsed.Seconds())

	return text, err
}

func (g *HTTPGateway) do(ctx context.Context, adapter Adapter, persona *model.Persona, prompt string) (string, int, error) {
	body := adapter.ShapeBody(persona.BodyTemplate, prompt)

	payload, err := json.Marshal(body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, persona.EndpointURL, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = mergeHeaders(persona)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, redact(err, persona))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("%w: failed to read response: %w", ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp.StatusCode, newHTTPError(resp.StatusCode, data)
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", resp.StatusCode, fmt.Errorf("%w: %v", ErrUpstreamResponseMalformed, err)
	}

	return adapter.ExtractText(decoded), resp.StatusCode, nil
}

// mergeHeaders combines the persona header template with the JSON content
// type and, when a key is configured, a bearer Authorization header. Names are
// canonicalized, so the template may override Content-Type but never the
// Authorization set from the key.
func mergeHeaders(persona *model.Persona) http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	for name, value := range persona.HeadersTemplate {
		headers.Set(name, value)
	}
	if persona.EndpointKey != "" {
		headers.Set("Authorization", "Bearer "+persona.EndpointKey)
	}
	return headers
}

// redact strips the endpoint key from transport errors, which may echo the
// request URL.
func redact(err error, persona *model.Persona) error {
	if persona.EndpointKey == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, persona.EndpointKey) {
		return err
	}
	return redactedError{msg: strings.ReplaceAll(msg, persona.EndpointKey, "[REDACTED]"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e redactedError) Error() string { return e.msg }
func (e redactedError) Unwrap() error { return e.err }

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrUpstreamUnavailable):
		return "unavailable"
	case errors.Is(err, ErrUpstreamHTTP):
		return "http_error"
	case errors.Is(err, ErrUpstreamResponseMalformed):
		return "malformed"
	default:
		return "error"
	}
}
