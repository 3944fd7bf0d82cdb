// internal/common/http/client.go
package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"formassist/internal/common/logger"
	"formassist/internal/common/metrics"
	"formassist/internal/common/observability"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const RequestIDHeader = "X-Request-ID"

type Client struct {
	httpClient *http.Client
	obs        *observability.Observability
	logger     logger.Logger
}

type Option func(*Client)

func WithObservability(o *observability.Observability) Option {
	return func(c *Client) { c.obs = o }
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTransport swaps the round tripper, mostly for tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		obs:    &observability.Observability{},
		logger: logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// DoWithContext sends req under ctx. name labels the call in metrics and
// spans; it should be a route template, not a concrete path.
func (c *Client) DoWithContext(ctx context.Context, name string, req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	requestID := req.Header.Get(RequestIDHeader)

	ctx, span := c.obs.StartSpan(ctx, req.Method+" "+name,
		attribute.String("http.method", req.Method),
		attribute.String("http.route", name),
		attribute.String("request.id", requestID),
	)
	req = req.WithContext(ctx)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	}

	metrics.APIRequests.WithLabelValues(name, status).Inc()
	metrics.APIRequestDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	c.obs.RecordCall(ctx, name, status, elapsed)
	observability.EndSpan(span, err)

	c.logger.Debug("Backend call", map[string]interface{}{
		"endpoint":   name,
		"method":     req.Method,
		"status":     status,
		"requestId":  requestID,
		"durationMs": elapsed.Milliseconds(),
	})
	return resp, err
}
