// Package backend is the typed client for the form-filing assistant API.
// Each call is a single attempt; responses are validated against a JSON
// schema before they are decoded.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"formassist/internal/common/errors"
	fhttp "formassist/internal/common/http"
	"formassist/internal/common/logger"
	"formassist/internal/common/metrics"
	"formassist/internal/common/observability"
	"formassist/internal/common/validation"
)

// Options configures a Client.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	UploadTimeout  time.Duration
	ValidateSchema bool
	Logger         logger.Logger
	Observability  *observability.Observability
	Transport      http.RoundTripper
}

type Client struct {
	baseURL   string
	http      *fhttp.Client
	upload    *fhttp.Client
	validator *validation.Validator
	validate  bool
	logger    logger.Logger
}

func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UploadTimeout == 0 {
		opts.UploadTimeout = 2 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.Observability == nil {
		opts.Observability = &observability.Observability{}
	}

	httpOpts := []fhttp.Option{
		fhttp.WithLogger(opts.Logger),
		fhttp.WithObservability(opts.Observability),
	}
	if opts.Transport != nil {
		httpOpts = append(httpOpts, fhttp.WithTransport(opts.Transport))
	}

	v := validation.NewValidator()
	for name, schema := range responseSchemas() {
		if err := v.Register(name, schema); err != nil {
			return nil, err
		}
	}

	return &Client{
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		http:      fhttp.NewClient(opts.Timeout, httpOpts...),
		upload:    fhttp.NewClient(opts.UploadTimeout, httpOpts...),
		validator: v,
		validate:  opts.ValidateSchema,
		logger:    opts.Logger.WithFields(map[string]interface{}{"component": "backend"}),
	}, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one request/response exchange.
type call struct {
	route   string // metric/span label, e.g. /session/{id}/upload
	method  string
	path    string
	body    io.Reader
	ctype   string
	token   string
	authed  bool // 401 means the held token was rejected
	upload  bool
	schema  string
	onError func(status int, detail string) error
}

func (c *Client) do(ctx context.Context, cl call, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, cl.body)
	if err != nil {
		return errors.NewInvalidInputError("request", err.Error())
	}
	req.Header.Set("Accept", "application/json")
	if cl.ctype != "" {
		req.Header.Set("Content-Type", cl.ctype)
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	client := c.http
	if cl.upload {
		client = c.upload
	}

	resp, err := client.DoWithContext(ctx, cl.route, req)
	if err != nil {
		return errors.NewNetworkError(cl.route, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewNetworkError(cl.route, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := extractDetail(body)
		c.logger.Warn("Backend returned error status", map[string]interface{}{
			"endpoint": cl.route,
			"status":   resp.StatusCode,
			"detail":   detail,
		})
		if resp.StatusCode == http.StatusUnauthorized && cl.authed {
			return errors.NewAuthRejectedError(cl.route, detail)
		}
		if cl.onError != nil {
			return cl.onError(resp.StatusCode, detail)
		}
		return errors.NewBackendError(cl.route, resp.StatusCode, detail)
	}

	if c.validate && cl.schema != "" {
		res, err := c.validator.Validate(cl.schema, body)
		if err != nil {
			metrics.SchemaMismatches.WithLabelValues(cl.route).Inc()
			return errors.NewSchemaMismatchError(cl.route, []string{err.Error()})
		}
		if !res.Valid {
			metrics.SchemaMismatches.WithLabelValues(cl.route).Inc()
			return errors.NewSchemaMismatchError(cl.route, res.GetErrorMessages())
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		metrics.SchemaMismatches.WithLabelValues(cl.route).Inc()
		return errors.NewSchemaMismatchError(cl.route, []string{err.Error()})
	}
	return nil
}

// extractDetail reads FastAPI-style error bodies: {"detail": "..."} or
// {"detail": [{"msg": "..."}, ...]}.
func extractDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func jsonBody(v interface{}) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.NewInvalidInputError("request body", err.Error())
	}
	return bytes.NewReader(data), nil
}

func pathEscape(s string) string {
	return url.PathEscape(s)
}
