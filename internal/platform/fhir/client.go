// Package fhir implements the outbound FHIR R4 client used by the MCP tools.
//
// The client is a thin dispatcher: it attaches a bearer token from the
// token source, performs exactly one HTTP attempt per call, maps upstream
// failures onto the error taxonomy in errors.go, and passes response bodies
// through as decoded JSON without any domain validation.
package fhir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sdesani/mcp-fhir/internal/platform/auth"
	"github.com/sdesani/mcp-fhir/internal/platform/telemetry"
)

const (
	defaultTimeout = 60 * time.Second

	// maxResponseBytes caps how much of an upstream body is read. Large
	// search bundles fit comfortably; anything bigger is refused rather
	// than buffered without bound.
	maxResponseBytes = 16 << 20
)

// TokenSource supplies a bearer token for outbound requests.
// *auth.TokenManager implements it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Config holds the settings for a Client.
type Config struct {
	BaseURL  string        // FHIR R4 base, e.g. https://fhir-ehr.cerner.com/r4
	TenantID string        // tenant path segment appended to the base
	Timeout  time.Duration // per-request timeout, default 60s
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient supplies a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.client = c
	}
}

// WithLogger supplies the logger used for request events.
func WithLogger(l zerolog.Logger) Option {
	return func(cl *Client) {
		cl.log = l
	}
}

// WithTelemetry wires the client to the metrics provider.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(cl *Client) {
		cl.metrics = p
	}
}

// Client dispatches authenticated requests to one FHIR tenant. Safe for
// concurrent use.
type Client struct {
	cfg     Config
	tokens  TokenSource
	client  *http.Client
	log     zerolog.Logger
	metrics *telemetry.Provider
}

// NewClient validates cfg and builds a client around the given token source.
func NewClient(cfg Config, tokens TokenSource, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("fhir base url is required")
	}
	if cfg.TenantID == "" {
		return nil, fmt.Errorf("fhir tenant id is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Client{
		cfg:     cfg,
		tokens:  tokens,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     zerolog.Nop(),
		metrics: telemetry.NewProvider(telemetry.Config{Enabled: telemetry.BoolPtr(false)}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Convenience operations
// ---------------------------------------------------------------------------

// Read fetches a single resource by id: GET {base}/{tenant}/{Type}/{id}.
func (c *Client) Read(ctx context.Context, resourceType, id string) (map[string]any, error) {
	return c.Send(ctx, http.MethodGet, resourceType+"/"+url.PathEscape(id), nil)
}

// Search queries a resource type: GET {base}/{tenant}/{Type}?{params}.
func (c *Client) Search(ctx context.Context, resourceType string, params *SearchParams) (map[string]any, error) {
	var q url.Values
	if params != nil {
		q = params.Values()
	}
	return c.Send(ctx, http.MethodGet, resourceType, q)
}

// Metadata retrieves the server capability statement.
func (c *Client) Metadata(ctx context.Context) (map[string]any, error) {
	return c.Send(ctx, http.MethodGet, "metadata", nil)
}

// ---------------------------------------------------------------------------
// Dispatcher
// ---------------------------------------------------------------------------

// Send performs one FHIR request and returns the decoded JSON body.
// path is relative to {base}/{tenant}. Exactly one attempt is made: errors
// come back mapped onto the taxonomy and are never retried here.
func (c *Client) Send(ctx context.Context, method, path string, query url.Values) (map[string]any, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	resourceType, id, operation := classifyRequest(path)

	reqURL := c.cfg.BaseURL + "/" + c.cfg.TenantID + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building fhir request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/fhir+json")
	req.Header.Set("Content-Type", "application/fhir+json")
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	c.metrics.RequestStarted()

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RequestFinished(resourceType, operation, 0, time.Since(start))
		c.log.Warn().Err(err).Str("request_id", requestID).
			Str("resource_type", resourceType).Str("operation", operation).
			Msg("fhir request failed")
		if isTimeout(err) {
			return nil, &TimeoutError{Operation: operation, Err: err}
		}
		return nil, fmt.Errorf("fhir request failed: %w", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.metrics.RequestFinished(resourceType, operation, resp.StatusCode, time.Since(start))
	if readErr != nil {
		return nil, fmt.Errorf("reading fhir response: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := statusError(resp.StatusCode, resourceType, id, body)
		c.log.Warn().Str("request_id", requestID).Int("status", resp.StatusCode).
			Str("resource_type", resourceType).Str("operation", operation).
			Dur("duration", time.Since(start)).Msg("fhir request rejected")
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decoding fhir response: %w", err)
	}

	c.log.Debug().Str("request_id", requestID).Int("status", resp.StatusCode).
		Str("resource_type", resourceType).Str("operation", operation).
		Dur("duration", time.Since(start)).Msg("fhir request completed")

	return out, nil
}

// classifyRequest derives metric labels and the target resource id from a
// relative request path.
func classifyRequest(path string) (resourceType, id, operation string) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "metadata" {
		return "CapabilityStatement", "", "capabilities"
	}
	segs := strings.SplitN(trimmed, "/", 3)
	switch len(segs) {
	case 1:
		return segs[0], "", "search"
	case 2:
		return segs[0], segs[1], "read"
	default:
		return segs[0], "", "request"
	}
}

// statusError maps a non-2xx upstream response onto the error taxonomy.
func statusError(status int, resourceType, id string, body []byte) error {
	detail := upstreamDetail(body)
	switch {
	case status == http.StatusUnauthorized:
		if detail == "" {
			detail = "fhir server rejected the access token"
		}
		return &auth.AuthenticationError{Status: status, Detail: detail}
	case status == http.StatusNotFound:
		return &NotFoundError{Resource: resourceType, ID: id}
	case status >= 400 && status < 500:
		return &ClientError{Status: status, Detail: detail}
	default:
		return &ServerError{Status: status, Detail: detail}
	}
}

// upstreamDetail extracts a readable description from an error body. FHIR
// servers usually return an OperationOutcome; anything else is excerpted.
func upstreamDetail(body []byte) string {
	if oo, ok := DecodeOperationOutcome(body); ok {
		if d := oo.Diagnostics(); d != "" {
			return d
		}
	}
	const max = 256
	s := strings.TrimSpace(string(body))
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}

// isTimeout reports whether err is a deadline or timeout failure.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
