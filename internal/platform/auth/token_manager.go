// Package auth implements the OAuth2 client-credentials flow used to
// authenticate outbound FHIR requests (SMART Backend Services, RFC 6749 §4.4).
//
// The TokenManager caches one access token per process and refreshes it
// synchronously when it is absent or within the refresh buffer of expiry.
// At most one token exchange is in flight at any time; concurrent callers
// block until the exchange completes and then share its outcome.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/sdesani/mcp-fhir/internal/platform/telemetry"
)

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

const (
	// AuthStyleBasic sends client credentials in an HTTP Basic header.
	AuthStyleBasic = "basic"
	// AuthStyleBody sends client credentials as form fields in the request body.
	AuthStyleBody = "body"

	// defaultExpirySeconds applies when the token response omits expires_in.
	defaultExpirySeconds = 3600

	// defaultRefreshBuffer is how long before expiry a cached token is
	// treated as stale and refreshed.
	defaultRefreshBuffer = 5 * time.Minute

	defaultTimeout = 60 * time.Second

	// maxTokenBodyBytes caps how much of the token endpoint response is read.
	maxTokenBodyBytes = 1 << 20
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// AuthenticationError reports a failure to obtain or use an access token.
// Status is the upstream HTTP status code, or 0 for transport-level failures
// (timeout, connection refused, malformed response).
type AuthenticationError struct {
	Status int
	Detail string
	Err    error
}

func (e *AuthenticationError) Error() string {
	msg := "authentication failed"
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Detail != "" {
		msg = msg + ": " + e.Detail
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

// tokenResponse is the success body of the token endpoint (RFC 6749 §5.1).
// expires_in is decoded as json.Number because some authorization servers
// send it as a string.
type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   json.Number `json:"expires_in"`
	Scope       string      `json:"scope"`
}

// expirySeconds returns the token lifetime, defaulting when expires_in is
// absent, non-numeric, or non-positive.
func (r *tokenResponse) expirySeconds() int64 {
	if r.ExpiresIn == "" {
		return defaultExpirySeconds
	}
	secs, err := r.ExpiresIn.Int64()
	if err != nil {
		f, ferr := r.ExpiresIn.Float64()
		if ferr != nil {
			return defaultExpirySeconds
		}
		secs = int64(f)
	}
	if secs <= 0 {
		return defaultExpirySeconds
	}
	return secs
}

// oauthErrorResponse is the error body of the token endpoint (RFC 6749 §5.2).
type oauthErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ---------------------------------------------------------------------------
// Status / claims
// ---------------------------------------------------------------------------

// Claims carries token claims extracted without signature verification.
// They are diagnostic only; expiry accounting always derives from expires_in.
type Claims struct {
	Issuer  string    `json:"issuer,omitempty"`
	Subject string    `json:"subject,omitempty"`
	Expiry  time.Time `json:"expiry,omitempty"`
	Scopes  []string  `json:"scopes,omitempty"`
}

// TokenStatus describes the cached token for ops endpoints. It never carries
// the token string itself.
type TokenStatus struct {
	Cached      bool      `json:"cached"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
	RefreshedAt time.Time `json:"refreshed_at,omitempty"`
	Refreshes   int64     `json:"refreshes"`
	Claims      *Claims   `json:"claims,omitempty"`
}

// ---------------------------------------------------------------------------
// TokenManager
// ---------------------------------------------------------------------------

// Config holds the settings for a TokenManager.
type Config struct {
	TokenEndpoint string
	ClientID      string
	ClientSecret  string
	Scope         string
	AuthStyle     string        // AuthStyleBasic (default) or AuthStyleBody
	Timeout       time.Duration // token request timeout, default 60s
	RefreshBuffer time.Duration // default 5m
}

// Option customises a TokenManager.
type Option func(*TokenManager)

// WithHTTPClient supplies a custom HTTP client for token requests.
func WithHTTPClient(c *http.Client) Option {
	return func(m *TokenManager) {
		m.client = c
	}
}

// WithLogger supplies the logger used for refresh events.
func WithLogger(l zerolog.Logger) Option {
	return func(m *TokenManager) {
		m.log = l
	}
}

// WithTelemetry wires the manager to the metrics provider.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(m *TokenManager) {
		m.metrics = p
	}
}

// TokenManager obtains and caches an OAuth2 access token. Safe for
// concurrent use.
type TokenManager struct {
	cfg     Config
	client  *http.Client
	log     zerolog.Logger
	metrics *telemetry.Provider
	now     func() time.Time

	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time
	refreshedAt time.Time
	refreshes   int64
	claims      *Claims
}

// NewTokenManager validates cfg and builds a manager. No token is fetched
// until the first Token call.
func NewTokenManager(cfg Config, opts ...Option) (*TokenManager, error) {
	if cfg.TokenEndpoint == "" {
		return nil, fmt.Errorf("token endpoint is required")
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client credentials are required")
	}
	switch cfg.AuthStyle {
	case "":
		cfg.AuthStyle = AuthStyleBasic
	case AuthStyleBasic, AuthStyleBody:
	default:
		return nil, fmt.Errorf("unsupported auth style %q", cfg.AuthStyle)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RefreshBuffer <= 0 {
		cfg.RefreshBuffer = defaultRefreshBuffer
	}

	m := &TokenManager{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     zerolog.Nop(),
		metrics: telemetry.NewProvider(telemetry.Config{Enabled: telemetry.BoolPtr(false)}),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Token returns a valid access token, performing a synchronous exchange when
// the cache is empty or within the refresh buffer of expiry. A failed
// exchange leaves any previously cached token untouched.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.RLock()
	if m.validLocked() {
		tok := m.accessToken
		m.mu.RUnlock()
		return tok, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if m.validLocked() {
		return m.accessToken, nil
	}

	tok, lifetime, err := m.exchange(ctx)
	if err != nil {
		m.metrics.TokenRefreshFailed()
		m.log.Error().Err(err).Str("token_endpoint", m.cfg.TokenEndpoint).
			Msg("token exchange failed")
		return "", err
	}

	now := m.now()
	m.accessToken = tok
	m.expiresAt = now.Add(lifetime)
	m.refreshedAt = now
	m.refreshes++
	m.claims = parseUnverifiedClaims(tok)
	m.metrics.TokenRefreshSucceeded(m.expiresAt)

	evt := m.log.Debug().Time("expires_at", m.expiresAt).Int64("refreshes", m.refreshes)
	if m.claims != nil {
		evt = evt.Str("issuer", m.claims.Issuer).Strs("scopes", m.claims.Scopes)
	}
	evt.Msg("access token refreshed")

	return tok, nil
}

// Status reports the cached token state for diagnostics.
func (m *TokenManager) Status() TokenStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := TokenStatus{
		Cached:      m.accessToken != "",
		ExpiresAt:   m.expiresAt,
		RefreshedAt: m.refreshedAt,
		Refreshes:   m.refreshes,
	}
	if m.claims != nil {
		cp := *m.claims
		st.Claims = &cp
	}
	return st
}

// validLocked reports whether the cached token is usable. Callers must hold
// m.mu in at least read mode.
func (m *TokenManager) validLocked() bool {
	if m.accessToken == "" {
		return false
	}
	return m.now().Before(m.expiresAt.Add(-m.cfg.RefreshBuffer))
}

// ---------------------------------------------------------------------------
// Exchange
// ---------------------------------------------------------------------------

// exchange performs one client-credentials grant and returns the token and
// its lifetime. It never touches the cache.
func (m *TokenManager) exchange(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if m.cfg.Scope != "" {
		form.Set("scope", m.cfg.Scope)
	}
	if m.cfg.AuthStyle == AuthStyleBody {
		form.Set("client_id", m.cfg.ClientID)
		form.Set("client_secret", m.cfg.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.TokenEndpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, &AuthenticationError{Detail: "building token request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if m.cfg.AuthStyle == AuthStyleBasic {
		req.SetBasicAuth(m.cfg.ClientID, m.cfg.ClientSecret)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return "", 0, &AuthenticationError{Detail: "requesting token", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenBodyBytes))
	if err != nil {
		return "", 0, &AuthenticationError{Status: resp.StatusCode, Detail: "reading token response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, exchangeError(resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", 0, &AuthenticationError{Status: resp.StatusCode, Detail: "malformed token response", Err: err}
	}
	if tr.AccessToken == "" {
		return "", 0, &AuthenticationError{Status: resp.StatusCode, Detail: "token response missing access_token"}
	}

	return tr.AccessToken, time.Duration(tr.expirySeconds()) * time.Second, nil
}

// exchangeError builds the error for a non-2xx token response, preferring the
// structured OAuth error body when one is present.
func exchangeError(status int, body []byte) *AuthenticationError {
	var oe oauthErrorResponse
	if err := json.Unmarshal(body, &oe); err == nil && oe.Error != "" {
		detail := oe.Error
		if oe.ErrorDescription != "" {
			detail += ": " + oe.ErrorDescription
		}
		return &AuthenticationError{Status: status, Detail: detail}
	}
	return &AuthenticationError{Status: status, Detail: bodyExcerpt(body)}
}

// bodyExcerpt returns a short single-line excerpt of an upstream body for
// error messages.
func bodyExcerpt(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > max {
		s = s[:max] + "..."
	}
	if s == "" {
		return "empty response body"
	}
	return s
}

// ---------------------------------------------------------------------------
// Claim inspection
// ---------------------------------------------------------------------------

// parseUnverifiedClaims extracts diagnostic claims from a JWT access token
// without verifying its signature. Opaque (non-JWT) tokens yield nil.
func parseUnverifiedClaims(raw string) *Claims {
	parser := jwt.NewParser(
		jwt.WithoutClaimsValidation(),
	)
	unverified, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	claims, ok := unverified.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}

	out := &Claims{}
	out.Issuer, _ = claims["iss"].(string)
	out.Subject, _ = claims["sub"].(string)
	if expClaim, present := claims["exp"]; present {
		if t, err := numericDate(expClaim); err == nil {
			out.Expiry = t
		}
	}
	if scope, _ := claims["scope"].(string); scope != "" {
		out.Scopes = strings.Fields(scope)
	}
	return out
}

func numericDate(v interface{}) (time.Time, error) {
	switch n := v.(type) {
	case float64:
		return time.Unix(int64(n), 0), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(i, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unexpected exp type: %T", v)
	}
}
