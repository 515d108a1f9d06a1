package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Token endpoint template used when FHIR_TOKEN_ENDPOINT is not set. The
// tenant segment is filled with the effective FHIR_TENANT_ID.
const defaultTokenEndpointFormat = "https://authorization.cerner.com/tenants/%s/hosts/fhir-ehr.cerner.com/protocols/oauth2/profiles/smart-v1/token"

// Credential placement styles for the token request.
const (
	TokenAuthBasic = "basic" // client id/secret in an HTTP Basic Authorization header
	TokenAuthBody  = "body"  // client_id/client_secret form fields in the request body
)

// MCP transport modes.
const (
	TransportStdio      = "stdio"
	TransportSSE        = "sse"
	TransportStreamable = "streamable"
)

type Config struct {
	BaseURL       string `mapstructure:"FHIR_BASE_URL"`
	TenantID      string `mapstructure:"FHIR_TENANT_ID"`
	ClientID      string `mapstructure:"FHIR_CLIENT_ID"`
	ClientSecret  string `mapstructure:"FHIR_CLIENT_SECRET"`
	TokenEndpoint string `mapstructure:"FHIR_TOKEN_ENDPOINT"`
	Scope         string `mapstructure:"FHIR_SCOPE"`
	TokenAuth     string `mapstructure:"FHIR_TOKEN_AUTH"`
	Transport     string `mapstructure:"MCP_TRANSPORT"`
	HTTPAddr      string `mapstructure:"MCP_HTTP_ADDR"`
	OpsAddr       string `mapstructure:"OPS_ADDR"`
	Env           string `mapstructure:"ENV"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`

	// Parsed from FHIR_REQUEST_TIMEOUT, which accepts a Go duration ("90s")
	// or a bare number of seconds ("60", "60.0").
	RequestTimeout time.Duration `mapstructure:"-"`
}

// ConfigurationError reports configuration that is missing or unusable at
// startup. The process refuses to serve any tool while one is outstanding.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("FHIR_BASE_URL", "https://fhir-ehr.cerner.com/r4")
	v.SetDefault("FHIR_TENANT_ID", "ec2458f2-1e24-41c8-b71b-0e701af7583d")
	v.SetDefault("FHIR_TOKEN_ENDPOINT", "") // "" -> derived from FHIR_TENANT_ID
	v.SetDefault("FHIR_SCOPE", "system/Patient.rs system/Appointment.rs")
	v.SetDefault("FHIR_TOKEN_AUTH", TokenAuthBasic)
	v.SetDefault("FHIR_REQUEST_TIMEOUT", "60s")
	v.SetDefault("MCP_TRANSPORT", TransportStdio)
	v.SetDefault("MCP_HTTP_ADDR", ":4981")
	v.SetDefault("OPS_ADDR", "") // "" -> ops listener disabled
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("FHIR_BASE_URL")
	v.BindEnv("FHIR_TENANT_ID")
	v.BindEnv("FHIR_CLIENT_ID")
	v.BindEnv("FHIR_CLIENT_SECRET")
	v.BindEnv("FHIR_TOKEN_ENDPOINT")
	v.BindEnv("FHIR_SCOPE")
	v.BindEnv("FHIR_TOKEN_AUTH")
	v.BindEnv("FHIR_REQUEST_TIMEOUT")
	v.BindEnv("MCP_TRANSPORT")
	v.BindEnv("MCP_HTTP_ADDR")
	v.BindEnv("OPS_ADDR")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	timeout, err := parseTimeout(v.GetString("FHIR_REQUEST_TIMEOUT"))
	if err != nil {
		return nil, &ConfigurationError{Field: "FHIR_REQUEST_TIMEOUT", Reason: err.Error()}
	}
	cfg.RequestTimeout = timeout

	if cfg.TokenEndpoint == "" {
		cfg.TokenEndpoint = fmt.Sprintf(defaultTokenEndpointFormat, cfg.TenantID)
	}

	if cfg.ClientID == "" {
		return nil, &ConfigurationError{Field: "FHIR_CLIENT_ID", Reason: "must be set"}
	}
	if cfg.ClientSecret == "" {
		return nil, &ConfigurationError{Field: "FHIR_CLIENT_SECRET", Reason: "must be set"}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run with. Load calls it
// after applying defaults; callers constructing a Config by hand (tests)
// should call it themselves.
func (c *Config) Validate() error {
	if err := validateHTTPURL("FHIR_BASE_URL", c.BaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("FHIR_TOKEN_ENDPOINT", c.TokenEndpoint); err != nil {
		return err
	}
	if c.TenantID == "" {
		return &ConfigurationError{Field: "FHIR_TENANT_ID", Reason: "must be set"}
	}
	if c.TokenAuth != TokenAuthBasic && c.TokenAuth != TokenAuthBody {
		return &ConfigurationError{
			Field:  "FHIR_TOKEN_AUTH",
			Reason: fmt.Sprintf("must be %q or %q, got %q", TokenAuthBasic, TokenAuthBody, c.TokenAuth),
		}
	}
	switch c.Transport {
	case TransportStdio, TransportSSE, TransportStreamable:
	default:
		return &ConfigurationError{
			Field:  "MCP_TRANSPORT",
			Reason: fmt.Sprintf("must be %q, %q, or %q, got %q", TransportStdio, TransportSSE, TransportStreamable, c.Transport),
		}
	}
	if c.Transport != TransportStdio && c.HTTPAddr == "" {
		return &ConfigurationError{Field: "MCP_HTTP_ADDR", Reason: "must be set for HTTP transports"}
	}
	if c.RequestTimeout <= 0 {
		return &ConfigurationError{Field: "FHIR_REQUEST_TIMEOUT", Reason: "must be positive"}
	}
	return nil
}

// String renders the configuration for logs with the client secret redacted.
func (c *Config) String() string {
	secret := ""
	if c.ClientSecret != "" {
		secret = "[redacted]"
	}
	return fmt.Sprintf(
		"base_url=%s tenant=%s client_id=%s client_secret=%s token_endpoint=%s scope=%q token_auth=%s timeout=%s transport=%s",
		c.BaseURL, c.TenantID, c.ClientID, secret, c.TokenEndpoint, c.Scope, c.TokenAuth, c.RequestTimeout, c.Transport,
	)
}

// parseTimeout accepts a Go duration string or a bare number of seconds.
func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("timeout is empty")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a duration or number of seconds: %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func validateHTTPURL(field, raw string) error {
	if raw == "" {
		return &ConfigurationError{Field: field, Reason: "must be set"}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &ConfigurationError{Field: field, Reason: fmt.Sprintf("invalid URL: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigurationError{Field: field, Reason: fmt.Sprintf("URL scheme must be http or https, got %q", u.Scheme)}
	}
	if u.Host == "" {
		return &ConfigurationError{Field: field, Reason: "URL host is missing"}
	}
	return nil
}
