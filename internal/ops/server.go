// Package ops serves the optional operational HTTP listener: liveness and
// readiness probes, a status endpoint describing the token cache, and the
// Prometheus metrics endpoint. It is separate from the MCP transport and
// only runs when an address is configured.
package ops

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sdesani/mcp-fhir/internal/platform/auth"
	"github.com/sdesani/mcp-fhir/internal/platform/middleware"
	"github.com/sdesani/mcp-fhir/internal/platform/telemetry"
)

// TokenReporter exposes the token cache state for /status.
// *auth.TokenManager implements it.
type TokenReporter interface {
	Status() auth.TokenStatus
}

// Config identifies the service on the status endpoint.
type Config struct {
	Addr      string
	Service   string
	Version   string
	Env       string
	Transport string
}

// Server is the ops HTTP listener.
type Server struct {
	cfg       Config
	echo      *echo.Echo
	tokens    TokenReporter
	log       zerolog.Logger
	startedAt time.Time
}

// NewServer builds the listener and registers its routes.
func NewServer(cfg Config, tokens TokenReporter, metrics *telemetry.Provider, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger, "/healthz", "/readyz", "/metrics"))
	e.Use(middleware.Recovery(logger))

	s := &Server{
		cfg:       cfg,
		echo:      e,
		tokens:    tokens,
		log:       logger,
		startedAt: time.Now(),
	}

	e.GET("/healthz", s.health)
	e.GET("/readyz", s.ready)
	e.GET("/status", s.status)
	if metrics != nil {
		e.GET("/metrics", metrics.PrometheusHandler())
	}

	return s
}

// Start blocks serving HTTP until the listener fails or is shut down.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.cfg.Addr).Msg("ops listener starting")
	return s.echo.Start(s.cfg.Addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.cfg.Service,
		"version": s.cfg.Version,
	})
}

// ready mirrors health: the proxy has no startup dependencies to gate on,
// the first token is fetched lazily on the first tool call.
func (s *Server) ready(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}

func (s *Server) status(c echo.Context) error {
	body := map[string]any{
		"service":   s.cfg.Service,
		"version":   s.cfg.Version,
		"env":       s.cfg.Env,
		"transport": s.cfg.Transport,
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}
	if s.tokens != nil {
		body["token"] = s.tokens.Status()
	}
	return c.JSON(http.StatusOK, body)
}
