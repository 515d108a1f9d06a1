package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/viant/mcp-protocol/schema"
	proto "github.com/viant/mcp-protocol/server"
	"github.com/viant/mcp/server"

	"github.com/sdesani/mcp-fhir/internal/config"
	"github.com/sdesani/mcp-fhir/internal/ops"
	"github.com/sdesani/mcp-fhir/internal/platform/auth"
	"github.com/sdesani/mcp-fhir/internal/platform/fhir"
	"github.com/sdesani/mcp-fhir/internal/platform/telemetry"
	"github.com/sdesani/mcp-fhir/internal/tools"
)

const serviceName = "fhir-mcp-server"

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "fhir-mcp-server",
		Short: "MCP server exposing FHIR R4 clinical data as tools",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func runServer() error {
	// Logs always go to stderr: on the stdio transport stdout carries the
	// JSON-RPC stream and must stay clean.
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && level != zerolog.NoLevel {
		logger = logger.Level(level)
	}

	logger.Info().Str("config", cfg.String()).Msg("configuration loaded")

	metrics := telemetry.NewProvider(telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    cfg.Env,
	})

	tokens, err := auth.NewTokenManager(auth.Config{
		TokenEndpoint: cfg.TokenEndpoint,
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
		Scope:         cfg.Scope,
		AuthStyle:     cfg.TokenAuth,
		Timeout:       cfg.RequestTimeout,
	}, auth.WithLogger(logger), auth.WithTelemetry(metrics))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build token manager")
	}

	client, err := fhir.NewClient(fhir.Config{
		BaseURL:  cfg.BaseURL,
		TenantID: cfg.TenantID,
		Timeout:  cfg.RequestTimeout,
	}, tokens, fhir.WithLogger(logger), fhir.WithTelemetry(metrics))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build fhir client")
	}

	svc := tools.NewService(client, logger)

	ctx := context.Background()
	newHandler := proto.WithDefaultHandler(ctx, func(h *proto.DefaultHandler) error {
		return tools.Register(h, svc)
	})

	srv, err := server.New(
		server.WithNewHandler(newHandler),
		server.WithImplementation(schema.Implementation{Name: serviceName, Version: version}),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build mcp server")
	}

	// Optional ops listener: probes, token status, Prometheus metrics. It
	// runs beside every transport, including stdio.
	var opsSrv *ops.Server
	if cfg.OpsAddr != "" {
		opsSrv = ops.NewServer(ops.Config{
			Addr:      cfg.OpsAddr,
			Service:   serviceName,
			Version:   version,
			Env:       cfg.Env,
			Transport: cfg.Transport,
		}, tokens, metrics, logger)
		go func() {
			if err := opsSrv.Start(); err != nil && err != http.ErrServerClosed {
				logger.Fatal().Err(err).Msg("ops listener error")
			}
		}()
	}

	if cfg.Transport == config.TransportStdio {
		logger.Info().Msg("mcp server starting on stdio")
		err := srv.Stdio(ctx).ListenAndServe()
		shutdownOps(opsSrv, logger)
		if err != nil {
			logger.Error().Err(err).Msg("stdio transport terminated")
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	}

	if cfg.Transport == config.TransportStreamable {
		srv.UseStreamableHTTP(true)
	}
	httpSrv := srv.HTTP(ctx, cfg.HTTPAddr)

	// Graceful shutdown
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Str("transport", cfg.Transport).Msg("mcp server starting")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("mcp server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("mcp server shutdown failed")
	}
	shutdownOps(opsSrv, logger)
	logger.Info().Msg("server stopped")
	return nil
}

func shutdownOps(opsSrv *ops.Server, logger zerolog.Logger) {
	if opsSrv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := opsSrv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("ops listener shutdown failed")
	}
}
