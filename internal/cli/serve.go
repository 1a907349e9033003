package cli

import (
	"context"
	"fmt"
	"time"

	"coverletter/internal/config"
	"coverletter/internal/errors"
	"coverletter/internal/observability"
	"coverletter/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for cover letter generation",
	Long: `Start an HTTP server that provides REST API endpoints for cover letter
generation, fit scoring and saved letters.

Available endpoints:
- POST /generate: Generate a cover letter (optionally saving it)
- POST /fit-score: Score skills against a job description
- GET /letters, POST /letters: List or save letters
- GET /letters/{id}, DELETE /letters/{id}: Show or delete a letter
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

Without a Gemini API key the server still starts; /generate answers 503 and
/health reports degraded.

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
}

// applyServeOverrides copies changed flags onto the server config
func applyServeOverrides(cmd *cobra.Command, cfg *config.ServerConfig) {
	overrides := map[string]*string{
		"port":      &cfg.Port,
		"host":      &cfg.Host,
		"tls-mode":  &cfg.TLS.Mode,
		"cert-file": &cfg.TLS.CertFile,
		"key-file":  &cfg.TLS.KeyFile,
		"ca-file":   &cfg.TLS.CAFile,
	}
	for name, target := range overrides {
		if cmd.Flags().Changed(name) {
			*target, _ = cmd.Flags().GetString(name)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	applyServeOverrides(cmd, &cfg.Server)

	// Validate TLS configuration after applying overrides
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	rt, err := newRuntime(ctx, cfg, logger, true)
	if errors.IsType(err, errors.ErrorTypeConfig) && cfg.RequireAPIKey() != nil {
		logger.Warn("No Gemini API key configured, serving without generation", "error", err.Error())
		rt, err = newRuntime(ctx, cfg, logger, false)
	}
	if err != nil {
		return fmt.Errorf("failed to create cover letter service: %w", err)
	}
	defer rt.close(logger)

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(shutdownCtx); err != nil {
			logger.LogError(err, "Failed to shutdown observability")
		}
	}()

	var health server.HealthReporter
	if rt.writer != nil {
		health = rt.writer
	}

	srv := server.NewServer(cfg, server.NewServerConfig(cfg, Version), rt.letters, health, logger)
	return srv.Start(om)
}
