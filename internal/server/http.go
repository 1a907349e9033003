package server

import (
	"context"
	"time"

	"coverletter/internal/ai"
	"coverletter/internal/config"
	"coverletter/internal/errors"
	"coverletter/internal/types"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// LetterService is what the handlers need from the letters package
type LetterService interface {
	Generate(ctx context.Context, req types.GenerateRequest) (*types.GenerateResponse, *ai.TokenUsage, error)
	Score(req types.FitScoreRequest) (*types.FitScoreResponse, error)
	Save(ctx context.Context, req types.SaveLetterRequest) (*types.SavedLetter, error)
	List(ctx context.Context) ([]types.SavedLetter, error)
	Get(ctx context.Context, id string) (*types.SavedLetter, error)
	Delete(ctx context.Context, id string) error
}

// HealthReporter reports model availability and breaker state
type HealthReporter interface {
	ModelInfo(ctx context.Context) map[string]*ai.ModelInfo
	CircuitBreakerStats() map[string]any
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	TLSConfig config.TLSConfig

	// certs serves reloadable certificates when auto reload is on
	certs *certReloader

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Letters LetterService
	Health  HealthReporter

	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServerConfig copies the server section of the application config
func NewServerConfig(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
}

// NewServer creates a new Server instance. health may be nil when no model
// is configured.
func NewServer(appCfg *config.Config, cfg ServerConfig, letters LetterService, health HealthReporter, logger *errors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			cfg.RateLimit.IdleTTL,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Letters:        letters,
		Health:         health,
		Logger:         logger,
	}
}
