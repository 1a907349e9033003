package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"coverletter/internal/config"
	"coverletter/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements Generator for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	config         *config.OperationAIConfig
	operation      string
	circuitBreaker *Breaker[*genai.GenerateContentResponse]
	modelBreaker   *Breaker[*genai.Model]
	logger         *errors.Logger
}

var _ Generator = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini client configured for one operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operation string, logger *errors.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			fmt.Sprintf("Gemini API key is not configured for %s", operation), nil)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: *cfg.Timeout},
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		operation:      operation,
		circuitBreaker: NewAICircuitBreaker(operation, cfg, logger),
		modelBreaker:   NewModelCircuitBreaker(operation, cfg, logger),
		logger:         logger.With("operation", operation),
	}, nil
}

// Generate sends one GenerateContent request. Failures are returned
// immediately, there is no retry.
func (g *GeminiProvider) Generate(ctx context.Context, req GenerationRequest) (*Generation, error) {
	tracer := otel.Tracer("coverletter.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+req.Operation)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
		attribute.Bool("ai.structured", req.Schema != nil),
		attribute.Int("input.prompt_length", len(req.UserPrompt)),
	)

	genaiConfig := g.buildContentConfig(req)

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(req.UserPrompt), genaiConfig)
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, g.classifyError(ctx, err)
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		span.SetAttributes(attribute.Bool("success", false))
		return nil, errors.NewAIError(errors.ErrCodeAINoContent, "no content received from Gemini", nil)
	}

	usage := extractTokenUsage(result)
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.length", len(text)),
	)

	return &Generation{Text: text, Usage: usage}, nil
}

// buildContentConfig maps a request onto the Gemini generation config
func (g *GeminiProvider) buildContentConfig(req GenerationRequest) *genai.GenerateContentConfig {
	genaiConfig := &genai.GenerateContentConfig{}

	if *g.config.Temperature > 0 {
		temperature := *g.config.Temperature
		genaiConfig.Temperature = &temperature
	}

	if *g.config.UseSystemPrompts && req.SystemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	if req.Schema != nil {
		genaiConfig.ResponseMIMEType = "application/json"
		genaiConfig.ResponseSchema = req.Schema
	}

	return genaiConfig
}

// classifyError turns a failed call into an AppError with a specific code
func (g *GeminiProvider) classifyError(ctx context.Context, err error) error {
	switch {
	case isBreakerRejection(err):
		g.logger.Warn("Gemini call rejected by circuit breaker", "error", err.Error())
		return errors.NewAIError(errors.ErrCodeCircuitOpen, "Gemini is temporarily unavailable", err)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.NewAIError(errors.ErrCodeAITimeout, "Gemini request timed out", err)
	case upstreamStatus(err) == http.StatusTooManyRequests:
		g.logger.Warn("Gemini quota exceeded", "model", g.config.Model)
		return errors.NewAIError(errors.ErrCodeAIQuotaExceeded, "Gemini quota exceeded", err)
	default:
		g.logger.LogError(err, "Gemini request failed", "model", g.config.Model)
		return errors.NewAIError(errors.ErrCodeAIServiceFailed, "Gemini request failed", err)
	}
}

// upstreamStatus returns the HTTP status carried by a Google API error, or 0
func upstreamStatus(err error) int {
	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return genaiErr.Code
	}
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, g.config.ModelCheckTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetStats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close implements Generator. The genai client holds no resources for
// unary calls.
func (g *GeminiProvider) Close() error {
	return nil
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
