package ai

import (
	"fmt"

	"coverletter/internal/config"
	"coverletter/internal/errors"
)

// NewGenerator creates the provider configured for one operation
func NewGenerator(cfg *config.OperationAIConfig, operation string, logger *errors.Logger) (Generator, error) {
	logger.Debug("Initializing AI generator",
		"provider", cfg.Provider,
		"operation", operation,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"use_system_prompts", *cfg.UseSystemPrompts,
		"circuit_breaker", cfg.CircuitBreaker.Enabled)

	switch cfg.Provider {
	case "gemini":
		provider, err := NewGeminiProvider(cfg, operation, logger)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}

// NewWriterFromConfig builds the generators for every operation and a Writer
// over them
func NewWriterFromConfig(cfg *config.Config, logger *errors.Logger) (*Writer, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, err.Error(), nil)
	}

	structuredCfg := cfg.GetStructuredConfig()
	freeformCfg := cfg.GetFreeformConfig()
	suggestCfg := cfg.GetSuggestConfig()

	structured, err := NewGenerator(&structuredCfg, config.OperationStructured, logger)
	if err != nil {
		return nil, err
	}
	freeform, err := NewGenerator(&freeformCfg, config.OperationFreeform, logger)
	if err != nil {
		return nil, err
	}
	suggest, err := NewGenerator(&suggestCfg, config.OperationSuggest, logger)
	if err != nil {
		return nil, err
	}

	return NewWriter(structured, freeform, suggest, WriterOptions{
		Prompts: map[string]config.PromptConfig{
			config.OperationStructured: structuredCfg.Prompts,
			config.OperationFreeform:   freeformCfg.Prompts,
			config.OperationSuggest:    suggestCfg.Prompts,
		},
		TrustRemoteFitScore: cfg.AI.TrustRemoteFitScore,
	}, logger)
}
