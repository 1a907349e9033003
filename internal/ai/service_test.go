package ai

import (
	"testing"
	"time"

	"coverletter/internal/config"
	"coverletter/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(d time.Duration) *time.Duration { return &d }
func float32Ptr(f float32) *float32          { return &f }
func boolPtr(b bool) *bool                   { return &b }

func operationConfig(provider, apiKey string) *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider:         provider,
		Model:            "gemini-2.5-pro",
		APIKey:           apiKey,
		Timeout:          timePtr(30 * time.Second),
		Temperature:      float32Ptr(0.7),
		UseSystemPrompts: boolPtr(true),
	}
}

func TestNewGeneratorUnsupportedProvider(t *testing.T) {
	_, err := NewGenerator(operationConfig("openai", "key"), config.OperationStructured, testLogger)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "Unsupported AI provider: openai")
}

func TestNewGeneratorMissingAPIKey(t *testing.T) {
	_, err := NewGenerator(operationConfig("gemini", ""), config.OperationSuggest, testLogger)
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeMissingAPIKey, appErr.Code)
}

func TestNewWriterFromConfigRequiresAPIKey(t *testing.T) {
	cfg := &config.Config{AI: config.AIConfig{Provider: "gemini"}}

	_, err := NewWriterFromConfig(cfg, testLogger)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestBuildContentConfig(t *testing.T) {
	cfg := operationConfig("gemini", "key")
	provider := &GeminiProvider{config: cfg, logger: testLogger}

	structured := provider.buildContentConfig(GenerationRequest{
		SystemPrompt: "system",
		UserPrompt:   "user",
		Schema:       coverLetterSchema(),
	})
	assert.Equal(t, "application/json", structured.ResponseMIMEType)
	assert.NotNil(t, structured.ResponseSchema)
	require.NotNil(t, structured.SystemInstruction)
	require.NotNil(t, structured.Temperature)
	assert.InDelta(t, 0.7, *structured.Temperature, 0.0001)

	cfg.UseSystemPrompts = boolPtr(false)
	cfg.Temperature = float32Ptr(0)
	plain := provider.buildContentConfig(GenerationRequest{SystemPrompt: "system", UserPrompt: "user"})
	assert.Empty(t, plain.ResponseMIMEType)
	assert.Nil(t, plain.ResponseSchema)
	assert.Nil(t, plain.SystemInstruction)
	assert.Nil(t, plain.Temperature)
}
