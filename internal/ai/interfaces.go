package ai

import (
	"context"

	"google.golang.org/genai"
)

// Generator sends one prompt to a model and returns its reply
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (*Generation, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// GenerationRequest is a single rendered prompt
type GenerationRequest struct {
	Operation    string
	SystemPrompt string
	UserPrompt   string
	// Schema requests a JSON reply matching it; nil asks for plain text
	Schema *genai.Schema
}

// Generation is the raw reply text and the tokens it cost
type Generation struct {
	Text  string
	Usage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// Add returns the sum of two usages; either may be nil
func (u *TokenUsage) Add(other *TokenUsage) *TokenUsage {
	if u == nil {
		return other
	}
	if other == nil {
		return u
	}
	return &TokenUsage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
		TotalTokens:  u.TotalTokens + other.TotalTokens,
	}
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// breakerReporter is implemented by generators guarded by circuit breakers
type breakerReporter interface {
	GetCircuitBreakerStats() map[string]any
}
