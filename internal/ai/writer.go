package ai

import (
	"context"
	"strings"

	"coverletter/internal/config"
	"coverletter/internal/errors"
	"coverletter/internal/types"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

// Writer produces cover letters from one or two model calls
type Writer struct {
	generators          map[string]Generator
	prompts             map[string]promptTemplates
	trustRemoteFitScore bool
	logger              *errors.Logger
}

// WriterOptions tunes how replies are interpreted
type WriterOptions struct {
	// Prompts overrides the built-in prompts per operation
	Prompts map[string]config.PromptConfig
	// TrustRemoteFitScore keeps an in-range model fitScore in structured mode
	TrustRemoteFitScore bool
}

// NewWriter builds a Writer. structured, freeform and suggest serve the
// operations of the same name; suggest may be nil, in which case freeform
// letters carry an empty suggestion.
func NewWriter(structured, freeform, suggest Generator, opts WriterOptions, logger *errors.Logger) (*Writer, error) {
	prompts, err := compilePrompts(opts.Prompts)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to compile prompts", err)
	}

	return &Writer{
		generators: map[string]Generator{
			config.OperationStructured: structured,
			config.OperationFreeform:   freeform,
			config.OperationSuggest:    suggest,
		},
		prompts:             prompts,
		trustRemoteFitScore: opts.TrustRemoteFitScore,
		logger:              logger,
	}, nil
}

// Write generates a letter for a validated, normalized request. localFitScore
// is the keyword score computed for the request.
func (w *Writer) Write(ctx context.Context, req types.CoverLetterRequest, localFitScore int, mode types.GenerationMode) (*types.CoverLetterResult, *TokenUsage, error) {
	data := NewPromptData(req, localFitScore)

	switch mode {
	case types.ModeFreeform:
		return w.writeFreeform(ctx, data)
	case types.ModeStructured, "":
		return w.writeStructured(ctx, data)
	default:
		return nil, nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"unsupported generation mode: "+string(mode), nil)
	}
}

func (w *Writer) writeStructured(ctx context.Context, data PromptData) (*types.CoverLetterResult, *TokenUsage, error) {
	gen, err := w.call(ctx, config.OperationStructured, data, coverLetterSchema())
	if err != nil {
		return nil, nil, wrapGenerationError(err)
	}

	parsed := ParseStructured(gen.Text, data.FitScore, w.trustRemoteFitScore)
	if parsed.CoverLetter == "" {
		w.logger.Warn("Structured reply contained no cover letter", "reply_length", len(gen.Text))
		return nil, nil, wrapGenerationError(
			errors.NewAIError(errors.ErrCodeAINoContent, "no content received from Gemini", nil))
	}
	if parsed.Fallback {
		w.logger.Warn("Structured reply could not be parsed, using fallback analysis",
			"reply_length", len(gen.Text))
	}

	return &types.CoverLetterResult{
		CoverLetter: parsed.CoverLetter,
		Analysis:    parsed.Analysis,
		Mode:        types.ModeStructured,
		Fallback:    parsed.Fallback,
	}, gen.Usage, nil
}

// writeFreeform runs the letter call and the suggestion call concurrently.
// Only the letter call can fail the request.
func (w *Writer) writeFreeform(ctx context.Context, data PromptData) (*types.CoverLetterResult, *TokenUsage, error) {
	var (
		letter     *Generation
		suggestion string
		suggestUse *TokenUsage
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		gen, err := w.call(gctx, config.OperationFreeform, data, nil)
		if err != nil {
			return err
		}
		letter = gen
		return nil
	})

	g.Go(func() error {
		if w.generators[config.OperationSuggest] == nil {
			return nil
		}
		gen, err := w.call(gctx, config.OperationSuggest, data, nil)
		if err != nil {
			w.logger.Warn("Suggestion call failed, continuing without a suggestion", "error", err.Error())
			return nil
		}
		suggestion = strings.TrimSpace(gen.Text)
		suggestUse = gen.Usage
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, wrapGenerationError(err)
	}

	analysis := types.Analysis{
		FitScore:    data.FitScore,
		Suggestions: []string{suggestion},
	}
	analysis.Normalize()

	return &types.CoverLetterResult{
		CoverLetter: strings.TrimSpace(letter.Text),
		Analysis:    analysis,
		Mode:        types.ModeFreeform,
	}, letter.Usage.Add(suggestUse), nil
}

// call renders the prompts for an operation and sends them
func (w *Writer) call(ctx context.Context, operation string, data PromptData, schema *genai.Schema) (*Generation, error) {
	generator := w.generators[operation]
	if generator == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "no generator configured for "+operation, nil)
	}

	system, user, err := w.prompts[operation].render(data)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidConfig, "Failed to render "+operation+" prompt", err)
	}

	return generator.Generate(ctx, GenerationRequest{
		Operation:    operation,
		SystemPrompt: system,
		UserPrompt:   user,
		Schema:       schema,
	})
}

// wrapGenerationError prefixes a surfaced failure, keeping the inner code
func wrapGenerationError(err error) error {
	code := errors.ErrCodeAIServiceFailed
	if appErr, ok := errors.AsAppError(err); ok {
		code = appErr.Code
	}
	return errors.NewAIError(code, "failed to generate cover letter", err)
}

// ModelInfo checks model availability for every configured operation
func (w *Writer) ModelInfo(ctx context.Context) map[string]*ModelInfo {
	info := make(map[string]*ModelInfo, len(w.generators))
	for operation, generator := range w.generators {
		if generator != nil {
			info[operation] = generator.GetModelInfo(ctx)
		}
	}
	return info
}

// CircuitBreakerStats reports breaker state for every operation that has one
func (w *Writer) CircuitBreakerStats() map[string]any {
	stats := make(map[string]any, len(w.generators))
	for operation, generator := range w.generators {
		if reporter, ok := generator.(breakerReporter); ok {
			stats[operation] = reporter.GetCircuitBreakerStats()
		}
	}
	return stats
}

// Close releases every generator
func (w *Writer) Close() error {
	var firstErr error
	for _, generator := range w.generators {
		if generator == nil {
			continue
		}
		if err := generator.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
