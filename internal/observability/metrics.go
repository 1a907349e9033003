package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Business metric types accepted by RecordBusinessMetric
const (
	MetricLetterGenerated  = "letter_generated"
	MetricFallbackAnalysis = "fallback_analysis"
	MetricLetterSaved      = "letter_saved"
	MetricLetterDeleted    = "letter_deleted"
	MetricRateLimitHit     = "rate_limit_hit"
	MetricCertReload       = "cert_reload"
)

// Metrics holds all custom metrics for the cover letter service
type Metrics struct {
	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Counter

	// Letter metrics
	LettersGenerated metric.Int64Counter
	FallbackAnalyses metric.Int64Counter
	FitScore         metric.Int64Histogram
	SavedLetterOps   metric.Int64Counter

	// Infrastructure metrics
	CertReloadCount metric.Int64Counter
	RateLimitHits   metric.Int64Counter
}

// AIOperationResult holds the result of an AI operation including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.AIProcessingTime, err = meter.Float64Histogram(
		"coverletter_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	if m.AIRequestCount, err = meter.Int64Counter(
		"coverletter_ai_requests_total",
		metric.WithDescription("Total number of AI requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	if m.AIErrorCount, err = meter.Int64Counter(
		"coverletter_ai_errors_total",
		metric.WithDescription("Total number of AI request errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	if m.AITokenUsage, err = meter.Int64Counter(
		"coverletter_ai_tokens_total",
		metric.WithDescription("Tokens consumed by AI requests"),
		metric.WithUnit("{token}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	if m.LettersGenerated, err = meter.Int64Counter(
		"coverletter_letters_generated_total",
		metric.WithDescription("Cover letters generated, by mode and outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create letters generated metric: %w", err)
	}

	if m.FallbackAnalyses, err = meter.Int64Counter(
		"coverletter_fallback_analyses_total",
		metric.WithDescription("Structured replies that fell back to the default analysis"),
	); err != nil {
		return nil, fmt.Errorf("failed to create fallback analyses metric: %w", err)
	}

	if m.FitScore, err = meter.Int64Histogram(
		"coverletter_fit_score",
		metric.WithDescription("Local fit score of scored requests"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	); err != nil {
		return nil, fmt.Errorf("failed to create fit score metric: %w", err)
	}

	if m.SavedLetterOps, err = meter.Int64Counter(
		"coverletter_saved_letter_operations_total",
		metric.WithDescription("Saved-letter save and delete operations"),
	); err != nil {
		return nil, fmt.Errorf("failed to create saved letter operations metric: %w", err)
	}

	if m.CertReloadCount, err = meter.Int64Counter(
		"coverletter_cert_reloads_total",
		metric.WithDescription("Total number of certificate reloads"),
	); err != nil {
		return nil, fmt.Errorf("failed to create certificate reload count metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"coverletter_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return m, nil
}

// TrackAIOperationWithTokens instruments an AI operation with tracing, metrics, and token usage
func (m *Metrics) TrackAIOperationWithTokens(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult, om *ObservabilityManager) error {
	if m.AIProcessingTime == nil {
		// Metrics not initialized, just run the function
		if result := fn(ctx); result != nil {
			return result.Error
		}
		return nil
	}

	ctx, span := otel.Tracer("coverletter.ai").Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	custom := om.customMetrics()
	if custom == nil || custom.AIOperations.Enabled {
		attrs := []attribute.KeyValue{
			attribute.String("operation", operation),
			attribute.Bool("success", err == nil),
		}

		if custom == nil || custom.AIOperations.TrackDuration {
			m.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
		}
		m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		if err != nil {
			m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
		if result != nil && result.TokenUsage != nil {
			m.recordTokenUsage(ctx, result.TokenUsage, attrs, custom == nil || custom.AIOperations.TrackTokenUsage, span)
		}

		span.SetAttributes(attrs...)
	}

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}

	return err
}

// recordTokenUsage records token counters and always annotates the span
func (m *Metrics) recordTokenUsage(ctx context.Context, usage *TokenUsage, attrs []attribute.KeyValue, record bool, span oteltrace.Span) {
	if record && m.AITokenUsage != nil {
		for _, tt := range []struct {
			tokenType string
			value     int64
		}{
			{"input", usage.InputTokens},
			{"output", usage.OutputTokens},
			{"total", usage.TotalTokens},
		} {
			tokenAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
			tokenAttrs = append(tokenAttrs, attrs...)
			tokenAttrs = append(tokenAttrs, attribute.String("token_type", tt.tokenType))
			m.AITokenUsage.Add(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
		}
	}

	span.SetAttributes(
		attribute.Int64("ai.tokens.input", usage.InputTokens),
		attribute.Int64("ai.tokens.output", usage.OutputTokens),
		attribute.Int64("ai.tokens.total", usage.TotalTokens),
	)
}

// RecordFitScore records a locally computed fit score
func (m *Metrics) RecordFitScore(ctx context.Context, score int, om *ObservabilityManager, attributes ...attribute.KeyValue) {
	if !businessMetricsEnabled(om) || m.FitScore == nil {
		return
	}
	m.FitScore.Record(ctx, int64(score), metric.WithAttributes(attributes...))
}

// RecordBusinessMetric records business-specific metrics
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, om *ObservabilityManager, attributes ...attribute.KeyValue) {
	if !businessMetricsEnabled(om) {
		return
	}

	attrs := append([]attribute.KeyValue{
		attribute.Bool("success", success),
	}, attributes...)

	switch metricType {
	case MetricLetterGenerated:
		add(ctx, m.LettersGenerated, attrs)
	case MetricFallbackAnalysis:
		add(ctx, m.FallbackAnalyses, attrs)
	case MetricLetterSaved:
		add(ctx, m.SavedLetterOps, append(attrs, attribute.String("operation", "save")))
	case MetricLetterDeleted:
		add(ctx, m.SavedLetterOps, append(attrs, attribute.String("operation", "delete")))
	case MetricCertReload:
		add(ctx, m.CertReloadCount, attrs)
	case MetricRateLimitHit:
		if custom := om.customMetrics(); custom != nil && !custom.BusinessMetrics.TrackRateLimits {
			return
		}
		add(ctx, m.RateLimitHits, attrs)
	}
}

func businessMetricsEnabled(om *ObservabilityManager) bool {
	custom := om.customMetrics()
	return custom == nil || custom.BusinessMetrics.Enabled
}

func add(ctx context.Context, counter metric.Int64Counter, attrs []attribute.KeyValue) {
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
