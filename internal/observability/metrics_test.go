package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"coverletter/internal/config"
	"coverletter/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

var testLogger = errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := newMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

// sumOf returns the total of an int64 sum metric across all data points
func sumOf(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func managerWith(custom config.CustomMetricsConfig) *ObservabilityManager {
	cfg := &config.Config{}
	cfg.Observability.CustomMetrics = custom
	return &ObservabilityManager{fullConfig: cfg}
}

func TestTrackAIOperationWithTokens(t *testing.T) {
	m, reader := newTestMetrics(t)

	err := m.TrackAIOperationWithTokens(context.Background(), "generate", func(context.Context) *AIOperationResult {
		return &AIOperationResult{TokenUsage: &TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}
	}, nil)
	require.NoError(t, err)

	failure := fmt.Errorf("quota exceeded")
	err = m.TrackAIOperationWithTokens(context.Background(), "generate", func(context.Context) *AIOperationResult {
		return &AIOperationResult{Error: failure}
	}, nil)
	assert.ErrorIs(t, err, failure)

	assert.Equal(t, int64(2), sumOf(t, reader, "coverletter_ai_requests_total"))
	assert.Equal(t, int64(1), sumOf(t, reader, "coverletter_ai_errors_total"))
	assert.Equal(t, int64(30), sumOf(t, reader, "coverletter_ai_tokens_total"))
}

func TestTrackAIOperationDisabledTokenTracking(t *testing.T) {
	m, reader := newTestMetrics(t)
	om := managerWith(config.CustomMetricsConfig{
		AIOperations: config.AIOperationsMetricsConfig{Enabled: true},
	})

	err := m.TrackAIOperationWithTokens(context.Background(), "generate", func(context.Context) *AIOperationResult {
		return &AIOperationResult{TokenUsage: &TokenUsage{TotalTokens: 15}}
	}, om)
	require.NoError(t, err)

	assert.Equal(t, int64(1), sumOf(t, reader, "coverletter_ai_requests_total"))
	assert.Equal(t, int64(0), sumOf(t, reader, "coverletter_ai_tokens_total"))
}

func TestTrackAIOperationWithoutMetrics(t *testing.T) {
	m := &Metrics{}
	called := false

	err := m.TrackAIOperationWithTokens(context.Background(), "generate", func(context.Context) *AIOperationResult {
		called = true
		return nil
	}, nil)
	require.NoError(t, err)
	assert.True(t, called)

	// Recording on empty metrics is a no-op
	m.RecordBusinessMetric(context.Background(), MetricLetterGenerated, true, nil)
	m.RecordFitScore(context.Background(), 50, nil)
}

func TestRecordBusinessMetric(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordBusinessMetric(ctx, MetricLetterGenerated, true, nil, attribute.String("mode", "structured"))
	m.RecordBusinessMetric(ctx, MetricLetterGenerated, false, nil)
	m.RecordBusinessMetric(ctx, MetricFallbackAnalysis, true, nil)
	m.RecordBusinessMetric(ctx, MetricLetterSaved, true, nil)
	m.RecordBusinessMetric(ctx, MetricLetterDeleted, true, nil)
	m.RecordBusinessMetric(ctx, MetricRateLimitHit, false, nil)
	m.RecordBusinessMetric(ctx, "unknown", true, nil)

	assert.Equal(t, int64(2), sumOf(t, reader, "coverletter_letters_generated_total"))
	assert.Equal(t, int64(1), sumOf(t, reader, "coverletter_fallback_analyses_total"))
	assert.Equal(t, int64(2), sumOf(t, reader, "coverletter_saved_letter_operations_total"))
	assert.Equal(t, int64(1), sumOf(t, reader, "coverletter_rate_limit_hits_total"))
}

func TestRecordBusinessMetricToggles(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	noRateLimits := managerWith(config.CustomMetricsConfig{
		BusinessMetrics: config.BusinessMetricsConfig{Enabled: true, TrackRateLimits: false},
	})
	m.RecordBusinessMetric(ctx, MetricRateLimitHit, false, noRateLimits)
	m.RecordBusinessMetric(ctx, MetricLetterSaved, true, noRateLimits)

	disabled := managerWith(config.CustomMetricsConfig{})
	m.RecordBusinessMetric(ctx, MetricLetterSaved, true, disabled)

	assert.Equal(t, int64(0), sumOf(t, reader, "coverletter_rate_limit_hits_total"))
	assert.Equal(t, int64(1), sumOf(t, reader, "coverletter_saved_letter_operations_total"))
}

func TestDisabledManager(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{Enabled: false}, nil, testLogger)
	require.NoError(t, err)

	assert.NotNil(t, om.GetMetrics())
	endpoint, handler := om.PrometheusHandler()
	assert.Empty(t, endpoint)
	assert.Nil(t, handler)

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	om.HTTPMiddleware()(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	assert.NoError(t, om.Shutdown(context.Background()))
}

func TestSetupPrometheusExporter(t *testing.T) {
	reader, handler, err := SetupPrometheusExporter(PrometheusConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, reader)
	assert.Nil(t, handler)

	reader, handler, err = SetupPrometheusExporter(PrometheusConfig{Enabled: true, Endpoint: "/metrics"})
	require.NoError(t, err)
	require.NotNil(t, reader)
	require.NotNil(t, handler)

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()
	m, err := newMetrics(mp.Meter("test"))
	require.NoError(t, err)
	m.RecordBusinessMetric(context.Background(), MetricLetterSaved, true, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "coverletter_saved_letter_operations_total")
}

func TestGetObservabilityConfig(t *testing.T) {
	fallback := GetObservabilityConfig(nil, "1.2.3")
	assert.Equal(t, "coverletter", fallback.ServiceName)
	assert.Equal(t, "1.2.3", fallback.ServiceVersion)

	cfg := &config.Config{}
	cfg.Observability.ServiceName = "letters"
	cfg.Observability.ServiceInstance = "letters-host"
	cfg.Observability.Prometheus.Enabled = true
	cfg.Observability.Prometheus.Endpoint = "/metrics"

	obs := GetObservabilityConfig(cfg, "2.0.0")
	assert.Equal(t, "2.0.0", obs.ServiceVersion, "app version fills an empty service version")
	assert.Equal(t, "letters-host", obs.ServiceInstance)
	assert.True(t, obs.Prometheus.Enabled)
}
