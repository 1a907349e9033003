package ai

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"coverletter/internal/config"
	"coverletter/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func TestUpstreamStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "genai error", err: genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"}, want: http.StatusTooManyRequests},
		{name: "wrapped genai error", err: fmt.Errorf("call: %w", genai.APIError{Code: http.StatusInternalServerError}), want: http.StatusInternalServerError},
		{name: "googleapi error", err: &googleapi.Error{Code: http.StatusServiceUnavailable}, want: http.StatusServiceUnavailable},
		{name: "plain error", err: fmt.Errorf("connection reset"), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, upstreamStatus(tt.err))
		})
	}
}

func TestClassifyError(t *testing.T) {
	g := &GeminiProvider{config: &config.OperationAIConfig{Model: "gemini-2.5-flash"}, logger: testLogger}

	tests := []struct {
		name     string
		ctx      context.Context
		err      error
		wantCode string
	}{
		{name: "quota", ctx: context.Background(), err: genai.APIError{Code: http.StatusTooManyRequests}, wantCode: errors.ErrCodeAIQuotaExceeded},
		{name: "deadline", ctx: context.Background(), err: context.DeadlineExceeded, wantCode: errors.ErrCodeAITimeout},
		{name: "server error", ctx: context.Background(), err: genai.APIError{Code: http.StatusInternalServerError}, wantCode: errors.ErrCodeAIServiceFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.classifyError(tt.ctx, tt.err)
			appErr, ok := errors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrorTypeAI, appErr.Type)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, tt.err, appErr.Cause)
		})
	}
}
