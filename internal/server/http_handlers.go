package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"coverletter/internal/errors"
)

// errRequestTooLarge marks bodies rejected by the size limit
var errRequestTooLarge = stderrors.New("request body too large")

// getHealthCheckTimeout returns the configured model probe timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	if s.AppConfig != nil && s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout > 0 {
		return s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout
	}
	return 10 * time.Second
}

// healthHandler reports model availability, breaker state and certificate status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "coverletter",
		"version": s.Version,
	}

	healthy := true
	if s.Health == nil {
		response["ai_models"] = map[string]any{
			"available": false,
			"error":     "no AI provider configured",
		}
		healthy = false
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), s.getHealthCheckTimeout())
		defer cancel()

		models := s.Health.ModelInfo(ctx)
		for _, info := range models {
			if info != nil && !info.Available {
				healthy = false
			}
		}
		response["ai_models"] = models
		response["circuit_breakers"] = s.Health.CircuitBreakerStats()
	}

	if s.certs != nil {
		response["certificates"] = s.certs.Status()
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "coverletter",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"auth_enabled":           len(s.APIKeys) > 0,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses a JSON request body into v
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat, "content-type must be application/json", nil)
	}

	defer func() { _ = r.Body.Close() }()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("%w (limit is %d bytes)", errRequestTooLarge, maxBytesErr.Limit)
		}
		return errors.NewIOError(errors.ErrCodeInvalidRequest, "failed to read request body", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat, "failed to parse JSON", err)
	}

	return nil
}

// writeRequestError writes the response for a body that could not be parsed
func writeRequestError(w http.ResponseWriter, err error) {
	if stderrors.Is(err, errRequestTooLarge) {
		writeErrorResponse(w, errors.ErrCodeRequestTooLarge, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	writeErrorResponse(w, errorCode(err), err.Error(), http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // headers are already sent
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, code, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   code,
		Message: message,
	})
}
