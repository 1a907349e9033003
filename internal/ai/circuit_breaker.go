package ai

import (
	"fmt"

	"coverletter/internal/config"
	"coverletter/internal/errors"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"
)

// Breaker guards calls returning T with a circuit breaker. A nil Breaker
// runs calls directly.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// NewBreaker builds a breaker from config, or returns nil when it is disabled.
// readyToTrip overrides the ratio rule from cfg when non-nil.
func NewBreaker[T any](name string, cfg config.CircuitBreakerConfig, readyToTrip func(gobreaker.Counts) bool, logger *errors.Logger) *Breaker[T] {
	if !cfg.Enabled {
		return nil
	}

	if readyToTrip == nil {
		readyToTrip = func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && failureRatio >= cfg.FailureThreshold
		}
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: readyToTrip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// NewAICircuitBreaker creates the breaker guarding content generation for an operation
func NewAICircuitBreaker(operation string, cfg *config.OperationAIConfig, logger *errors.Logger) *Breaker[*genai.GenerateContentResponse] {
	return NewBreaker[*genai.GenerateContentResponse](fmt.Sprintf("AI-%s", operation), cfg.CircuitBreaker, nil, logger)
}

// NewModelCircuitBreaker creates the breaker guarding model lookups. Model
// info is only used by health checks, so it trips more reluctantly.
func NewModelCircuitBreaker(operation string, cfg *config.OperationAIConfig, logger *errors.Logger) *Breaker[*genai.Model] {
	lenient := func(counts gobreaker.Counts) bool {
		if counts.Requests == 0 {
			return false
		}
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 5 && failureRatio >= 0.8
	}
	return NewBreaker[*genai.Model](fmt.Sprintf("AI-Model-%s", operation), cfg.CircuitBreaker, lenient, logger)
}

// Execute runs fn under the breaker
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// GetStats returns circuit breaker statistics
func (b *Breaker[T]) GetStats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}

	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy reports whether the breaker is closed
func (b *Breaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}

// isBreakerRejection reports whether err came from an open or saturated breaker
func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
