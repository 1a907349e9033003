package server

import (
	"context"
	"net/http"

	"coverletter/internal/errors"
	"coverletter/internal/observability"
	"coverletter/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// createGenerateHandler wraps the generate handler with observability
func (s *Server) createGenerateHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("coverletter.api").Start(r.Context(), "api.generate")
		defer span.End()

		var req types.GenerateRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeRequestError(w, err)
			return
		}

		span.SetAttributes(
			attribute.String("request.company", req.Company),
			attribute.String("request.mode", req.Mode),
			attribute.Bool("request.save", req.Save),
			attribute.Int("request.job_length", len(req.JobDescription)),
		)

		metrics := om.GetMetrics()
		var resp *types.GenerateResponse

		err := metrics.TrackAIOperationWithTokens(ctx, "generate", func(ctx context.Context) *observability.AIOperationResult {
			result, usage, opErr := s.Letters.Generate(ctx, req)
			resp = result
			return &observability.AIOperationResult{
				Error:      opErr,
				TokenUsage: (*observability.TokenUsage)(usage),
			}
		}, om)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.RecordBusinessMetric(ctx, observability.MetricLetterGenerated, false, om,
				attribute.String("mode", req.Mode))
			s.writeServiceError(w, err, "Cover letter generation failed")
			return
		}

		mode := string(resp.Mode)
		metrics.RecordBusinessMetric(ctx, observability.MetricLetterGenerated, true, om,
			attribute.String("mode", mode),
			attribute.Bool("fallback", resp.Fallback))
		metrics.RecordFitScore(ctx, resp.Analysis.FitScore, om, attribute.String("source", "generate"))
		if resp.Fallback {
			metrics.RecordBusinessMetric(ctx, observability.MetricFallbackAnalysis, true, om)
		}
		if resp.SavedLetter != nil {
			metrics.RecordBusinessMetric(ctx, observability.MetricLetterSaved, true, om)
		}

		span.SetAttributes(
			attribute.String("response.mode", mode),
			attribute.Bool("response.fallback", resp.Fallback),
			attribute.Int("response.fit_score", resp.Analysis.FitScore),
		)

		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) createFitScoreHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("coverletter.api").Start(r.Context(), "api.fit_score")
		defer span.End()

		var req types.FitScoreRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeRequestError(w, err)
			return
		}

		resp, err := s.Letters.Score(req)
		if err != nil {
			span.RecordError(err)
			s.writeServiceError(w, err, "Fit score failed")
			return
		}

		om.GetMetrics().RecordFitScore(ctx, resp.FitScore, om, attribute.String("source", "fit_score"))
		span.SetAttributes(attribute.Int("response.fit_score", resp.FitScore))

		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) listLettersHandler(w http.ResponseWriter, r *http.Request) {
	letters, err := s.Letters.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "Failed to list saved letters")
		return
	}
	writeJSON(w, http.StatusOK, letters)
}

func (s *Server) getLetterHandler(w http.ResponseWriter, r *http.Request) {
	letter, err := s.Letters.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err, "Failed to load saved letter")
		return
	}
	writeJSON(w, http.StatusOK, letter)
}

func (s *Server) createSaveLetterHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SaveLetterRequest
		if err := parseJSONRequest(r, &req); err != nil {
			writeRequestError(w, err)
			return
		}

		letter, err := s.Letters.Save(r.Context(), req)
		om.GetMetrics().RecordBusinessMetric(r.Context(), observability.MetricLetterSaved, err == nil, om)
		if err != nil {
			s.writeServiceError(w, err, "Failed to save letter")
			return
		}
		writeJSON(w, http.StatusCreated, letter)
	}
}

func (s *Server) createDeleteLetterHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.Letters.Delete(r.Context(), r.PathValue("id"))
		om.GetMetrics().RecordBusinessMetric(r.Context(), observability.MetricLetterDeleted, err == nil, om)
		if err != nil {
			s.writeServiceError(w, err, "Failed to delete letter")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeServiceError logs unexpected failures and writes the mapped response
func (s *Server) writeServiceError(w http.ResponseWriter, err error, logMessage string) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, logMessage, "status", status)
	} else {
		s.Logger.Debug(logMessage, "status", status, "error", err.Error())
	}
	writeErrorResponse(w, errorCode(err), err.Error(), status)
}

// statusForError maps an application error to an HTTP status
func statusForError(err error) int {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusInternalServerError
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeConfig:
		if appErr.Code == errors.ErrCodeMissingAPIKey {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	case errors.ErrorTypeAI, errors.ErrorTypeNetwork:
		switch appErr.Code {
		case errors.ErrCodeCircuitOpen, errors.ErrCodeAIQuotaExceeded:
			return http.StatusServiceUnavailable
		case errors.ErrCodeAITimeout, errors.ErrCodeNetworkTimeout:
			return http.StatusGatewayTimeout
		default:
			return http.StatusBadGateway
		}
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	if appErr, ok := errors.AsAppError(err); ok && appErr.Code != "" {
		return appErr.Code
	}
	return errors.ErrCodeInternal
}
