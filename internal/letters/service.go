// Package letters ties scoring, generation and the saved-letters list into
// the operations exposed by the CLI and the HTTP server.
package letters

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"coverletter/internal/ai"
	"coverletter/internal/errors"
	"coverletter/internal/skills"
	"coverletter/internal/store"
	"coverletter/internal/types"

	"github.com/google/uuid"
)

// LetterWriter generates a letter for a validated request
type LetterWriter interface {
	Write(ctx context.Context, req types.CoverLetterRequest, localFitScore int, mode types.GenerationMode) (*types.CoverLetterResult, *ai.TokenUsage, error)
}

// Service implements generate, score and the saved-letter operations
type Service struct {
	writer      LetterWriter
	store       store.Store
	defaultMode types.GenerationMode
	logger      *errors.Logger

	// mu serializes read-modify-write cycles on the store
	mu sync.Mutex

	now   func() time.Time
	newID func() string
}

// NewService creates a Service. writer may be nil for callers that only
// score or manage saved letters; Generate then fails with a config error.
func NewService(writer LetterWriter, st store.Store, defaultMode types.GenerationMode, logger *errors.Logger) *Service {
	if defaultMode == "" {
		defaultMode = types.ModeStructured
	}
	return &Service{
		writer:      writer,
		store:       st,
		defaultMode: defaultMode,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// Generate validates the request, scores it locally and asks the writer for a
// letter. With req.Save the letter is also prepended to the saved list.
func (s *Service) Generate(ctx context.Context, req types.GenerateRequest) (*types.GenerateResponse, *ai.TokenUsage, error) {
	req.Normalize()
	if err := req.CoverLetterRequest.Validate(); err != nil {
		return nil, nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), nil)
	}

	mode, err := s.resolveMode(req.Mode)
	if err != nil {
		return nil, nil, err
	}

	if s.writer == nil {
		return nil, nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, "cover letter generation is not configured", nil)
	}

	fitScore := skills.FitScore(req.Skills, req.JobDescription)
	s.logger.Debug("Generating cover letter",
		"company", req.Company,
		"position", req.Position,
		"mode", mode,
		"fit_score", fitScore)

	result, usage, err := s.writer.Write(ctx, req.CoverLetterRequest, fitScore, mode)
	if err != nil {
		return nil, usage, err
	}

	resp := &types.GenerateResponse{CoverLetterResult: *result}
	if req.Save {
		saved, err := s.Save(ctx, types.SaveLetterRequest{
			CoverLetter: result.CoverLetter,
			Company:     req.Company,
			Position:    req.Position,
			Analysis:    result.Analysis,
		})
		if err != nil {
			return nil, usage, err
		}
		resp.SavedLetter = saved
	}

	return resp, usage, nil
}

func (s *Service) resolveMode(value string) (types.GenerationMode, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return s.defaultMode, nil
	}
	mode, ok := types.ParseGenerationMode(value)
	if !ok {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("mode must be one of: %s, %s", types.ModeStructured, types.ModeFreeform), nil)
	}
	return mode, nil
}

// Score computes the local fit score without calling the model. Empty
// skills or an empty job description score 0.
func (s *Service) Score(req types.FitScoreRequest) (*types.FitScoreResponse, error) {
	match := skills.Match(req.Skills, req.JobDescription)
	return &types.FitScoreResponse{
		FitScore:        match.Score,
		CandidateSkills: match.Candidate,
		MatchedSkills:   match.Matched,
	}, nil
}

// Save stores a letter at the front of the list
func (s *Service) Save(ctx context.Context, req types.SaveLetterRequest) (*types.SavedLetter, error) {
	req.CoverLetter = strings.TrimSpace(req.CoverLetter)
	req.Company = strings.TrimSpace(req.Company)
	req.Position = strings.TrimSpace(req.Position)
	if err := req.Validate(); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), nil)
	}
	req.Analysis.Normalize()

	letter := types.SavedLetter{
		ID:        s.newID(),
		Title:     types.LetterTitle(req.Company, req.Position),
		Content:   req.CoverLetter,
		Company:   req.Company,
		Position:  req.Position,
		CreatedAt: s.now(),
		Analysis:  req.Analysis,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	updated := make([]types.SavedLetter, 0, len(existing)+1)
	updated = append(updated, letter)
	updated = append(updated, existing...)

	if err := s.store.Save(ctx, updated); err != nil {
		return nil, err
	}

	s.logger.Info("Saved cover letter", "id", letter.ID, "title", letter.Title, "total", len(updated))
	return &letter, nil
}

// List returns the saved letters, newest first
func (s *Service) List(ctx context.Context) ([]types.SavedLetter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Load(ctx)
}

// Get returns one saved letter
func (s *Service) Get(ctx context.Context, id string) (*types.SavedLetter, error) {
	letters, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range letters {
		if letters[i].ID == id {
			return &letters[i], nil
		}
	}
	return nil, notFound(id)
}

// Delete removes a saved letter by id
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	letters, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	kept := make([]types.SavedLetter, 0, len(letters))
	for _, letter := range letters {
		if letter.ID != id {
			kept = append(kept, letter)
		}
	}
	if len(kept) == len(letters) {
		return notFound(id)
	}

	if err := s.store.Save(ctx, kept); err != nil {
		return err
	}
	s.logger.Info("Deleted cover letter", "id", id, "remaining", len(kept))
	return nil
}

func notFound(id string) error {
	return errors.NewNotFoundError(errors.ErrCodeLetterNotFound,
		fmt.Sprintf("saved letter not found: %s", id)).WithContext("id", id)
}
