package letters

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"coverletter/internal/ai"
	"coverletter/internal/errors"
	"coverletter/internal/store"
	"coverletter/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWriter struct {
	result *types.CoverLetterResult
	usage  *ai.TokenUsage
	err    error

	calls    int
	gotReq   types.CoverLetterRequest
	gotScore int
	gotMode  types.GenerationMode
}

func (w *stubWriter) Write(_ context.Context, req types.CoverLetterRequest, score int, mode types.GenerationMode) (*types.CoverLetterResult, *ai.TokenUsage, error) {
	w.calls++
	w.gotReq, w.gotScore, w.gotMode = req, score, mode
	if w.err != nil {
		return nil, nil, w.err
	}
	result := *w.result
	result.Mode = mode
	result.Analysis.FitScore = score
	return &result, w.usage, nil
}

// failingStore fails every operation
type failingStore struct{}

func (failingStore) Load(context.Context) ([]types.SavedLetter, error) {
	return nil, errors.NewStorageError(errors.ErrCodeStorageFailed, "disk unavailable", nil)
}

func (failingStore) Save(context.Context, []types.SavedLetter) error {
	return errors.NewStorageError(errors.ErrCodeStorageFailed, "disk unavailable", nil)
}

var testLogger = errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)

func newTestService(w LetterWriter, st store.Store) *Service {
	svc := NewService(w, st, types.ModeStructured, testLogger)
	ids := 0
	svc.newID = func() string {
		ids++
		return fmt.Sprintf("letter-%d", ids)
	}
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func generateRequest() types.GenerateRequest {
	return types.GenerateRequest{CoverLetterRequest: types.CoverLetterRequest{
		Name:           "  Ada Lovelace ",
		Skills:         "React, TypeScript, Python",
		Experience:     "Five years building web applications",
		Company:        "Analytical Engines",
		Position:       "Frontend Engineer",
		JobDescription: "We need React and TypeScript.",
	}}
}

func defaultWriter() *stubWriter {
	return &stubWriter{
		result: &types.CoverLetterResult{
			CoverLetter: "Dear Hiring Manager,",
			Analysis:    types.Analysis{Strengths: []string{}, Gaps: []string{}, ATSKeywords: []string{}, Suggestions: []string{}},
		},
		usage: &ai.TokenUsage{TotalTokens: 42},
	}
}

func TestGenerate(t *testing.T) {
	w := defaultWriter()
	svc := newTestService(w, store.NewMemoryStore())

	resp, usage, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, w.calls)
	assert.Equal(t, "Ada Lovelace", w.gotReq.Name, "request is normalized before writing")
	assert.Equal(t, types.ToneFormal, w.gotReq.Tone)
	assert.Equal(t, 67, w.gotScore)
	assert.Equal(t, types.ModeStructured, w.gotMode)

	assert.Equal(t, "Dear Hiring Manager,", resp.CoverLetter)
	assert.Equal(t, 67, resp.Analysis.FitScore)
	assert.Nil(t, resp.SavedLetter)
	assert.Equal(t, int64(42), usage.TotalTokens)
}

func TestGenerateModes(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		expected types.GenerationMode
		wantErr  bool
	}{
		{name: "default", mode: "", expected: types.ModeStructured},
		{name: "freeform", mode: "freeform", expected: types.ModeFreeform},
		{name: "case and spaces", mode: " Structured ", expected: types.ModeStructured},
		{name: "unknown", mode: "haiku", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := defaultWriter()
			svc := newTestService(w, store.NewMemoryStore())

			req := generateRequest()
			req.Mode = tt.mode
			_, _, err := svc.Generate(context.Background(), req)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
				assert.Equal(t, 0, w.calls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, w.gotMode)
		})
	}
}

func TestGenerateConfiguredDefaultMode(t *testing.T) {
	w := defaultWriter()
	svc := NewService(w, store.NewMemoryStore(), types.ModeFreeform, testLogger)

	_, _, err := svc.Generate(context.Background(), generateRequest())
	require.NoError(t, err)
	assert.Equal(t, types.ModeFreeform, w.gotMode)
}

func TestGenerateValidation(t *testing.T) {
	w := defaultWriter()
	svc := newTestService(w, store.NewMemoryStore())

	req := generateRequest()
	req.Skills = "   "
	_, _, err := svc.Generate(context.Background(), req)

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Contains(t, err.Error(), "skills is required")
	assert.Equal(t, 0, w.calls)
}

func TestGenerateWithoutWriter(t *testing.T) {
	svc := newTestService(nil, store.NewMemoryStore())

	_, _, err := svc.Generate(context.Background(), generateRequest())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestGenerateWriterFailure(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(&stubWriter{err: fmt.Errorf("failed to generate cover letter: boom")}, st)

	req := generateRequest()
	req.Save = true
	_, _, err := svc.Generate(context.Background(), req)
	require.Error(t, err)

	letters, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, letters, "failed generations are not saved")
}

func TestGenerateAndSave(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(defaultWriter(), st)

	req := generateRequest()
	req.Save = true
	resp, _, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, resp.SavedLetter)

	assert.Equal(t, "letter-1", resp.SavedLetter.ID)
	assert.Equal(t, "Analytical Engines - Frontend Engineer", resp.SavedLetter.Title)
	assert.Equal(t, "Dear Hiring Manager,", resp.SavedLetter.Content)
	assert.Equal(t, 67, resp.SavedLetter.Analysis.FitScore)

	letters, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, *resp.SavedLetter, letters[0])
}

func TestScore(t *testing.T) {
	svc := newTestService(nil, store.NewMemoryStore())

	resp, err := svc.Score(types.FitScoreRequest{
		Skills:         "React, TypeScript, Python",
		JobDescription: "We need React and TypeScript.",
	})
	require.NoError(t, err)
	assert.Equal(t, 67, resp.FitScore)
	assert.Equal(t, []string{"react", "typescript", "python"}, resp.CandidateSkills)
	assert.Equal(t, []string{"react", "typescript"}, resp.MatchedSkills)

}

func TestScoreDegenerateInput(t *testing.T) {
	svc := newTestService(nil, store.NewMemoryStore())

	tests := []struct {
		name string
		req  types.FitScoreRequest
	}{
		{"empty job description", types.FitScoreRequest{Skills: "Go"}},
		{"empty skills", types.FitScoreRequest{JobDescription: "We need Go."}},
		{"both empty", types.FitScoreRequest{}},
		{"only separators", types.FitScoreRequest{Skills: " ; , ", JobDescription: "We need Go."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Score(tt.req)
			require.NoError(t, err)
			assert.Equal(t, 0, resp.FitScore)
			assert.Equal(t, []string{}, resp.MatchedSkills)
		})
	}
}

func TestSaveListGetDelete(t *testing.T) {
	svc := newTestService(nil, store.NewMemoryStore())
	ctx := context.Background()

	first, err := svc.Save(ctx, types.SaveLetterRequest{CoverLetter: "One", Company: "Acme", Position: "Engineer"})
	require.NoError(t, err)
	second, err := svc.Save(ctx, types.SaveLetterRequest{CoverLetter: "Two", Company: " Globex ", Position: "Designer"})
	require.NoError(t, err)

	assert.Equal(t, "Globex - Designer", second.Title)
	assert.Equal(t, []string{}, second.Analysis.Strengths, "analysis lists are never nil")

	letters, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, letters, 2)
	assert.Equal(t, second.ID, letters[0].ID, "newest first")
	assert.Equal(t, first.ID, letters[1].ID)

	got, err := svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "One", got.Content)

	require.NoError(t, svc.Delete(ctx, first.ID))
	letters, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, second.ID, letters[0].ID)

	err = svc.Delete(ctx, first.ID)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	_, err = svc.Get(ctx, "missing")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestSaveValidation(t *testing.T) {
	svc := newTestService(nil, store.NewMemoryStore())

	_, err := svc.Save(context.Background(), types.SaveLetterRequest{CoverLetter: "  ", Company: "Acme", Position: "Engineer"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	assert.Contains(t, err.Error(), "coverLetter is required")
}

func TestStoreFailuresSurface(t *testing.T) {
	svc := newTestService(nil, failingStore{})
	ctx := context.Background()

	_, err := svc.Save(ctx, types.SaveLetterRequest{CoverLetter: "One", Company: "Acme", Position: "Engineer"})
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))

	_, err = svc.List(ctx)
	assert.True(t, errors.IsType(err, errors.ErrorTypeStorage))

	assert.True(t, errors.IsType(svc.Delete(ctx, "x"), errors.ErrorTypeStorage))
}
