package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() CoverLetterRequest {
	return CoverLetterRequest{
		Name:           "Jane Smith",
		Email:          "jane@example.com",
		Skills:         "Go, Kubernetes",
		Experience:     "Five years building backend services",
		Company:        "Acme",
		Position:       "Backend Engineer",
		JobDescription: "We need a Go engineer with Kubernetes experience",
	}
}

func TestCoverLetterRequestNormalizeDefaults(t *testing.T) {
	req := validRequest()
	req.Name = "  Jane Smith  "
	req.Tone = " Enthusiastic "

	req.Normalize()

	assert.Equal(t, "Jane Smith", req.Name)
	assert.Equal(t, ToneEnthusiastic, req.Tone)
	assert.Equal(t, IndustryGeneral, req.Industry)
}

func TestCoverLetterRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CoverLetterRequest)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*CoverLetterRequest) {},
		},
		{
			name:    "missing skills",
			mutate:  func(r *CoverLetterRequest) { r.Skills = "" },
			wantErr: "skills is required",
		},
		{
			name:    "missing job description",
			mutate:  func(r *CoverLetterRequest) { r.JobDescription = "" },
			wantErr: "jobDescription is required",
		},
		{
			name:    "bad email",
			mutate:  func(r *CoverLetterRequest) { r.Email = "not-an-email" },
			wantErr: "email must be a valid email address",
		},
		{
			name:   "email optional",
			mutate: func(r *CoverLetterRequest) { r.Email = "" },
		},
		{
			name:    "bad website",
			mutate:  func(r *CoverLetterRequest) { r.CompanyWebsite = "acme" },
			wantErr: "companyWebsite must be a valid URL",
		},
		{
			name:    "unknown tone",
			mutate:  func(r *CoverLetterRequest) { r.Tone = "sarcastic" },
			wantErr: "tone must be one of: formal, enthusiastic, concise, storytelling",
		},
		{
			name:    "unknown industry",
			mutate:  func(r *CoverLetterRequest) { r.Industry = "mining" },
			wantErr: "industry must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsEveryMissingField(t *testing.T) {
	var req CoverLetterRequest
	err := req.Validate()
	require.Error(t, err)

	for _, field := range []string{"name", "skills", "experience", "company", "position", "jobDescription"} {
		assert.Contains(t, err.Error(), field+" is required")
	}
}

func TestAnalysisNormalize(t *testing.T) {
	a := Analysis{FitScore: 140, RelevanceScore: -5}
	a.Normalize()

	assert.Equal(t, 100, a.FitScore)
	assert.Equal(t, 0, a.RelevanceScore)
	assert.NotNil(t, a.Strengths)
	assert.NotNil(t, a.Gaps)
	assert.NotNil(t, a.ATSKeywords)
	assert.NotNil(t, a.Suggestions)

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"strengths":[]`)
}

func TestParseGenerationMode(t *testing.T) {
	mode, ok := ParseGenerationMode("structured")
	assert.True(t, ok)
	assert.Equal(t, ModeStructured, mode)

	mode, ok = ParseGenerationMode("freeform")
	assert.True(t, ok)
	assert.Equal(t, ModeFreeform, mode)

	_, ok = ParseGenerationMode("json")
	assert.False(t, ok)
}

func TestGenerateRequestFlattensProfile(t *testing.T) {
	body := `{"name":"Jane","skills":"Go","experience":"x","company":"Acme","position":"Dev","jobDescription":"Go dev","mode":"freeform","save":true}`

	var req GenerateRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	assert.Equal(t, "Jane", req.Name)
	assert.Equal(t, "freeform", req.Mode)
	assert.True(t, req.Save)
}
