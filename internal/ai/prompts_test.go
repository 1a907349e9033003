package ai

import (
	"testing"

	"coverletter/internal/config"
	"coverletter/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest() types.CoverLetterRequest {
	req := types.CoverLetterRequest{
		Name:           "Ada Lovelace",
		Email:          "ada@example.com",
		Skills:         "React, TypeScript, Node.js",
		Experience:     "Five years building web applications",
		Company:        "Analytical Engines",
		Position:       "Frontend Engineer",
		JobDescription: "We need React and TypeScript experience.",
		Tone:           types.ToneEnthusiastic,
		Industry:       types.IndustryTech,
	}
	req.Normalize()
	return req
}

func TestDefaultPromptsRender(t *testing.T) {
	prompts, err := compilePrompts(nil)
	require.NoError(t, err)

	data := NewPromptData(sampleRequest(), 67)

	for _, operation := range []string{config.OperationStructured, config.OperationFreeform, config.OperationSuggest} {
		t.Run(operation, func(t *testing.T) {
			tmpl, ok := prompts[operation]
			require.True(t, ok)

			system, user, err := tmpl.render(data)
			require.NoError(t, err)
			assert.NotEmpty(t, system)
			assert.Contains(t, user, "React, TypeScript, Node.js")
			assert.Contains(t, user, "We need React and TypeScript experience.")
		})
	}

	_, user, err := prompts[config.OperationStructured].render(data)
	require.NoError(t, err)
	assert.Contains(t, user, "Company Website: Not provided")
	assert.Contains(t, user, "Tone: enthusiastic")
	assert.Contains(t, user, "scored 67 out of 100")
	assert.Contains(t, user, `"coverLetter"`)
}

func TestPromptOverrides(t *testing.T) {
	prompts, err := compilePrompts(map[string]config.PromptConfig{
		config.OperationSuggest: {
			System: "Be brief.",
			User:   "One idea for {{.Position}} at {{.Company}}.",
		},
		config.OperationFreeform: {
			System: "   ",
		},
	})
	require.NoError(t, err)

	data := NewPromptData(sampleRequest(), 0)

	system, user, err := prompts[config.OperationSuggest].render(data)
	require.NoError(t, err)
	assert.Equal(t, "Be brief.", system)
	assert.Equal(t, "One idea for Frontend Engineer at Analytical Engines.", user)

	system, _, err = prompts[config.OperationFreeform].render(data)
	require.NoError(t, err)
	assert.Equal(t, coverLetterSystemPrompt, system, "blank override keeps the default")
}

func TestPromptOverrideInvalidTemplate(t *testing.T) {
	tests := []struct {
		name string
		user string
	}{
		{name: "syntax error", user: "Hello {{.Name"},
		{name: "unknown field", user: "Hello {{.Nickname}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compilePrompts(map[string]config.PromptConfig{
				config.OperationStructured: {User: tt.user},
			})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid structured.user prompt template")
		})
	}
}

func TestNewPromptDataKeepsWebsite(t *testing.T) {
	req := sampleRequest()
	req.CompanyWebsite = "https://engines.example"

	data := NewPromptData(req, 12)
	assert.Equal(t, "https://engines.example", data.CompanyWebsite)
	assert.Equal(t, 12, data.FitScore)
	assert.Equal(t, "tech", data.Industry)
}
