package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReply = `{
  "coverLetter": "Dear Hiring Manager,\n\nI am excited to apply.",
  "analysis": {
    "fitScore": 88,
    "relevanceScore": 91.4,
    "strengths": ["React expertise"],
    "gaps": [],
    "atsKeywords": ["react", "typescript"],
    "suggestions": ["Mention the design system work"]
  }
}`

func TestParseStructuredValidReply(t *testing.T) {
	parsed := ParseStructured(validReply, 67, false)

	require.False(t, parsed.Fallback)
	assert.Equal(t, "Dear Hiring Manager,\n\nI am excited to apply.", parsed.CoverLetter)
	assert.Equal(t, 67, parsed.Analysis.FitScore, "local score replaces the remote one by default")
	assert.Equal(t, 91, parsed.Analysis.RelevanceScore)
	assert.Equal(t, []string{"React expertise"}, parsed.Analysis.Strengths)
	assert.Equal(t, []string{}, parsed.Analysis.Gaps)
	assert.Equal(t, []string{"react", "typescript"}, parsed.Analysis.ATSKeywords)
}

func TestParseStructuredTrustRemoteFitScore(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		expected int
	}{
		{
			name:     "in range remote score kept",
			reply:    `{"coverLetter": "Hi", "analysis": {"fitScore": 88}}`,
			expected: 88,
		},
		{
			name:     "out of range remote score replaced",
			reply:    `{"coverLetter": "Hi", "analysis": {"fitScore": 140}}`,
			expected: 40,
		},
		{
			name:     "negative remote score replaced",
			reply:    `{"coverLetter": "Hi", "analysis": {"fitScore": -3}}`,
			expected: 40,
		},
		{
			name:     "absent remote score replaced",
			reply:    `{"coverLetter": "Hi", "analysis": {"strengths": ["x"]}}`,
			expected: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := ParseStructured(tt.reply, 40, true)
			require.False(t, parsed.Fallback)
			assert.Equal(t, tt.expected, parsed.Analysis.FitScore)
		})
	}
}

func TestParseStructuredTolerantExtraction(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "json code fence", reply: "```json\n" + validReply + "\n```"},
		{name: "bare code fence", reply: "```\n" + validReply + "\n```"},
		{name: "single line fence", reply: "```json" + `{"coverLetter": "Dear Hiring Manager,\n\nI am excited to apply."}` + "```"},
		{name: "wrapped in prose", reply: "Here is your letter:\n" + validReply + "\nGood luck!"},
		{name: "fence inside prose", reply: "Sure!\n```json\n" + validReply + "\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := ParseStructured(tt.reply, 50, false)
			assert.False(t, parsed.Fallback)
			assert.Equal(t, "Dear Hiring Manager,\n\nI am excited to apply.", parsed.CoverLetter)
			assert.Equal(t, 50, parsed.Analysis.FitScore)
		})
	}
}

func TestParseStructuredFallback(t *testing.T) {
	tests := []struct {
		name           string
		reply          string
		expectedLetter string
	}{
		{
			name:           "plain text reply",
			reply:          "Dear Hiring Manager, I would love to join.",
			expectedLetter: "Dear Hiring Manager, I would love to join.",
		},
		{
			name:           "fenced plain text",
			reply:          "```\nDear team,\nThanks.\n```",
			expectedLetter: "Dear team,\nThanks.",
		},
		{
			name:           "broken json",
			reply:          `{"coverLetter": "Dear team", "analysis": {`,
			expectedLetter: `{"coverLetter": "Dear team", "analysis": {`,
		},
		{
			name:           "json without letter",
			reply:          `{"analysis": {"fitScore": 10}}`,
			expectedLetter: "",
		},
		{
			name:           "json with blank letter",
			reply:          "```json\n{\"coverLetter\": \"  \", \"analysis\": {}}\n```",
			expectedLetter: "",
		},
		{
			name:           "wrong field types",
			reply:          `{"coverLetter": 42}`,
			expectedLetter: "",
		},
		{
			name:           "mismatched braces in prose",
			reply:          "Dear team, {see attached} and more}",
			expectedLetter: "Dear team, {see attached} and more}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := ParseStructured(tt.reply, 33, true)

			require.True(t, parsed.Fallback)
			assert.Equal(t, tt.expectedLetter, parsed.CoverLetter)
			assert.Equal(t, FallbackAnalysis(33), parsed.Analysis)
		})
	}
}

func TestFallbackAnalysis(t *testing.T) {
	analysis := FallbackAnalysis(67)

	assert.Equal(t, 67, analysis.FitScore)
	assert.Equal(t, FallbackRelevanceScore, analysis.RelevanceScore)
	assert.NotEmpty(t, analysis.Strengths)
	assert.NotEmpty(t, analysis.Gaps)
	assert.NotEmpty(t, analysis.ATSKeywords)
	assert.NotEmpty(t, analysis.Suggestions)

	analysis.Strengths[0] = "mutated"
	assert.NotEqual(t, "mutated", FallbackAnalysis(67).Strengths[0], "callers get their own copy")
}

func TestExtractJSON(t *testing.T) {
	payload, ok := extractJSON(`noise {"a": {"b": 1}} trailing`)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": 1}}`, payload)

	_, ok = extractJSON("no braces at all")
	assert.False(t, ok)

	_, ok = extractJSON("} backwards {")
	assert.False(t, ok)
}

func TestCoverLetterSchema(t *testing.T) {
	schema := coverLetterSchema()

	assert.ElementsMatch(t, []string{"coverLetter", "analysis"}, schema.Required)
	analysis := schema.Properties["analysis"]
	require.NotNil(t, analysis)
	assert.Contains(t, analysis.Properties, "fitScore")
	assert.Contains(t, analysis.Properties, "atsKeywords")
}
