package ai

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"coverletter/internal/types"

	"google.golang.org/genai"
)

// Fixed analysis used when a structured reply cannot be parsed
var (
	fallbackStrengths = []string{
		"Relevant professional experience",
		"Skills aligned with the role requirements",
	}
	fallbackGaps = []string{
		"Detailed gap analysis was unavailable for this letter",
	}
	fallbackATSKeywords = []string{
		"communication",
		"problem solving",
		"teamwork",
	}
	fallbackSuggestions = []string{
		"Mirror the exact wording of the job description for key requirements",
		"Quantify achievements with concrete numbers where possible",
	}
)

// FallbackRelevanceScore is the static relevance reported by the fallback analysis
const FallbackRelevanceScore = 70

// FallbackAnalysis returns the fixed placeholder analysis carrying the local fit score
func FallbackAnalysis(localFitScore int) types.Analysis {
	analysis := types.Analysis{
		FitScore:       localFitScore,
		RelevanceScore: FallbackRelevanceScore,
		Strengths:      append([]string(nil), fallbackStrengths...),
		Gaps:           append([]string(nil), fallbackGaps...),
		ATSKeywords:    append([]string(nil), fallbackATSKeywords...),
		Suggestions:    append([]string(nil), fallbackSuggestions...),
	}
	analysis.Normalize()
	return analysis
}

// ParsedReply is the outcome of parsing a structured reply. Fallback is set
// when the reply was not usable JSON. The letter is then the raw reply, or
// empty when the reply was a JSON document without a letter in it.
type ParsedReply struct {
	CoverLetter string
	Analysis    types.Analysis
	Fallback    bool
}

// structuredReply mirrors the requested JSON shape. Scores are floats and
// pointers so that "85.0" parses and an absent fitScore can be told apart
// from zero.
type structuredReply struct {
	CoverLetter string `json:"coverLetter"`
	Analysis    *struct {
		FitScore       *float64 `json:"fitScore"`
		RelevanceScore *float64 `json:"relevanceScore"`
		Strengths      []string `json:"strengths"`
		Gaps           []string `json:"gaps"`
		ATSKeywords    []string `json:"atsKeywords"`
		Suggestions    []string `json:"suggestions"`
	} `json:"analysis"`
}

// ParseStructured parses a structured reply. It never fails: unusable
// replies produce a fallback result. The local fit score replaces the
// remote one unless trustRemote is set and the remote score is in range.
func ParseStructured(text string, localFitScore int, trustRemote bool) ParsedReply {
	cleaned := stripCodeFences(text)

	payload, ok := extractJSON(cleaned)
	if !ok {
		return fallbackReply(cleaned, localFitScore)
	}

	if !json.Valid([]byte(payload)) {
		return fallbackReply(cleaned, localFitScore)
	}

	// The reply is JSON from here on, so it is never shown as letter text
	var reply structuredReply
	if err := json.Unmarshal([]byte(payload), &reply); err != nil {
		return fallbackReply("", localFitScore)
	}

	letter := strings.TrimSpace(reply.CoverLetter)
	if letter == "" {
		return fallbackReply("", localFitScore)
	}

	analysis := types.Analysis{FitScore: localFitScore}
	if a := reply.Analysis; a != nil {
		if trustRemote && a.FitScore != nil && *a.FitScore >= 0 && *a.FitScore <= 100 {
			analysis.FitScore = int(math.Round(*a.FitScore))
		}
		if a.RelevanceScore != nil {
			analysis.RelevanceScore = int(math.Round(*a.RelevanceScore))
		}
		analysis.Strengths = a.Strengths
		analysis.Gaps = a.Gaps
		analysis.ATSKeywords = a.ATSKeywords
		analysis.Suggestions = a.Suggestions
	}
	analysis.Normalize()

	return ParsedReply{CoverLetter: letter, Analysis: analysis}
}

func fallbackReply(cleaned string, localFitScore int) ParsedReply {
	return ParsedReply{
		CoverLetter: cleaned,
		Analysis:    FallbackAnalysis(localFitScore),
		Fallback:    true,
	}
}

var (
	openingFence = regexp.MustCompile("^```[A-Za-z0-9_-]*")
	closingFence = regexp.MustCompile("```$")
)

// stripCodeFences removes a surrounding markdown code fence, if any
func stripCodeFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = openingFence.ReplaceAllString(s, "")
	s = closingFence.ReplaceAllString(strings.TrimSpace(s), "")
	return strings.TrimSpace(s)
}

// extractJSON returns the text between the first '{' and the last '}'
func extractJSON(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// coverLetterSchema is the response schema for structured generation
func coverLetterSchema() *genai.Schema {
	stringList := func() *genai.Schema {
		return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"coverLetter": {Type: genai.TypeString},
			"analysis": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"fitScore":       {Type: genai.TypeInteger},
					"relevanceScore": {Type: genai.TypeInteger},
					"strengths":      stringList(),
					"gaps":           stringList(),
					"atsKeywords":    stringList(),
					"suggestions":    stringList(),
				},
				Required: []string{"fitScore", "relevanceScore", "strengths", "gaps", "atsKeywords", "suggestions"},
			},
		},
		Required: []string{"coverLetter", "analysis"},
	}
}
