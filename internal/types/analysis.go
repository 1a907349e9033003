package types

// GenerationMode selects how the model reply is requested and interpreted
type GenerationMode string

const (
	// ModeStructured asks for a JSON reply holding both the letter and the analysis.
	ModeStructured GenerationMode = "structured"
	// ModeFreeform asks for plain letter text plus a separate suggestion call.
	ModeFreeform GenerationMode = "freeform"
)

// ParseGenerationMode maps a config or request value to a mode
func ParseGenerationMode(s string) (GenerationMode, bool) {
	switch GenerationMode(s) {
	case ModeStructured:
		return ModeStructured, true
	case ModeFreeform:
		return ModeFreeform, true
	default:
		return "", false
	}
}

// Analysis is the fit analysis attached to every generated letter
type Analysis struct {
	FitScore       int      `json:"fitScore"`
	RelevanceScore int      `json:"relevanceScore"`
	Strengths      []string `json:"strengths"`
	Gaps           []string `json:"gaps"`
	ATSKeywords    []string `json:"atsKeywords"`
	Suggestions    []string `json:"suggestions"`
}

// Normalize replaces nil slices with empty ones and clamps both scores to [0,100]
func (a *Analysis) Normalize() {
	if a.Strengths == nil {
		a.Strengths = []string{}
	}
	if a.Gaps == nil {
		a.Gaps = []string{}
	}
	if a.ATSKeywords == nil {
		a.ATSKeywords = []string{}
	}
	if a.Suggestions == nil {
		a.Suggestions = []string{}
	}
	a.FitScore = clampScore(a.FitScore)
	a.RelevanceScore = clampScore(a.RelevanceScore)
}

func clampScore(v int) int {
	return max(0, min(100, v))
}

// CoverLetterResult is the normalized outcome of one generation request
type CoverLetterResult struct {
	CoverLetter string         `json:"coverLetter"`
	Analysis    Analysis       `json:"analysis"`
	Mode        GenerationMode `json:"mode"`
	// Fallback is set when the structured reply could not be parsed and
	// Analysis holds the fixed placeholder values.
	Fallback bool `json:"fallback"`
}
