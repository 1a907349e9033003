package formatters

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"coverletter/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

const (
	typeGenerate    = "GenerateResponse"
	typeFitScore    = "FitScoreResponse"
	typeSavedLetter = "SavedLetter"
	typeLetterList  = "SavedLetterList"
)

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", typeGenerate, &GenerateTextFormatter{})
	registry.RegisterFormatter("markdown", typeGenerate, &GenerateMarkdownFormatter{})
	registry.RegisterFormatter("text", typeFitScore, &FitScoreTextFormatter{})
	registry.RegisterFormatter("markdown", typeFitScore, &FitScoreMarkdownFormatter{})
	registry.RegisterFormatter("text", typeSavedLetter, &SavedLetterTextFormatter{})
	registry.RegisterFormatter("markdown", typeSavedLetter, &SavedLetterMarkdownFormatter{})
	registry.RegisterFormatter("text", typeLetterList, &LetterListTextFormatter{})
	registry.RegisterFormatter("markdown", typeLetterList, &LetterListMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.GenerateResponse:
		return typeGenerate
	case types.FitScoreResponse:
		return typeFitScore
	case types.SavedLetter:
		return typeSavedLetter
	case []types.SavedLetter:
		return typeLetterList
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// GenerateTextFormatter handles text formatting for generated letters
type GenerateTextFormatter struct{}

func (gtf *GenerateTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.GenerateResponse)
	if !ok {
		return "", fmt.Errorf("expected GenerateResponse, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== COVER LETTER ===\n\n")
	output.WriteString(result.CoverLetter)
	output.WriteString("\n\n")

	writeAnalysisText(&output, result.Analysis)

	fmt.Fprintf(&output, "Mode: %s", result.Mode)
	if result.Fallback {
		output.WriteString(" (fallback analysis)")
	}
	output.WriteString("\n")

	if result.SavedLetter != nil {
		fmt.Fprintf(&output, "Saved as: %s (%s)\n", result.SavedLetter.Title, result.SavedLetter.ID)
	}

	return output.String(), nil
}

func (gtf *GenerateTextFormatter) SupportedType() string {
	return typeGenerate
}

// GenerateMarkdownFormatter handles markdown formatting for generated letters
type GenerateMarkdownFormatter struct{}

func (gmf *GenerateMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.GenerateResponse)
	if !ok {
		return "", fmt.Errorf("expected GenerateResponse, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Cover Letter\n\n")
	output.WriteString(result.CoverLetter)
	output.WriteString("\n\n")

	writeAnalysisMarkdown(&output, result.Analysis)

	fmt.Fprintf(&output, "_Mode: %s", result.Mode)
	if result.Fallback {
		output.WriteString(", fallback analysis")
	}
	output.WriteString("_\n")

	if result.SavedLetter != nil {
		fmt.Fprintf(&output, "\n_Saved as **%s** (`%s`)_\n", result.SavedLetter.Title, result.SavedLetter.ID)
	}

	return output.String(), nil
}

func (gmf *GenerateMarkdownFormatter) SupportedType() string {
	return typeGenerate
}

// FitScoreTextFormatter handles text formatting for fit scores
type FitScoreTextFormatter struct{}

func (ftf *FitScoreTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.FitScoreResponse)
	if !ok {
		return "", fmt.Errorf("expected FitScoreResponse, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== FIT SCORE ===\n")
	fmt.Fprintf(&output, "Score: %d/100\n\n", result.FitScore)
	fmt.Fprintf(&output, "Matched %d of %d skills\n", len(result.MatchedSkills), len(result.CandidateSkills))
	if len(result.MatchedSkills) > 0 {
		output.WriteString("Matched: ")
		output.WriteString(strings.Join(result.MatchedSkills, ", "))
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (ftf *FitScoreTextFormatter) SupportedType() string {
	return typeFitScore
}

// FitScoreMarkdownFormatter handles markdown formatting for fit scores
type FitScoreMarkdownFormatter struct{}

func (fmf *FitScoreMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.FitScoreResponse)
	if !ok {
		return "", fmt.Errorf("expected FitScoreResponse, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Fit Score\n\n")
	fmt.Fprintf(&output, "**Score:** %d/100\n\n", result.FitScore)
	output.WriteString("| Skill | Matched |\n")
	output.WriteString("|---|---|\n")

	matched := make(map[string]bool, len(result.MatchedSkills))
	for _, skill := range result.MatchedSkills {
		matched[skill] = true
	}
	for _, skill := range result.CandidateSkills {
		mark := "no"
		if matched[skill] {
			mark = "yes"
		}
		fmt.Fprintf(&output, "| %s | %s |\n", skill, mark)
	}

	return output.String(), nil
}

func (fmf *FitScoreMarkdownFormatter) SupportedType() string {
	return typeFitScore
}

// SavedLetterTextFormatter handles text formatting for one saved letter
type SavedLetterTextFormatter struct{}

func (stf *SavedLetterTextFormatter) Format(data any) (string, error) {
	letter, ok := data.(types.SavedLetter)
	if !ok {
		return "", fmt.Errorf("expected SavedLetter, got %T", data)
	}

	var output strings.Builder

	fmt.Fprintf(&output, "=== %s ===\n", letter.Title)
	fmt.Fprintf(&output, "ID: %s\n", letter.ID)
	fmt.Fprintf(&output, "Saved: %s\n\n", letter.CreatedAt.Format(time.RFC3339))
	output.WriteString(letter.Content)
	output.WriteString("\n\n")

	writeAnalysisText(&output, letter.Analysis)

	return output.String(), nil
}

func (stf *SavedLetterTextFormatter) SupportedType() string {
	return typeSavedLetter
}

// SavedLetterMarkdownFormatter handles markdown formatting for one saved letter
type SavedLetterMarkdownFormatter struct{}

func (smf *SavedLetterMarkdownFormatter) Format(data any) (string, error) {
	letter, ok := data.(types.SavedLetter)
	if !ok {
		return "", fmt.Errorf("expected SavedLetter, got %T", data)
	}

	var output strings.Builder

	fmt.Fprintf(&output, "# %s\n\n", letter.Title)
	fmt.Fprintf(&output, "_Saved %s, id `%s`_\n\n", letter.CreatedAt.Format(time.RFC3339), letter.ID)
	output.WriteString(letter.Content)
	output.WriteString("\n\n")

	writeAnalysisMarkdown(&output, letter.Analysis)

	return output.String(), nil
}

func (smf *SavedLetterMarkdownFormatter) SupportedType() string {
	return typeSavedLetter
}

// LetterListTextFormatter handles text formatting for the saved list
type LetterListTextFormatter struct{}

func (ltf *LetterListTextFormatter) Format(data any) (string, error) {
	letters, ok := data.([]types.SavedLetter)
	if !ok {
		return "", fmt.Errorf("expected []SavedLetter, got %T", data)
	}

	if len(letters) == 0 {
		return "No saved letters.\n", nil
	}

	var output strings.Builder
	for _, letter := range letters {
		fmt.Fprintf(&output, "%s  %-3d  %s  %s\n",
			letter.ID, letter.Analysis.FitScore, letter.CreatedAt.Format("2006-01-02"), letter.Title)
	}
	return output.String(), nil
}

func (ltf *LetterListTextFormatter) SupportedType() string {
	return typeLetterList
}

// LetterListMarkdownFormatter handles markdown formatting for the saved list
type LetterListMarkdownFormatter struct{}

func (lmf *LetterListMarkdownFormatter) Format(data any) (string, error) {
	letters, ok := data.([]types.SavedLetter)
	if !ok {
		return "", fmt.Errorf("expected []SavedLetter, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Saved Letters\n\n")
	if len(letters) == 0 {
		output.WriteString("_No saved letters._\n")
		return output.String(), nil
	}

	output.WriteString("| ID | Title | Fit Score | Saved |\n")
	output.WriteString("|---|---|---|---|\n")
	for _, letter := range letters {
		fmt.Fprintf(&output, "| `%s` | %s | %d | %s |\n",
			letter.ID, letter.Title, letter.Analysis.FitScore, letter.CreatedAt.Format("2006-01-02"))
	}
	return output.String(), nil
}

func (lmf *LetterListMarkdownFormatter) SupportedType() string {
	return typeLetterList
}

func writeAnalysisText(output *strings.Builder, analysis types.Analysis) {
	output.WriteString("=== ANALYSIS ===\n")
	fmt.Fprintf(output, "Fit Score: %d/100\n", analysis.FitScore)
	fmt.Fprintf(output, "Relevance Score: %d/100\n\n", analysis.RelevanceScore)

	writeTextList(output, "Strengths", analysis.Strengths)
	writeTextList(output, "Gaps", analysis.Gaps)
	if len(analysis.ATSKeywords) > 0 {
		output.WriteString("ATS Keywords: ")
		output.WriteString(strings.Join(analysis.ATSKeywords, ", "))
		output.WriteString("\n\n")
	}
	writeTextList(output, "Suggestions", analysis.Suggestions)
}

func writeTextList(output *strings.Builder, title string, items []string) {
	items = nonEmpty(items)
	if len(items) == 0 {
		return
	}
	output.WriteString(title + ":\n")
	for _, item := range items {
		fmt.Fprintf(output, "  - %s\n", item)
	}
	output.WriteString("\n")
}

func writeAnalysisMarkdown(output *strings.Builder, analysis types.Analysis) {
	output.WriteString("## Analysis\n\n")
	fmt.Fprintf(output, "**Fit Score:** %d/100\n\n", analysis.FitScore)
	fmt.Fprintf(output, "**Relevance Score:** %d/100\n\n", analysis.RelevanceScore)

	writeMarkdownList(output, "Strengths", analysis.Strengths)
	writeMarkdownList(output, "Gaps", analysis.Gaps)
	if keywords := nonEmpty(analysis.ATSKeywords); len(keywords) > 0 {
		output.WriteString("### ATS Keywords\n")
		output.WriteString("`" + strings.Join(keywords, "`, `") + "`\n\n")
	}
	writeMarkdownList(output, "Suggestions", analysis.Suggestions)
}

func writeMarkdownList(output *strings.Builder, title string, items []string) {
	items = nonEmpty(items)
	if len(items) == 0 {
		return
	}
	output.WriteString("### " + title + "\n")
	for _, item := range items {
		fmt.Fprintf(output, "- %s\n", item)
	}
	output.WriteString("\n")
}

// nonEmpty drops blank entries such as the empty freeform suggestion
func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	return out
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
