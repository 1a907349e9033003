package ai

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"coverletter/internal/config"
	"coverletter/internal/types"
)

// DefaultPrompts holds the built-in system and user templates for each
// operation. User templates are text/template sources over PromptData.
var DefaultPrompts = map[string]config.PromptConfig{
	config.OperationStructured: {
		System: coverLetterSystemPrompt,
		User:   structuredUserPrompt,
	},
	config.OperationFreeform: {
		System: coverLetterSystemPrompt,
		User:   freeformUserPrompt,
	},
	config.OperationSuggest: {
		System: suggestSystemPrompt,
		User:   suggestUserPrompt,
	},
}

const coverLetterSystemPrompt = `You are an expert career counselor and cover letter writer. You write highly personalized, ATS-optimized cover letters.

- Only use facts present in the candidate information
- Never invent employers, titles, metrics or credentials
- Match the requested tone and the conventions of the requested industry`

const candidateBlock = `CANDIDATE INFORMATION:
Name: {{.Name}}
Email: {{.Email}}
Phone: {{.Phone}}
Skills: {{.Skills}}
Experience: {{.Experience}}
Achievements: {{.Achievements}}

TARGET POSITION:
Company: {{.Company}}
Position: {{.Position}}
Job Description: {{.JobDescription}}
Company Website: {{.CompanyWebsite}}

CUSTOMIZATION:
Tone: {{.Tone}}
Industry: {{.Industry}}`

const structuredUserPrompt = `Create a highly personalized, ATS-optimized cover letter for the candidate below, then analyze how well the candidate fits the role.

` + candidateBlock + `

REQUIREMENTS:
- Write a compelling cover letter that matches the specified tone and industry, incorporates keywords from the job description, highlights quantifiable achievements, addresses potential gaps diplomatically, and shows understanding of the company and role.
- Make the cover letter authentic and specific. Avoid generic phrases.
- A keyword match of the listed skills against the job description scored {{.FitScore}} out of 100.

Respond with a single JSON object:
{
  "coverLetter": "the full cover letter text",
  "analysis": {
    "fitScore": integer 0-100,
    "relevanceScore": integer 0-100, how relevant the experience is to the role,
    "strengths": ["..."],
    "gaps": ["..."],
    "atsKeywords": ["keywords from the job description used in the letter"],
    "suggestions": ["concrete ways to strengthen the application"]
  }
}`

const freeformUserPrompt = `Create a highly personalized, ATS-optimized cover letter for the candidate below. Only return the cover letter text, do not include any JSON, analysis, or extra commentary.

` + candidateBlock + `

REQUIREMENTS:
- Write a compelling cover letter that matches the specified tone and industry, incorporates keywords from the job description, highlights quantifiable achievements, addresses potential gaps diplomatically, and shows understanding of the company and role.
- Make the cover letter authentic, specific, and compelling. Avoid generic phrases and ensure it feels personally written.
- Do NOT include any JSON, analysis, or extra commentary. Only output the cover letter text.`

const suggestSystemPrompt = `You are an expert career counselor. You give concrete, actionable advice that helps candidates become stronger applicants for a specific role.`

const suggestUserPrompt = `Based on the following candidate profile and job description, suggest a specific project or type of work the candidate can do to improve their chances of getting this job and make themselves more valuable for this role. Be concrete and actionable.

CANDIDATE SKILLS: {{.Skills}}
CANDIDATE EXPERIENCE: {{.Experience}}
JOB DESCRIPTION: {{.JobDescription}}`

// PromptData is the value prompt templates are executed against
type PromptData struct {
	Name           string
	Email          string
	Phone          string
	Skills         string
	Experience     string
	Achievements   string
	Company        string
	Position       string
	JobDescription string
	CompanyWebsite string
	Tone           string
	Industry       string
	FitScore       int
}

// NewPromptData builds template data from a normalized request
func NewPromptData(req types.CoverLetterRequest, fitScore int) PromptData {
	website := req.CompanyWebsite
	if website == "" {
		website = "Not provided"
	}
	return PromptData{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Skills:         req.Skills,
		Experience:     req.Experience,
		Achievements:   req.Achievements,
		Company:        req.Company,
		Position:       req.Position,
		JobDescription: req.JobDescription,
		CompanyWebsite: website,
		Tone:           string(req.Tone),
		Industry:       string(req.Industry),
		FitScore:       fitScore,
	}
}

// promptTemplates is the parsed system and user template for one operation
type promptTemplates struct {
	system *template.Template
	user   *template.Template
}

// compilePrompts resolves overrides against the defaults and parses every
// template. Each template is executed once against empty data so unknown
// fields fail here instead of mid-request.
func compilePrompts(overrides map[string]config.PromptConfig) (map[string]promptTemplates, error) {
	compiled := make(map[string]promptTemplates, len(DefaultPrompts))
	for operation, defaults := range DefaultPrompts {
		override := overrides[operation]

		system, err := parsePrompt(operation+".system", resolvePrompt(override.System, defaults.System))
		if err != nil {
			return nil, err
		}
		user, err := parsePrompt(operation+".user", resolvePrompt(override.User, defaults.User))
		if err != nil {
			return nil, err
		}
		compiled[operation] = promptTemplates{system: system, user: user}
	}
	return compiled, nil
}

func parsePrompt(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid %s prompt template: %w", name, err)
	}
	if err := tmpl.Execute(&bytes.Buffer{}, PromptData{}); err != nil {
		return nil, fmt.Errorf("invalid %s prompt template: %w", name, err)
	}
	return tmpl, nil
}

// render executes both templates for an operation
func (p promptTemplates) render(data PromptData) (string, string, error) {
	var system, user bytes.Buffer
	if err := p.system.Execute(&system, data); err != nil {
		return "", "", err
	}
	if err := p.user.Execute(&user, data); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(system.String()), strings.TrimSpace(user.String()), nil
}

// resolvePrompt prefers configured text over the built-in default. File
// prompts were already read into the configured text at load time.
func resolvePrompt(fromConfig, fromDefault string) string {
	if strings.TrimSpace(fromConfig) != "" {
		return fromConfig
	}
	return fromDefault
}
