// Package types holds the request, result and persistence shapes shared by
// the CLI, the HTTP server and the generation pipeline.
package types

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Tone is the writing voice requested for a cover letter
type Tone string

const (
	ToneFormal       Tone = "formal"
	ToneEnthusiastic Tone = "enthusiastic"
	ToneConcise      Tone = "concise"
	ToneStorytelling Tone = "storytelling"
)

// Industry steers vocabulary and emphasis in the generated letter
type Industry string

const (
	IndustryTech       Industry = "tech"
	IndustryFinance    Industry = "finance"
	IndustryCreative   Industry = "creative"
	IndustryHealthcare Industry = "healthcare"
	IndustryGeneral    Industry = "general"
)

// Tones lists every accepted tone in display order
func Tones() []Tone {
	return []Tone{ToneFormal, ToneEnthusiastic, ToneConcise, ToneStorytelling}
}

// Industries lists every accepted industry in display order
func Industries() []Industry {
	return []Industry{IndustryTech, IndustryFinance, IndustryCreative, IndustryHealthcare, IndustryGeneral}
}

// CoverLetterRequest carries the candidate profile and the target job
type CoverLetterRequest struct {
	Name           string   `json:"name" validate:"required"`
	Email          string   `json:"email,omitempty" validate:"omitempty,email"`
	Phone          string   `json:"phone,omitempty"`
	Skills         string   `json:"skills" validate:"required"`
	Experience     string   `json:"experience" validate:"required"`
	Achievements   string   `json:"achievements,omitempty"`
	Company        string   `json:"company" validate:"required"`
	Position       string   `json:"position" validate:"required"`
	JobDescription string   `json:"jobDescription" validate:"required"`
	CompanyWebsite string   `json:"companyWebsite,omitempty" validate:"omitempty,url"`
	Tone           Tone     `json:"tone,omitempty" validate:"omitempty,oneof=formal enthusiastic concise storytelling"`
	Industry       Industry `json:"industry,omitempty" validate:"omitempty,oneof=tech finance creative healthcare general"`
}

// Normalize trims every field and fills in the default tone and industry
func (r *CoverLetterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Skills = strings.TrimSpace(r.Skills)
	r.Experience = strings.TrimSpace(r.Experience)
	r.Achievements = strings.TrimSpace(r.Achievements)
	r.Company = strings.TrimSpace(r.Company)
	r.Position = strings.TrimSpace(r.Position)
	r.JobDescription = strings.TrimSpace(r.JobDescription)
	r.CompanyWebsite = strings.TrimSpace(r.CompanyWebsite)
	r.Tone = Tone(strings.ToLower(strings.TrimSpace(string(r.Tone))))
	r.Industry = Industry(strings.ToLower(strings.TrimSpace(string(r.Industry))))

	if r.Tone == "" {
		r.Tone = ToneFormal
	}
	if r.Industry == "" {
		r.Industry = IndustryGeneral
	}
}

// Validate validates the CoverLetterRequest using the validator.
func (r *CoverLetterRequest) Validate() error {
	return validateStruct(r)
}

// FitScoreRequest asks for a local fit score without calling the model.
// Either field may be empty, in which case the score is 0.
type FitScoreRequest struct {
	Skills         string `json:"skills"`
	JobDescription string `json:"jobDescription"`
}

// FitScoreResponse reports the score together with the tokens behind it
type FitScoreResponse struct {
	FitScore        int      `json:"fitScore"`
	CandidateSkills []string `json:"candidateSkills"`
	MatchedSkills   []string `json:"matchedSkills"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describeFieldError(fe))
	}
	return fmt.Errorf("%s", strings.Join(messages, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
