package types

import (
	"fmt"
	"time"
)

// SavedLetter is one entry of the persisted saved-letters list
type SavedLetter struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	Analysis  Analysis  `json:"analysis"`
}

// LetterTitle builds the display title used for saved letters
func LetterTitle(company, position string) string {
	return fmt.Sprintf("%s - %s", company, position)
}

// SaveLetterRequest stores an already generated letter
type SaveLetterRequest struct {
	CoverLetter string   `json:"coverLetter" validate:"required"`
	Company     string   `json:"company" validate:"required"`
	Position    string   `json:"position" validate:"required"`
	Analysis    Analysis `json:"analysis"`
}

// Validate validates the SaveLetterRequest using the validator.
func (r *SaveLetterRequest) Validate() error {
	return validateStruct(r)
}

// GenerateRequest is the HTTP body for POST /generate
type GenerateRequest struct {
	CoverLetterRequest
	Mode string `json:"mode,omitempty"`
	Save bool   `json:"save,omitempty"`
}

// GenerateResponse is the HTTP body returned by POST /generate
type GenerateResponse struct {
	CoverLetterResult
	SavedLetter *SavedLetter `json:"savedLetter,omitempty"`
}
