// Package types provides type definitions for structured data shared by the cover letter service.
package types

// Tone selects the writing style of a generated letter.
type Tone string

// Supported tones.
const (
	ToneConcise      Tone = "concise"
	ToneProfessional Tone = "professional"
	ToneEnthusiastic Tone = "enthusiastic"
)

// Supported reports whether t is one of the known tones.
func (t Tone) Supported() bool {
	switch t {
	case ToneConcise, ToneProfessional, ToneEnthusiastic:
		return true
	}
	return false
}

// Defaults applied to optional generation fields.
const (
	DefaultJobTitle = "Position"
	DefaultCompany  = "Company"
	DefaultTone     = ToneConcise
	DefaultLanguage = "english"
)

// LanguageRussian switches prompts and fallback letters to formal Russian.
const LanguageRussian = "russian"

// MaxFieldLength is the largest resume or job description accepted, in characters.
const MaxFieldLength = 10000

// GenerationRequest is the JSON body of POST /api/generate-letter.
type GenerationRequest struct {
	ResumeText     string `json:"resumeText"`
	JobDescription string `json:"jobDescription"`
	JobTitle       string `json:"jobTitle,omitempty"`
	Company        string `json:"company,omitempty"`
	Tone           string `json:"tone,omitempty"`
	Language       string `json:"language,omitempty"`
}

// LetterInput is a validated generation request with defaults applied.
type LetterInput struct {
	ResumeText     string `validate:"required,max=10000"`
	JobDescription string `validate:"required,max=10000"`
	JobTitle       string `validate:"required"`
	Company        string `validate:"required"`
	Tone           Tone   `validate:"oneof=concise professional enthusiastic"`
	Language       string `validate:"required"`
}

// IsRussian reports whether the letter should be written in Russian.
func (in LetterInput) IsRussian() bool {
	return in.Language == LanguageRussian
}

// GenerationResult is the JSON response of POST /api/generate-letter.
type GenerationResult struct {
	Success bool   `json:"success"`
	Letter  string `json:"letter,omitempty"`
	Error   string `json:"error,omitempty"`
}
