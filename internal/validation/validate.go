package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/cover-letter/internal/types"
)

var validate = validator.New()

// ValidateGeneration checks a decoded generation payload and applies defaults.
// Values of the wrong JSON type are treated as absent. Both required fields
// are checked for presence before either length is checked.
func ValidateGeneration(raw map[string]any) (*types.LetterInput, error) {
	resume, resumeOK := presentText(raw, FieldResumeText)
	if !resumeOK {
		return nil, &ErrMissingField{Field: FieldResumeText}
	}
	jobDescription, jobOK := presentText(raw, FieldJobDescription)
	if !jobOK {
		return nil, &ErrMissingField{Field: FieldJobDescription}
	}
	if err := checkLength(FieldResumeText, resume); err != nil {
		return nil, err
	}
	if err := checkLength(FieldJobDescription, jobDescription); err != nil {
		return nil, err
	}

	input := &types.LetterInput{
		ResumeText:     strings.TrimSpace(resume),
		JobDescription: strings.TrimSpace(jobDescription),
		JobTitle:       optionalText(raw, "jobTitle", types.DefaultJobTitle),
		Company:        optionalText(raw, "company", types.DefaultCompany),
		Tone:           normalizeTone(optionalText(raw, FieldTone, string(types.DefaultTone))),
		Language:       strings.ToLower(optionalText(raw, "language", types.DefaultLanguage)),
	}

	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	return input, nil
}

// ValidateRequest is ValidateGeneration for an already typed request.
func ValidateRequest(req types.GenerationRequest) (*types.LetterInput, error) {
	raw := map[string]any{
		FieldResumeText:     req.ResumeText,
		FieldJobDescription: req.JobDescription,
	}
	for key, value := range map[string]string{
		"jobTitle": req.JobTitle,
		"company":  req.Company,
		FieldTone:  req.Tone,
		"language": req.Language,
	} {
		if value != "" {
			raw[key] = value
		}
	}
	return ValidateGeneration(raw)
}

// presentText returns the untrimmed value of field and whether it holds
// anything besides whitespace.
func presentText(raw map[string]any, field string) (string, bool) {
	s, ok := raw[field].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// checkLength applies the length limit to the untrimmed text.
func checkLength(field, s string) error {
	if utf8.RuneCountInString(s) > types.MaxFieldLength {
		return &ErrFieldTooLong{Field: field, Max: types.MaxFieldLength}
	}
	return nil
}

// normalizeTone maps an unsupported tone to the professional style.
func normalizeTone(s string) types.Tone {
	tone := types.Tone(strings.ToLower(s))
	if !tone.Supported() {
		return types.ToneProfessional
	}
	return tone
}

func optionalText(raw map[string]any, field, def string) string {
	s, ok := raw[field].(string)
	if !ok {
		return def
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}
