package letters

import (
	"fmt"

	"github.com/jonathan/cover-letter/internal/prompts"
	"github.com/jonathan/cover-letter/internal/types"
)

// BuildPrompt returns the system and user messages for in.
func BuildPrompt(in types.LetterInput) (system, user string, err error) {
	system, err = prompts.Get(prompts.Letters, prompts.KeySystem)
	if err != nil {
		return "", "", fmt.Errorf("failed to load system prompt: %w", err)
	}
	template, err := prompts.Get(prompts.Letters, prompts.KeyUser)
	if err != nil {
		return "", "", fmt.Errorf("failed to load letter prompt: %w", err)
	}

	user = prompts.Format(template, map[string]string{
		"ResumeText":     in.ResumeText,
		"JobDescription": in.JobDescription,
		"JobTitle":       in.JobTitle,
		"Company":        in.Company,
		"Tone":           string(in.Tone),
		"Language":       in.Language,
	})
	return system, user, nil
}
