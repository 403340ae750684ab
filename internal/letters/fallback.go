package letters

import (
	"fmt"

	"github.com/jonathan/cover-letter/internal/types"
)

type locale struct {
	greeting  string
	opening   string
	styleLine string
	closing   string
	signature string
	tones     map[types.Tone]string
}

var english = locale{
	greeting: "Dear Hiring Manager,",
	opening: "I am writing to express my strong interest in the %s position at %s. " +
		"With my background and experience, I am confident in my ability to contribute effectively to your team.",
	styleLine: "This is a %s cover letter prepared from your resume and the job description. " +
		"Connect an AI provider to receive a fully tailored letter.",
	closing:   "Sincerely,",
	signature: "[Your Name]",
	tones: map[types.Tone]string{
		types.ToneConcise:      "concise and to the point",
		types.ToneEnthusiastic: "enthusiastic and passionate",
		types.ToneProfessional: "professional",
	},
}

var russian = locale{
	greeting: "Уважаемый руководитель отдела кадров,",
	opening: "Я пишу, чтобы выразить заинтересованность в должности %s в компании %s. " +
		"Мой опыт и навыки позволят мне внести значимый вклад в работу Вашей команды.",
	styleLine: "Это %s сопроводительное письмо, подготовленное на основе Вашего резюме и описания вакансии. " +
		"Подключите AI-провайдера, чтобы получить полностью персонализированное письмо.",
	closing:   "С уважением,",
	signature: "[Ваше имя]",
	tones: map[types.Tone]string{
		types.ToneConcise:      "краткое и конкретное",
		types.ToneEnthusiastic: "энергичное и увлечённое",
		types.ToneProfessional: "профессиональное",
	},
}

// Fallback renders the deterministic template letter for in.
// Languages other than Russian use the English template.
func Fallback(in types.LetterInput) string {
	loc := english
	if in.IsRussian() {
		loc = russian
	}

	style, ok := loc.tones[in.Tone]
	if !ok {
		style = loc.tones[types.ToneProfessional]
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s\n\n%s\n%s",
		loc.greeting,
		fmt.Sprintf(loc.opening, in.JobTitle, in.Company),
		fmt.Sprintf(loc.styleLine, style),
		loc.closing,
		loc.signature,
	)
}
