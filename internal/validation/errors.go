// Package validation checks generation requests before they reach the letter generator.
package validation

import (
	"fmt"
	"strings"
)

// Request field names.
const (
	FieldResumeText     = "resumeText"
	FieldJobDescription = "jobDescription"
	FieldTone           = "tone"
)

var fieldLabels = map[string]string{
	FieldResumeText:     "resume text",
	FieldJobDescription: "job description",
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

// ErrMissingField is returned when a required field is absent, not a string, or blank.
type ErrMissingField struct {
	Field string
}

func (e *ErrMissingField) Error() string {
	return fmt.Sprintf("Valid %s is required", label(e.Field))
}

// ErrFieldTooLong is returned when a field exceeds Max characters.
type ErrFieldTooLong struct {
	Field string
	Max   int
}

func (e *ErrFieldTooLong) Error() string {
	l := label(e.Field)
	return fmt.Sprintf("%s%s is too long (max %s characters)", strings.ToUpper(l[:1]), l[1:], groupThousands(e.Max))
}

// groupThousands formats n with comma separators, e.g. 10000 -> "10,000".
func groupThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
