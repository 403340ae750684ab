package observability

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestPrintLetter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintLetter("Backend Engineer", "Acme", "fallback", "Dear Hiring Manager,\n\nHello.")
	output := buf.String()

	assert.Contains(t, output, "COVER LETTER: Backend Engineer @ Acme (fallback)")
	assert.Contains(t, output, "Dear Hiring Manager,")
	assert.Contains(t, output, "Hello.")
}

func TestPrintLetter_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintLetter("t", "c", "generated", "")
	assert.Empty(t, buf.String())
}

func TestPrintLetter_LinesStayInsideBox(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	long := strings.Repeat("Уважаемый руководитель ", 20)
	p.PrintLetter("Engineer", "Acme", "generated", long)

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, utf8.RuneCountInString(line), "line %q", line)
	}
}

func TestPrintMetrics(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintMetrics(Metrics{TotalRequests: 3, SuccessfulGenerations: 2, FailedGenerations: 1})

	output := buf.String()
	assert.Contains(t, output, "GENERATION METRICS")
	assert.Contains(t, output, "Total requests:  3")
	assert.Contains(t, output, "Failed:          1")
}

func TestPrintChecks(t *testing.T) {
	var buf bytes.Buffer
	failed := NewPrinter(&buf).PrintChecks("CONFIG", []Check{
		{Name: "server", OK: true, Detail: "port 8080"},
		{Name: "upstream", OK: false, Detail: "no credential"},
	})

	assert.Equal(t, 1, failed)
	assert.Contains(t, buf.String(), "✓ server")
	assert.Contains(t, buf.String(), "✗ upstream")
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"short"}, wrap("short", 10))
	assert.Equal(t, []string{""}, wrap("", 10))
	assert.Equal(t, []string{"aaa bbb", "ccc"}, wrap("aaa bbb ccc", 7))
	assert.Equal(t, []string{"abcde", "fghij", "k"}, wrap("abcdefghijk", 5))
}
