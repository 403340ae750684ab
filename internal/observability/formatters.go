package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// innerWidth is the printable width inside a box
	innerWidth = boxWidth - 4
)

// Check is one line of a configuration report.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Printer handles formatted terminal output for the CLI.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", innerWidth, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrap(line, innerWidth) {
			fmt.Fprintf(p.out, "│ %-*s │\n", innerWidth, wrapped)
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintLetter outputs a generated letter with a header naming its source.
func (p *Printer) PrintLetter(jobTitle, company, source, letter string) {
	if letter == "" {
		return
	}
	title := fmt.Sprintf("COVER LETTER: %s @ %s (%s)", jobTitle, company, source)
	if utf8.RuneCountInString(title) > innerWidth {
		title = string([]rune(title)[:innerWidth-3]) + "..."
	}
	p.printBox(title, letter)
}

// PrintMetrics outputs the generation counters.
func (p *Printer) PrintMetrics(m Metrics) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total requests:  %d\n", m.TotalRequests))
	sb.WriteString(fmt.Sprintf("Successful:      %d\n", m.SuccessfulGenerations))
	sb.WriteString(fmt.Sprintf("Failed:          %d", m.FailedGenerations))
	p.printBox("GENERATION METRICS", sb.String())
}

// PrintChecks outputs a configuration report and returns the number of failed checks.
func (p *Printer) PrintChecks(title string, checks []Check) int {
	var sb strings.Builder
	failed := 0
	for i, c := range checks {
		mark := "✓"
		if !c.OK {
			mark = "✗"
			failed++
		}
		sb.WriteString(fmt.Sprintf("%s %-10s %s", mark, c.Name, c.Detail))
		if i < len(checks)-1 {
			sb.WriteString("\n")
		}
	}
	p.printBox(title, sb.String())
	return failed
}

// wrap splits line on spaces so no piece exceeds width runes.
// Words longer than width are cut.
func wrap(line string, width int) []string {
	if utf8.RuneCountInString(line) <= width {
		return []string{line}
	}

	var out []string
	var cur []rune
	for _, word := range strings.Fields(line) {
		w := []rune(word)
		for len(w) > width {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
			out = append(out, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(cur) == 0:
			cur = append(cur, w...)
		case len(cur)+1+len(w) <= width:
			cur = append(cur, ' ')
			cur = append(cur, w...)
		default:
			out = append(out, string(cur))
			cur = append([]rune(nil), w...)
		}
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}
