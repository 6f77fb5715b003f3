// Package report renders analysis results for the terminal and to local files.
package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/jonathan/jobai-assistant/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// emptySection is printed for sections the backend left out
	emptySection = "(none)"
)

// Section titles, in print order.
const (
	TitleSummary   = "SUMMARY"
	TitleATS       = "ATS FEEDBACK"
	TitleKeywords  = "KEYWORDS"
	TitleBullets   = "STAR BULLETS"
	TitleOutreach  = "OUTREACH"
	TitleInterview = "INTERVIEW QUESTIONS"
)

// Printer handles formatted report output
type Printer struct {
	out     io.Writer
	heading *color.Color
}

// NewPrinter creates a new Printer that writes to the given writer. Colored headings are
// emitted only when useColor is set.
func NewPrinter(out io.Writer, useColor bool) *Printer {
	heading := color.New(color.FgCyan, color.Bold)
	if useColor {
		heading.EnableColor()
	} else {
		heading.DisableColor()
	}
	return &Printer{out: out, heading: heading}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s%s │\n", p.heading.Sprint(title), pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrap(line, boxWidth-4) {
			fmt.Fprintf(p.out, "│ %s%s │\n", wrapped, pad(wrapped, boxWidth-4))
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// Print outputs every section of the report. Missing sections print as "(none)".
func (p *Printer) Print(r *types.StructuredReport) {
	if r == nil {
		r = &types.StructuredReport{}
	}

	if strings.TrimSpace(r.Summary) != "" {
		p.printBox(TitleSummary, strings.TrimSpace(r.Summary))
	}
	p.printBox(TitleATS, bulletList(r.ATSFeedback))
	p.printBox(TitleKeywords, keywordList(r.Keywords))
	p.printBox(TitleBullets, bulletList(r.StarBullets))
	p.printBox(TitleOutreach, outreach(r.Outreach))
	p.printBox(TitleInterview, numberedList(r.Interview))
}

// PrintDocument outputs where a returned document was saved.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintDocument(doc *types.Document, path string) {
	if doc == nil {
		return
	}
	fmt.Fprintf(p.out, "%s Document saved: %s (%s, %d bytes)\n",
		color.GreenString("✓"), path, doc.ContentType, len(doc.Data))
}

func bulletList(items []string) string {
	items = nonEmpty(items)
	if len(items) == 0 {
		return emptySection
	}
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("• " + item)
	}
	return sb.String()
}

func numberedList(items []string) string {
	items = nonEmpty(items)
	if len(items) == 0 {
		return emptySection
	}
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, item))
	}
	return sb.String()
}

func keywordList(items []string) string {
	items = nonEmpty(items)
	if len(items) == 0 {
		return emptySection
	}
	return strings.Join(items, ", ")
}

func outreach(o types.Outreach) string {
	email := strings.TrimSpace(o.Email)
	linkedin := strings.TrimSpace(o.LinkedIn)
	if email == "" {
		email = emptySection
	}
	if linkedin == "" {
		linkedin = emptySection
	}
	return "Email:\n" + email + "\n\nLinkedIn:\n" + linkedin
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// wrap splits line into chunks of at most width runes, breaking on spaces where possible.
func wrap(line string, width int) []string {
	if utf8.RuneCountInString(line) <= width {
		return []string{line}
	}

	var lines []string
	var current []rune
	for _, word := range strings.Fields(line) {
		w := []rune(word)
		for len(w) > width {
			if len(current) > 0 {
				lines = append(lines, string(current))
				current = nil
			}
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(current) == 0:
			current = w
		case len(current)+1+len(w) <= width:
			current = append(append(current, ' '), w...)
		default:
			lines = append(lines, string(current))
			current = w
		}
	}
	if len(current) > 0 {
		lines = append(lines, string(current))
	}
	return lines
}

func pad(s string, width int) string {
	n := width - utf8.RuneCountInString(s)
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}
