package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/jonathan/jobai-assistant/internal/types"
)

// WritePDF renders a structured report to a PDF file at path.
func WritePDF(r *types.StructuredReport, path string) error {
	pdf, err := build(r)
	if err != nil {
		return err
	}
	return pdf.OutputFileAndClose(path)
}

// RenderPDF renders a structured report as PDF to w.
func RenderPDF(r *types.StructuredReport, w io.Writer) error {
	pdf, err := build(r)
	if err != nil {
		return err
	}
	return pdf.Output(w)
}

func build(r *types.StructuredReport) (*gofpdf.Fpdf, error) {
	if r == nil {
		return nil, fmt.Errorf("no report to render")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("JobAI analysis report", true)
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Analysis Report", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	section := func(title string, lines []string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		if len(lines) == 0 {
			pdf.MultiCell(0, 5, emptySection, "", "L", false)
		}
		for _, line := range lines {
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
		pdf.Ln(4)
	}

	if s := strings.TrimSpace(r.Summary); s != "" {
		section("Summary", strings.Split(s, "\n"))
	}
	section("ATS Feedback", prefixed(nonEmpty(r.ATSFeedback), "- "))
	if keywords := nonEmpty(r.Keywords); len(keywords) > 0 {
		section("Keywords", []string{strings.Join(keywords, ", ")})
	} else {
		section("Keywords", nil)
	}
	section("STAR Bullets", prefixed(nonEmpty(r.StarBullets), "- "))
	section("Outreach", strings.Split(outreach(r.Outreach), "\n"))
	section("Interview Questions", numbered(nonEmpty(r.Interview)))

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render report PDF: %w", err)
	}
	return pdf, nil
}

func prefixed(items []string, prefix string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = prefix + item
	}
	return out
}

func numbered(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return out
}
