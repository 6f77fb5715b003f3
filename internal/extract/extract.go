// Package extract locates the job description inside an arbitrary job-listing page.
// It walks a priority-ordered list of structural hints and falls back to the longest
// text block on the page when none of them yields enough text.
package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// MinHintLength is the number of characters a hint match must exceed to be accepted.
// Shorter matches are navigation or label text that happens to share a class name.
const MinHintLength = 120

// fallbackSelector lists the paragraph-like and generic block elements scanned when no hint matches.
const fallbackSelector = "p, div"

// DefaultHints returns the structural hints for known job-posting layouts, highest priority first.
func DefaultHints() []string {
	return []string{
		`[class*="description__text"]`,
		"[data-test-description] article",
		"[data-test-description] div",
		"section.jobs-description__container *",
		"div.jobs-description__content *",
		"div.show-more-less-html__markup",
	}
}

// Extractor finds job description text in a parsed document.
type Extractor struct {
	Hints     []string
	MinLength int
}

// New returns an Extractor whose hint list starts with the hints specific to platform,
// followed by DefaultHints. For an unknown platform the generic guesses come after DefaultHints.
func New(platform Platform) *Extractor {
	var hints []string
	if platform == PlatformUnknown {
		hints = append(DefaultHints(), PlatformHints(platform)...)
	} else {
		hints = append(PlatformHints(platform), DefaultHints()...)
	}
	return &Extractor{
		Hints:     dedupe(hints),
		MinLength: MinHintLength,
	}
}

// Default returns an Extractor using only DefaultHints.
func Default() *Extractor {
	return &Extractor{Hints: DefaultHints(), MinLength: MinHintLength}
}

// JobDescription extracts the job description from doc with the default hints.
func JobDescription(doc *goquery.Document) string {
	return Default().Extract(doc)
}

// Extract returns the best-effort job description text. It never fails: a page without
// any text yields an empty string.
func (e *Extractor) Extract(doc *goquery.Document) string {
	if doc == nil {
		return ""
	}

	minLength := e.MinLength
	if minLength <= 0 {
		minLength = MinHintLength
	}

	for _, hint := range e.Hints {
		match := doc.Find(hint).First()
		if match.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(InnerText(match))
		if utf8.RuneCountInString(text) > minLength {
			return text
		}
	}

	return longestBlock(doc)
}

// longestBlock returns the longest trimmed text among all block elements.
// Ties keep the element seen first in document order.
func longestBlock(doc *goquery.Document) string {
	best := ""
	bestLen := 0
	doc.Find(fallbackSelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(InnerText(s))
		if n := utf8.RuneCountInString(text); n > bestLen {
			best = text
			bestLen = n
		}
	})
	return best
}

// FromHTML parses raw HTML and extracts the job description with the default hints.
func FromHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return JobDescription(doc), nil
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
