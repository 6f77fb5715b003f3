// Package ingestion turns hand-supplied job description text into the cleaned form submitted
// for analysis, and records where it came from.
package ingestion

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	spaceRun     = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankLineRun = regexp.MustCompile(`\n{3,}`)
)

// bulletPrefixes mark list items whose indentation is kept.
var bulletPrefixes = []string{"- ", "* ", "• ", "· "}

// CleanText normalizes pasted job description text: LF line endings, single spaces inside
// lines, at most one blank line between paragraphs. Headings and list indentation survive.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "#") {
		return spaceRun.ReplaceAllString(trimmed, " ")
	}

	body := spaceRun.ReplaceAllString(trimmed, " ")
	if isBulletLine(trimmed) {
		indent := len(strings.TrimRight(line, " \t")) - len(strings.TrimLeft(strings.TrimRight(line, " \t"), " \t"))
		return strings.Repeat(" ", indent) + body
	}
	return body
}

func isBulletLine(trimmed string) bool {
	for _, prefix := range bulletPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// FromFile reads a job description text file and returns its cleaned text with metadata.
func FromFile(path string) (string, *Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("job description file not found: %w", err)
		}
		return "", nil, fmt.Errorf("failed to read job description file: %w", err)
	}

	cleaned := CleanText(string(content))
	return cleaned, NewMetadata(cleaned, "file://"+path), nil
}
