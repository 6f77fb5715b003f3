package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText_PreserveMarkdownHeadings(t *testing.T) {
	result := CleanText("  # Title\n## Subtitle\nContent here")

	assert.Equal(t, "# Title\n## Subtitle\nContent here", result)
}

func TestCleanText_PreserveBulletLists(t *testing.T) {
	result := CleanText("- Item 1\n  - Nested   item\n* Item 3\n• Item 4")

	assert.Equal(t, "- Item 1\n  - Nested item\n* Item 3\n• Item 4", result)
}

func TestCleanText_NormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "Line with multiple spaces", CleanText("   Line    with\tmultiple   spaces  "))
}

func TestCleanText_RemoveExcessiveBlankLines(t *testing.T) {
	assert.Equal(t, "Line 1\n\nLine 2", CleanText("Line 1\n\n\n  \n\nLine 2"))
}

func TestCleanText_NormalizeLineEndings(t *testing.T) {
	assert.Equal(t, "Line 1\nLine 2\nLine 3\nLine 4", CleanText("Line 1\r\nLine 2\rLine 3\nLine 4"))
}

func TestCleanText_EmptyInput(t *testing.T) {
	assert.Empty(t, CleanText(""))
	assert.Empty(t, CleanText(" \n\t\n"))
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jd.txt")
	require.NoError(t, os.WriteFile(path, []byte("Senior   Engineer\r\n\r\n\r\n- Go\r\n"), 0644))

	text, meta, err := FromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Senior Engineer\n\n- Go", text)
	assert.Equal(t, "file://"+path, meta.Source)
	assert.Equal(t, len([]rune(text)), meta.Chars)
}

func TestFromFile_NotFound(t *testing.T) {
	_, _, err := FromFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
