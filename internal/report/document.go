package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jonathan/jobai-assistant/internal/types"
)

// SaveDocument writes doc into dir and returns the written path. The directory is created when
// missing. The file name comes from the document, falling back to one derived from its content.
func SaveDocument(doc *types.Document, dir string) (string, error) {
	if doc == nil || len(doc.Data) == 0 {
		return "", fmt.Errorf("no document to save")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, DocumentFilename(doc))
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write document %s: %w", path, err)
	}
	return path, nil
}

// DocumentFilename returns a safe base name for doc.
func DocumentFilename(doc *types.Document) string {
	name := filepath.Base(strings.ReplaceAll(strings.TrimSpace(doc.Filename), `\`, "/"))
	if name == "." || name == "/" || name == "" || strings.HasPrefix(name, "..") {
		name = "report"
	}
	if filepath.Ext(name) == "" {
		name += mimetype.Detect(doc.Data).Extension()
	}
	return name
}
