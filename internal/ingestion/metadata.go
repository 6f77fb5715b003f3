package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/jonathan/jobai-assistant/internal/extract"
)

// Output file names written by WriteOutput.
const (
	TextFile     = "job_description.txt"
	MetadataFile = "job_description.meta.json"
)

// Metadata describes an extracted or supplied job description.
type Metadata struct {
	Source    string `json:"source,omitempty"`   // Page URL or file:// path
	Platform  string `json:"platform,omitempty"` // Detected job board platform
	Timestamp string `json:"timestamp"`          // RFC3339 format
	Hash      string `json:"hash"`               // SHA256 hex digest of the text
	Chars     int    `json:"chars"`
}

// NewMetadata creates a new Metadata instance with current timestamp
func NewMetadata(text string, source string) *Metadata {
	m := &Metadata{
		Source:    source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(text),
		Chars:     utf8.RuneCountInString(text),
	}
	if platform := extract.DetectPlatform(source); platform != extract.PlatformUnknown {
		m.Platform = string(platform)
	}
	return m
}

func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// ToJSON marshals Metadata to pretty-printed JSON
func (m *Metadata) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return jsonBytes, nil
}

// WriteOutput writes the job description text and its metadata into outDir.
func WriteOutput(outDir string, text string, metadata *Metadata) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	textPath := filepath.Join(outDir, TextFile)
	if err := os.WriteFile(textPath, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write job description file: %w", err)
	}

	metaJSON, err := metadata.ToJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, MetadataFile), metaJSON, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}

	return nil
}
