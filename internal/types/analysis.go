package types

import (
	"errors"
	"strings"
)

var (
	// ErrMissingJobDescription is returned when the job description is empty or whitespace-only
	ErrMissingJobDescription = errors.New("no job description found")
	// ErrMissingResume is returned when no resume file is attached
	ErrMissingResume = errors.New("no resume attached")
)

// ResumeFile is an uploaded resume: raw bytes plus the metadata sent with the multipart part.
type ResumeFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Empty reports whether the file carries no content.
func (f *ResumeFile) Empty() bool {
	return f == nil || len(f.Data) == 0
}

// AnalysisRequest is the input submitted to the analyze endpoint.
type AnalysisRequest struct {
	JobDescription string
	Resume         *ResumeFile
}

// Validate checks that both the job description and the resume are present.
func (r *AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.JobDescription) == "" {
		return ErrMissingJobDescription
	}
	if r.Resume.Empty() {
		return ErrMissingResume
	}
	return nil
}

// Document is a binary document returned by the backend (PDF, DOCX, ...).
type Document struct {
	Data        []byte
	ContentType string
	Filename    string
	SourceURL   string // Where the document was fetched from; empty when it was the primary body
}

// AnalysisResult is the normalized outcome of an analyze call.
// At least one of Report and Document is set on success.
type AnalysisResult struct {
	Report   *StructuredReport
	Document *Document
	Shape    string // Reply shape the negotiator selected
}

// Valid reports whether the result carries at least one usable field.
func (r *AnalysisResult) Valid() bool {
	if r == nil {
		return false
	}
	return r.Report != nil || (r.Document != nil && len(r.Document.Data) > 0)
}
