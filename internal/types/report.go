// Package types provides type definitions for structured data used throughout the jobai assistant.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// Outreach holds the recruiter outreach drafts produced by the backend
type Outreach struct {
	Email    string `json:"email,omitempty" mapstructure:"email"`
	LinkedIn string `json:"linkedin,omitempty" mapstructure:"linkedin"`
}

// StructuredReport is the analysis output decomposed into feedback, keywords, rewritten bullets,
// outreach drafts and interview questions. Every field is optional; a missing field decodes to its
// zero value and is rendered as an empty section.
type StructuredReport struct {
	ATSFeedback []string `json:"ats_feedback,omitempty" mapstructure:"ats_feedback"`
	Keywords    []string `json:"keywords,omitempty" mapstructure:"keywords"`
	StarBullets []string `json:"star_bullets,omitempty" mapstructure:"star_bullets"`
	Outreach    Outreach `json:"outreach,omitempty" mapstructure:"outreach"`
	Interview   []string `json:"interview,omitempty" mapstructure:"interview"`
	Summary     string   `json:"result,omitempty" mapstructure:"result"` // Free-text report, when the backend sends one
}

// IsEmpty reports whether no section of the report carries content.
func (r *StructuredReport) IsEmpty() bool {
	if r == nil {
		return true
	}
	return len(r.ATSFeedback) == 0 &&
		len(r.Keywords) == 0 &&
		len(r.StarBullets) == 0 &&
		len(r.Interview) == 0 &&
		strings.TrimSpace(r.Outreach.Email) == "" &&
		strings.TrimSpace(r.Outreach.LinkedIn) == "" &&
		strings.TrimSpace(r.Summary) == ""
}

// ReportFields lists the top-level JSON keys that mark a body as carrying an inline report.
var ReportFields = []string{"ats_feedback", "keywords", "star_bullets", "outreach", "interview", "result"}
