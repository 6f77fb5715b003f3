package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReport_Valid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"full report", `{
			"ats_feedback": ["Add metrics"],
			"keywords": ["Go", "Kafka"],
			"star_bullets": ["Cut p99 latency by 40%"],
			"outreach": {"email": "Hi", "linkedin": "Hello"},
			"interview": ["Tell me about Kafka"]
		}`},
		{"partial report", `{"keywords": ["Go"]}`},
		{"backend text report", `{"status": "success", "result": "### Key Skills", "downloads": {"docx": "generated_reports/resume_report.docx", "txt": null}}`},
		{"nulls tolerated", `{"keywords": null, "outreach": null}`},
		{"unknown fields", `{"keywords": [], "score": 87}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, ValidateReport([]byte(tt.body)))
		})
	}
}

func TestValidateReport_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"keywords not a list", `{"keywords": "Go"}`, "keywords"},
		{"list of numbers", `{"ats_feedback": [1, 2]}`, "ats_feedback.0"},
		{"outreach wrong type", `{"outreach": {"email": 5}}`, "outreach.email"},
		{"not an object", `["Go"]`, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReport([]byte(tt.body))
			require.Error(t, err)

			validationErr, ok := err.(*ValidationError)
			require.True(t, ok, "error should be ValidationError type")
			require.NotEmpty(t, validationErr.Errors)
			assert.Equal(t, tt.field, validationErr.Errors[0].Field)
			assert.Contains(t, validationErr.Summary(), tt.field)
		})
	}
}

func TestValidateReport_MalformedJSON(t *testing.T) {
	err := ValidateReport([]byte("{ invalid json }"))
	require.Error(t, err)

	_, ok := err.(*SchemaLoadError)
	assert.True(t, ok, "malformed documents fail to load")
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "name", Message: "is required"},
			{Field: "age", Message: "must be a number"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "name")
	assert.Contains(t, errorMsg, "age")
	assert.Equal(t, "name: is required; age: must be a number", err.Summary())
}
