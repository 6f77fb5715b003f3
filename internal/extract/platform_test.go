package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://www.linkedin.com/jobs/view/123", PlatformLinkedIn},
		{"https://linkedin.com/jobs/view/123", PlatformLinkedIn},
		{"https://boards.greenhouse.io/acme/jobs/42", PlatformGreenhouse},
		{"https://jobs.lever.co/acme/abc", PlatformLever},
		{"https://acme.wd5.myworkdayjobs.com/en-US/careers/job/1", PlatformWorkday},
		{"https://careers.example.com/jobs/1", PlatformUnknown},
		{"://bad url", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestPlatformHints(t *testing.T) {
	assert.Nil(t, PlatformHints(PlatformLinkedIn))
	assert.Contains(t, PlatformHints(PlatformLever), ".posting-description")
	assert.Contains(t, PlatformHints(PlatformWorkday), "[data-automation-id='jobDescription']")
	assert.Contains(t, PlatformHints(PlatformUnknown), ".job-description")
}
