// Package extract - platform.go provides platform detection and platform-specific hints.
package extract

import (
	"net/url"
	"strings"
)

// Platform represents a known job board platform.
type Platform string

const (
	// PlatformLinkedIn is the LinkedIn jobs site; DefaultHints already target it
	PlatformLinkedIn Platform = "linkedin"
	// PlatformGreenhouse is the Greenhouse ATS platform
	PlatformGreenhouse Platform = "greenhouse"
	// PlatformLever is the Lever ATS platform
	PlatformLever Platform = "lever"
	// PlatformWorkday is the Workday ATS platform
	PlatformWorkday Platform = "workday"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

// DetectPlatform identifies the job board platform from a URL.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}

	host := strings.ToLower(parsed.Hostname())

	switch {
	case host == "linkedin.com" || strings.HasSuffix(host, ".linkedin.com"):
		return PlatformLinkedIn
	case strings.Contains(host, "greenhouse.io"):
		return PlatformGreenhouse
	case strings.Contains(host, "lever.co"):
		return PlatformLever
	case strings.Contains(host, "workday.com") || strings.Contains(host, "myworkdayjobs.com"):
		return PlatformWorkday
	}

	return PlatformUnknown
}

// PlatformHints returns the hints specific to a platform. For PlatformUnknown these are
// generic guesses that New tries after DefaultHints.
func PlatformHints(platform Platform) []string {
	switch platform {
	case PlatformGreenhouse:
		return []string{
			".job__description.body",
			".job__description",
			".job-description__content",
			"#content .job-post-container",
		}
	case PlatformLever:
		return []string{
			".posting-page .section-wrapper.page-full-width",
			".posting-description",
			".posting-page",
		}
	case PlatformWorkday:
		return []string{
			"[data-automation-id='jobPostingDescription']",
			"[data-automation-id='jobDescription']",
		}
	case PlatformUnknown:
		return []string{
			".job-description",
			"#job-description",
			"[data-testid='job-description']",
			".job-details",
		}
	default:
		return nil
	}
}
