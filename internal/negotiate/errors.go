package negotiate

import (
	"errors"
	"fmt"
	"strings"
)

// InvalidResponseMessage is the user-facing message for replies that cannot be classified.
const InvalidResponseMessage = "Invalid response from server"

// NetworkError means a fetch failed outright or returned a non-2xx status.
type NetworkError struct {
	URL     string
	Status  int    // Zero when no response was received
	Message string // What failed
	Detail  string // Best-effort response body text
	Cause   error
}

func (e *NetworkError) Error() string {
	var sb strings.Builder
	sb.WriteString("network error")
	if e.URL != "" {
		sb.WriteString(" for " + e.URL)
	}
	sb.WriteString(": " + e.Message)
	if e.Status != 0 {
		sb.WriteString(fmt.Sprintf(" (status %d)", e.Status))
	}
	if e.Detail != "" {
		sb.WriteString(": " + e.Detail)
	}
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Cause))
	}
	return sb.String()
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the single-line text shown to the user.
func (e *NetworkError) UserMessage() string {
	if detail := singleLine(e.Detail); detail != "" {
		return detail
	}
	if e.Status != 0 {
		return fmt.Sprintf("Request failed: %d", e.Status)
	}
	return "Request failed: " + e.Message
}

// ResponseShapeError means the reply could not be classified or parsed.
type ResponseShapeError struct {
	Message string
	Cause   error
}

func (e *ResponseShapeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("response shape error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("response shape error: %s", e.Message)
}

func (e *ResponseShapeError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the single-line text shown to the user.
func (e *ResponseShapeError) UserMessage() string {
	return InvalidResponseMessage
}

// SecondaryFetchError means the follow-up document fetch failed after a successful primary reply.
// Escalated is set when the document was the primary deliverable.
type SecondaryFetchError struct {
	URL       string
	Escalated bool
	Cause     error
}

func (e *SecondaryFetchError) Error() string {
	return fmt.Sprintf("document fetch failed for %s: %v", e.URL, e.Cause)
}

func (e *SecondaryFetchError) Unwrap() error {
	return e.Cause
}

// UserMessage returns the single-line text shown to the user.
func (e *SecondaryFetchError) UserMessage() string {
	if ne, ok := e.Cause.(*NetworkError); ok {
		return "Report document unavailable: " + ne.UserMessage()
	}
	return "Report document unavailable."
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// UserMessage returns the single-line message shown to the user for any negotiation error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var secondary *SecondaryFetchError
	if errors.As(err, &secondary) {
		return secondary.UserMessage()
	}
	var network *NetworkError
	if errors.As(err, &network) {
		return network.UserMessage()
	}
	var shape *ResponseShapeError
	if errors.As(err, &shape) {
		return shape.UserMessage()
	}
	return singleLine(err.Error())
}
