// Package bridge carries job-description requests from the UI surface to a page-context
// script that owns the page document. Requests are one-shot and always bounded: a page
// without a script, a slow page or a failed extraction all surface as ChannelUnavailableError.
package bridge

import "fmt"

// TypeGetJobDescription asks the page script for the job description of its page.
const TypeGetJobDescription = "GET_JOB_DESCRIPTION"

// Request is the message sent by the UI surface.
type Request struct {
	Type string `json:"type"`
}

// Response is the page script's reply.
type Response struct {
	OK    bool   `json:"ok"`
	JD    string `json:"jd,omitempty"`
	Error string `json:"error,omitempty"`
}

// ChannelUnavailableError means the bridge produced no usable reply. Callers treat it as
// "job description unavailable" and let the user paste the text instead.
type ChannelUnavailableError struct {
	TabID   string
	Message string
	Cause   error
}

func (e *ChannelUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bridge channel unavailable (tab %s): %s: %v", e.TabID, e.Message, e.Cause)
	}
	return fmt.Sprintf("bridge channel unavailable (tab %s): %s", e.TabID, e.Message)
}

func (e *ChannelUnavailableError) Unwrap() error {
	return e.Cause
}
