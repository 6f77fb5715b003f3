package orchestrator

import (
	"errors"

	"github.com/jonathan/jobai-assistant/internal/negotiate"
	"github.com/jonathan/jobai-assistant/internal/types"
)

var (
	// ErrBusy is returned by Submit while another analysis is in flight
	ErrBusy = errors.New("an analysis is already running")
	// ErrClosed is returned once the orchestrator has been torn down
	ErrClosed = errors.New("orchestrator closed")
)

const (
	// MessageMissingJobDescription is shown when the job description is empty
	MessageMissingJobDescription = "No job description found."
	// MessageMissingResume is shown when no resume is attached
	MessageMissingResume = "Please upload your resume."
)

// ValidationError means the request was rejected before any network call.
type ValidationError struct {
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func validationError(err error) *ValidationError {
	switch {
	case errors.Is(err, types.ErrMissingJobDescription):
		return &ValidationError{Message: MessageMissingJobDescription, Cause: err}
	case errors.Is(err, types.ErrMissingResume):
		return &ValidationError{Message: MessageMissingResume, Cause: err}
	default:
		return &ValidationError{Message: err.Error(), Cause: err}
	}
}

// UserMessage returns the single-line message shown for err.
func UserMessage(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, ErrBusy):
		return "An analysis is already running."
	case errors.Is(err, ErrClosed):
		return "The session has ended."
	default:
		return negotiate.UserMessage(err)
	}
}
