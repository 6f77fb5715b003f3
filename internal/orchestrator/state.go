package orchestrator

import "github.com/jonathan/jobai-assistant/internal/types"

// State is a step of the analysis flow.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSubmitting
	StateNegotiating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateNegotiating:
		return "negotiating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Busy reports whether an analysis is in flight. A busy orchestrator refuses new submissions.
func (s State) Busy() bool {
	return s == StateValidating || s == StateSubmitting || s == StateNegotiating
}

// Snapshot is a point-in-time copy of the orchestrator state.
type Snapshot struct {
	State          State
	JobDescription string
	Result         *types.AnalysisResult
	DocumentURL    string // Blob URL of the current document, empty unless State is StateDone
	Err            error
}
