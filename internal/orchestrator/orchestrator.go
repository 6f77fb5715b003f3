// Package orchestrator drives an analysis from job description and resume to a normalized result.
//
// The flow is an explicit state machine:
//
//	Idle -> Validating -> Submitting -> Negotiating -> Done | Failed
//
// Done and Failed accept a new submission. Only one analysis may be in flight at a time.
package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/jonathan/jobai-assistant/internal/logger"
	"github.com/jonathan/jobai-assistant/internal/types"
)

// Submitter posts an analysis request and returns the raw reply.
type Submitter interface {
	Submit(ctx context.Context, req *types.AnalysisRequest) (*http.Response, error)
}

// Normalizer turns a raw reply into an AnalysisResult.
type Normalizer interface {
	Normalize(ctx context.Context, resp *http.Response) (*types.AnalysisResult, error)
}

// Channel fetches the job description from the active page.
type Channel interface {
	RequestJobDescription(ctx context.Context) (string, error)
}

// Blobs hands out and releases document URLs.
type Blobs interface {
	Create(doc *types.Document) string
	Revoke(url string) bool
}

// Deps are the collaborators of an Orchestrator. Channel is optional.
type Deps struct {
	Submitter  Submitter
	Normalizer Normalizer
	Channel    Channel
	Blobs      Blobs
	Logger     *zap.Logger
}

// Orchestrator owns the analysis state and the current document URL.
type Orchestrator struct {
	deps Deps
	log  *zap.Logger

	ctx  context.Context
	stop context.CancelFunc

	mu        sync.Mutex
	state     State
	jd        string
	jdByUser  bool
	resume    *types.ResumeFile
	result    *types.AnalysisResult
	docURL    string
	err       error
	closed    bool
	observers []func(Snapshot)
}

// New returns an idle orchestrator.
func New(deps Deps) *Orchestrator {
	ctx, stop := context.WithCancel(context.Background())
	return &Orchestrator{
		deps:  deps,
		log:   logger.OrNop(deps.Logger),
		ctx:   ctx,
		stop:  stop,
		state: StateIdle,
	}
}

// OnChange registers fn to be called with a snapshot after every state change.
func (o *Orchestrator) OnChange(fn func(Snapshot)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = append(o.observers, fn)
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// SetJobDescription sets the job description text. A user-supplied description is never
// overwritten by a prefetch.
func (o *Orchestrator) SetJobDescription(jd string) {
	o.update(func() {
		o.jd = jd
		o.jdByUser = true
	})
}

// SetResume attaches the resume file.
func (o *Orchestrator) SetResume(f *types.ResumeFile) {
	o.update(func() {
		o.resume = f
	})
}

// PrefetchJobDescription asks the page for its job description once. Failures are logged at debug
// level and otherwise ignored; the user can still supply the text by hand. It reports whether a
// description was stored.
func (o *Orchestrator) PrefetchJobDescription(ctx context.Context) bool {
	if o.deps.Channel == nil {
		return false
	}

	ctx, cancel := o.bind(ctx)
	defer cancel()

	jd, err := o.deps.Channel.RequestJobDescription(ctx)
	if err != nil {
		o.log.Debug("job description prefetch unavailable", zap.Error(err))
		return false
	}

	stored := false
	o.update(func() {
		if o.closed || o.jdByUser {
			return
		}
		o.jd = jd
		stored = true
	})
	if stored {
		o.log.Debug("job description prefetched", zap.String("jd", logger.TruncateForLog(jd, 80)))
	}
	return stored
}

// Submit runs one analysis to completion. It returns ErrBusy while another analysis is in flight
// and a *ValidationError, without any network call, when an input is missing.
func (o *Orchestrator) Submit(ctx context.Context) (*types.AnalysisResult, error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	if o.state.Busy() {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	o.state = StateValidating
	o.result = nil
	o.err = nil
	req := &types.AnalysisRequest{JobDescription: o.jd, Resume: o.resume}
	o.mu.Unlock()
	o.notify()

	if err := req.Validate(); err != nil {
		verr := validationError(err)
		o.fail(verr)
		return nil, verr
	}

	ctx, cancel := o.bind(ctx)
	defer cancel()

	o.transition(StateSubmitting)
	resp, err := o.deps.Submitter.Submit(ctx, req)
	if err != nil {
		o.fail(err)
		return nil, err
	}

	o.transition(StateNegotiating)
	result, err := o.deps.Normalizer.Normalize(ctx, resp)
	if err != nil {
		o.fail(err)
		return nil, err
	}

	if err := o.complete(result); err != nil {
		return nil, err
	}
	return result, nil
}

// Close abandons in-flight work and releases the current document URL. Completions arriving
// after Close do not change state.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	url := o.docURL
	o.docURL = ""
	o.observers = nil
	o.mu.Unlock()

	o.stop()
	if url != "" {
		o.deps.Blobs.Revoke(url)
	}
}

// complete stores a successful result. The previous document URL is revoked before the new
// one is assigned.
func (o *Orchestrator) complete(result *types.AnalysisResult) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}

	if o.docURL != "" {
		o.deps.Blobs.Revoke(o.docURL)
		o.docURL = ""
	}
	if result.Document != nil {
		o.docURL = o.deps.Blobs.Create(result.Document)
	}

	o.result = result
	o.err = nil
	o.state = StateDone
	o.mu.Unlock()

	o.log.Info("analysis complete",
		zap.String(logger.FieldState, StateDone.String()),
		zap.String(logger.FieldShape, result.Shape))
	o.notify()
	return nil
}

func (o *Orchestrator) fail(err error) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.err = err
	o.state = StateFailed
	o.mu.Unlock()

	var verr *ValidationError
	if errors.As(err, &verr) {
		o.log.Debug("analysis rejected", zap.String("reason", verr.Message))
	} else {
		o.log.Warn("analysis failed", zap.Error(err))
	}
	o.notify()
}

func (o *Orchestrator) transition(s State) {
	o.update(func() {
		if !o.closed {
			o.state = s
		}
	})
	o.log.Debug("state changed", zap.String(logger.FieldState, s.String()))
}

// update applies fn under the lock and notifies observers.
func (o *Orchestrator) update(fn func()) {
	o.mu.Lock()
	fn()
	o.mu.Unlock()
	o.notify()
}

func (o *Orchestrator) notify() {
	o.mu.Lock()
	observers := append([]func(Snapshot){}, o.observers...)
	snap := o.snapshotLocked()
	o.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

// snapshotLocked exposes the document URL only in StateDone. A superseded document stays
// allocated until the next success or Close but is not shown next to a newer attempt.
func (o *Orchestrator) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:          o.state,
		JobDescription: o.jd,
		Result:         o.result,
		Err:            o.err,
	}
	if o.state == StateDone {
		snap.DocumentURL = o.docURL
	}
	return snap
}

// bind derives a context that is also cancelled by Close.
func (o *Orchestrator) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(o.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
