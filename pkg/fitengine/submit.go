package fitengine

import (
	"context"
	"sync"
	"sync/atomic"
)

// SessionCreator is the slice of the service contract the submitter needs.
type SessionCreator interface {
	CreateSession(ctx context.Context, req CreateRequest) (string, error)
}

// Submitter turns gathered inputs into exactly one session-creation call.
// A second Submit while one is in flight returns ErrSubmissionInFlight and
// issues no request; the flag is the whole dedup story, by contract.
type Submitter struct {
	creator  SessionCreator
	inFlight atomic.Bool
}

func NewSubmitter(creator SessionCreator) *Submitter {
	return &Submitter{creator: creator}
}

// Submit validates locally, then performs the single create call. Validation
// failures never reach the network. On success the returned id is ready to
// hand to a Poller; on failure the caller resets to the input step without
// retrying here.
func (s *Submitter) Submit(ctx context.Context, req CreateRequest) (string, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return "", ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	if req.PhotoFile == nil && req.PhotoURL == "" {
		return "", &ValidationError{Field: "photo", Reason: "is required"}
	}
	if len(req.Products) == 0 {
		return "", &ValidationError{Field: "products", Reason: "must not be empty"}
	}
	if req.PhotoFile != nil {
		// File takes precedence when both are resolvable; never send both.
		req.PhotoURL = ""
	}

	return s.creator.CreateSession(ctx, req)
}

// Submitting reports whether a submission is currently in flight.
func (s *Submitter) Submitting() bool {
	return s.inFlight.Load()
}

// FlowState is the submission flow's UI-facing state machine:
// SUBMITTING → POLLING → {RESULT_READY | FAILED | TIMED_OUT}. The three
// right-hand states are terminal; only a fresh user action re-enters.
type FlowState int

const (
	FlowIdle FlowState = iota
	FlowSubmitting
	FlowPolling
	FlowResultReady
	FlowFailed
	FlowTimedOut
)

func (s FlowState) String() string {
	switch s {
	case FlowSubmitting:
		return "SUBMITTING"
	case FlowPolling:
		return "POLLING"
	case FlowResultReady:
		return "RESULT_READY"
	case FlowFailed:
		return "FAILED"
	case FlowTimedOut:
		return "TIMED_OUT"
	default:
		return "IDLE"
	}
}

// FlowEvent describes a state change for whatever surface renders the flow.
type FlowEvent struct {
	State     FlowState
	SessionId string
	ResultURL string
	// Message carries the user-facing text for FAILED / TIMED_OUT / back-to-
	// input transitions. Timeout reads as "still working", not "it broke".
	Message string
}

// Flow orchestrates gather → create → poll → terminal render for one view.
// Dispose is the view-teardown hook; after it no event is emitted.
type Flow struct {
	submitter *Submitter
	poller    *Poller
	emit      func(FlowEvent)

	mu    sync.Mutex
	state FlowState
}

func NewFlow(submitter *Submitter, poller *Poller, emit func(FlowEvent)) *Flow {
	return &Flow{
		submitter: submitter,
		poller:    poller,
		emit:      emit,
		state:     FlowIdle,
	}
}

// State returns the current flow state.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Begin runs one submission. Returns ErrSubmissionInFlight (a no-op for the
// caller) when pressed twice, and a ValidationError before any network work.
func (f *Flow) Begin(ctx context.Context, req CreateRequest) error {
	if f.submitter.Submitting() {
		return ErrSubmissionInFlight
	}

	f.transition(FlowEvent{State: FlowSubmitting})
	sessionId, err := f.submitter.Submit(ctx, req)
	if err != nil {
		f.transition(FlowEvent{State: FlowIdle, Message: submitFailureText(err)})
		return err
	}

	f.transition(FlowEvent{State: FlowPolling, SessionId: sessionId})
	f.poller.Start(ctx, sessionId, f.onPollResult)
	return nil
}

// Dispose cancels any live polling; called when the owning view is torn down.
func (f *Flow) Dispose() {
	f.poller.Cancel()
}

func (f *Flow) onPollResult(res PollResult) {
	switch res.Outcome {
	case OutcomeCompleted:
		f.transition(FlowEvent{State: FlowResultReady, SessionId: res.SessionId, ResultURL: res.ResultURL})
	case OutcomeFailed:
		f.transition(FlowEvent{State: FlowFailed, SessionId: res.SessionId,
			Message: "Generation failed. Please try again."})
	case OutcomeTimedOut:
		f.transition(FlowEvent{State: FlowTimedOut, SessionId: res.SessionId,
			Message: "This is taking longer than expected. Check back in a moment."})
	}
}

func (f *Flow) transition(ev FlowEvent) {
	f.mu.Lock()
	f.state = ev.State
	f.mu.Unlock()
	if f.emit != nil {
		f.emit(ev)
	}
}

func submitFailureText(err error) string {
	switch {
	case IsValidation(err):
		return err.Error()
	case IsTerminal(err):
		return "We couldn't start your try-on. Please try again."
	default:
		return "Connection problem. Please check your network and try again."
	}
}
