package fitengine

import (
	"context"
	"sync"
	"time"
)

// Outcome is the terminal result of one polling run.
type Outcome int

const (
	// OutcomeCompleted: the service reported COMPLETED; the result is ready.
	OutcomeCompleted Outcome = iota
	// OutcomeFailed: the service reported FAILED; generation broke.
	OutcomeFailed
	// OutcomeTimedOut: the attempt budget ran out without a terminal status.
	// The session may still complete server-side; we just stopped watching.
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "COMPLETED"
	case OutcomeFailed:
		return "FAILED"
	default:
		return "TIMED_OUT"
	}
}

// PollResult is delivered to the sink exactly once per run.
type PollResult struct {
	SessionId   string
	Outcome     Outcome
	ResultURL   string
	Attempts    int
	ProcessedAt time.Time
}

// StatusFetcher is the one slice of the service contract the poller needs.
type StatusFetcher interface {
	SessionStatus(ctx context.Context, sessionId string) (StatusResult, error)
}

const (
	defaultPollInterval = time.Second
	defaultPollBudget   = 30
)

// Poller drives repeated status checks for one session until a terminal
// status or budget exhaustion. Attempts are strictly sequential: the next one
// is scheduled only after the previous outcome is known, so a session never
// has overlapping in-flight status checks.
//
// Cancel is the single liveness switch: once the owning view calls it (or the
// Start context ends), no further attempt fires and the sink is never
// invoked, so a torn-down view cannot be mutated by a late callback.
type Poller struct {
	fetcher  StatusFetcher
	interval time.Duration
	budget   int

	mu     sync.Mutex
	cancel context.CancelFunc
}

// PollerOption tweaks budget or interval; production code uses the defaults
// (1s interval, 30 attempts).
type PollerOption func(*Poller)

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) { p.interval = d }
}

func WithBudget(attempts int) PollerOption {
	return func(p *Poller) { p.budget = attempts }
}

func NewPoller(fetcher StatusFetcher, opts ...PollerOption) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		interval: defaultPollInterval,
		budget:   defaultPollBudget,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling sessionId in a new goroutine. The sink receives the
// terminal PollResult unless the run is cancelled first. Starting while a
// previous run is live cancels that run.
func (p *Poller) Start(ctx context.Context, sessionId string, sink func(PollResult)) {
	runCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	p.mu.Unlock()

	go p.run(runCtx, sessionId, sink)
}

// Cancel stops the current run. Safe to call repeatedly and from any
// goroutine; after it returns no new attempt will be scheduled.
func (p *Poller) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Poller) run(ctx context.Context, sessionId string, sink func(PollResult)) {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for attempt := 1; attempt <= p.budget; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		res, err := p.fetcher.SessionStatus(ctx, sessionId)
		if ctx.Err() != nil {
			return
		}

		switch {
		case err != nil:
			// Transient fetch failure: the attempt counts against the budget
			// but never stops the loop. Only a terminal status does that.
		case res.Status == StatusCompleted:
			p.deliver(ctx, sink, PollResult{
				SessionId:   sessionId,
				Outcome:     OutcomeCompleted,
				ResultURL:   res.ResultURL,
				Attempts:    attempt,
				ProcessedAt: time.Now(),
			})
			return
		case res.Status == StatusFailed:
			p.deliver(ctx, sink, PollResult{
				SessionId:   sessionId,
				Outcome:     OutcomeFailed,
				Attempts:    attempt,
				ProcessedAt: time.Now(),
			})
			return
		default:
			// PROCESSING or an unrecognized shape: keep waiting.
		}

		timer.Reset(p.interval)
	}

	p.deliver(ctx, sink, PollResult{
		SessionId: sessionId,
		Outcome:   OutcomeTimedOut,
		Attempts:  p.budget,
	})
}

func (p *Poller) deliver(ctx context.Context, sink func(PollResult), res PollResult) {
	if ctx.Err() != nil {
		return
	}
	sink(res)
}
