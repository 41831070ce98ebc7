package fitengine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFetcher replays a fixed sequence of status responses; once the
// script runs out it keeps returning the last entry.
type scriptedFetcher struct {
	mu      sync.Mutex
	script  []fetchStep
	calls   int
	delay   time.Duration
	blocked chan struct{}
}

type fetchStep struct {
	res StatusResult
	err error
}

func (f *scriptedFetcher) SessionStatus(ctx context.Context, sessionId string) (StatusResult, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	step := f.script[idx]
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return step.res, step.err
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func waitForResult(t *testing.T, results <-chan PollResult) PollResult {
	t.Helper()
	select {
	case res := <-results:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not deliver a result in time")
		return PollResult{}
	}
}

func TestPollerStopsOnCompleted(t *testing.T) {
	fetcher := &scriptedFetcher{script: []fetchStep{
		{res: StatusResult{Status: StatusProcessing}},
		{res: StatusResult{Status: StatusProcessing}},
		{res: StatusResult{Status: StatusCompleted, ResultURL: "https://cdn.example/result.png"}},
	}}
	p := NewPoller(fetcher, WithInterval(time.Millisecond))

	results := make(chan PollResult, 1)
	p.Start(context.Background(), "sess-1", func(r PollResult) { results <- r })

	res := waitForResult(t, results)
	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, "https://cdn.example/result.png", res.ResultURL)
	assert.Equal(t, 3, res.Attempts)
	assert.False(t, res.ProcessedAt.IsZero())

	// No attempt may fire after the terminal status.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 3, fetcher.callCount())
}

func TestPollerStopsOnFailed(t *testing.T) {
	fetcher := &scriptedFetcher{script: []fetchStep{
		{res: StatusResult{Status: StatusFailed}},
	}}
	p := NewPoller(fetcher, WithInterval(time.Millisecond))

	results := make(chan PollResult, 1)
	p.Start(context.Background(), "sess-2", func(r PollResult) { results <- r })

	res := waitForResult(t, results)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, 1, res.Attempts)
}

func TestPollerBudgetExhaustionIsTimeoutNotFailure(t *testing.T) {
	fetcher := &scriptedFetcher{script: []fetchStep{
		{res: StatusResult{Status: StatusProcessing}},
	}}
	p := NewPoller(fetcher, WithInterval(time.Millisecond), WithBudget(30))

	results := make(chan PollResult, 1)
	p.Start(context.Background(), "sess-3", func(r PollResult) { results <- r })

	res := waitForResult(t, results)
	assert.Equal(t, OutcomeTimedOut, res.Outcome)
	assert.Equal(t, 30, res.Attempts)
	assert.Equal(t, 30, fetcher.callCount())
}

func TestPollerTransientErrorsNeverStopTheLoop(t *testing.T) {
	boom := &TransientError{Op: "session status", Err: errors.New("connection reset")}
	fetcher := &scriptedFetcher{script: []fetchStep{
		{err: boom},
		{res: StatusResult{Status: StatusProcessing}},
		{err: boom},
		{err: boom},
		{res: StatusResult{Status: StatusCompleted, ResultURL: "u"}},
	}}
	p := NewPoller(fetcher, WithInterval(time.Millisecond))

	results := make(chan PollResult, 1)
	p.Start(context.Background(), "sess-4", func(r PollResult) { results <- r })

	res := waitForResult(t, results)
	assert.Equal(t, OutcomeCompleted, res.Outcome)
	assert.Equal(t, 5, res.Attempts)
}

func TestPollerUnknownStatusCountsAsStillProcessing(t *testing.T) {
	fetcher := &scriptedFetcher{script: []fetchStep{
		{res: StatusResult{Status: StatusUnknown}},
		{res: StatusResult{Status: StatusUnknown}},
	}}
	p := NewPoller(fetcher, WithInterval(time.Millisecond), WithBudget(4))

	results := make(chan PollResult, 1)
	p.Start(context.Background(), "sess-5", func(r PollResult) { results <- r })

	res := waitForResult(t, results)
	assert.Equal(t, OutcomeTimedOut, res.Outcome)
	assert.Equal(t, 4, res.Attempts)
}

func TestPollerCancelSuppressesSink(t *testing.T) {
	fetcher := &scriptedFetcher{
		script: []fetchStep{{res: StatusResult{Status: StatusProcessing}}},
		delay:  2 * time.Millisecond,
	}
	p := NewPoller(fetcher, WithInterval(time.Millisecond), WithBudget(5))

	var delivered sync.Map
	p.Start(context.Background(), "sess-6", func(r PollResult) {
		delivered.Store("hit", r)
	})

	// Cancel mid-run; the scheduled continuation must not reach the sink.
	time.Sleep(3 * time.Millisecond)
	p.Cancel()
	time.Sleep(30 * time.Millisecond)

	_, ok := delivered.Load("hit")
	assert.False(t, ok, "sink invoked after Cancel")
}

func TestPollerParentContextActsAsLivenessGuard(t *testing.T) {
	fetcher := &scriptedFetcher{script: []fetchStep{
		{res: StatusResult{Status: StatusProcessing}},
	}}
	p := NewPoller(fetcher, WithInterval(time.Millisecond), WithBudget(3))

	ctx, cancel := context.WithCancel(context.Background())
	results := make(chan PollResult, 1)
	p.Start(ctx, "sess-7", func(r PollResult) { results <- r })
	cancel()

	select {
	case res := <-results:
		t.Fatalf("sink invoked after context cancellation: %+v", res)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestPollerAttemptsAreSequential(t *testing.T) {
	// Each fetch takes longer than the interval; overlapping attempts would
	// finish out of order and inflate the concurrent call count.
	var mu sync.Mutex
	active, maxActive := 0, 0

	fetcher := &observingFetcher{onCall: func() {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
	}}
	p := NewPoller(fetcher, WithInterval(time.Millisecond), WithBudget(5))

	results := make(chan PollResult, 1)
	p.Start(context.Background(), "sess-8", func(r PollResult) { results <- r })
	res := waitForResult(t, results)

	require.Equal(t, OutcomeTimedOut, res.Outcome)
	assert.Equal(t, 1, maxActive, "status checks overlapped")
}

type observingFetcher struct {
	onCall func()
}

func (f *observingFetcher) SessionStatus(ctx context.Context, sessionId string) (StatusResult, error) {
	f.onCall()
	return StatusResult{Status: StatusProcessing}, nil
}
