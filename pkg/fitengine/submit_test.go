package fitengine

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockingCreator struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (c *blockingCreator) CreateSession(ctx context.Context, req CreateRequest) (string, error) {
	c.calls.Add(1)
	if c.release != nil {
		<-c.release
	}
	if c.err != nil {
		return "", c.err
	}
	return "sess-ok", nil
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name      string
		req       CreateRequest
		wantField string
	}{
		{
			name:      "no photo at all",
			req:       CreateRequest{Products: []ProductRef{{Id: "p1"}}},
			wantField: "photo",
		},
		{
			name:      "empty product set",
			req:       CreateRequest{PhotoURL: "https://cdn.example/me.jpg"},
			wantField: "products",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &blockingCreator{}
			s := NewSubmitter(creator)

			_, err := s.Submit(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantField)
			// Validation failures never reach the network.
			assert.Equal(t, int32(0), creator.calls.Load())
		})
	}
}

func TestSubmitIssuesExactlyOneCall(t *testing.T) {
	creator := &blockingCreator{}
	s := NewSubmitter(creator)

	id, err := s.Submit(context.Background(), CreateRequest{
		PhotoURL: "https://cdn.example/me.jpg",
		Products: []ProductRef{{Id: "p1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "sess-ok", id)
	assert.Equal(t, int32(1), creator.calls.Load())
}

func TestSubmitSecondClickWhileInFlightIsNoOp(t *testing.T) {
	creator := &blockingCreator{release: make(chan struct{})}
	s := NewSubmitter(creator)

	req := CreateRequest{
		PhotoURL: "https://cdn.example/me.jpg",
		Products: []ProductRef{{Id: "p1"}},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.Submit(context.Background(), req)
	}()

	// Wait until the first submission is actually in flight.
	for !s.Submitting() {
		time.Sleep(time.Millisecond)
	}

	_, err := s.Submit(context.Background(), req)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(creator.release)
	wg.Wait()

	// Still exactly one create call.
	assert.Equal(t, int32(1), creator.calls.Load())
}

func TestSubmitFilePrecedenceOverURL(t *testing.T) {
	var captured CreateRequest
	creator := &captureCreator{onCreate: func(req CreateRequest) { captured = req }}
	s := NewSubmitter(creator)

	_, err := s.Submit(context.Background(), CreateRequest{
		PhotoFile: strings.NewReader("jpegbytes"),
		PhotoName: "me.jpg",
		PhotoURL:  "https://cdn.example/stored.jpg",
		Products:  []ProductRef{{Id: "p1"}},
	})
	require.NoError(t, err)
	assert.NotNil(t, captured.PhotoFile)
	assert.Empty(t, captured.PhotoURL, "file and URL are mutually exclusive on the wire")
}

type captureCreator struct {
	onCreate func(CreateRequest)
}

func (c *captureCreator) CreateSession(ctx context.Context, req CreateRequest) (string, error) {
	c.onCreate(req)
	return "sess-ok", nil
}

func TestFlowTerminalStates(t *testing.T) {
	tests := []struct {
		name      string
		script    []fetchStep
		budget    int
		wantState FlowState
	}{
		{
			name:      "completed",
			script:    []fetchStep{{res: StatusResult{Status: StatusCompleted, ResultURL: "u"}}},
			budget:    5,
			wantState: FlowResultReady,
		},
		{
			name:      "failed",
			script:    []fetchStep{{res: StatusResult{Status: StatusFailed}}},
			budget:    5,
			wantState: FlowFailed,
		},
		{
			name:      "timed out",
			script:    []fetchStep{{res: StatusResult{Status: StatusProcessing}}},
			budget:    2,
			wantState: FlowTimedOut,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &scriptedFetcher{script: tt.script}
			poller := NewPoller(fetcher, WithInterval(time.Millisecond), WithBudget(tt.budget))

			done := make(chan FlowEvent, 8)
			flow := NewFlow(NewSubmitter(&blockingCreator{}), poller, func(ev FlowEvent) {
				done <- ev
			})

			err := flow.Begin(context.Background(), CreateRequest{
				PhotoURL: "https://cdn.example/me.jpg",
				Products: []ProductRef{{Id: "p1"}},
			})
			require.NoError(t, err)

			deadline := time.After(2 * time.Second)
			for {
				select {
				case ev := <-done:
					if ev.State == tt.wantState {
						if tt.wantState != FlowResultReady {
							assert.NotEmpty(t, ev.Message)
						}
						return
					}
				case <-deadline:
					t.Fatalf("flow never reached %v (state %v)", tt.wantState, flow.State())
				}
			}
		})
	}
}

func TestFlowValidationResetsToInput(t *testing.T) {
	fetcher := &scriptedFetcher{script: []fetchStep{{res: StatusResult{Status: StatusProcessing}}}}
	poller := NewPoller(fetcher, WithInterval(time.Millisecond))

	var events []FlowEvent
	flow := NewFlow(NewSubmitter(&blockingCreator{}), poller, func(ev FlowEvent) {
		events = append(events, ev)
	})

	err := flow.Begin(context.Background(), CreateRequest{Products: []ProductRef{{Id: "p1"}}})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, FlowIdle, flow.State())
}
