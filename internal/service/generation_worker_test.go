package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryon-widget-be/internal/dto"
	"tryon-widget-be/internal/entity"
	"tryon-widget-be/pkg/events"
)

type scriptedGenerator struct {
	mu     sync.Mutex
	result string
	err    error
	calls  int
}

func (g *scriptedGenerator) Generate(context.Context, string, []entity.ProductRef) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls += 1
	return g.result, g.err
}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type capturingEventBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *capturingEventBus) Publish(_ context.Context, event events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *capturingEventBus) all() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.events...)
}

func startWorker(t *testing.T, factory *fakeFactory, gen Generator, bus EventPublisher) *gochannel.GoChannel {
	t.Helper()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })

	worker := NewGenerationWorker(pubSub, "generation", factory, gen, bus, nopLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, worker.Consume(ctx))

	return pubSub
}

func publishJob(t *testing.T, pubSub *gochannel.GoChannel, sessionId uuid.UUID) {
	t.Helper()
	payload, err := json.Marshal(dto.GenerateFitResultMessage{SessionId: sessionId})
	require.NoError(t, err)
	require.NoError(t, pubSub.Publish("generation", message.NewMessage(watermill.NewUUID(), payload)))
}

func TestWorkerCompletesSession(t *testing.T) {
	factory := newFakeFactory()
	bus := &capturingEventBus{}
	gen := &scriptedGenerator{result: "https://cdn.test/result.png"}
	pubSub := startWorker(t, factory, gen, bus)

	session := &entity.FitSession{
		Id:         uuid.New(),
		RetailerId: uuid.New(),
		Status:     entity.FitStatusProcessing,
		PhotoURL:   "https://example.com/p.jpg",
		CreatedAt:  time.Now(),
	}
	factory.uow.sessions.put(session)

	publishJob(t, pubSub, session.Id)

	assert.Eventually(t, func() bool {
		stored := factory.uow.sessions.get(session.Id)
		return stored.Status == entity.FitStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	stored := factory.uow.sessions.get(session.Id)
	require.NotNil(t, stored.ResultURL)
	assert.Equal(t, "https://cdn.test/result.png", *stored.ResultURL)
	assert.NotNil(t, stored.ProcessedAt)

	assert.Eventually(t, func() bool { return len(bus.all()) == 1 }, 2*time.Second, 10*time.Millisecond)
	event := bus.all()[0]
	assert.Equal(t, events.TypeFitSessionCompleted, event.EventType())
	assert.Equal(t, session.RetailerId.String(), event.Payload()["retailer_id"])
}

func TestWorkerMarksFailure(t *testing.T) {
	factory := newFakeFactory()
	bus := &capturingEventBus{}
	gen := &scriptedGenerator{err: errors.New("model overloaded")}
	pubSub := startWorker(t, factory, gen, bus)

	session := &entity.FitSession{
		Id:         uuid.New(),
		RetailerId: uuid.New(),
		Status:     entity.FitStatusProcessing,
	}
	factory.uow.sessions.put(session)

	publishJob(t, pubSub, session.Id)

	assert.Eventually(t, func() bool {
		return factory.uow.sessions.get(session.Id).Status == entity.FitStatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	stored := factory.uow.sessions.get(session.Id)
	assert.Nil(t, stored.ResultURL)
	assert.NotNil(t, stored.ProcessedAt)

	assert.Eventually(t, func() bool { return len(bus.all()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, events.TypeFitSessionFailed, bus.all()[0].EventType())
}

func TestWorkerIgnoresUnknownSession(t *testing.T) {
	factory := newFakeFactory()
	gen := &scriptedGenerator{result: "https://cdn.test/x.png"}
	pubSub := startWorker(t, factory, gen, nil)

	publishJob(t, pubSub, uuid.New())

	// The job is acked and dropped; the generator never runs.
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, gen.callCount())
}

func TestWorkerNeverFlipsTerminalSession(t *testing.T) {
	factory := newFakeFactory()
	gen := &scriptedGenerator{result: "https://cdn.test/other.png"}
	pubSub := startWorker(t, factory, gen, nil)

	resultURL := "https://cdn.test/original.png"
	done := time.Now().Add(-time.Minute)
	session := &entity.FitSession{
		Id:          uuid.New(),
		RetailerId:  uuid.New(),
		Status:      entity.FitStatusCompleted,
		ResultURL:   &resultURL,
		ProcessedAt: &done,
	}
	factory.uow.sessions.put(session)

	// A redelivered job for a settled session must not rerun generation.
	publishJob(t, pubSub, session.Id)
	time.Sleep(200 * time.Millisecond)

	stored := factory.uow.sessions.get(session.Id)
	assert.Zero(t, gen.callCount())
	assert.Equal(t, entity.FitStatusCompleted, stored.Status)
	assert.Equal(t, resultURL, *stored.ResultURL)
	assert.Equal(t, done.Unix(), stored.ProcessedAt.Unix())
}

func TestWorkerAcksGarbagePayload(t *testing.T) {
	factory := newFakeFactory()
	gen := &scriptedGenerator{}
	pubSub := startWorker(t, factory, gen, nil)

	require.NoError(t, pubSub.Publish("generation",
		message.NewMessage(watermill.NewUUID(), []byte("not json at all"))))

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, gen.callCount())
}
