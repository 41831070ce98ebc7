package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"tryon-widget-be/internal/dto"
	"tryon-widget-be/internal/entity"
	"tryon-widget-be/internal/pkg/logger"
	"tryon-widget-be/internal/repository/specification"
	"tryon-widget-be/internal/repository/unitofwork"
	"tryon-widget-be/pkg/events"
)

// Generator produces a try-on image from a shopper photo and product refs.
// The real implementation is an opaque external service.
type Generator interface {
	Generate(ctx context.Context, photoURL string, products []entity.ProductRef) (string, error)
}

// EventPublisher announces terminal session transitions to other services.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IGenerationWorker interface {
	Consume(ctx context.Context) error
}

type generationWorker struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	generator  Generator
	eventBus   EventPublisher
	logger     logger.ILogger
}

func NewGenerationWorker(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	generator Generator,
	eventBus EventPublisher,
	log logger.ILogger,
) IGenerationWorker {
	return &generationWorker{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		generator:  generator,
		eventBus:   eventBus,
		logger:     log,
	}
}

func (w *generationWorker) Consume(ctx context.Context) error {
	messages, err := w.subscriber.Subscribe(ctx, w.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			w.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (w *generationWorker) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.GenerateFitResultMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		w.logger.Error("GenerationWorker", "Unparseable job payload", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := w.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.FitSessionRepository().FindOne(ctx, specification.ByID{ID: payload.SessionId})
	if err != nil {
		w.logger.Error("GenerationWorker", "Session lookup failed",
			map[string]interface{}{"session_id": payload.SessionId, "error": err.Error()})
		msg.Nack()
		return
	}
	if session == nil {
		// Deleted before the job ran. Nothing to do.
		msg.Ack()
		return
	}
	if session.Terminal() {
		// A redelivered job must not flip an already-settled session.
		msg.Ack()
		return
	}

	resultURL, genErr := w.generator.Generate(ctx, session.PhotoURL, session.Products)

	now := time.Now()
	session.ProcessedAt = &now
	session.UpdatedAt = &now
	if genErr != nil {
		w.logger.Warn("GenerationWorker", "Generation failed",
			map[string]interface{}{"session_id": session.Id, "error": genErr.Error()})
		session.Status = entity.FitStatusFailed
	} else {
		session.Status = entity.FitStatusCompleted
		session.ResultURL = &resultURL
	}

	if err := uow.FitSessionRepository().Update(ctx, session); err != nil {
		w.logger.Error("GenerationWorker", "Failed to persist terminal status",
			map[string]interface{}{"session_id": session.Id, "error": err.Error()})
		msg.Nack()
		return
	}

	w.announce(ctx, session)
	msg.Ack()
}

func (w *generationWorker) announce(ctx context.Context, session *entity.FitSession) {
	if w.eventBus == nil {
		return
	}

	resultURL := ""
	if session.ResultURL != nil {
		resultURL = *session.ResultURL
	}
	event := events.NewFitSessionTerminal(session.Id, session.RetailerId, session.Status, resultURL)
	if err := w.eventBus.Publish(ctx, event); err != nil {
		// Dashboards just miss one live push; the DB already holds the truth.
		w.logger.Warn("GenerationWorker", "Terminal event publish failed",
			map[string]interface{}{"session_id": session.Id, "error": err.Error()})
	}
}

// httpGenerator calls the external generation service over HTTP.
type httpGenerator struct {
	baseURL string
	client  *http.Client
}

func NewHTTPGenerator(baseURL string) Generator {
	return &httpGenerator{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (g *httpGenerator) Generate(ctx context.Context, photoURL string, products []entity.ProductRef) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"photo_url": photoURL,
		"products":  products,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation service returned %d", resp.StatusCode)
	}

	var out struct {
		ResultURL string `json:"result_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if out.ResultURL == "" {
		return "", fmt.Errorf("generation service returned no result url")
	}
	return out.ResultURL, nil
}
