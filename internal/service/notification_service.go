package service

import (
	"context"

	"github.com/google/uuid"

	"tryon-widget-be/internal/pkg/logger"
	"tryon-widget-be/internal/websocket"
	"tryon-widget-be/pkg/events"
	natsbus "tryon-widget-be/pkg/nats"
)

// INotificationService bridges terminal session events from the bus to the
// dashboards listening on the websocket hub.
type INotificationService interface {
	Start() error
}

type notificationService struct {
	subscriber *natsbus.Subscriber
	hub        *websocket.Hub
	logger     logger.ILogger
}

func NewNotificationService(subscriber *natsbus.Subscriber, hub *websocket.Hub, log logger.ILogger) INotificationService {
	return &notificationService{
		subscriber: subscriber,
		hub:        hub,
		logger:     log,
	}
}

func (s *notificationService) Start() error {
	return s.subscriber.Subscribe("events.>", "dashboard-notifier", s.handleEvent)
}

func (s *notificationService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	rawRetailer, _ := payload["retailer_id"].(string)
	retailerId, err := uuid.Parse(rawRetailer)
	if err != nil {
		// Event without a routable retailer is not retriable, drop it.
		s.logger.Warn("NotificationService", "Event missing retailer id",
			map[string]interface{}{"type": event.EventType()})
		return nil
	}

	s.hub.SendToRetailer(retailerId, payload)
	return nil
}
