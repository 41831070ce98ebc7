package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeFitSessionCompleted = "FIT_SESSION_COMPLETED"
	TypeFitSessionFailed    = "FIT_SESSION_FAILED"
)

// NewFitSessionTerminal builds the event published when a session reaches
// COMPLETED or FAILED. resultURL is empty for failures.
func NewFitSessionTerminal(sessionId, retailerId uuid.UUID, status, resultURL string) Event {
	eventType := TypeFitSessionFailed
	if status == "COMPLETED" {
		eventType = TypeFitSessionCompleted
	}
	return BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"session_id":  sessionId.String(),
			"retailer_id": retailerId.String(),
			"status":      status,
			"result_url":  resultURL,
		},
		OccurredAt: time.Now(),
	}
}
