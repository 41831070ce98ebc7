package entity

import (
	"time"

	"github.com/google/uuid"
)

// Retailer is the minimal shop record a session points at: enough identity
// to key sessions, address alerts, and authenticate widget embeds. Full
// retailer profile management lives outside this service.
type Retailer struct {
	Id           uuid.UUID
	Name         string
	AlertEmail   string
	APIKeyHash   string
	WidgetOrigin string
	CreatedAt    time.Time
}
