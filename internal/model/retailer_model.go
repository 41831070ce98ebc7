package model

import (
	"time"

	"github.com/google/uuid"
)

type Retailer struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"type:text;not null"`
	AlertEmail   string    `gorm:"type:text;not null"`
	APIKeyHash   string    `gorm:"type:text;not null"`
	WidgetOrigin string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (Retailer) TableName() string {
	return "retailers"
}
