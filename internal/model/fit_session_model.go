package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FitSession struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ShopperId   *uuid.UUID     `gorm:"type:uuid;index"` // nil for guest sessions
	RetailerId  uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status      string         `gorm:"type:varchar(16);not null;default:'PROCESSING';index"`
	PhotoURL    string         `gorm:"type:text;not null"`
	ResultURL   *string        `gorm:"type:text"`
	Products    datatypes.JSON `gorm:"not null"`
	IsFavorite  bool           `gorm:"not null;default:false"`
	Satisfied   *bool
	Feedback    *string   `gorm:"type:text"`
	IsGuest     bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	ProcessedAt *time.Time
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (FitSession) TableName() string {
	return "fit_sessions"
}
