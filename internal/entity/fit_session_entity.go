package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	FitStatusProcessing = "PROCESSING"
	FitStatusCompleted  = "COMPLETED"
	FitStatusFailed     = "FAILED"
)

type ProductRef struct {
	Id       string `json:"id"`
	Name     string `json:"name,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// FitSession is one try-on request/result lifecycle unit. ShopperId is nil
// for guest sessions. Satisfied is tri-state: nil until the shopper rates the
// result. Deletion is always soft: hidden, never physically removed.
type FitSession struct {
	Id          uuid.UUID
	ShopperId   *uuid.UUID
	RetailerId  uuid.UUID
	Status      string
	PhotoURL    string
	ResultURL   *string
	Products    []ProductRef
	IsFavorite  bool
	Satisfied   *bool
	Feedback    *string
	IsGuest     bool
	CreatedAt   time.Time
	ProcessedAt *time.Time
	UpdatedAt   *time.Time
}

// Terminal reports whether the session has reached COMPLETED or FAILED.
func (s *FitSession) Terminal() bool {
	return s.Status == FitStatusCompleted || s.Status == FitStatusFailed
}
