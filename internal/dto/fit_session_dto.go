package dto

import (
	"io"
	"time"

	"github.com/google/uuid"

	"tryon-widget-be/internal/entity"
)

// CreateFitSessionInput is the parsed multipart create payload. Exactly one
// of PhotoFile / PhotoURL is set after validation; file takes precedence.
type CreateFitSessionInput struct {
	PhotoFile  io.Reader
	PhotoName  string
	PhotoURL   string
	Products   []entity.ProductRef
	RetailerId uuid.UUID
	ShopperId  *uuid.UUID
	IsGuest    bool
}

type CreateFitSessionResponse struct {
	SessionId uuid.UUID `json:"sessionId"`
	Status    string    `json:"status"`
}

type FitSessionStatusResponse struct {
	SessionId uuid.UUID `json:"sessionId"`
	Status    string    `json:"status"`
	ResultURL *string   `json:"resultUrl,omitempty"`
	Images    []string  `json:"images,omitempty"`
}

type FitSessionResponse struct {
	SessionId   uuid.UUID           `json:"sessionId"`
	Status      string              `json:"status"`
	ResultURL   *string             `json:"resultUrl,omitempty"`
	Products    []entity.ProductRef `json:"products"`
	RetailerId  uuid.UUID           `json:"retailer_id"`
	IsFavorite  bool                `json:"is_favorite"`
	Satisfied   *bool               `json:"satisfied,omitempty"`
	Feedback    *string             `json:"feedback,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	ProcessedAt *time.Time          `json:"processed_at,omitempty"`
}

type FavoriteRequest struct {
	IsFavorite *bool `json:"is_favorite" validate:"required"`
}

type FeedbackRequest struct {
	Satisfied *bool  `json:"satisfied" validate:"required"`
	Message   string `json:"message" validate:"max=2000"`
}

type ListFitSessionsQuery struct {
	FavoritesOnly bool
	RetailerId    *uuid.UUID
}

// GenerateFitResultMessage is the payload queued for the generation worker.
type GenerateFitResultMessage struct {
	SessionId uuid.UUID `json:"session_id"`
}
