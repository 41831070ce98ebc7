package mapper

import (
	"encoding/json"

	"tryon-widget-be/internal/entity"
	"tryon-widget-be/internal/model"
)

type FitSessionMapper struct{}

func NewFitSessionMapper() *FitSessionMapper {
	return &FitSessionMapper{}
}

func (m *FitSessionMapper) ToModel(e *entity.FitSession) *model.FitSession {
	products, _ := json.Marshal(e.Products)
	out := &model.FitSession{
		Id:          e.Id,
		ShopperId:   e.ShopperId,
		RetailerId:  e.RetailerId,
		Status:      e.Status,
		PhotoURL:    e.PhotoURL,
		ResultURL:   e.ResultURL,
		Products:    products,
		IsFavorite:  e.IsFavorite,
		Satisfied:   e.Satisfied,
		Feedback:    e.Feedback,
		IsGuest:     e.IsGuest,
		CreatedAt:   e.CreatedAt,
		ProcessedAt: e.ProcessedAt,
	}
	if e.UpdatedAt != nil {
		out.UpdatedAt = *e.UpdatedAt
	}
	return out
}

func (m *FitSessionMapper) ToEntity(mo *model.FitSession) *entity.FitSession {
	var products []entity.ProductRef
	// Tolerant: a malformed blob yields an empty product list, not a failure.
	_ = json.Unmarshal(mo.Products, &products)

	updatedAt := mo.UpdatedAt
	return &entity.FitSession{
		Id:          mo.Id,
		ShopperId:   mo.ShopperId,
		RetailerId:  mo.RetailerId,
		Status:      mo.Status,
		PhotoURL:    mo.PhotoURL,
		ResultURL:   mo.ResultURL,
		Products:    products,
		IsFavorite:  mo.IsFavorite,
		Satisfied:   mo.Satisfied,
		Feedback:    mo.Feedback,
		IsGuest:     mo.IsGuest,
		CreatedAt:   mo.CreatedAt,
		ProcessedAt: mo.ProcessedAt,
		UpdatedAt:   &updatedAt,
	}
}

func (m *FitSessionMapper) ToEntities(models []*model.FitSession) []*entity.FitSession {
	out := make([]*entity.FitSession, 0, len(models))
	for _, mo := range models {
		out = append(out, m.ToEntity(mo))
	}
	return out
}
