package mapper

import (
	"tryon-widget-be/internal/entity"
	"tryon-widget-be/internal/model"
)

type RetailerMapper struct{}

func NewRetailerMapper() *RetailerMapper {
	return &RetailerMapper{}
}

func (m *RetailerMapper) ToModel(e *entity.Retailer) *model.Retailer {
	return &model.Retailer{
		Id:           e.Id,
		Name:         e.Name,
		AlertEmail:   e.AlertEmail,
		APIKeyHash:   e.APIKeyHash,
		WidgetOrigin: e.WidgetOrigin,
		CreatedAt:    e.CreatedAt,
	}
}

func (m *RetailerMapper) ToEntity(mo *model.Retailer) *entity.Retailer {
	return &entity.Retailer{
		Id:           mo.Id,
		Name:         mo.Name,
		AlertEmail:   mo.AlertEmail,
		APIKeyHash:   mo.APIKeyHash,
		WidgetOrigin: mo.WidgetOrigin,
		CreatedAt:    mo.CreatedAt,
	}
}
