package contract

import (
	"context"

	"tryon-widget-be/internal/entity"
	"tryon-widget-be/internal/repository/specification"
)

type RetailerRepository interface {
	Create(ctx context.Context, retailer *entity.Retailer) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Retailer, error)
}
