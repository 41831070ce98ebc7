package contract

import (
	"context"

	"github.com/google/uuid"

	"tryon-widget-be/internal/entity"
	"tryon-widget-be/internal/repository/specification"
)

type FitSessionRepository interface {
	Create(ctx context.Context, session *entity.FitSession) error
	Update(ctx context.Context, session *entity.FitSession) error
	// SoftDelete hides the session; the record itself stays.
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FitSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FitSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
