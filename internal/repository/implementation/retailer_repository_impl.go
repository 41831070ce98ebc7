package implementation

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"tryon-widget-be/internal/entity"
	"tryon-widget-be/internal/mapper"
	"tryon-widget-be/internal/model"
	"tryon-widget-be/internal/repository/contract"
	"tryon-widget-be/internal/repository/specification"
)

type RetailerRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RetailerMapper
}

func NewRetailerRepository(db *gorm.DB) contract.RetailerRepository {
	return &RetailerRepositoryImpl{
		db:     db,
		mapper: mapper.NewRetailerMapper(),
	}
}

func (r *RetailerRepositoryImpl) Create(ctx context.Context, retailer *entity.Retailer) error {
	m := r.mapper.ToModel(retailer)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*retailer = *r.mapper.ToEntity(m)
	return nil
}

func (r *RetailerRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Retailer, error) {
	var m model.Retailer
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
