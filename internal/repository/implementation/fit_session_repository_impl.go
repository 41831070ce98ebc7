package implementation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tryon-widget-be/internal/entity"
	"tryon-widget-be/internal/mapper"
	"tryon-widget-be/internal/model"
	"tryon-widget-be/internal/repository/contract"
	"tryon-widget-be/internal/repository/specification"
)

type FitSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FitSessionMapper
}

func NewFitSessionRepository(db *gorm.DB) contract.FitSessionRepository {
	return &FitSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewFitSessionMapper(),
	}
}

func (r *FitSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *FitSessionRepositoryImpl) Create(ctx context.Context, session *entity.FitSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *FitSessionRepositoryImpl) Update(ctx context.Context, session *entity.FitSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *FitSessionRepositoryImpl) SoftDelete(ctx context.Context, id uuid.UUID) error {
	// gorm.DeletedAt makes Delete a soft delete; queries exclude it by
	// default, which is exactly the "hide, never remove" contract.
	return r.db.WithContext(ctx).Delete(&model.FitSession{}, id).Error
}

func (r *FitSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FitSession, error) {
	var m model.FitSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *FitSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FitSession, error) {
	var models []*model.FitSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *FitSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.FitSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
