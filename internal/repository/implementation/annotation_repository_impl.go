package implementation

import (
	"context"

	"ai-reading-be/internal/entity"
	"ai-reading-be/internal/mapper"
	"ai-reading-be/internal/model"
	"ai-reading-be/internal/repository/contract"
	"ai-reading-be/internal/repository/scope"
	"ai-reading-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AnnotationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AnnotationMapper
}

func NewAnnotationRepository(db *gorm.DB) contract.AnnotationRepository {
	return &AnnotationRepositoryImpl{
		db:     db,
		mapper: mapper.NewAnnotationMapper(),
	}
}

func (r *AnnotationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AnnotationRepositoryImpl) Create(ctx context.Context, annotation *entity.Annotation) error {
	m := r.mapper.ToModel(annotation)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*annotation = *r.mapper.ToEntity(m)
	return nil
}

func (r *AnnotationRepositoryImpl) Delete(ctx context.Context, userId uuid.UUID, id uint64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userId, id).
		Delete(&model.Annotation{}).Error
}

func (r *AnnotationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Annotation, error) {
	var models []*model.Annotation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Scopes(scope.OrderByIdAsc).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *AnnotationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Annotation{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
