package implementation

import (
	"context"
	"errors"

	"ai-reading-be/internal/entity"
	"ai-reading-be/internal/mapper"
	"ai-reading-be/internal/model"
	"ai-reading-be/internal/repository/contract"
	"ai-reading-be/internal/repository/scope"
	"ai-reading-be/internal/repository/specification"

	"gorm.io/gorm"
)

type AssessmentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AssessmentMapper
}

func NewAssessmentRepository(db *gorm.DB) contract.AssessmentRepository {
	return &AssessmentRepositoryImpl{
		db:     db,
		mapper: mapper.NewAssessmentMapper(),
	}
}

func (r *AssessmentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// Create inserts the result together with its answers.
func (r *AssessmentRepositoryImpl) Create(ctx context.Context, result *entity.AssessmentResult) error {
	m := r.mapper.ToModel(result)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*result = *r.mapper.ToEntity(m)
	return nil
}

func (r *AssessmentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AssessmentResult, error) {
	var m model.AssessmentResult
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AssessmentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AssessmentResult, error) {
	var models []*model.AssessmentResult
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Scopes(scope.OrderByCompletedDesc).Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *AssessmentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.AssessmentResult{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
