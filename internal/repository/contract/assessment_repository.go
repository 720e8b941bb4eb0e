package contract

import (
	"context"

	"ai-reading-be/internal/entity"
	"ai-reading-be/internal/repository/specification"
)

type AssessmentRepository interface {
	Create(ctx context.Context, result *entity.AssessmentResult) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AssessmentResult, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AssessmentResult, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
