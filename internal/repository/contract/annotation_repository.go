package contract

import (
	"context"

	"ai-reading-be/internal/entity"
	"ai-reading-be/internal/repository/specification"

	"github.com/google/uuid"
)

type AnnotationRepository interface {
	Create(ctx context.Context, annotation *entity.Annotation) error
	Delete(ctx context.Context, userId uuid.UUID, id uint64) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Annotation, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
