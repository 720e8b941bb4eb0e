package unitofwork

import (
	"context"

	"ai-reading-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentRepository() contract.DocumentRepository
	AnnotationRepository() contract.AnnotationRepository
	AssessmentRepository() contract.AssessmentRepository
	NotificationRepository() contract.NotificationRepository
}
