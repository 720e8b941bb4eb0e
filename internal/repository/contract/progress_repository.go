package contract

import (
	"context"

	"ai-reading-be/internal/entity"

	"github.com/google/uuid"
)

// ProgressRepository stores where a learner left off in a document.
// Get returns nil, nil when nothing was saved yet.
type ProgressRepository interface {
	Get(ctx context.Context, userId, documentId uuid.UUID) (*entity.ReadingProgress, error)
	Save(ctx context.Context, progress *entity.ReadingProgress) error
	Delete(ctx context.Context, userId, documentId uuid.UUID) error
}
