package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	Title      string
	PageCount  int
	ClassLevel string
	Subject    string
	Chapter    string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// ReadingProgress is the resumable navigation state of one learner in one document.
type ReadingProgress struct {
	UserId        uuid.UUID
	DocumentId    uuid.UUID
	Page          int
	LastMilestone int
	UpdatedAt     time.Time
}
