package entity

import (
	"time"

	"github.com/google/uuid"
)

type Annotation struct {
	Id           uint64
	UserId       uuid.UUID
	DocumentId   uuid.UUID
	PageNumber   int
	Kind         string
	SourceText   string
	Heading      string
	Body         string
	Action       string
	ResponseText string
	ImageRef     string
	AnchorX      float64
	AnchorY      float64
	Synthesized  bool
	CreatedAt    time.Time
}
