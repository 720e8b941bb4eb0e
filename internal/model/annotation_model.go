package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Annotation ids are assigned by the learner's in-memory store, so the key is (user_id, id).
type Annotation struct {
	Id          uint64         `gorm:"primaryKey;autoIncrement:false"`
	UserId      uuid.UUID      `gorm:"type:uuid;primaryKey"`
	DocumentId  uuid.UUID      `gorm:"type:uuid;not null;index:idx_annotations_page,priority:1"`
	PageNumber  int            `gorm:"not null;index:idx_annotations_page,priority:2"`
	Kind        string         `gorm:"type:varchar(20);not null"`
	SourceText  string         `gorm:"type:text"`
	Payload     datatypes.JSON `gorm:"type:jsonb;not null"`
	AnchorX     float64        `gorm:"not null;default:0"`
	AnchorY     float64        `gorm:"not null;default:0"`
	Synthesized bool           `gorm:"not null;default:false"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
}

func (Annotation) TableName() string {
	return "annotations"
}
