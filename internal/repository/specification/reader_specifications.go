package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByUserID struct {
	UserID uuid.UUID
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}

// WithAnswers eager loads the per-question answers of an assessment result.
type WithAnswers struct{}

func (s WithAnswers) Apply(db *gorm.DB) *gorm.DB {
	return db.Preload("Answers", func(db *gorm.DB) *gorm.DB {
		return db.Order("question_index ASC")
	})
}
