package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AssessmentResult struct {
	Id                uuid.UUID          `gorm:"type:uuid;primaryKey"`
	UserId            uuid.UUID          `gorm:"type:uuid;not null;index:idx_assessment_results_user_completed,priority:1"`
	DocumentId        *uuid.UUID         `gorm:"type:uuid;index"`
	FromPage          int                `gorm:"not null;default:0"`
	ToPage            int                `gorm:"not null;default:0"`
	ClassLevel        string             `gorm:"type:varchar(50)"`
	Subject           string             `gorm:"type:varchar(100)"`
	Chapter           string             `gorm:"type:varchar(255)"`
	Score             int                `gorm:"not null"`
	Feedback          string             `gorm:"type:text"`
	Breakdown         datatypes.JSON     `gorm:"type:jsonb"`
	FallbackScore     bool               `gorm:"not null;default:false"`
	FallbackQuestions bool               `gorm:"not null;default:false"`
	InputMode         string             `gorm:"type:varchar(10)"`
	StartedAt         time.Time          `gorm:"not null"`
	CompletedAt       time.Time          `gorm:"not null;index:idx_assessment_results_user_completed,priority:2"`
	Answers           []AssessmentAnswer `gorm:"foreignKey:ResultId;constraint:OnDelete:CASCADE"`
}

func (AssessmentResult) TableName() string {
	return "assessment_results"
}

type AssessmentAnswer struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ResultId      uuid.UUID `gorm:"type:uuid;not null;index"`
	QuestionIndex int       `gorm:"not null"`
	Question      string    `gorm:"type:text;not null"`
	Answer        string    `gorm:"type:text;not null"`
	AnsweredAt    time.Time `gorm:"not null"`
}

func (AssessmentAnswer) TableName() string {
	return "assessment_answers"
}
