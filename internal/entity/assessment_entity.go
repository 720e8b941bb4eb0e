package entity

import (
	"time"

	"github.com/google/uuid"
)

type QuestionScore struct {
	QuestionIndex int    `json:"question_index"`
	Score         int    `json:"score"`
	Feedback      string `json:"feedback"`
}

type AssessmentAnswer struct {
	QuestionIndex int
	Question      string
	Answer        string
	AnsweredAt    time.Time
}

type AssessmentResult struct {
	Id                uuid.UUID
	UserId            uuid.UUID
	DocumentId        *uuid.UUID
	FromPage          int
	ToPage            int
	ClassLevel        string
	Subject           string
	Chapter           string
	Score             int
	Feedback          string
	Breakdown         []QuestionScore
	FallbackScore     bool
	FallbackQuestions bool
	InputMode         string
	StartedAt         time.Time
	CompletedAt       time.Time
	Answers           []AssessmentAnswer
}
