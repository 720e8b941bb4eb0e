package mapper

import (
	"encoding/json"

	"ai-reading-be/internal/entity"
	"ai-reading-be/internal/model"

	"gorm.io/datatypes"
)

type AssessmentMapper struct{}

func NewAssessmentMapper() *AssessmentMapper {
	return &AssessmentMapper{}
}

func (m *AssessmentMapper) ToEntity(r *model.AssessmentResult) *entity.AssessmentResult {
	if r == nil {
		return nil
	}

	var breakdown []entity.QuestionScore
	if len(r.Breakdown) > 0 {
		_ = json.Unmarshal(r.Breakdown, &breakdown)
	}

	answers := make([]entity.AssessmentAnswer, len(r.Answers))
	for i, a := range r.Answers {
		answers[i] = entity.AssessmentAnswer{
			QuestionIndex: a.QuestionIndex,
			Question:      a.Question,
			Answer:        a.Answer,
			AnsweredAt:    a.AnsweredAt,
		}
	}

	return &entity.AssessmentResult{
		Id:                r.Id,
		UserId:            r.UserId,
		DocumentId:        r.DocumentId,
		FromPage:          r.FromPage,
		ToPage:            r.ToPage,
		ClassLevel:        r.ClassLevel,
		Subject:           r.Subject,
		Chapter:           r.Chapter,
		Score:             r.Score,
		Feedback:          r.Feedback,
		Breakdown:         breakdown,
		FallbackScore:     r.FallbackScore,
		FallbackQuestions: r.FallbackQuestions,
		InputMode:         r.InputMode,
		StartedAt:         r.StartedAt,
		CompletedAt:       r.CompletedAt,
		Answers:           answers,
	}
}

func (m *AssessmentMapper) ToModel(r *entity.AssessmentResult) *model.AssessmentResult {
	if r == nil {
		return nil
	}

	var breakdown datatypes.JSON
	if len(r.Breakdown) > 0 {
		raw, _ := json.Marshal(r.Breakdown)
		breakdown = datatypes.JSON(raw)
	}

	answers := make([]model.AssessmentAnswer, len(r.Answers))
	for i, a := range r.Answers {
		answers[i] = model.AssessmentAnswer{
			ResultId:      r.Id,
			QuestionIndex: a.QuestionIndex,
			Question:      a.Question,
			Answer:        a.Answer,
			AnsweredAt:    a.AnsweredAt,
		}
	}

	return &model.AssessmentResult{
		Id:                r.Id,
		UserId:            r.UserId,
		DocumentId:        r.DocumentId,
		FromPage:          r.FromPage,
		ToPage:            r.ToPage,
		ClassLevel:        r.ClassLevel,
		Subject:           r.Subject,
		Chapter:           r.Chapter,
		Score:             r.Score,
		Feedback:          r.Feedback,
		Breakdown:         breakdown,
		FallbackScore:     r.FallbackScore,
		FallbackQuestions: r.FallbackQuestions,
		InputMode:         r.InputMode,
		StartedAt:         r.StartedAt,
		CompletedAt:       r.CompletedAt,
		Answers:           answers,
	}
}

func (m *AssessmentMapper) ToEntities(results []*model.AssessmentResult) []*entity.AssessmentResult {
	entities := make([]*entity.AssessmentResult, len(results))
	for i, r := range results {
		entities[i] = m.ToEntity(r)
	}
	return entities
}
