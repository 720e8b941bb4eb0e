package mapper

import (
	"testing"
	"time"

	"ai-reading-be/internal/entity"
	"ai-reading-be/pkg/annotation"
	"ai-reading-be/pkg/geometry"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnotationMapperRoundTripsThroughModel(t *testing.T) {
	m := NewAnnotationMapper()
	userId := uuid.New()
	docId := uuid.New()
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	domain := annotation.Annotation{
		ID:         7,
		Kind:       annotation.KindAIResponse,
		SourceText: "mitochondria",
		AI: &annotation.AIPayload{
			Action:       annotation.ActionVisualize,
			ResponseText: "the powerhouse",
			ImageRef:     "https://img.example/cell.png",
		},
		DocumentID: docId.String(),
		PageNumber: 4,
		Anchor:     geometry.Point{X: 12, Y: 30},
		CreatedAt:  created,
	}

	row := m.ToModel(m.FromDomain(userId, domain))
	require.NotNil(t, row)
	assert.Equal(t, userId, row.UserId)
	assert.Equal(t, docId, row.DocumentId)
	assert.JSONEq(t, `{"action":"visualize","response_text":"the powerhouse","image_ref":"https://img.example/cell.png"}`, string(row.Payload))

	back := m.ToDomain(m.ToEntity(row))
	assert.Equal(t, domain, back)
}

func TestAnnotationMapperNotePayload(t *testing.T) {
	m := NewAnnotationMapper()
	domain := annotation.Annotation{
		ID:          1,
		Kind:        annotation.KindNote,
		Note:        &annotation.NotePayload{Heading: "Key idea", Body: "cells divide"},
		DocumentID:  uuid.NewString(),
		PageNumber:  1,
		Synthesized: true,
	}

	e := m.FromDomain(uuid.New(), domain)
	assert.Equal(t, "Key idea", e.Heading)
	assert.Empty(t, e.Action)

	back := m.ToDomain(e)
	require.NotNil(t, back.Note)
	assert.Nil(t, back.AI)
	assert.True(t, back.Synthesized)
}

func TestAssessmentMapperKeepsBreakdownAndAnswers(t *testing.T) {
	m := NewAssessmentMapper()
	id := uuid.New()
	row := m.ToModel(&entity.AssessmentResult{
		Id:        id,
		UserId:    uuid.New(),
		Score:     82,
		Breakdown: []entity.QuestionScore{{QuestionIndex: 0, Score: 90, Feedback: "good"}},
		Answers: []entity.AssessmentAnswer{
			{QuestionIndex: 0, Question: "q1", Answer: "first"},
			{QuestionIndex: 1, Question: "q2", Answer: "second"},
		},
	})

	assert.Len(t, row.Answers, 2)
	assert.Equal(t, id, row.Answers[1].ResultId)

	back := m.ToEntity(row)
	assert.Equal(t, 82, back.Score)
	require.Len(t, back.Breakdown, 1)
	assert.Equal(t, "good", back.Breakdown[0].Feedback)
	assert.Equal(t, "second", back.Answers[1].Answer)
}
