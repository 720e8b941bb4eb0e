package mapper

import (
	"encoding/json"

	"ai-reading-be/internal/entity"
	"ai-reading-be/internal/model"
	"ai-reading-be/pkg/annotation"
	"ai-reading-be/pkg/geometry"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AnnotationMapper struct{}

func NewAnnotationMapper() *AnnotationMapper {
	return &AnnotationMapper{}
}

type annotationPayload struct {
	Heading      string `json:"heading,omitempty"`
	Body         string `json:"body,omitempty"`
	Action       string `json:"action,omitempty"`
	ResponseText string `json:"response_text,omitempty"`
	ImageRef     string `json:"image_ref,omitempty"`
}

func (m *AnnotationMapper) ToEntity(a *model.Annotation) *entity.Annotation {
	if a == nil {
		return nil
	}

	var p annotationPayload
	_ = json.Unmarshal(a.Payload, &p)

	return &entity.Annotation{
		Id:           a.Id,
		UserId:       a.UserId,
		DocumentId:   a.DocumentId,
		PageNumber:   a.PageNumber,
		Kind:         a.Kind,
		SourceText:   a.SourceText,
		Heading:      p.Heading,
		Body:         p.Body,
		Action:       p.Action,
		ResponseText: p.ResponseText,
		ImageRef:     p.ImageRef,
		AnchorX:      a.AnchorX,
		AnchorY:      a.AnchorY,
		Synthesized:  a.Synthesized,
		CreatedAt:    a.CreatedAt,
	}
}

func (m *AnnotationMapper) ToModel(a *entity.Annotation) *model.Annotation {
	if a == nil {
		return nil
	}

	payload, _ := json.Marshal(annotationPayload{
		Heading:      a.Heading,
		Body:         a.Body,
		Action:       a.Action,
		ResponseText: a.ResponseText,
		ImageRef:     a.ImageRef,
	})

	return &model.Annotation{
		Id:          a.Id,
		UserId:      a.UserId,
		DocumentId:  a.DocumentId,
		PageNumber:  a.PageNumber,
		Kind:        a.Kind,
		SourceText:  a.SourceText,
		Payload:     datatypes.JSON(payload),
		AnchorX:     a.AnchorX,
		AnchorY:     a.AnchorY,
		Synthesized: a.Synthesized,
		CreatedAt:   a.CreatedAt,
	}
}

func (m *AnnotationMapper) ToEntities(annotations []*model.Annotation) []*entity.Annotation {
	entities := make([]*entity.Annotation, len(annotations))
	for i, a := range annotations {
		entities[i] = m.ToEntity(a)
	}
	return entities
}

// FromDomain flattens a store annotation. The document id is parsed from the store key.
func (m *AnnotationMapper) FromDomain(userId uuid.UUID, a annotation.Annotation) *entity.Annotation {
	documentId, _ := uuid.Parse(a.DocumentID)

	e := &entity.Annotation{
		Id:          a.ID,
		UserId:      userId,
		DocumentId:  documentId,
		PageNumber:  a.PageNumber,
		Kind:        string(a.Kind),
		SourceText:  a.SourceText,
		AnchorX:     a.Anchor.X,
		AnchorY:     a.Anchor.Y,
		Synthesized: a.Synthesized,
		CreatedAt:   a.CreatedAt,
	}

	switch a.Kind {
	case annotation.KindNote:
		if a.Note != nil {
			e.Heading = a.Note.Heading
			e.Body = a.Note.Body
		}
	case annotation.KindAIResponse:
		if a.AI != nil {
			e.Action = string(a.AI.Action)
			e.ResponseText = a.AI.ResponseText
			e.ImageRef = a.AI.ImageRef
		}
	}
	return e
}

func (m *AnnotationMapper) ToDomain(e *entity.Annotation) annotation.Annotation {
	a := annotation.Annotation{
		ID:          e.Id,
		Kind:        annotation.Kind(e.Kind),
		SourceText:  e.SourceText,
		DocumentID:  e.DocumentId.String(),
		PageNumber:  e.PageNumber,
		Anchor:      geometry.Point{X: e.AnchorX, Y: e.AnchorY},
		Synthesized: e.Synthesized,
		CreatedAt:   e.CreatedAt,
	}

	switch a.Kind {
	case annotation.KindNote:
		a.Note = &annotation.NotePayload{Heading: e.Heading, Body: e.Body}
	case annotation.KindAIResponse:
		a.AI = &annotation.AIPayload{
			Action:       annotation.Action(e.Action),
			ResponseText: e.ResponseText,
			ImageRef:     e.ImageRef,
		}
	}
	return a
}
