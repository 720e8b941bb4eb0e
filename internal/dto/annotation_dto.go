package dto

import (
	"time"

	"ai-reading-be/pkg/geometry"
	"ai-reading-be/pkg/overlay"
)

type CreateNoteAnnotationRequest struct {
	Page       int    `json:"page" validate:"required,min=1"`
	Heading    string `json:"heading" validate:"max=200"`
	Body       string `json:"body" validate:"max=10000"`
	SourceText string `json:"source_text" validate:"max=4000"`
	// FromSelection anchors the note at the current capture instead of a grid cell.
	FromSelection bool `json:"from_selection"`
}

// CreateNoteAnnotationResponse mirrors the store: a blank heading is rejected, not an error.
type CreateNoteAnnotationResponse struct {
	Accepted   bool                `json:"accepted"`
	Annotation *AnnotationResponse `json:"annotation,omitempty"`
}

type AnnotationResponse struct {
	Id           uint64         `json:"id"`
	Kind         string         `json:"kind"`
	SourceText   string         `json:"source_text"`
	Heading      string         `json:"heading,omitempty"`
	Body         string         `json:"body,omitempty"`
	Action       string         `json:"action,omitempty"`
	ResponseText string         `json:"response_text,omitempty"`
	ImageRef     string         `json:"image_ref,omitempty"`
	DocumentId   string         `json:"document_id"`
	PageNumber   int            `json:"page_number"`
	Anchor       geometry.Point `json:"anchor"`
	Synthesized  bool           `json:"synthesized"`
	CreatedAt    time.Time      `json:"created_at"`
}

type ListAnnotationsRequest struct {
	Page      int     `query:"page" validate:"required,min=1"`
	Layout    string  `query:"layout" validate:"omitempty,oneof=anchored ribbon"`
	Zoom      float64 `query:"zoom" validate:"omitempty,gt=0"`
	PageWidth float64 `query:"page_width" validate:"required_if=Layout ribbon,omitempty,gt=0"`
}

type ListAnnotationsResponse struct {
	Annotations   []AnnotationResponse `json:"annotations"`
	Markers       []overlay.Marker     `json:"markers"`
	Overflow      int                  `json:"overflow,omitempty"`
	OverflowLabel string               `json:"overflow_label,omitempty"`
}
