package dto

import (
	"ai-reading-be/pkg/geometry"
)

// BeginSelectionRequest arrives as multipart form values next to the page raster.
type BeginSelectionRequest struct {
	Page            int     `form:"page" validate:"required,min=1"`
	DisplayedWidth  float64 `form:"displayed_width" validate:"required,gt=0"`
	DisplayedHeight float64 `form:"displayed_height" validate:"required,gt=0"`
	Zoom            float64 `form:"zoom" validate:"omitempty,gt=0"`
	Intent          string  `form:"intent"`
}

type PointerRequest struct {
	Event string  `json:"event" validate:"required,oneof=down move up"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

type SelectionStateResponse struct {
	State   string         `json:"state"`
	Region  *geometry.Rect `json:"region,omitempty"`
	Capture *CaptureInfo   `json:"capture,omitempty"`
}

type CaptureInfo struct {
	PageNumber  int           `json:"page_number"`
	Intent      string        `json:"intent,omitempty"`
	Region      geometry.Rect `json:"region"`
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	ContentType string        `json:"content_type"`
	DataURL     string        `json:"data_url"`
}

// AIActionRequest asks for an explanation of the current capture. Text may be sent instead
// of a capture, in which case the annotation lands on the current page.
type AIActionRequest struct {
	Action string `json:"action" validate:"required,oneof=define elaborate visualize simplify meaning example story summary"`
	Text   string `json:"text" validate:"max=4000"`
}

type AIActionResponse struct {
	Annotation *AnnotationResponse `json:"annotation,omitempty"`
	Answer     string              `json:"answer,omitempty"`
	ImageRef   string              `json:"image_ref,omitempty"`
	// Retryable is set when the AI service failed; the same request may be sent again.
	Retryable bool   `json:"retryable,omitempty"`
	Error     string `json:"error,omitempty"`
}
