package dto

import (
	"time"

	"github.com/google/uuid"
)

// RegisterDocumentRequest is used when the client already knows the page count. Uploads
// send the same fields as multipart form values next to the PDF.
type RegisterDocumentRequest struct {
	Title      string `json:"title" form:"title" validate:"required,max=255"`
	PageCount  int    `json:"page_count" form:"page_count" validate:"omitempty,min=1"`
	ClassLevel string `json:"class_level" form:"class_level" validate:"max=50"`
	Subject    string `json:"subject" form:"subject" validate:"max=100"`
	Chapter    string `json:"chapter" form:"chapter" validate:"max=255"`
}

type DocumentResponse struct {
	Id         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	PageCount  int        `json:"page_count"`
	ClassLevel string     `json:"class_level,omitempty"`
	Subject    string     `json:"subject,omitempty"`
	Chapter    string     `json:"chapter,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}
