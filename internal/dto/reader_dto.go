package dto

import "github.com/google/uuid"

type GoToPageRequest struct {
	Delta int `json:"delta" validate:"oneof=-1 1"`
}

type JumpToPageRequest struct {
	Page int `json:"page" validate:"required,min=1"`
}

type ReaderStateResponse struct {
	DocumentId    uuid.UUID `json:"document_id"`
	Title         string    `json:"title"`
	Page          int       `json:"page"`
	PageCount     int       `json:"page_count"`
	Transitioning bool      `json:"transitioning"`
	LastMilestone int       `json:"last_milestone"`
}

// NavigationResponse reports whether a move was accepted. Rejected moves are not errors.
type NavigationResponse struct {
	Accepted bool                `json:"accepted"`
	State    ReaderStateResponse `json:"state"`
}

// PageChangedMessage is pushed over the websocket once a transition applies its page.
type PageChangedMessage struct {
	DocumentId    string `json:"document_id"`
	Page          int    `json:"page"`
	PageCount     int    `json:"page_count"`
	LastMilestone int    `json:"last_milestone"`
}

// ReaderEventMessage travels on the in-process reader topic.
type ReaderEventMessage struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt int64                  `json:"occurred_at"`
}
