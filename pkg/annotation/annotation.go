package annotation

import (
	"time"

	"ai-reading-be/pkg/geometry"
)

// Kind tags which payload an Annotation carries.
type Kind string

const (
	KindNote       Kind = "NOTE"
	KindAIResponse Kind = "AI_RESPONSE"
)

// Action is the kind of explanation requested from the AI service.
type Action string

const (
	ActionDefine    Action = "define"
	ActionElaborate Action = "elaborate"
	ActionVisualize Action = "visualize"
	ActionSimplify  Action = "simplify"
	ActionMeaning   Action = "meaning"
	ActionExample   Action = "example"
	ActionStory     Action = "story"
	ActionSummary   Action = "summary"
)

var actions = []Action{
	ActionDefine,
	ActionElaborate,
	ActionVisualize,
	ActionSimplify,
	ActionMeaning,
	ActionExample,
	ActionStory,
	ActionSummary,
}

// Actions lists every supported action in display order.
func Actions() []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

func (a Action) Valid() bool {
	for _, known := range actions {
		if a == known {
			return true
		}
	}
	return false
}

type NotePayload struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

type AIPayload struct {
	Action       Action `json:"action"`
	ResponseText string `json:"response_text"`
	ImageRef     string `json:"image_ref,omitempty"`
}

// Annotation is a marker attached to exactly one page of one document.
// Exactly one of Note and AI is set, matching Kind.
type Annotation struct {
	ID          uint64         `json:"id"`
	Kind        Kind           `json:"kind"`
	SourceText  string         `json:"source_text"`
	Note        *NotePayload   `json:"note,omitempty"`
	AI          *AIPayload     `json:"ai,omitempty"`
	DocumentID  string         `json:"document_id"`
	PageNumber  int            `json:"page_number"`
	Anchor      geometry.Point `json:"anchor"`
	Synthesized bool           `json:"synthesized"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Title is the short label shown on a marker.
func (a Annotation) Title() string {
	switch a.Kind {
	case KindNote:
		if a.Note != nil {
			return a.Note.Heading
		}
	case KindAIResponse:
		if a.AI != nil {
			return string(a.AI.Action)
		}
	}
	return ""
}
