package dto

import (
	"time"

	"ai-reading-be/pkg/assessment"
	"ai-reading-be/pkg/tutor"

	"github.com/google/uuid"
)

type StartAssessmentRequest struct {
	DocumentId         *uuid.UUID `json:"document_id"`
	FromPage           int        `json:"from_page" validate:"omitempty,min=1"`
	ToPage             int        `json:"to_page" validate:"omitempty,min=1,gtefield=FromPage"`
	ClassLevel         string     `json:"class_level" validate:"max=50"`
	Subject            string     `json:"subject" validate:"max=100"`
	Chapter            string     `json:"chapter" validate:"max=255"`
	BrowserRecognition bool       `json:"browser_recognition"`
	AudioCapture       bool       `json:"audio_capture"`
}

type RecognitionResultRequest struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

type RecognitionErrorRequest struct {
	Code string `json:"code" validate:"required"`
}

type TypedAnswerRequest struct {
	Text string `json:"text" validate:"max=4000"`
}

type AssessmentAnswerResponse struct {
	QuestionIndex int       `json:"question_index"`
	Text          string    `json:"text"`
	Timestamp     time.Time `json:"timestamp"`
}

type AssessmentResultResponse struct {
	Score       int                   `json:"score"`
	Feedback    string                `json:"feedback"`
	Breakdown   []tutor.QuestionScore `json:"breakdown,omitempty"`
	Fallback    bool                  `json:"fallback"`
	CompletedAt time.Time             `json:"completed_at"`
}

type AssessmentSessionResponse struct {
	Id                string                     `json:"id"`
	DocumentId        string                     `json:"document_id,omitempty"`
	FromPage          int                        `json:"from_page,omitempty"`
	ToPage            int                        `json:"to_page,omitempty"`
	Phase             string                     `json:"phase"`
	Questions         []string                   `json:"questions"`
	FallbackQuestions bool                       `json:"fallback_questions"`
	CurrentIndex      int                        `json:"current_index"`
	CurrentQuestion   string                     `json:"current_question,omitempty"`
	Answers           []AssessmentAnswerResponse `json:"answers"`
	Transcript        string                     `json:"transcript"`
	Interim           string                     `json:"interim,omitempty"`
	Recognition       string                     `json:"recognition"`
	RecognitionCode   string                     `json:"recognition_code,omitempty"`
	Synthesis         string                     `json:"synthesis"`
	InputMode         string                     `json:"input_mode"`
	Notice            string                     `json:"notice,omitempty"`
	Result            *AssessmentResultResponse  `json:"result,omitempty"`
	StartedAt         time.Time                  `json:"started_at"`
}

type AssessmentHistoryItem struct {
	Id                uuid.UUID  `json:"id"`
	DocumentId        *uuid.UUID `json:"document_id,omitempty"`
	FromPage          int        `json:"from_page"`
	ToPage            int        `json:"to_page"`
	Subject           string     `json:"subject,omitempty"`
	Chapter           string     `json:"chapter,omitempty"`
	Score             int        `json:"score"`
	Feedback          string     `json:"feedback"`
	FallbackScore     bool       `json:"fallback_score"`
	FallbackQuestions bool       `json:"fallback_questions"`
	InputMode         string     `json:"input_mode"`
	CompletedAt       time.Time  `json:"completed_at"`
}

type AssessmentHistoryRequest struct {
	DocumentId *uuid.UUID `query:"document_id"`
	Page       int        `query:"page"`
	PageSize   int        `query:"page_size"`
}

type StoredAnswerResponse struct {
	QuestionIndex int       `json:"question_index"`
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	AnsweredAt    time.Time `json:"answered_at"`
}

type AssessmentResultDetailResponse struct {
	AssessmentHistoryItem
	ClassLevel string                 `json:"class_level,omitempty"`
	Breakdown  []tutor.QuestionScore  `json:"breakdown,omitempty"`
	Answers    []StoredAnswerResponse `json:"answers"`
	StartedAt  time.Time              `json:"started_at"`
}

type AssessmentHistoryResponse struct {
	Items []AssessmentHistoryItem `json:"items"`
	Total int64                   `json:"total"`
}

func NewAssessmentSessionResponse(s assessment.Snapshot) AssessmentSessionResponse {
	res := AssessmentSessionResponse{
		Id:                s.ID,
		DocumentId:        s.DocumentID,
		FromPage:          s.FromPage,
		ToPage:            s.ToPage,
		Phase:             s.Phase.String(),
		Questions:         s.Questions,
		FallbackQuestions: s.FallbackQuestions,
		CurrentIndex:      s.CurrentIndex,
		Answers:           make([]AssessmentAnswerResponse, len(s.Answers)),
		Transcript:        s.Transcript,
		Interim:           s.Interim,
		Recognition:       string(s.Recognition),
		RecognitionCode:   s.RecognitionCode,
		Synthesis:         string(s.Synthesis),
		InputMode:         string(s.InputMode),
		Notice:            s.Notice,
		StartedAt:         s.StartedAt,
	}
	if res.Questions == nil {
		res.Questions = []string{}
	}
	if q, ok := s.CurrentQuestion(); ok {
		res.CurrentQuestion = q
	}
	for i, a := range s.Answers {
		res.Answers[i] = AssessmentAnswerResponse{QuestionIndex: a.QuestionIndex, Text: a.Text, Timestamp: a.Timestamp}
	}
	if s.Result != nil {
		res.Result = &AssessmentResultResponse{
			Score:       s.Result.Score,
			Feedback:    s.Result.Feedback,
			Breakdown:   s.Result.Breakdown,
			Fallback:    s.Result.Fallback,
			CompletedAt: s.Result.CompletedAt,
		}
	}
	return res
}
