package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"ai-reading-be/internal/dto"
	"ai-reading-be/internal/pkg/logger"
	"ai-reading-be/internal/repository/memory"
	"ai-reading-be/pkg/annotation"
	"ai-reading-be/pkg/document"
	"ai-reading-be/pkg/geometry"
	"ai-reading-be/pkg/reader"
	"ai-reading-be/pkg/selection"
	"ai-reading-be/pkg/tutor"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type ISelectionService interface {
	// Begin starts a selection on the page raster the client rendered.
	Begin(ctx context.Context, userId, documentId uuid.UUID, req *dto.BeginSelectionRequest, raster io.Reader) (*dto.SelectionStateResponse, error)
	Pointer(ctx context.Context, userId, documentId uuid.UUID, req *dto.PointerRequest) (*dto.SelectionStateResponse, error)
	Cancel(ctx context.Context, userId, documentId uuid.UUID) (*dto.SelectionStateResponse, error)
	State(ctx context.Context, userId, documentId uuid.UUID) (*dto.SelectionStateResponse, error)
	// RequestAIAction sends the given text, or the last capture when no text is given, to the tutor and annotates the
	// page with the answer. Tutor failures come back as a retryable response, not an error.
	RequestAIAction(ctx context.Context, userId, documentId uuid.UUID, req *dto.AIActionRequest) (*dto.AIActionResponse, error)
	// Retry re-sends the last failed AI action.
	Retry(ctx context.Context, userId, documentId uuid.UUID) (*dto.AIActionResponse, error)
}

type selectionService struct {
	workspaces  *memory.WorkspaceRepository
	annotations IAnnotationService
	tutor       tutor.Service
	limiter     *tutor.KeyedLimiter
	failed      *cache.Cache
	logger      logger.ILogger
}

func NewSelectionService(
	workspaces *memory.WorkspaceRepository,
	annotations IAnnotationService,
	tutorService tutor.Service,
	limiter *tutor.KeyedLimiter,
	log logger.ILogger,
) ISelectionService {
	return &selectionService{
		workspaces:  workspaces,
		annotations: annotations,
		tutor:       tutorService,
		limiter:     limiter,
		failed:      cache.New(15*time.Minute, 30*time.Minute),
		logger:      log,
	}
}

func (s *selectionService) Begin(ctx context.Context, userId, documentId uuid.UUID, req *dto.BeginSelectionRequest, raster io.Reader) (*dto.SelectionStateResponse, error) {
	ws, err := s.workspace(userId, documentId)
	if err != nil {
		return nil, err
	}
	if req.Page > ws.PageCount {
		return nil, ErrPageOutOfRange
	}

	img, _, err := document.DecodeRaster(raster)
	if err != nil {
		s.logger.Warn("SelectionService", "Rejected page raster", map[string]interface{}{
			"user_id": userId,
			"error":   err.Error(),
		})
		return nil, ErrUnreadableRaster
	}

	err = ws.BeginSelection(selection.Target{
		PageNumber: req.Page,
		Displayed:  geometry.Size{Width: req.DisplayedWidth, Height: req.DisplayedHeight},
		Raster:     img,
		Intent:     req.Intent,
	}, req.Zoom)
	if err != nil {
		return nil, ErrUnreadableRaster
	}

	return selectionState(ws), nil
}

func (s *selectionService) Pointer(ctx context.Context, userId, documentId uuid.UUID, req *dto.PointerRequest) (*dto.SelectionStateResponse, error) {
	ws, err := s.workspace(userId, documentId)
	if err != nil {
		return nil, err
	}

	pt := geometry.Point{X: req.X, Y: req.Y}
	switch req.Event {
	case "down":
		ws.Selection.PointerDown(pt)
	case "move":
		ws.Selection.PointerMove(pt)
	case "up":
		if _, err := ws.FinishSelection(pt); err != nil {
			if errors.Is(err, selection.ErrEmptyCrop) {
				return nil, ErrNoSelection
			}
			return nil, err
		}
	}

	return selectionState(ws), nil
}

func (s *selectionService) Cancel(ctx context.Context, userId, documentId uuid.UUID) (*dto.SelectionStateResponse, error) {
	ws, err := s.workspace(userId, documentId)
	if err != nil {
		return nil, err
	}
	ws.Selection.Cancel()
	return selectionState(ws), nil
}

func (s *selectionService) State(ctx context.Context, userId, documentId uuid.UUID) (*dto.SelectionStateResponse, error) {
	ws, err := s.workspace(userId, documentId)
	if err != nil {
		return nil, err
	}
	return selectionState(ws), nil
}

func (s *selectionService) RequestAIAction(ctx context.Context, userId, documentId uuid.UUID, req *dto.AIActionRequest) (*dto.AIActionResponse, error) {
	ws, err := s.workspace(userId, documentId)
	if err != nil {
		return nil, err
	}
	if !s.limiter.Allow(userId.String()) {
		return nil, ErrTooManyRequests
	}

	action := annotation.Action(req.Action)
	aiReq := tutor.AIActionRequest{
		Text:   strings.TrimSpace(req.Text),
		Action: action,
		Topic:  ws.Topic,
	}

	page := ws.Navigator.State().Page
	anchor := annotation.Anchor{Synthesized: true}

	// explicit text wins over an earlier capture
	var capture *selection.Capture
	if aiReq.Text == "" {
		c, captured, err := ws.LastCapture()
		if err != nil {
			return nil, ErrNoSelection
		}
		capture = c
		aiReq.Image = capture.Image
		aiReq.ContentType = capture.ContentType
		page = capture.PageNumber
		anchor = captured
	}

	result, err := s.tutor.RequestAIAction(ctx, aiReq)
	if err != nil {
		s.failed.Set(failedKey(userId, documentId), *req, cache.DefaultExpiration)
		s.logger.Warn("SelectionService", "AI action failed", map[string]interface{}{
			"user_id": userId,
			"action":  action,
			"error":   err.Error(),
		})
		return &dto.AIActionResponse{Retryable: true, Error: "The tutor could not answer right now. Try again."}, nil
	}
	s.failed.Delete(failedKey(userId, documentId))

	sourceText := aiReq.Text
	if sourceText == "" && capture != nil {
		sourceText = capture.Intent
	}

	saved, err := s.annotations.AddAIResponse(ctx, userId, documentId, page, action, sourceText, result.Answer, result.ImageRef, anchor)
	if err != nil {
		return nil, err
	}

	return &dto.AIActionResponse{
		Annotation: saved,
		Answer:     result.Answer,
		ImageRef:   result.ImageRef,
	}, nil
}

func (s *selectionService) Retry(ctx context.Context, userId, documentId uuid.UUID) (*dto.AIActionResponse, error) {
	x, found := s.failed.Get(failedKey(userId, documentId))
	if !found {
		return nil, ErrNoSelection
	}
	req := x.(dto.AIActionRequest)
	return s.RequestAIAction(ctx, userId, documentId, &req)
}

func (s *selectionService) workspace(userId, documentId uuid.UUID) (*reader.Workspace, error) {
	ws, ok := s.workspaces.Get(userId.String(), documentId.String())
	if !ok {
		return nil, ErrReaderNotOpen
	}
	return ws, nil
}

func failedKey(userId, documentId uuid.UUID) string {
	return userId.String() + ":" + documentId.String()
}

func selectionState(ws *reader.Workspace) *dto.SelectionStateResponse {
	res := &dto.SelectionStateResponse{State: ws.Selection.State().String()}
	if r, ok := ws.Selection.Region(); ok {
		res.Region = &r
	}
	if c := ws.Selection.LastCapture(); c != nil {
		res.Capture = &dto.CaptureInfo{
			PageNumber:  c.PageNumber,
			Intent:      c.Intent,
			Region:      c.Region,
			Width:       c.Width,
			Height:      c.Height,
			ContentType: c.ContentType,
			DataURL:     c.DataURL(),
		}
	}
	return res
}
