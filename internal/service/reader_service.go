package service

import (
	"context"

	"ai-reading-be/internal/config"
	"ai-reading-be/internal/dto"
	"ai-reading-be/internal/pkg/logger"
	"ai-reading-be/internal/repository/contract"
	"ai-reading-be/internal/repository/memory"
	"ai-reading-be/internal/repository/unitofwork"
	"ai-reading-be/pkg/events"
	"ai-reading-be/pkg/navigation"
	"ai-reading-be/pkg/reader"
	"ai-reading-be/pkg/selection"
	"ai-reading-be/pkg/tutor"

	"github.com/google/uuid"
)

type IReaderService interface {
	// Open loads the document into a workspace and resumes saved progress. Opening an
	// already open document returns its current state.
	Open(ctx context.Context, userId, documentId uuid.UUID) (*dto.ReaderStateResponse, error)
	State(ctx context.Context, userId, documentId uuid.UUID) (*dto.ReaderStateResponse, error)
	GoToPage(ctx context.Context, userId, documentId uuid.UUID, delta int) (*dto.NavigationResponse, error)
	JumpTo(ctx context.Context, userId, documentId uuid.UUID, page int) (*dto.NavigationResponse, error)
	Close(ctx context.Context, userId, documentId uuid.UUID) error
}

type readerService struct {
	uowFactory   unitofwork.RepositoryFactory
	progressRepo contract.ProgressRepository
	workspaces   *memory.WorkspaceRepository
	publisher    IPublisherService
	navConfig    navigation.Config
	selConfig    selection.Config
	navOptions   []navigation.Option
	logger       logger.ILogger
}

func NewReaderService(
	uowFactory unitofwork.RepositoryFactory,
	progressRepo contract.ProgressRepository,
	workspaces *memory.WorkspaceRepository,
	publisher IPublisherService,
	cfg config.ReaderConfig,
	log logger.ILogger,
	navOptions ...navigation.Option,
) IReaderService {
	return &readerService{
		uowFactory:   uowFactory,
		progressRepo: progressRepo,
		workspaces:   workspaces,
		publisher:    publisher,
		navConfig: navigation.Config{
			Interval: cfg.MilestoneInterval,
			OutDelay: cfg.TransitionOut,
			InDelay:  cfg.TransitionIn,
		},
		selConfig: selection.Config{
			MinDim:  float64(cfg.MinSelectionDim),
			MaxEdge: cfg.MaxCaptureEdge,
		},
		navOptions: navOptions,
		logger:     log,
	}
}

func (s *readerService) Open(ctx context.Context, userId, documentId uuid.UUID) (*dto.ReaderStateResponse, error) {
	if ws, ok := s.workspaces.Get(userId.String(), documentId.String()); ok {
		return stateResponse(ws), nil
	}

	doc, err := findDocument(ctx, s.uowFactory.NewUnitOfWork(ctx), userId, documentId)
	if err != nil {
		return nil, err
	}

	progress, err := s.progressRepo.Get(ctx, userId, documentId)
	if err != nil {
		// start from the first page rather than refuse to open
		s.logger.Warn("ReaderService", "Failed to load reading progress", map[string]interface{}{
			"document_id": documentId,
			"error":       err.Error(),
		})
		progress = nil
	}

	userKey, docKey := userId.String(), documentId.String()
	opts := append([]navigation.Option{
		navigation.OnPageChange(func(st navigation.State) {
			s.publish(events.PageChanged(userKey, docKey, st.Page, st.PageCount, st.LastMilestone))
		}),
		navigation.OnAssessmentAvailable(func(m navigation.Milestone) {
			s.publish(events.AssessmentAvailable(userKey, docKey, doc.Title, m.From, m.To))
		}),
	}, s.navOptions...)

	ws := reader.NewWorkspace(reader.Document{
		UserID:     userKey,
		DocumentID: docKey,
		Title:      doc.Title,
		PageCount:  doc.PageCount,
		Topic: tutor.Topic{
			ClassLevel: doc.ClassLevel,
			Subject:    doc.Subject,
			Chapter:    doc.Chapter,
		},
	}, s.navConfig, s.selConfig, opts...)

	if progress != nil {
		ws.Navigator.Restore(progress.Page, progress.LastMilestone)
	}
	s.workspaces.Save(ws)

	s.logger.Info("ReaderService", "Document opened", map[string]interface{}{
		"user_id":     userId,
		"document_id": documentId,
		"page":        ws.Navigator.State().Page,
	})
	return stateResponse(ws), nil
}

func (s *readerService) State(ctx context.Context, userId, documentId uuid.UUID) (*dto.ReaderStateResponse, error) {
	ws, err := s.workspace(userId, documentId)
	if err != nil {
		return nil, err
	}
	return stateResponse(ws), nil
}

func (s *readerService) GoToPage(ctx context.Context, userId, documentId uuid.UUID, delta int) (*dto.NavigationResponse, error) {
	ws, err := s.workspace(userId, documentId)
	if err != nil {
		return nil, err
	}
	accepted := ws.Navigator.GoToPage(delta)
	return &dto.NavigationResponse{Accepted: accepted, State: *stateResponse(ws)}, nil
}

func (s *readerService) JumpTo(ctx context.Context, userId, documentId uuid.UUID, page int) (*dto.NavigationResponse, error) {
	ws, err := s.workspace(userId, documentId)
	if err != nil {
		return nil, err
	}
	accepted := ws.Navigator.JumpTo(page)
	return &dto.NavigationResponse{Accepted: accepted, State: *stateResponse(ws)}, nil
}

func (s *readerService) Close(ctx context.Context, userId, documentId uuid.UUID) error {
	if _, err := s.workspace(userId, documentId); err != nil {
		return err
	}
	s.workspaces.Delete(userId.String(), documentId.String())
	return nil
}

func (s *readerService) workspace(userId, documentId uuid.UUID) (*reader.Workspace, error) {
	ws, ok := s.workspaces.Get(userId.String(), documentId.String())
	if !ok {
		return nil, ErrReaderNotOpen
	}
	return ws, nil
}

// publish runs on the navigator's timer goroutine, so it has no request context.
func (s *readerService) publish(evt events.BaseEvent) {
	if err := s.publisher.Publish(context.Background(), evt); err != nil {
		s.logger.Error("ReaderService", "Failed to publish reader event", map[string]interface{}{
			"type":  evt.Type,
			"error": err.Error(),
		})
	}
}

func stateResponse(ws *reader.Workspace) *dto.ReaderStateResponse {
	st := ws.Navigator.State()
	documentId, _ := uuid.Parse(ws.DocumentID)
	return &dto.ReaderStateResponse{
		DocumentId:    documentId,
		Title:         ws.Title,
		Page:          st.Page,
		PageCount:     st.PageCount,
		Transitioning: st.Transitioning,
		LastMilestone: st.LastMilestone,
	}
}
