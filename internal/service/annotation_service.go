package service

import (
	"context"
	"errors"

	"ai-reading-be/internal/dto"
	"ai-reading-be/internal/mapper"
	"ai-reading-be/internal/pkg/logger"
	"ai-reading-be/internal/repository/memory"
	"ai-reading-be/internal/repository/specification"
	"ai-reading-be/internal/repository/unitofwork"
	"ai-reading-be/pkg/annotation"
	"ai-reading-be/pkg/overlay"
	"ai-reading-be/pkg/reader"

	"github.com/google/uuid"
)

const (
	LayoutAnchored = "anchored"
	LayoutRibbon   = "ribbon"
)

type IAnnotationService interface {
	CreateNote(ctx context.Context, userId, documentId uuid.UUID, req *dto.CreateNoteAnnotationRequest) (*dto.CreateNoteAnnotationResponse, error)
	// AddAIResponse records a tutor answer on the learner's store and persists it.
	AddAIResponse(ctx context.Context, userId, documentId uuid.UUID, page int, action annotation.Action, sourceText string, answer, imageRef string, anchor annotation.Anchor) (*dto.AnnotationResponse, error)
	List(ctx context.Context, userId, documentId uuid.UUID, req *dto.ListAnnotationsRequest) (*dto.ListAnnotationsResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uint64) (*dto.AnnotationResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uint64) error
}

type annotationService struct {
	uowFactory unitofwork.RepositoryFactory
	stores     *memory.AnnotationStoreRepository
	workspaces *memory.WorkspaceRepository
	placer     *overlay.Placer
	mapper     *mapper.AnnotationMapper
	logger     logger.ILogger
}

func NewAnnotationService(
	uowFactory unitofwork.RepositoryFactory,
	stores *memory.AnnotationStoreRepository,
	workspaces *memory.WorkspaceRepository,
	placer *overlay.Placer,
	log logger.ILogger,
) IAnnotationService {
	return &annotationService{
		uowFactory: uowFactory,
		stores:     stores,
		workspaces: workspaces,
		placer:     placer,
		mapper:     mapper.NewAnnotationMapper(),
		logger:     log,
	}
}

func (s *annotationService) CreateNote(ctx context.Context, userId, documentId uuid.UUID, req *dto.CreateNoteAnnotationRequest) (*dto.CreateNoteAnnotationResponse, error) {
	doc, err := findDocument(ctx, s.uowFactory.NewUnitOfWork(ctx), userId, documentId)
	if err != nil {
		return nil, err
	}
	if req.Page > doc.PageCount {
		return nil, ErrPageOutOfRange
	}

	anchor := annotation.Anchor{Synthesized: true}
	if req.FromSelection {
		ws, ok := s.workspaces.Get(userId.String(), documentId.String())
		if !ok {
			return nil, ErrReaderNotOpen
		}
		capture, captured, err := ws.LastCapture()
		if errors.Is(err, reader.ErrNoCapture) || (capture != nil && capture.PageNumber != req.Page) {
			return nil, ErrNoSelection
		}
		anchor = captured
	}

	store, err := s.store(ctx, userId)
	if err != nil {
		return nil, err
	}

	a, ok := store.AddNote(documentId.String(), req.Page, req.Heading, req.Body, req.SourceText, anchor)
	if !ok {
		return &dto.CreateNoteAnnotationResponse{Accepted: false}, nil
	}
	if err := s.persist(ctx, userId, store, a); err != nil {
		return nil, err
	}

	res := toAnnotationResponse(a)
	return &dto.CreateNoteAnnotationResponse{Accepted: true, Annotation: &res}, nil
}

func (s *annotationService) AddAIResponse(ctx context.Context, userId, documentId uuid.UUID, page int, action annotation.Action, sourceText string, answer, imageRef string, anchor annotation.Anchor) (*dto.AnnotationResponse, error) {
	store, err := s.store(ctx, userId)
	if err != nil {
		return nil, err
	}

	a := store.AddAIAnnotation(documentId.String(), page, action, sourceText, answer, imageRef, anchor)
	if err := s.persist(ctx, userId, store, a); err != nil {
		return nil, err
	}

	res := toAnnotationResponse(a)
	return &res, nil
}

func (s *annotationService) List(ctx context.Context, userId, documentId uuid.UUID, req *dto.ListAnnotationsRequest) (*dto.ListAnnotationsResponse, error) {
	if _, err := findDocument(ctx, s.uowFactory.NewUnitOfWork(ctx), userId, documentId); err != nil {
		return nil, err
	}

	store, err := s.store(ctx, userId)
	if err != nil {
		return nil, err
	}

	seq := store.ByPage(documentId.String(), req.Page)
	res := &dto.ListAnnotationsResponse{Annotations: make([]dto.AnnotationResponse, 0)}
	for a := range seq {
		res.Annotations = append(res.Annotations, toAnnotationResponse(a))
	}

	switch req.Layout {
	case LayoutRibbon:
		layout := s.placer.Ribbon(seq, req.PageWidth)
		res.Markers = layout.Markers
		res.Overflow = layout.Overflow
		res.OverflowLabel = layout.OverflowLabel()
	default:
		res.Markers = s.placer.Place(seq, req.Zoom)
	}

	return res, nil
}

func (s *annotationService) Show(ctx context.Context, userId uuid.UUID, id uint64) (*dto.AnnotationResponse, error) {
	store, err := s.store(ctx, userId)
	if err != nil {
		return nil, err
	}

	a, ok := store.Get(id)
	if !ok {
		return nil, ErrAnnotationNotFound
	}
	res := toAnnotationResponse(a)
	return &res, nil
}

func (s *annotationService) Delete(ctx context.Context, userId uuid.UUID, id uint64) error {
	store, err := s.store(ctx, userId)
	if err != nil {
		return err
	}

	// unknown ids are a no-op, like the store
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.AnnotationRepository().Delete(ctx, userId, id); err != nil {
		return err
	}
	store.Delete(id)
	return nil
}

// store returns the learner's annotations, hydrating them from the database on first use.
func (s *annotationService) store(ctx context.Context, userId uuid.UUID) (*annotation.Store, error) {
	return s.stores.GetOrLoad(userId.String(), func(store *annotation.Store) error {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		rows, err := uow.AnnotationRepository().FindAll(ctx, specification.ByUserID{UserID: userId})
		if err != nil {
			return err
		}
		for _, row := range rows {
			store.Restore(s.mapper.ToDomain(row))
		}
		s.logger.Debug("AnnotationService", "Annotation store hydrated", map[string]interface{}{
			"user_id": userId,
			"count":   len(rows),
		})
		return nil
	})
}

// persist writes a freshly added annotation and takes it back out of the store on failure.
func (s *annotationService) persist(ctx context.Context, userId uuid.UUID, store *annotation.Store, a annotation.Annotation) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.AnnotationRepository().Create(ctx, s.mapper.FromDomain(userId, a)); err != nil {
		store.Delete(a.ID)
		s.logger.Error("AnnotationService", "Failed to persist annotation", map[string]interface{}{
			"user_id": userId,
			"kind":    a.Kind,
			"error":   err.Error(),
		})
		return err
	}
	return nil
}

func toAnnotationResponse(a annotation.Annotation) dto.AnnotationResponse {
	res := dto.AnnotationResponse{
		Id:          a.ID,
		Kind:        string(a.Kind),
		SourceText:  a.SourceText,
		DocumentId:  a.DocumentID,
		PageNumber:  a.PageNumber,
		Anchor:      a.Anchor,
		Synthesized: a.Synthesized,
		CreatedAt:   a.CreatedAt,
	}
	if a.Note != nil {
		res.Heading = a.Note.Heading
		res.Body = a.Note.Body
	}
	if a.AI != nil {
		res.Action = string(a.AI.Action)
		res.ResponseText = a.AI.ResponseText
		res.ImageRef = a.AI.ImageRef
	}
	return res
}
