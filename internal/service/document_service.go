package service

import (
	"context"
	"io"
	"time"

	"ai-reading-be/internal/dto"
	"ai-reading-be/internal/entity"
	"ai-reading-be/internal/pkg/logger"
	"ai-reading-be/internal/repository/contract"
	"ai-reading-be/internal/repository/specification"
	"ai-reading-be/internal/repository/unitofwork"
	"ai-reading-be/pkg/document"

	"github.com/google/uuid"
)

type IDocumentService interface {
	// Register stores a document. With pdf set the page count is read from the file.
	Register(ctx context.Context, userId uuid.UUID, req *dto.RegisterDocumentRequest, pdf io.ReadSeeker) (*dto.DocumentResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.DocumentResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error
}

type documentService struct {
	uowFactory   unitofwork.RepositoryFactory
	progressRepo contract.ProgressRepository
	logger       logger.ILogger
}

func NewDocumentService(uowFactory unitofwork.RepositoryFactory, progressRepo contract.ProgressRepository, log logger.ILogger) IDocumentService {
	return &documentService{
		uowFactory:   uowFactory,
		progressRepo: progressRepo,
		logger:       log,
	}
}

func (s *documentService) Register(ctx context.Context, userId uuid.UUID, req *dto.RegisterDocumentRequest, pdf io.ReadSeeker) (*dto.DocumentResponse, error) {
	pageCount := req.PageCount
	if pdf != nil {
		n, err := document.PageCount(pdf)
		if err != nil {
			s.logger.Warn("DocumentService", "Rejected upload", map[string]interface{}{
				"user_id": userId,
				"error":   err.Error(),
			})
			return nil, ErrUnreadableDocument
		}
		pageCount = n
	}
	if pageCount < 1 {
		return nil, ErrMissingPageCount
	}

	doc := entity.Document{
		Id:         uuid.New(),
		UserId:     userId,
		Title:      req.Title,
		PageCount:  pageCount,
		ClassLevel: req.ClassLevel,
		Subject:    req.Subject,
		Chapter:    req.Chapter,
		CreatedAt:  time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, &doc); err != nil {
		return nil, err
	}

	return toDocumentResponse(&doc), nil
}

func (s *documentService) List(ctx context.Context, userId uuid.UUID) ([]*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		res = append(res, toDocumentResponse(d))
	}
	return res, nil
}

func (s *documentService) Show(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.DocumentResponse, error) {
	doc, err := findDocument(ctx, s.uowFactory.NewUnitOfWork(ctx), userId, id)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc), nil
}

func (s *documentService) Delete(ctx context.Context, userId uuid.UUID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if _, err := findDocument(ctx, uow, userId, id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}

	if err := s.progressRepo.Delete(ctx, userId, id); err != nil {
		s.logger.Warn("DocumentService", "Failed to clear reading progress", map[string]interface{}{
			"document_id": id,
			"error":       err.Error(),
		})
	}
	return nil
}

func findDocument(ctx context.Context, uow unitofwork.UnitOfWork, userId, id uuid.UUID) (*entity.Document, error) {
	doc, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByUserID{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

func toDocumentResponse(d *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:         d.Id,
		Title:      d.Title,
		PageCount:  d.PageCount,
		ClassLevel: d.ClassLevel,
		Subject:    d.Subject,
		Chapter:    d.Chapter,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}
