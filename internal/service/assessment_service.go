package service

import (
	"context"
	"errors"

	"ai-reading-be/internal/config"
	"ai-reading-be/internal/dto"
	"ai-reading-be/internal/entity"
	"ai-reading-be/internal/pkg/logger"
	"ai-reading-be/internal/repository/memory"
	"ai-reading-be/internal/repository/specification"
	"ai-reading-be/internal/repository/unitofwork"
	"ai-reading-be/internal/websocket"
	"ai-reading-be/pkg/assessment"
	"ai-reading-be/pkg/events"
	"ai-reading-be/pkg/tutor"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAssessmentService interface {
	Start(ctx context.Context, userId uuid.UUID, req *dto.StartAssessmentRequest) (*dto.AssessmentSessionResponse, error)
	Show(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error)

	StartListening(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error)
	StopListening(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error)
	PushAudio(ctx context.Context, userId uuid.UUID, sessionId string, chunk []byte, contentType string) error
	RecognitionResult(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.RecognitionResultRequest) (*dto.AssessmentSessionResponse, error)
	RecognitionError(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.RecognitionErrorRequest) (*dto.AssessmentSessionResponse, error)
	RecognitionEnd(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error)
	SpeechStarted(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error)
	SpeechEnded(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error)
	SetTypedAnswer(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.TypedAnswerRequest) (*dto.AssessmentSessionResponse, error)
	SubmitAnswer(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error)

	Cancel(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error)
	// Close acknowledges a finished session and frees the speech device.
	Close(ctx context.Context, userId uuid.UUID, sessionId string) error
	History(ctx context.Context, userId uuid.UUID, req *dto.AssessmentHistoryRequest) (*dto.AssessmentHistoryResponse, error)
	ShowResult(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.AssessmentResultDetailResponse, error)
}

type assessmentService struct {
	uowFactory unitofwork.RepositoryFactory
	sessions   *memory.AssessmentSessionRepository
	devices    *memory.SpeechDeviceRepository
	tutor      tutor.Service
	pusher     Pusher
	bus        EventPublisher
	cfg        assessment.Config
	logger     logger.ILogger
}

func NewAssessmentService(
	uowFactory unitofwork.RepositoryFactory,
	sessions *memory.AssessmentSessionRepository,
	devices *memory.SpeechDeviceRepository,
	tutorService tutor.Service,
	pusher Pusher,
	bus EventPublisher,
	cfg config.AssessmentConfig,
	log logger.ILogger,
) IAssessmentService {
	return &assessmentService{
		uowFactory: uowFactory,
		sessions:   sessions,
		devices:    devices,
		tutor:      tutorService,
		pusher:     pusher,
		bus:        bus,
		cfg: assessment.Config{
			QuestionCount:    cfg.QuestionCount,
			FallbackScoreMin: cfg.FallbackScoreMin,
			FallbackScoreMax: cfg.FallbackScoreMax,
			RequestTimeout:   cfg.RequestTimeout,
		},
		logger: log,
	}
}

func (s *assessmentService) Start(ctx context.Context, userId uuid.UUID, req *dto.StartAssessmentRequest) (*dto.AssessmentSessionResponse, error) {
	topic := tutor.Topic{ClassLevel: req.ClassLevel, Subject: req.Subject, Chapter: req.Chapter}

	opts := []assessment.Option{
		assessment.WithOwner(userId.String()),
		assessment.WithLogger(s.logger),
		assessment.WithCompletionHook(s.complete),
		assessment.WithChangeHook(func(snap assessment.Snapshot) {
			s.pusher.Push(userId, websocket.TypeAssessmentState, dto.NewAssessmentSessionResponse(snap))
		}),
	}

	if req.DocumentId != nil {
		doc, err := findDocument(ctx, s.uowFactory.NewUnitOfWork(ctx), userId, *req.DocumentId)
		if err != nil {
			return nil, err
		}
		if req.ToPage > doc.PageCount {
			return nil, ErrPageOutOfRange
		}
		topic.ClassLevel = orElse(topic.ClassLevel, doc.ClassLevel)
		topic.Subject = orElse(topic.Subject, doc.Subject)
		topic.Chapter = orElse(topic.Chapter, doc.Chapter)
		opts = append(opts, assessment.WithSource(doc.Id.String(), req.FromPage, req.ToPage))
	}

	session := assessment.NewSession(uuid.New().String(), topic, s.tutor, s.devices.Get(userId.String()), s.cfg, opts...)
	s.sessions.Save(session)

	// speech and evaluation keep running after this request returns
	err := session.Start(context.WithoutCancel(ctx), assessment.Capabilities{
		BrowserRecognition: req.BrowserRecognition,
		AudioCapture:       req.AudioCapture,
	})
	if err != nil {
		s.sessions.Delete(session.ID())
		return nil, assessmentError(err)
	}

	return sessionResponse(session), nil
}

func (s *assessmentService) Show(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error) {
	session, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}
	return sessionResponse(session), nil
}

func (s *assessmentService) StartListening(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error) {
	return s.apply(userId, sessionId, func(session *assessment.Session) error {
		return session.StartListening()
	})
}

func (s *assessmentService) StopListening(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error) {
	return s.apply(userId, sessionId, func(session *assessment.Session) error {
		return session.StopListening()
	})
}

func (s *assessmentService) PushAudio(ctx context.Context, userId uuid.UUID, sessionId string, chunk []byte, contentType string) error {
	session, err := s.session(userId, sessionId)
	if err != nil {
		return err
	}
	return assessmentError(session.PushAudio(chunk, contentType))
}

func (s *assessmentService) RecognitionResult(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.RecognitionResultRequest) (*dto.AssessmentSessionResponse, error) {
	return s.apply(userId, sessionId, func(session *assessment.Session) error {
		session.OnRecognitionResult(req.Text, req.Final)
		return nil
	})
}

func (s *assessmentService) RecognitionError(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.RecognitionErrorRequest) (*dto.AssessmentSessionResponse, error) {
	return s.apply(userId, sessionId, func(session *assessment.Session) error {
		session.OnRecognitionError(req.Code)
		return nil
	})
}

func (s *assessmentService) RecognitionEnd(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error) {
	return s.apply(userId, sessionId, func(session *assessment.Session) error {
		session.OnRecognitionEnd()
		return nil
	})
}

func (s *assessmentService) SpeechStarted(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error) {
	return s.apply(userId, sessionId, func(session *assessment.Session) error {
		session.OnSpeechStart()
		return nil
	})
}

func (s *assessmentService) SpeechEnded(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error) {
	return s.apply(userId, sessionId, func(session *assessment.Session) error {
		session.OnSpeechEnd()
		return nil
	})
}

func (s *assessmentService) SetTypedAnswer(ctx context.Context, userId uuid.UUID, sessionId string, req *dto.TypedAnswerRequest) (*dto.AssessmentSessionResponse, error) {
	return s.apply(userId, sessionId, func(session *assessment.Session) error {
		return session.SetTypedAnswer(req.Text)
	})
}

func (s *assessmentService) SubmitAnswer(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error) {
	return s.apply(userId, sessionId, func(session *assessment.Session) error {
		return session.SubmitAnswer(context.WithoutCancel(ctx))
	})
}

func (s *assessmentService) Cancel(ctx context.Context, userId uuid.UUID, sessionId string) (*dto.AssessmentSessionResponse, error) {
	session, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}
	session.Cancel()
	return sessionResponse(session), nil
}

func (s *assessmentService) Close(ctx context.Context, userId uuid.UUID, sessionId string) error {
	if _, err := s.session(userId, sessionId); err != nil {
		return err
	}
	// eviction closes the session
	s.sessions.Delete(sessionId)
	return nil
}

func (s *assessmentService) History(ctx context.Context, userId uuid.UUID, req *dto.AssessmentHistoryRequest) (*dto.AssessmentHistoryResponse, error) {
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filters := []specification.Specification{specification.ByUserID{UserID: userId}}
	if req.DocumentId != nil {
		filters = append(filters, specification.ByDocumentID{DocumentID: *req.DocumentId})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	total, err := uow.AssessmentRepository().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	results, err := uow.AssessmentRepository().FindAll(ctx,
		append(filters, specification.Pagination{Limit: pageSize, Offset: (page - 1) * pageSize})...,
	)
	if err != nil {
		return nil, err
	}

	res := &dto.AssessmentHistoryResponse{Items: make([]dto.AssessmentHistoryItem, 0, len(results)), Total: total}
	for _, r := range results {
		res.Items = append(res.Items, toHistoryItem(r))
	}
	return res, nil
}

func (s *assessmentService) ShowResult(ctx context.Context, userId uuid.UUID, id uuid.UUID) (*dto.AssessmentResultDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	r, err := uow.AssessmentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByUserID{UserID: userId},
		specification.WithAnswers{},
	)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrResultNotFound
	}

	res := &dto.AssessmentResultDetailResponse{
		AssessmentHistoryItem: toHistoryItem(r),
		ClassLevel:            r.ClassLevel,
		Breakdown:             make([]tutor.QuestionScore, len(r.Breakdown)),
		Answers:               make([]dto.StoredAnswerResponse, len(r.Answers)),
		StartedAt:             r.StartedAt,
	}
	for i, b := range r.Breakdown {
		res.Breakdown[i] = tutor.QuestionScore{QuestionIndex: b.QuestionIndex, Score: b.Score, Feedback: b.Feedback}
	}
	for i, a := range r.Answers {
		res.Answers[i] = dto.StoredAnswerResponse{
			QuestionIndex: a.QuestionIndex,
			Question:      a.Question,
			Answer:        a.Answer,
			AnsweredAt:    a.AnsweredAt,
		}
	}
	return res, nil
}

func toHistoryItem(r *entity.AssessmentResult) dto.AssessmentHistoryItem {
	return dto.AssessmentHistoryItem{
		Id:                r.Id,
		DocumentId:        r.DocumentId,
		FromPage:          r.FromPage,
		ToPage:            r.ToPage,
		Subject:           r.Subject,
		Chapter:           r.Chapter,
		Score:             r.Score,
		Feedback:          r.Feedback,
		FallbackScore:     r.FallbackScore,
		FallbackQuestions: r.FallbackQuestions,
		InputMode:         r.InputMode,
		CompletedAt:       r.CompletedAt,
	}
}

// complete stores a finished session and announces it. Cancelled sessions never get here.
func (s *assessmentService) complete(ctx context.Context, snap assessment.Snapshot) error {
	userId, err := uuid.Parse(snap.Owner)
	if err != nil {
		return err
	}

	result := &entity.AssessmentResult{
		Id:                uuid.New(),
		UserId:            userId,
		FromPage:          snap.FromPage,
		ToPage:            snap.ToPage,
		ClassLevel:        snap.Topic.ClassLevel,
		Subject:           snap.Topic.Subject,
		Chapter:           snap.Topic.Chapter,
		Score:             snap.Result.Score,
		Feedback:          snap.Result.Feedback,
		FallbackScore:     snap.Result.Fallback,
		FallbackQuestions: snap.FallbackQuestions,
		InputMode:         string(snap.InputMode),
		StartedAt:         snap.StartedAt,
		CompletedAt:       snap.Result.CompletedAt,
	}
	if documentId, err := uuid.Parse(snap.DocumentID); err == nil {
		result.DocumentId = &documentId
	}
	for _, b := range snap.Result.Breakdown {
		result.Breakdown = append(result.Breakdown, entity.QuestionScore{
			QuestionIndex: b.QuestionIndex,
			Score:         b.Score,
			Feedback:      b.Feedback,
		})
	}
	for _, a := range snap.Answers {
		answer := entity.AssessmentAnswer{
			QuestionIndex: a.QuestionIndex,
			Answer:        a.Text,
			AnsweredAt:    a.Timestamp,
		}
		if a.QuestionIndex < len(snap.Questions) {
			answer.Question = snap.Questions[a.QuestionIndex]
		}
		result.Answers = append(result.Answers, answer)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.AssessmentRepository().Create(ctx, result); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if s.bus == nil {
		return nil
	}
	evt := events.AssessmentCompleted(snap.Owner, result.Id.String(), snap.DocumentID, result.Score, result.FallbackScore)
	if err := s.bus.Publish(ctx, evt); err != nil {
		s.logger.Warn("AssessmentService", "Failed to publish completion", map[string]interface{}{
			"session_id": snap.ID,
			"error":      err.Error(),
		})
	}
	return nil
}

func (s *assessmentService) apply(userId uuid.UUID, sessionId string, op func(*assessment.Session) error) (*dto.AssessmentSessionResponse, error) {
	session, err := s.session(userId, sessionId)
	if err != nil {
		return nil, err
	}
	if err := op(session); err != nil {
		return nil, assessmentError(err)
	}
	return sessionResponse(session), nil
}

// session looks a session up for its owner. Other learners see it as missing.
func (s *assessmentService) session(userId uuid.UUID, sessionId string) (*assessment.Session, error) {
	session, ok := s.sessions.Get(sessionId)
	if !ok || session.Snapshot().Owner != userId.String() {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func sessionResponse(session *assessment.Session) *dto.AssessmentSessionResponse {
	res := dto.NewAssessmentSessionResponse(session.Snapshot())
	return &res
}

func assessmentError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, assessment.ErrEmptyAnswer):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, assessment.ErrAlreadyStarted),
		errors.Is(err, assessment.ErrNotAwaiting),
		errors.Is(err, assessment.ErrSpeaking),
		errors.Is(err, assessment.ErrTypedInput),
		errors.Is(err, assessment.ErrCancelled):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}

func orElse(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
