package bootstrap

import (
	"context"
	"log"

	"ai-reading-be/internal/config"
	"ai-reading-be/internal/controller"
	"ai-reading-be/internal/handler"
	"ai-reading-be/internal/pkg/logger"
	"ai-reading-be/internal/repository/implementation"
	"ai-reading-be/internal/repository/memory"
	"ai-reading-be/internal/repository/unitofwork"
	"ai-reading-be/internal/service"
	"ai-reading-be/internal/websocket"
	"ai-reading-be/pkg/llm/factory"
	pktNats "ai-reading-be/pkg/nats"
	"ai-reading-be/pkg/overlay"
	"ai-reading-be/pkg/speech"
	speechOpenAI "ai-reading-be/pkg/speech/openai"
	"ai-reading-be/pkg/tutor"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	DocumentController   controller.IDocumentController
	ReaderController     controller.IReaderController
	SelectionController  controller.ISelectionController
	AnnotationController controller.IAnnotationController
	AssessmentController controller.IAssessmentController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	closers []func()
}

func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	speechLogger := logger.NewIsolatedLogger(cfg.App.SpeechLogFilePath)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	// NATS is optional; without it notifications are handled in process.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run(ctx)

	// 4. AI
	baseURL := cfg.Ai.OllamaBaseURL
	if cfg.Ai.LLMProvider == "openai" {
		baseURL = cfg.Ai.OpenAIBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, baseURL, cfg.Ai.OpenAIKey)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	tutorService := tutor.NewLLMService(llmProvider, sysLogger)
	limiter := tutor.NewKeyedLimiter(cfg.Ai.ActionsPerMinute, cfg.Ai.ActionBurst)

	var (
		synth speech.Synthesizer
		trans speech.Transcriber
	)
	if cfg.Ai.SpeechEnabled {
		s, err := speechOpenAI.NewSynthesizer(cfg.Ai.OpenAIBaseURL, cfg.Ai.SpeechModel,
			speechOpenAI.WithToken(cfg.Ai.OpenAIKey),
			speechOpenAI.WithVoice(cfg.Ai.SpeechVoice),
		)
		if err != nil {
			log.Printf("[WARN] Speech synthesis disabled: %v", err)
		} else {
			synth = s
		}
		t, err := speechOpenAI.NewTranscriber(cfg.Ai.OpenAIBaseURL, cfg.Ai.TranscriptionModel,
			speechOpenAI.WithToken(cfg.Ai.OpenAIKey),
		)
		if err != nil {
			log.Printf("[WARN] Server side transcription disabled: %v", err)
		} else {
			trans = t
		}
	}

	// 5. Repositories
	progressRepo := implementation.NewProgressRepository(rdb, cfg.Reader.ProgressTTL)
	workspaces := memory.NewWorkspaceRepository(cfg.Reader.WorkspaceTTL)
	annotationStores := memory.NewAnnotationStoreRepository(cfg.Reader.WorkspaceTTL)
	sessions := memory.NewAssessmentSessionRepository(cfg.Assessment.SessionTTL)
	devices := memory.NewSpeechDeviceRepository(cfg.Assessment.SessionTTL, func(owner string) *speech.Device {
		userID, _ := uuid.Parse(owner)
		return speech.NewDevice(synth, trans, wsHub.ClipSinkFor(userID), speechLogger)
	})

	// 6. Services
	notifRepo := implementation.NewNotificationRepository(db)
	notifService := service.NewNotificationService(notifRepo, natsSub, wsHub, wsLogger) // Hub implements NotificationDelivery

	// events go through NATS only when this instance also consumes them
	var bus service.EventPublisher = notifService
	if natsPub != nil && natsSub != nil {
		bus = natsPub
	}

	publisherService := service.NewPublisherService(cfg.App.ReaderEventTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.App.ReaderEventTopic, progressRepo, wsHub, bus, sysLogger)

	documentService := service.NewDocumentService(uowFactory, progressRepo, sysLogger)
	readerService := service.NewReaderService(uowFactory, progressRepo, workspaces, publisherService, cfg.Reader, sysLogger)
	annotationService := service.NewAnnotationService(uowFactory, annotationStores, workspaces, overlay.NewPlacer(overlay.DefaultConfig()), sysLogger)
	selectionService := service.NewSelectionService(workspaces, annotationService, tutorService, limiter, sysLogger)
	assessmentService := service.NewAssessmentService(uowFactory, sessions, devices, tutorService, wsHub, bus, cfg.Assessment, speechLogger)

	notifHandler := handler.NewNotificationHandler(notifService, bus, wsHub, wsLogger)

	c := &Container{
		DocumentController:   controller.NewDocumentController(documentService),
		ReaderController:     controller.NewReaderController(readerService),
		SelectionController:  controller.NewSelectionController(selectionService),
		AnnotationController: controller.NewAnnotationController(annotationService),
		AssessmentController: controller.NewAssessmentController(assessmentService),

		ConsumerService:     consumerService,
		NotificationService: notifService,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
	}

	if natsPub != nil {
		c.closers = append(c.closers, natsPub.Close)
	}
	if natsSub != nil {
		c.closers = append(c.closers, natsSub.Close)
	}
	c.closers = append(c.closers,
		func() { _ = pubSub.Close() },
		func() { _ = rdb.Close() },
		func() { _ = sysLogger.Sync() },
	)
	return c
}

// Close releases the connections opened by NewContainer.
func (c *Container) Close() {
	for _, fn := range c.closers {
		fn()
	}
}
