package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-reading-be/internal/dto"
	"ai-reading-be/internal/entity"
	"ai-reading-be/internal/pkg/logger"
	"ai-reading-be/internal/repository/contract"
	"ai-reading-be/internal/websocket"
	"ai-reading-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// EventPublisher forwards events to the cross-service bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Pusher delivers live messages to a learner's connections.
type Pusher interface {
	Push(userID uuid.UUID, msgType string, data interface{}) bool
}

type consumerService struct {
	pubSub       *gochannel.GoChannel
	topicName    string
	progressRepo contract.ProgressRepository
	pusher       Pusher
	bus          EventPublisher
	logger       logger.ILogger
}

// NewConsumerService drains the reader topic: it saves progress, pushes page changes to the
// learner and forwards milestones to the bus. bus may be nil.
func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	progressRepo contract.ProgressRepository,
	pusher Pusher,
	bus EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:       pubSub,
		topicName:    topicName,
		progressRepo: progressRepo,
		pusher:       pusher,
		bus:          bus,
		logger:       log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ReaderEventMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("Consumer", "Failed to unmarshal reader event", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	userID, err := uuid.Parse(events.String(payload.Data, "user_id"))
	if err != nil {
		msg.Ack()
		return
	}
	documentID, err := uuid.Parse(events.String(payload.Data, "document_id"))
	if err != nil {
		msg.Ack()
		return
	}

	switch payload.Type {
	case events.TypePageChanged:
		err = cs.handlePageChanged(ctx, userID, documentID, payload.Data)
	case events.TypeAssessmentAvailable:
		err = cs.handleAssessmentAvailable(ctx, userID, documentID, payload)
	default:
		cs.logger.Warn("Consumer", "Unknown reader event", map[string]interface{}{"type": payload.Type})
	}

	if err != nil {
		// progress is a cache; a failed save is dropped so the topic keeps moving
		cs.logger.Error("Consumer", "Failed to process reader event", map[string]interface{}{
			"type":  payload.Type,
			"error": err.Error(),
		})
	}
	msg.Ack()
}

func (cs *consumerService) handlePageChanged(ctx context.Context, userID, documentID uuid.UUID, data map[string]interface{}) error {
	page := events.Int(data, "page")
	lastMilestone := events.Int(data, "last_milestone")

	if cs.pusher != nil {
		cs.pusher.Push(userID, websocket.TypePageChanged, dto.PageChangedMessage{
			DocumentId:    documentID.String(),
			Page:          page,
			PageCount:     events.Int(data, "page_count"),
			LastMilestone: lastMilestone,
		})
	}

	return cs.progressRepo.Save(ctx, &entity.ReadingProgress{
		UserId:        userID,
		DocumentId:    documentID,
		Page:          page,
		LastMilestone: lastMilestone,
		UpdatedAt:     time.Now(),
	})
}

func (cs *consumerService) handleAssessmentAvailable(ctx context.Context, userID, documentID uuid.UUID, payload dto.ReaderEventMessage) error {
	toPage := events.Int(payload.Data, "to_page")

	progress, err := cs.progressRepo.Get(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if progress == nil {
		progress = &entity.ReadingProgress{UserId: userID, DocumentId: documentID, Page: toPage}
	}
	if toPage > progress.LastMilestone {
		progress.LastMilestone = toPage
		progress.UpdatedAt = time.Now()
		if err := cs.progressRepo.Save(ctx, progress); err != nil {
			return err
		}
	}

	cs.logger.Info("Consumer", "Assessment available", map[string]interface{}{
		"user_id":     userID,
		"document_id": documentID,
		"to_page":     toPage,
	})

	if cs.bus == nil {
		return nil
	}
	evt := events.BaseEvent{
		Type:       payload.Type,
		Data:       payload.Data,
		OccurredAt: time.UnixMilli(payload.OccurredAt),
	}
	if err := cs.bus.Publish(ctx, evt); err != nil {
		// progress is saved; the notification is best effort
		cs.logger.Warn("Consumer", "Failed to forward milestone", map[string]interface{}{"error": err.Error()})
	}
	return nil
}
