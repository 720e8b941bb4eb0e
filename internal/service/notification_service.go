package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-reading-be/internal/constant"
	"ai-reading-be/internal/model"
	"ai-reading-be/internal/pkg/logger"
	"ai-reading-be/internal/repository/contract"
	"ai-reading-be/pkg/events"
	pktNats "ai-reading-be/pkg/nats"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification model.Notification)
}

type NotificationService struct {
	repo       contract.NotificationRepository
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

// NewNotificationService builds the inbox service. sub may be nil, in which case events
// have to be handed in through Publish.
func NewNotificationService(repo contract.NotificationRepository, sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		repo:       repo,
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start(ctx context.Context) {
	if s.subscriber == nil {
		return
	}
	err := s.subscriber.Subscribe(ctx, pktNats.SubjectPrefix+">", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

// Publish handles an event in process. It lets the service stand in for the bus.
func (s *NotificationService) Publish(ctx context.Context, event events.Event) error {
	return s.handleEvent(ctx, event)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	typeCode := strings.TrimPrefix(event.EventType(), pktNats.SubjectPrefix)

	config, ok := constant.NotificationTypes[typeCode]
	if !ok {
		return nil
	}

	userID, err := uuid.Parse(events.String(event.Payload(), "user_id"))
	if err != nil {
		s.logger.Warn("NotificationService", fmt.Sprintf("No user_id in payload for event %s", typeCode), nil)
		return nil
	}

	notif := s.buildNotification(userID, config, event)
	if err := s.repo.CreateNotification(ctx, &notif); err != nil {
		s.logger.Error("NotificationService", "Error saving notification", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return err
	}

	if s.delivery != nil {
		s.delivery.Send(userID, notif)
	}
	return nil
}

func (s *NotificationService) buildNotification(userID uuid.UUID, config constant.NotificationType, event events.Event) model.Notification {
	payload := event.Payload()

	msg := config.Template
	for k, v := range payload {
		msg = strings.ReplaceAll(msg, fmt.Sprintf("{%s}", k), fmt.Sprintf("%v", v))
	}

	entityType := events.String(payload, "entity_type")
	var entityID *uuid.UUID
	if eid, err := uuid.Parse(events.String(payload, "entity_id")); err == nil {
		entityID = &eid
	}

	metaMap := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		metaMap[k] = v
	}
	if entityType != "" && entityID != nil {
		metaMap["action_url"] = fmt.Sprintf("/%ss/%s", entityType, entityID.String())
	}
	metaJSON, _ := json.Marshal(metaMap)

	return model.Notification{
		ID:         uuid.New(),
		UserID:     userID,
		TypeCode:   config.Code,
		Title:      config.Title,
		Message:    msg,
		Metadata:   datatypes.JSON(metaJSON),
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  time.Now(),
		IsRead:     false,
	}
}

func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	return s.repo.GetNotificationsByUserID(ctx, userID, limit, offset)
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
