package service

import (
	"context"
	"encoding/json"

	"ai-reading-be/internal/dto"
	"ai-reading-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

// Publish puts a reader event on the in-process topic.
func (ps *publisherService) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(dto.ReaderEventMessage{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp().UnixMilli(),
	})
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return ps.pubSub.Publish(ps.topicName, msg)
}
