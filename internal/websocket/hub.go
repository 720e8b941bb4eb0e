package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"ai-reading-be/internal/model"
	"ai-reading-be/internal/pkg/logger"
	"ai-reading-be/pkg/speech"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	clusterChannel = "cluster_events"
	broadcastTo    = "*"

	TypeNotification    = "notification"
	TypePageChanged     = "page_changed"
	TypeAssessmentState = "assessment_state"
	TypeSpeechClip      = "speech_clip"
)

// Message is the envelope of everything pushed to a client.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type clusterEnvelope struct {
	Origin       string          `json:"origin"`
	TargetUserID string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

// Hub tracks the live connections of every user and fans messages out to them. With redis
// configured, messages are also relayed to the other instances.
type Hub struct {
	clients map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb      *redis.Client
	instance string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client, 64),
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		rdb:        rdb,
		instance:   uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]struct{})
			}
			h.clients[client.UserID][client] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.UserID)
		h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"user_id": client.UserID})
	}
}

// Push sends a typed message to every connection of userID. It reports whether at least
// one connection, local or on another instance, may receive it.
func (h *Hub) Push(userID uuid.UUID, msgType string, data interface{}) bool {
	payload, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		h.logger.Error("Hub", "Failed to encode message", map[string]interface{}{"type": msgType, "error": err.Error()})
		return false
	}

	local := h.deliverLocal(&userID, payload)
	remote := h.publish(userID.String(), payload)
	return local > 0 || remote
}

// Send delivers a stored notification.
func (h *Hub) Send(userID uuid.UUID, notification model.Notification) {
	h.Push(userID, TypeNotification, notification)
}

// Broadcast sends a notification to all connected clients.
func (h *Hub) Broadcast(notification model.Notification) {
	payload, err := json.Marshal(Message{Type: TypeNotification, Data: notification})
	if err != nil {
		return
	}
	h.deliverLocal(nil, payload)
	h.publish(broadcastTo, payload)
}

func (h *Hub) Connected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// deliverLocal writes payload to the local clients of target, or to everyone when target
// is nil. Clients with a full buffer are dropped.
func (h *Hub) deliverLocal(target *uuid.UUID, payload []byte) int {
	var slow []*Client
	delivered := 0

	h.mu.RLock()
	for userID, clients := range h.clients {
		if target != nil && userID != *target {
			continue
		}
		for client := range clients {
			select {
			case client.Send <- payload:
				delivered++
			default:
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Hub", "Client Send buffer full, dropping connection", map[string]interface{}{"user_id": client.UserID})
		h.remove(client)
	}
	return delivered
}

func (h *Hub) publish(target string, payload []byte) bool {
	if h.rdb == nil {
		return false
	}
	envelope, _ := json.Marshal(clusterEnvelope{
		Origin:       h.instance,
		TargetUserID: target,
		Message:      payload,
	})
	receivers, err := h.rdb.Publish(context.Background(), clusterChannel, envelope).Result()
	if err != nil {
		h.logger.Warn("Hub", "Failed to relay message", map[string]interface{}{"error": err.Error()})
		return false
	}
	// our own subscription counts as one receiver
	return receivers > 1
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var envelope clusterEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		if envelope.Origin == h.instance {
			continue
		}

		if envelope.TargetUserID == broadcastTo {
			h.deliverLocal(nil, envelope.Message)
			continue
		}
		uid, err := uuid.Parse(envelope.TargetUserID)
		if err != nil {
			continue
		}
		h.deliverLocal(&uid, envelope.Message)
	}
}

type clipSink struct {
	hub    *Hub
	userID uuid.UUID
}

type clipMessage struct {
	SessionID string       `json:"session_id"`
	Clip      *speech.Clip `json:"clip"`
}

// ClipSinkFor routes synthesized speech of userID's sessions to their connections.
func (h *Hub) ClipSinkFor(userID uuid.UUID) speech.ClipSink {
	return &clipSink{hub: h, userID: userID}
}

func (s *clipSink) Deliver(owner string, clip *speech.Clip) bool {
	return s.hub.Push(s.userID, TypeSpeechClip, clipMessage{SessionID: owner, Clip: clip})
}
