package handler

import (
	"errors"
	"strings"

	"ai-reading-be/internal/dto"
	"ai-reading-be/internal/pkg/logger"
	"ai-reading-be/internal/pkg/serverutils"
	"ai-reading-be/internal/repository/implementation"
	"ai-reading-be/internal/service"
	internalWS "ai-reading-be/internal/websocket"
	"ai-reading-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	service *service.NotificationService
	bus     service.EventPublisher
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewNotificationHandler(service *service.NotificationService, bus service.EventPublisher, hub *internalWS.Hub, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		bus:     bus,
		hub:     hub,
		logger:  log,
	}
}

// ServeWs upgrades an authenticated request into the learner's push channel.
// Browsers cannot set headers on a websocket handshake, so the token may come as a query param.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		tokenStr = strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	}
	if tokenStr == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing token")
	}

	userID, err := serverutils.ParseToken(tokenStr)
	if err != nil {
		h.logger.Warn("NotificationHandler", "Invalid token in websocket handshake", map[string]interface{}{"error": err.Error()})
		return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("NotificationHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userID})
		internalWS.ServeWs(h.hub, conn, userID)
		h.logger.Info("NotificationHandler", "WebSocket session ended", map[string]interface{}{"user_id": userID})
	})(c)
}

func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	userID, err := serverutils.UserID(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)

	notifications, total, err := h.service.GetNotifications(c.UserContext(), userID, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(serverutils.SuccessResponse("Success get notifications", dto.NotificationListResponse{
		Items: notifications,
		Total: total,
		Page:  offset/limit + 1,
		Limit: limit,
	}))
}

func (h *NotificationHandler) GetUnreadCount(c *fiber.Ctx) error {
	userID, err := serverutils.UserID(c)
	if err != nil {
		return err
	}

	count, err := h.service.GetUnreadCount(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(serverutils.SuccessResponse("Success get unread count", dto.UnreadCountResponse{Count: count}))
}

func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	userID, err := serverutils.UserID(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid notification id")
	}

	if err := h.service.MarkAsRead(c.UserContext(), userID, id); err != nil {
		if errors.Is(err, implementation.ErrNotificationNotFound) {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return err
	}

	return c.JSON(serverutils.SuccessResponse[any]("Success mark notification as read", nil))
}

func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	userID, err := serverutils.UserID(c)
	if err != nil {
		return err
	}

	if err := h.service.MarkAllAsRead(c.UserContext(), userID); err != nil {
		return err
	}

	return c.JSON(serverutils.SuccessResponse[any]("Success mark all notifications as read", nil))
}

// TriggerTest sends the caller a sample assessment prompt through the event bus.
func (h *NotificationHandler) TriggerTest(c *fiber.Ctx) error {
	userID, err := serverutils.UserID(c)
	if err != nil {
		return err
	}

	evt := events.AssessmentAvailable(userID.String(), "", "Sample chapter", 1, 10)
	if err := h.bus.Publish(c.UserContext(), evt); err != nil {
		return err
	}

	return c.JSON(serverutils.SuccessResponse("Event published", evt.Data))
}

func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	notif := router.Group("/notification/v1")
	notif.Use(serverutils.JwtMiddleware)
	notif.Get("", h.GetNotifications)
	notif.Get("unread-count", h.GetUnreadCount)
	notif.Patch("read-all", h.MarkAllAsRead)
	notif.Patch(":id/read", h.MarkAsRead)
	notif.Post("test", h.TriggerTest)

	router.Get("/ws", h.ServeWs)
}
