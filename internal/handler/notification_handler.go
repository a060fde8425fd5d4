package handler

import (
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/internal/pkg/serverutils"
	internalWS "ragchat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const handlerModule = "NotificationHandler"

// NotificationHandler upgrades renderer connections and attaches them to the
// hub that mirrors session events.
type NotificationHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewNotificationHandler(hub *internalWS.Hub, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		hub:    hub,
		logger: log,
	}
}

func (h *NotificationHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", h.ServeWs)
	r.Get("/ws/status", h.Status)
}

// ServeWs handles websocket requests from the peer.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	clientID := uuid.NewString()
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info(handlerModule, "Starting WebSocket session", map[string]interface{}{"client_id": clientID})
		internalWS.ServeWs(h.hub, conn, clientID)
		h.logger.Info(handlerModule, "WebSocket session ended", map[string]interface{}{"client_id": clientID})
	})(c)
}

func (h *NotificationHandler) Status(c *fiber.Ctx) error {
	return c.JSON(serverutils.SuccessResponse("Success get socket status", fiber.Map{
		"clients": h.hub.ClientCount(),
	}))
}
