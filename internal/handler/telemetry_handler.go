package handler

import (
	"donkey-remote-be/internal/pkg/logger"
	internalWS "donkey-remote-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type TelemetryHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewTelemetryHandler(hub *internalWS.Hub, log logger.ILogger) *TelemetryHandler {
	return &TelemetryHandler{
		hub:    hub,
		logger: log,
	}
}

func (h *TelemetryHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/ws", h.ServeWs)
}

// ServeWs upgrades an operator console. ?vehicle_id= narrows the stream to
// one vehicle; without it the console receives every vehicle's events.
func (h *TelemetryHandler) ServeWs(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	vehicleID := c.Query("vehicle_id", internalWS.AllVehicles)

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("TelemetryHandler", "Starting WebSocket session", map[string]interface{}{"vehicle_id": vehicleID})
		internalWS.ServeWs(h.hub, conn, vehicleID)
		h.logger.Info("TelemetryHandler", "WebSocket session ended", map[string]interface{}{"vehicle_id": vehicleID})
	})(c)
}
