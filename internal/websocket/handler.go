package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs registers the connection with the hub and blocks until the
// console disconnects.
func ServeWs(hub *Hub, c *websocket.Conn, vehicleID string) {
	client := &Client{
		Id:        uuid.New(),
		Hub:       hub,
		Conn:      c,
		VehicleID: vehicleID,
		Send:      make(chan []byte, sendBuffer),
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}
