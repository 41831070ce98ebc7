package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs wires one upgraded dashboard connection into the hub.
func ServeWs(hub *Hub, c *websocket.Conn, retailerID uuid.UUID) {
	client := &Client{Hub: hub, Conn: c, RetailerID: retailerID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // run readPump in the handler goroutine
}
