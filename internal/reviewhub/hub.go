// Package reviewhub pushes newly submitted reports to connected moderator
// websockets. It is a plain register/unregister/broadcast hub; moderators
// that fall behind are dropped rather than blocking the submission path.
package reviewhub

import (
	"log"

	"privacyreport/backend/internal/models"

	"github.com/gorilla/websocket"
)

type Hub struct {
	clients map[*Client]bool

	RegisterCh   chan *Client
	UnregisterCh chan *Client
	BroadcastCh  chan models.Report
}

func NewHub() *Hub {
	return &Hub{
		clients:      make(map[*Client]bool),
		RegisterCh:   make(chan *Client),
		UnregisterCh: make(chan *Client),
		BroadcastCh:  make(chan models.Report, 16),
	}
}

// Run is the hub dispatcher. Start it once as a goroutine from main.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.RegisterCh:
			h.clients[client] = true
			log.Printf("INFO: Moderator feed client connected (%d total)", len(h.clients))

		case client := <-h.UnregisterCh:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}

		case report := <-h.BroadcastCh:
			for client := range h.clients {
				select {
				case client.Send <- report:
				default:
					// Slow consumer; disconnect instead of stalling.
					delete(h.clients, client)
					close(client.Send)
				}
			}
		}
	}
}

// Notify enqueues a submitted report for broadcast. Non-blocking: if the
// hub is saturated the notification is dropped with a log line, the
// submission itself has already been persisted.
func (h *Hub) Notify(report models.Report) {
	select {
	case h.BroadcastCh <- report:
	default:
		log.Printf("WARN: Review feed backlog full, dropping notification for report %s", report.ID)
	}
}

// Client is one moderator websocket connection.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan models.Report
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		Hub:  hub,
		Conn: conn,
		Send: make(chan models.Report, 16),
	}
}

// Run starts the write pump for this connection.
func (c *Client) Run() {
	go c.writePump()
}

func (c *Client) writePump() {
	defer c.Conn.Close()
	for report := range c.Send {
		if err := c.Conn.WriteJSON(report); err != nil {
			log.Printf("WARN: Failed to write to moderator feed client: %v", err)
			c.Hub.UnregisterCh <- c
			return
		}
	}
}
