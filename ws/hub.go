package ws

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"hanamikoji-server/config"
	"hanamikoji-server/room"
)

// Hub maintains the set of active clients and routes inbound frames to rooms.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Registry   *room.Registry
	Config     *config.Config

	upgrader websocket.Upgrader
}

// NewHub creates a new Hub. The websocket origin check allows the configured
// CORS origins; an empty list allows everything (development).
func NewHub(cfg *config.Config, registry *room.Registry) *Hub {
	h := &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Registry:   registry,
		Config:     cfg,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.Config.CORSOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.Config.CORSOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// Run starts the hub's main loop. Should be run as a goroutine.
// When ctx is cancelled (e.g. on server shutdown), Run returns and no longer
// accepts new registrations.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Print("Hub: shutdown signal received, stopping")
			return
		case client := <-h.Register:
			h.Clients[client] = true
			log.Printf("Client connected. Total clients: %d", len(h.Clients))

		case client := <-h.Unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				close(client.Send)
				log.Printf("Client disconnected. Total clients: %d", len(h.Clients))

				// Start the reconnection window; the seat survives until the
				// room empties or the player rejoins. The send channel
				// identifies this connection so a detach racing a reconnect
				// cannot knock out the replacement socket.
				if client.Room != nil {
					client.Room.Post(room.Event{Type: room.EventDetach, PlayerID: client.PlayerID, Send: client.Send})
				}
			}
		}
	}
}

// ServeWS handles WebSocket upgrade requests and creates a new Client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	h.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
