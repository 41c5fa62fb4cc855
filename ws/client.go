package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"hanamikoji-server/protocol"
	"hanamikoji-server/room"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Budget for a snapshot-store lookup while joining.
	lookupTimeout = 5 * time.Second
)

// Client is a middleman between the websocket connection and its room. A
// connection binds to one player id at CREATE_ROOM or JOIN_ROOM time; every
// later frame acts as that player.
type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
	Room     *room.Room
	PlayerID string
}

// ReadPump pumps messages from the websocket connection to the room.
// It runs in its own goroutine per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// WritePump pumps messages from the send channel to the websocket connection.
// It runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(data []byte) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.sendError("Invalid message format.")
		return
	}

	switch env.Type {
	case protocol.TypeCreateRoom:
		c.handleCreateRoom(env.Payload)
	case protocol.TypeJoinRoom:
		c.handleJoinRoom(env.Payload)
	case protocol.TypeConfirmOrder:
		c.postRoomEvent(room.EventConfirmOrder)
	case protocol.TypeReadyConfirm:
		c.postRoomEvent(room.EventReadyConfirm)
	case protocol.TypeGameAction:
		c.handleGameAction(env.Payload)
	case protocol.TypeRematchRequest:
		c.postRoomEvent(room.EventRematchRequest)
	case protocol.TypeLeaveRoom:
		c.handleLeaveRoom()
	default:
		c.sendError("Unknown message type: " + env.Type)
	}
}

func (c *Client) handleCreateRoom(raw json.RawMessage) {
	var msg protocol.CreateRoomPayload
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid CREATE_ROOM message.")
		return
	}
	if c.Room != nil {
		c.sendError("You are already in a room.")
		return
	}
	if msg.PlayerID == "" {
		c.sendError("playerId is required.")
		return
	}
	if !c.validName(msg.PlayerName) {
		return
	}

	r, err := c.Hub.Registry.CreateRoom(msg, c.Send)
	if err != nil {
		c.sendError("Could not create room.")
		return
	}
	c.Room = r
	c.PlayerID = msg.PlayerID

	data := protocol.Frame(protocol.TypeRoomCreated, protocol.RoomCreatedPayload{RoomID: r.ID, PlayerID: msg.PlayerID})
	select {
	case c.Send <- data:
	default:
	}
}

func (c *Client) handleJoinRoom(raw json.RawMessage) {
	var msg protocol.JoinRoomPayload
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid JOIN_ROOM message.")
		return
	}
	if c.Room != nil {
		c.sendError("You are already in a room.")
		return
	}
	if msg.RoomID == "" || msg.PlayerID == "" {
		c.sendError("roomId and playerId are required.")
		return
	}
	if !c.validName(msg.PlayerName) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	r, err := c.Hub.Registry.Lookup(ctx, msg.RoomID)
	if err != nil {
		c.sendError("Room not found: " + msg.RoomID)
		return
	}
	if err := r.Attach(msg.PlayerID, msg.PlayerName, c.Send); err != nil {
		c.sendError(err.Error())
		return
	}
	c.Room = r
	c.PlayerID = msg.PlayerID
}

func (c *Client) handleGameAction(raw json.RawMessage) {
	if c.Room == nil {
		c.sendError("You are not in a room.")
		return
	}
	var msg protocol.GameActionPayload
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid GAME_ACTION message.")
		return
	}
	if msg.PlayerID != "" && msg.PlayerID != c.PlayerID {
		c.sendError("playerId does not match this connection.")
		return
	}

	c.Room.Post(room.Event{Type: room.EventGameAction, PlayerID: c.PlayerID, Action: msg.Action})
}

func (c *Client) handleLeaveRoom() {
	if c.Room == nil {
		c.sendError("You are not in a room.")
		return
	}
	c.Room.Post(room.Event{Type: room.EventLeave, PlayerID: c.PlayerID})
	c.Room = nil
	c.PlayerID = ""
}

func (c *Client) postRoomEvent(eventType room.EventType) {
	if c.Room == nil {
		c.sendError("You are not in a room.")
		return
	}
	c.Room.Post(room.Event{Type: eventType, PlayerID: c.PlayerID})
}

// validName rejects over-long display names; an empty name is allowed and
// rendered by clients as a generic guest.
func (c *Client) validName(name string) bool {
	if len(name) > c.Hub.Config.MaxNameLength {
		c.sendError("Name must be at most " + intToStr(c.Hub.Config.MaxNameLength) + " characters.")
		return false
	}
	return true
}

func (c *Client) sendError(message string) {
	data := protocol.Frame(protocol.TypeError, protocol.ErrorPayload{Message: message})
	select {
	case c.Send <- data:
	default:
	}
}

func intToStr(n int) string {
	if n == 0 {
		return "0"
	}
	s := ""
	for n > 0 {
		s = string(rune('0'+n%10)) + s
		n /= 10
	}
	return s
}
