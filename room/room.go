package room

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"hanamikoji-server/config"
	"hanamikoji-server/game"
	"hanamikoji-server/protocol"
	"hanamikoji-server/snapshot"
	"hanamikoji-server/wsutil"
)

// EventType enumerates the kinds of events a room can process.
type EventType int

const (
	EventAttach         EventType = iota // player joins or reconnects
	EventDetach                          // connection dropped; seat survives
	EventLeave                           // explicit leave; seat abandoned
	EventConfirmOrder
	EventReadyConfirm
	EventGameAction
	EventRematchRequest
	eventOrderStart  // internal: grace period elapsed
	eventOrderReveal // internal: reveal delay elapsed
	eventNextRound   // internal: round pause elapsed
	eventExpire      // internal: reconnection window elapsed
)

// Event is one unit of work in the room mailbox. All room mutation happens
// by the Run goroutine consuming these.
type Event struct {
	Type       EventType
	PlayerID   string
	PlayerName string
	Send       chan []byte        // EventAttach: the new connection; EventDetach: the dropping one
	Action     protocol.ActionMsg // for EventGameAction
	Reply      chan error         // for EventAttach: attach outcome
}

// Seat is one player slot. It survives connection drops; send is nil while
// the seat is detached.
type Seat struct {
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
	IsAI       bool   `json:"isAI"`
	Difficulty string `json:"difficulty,omitempty"`

	send      chan []byte
	connected bool
}

// Room owns one game: canonical state, seats, sub-protocol progress and
// timers. All mutation is serialized through the Events mailbox; timers and
// the AI re-enter through it as well.
type Room struct {
	ID     string
	HostID string

	cfg   *config.Config
	store snapshot.Store
	seats []*Seat
	state *game.State

	// Order-decision and ready-check progress.
	orderAnnounced bool
	firstPlayerID  string
	orderConfirms  map[string]bool
	readyPhase     bool
	readyConfirms  map[string]bool

	rematchConfirms    map[string]bool
	lastRoundStarterID string

	Events chan Event
	Done   chan struct{}

	// OnEmpty is called (from the room goroutine) when the room should be
	// removed from the registry. deleteSnapshot reports whether the stored
	// snapshot should be deleted too (abandoned room) or kept for rehydration.
	OnEmpty func(roomID string, deleteSnapshot bool)

	graceCancel  chan struct{}
	revealCancel chan struct{}
	roundCancel  chan struct{}
	expireCancel chan struct{}

	finished bool
}

// New creates a room with the host seated. The room is not running until Run
// is started as a goroutine.
func New(id string, cfg *config.Config, store snapshot.Store, hostID, hostName, setKey string) *Room {
	host := &Seat{PlayerID: hostID, Name: hostName}
	r := &Room{
		ID:              id,
		HostID:          hostID,
		cfg:             cfg,
		store:           store,
		seats:           []*Seat{host},
		orderConfirms:   make(map[string]bool),
		readyConfirms:   make(map[string]bool),
		rematchConfirms: make(map[string]bool),
		Events:          make(chan Event, 32),
		Done:            make(chan struct{}),
	}
	r.state = game.NewState(setKey, game.NewPlayerState(hostID, hostName))
	return r
}

// Run is the room's main loop. It processes events sequentially until the
// room is destroyed. Should be run as a goroutine.
func (r *Room) Run() {
	for {
		select {
		case <-r.Done:
			return
		case event := <-r.Events:
			r.handle(event)
		}
		select {
		case <-r.Done:
			return
		default:
		}
	}
}

func (r *Room) handle(event Event) {
	switch event.Type {
	case EventAttach:
		err := r.handleAttach(event.PlayerID, event.PlayerName, event.Send)
		if event.Reply != nil {
			event.Reply <- err
		}
	case EventDetach:
		r.handleDetach(event.PlayerID, event.Send)
	case EventLeave:
		r.handleLeave(event.PlayerID)
	case EventConfirmOrder:
		r.handleConfirmOrder(event.PlayerID)
	case EventReadyConfirm:
		r.handleReadyConfirm(event.PlayerID)
	case EventGameAction:
		r.handleGameAction(event.PlayerID, event.Action)
	case EventRematchRequest:
		r.handleRematchRequest(event.PlayerID)
	case eventOrderStart:
		r.handleOrderStart()
	case eventOrderReveal:
		r.handleOrderReveal()
	case eventNextRound:
		r.handleNextRound()
	case eventExpire:
		r.handleExpire()
	}
}

// seat returns the seat for a player id, or nil.
func (r *Room) seat(playerID string) *Seat {
	for _, s := range r.seats {
		if s.PlayerID == playerID {
			return s
		}
	}
	return nil
}

func (r *Room) otherSeat(playerID string) *Seat {
	for _, s := range r.seats {
		if s.PlayerID != playerID {
			return s
		}
	}
	return nil
}

func (r *Room) humanConnected() bool {
	for _, s := range r.seats {
		if !s.IsAI && s.connected {
			return true
		}
	}
	return false
}

// sendTo delivers one frame to one seat. Detached seats drop frames.
func (r *Room) sendTo(s *Seat, msgType string, payload any) {
	if s == nil || s.send == nil {
		return
	}
	if data := protocol.Frame(msgType, payload); data != nil {
		wsutil.SafeSend(s.send, data)
	}
}

// broadcast sends the identical payload to every seat.
func (r *Room) broadcast(msgType string, payload any) {
	for _, s := range r.seats {
		r.sendTo(s, msgType, payload)
	}
}

func (r *Room) sendError(playerID, message string) {
	r.sendTo(r.seat(playerID), protocol.TypeError, protocol.ErrorPayload{Message: message})
}

// broadcastState sends each seat its own sanitized view and persists a
// snapshot. This is the only path by which game state reaches a client.
func (r *Room) broadcastState() {
	for _, s := range r.seats {
		view := game.BuildViewForPlayer(r.state, s.PlayerID)
		r.sendTo(s, protocol.TypeGameStateUpdated, protocol.GameStatePayload{RoomID: r.ID, State: view})
	}
	r.persist()
}

// persist writes a best-effort snapshot. It never blocks the room loop and a
// failure never fails the mutation that triggered it.
func (r *Room) persist() {
	if r.store == nil {
		return
	}
	data, err := r.marshalSnapshot()
	if err != nil {
		slog.Error("marshaling room snapshot", "tag", "room", "roomId", r.ID, "err", err)
		return
	}
	key := snapshot.RoomKey(r.ID)
	ttl := time.Duration(r.cfg.RoomTTLSeconds) * time.Second
	store := r.store
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Put(ctx, key, data, ttl); err != nil {
			slog.Warn("saving room snapshot", "tag", "room", "roomId", r.ID, "err", err)
		}
	}()
}

// destroy tears the room down: timers stopped, registry notified, loop ended.
func (r *Room) destroy(deleteSnapshot bool) {
	if r.finished {
		return
	}
	r.finished = true
	r.cancelTimer(&r.graceCancel)
	r.cancelTimer(&r.revealCancel)
	r.cancelTimer(&r.roundCancel)
	r.cancelTimer(&r.expireCancel)
	if r.OnEmpty != nil {
		r.OnEmpty(r.ID, deleteSnapshot)
	}
	close(r.Done)
	slog.Info("room destroyed", "tag", "room", "roomId", r.ID)
}

// scheduleEvent posts event into the mailbox after delay unless the returned
// cancel channel is closed first. The room lock is never held while waiting.
func (r *Room) scheduleEvent(delay time.Duration, event Event) chan struct{} {
	cancel := make(chan struct{})
	go func() {
		select {
		case <-time.After(delay):
			select {
			case r.Events <- event:
			case <-r.Done:
			}
		case <-cancel:
		case <-r.Done:
		}
	}()
	return cancel
}

func (r *Room) cancelTimer(cancel *chan struct{}) {
	if *cancel != nil {
		close(*cancel)
		*cancel = nil
	}
}

// Attach posts an attach event and waits for the outcome.
func (r *Room) Attach(playerID, playerName string, send chan []byte) error {
	reply := make(chan error, 1)
	select {
	case r.Events <- Event{Type: EventAttach, PlayerID: playerID, PlayerName: playerName, Send: send, Reply: reply}:
	case <-r.Done:
		return ErrRoomClosed
	}
	select {
	case err := <-reply:
		return err
	case <-r.Done:
		return ErrRoomClosed
	}
}

// Post delivers an event into the mailbox unless the room is gone.
func (r *Room) Post(event Event) {
	select {
	case r.Events <- event:
	case <-r.Done:
	}
}

// pickFirstPlayer returns one of the two seat ids uniformly at random.
func (r *Room) pickFirstPlayer() string {
	return r.seats[rand.IntN(len(r.seats))].PlayerID
}
