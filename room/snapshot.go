package room

import (
	"encoding/json"
	"time"

	"hanamikoji-server/config"
	"hanamikoji-server/game"
	"hanamikoji-server/snapshot"
)

// roomSnapshot is the persisted form of a room: everything except live
// connections. The full unmasked game state is stored; snapshots never leave
// the server.
type roomSnapshot struct {
	RoomID             string          `json:"roomId"`
	HostID             string          `json:"hostId"`
	Seats              []*Seat         `json:"seats"`
	OrderAnnounced     bool            `json:"orderAnnounced"`
	FirstPlayerID      string          `json:"firstPlayerId,omitempty"`
	OrderConfirms      map[string]bool `json:"orderConfirms"`
	ReadyPhase         bool            `json:"readyPhase"`
	ReadyConfirms      map[string]bool `json:"readyConfirms"`
	LastRoundStarterID string          `json:"lastRoundStarterId,omitempty"`
	State              *game.State     `json:"state"`
	SavedAt            time.Time       `json:"savedAt"`
}

func (r *Room) marshalSnapshot() ([]byte, error) {
	return json.Marshal(roomSnapshot{
		RoomID:             r.ID,
		HostID:             r.HostID,
		Seats:              r.seats,
		OrderAnnounced:     r.orderAnnounced,
		FirstPlayerID:      r.firstPlayerID,
		OrderConfirms:      r.orderConfirms,
		ReadyPhase:         r.readyPhase,
		ReadyConfirms:      r.readyConfirms,
		LastRoundStarterID: r.lastRoundStarterID,
		State:              r.state,
		SavedAt:            time.Now(),
	})
}

// Restore rebuilds a room from a stored snapshot. Human seats come back
// detached; an AI seat is reconstituted with a fresh decision loop. Timers
// that were in flight when the snapshot was taken are re-armed.
func Restore(data []byte, cfg *config.Config, store snapshot.Store) (*Room, error) {
	var snap roomSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}

	r := &Room{
		ID:                 snap.RoomID,
		HostID:             snap.HostID,
		cfg:                cfg,
		store:              store,
		state:              snap.State,
		orderAnnounced:     snap.OrderAnnounced,
		firstPlayerID:      snap.FirstPlayerID,
		orderConfirms:      snap.OrderConfirms,
		readyPhase:         snap.ReadyPhase,
		readyConfirms:      snap.ReadyConfirms,
		rematchConfirms:    make(map[string]bool),
		lastRoundStarterID: snap.LastRoundStarterID,
		Events:             make(chan Event, 32),
		Done:               make(chan struct{}),
	}
	if r.orderConfirms == nil {
		r.orderConfirms = make(map[string]bool)
	}
	if r.readyConfirms == nil {
		r.readyConfirms = make(map[string]bool)
	}

	var aiDifficulty string
	for _, s := range snap.Seats {
		if s.IsAI {
			aiDifficulty = s.Difficulty
			continue
		}
		r.seats = append(r.seats, &Seat{PlayerID: s.PlayerID, Name: s.Name})
	}
	if aiDifficulty != "" {
		r.AddAISeat(aiDifficulty)
	}

	// A snapshot taken mid order decision loses its in-flight reveal timer;
	// rewind to the waiting phase so the sub-protocol re-runs cleanly.
	if r.state.Phase == game.PhaseDecidingOrder && !r.orderAnnounced {
		r.state.Phase = game.PhaseWaiting
	}
	return r, nil
}

// rearmTimers re-creates scheduled work lost with the previous process. Must
// be called after the room is registered but it is safe before Run starts:
// the mailbox buffers the resulting events.
func (r *Room) rearmTimers() {
	// A restored room starts with every human detached; if the rejoin that
	// triggered the restore never attaches, expire it again.
	r.expireCancel = r.scheduleEvent(time.Duration(r.cfg.ReconnectGraceS)*time.Second, Event{Type: eventExpire})

	switch r.state.Phase {
	case game.PhaseResolution:
		r.roundCancel = r.scheduleEvent(time.Duration(r.cfg.RoundPauseMS)*time.Millisecond, Event{Type: eventNextRound})
	case game.PhaseDecidingOrder:
		if aiSeat := r.aiSeat(); aiSeat != nil {
			if r.readyPhase && !r.readyConfirms[aiSeat.PlayerID] {
				r.scheduleEvent(r.aiThinkDelay(), Event{Type: EventReadyConfirm, PlayerID: aiSeat.PlayerID})
			} else if r.orderAnnounced && !r.orderConfirms[aiSeat.PlayerID] {
				r.scheduleEvent(r.aiThinkDelay(), Event{Type: EventConfirmOrder, PlayerID: aiSeat.PlayerID})
			}
		}
	}
}
