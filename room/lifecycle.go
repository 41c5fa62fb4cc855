package room

import (
	"errors"
	"time"

	"hanamikoji-server/ai"
	"hanamikoji-server/game"
	"hanamikoji-server/protocol"
)

// Room-level errors reported to clients as ERROR frames.
var (
	ErrRoomFull  = errors.New("room is full")
	ErrNotInRoom = errors.New("you are not in this room")
	ErrGameOver  = errors.New("the game has ended")
)

const aiPlayerIDPrefix = "ai:"

// aiDisplayNames gives the AI seat a name per difficulty tier.
var aiDisplayNames = map[string]string{
	"easy":   "Botan",
	"medium": "Kasumi",
	"hard":   "Ayame",
	"expert": "Ran",
	"hell":   "Oboro",
}

// AddAISeat seats an AI opponent and starts its decision loop. Must be
// called before Run (room creation or rehydration), never concurrently with it.
func (r *Room) AddAISeat(difficulty string) {
	name, ok := aiDisplayNames[difficulty]
	if !ok {
		difficulty, name = "medium", aiDisplayNames["medium"]
	}
	seat := &Seat{
		PlayerID:   aiPlayerIDPrefix + r.ID,
		Name:       name,
		IsAI:       true,
		Difficulty: difficulty,
		send:       make(chan []byte, 256),
		connected:  true,
	}
	r.seats = append(r.seats, seat)
	if r.state.Player(seat.PlayerID) == nil {
		r.state.Players = append(r.state.Players, game.NewPlayerState(seat.PlayerID, seat.Name))
	}
	go ai.Run(seat.send, r.Done, seat.PlayerID, difficulty, r.cfg.AI.TierParams(difficulty), r.submitAIAction)
}

// submitAIAction lets the AI loop enter the mailbox like any client would.
func (r *Room) submitAIAction(playerID string, action protocol.ActionMsg) {
	r.Post(Event{Type: EventGameAction, PlayerID: playerID, Action: action})
}

func (r *Room) aiSeat() *Seat {
	for _, s := range r.seats {
		if s.IsAI {
			return s
		}
	}
	return nil
}

func (r *Room) aiThinkDelay() time.Duration {
	s := r.aiSeat()
	if s == nil {
		return 0
	}
	return time.Duration(r.cfg.AI.TierParams(s.Difficulty).ThinkDelayMS) * time.Millisecond
}

// handleAttach seats a new player or re-attaches a dropped one. The current
// sanitized state is sent to the attaching player immediately so a reconnect
// resumes exactly where the seat left off.
func (r *Room) handleAttach(playerID, playerName string, send chan []byte) error {
	if seat := r.seat(playerID); seat != nil {
		seat.send = send
		seat.connected = true
		r.cancelTimer(&r.expireCancel)
		if playerName != "" {
			seat.Name = playerName
		}
		r.sendTo(r.otherSeat(playerID), protocol.TypePlayerJoined, protocol.PlayerJoinedPayload{
			PlayerID:   playerID,
			PlayerName: seat.Name,
			Reconnect:  true,
		})
		r.broadcastState()
		if r.state.Pending != nil {
			r.sendTo(seat, protocol.TypePendingInteraction, r.state.Pending)
		}
		return nil
	}

	if len(r.seats) >= 2 {
		return ErrRoomFull
	}
	seat := &Seat{PlayerID: playerID, Name: playerName, send: send, connected: true}
	r.seats = append(r.seats, seat)
	r.state.Players = append(r.state.Players, game.NewPlayerState(playerID, playerName))
	r.broadcast(protocol.TypePlayerJoined, protocol.PlayerJoinedPayload{PlayerID: playerID, PlayerName: playerName})
	r.broadcastState()
	r.maybeStartOrderDecision()
	return nil
}

// MarkAttached is used when the host's connection is bound at creation time,
// before Run starts.
func (r *Room) MarkAttached(playerID string, send chan []byte) {
	if seat := r.seat(playerID); seat != nil {
		seat.send = send
		seat.connected = true
	}
}

// maybeStartOrderDecision arms the grace timer once both seats are present.
func (r *Room) maybeStartOrderDecision() {
	if len(r.seats) != 2 || r.state.Phase != game.PhaseWaiting || r.orderAnnounced || r.graceCancel != nil {
		return
	}
	delay := time.Duration(r.cfg.OrderGraceMS) * time.Millisecond
	r.graceCancel = r.scheduleEvent(delay, Event{Type: eventOrderStart})
}

func (r *Room) handleOrderStart() {
	r.graceCancel = nil
	if r.state.Phase != game.PhaseWaiting || len(r.seats) != 2 {
		return
	}
	r.state.Phase = game.PhaseDecidingOrder
	r.broadcast(protocol.TypeOrderDecisionStart, struct{}{})
	r.broadcastState()
	delay := time.Duration(r.cfg.OrderRevealMS) * time.Millisecond
	r.revealCancel = r.scheduleEvent(delay, Event{Type: eventOrderReveal})
}

func (r *Room) handleOrderReveal() {
	r.revealCancel = nil
	if r.state.Phase != game.PhaseDecidingOrder || r.orderAnnounced {
		return
	}
	r.firstPlayerID = r.pickFirstPlayer()
	r.orderAnnounced = true
	r.broadcast(protocol.TypeOrderDecisionResult, protocol.OrderDecisionResultPayload{Order: r.turnOrder()})
	r.persist()
	if aiSeat := r.aiSeat(); aiSeat != nil {
		r.scheduleEvent(r.aiThinkDelay(), Event{Type: EventConfirmOrder, PlayerID: aiSeat.PlayerID})
	}
}

// turnOrder returns both seat ids, decided first player first.
func (r *Room) turnOrder() []string {
	order := []string{r.firstPlayerID}
	if other := r.otherSeat(r.firstPlayerID); other != nil {
		order = append(order, other.PlayerID)
	}
	return order
}

func (r *Room) handleConfirmOrder(playerID string) {
	seat := r.seat(playerID)
	if seat == nil {
		r.sendError(playerID, ErrNotInRoom.Error())
		return
	}
	if !r.orderAnnounced || r.readyPhase {
		if !seat.IsAI {
			r.sendError(playerID, "no order decision awaiting confirmation")
		}
		return
	}
	r.orderConfirms[playerID] = true
	r.broadcast(protocol.TypeOrderConfirmationUpdate, protocol.ConfirmationUpdatePayload{Confirmed: r.confirmMap(r.orderConfirms)})
	if len(r.orderConfirms) == len(r.seats) {
		r.readyPhase = true
		r.broadcast(protocol.TypeReadyCheck, struct{}{})
		if aiSeat := r.aiSeat(); aiSeat != nil {
			r.scheduleEvent(r.aiThinkDelay(), Event{Type: EventReadyConfirm, PlayerID: aiSeat.PlayerID})
		}
	}
}

func (r *Room) handleReadyConfirm(playerID string) {
	seat := r.seat(playerID)
	if seat == nil {
		r.sendError(playerID, ErrNotInRoom.Error())
		return
	}
	if !r.readyPhase || r.state.Phase != game.PhaseDecidingOrder {
		if !seat.IsAI {
			r.sendError(playerID, "no ready check in progress")
		}
		return
	}
	r.readyConfirms[playerID] = true
	r.broadcast(protocol.TypeReadyStatus, protocol.ConfirmationUpdatePayload{Confirmed: r.confirmMap(r.readyConfirms)})
	if len(r.readyConfirms) == len(r.seats) {
		r.startRound(r.turnOrder(), 1)
	}
}

// confirmMap reports every seat's confirmation status, defaulting to false.
func (r *Room) confirmMap(confirmed map[string]bool) map[string]bool {
	out := make(map[string]bool, len(r.seats))
	for _, s := range r.seats {
		out[s.PlayerID] = confirmed[s.PlayerID]
	}
	return out
}

// startRound prepares the deck and hands, plays the deal animation and opens
// the first turn. order[0] starts the round.
func (r *Room) startRound(order []string, roundNumber int) {
	r.state.PrepareRound(order, roundNumber)
	r.lastRoundStarterID = order[0]
	for _, s := range r.seats {
		steps := game.BuildDealSequenceFor(r.state, s.PlayerID)
		r.sendTo(s, protocol.TypeDealAnimation, protocol.DealAnimationPayload{Steps: steps})
	}
	if roundNumber == 1 {
		r.broadcast(protocol.TypeGameStarted, protocol.OrderDecisionResultPayload{Order: order})
	}
	r.beginTurn()
}

// beginTurn draws for the current player and broadcasts. A nil draw means no
// seat can act: the round resolves.
func (r *Room) beginTurn() {
	card := r.state.BeginTurn()
	if card == nil {
		r.resolveRound()
		return
	}
	currentID := r.state.CurrentPlayerID
	for _, s := range r.seats {
		r.sendTo(s, protocol.TypeCardDrawn, protocol.CardDrawnPayload{
			PlayerID: currentID,
			Card:     game.MaskDrawnCard(card, currentID, s.PlayerID),
		})
	}
	r.broadcastState()
}

// advanceOrResolve runs the turn driver after a completed (non-pending)
// mutation.
func (r *Room) advanceOrResolve() {
	if r.state.AdvanceTurn() {
		r.beginTurn()
		return
	}
	r.resolveRound()
}

// resolveRound scores the round, announces the results and either ends the
// game or schedules the next round after a pause so clients can display the
// reveal.
func (r *Room) resolveRound() {
	result := r.state.ResolveRound()
	r.broadcast(protocol.TypeRoundComplete, result)
	r.broadcastState()
	if result.GameOver {
		r.broadcast(protocol.TypeGameEnded, protocol.GameEndedPayload{WinnerID: result.WinnerID})
		r.persist()
		return
	}
	delay := time.Duration(r.cfg.RoundPauseMS) * time.Millisecond
	r.roundCancel = r.scheduleEvent(delay, Event{Type: eventNextRound})
}

func (r *Room) handleNextRound() {
	r.roundCancel = nil
	if r.state.Phase != game.PhaseResolution {
		return
	}
	starter := r.otherSeat(r.lastRoundStarterID)
	if starter == nil {
		starter = r.seats[0]
	}
	order := []string{starter.PlayerID}
	if other := r.otherSeat(starter.PlayerID); other != nil {
		order = append(order, other.PlayerID)
	}
	r.startRound(order, r.state.Round+1)
}

func (r *Room) handleRematchRequest(playerID string) {
	seat := r.seat(playerID)
	if seat == nil {
		r.sendError(playerID, ErrNotInRoom.Error())
		return
	}
	if r.state.Phase != game.PhaseEnded {
		r.sendError(playerID, "the game is still in progress")
		return
	}
	r.rematchConfirms[playerID] = true
	r.broadcast(protocol.TypeRematchRequested, protocol.RematchRequestedPayload{
		PlayerID:  playerID,
		Confirmed: r.confirmMap(r.rematchConfirms),
	})
	if aiSeat := r.aiSeat(); aiSeat != nil && !r.rematchConfirms[aiSeat.PlayerID] {
		r.scheduleEvent(r.aiThinkDelay(), Event{Type: EventRematchRequest, PlayerID: aiSeat.PlayerID})
	}
	if len(r.rematchConfirms) == len(r.seats) {
		r.resetForRematch()
	}
}

// resetForRematch rebuilds a fresh game with the same seats and re-runs the
// order decision from the top.
func (r *Room) resetForRematch() {
	players := make([]*game.PlayerState, 0, len(r.seats))
	for _, s := range r.seats {
		players = append(players, game.NewPlayerState(s.PlayerID, s.Name))
	}
	r.state = game.NewState(r.state.GeishaSetKey, players...)
	r.orderAnnounced = false
	r.firstPlayerID = ""
	r.readyPhase = false
	r.orderConfirms = make(map[string]bool)
	r.readyConfirms = make(map[string]bool)
	r.rematchConfirms = make(map[string]bool)
	r.lastRoundStarterID = ""
	r.broadcastState()
	r.maybeStartOrderDecision()
}

// handleDetach marks a dropped connection. No mutation of game state occurs;
// pending interactions stay pending and the seat awaits reconnection. A
// detach for a channel the seat no longer uses is stale (the player already
// reconnected on a new socket) and must not touch the new connection.
func (r *Room) handleDetach(playerID string, send chan []byte) {
	seat := r.seat(playerID)
	if seat == nil || seat.IsAI {
		return
	}
	if send != nil && seat.send != send {
		return
	}
	seat.send = nil
	seat.connected = false
	r.sendTo(r.otherSeat(playerID), protocol.TypePlayerLeft, protocol.PlayerLeftPayload{PlayerID: playerID, Temporary: true})
	if !r.humanConnected() {
		if r.state.Phase == game.PhaseEnded {
			r.destroy(true)
			return
		}
		// Keep the room (and its AI loop) warm through the reconnection
		// window; after that the snapshot alone carries the game and the
		// TTL reaps abandoned ones.
		r.cancelTimer(&r.expireCancel)
		r.expireCancel = r.scheduleEvent(time.Duration(r.cfg.ReconnectGraceS)*time.Second, Event{Type: eventExpire})
	}
}

func (r *Room) handleExpire() {
	r.expireCancel = nil
	if !r.humanConnected() {
		r.destroy(false)
	}
}

// handleLeave abandons the seat for good. Leaving an in-progress game
// forfeits it; the opponent must not be left waiting on a seat that will
// never act again.
func (r *Room) handleLeave(playerID string) {
	seat := r.seat(playerID)
	if seat == nil || seat.IsAI {
		return
	}
	seat.send = nil
	seat.connected = false
	r.sendTo(r.otherSeat(playerID), protocol.TypePlayerLeft, protocol.PlayerLeftPayload{PlayerID: playerID, Temporary: false})
	if r.state.Phase != game.PhaseWaiting && r.state.Phase != game.PhaseEnded {
		r.endByForfeit(playerID)
	}
	if !r.humanConnected() {
		r.destroy(true)
	}
}

// endByForfeit ends the game in favor of the seat that stayed.
func (r *Room) endByForfeit(leaverID string) {
	r.cancelTimer(&r.graceCancel)
	r.cancelTimer(&r.revealCancel)
	r.cancelTimer(&r.roundCancel)
	winnerID := ""
	if other := r.otherSeat(leaverID); other != nil {
		winnerID = other.PlayerID
	}
	r.state.Phase = game.PhaseEnded
	r.state.Winner = winnerID
	r.state.Pending = nil
	r.broadcast(protocol.TypeGameEnded, protocol.GameEndedPayload{WinnerID: winnerID})
	r.broadcastState()
}
