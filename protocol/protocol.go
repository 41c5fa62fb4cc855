// Package protocol defines the wire frames exchanged with clients. Every
// frame, both directions, is a JSON object {"type": string, "payload": object}.
package protocol

import (
	"encoding/json"
	"log/slog"

	"hanamikoji-server/game"
)

// Inbound frame types (client to server).
const (
	TypeCreateRoom     = "CREATE_ROOM"
	TypeJoinRoom       = "JOIN_ROOM"
	TypeConfirmOrder   = "CONFIRM_ORDER"
	TypeReadyConfirm   = "READY_CONFIRM"
	TypeGameAction     = "GAME_ACTION"
	TypeRematchRequest = "REMATCH_REQUEST"
	TypeLeaveRoom      = "LEAVE_ROOM"
)

// Outbound frame types (server to client).
const (
	TypeRoomCreated             = "ROOM_CREATED"
	TypePlayerJoined            = "PLAYER_JOINED"
	TypePlayerLeft              = "PLAYER_LEFT"
	TypeGameStateUpdated        = "GAME_STATE_UPDATED"
	TypeGameStarted             = "GAME_STARTED"
	TypeOrderDecisionStart      = "ORDER_DECISION_START"
	TypeOrderDecisionResult     = "ORDER_DECISION_RESULT"
	TypeOrderConfirmationUpdate = "ORDER_CONFIRMATION_UPDATE"
	TypeReadyCheck              = "READY_CHECK"
	TypeReadyStatus             = "READY_STATUS"
	TypeDealAnimation           = "DEAL_ANIMATION"
	TypeCardDrawn               = "CARD_DRAWN"
	TypeActionExecuted          = "ACTION_EXECUTED"
	TypePendingInteraction      = "PENDING_INTERACTION"
	TypeInteractionResolved     = "INTERACTION_RESOLVED"
	TypeRoundComplete           = "ROUND_COMPLETE"
	TypeGameEnded               = "GAME_ENDED"
	TypeRematchRequested        = "REMATCH_REQUESTED"
	TypeError                   = "ERROR"
)

// Game action types carried inside GAME_ACTION.
const (
	ActionPlaySecret          = "PLAY_SECRET"
	ActionPlayTradeOff        = "PLAY_TRADE_OFF"
	ActionInitiateGift        = "INITIATE_GIFT"
	ActionResolveGift         = "RESOLVE_GIFT"
	ActionInitiateCompetition = "INITIATE_COMPETITION"
	ActionResolveCompetition  = "RESOLVE_COMPETITION"
)

// Envelope is the generic frame shape for both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Frame marshals a complete outbound frame. A marshal failure is a server
// bug; it is logged and nil is returned (SafeSend drops nil harmlessly).
func Frame(msgType string, payload any) []byte {
	data, err := json.Marshal(struct {
		Type    string `json:"type"`
		Payload any    `json:"payload"`
	}{msgType, payload})
	if err != nil {
		slog.Error("marshaling frame", "tag", "protocol", "type", msgType, "err", err)
		return nil
	}
	return data
}

// --- Client-to-server payloads ---

// CreateRoomPayload opens a new room. Mode is "online" (wait for a second
// human) or "npc" (an AI seat is allocated immediately).
type CreateRoomPayload struct {
	PlayerID     string `json:"playerId"`
	PlayerName   string `json:"playerName,omitempty"`
	Mode         string `json:"mode"`
	AIDifficulty string `json:"aiDifficulty,omitempty"`
	GeishaSet    string `json:"geishaSet,omitempty"`
}

// JoinRoomPayload joins (or rejoins) an existing room.
type JoinRoomPayload struct {
	RoomID     string `json:"roomId"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName,omitempty"`
}

// GameActionPayload wraps one of the six rule-engine actions.
type GameActionPayload struct {
	PlayerID string    `json:"playerId"`
	Action   ActionMsg `json:"action"`
}

// ActionMsg is the inner action envelope of GAME_ACTION.
type ActionMsg struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// PlaySecretPayload selects one card to play face-down.
type PlaySecretPayload struct {
	CardID string `json:"cardId"`
}

// TradeOffPayload selects two cards to discard.
type TradeOffPayload struct {
	CardIDs []string `json:"cardIds"`
}

// GiftPayload offers three cards to the opponent.
type GiftPayload struct {
	CardIDs []string `json:"cardIds"`
}

// ResolveGiftPayload is the target's pick of one offered card.
type ResolveGiftPayload struct {
	ChosenCardID string `json:"chosenCardId"`
}

// CompetitionPayload offers two groups of two cards.
type CompetitionPayload struct {
	Groups [][]string `json:"groups"`
}

// ResolveCompetitionPayload is the target's pick of one group.
type ResolveCompetitionPayload struct {
	ChosenGroupIndex int `json:"chosenGroupIndex"`
}

// --- Server-to-client payloads ---

// ErrorPayload reports a rejected frame to the offending seat only.
type ErrorPayload struct {
	Message string `json:"message"`
}

// RoomCreatedPayload acknowledges CREATE_ROOM.
type RoomCreatedPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

// PlayerJoinedPayload announces a seat attaching (join or reconnect).
type PlayerJoinedPayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Reconnect  bool   `json:"reconnect,omitempty"`
}

// PlayerLeftPayload announces a seat detaching. Temporary means the seat is
// kept for reconnection.
type PlayerLeftPayload struct {
	PlayerID  string `json:"playerId"`
	Temporary bool   `json:"temporary"`
}

// OrderDecisionResultPayload carries the randomized turn order, first
// player first. Both seats receive the identical order.
type OrderDecisionResultPayload struct {
	Order []string `json:"order"`
}

// ConfirmationUpdatePayload reports per-seat confirmation progress for both
// the order decision and the ready check.
type ConfirmationUpdatePayload struct {
	Confirmed map[string]bool `json:"confirmed"`
}

// GameStatePayload wraps the sanitized per-viewer view.
type GameStatePayload struct {
	RoomID string    `json:"roomId"`
	State  game.View `json:"state"`
}

// DealAnimationPayload carries the masked deal sequence for one viewer.
type DealAnimationPayload struct {
	Steps []game.DealStepView `json:"steps"`
}

// CardDrawnPayload announces the turn-start draw, masked per viewer.
type CardDrawnPayload struct {
	PlayerID string        `json:"playerId"`
	Card     game.CardView `json:"card"`
}

// InteractionResolvedPayload announces the outcome of a two-phase action.
type InteractionResolvedPayload struct {
	Kind     string   `json:"kind"`
	PlayerID string   `json:"playerId"`
	CardIDs  []string `json:"cardIds"`
}

// GameEndedPayload announces the winner.
type GameEndedPayload struct {
	WinnerID string `json:"winnerId"`
}

// RematchRequestedPayload reports rematch confirmation progress.
type RematchRequestedPayload struct {
	PlayerID  string          `json:"playerId"`
	Confirmed map[string]bool `json:"confirmed"`
}
