package game

import (
	"hanamikoji-server/deck"
)

// Phase is the lifecycle phase of a game within its room.
type Phase string

const (
	PhaseWaiting       Phase = "waiting"
	PhaseDecidingOrder Phase = "deciding_order"
	PhasePlaying       Phase = "playing"
	PhaseResolution    Phase = "resolution"
	PhaseEnded         Phase = "ended"
)

// ActionKind identifies one of the four per-round actions.
type ActionKind string

const (
	ActionSecret      ActionKind = "secret"
	ActionTradeOff    ActionKind = "trade-off"
	ActionGift        ActionKind = "gift"
	ActionCompetition ActionKind = "competition"
)

// allActionKinds is the token order presented to clients.
var allActionKinds = [4]ActionKind{ActionSecret, ActionTradeOff, ActionGift, ActionCompetition}

// Token is a one-shot permission to perform one action kind this round.
type Token struct {
	Kind ActionKind `json:"type"`
	Used bool       `json:"used"`
}

// Score is a player's standing after the latest resolution.
type Score struct {
	Charm  int `json:"charm"`
	Tokens int `json:"tokens"`
}

// PlayerState is one seat's full (unmasked) state.
type PlayerState struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Hand           []deck.Card `json:"hand"`
	PlayedCards    []deck.Card `json:"playedCards"`
	SecretCards    []deck.Card `json:"secretCards"`
	DiscardedCards []deck.Card `json:"discardedCards"`
	Tokens         []Token     `json:"actionTokens"`
	Score          Score       `json:"score"`
}

// NewPlayerState creates an empty seat with fresh tokens.
func NewPlayerState(id, name string) *PlayerState {
	return &PlayerState{
		ID:     id,
		Name:   name,
		Tokens: freshTokens(),
	}
}

func freshTokens() []Token {
	tokens := make([]Token, len(allActionKinds))
	for i, k := range allActionKinds {
		tokens[i] = Token{Kind: k}
	}
	return tokens
}

// token returns the player's token of the given kind, or nil.
func (p *PlayerState) token(kind ActionKind) *Token {
	for i := range p.Tokens {
		if p.Tokens[i].Kind == kind {
			return &p.Tokens[i]
		}
	}
	return nil
}

// HasUnusedToken reports whether the player can still act this round.
func (p *PlayerState) HasUnusedToken() bool {
	for _, t := range p.Tokens {
		if !t.Used {
			return true
		}
	}
	return false
}

// takeCards removes the cards with the given ids from the hand. Either all
// ids are found and removed, or the hand is left untouched and an error is
// returned; a partially applied trade-off must never leak cards.
func (p *PlayerState) takeCards(ids []string) ([]deck.Card, error) {
	if hasDuplicates(ids) {
		return nil, ErrDuplicateCards
	}
	taken := make([]deck.Card, 0, len(ids))
	for _, id := range ids {
		found := -1
		for i, c := range p.Hand {
			if c.ID == id {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, ErrCardNotOwned
		}
		taken = append(taken, p.Hand[found])
	}
	remaining := p.Hand[:0:0]
	for _, c := range p.Hand {
		if !containsID(ids, c.ID) {
			remaining = append(remaining, c)
		}
	}
	p.Hand = remaining
	return taken, nil
}

func hasDuplicates(ids []string) bool {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// Pending interaction kinds.
const (
	PendingGift        = "gift_selection"
	PendingCompetition = "competition_selection"
)

// GiftSelection is a gift awaiting the target's pick of one of three cards.
type GiftSelection struct {
	InitiatorID  string      `json:"initiatorId"`
	TargetID     string      `json:"targetId"`
	OfferedCards []deck.Card `json:"offeredCards"`
}

// CompetitionSelection is a competition awaiting the target's pick of one of
// two 2-card groups.
type CompetitionSelection struct {
	InitiatorID string         `json:"initiatorId"`
	TargetID    string         `json:"targetId"`
	Groups      [2][]deck.Card `json:"groups"`
}

// PendingInteraction is the tagged union of the two interactive actions.
// Exactly one of Gift/Competition is set, matching Kind.
type PendingInteraction struct {
	Kind        string                `json:"kind"`
	Gift        *GiftSelection        `json:"gift,omitempty"`
	Competition *CompetitionSelection `json:"competition,omitempty"`
}

// TargetID returns the only player allowed to resolve this interaction.
func (pi *PendingInteraction) TargetID() string {
	switch pi.Kind {
	case PendingGift:
		return pi.Gift.TargetID
	case PendingCompetition:
		return pi.Competition.TargetID
	}
	return ""
}

// DealStep is one card handed out during the round-start deal, recorded in
// order for the client animation.
type DealStep struct {
	PlayerID string    `json:"playerId"`
	Card     deck.Card `json:"card"`
}

// State is the canonical, unmasked game state of one room. All mutation goes
// through the engine methods; the room serializes access.
type State struct {
	GeishaSetKey    string              `json:"geishaSetKey"`
	Geishas         []deck.Geisha       `json:"geishas"`
	Players         []*PlayerState      `json:"players"` // seating order for the current round
	DrawPile        []deck.Card         `json:"drawPile"`
	DiscardPile     []deck.Card         `json:"discardPile"`
	RemovedCard     *deck.Card          `json:"removedCard"`
	CurrentPlayerID string              `json:"currentPlayerId"`
	Phase           Phase               `json:"phase"`
	Round           int                 `json:"round"`
	Pending         *PendingInteraction `json:"pendingInteraction,omitempty"`
	Winner          string              `json:"winner,omitempty"`
	DealSequence    []DealStep          `json:"dealSequence,omitempty"`
	LastAction      *ActionEvent        `json:"lastAction,omitempty"`
}

// NewState creates a game in the waiting phase with the given seats.
func NewState(setKey string, players ...*PlayerState) *State {
	if setKey == "" {
		setKey = deck.DefaultSetKey
	}
	return &State{
		GeishaSetKey: setKey,
		Geishas:      deck.BuildBaseGeishas(setKey),
		Players:      players,
		Phase:        PhaseWaiting,
	}
}

// Player returns the seat with the given id, or nil.
func (s *State) Player(id string) *PlayerState {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Opponent returns the other seat, or nil for an unknown id.
func (s *State) Opponent(id string) *PlayerState {
	for _, p := range s.Players {
		if p.ID != id {
			return p
		}
	}
	return nil
}

// ActionEvent describes an executed action for the ACTION_EXECUTED broadcast.
// When Concealed is true the card ids must be stripped for every viewer other
// than the actor.
type ActionEvent struct {
	PlayerID  string     `json:"playerId"`
	Action    ActionKind `json:"action"`
	CardIDs   []string   `json:"cardIds"`
	Concealed bool       `json:"concealed,omitempty"`
}
