package game

import "hanamikoji-server/deck"

// CardView is the client-facing representation of a card. A placeholder
// (Hidden with no id) stands in for cards the viewer must not identify; only
// the count of such cards is conveyed.
type CardView struct {
	ID       string `json:"id,omitempty"`
	GeishaID int    `json:"geishaId,omitempty"`
	Type     string `json:"type,omitempty"`
	Hidden   bool   `json:"hidden,omitempty"`
}

// PlayerView is one seat as a given viewer is allowed to see it.
type PlayerView struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Hand           []CardView  `json:"hand"`
	PlayedCards    []deck.Card `json:"playedCards"`
	SecretCards    []CardView  `json:"secretCards"`
	DiscardedCards []CardView  `json:"discardedCards"`
	Tokens         []Token     `json:"actionTokens"`
	Score          Score       `json:"score"`
}

// DealStepView is one masked step of the deal animation.
type DealStepView struct {
	PlayerID string   `json:"playerId"`
	Card     CardView `json:"card"`
}

// View is the sanitized game state for one viewer. It is the only shape the
// room ever broadcasts as GAME_STATE_UPDATED; drawPile and removedCard never
// appear in it.
type View struct {
	Geishas         []deck.Geisha       `json:"geishas"`
	Players         []PlayerView        `json:"players"`
	CurrentPlayerID string              `json:"currentPlayerId"`
	Phase           Phase               `json:"phase"`
	Round           int                 `json:"round"`
	Pending         *PendingInteraction `json:"pendingInteraction,omitempty"`
	Winner          string              `json:"winner,omitempty"`
	LastAction      *ActionEvent        `json:"lastAction,omitempty"`
	ViewerID        string              `json:"viewerId"`
}

func passCards(cards []deck.Card) []CardView {
	views := make([]CardView, len(cards))
	for i, c := range cards {
		views[i] = CardView{ID: c.ID, GeishaID: c.GeishaID, Type: c.Type}
	}
	return views
}

func maskCards(cards []deck.Card) []CardView {
	views := make([]CardView, len(cards))
	for i := range cards {
		views[i] = CardView{Hidden: true}
	}
	return views
}

// BuildViewForPlayer projects the state for one viewer. Opponent hands and
// discards become length-preserving placeholders, opponent secrets vanish
// entirely (not even their count is revealed during play), and the draw pile
// and removed card are stripped. The projection is deterministic for a given
// state and viewer.
func BuildViewForPlayer(s *State, viewerID string) View {
	players := make([]PlayerView, len(s.Players))
	for i, p := range s.Players {
		pv := PlayerView{
			ID:          p.ID,
			Name:        p.Name,
			PlayedCards: append([]deck.Card(nil), p.PlayedCards...),
			Tokens:      append([]Token(nil), p.Tokens...),
			Score:       p.Score,
		}
		if p.ID == viewerID {
			pv.Hand = passCards(p.Hand)
			pv.SecretCards = passCards(p.SecretCards)
			pv.DiscardedCards = passCards(p.DiscardedCards)
		} else {
			pv.Hand = maskCards(p.Hand)
			pv.SecretCards = []CardView{}
			pv.DiscardedCards = maskCards(p.DiscardedCards)
		}
		players[i] = pv
	}

	view := View{
		Geishas:         append([]deck.Geisha(nil), s.Geishas...),
		Players:         players,
		CurrentPlayerID: s.CurrentPlayerID,
		Phase:           s.Phase,
		Round:           s.Round,
		Pending:         s.Pending,
		Winner:          s.Winner,
		ViewerID:        viewerID,
	}
	if s.LastAction != nil {
		view.LastAction = MaskActionEvent(s.LastAction, viewerID)
	}
	return view
}

// MaskActionEvent strips card ids from a concealed action event for every
// viewer other than the actor. The actor keeps the full event.
func MaskActionEvent(event *ActionEvent, viewerID string) *ActionEvent {
	if !event.Concealed || event.PlayerID == viewerID {
		copied := *event
		copied.CardIDs = append([]string(nil), event.CardIDs...)
		return &copied
	}
	return &ActionEvent{
		PlayerID:  event.PlayerID,
		Action:    event.Action,
		CardIDs:   []string{},
		Concealed: true,
	}
}

// BuildDealSequenceFor masks the recorded deal animation for one viewer:
// cards dealt to the viewer pass through, cards dealt to the opponent become
// placeholders.
func BuildDealSequenceFor(s *State, viewerID string) []DealStepView {
	steps := make([]DealStepView, len(s.DealSequence))
	for i, step := range s.DealSequence {
		sv := DealStepView{PlayerID: step.PlayerID}
		if step.PlayerID == viewerID {
			sv.Card = CardView{ID: step.Card.ID, GeishaID: step.Card.GeishaID, Type: step.Card.Type}
		} else {
			sv.Card = CardView{Hidden: true}
		}
		steps[i] = sv
	}
	return steps
}

// MaskDrawnCard produces the CARD_DRAWN payload card for one viewer.
func MaskDrawnCard(card *deck.Card, ownerID, viewerID string) CardView {
	if ownerID == viewerID {
		return CardView{ID: card.ID, GeishaID: card.GeishaID, Type: card.Type}
	}
	return CardView{Hidden: true}
}
