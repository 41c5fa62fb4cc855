package ai

import (
	"fmt"
	"testing"

	"hanamikoji-server/deck"
	"hanamikoji-server/game"
	"hanamikoji-server/protocol"
)

func freshTokenViews() []game.Token {
	return []game.Token{
		{Kind: game.ActionSecret},
		{Kind: game.ActionTradeOff},
		{Kind: game.ActionGift},
		{Kind: game.ActionCompetition},
	}
}

func cardViews(n int) []game.CardView {
	views := make([]game.CardView, n)
	for i := range views {
		views[i] = game.CardView{ID: fmt.Sprintf("ai%d", i+1), GeishaID: i%7 + 1, Type: "item"}
	}
	return views
}

func hiddenViews(n int) []game.CardView {
	views := make([]game.CardView, n)
	for i := range views {
		views[i] = game.CardView{Hidden: true}
	}
	return views
}

// aiView builds the sanitized view the AI seat would receive mid-round.
func aiView(currentID string) *game.View {
	return &game.View{
		Geishas: deck.BuildBaseGeishas(deck.DefaultSetKey),
		Players: []game.PlayerView{
			{ID: "ai", Name: "Kasumi", Hand: cardViews(7), Tokens: freshTokenViews()},
			{ID: "human", Name: "Alice", Hand: hiddenViews(7), Tokens: freshTokenViews()},
		},
		CurrentPlayerID: currentID,
		Phase:           game.PhasePlaying,
		Round:           1,
		ViewerID:        "ai",
	}
}

func TestDecide_NotMyTurn(t *testing.T) {
	b := newBrain("medium")
	if sig, action := decide(b, aiView("human"), "ai"); action != nil {
		t.Errorf("expected no action off-turn, got %s (sig %s)", action.Type, sig)
	}
}

func TestDecide_MyTurnActs(t *testing.T) {
	b := newBrain("medium")
	sig, action := decide(b, aiView("ai"), "ai")
	if action == nil {
		t.Fatal("expected an action on the AI's turn")
	}
	if sig == "" {
		t.Error("expected a decision point signature")
	}
}

func TestDecide_SignatureChangesPerTurn(t *testing.T) {
	b := newBrain("medium")
	v1 := aiView("ai")
	sig1, _ := decide(b, v1, "ai")

	v2 := aiView("ai")
	v2.Players[0].Tokens[3].Used = true
	sig2, _ := decide(b, v2, "ai")

	if sig1 == sig2 {
		t.Error("spending a token must change the decision signature")
	}
}

func TestDecide_ResolvesGiftAsTarget(t *testing.T) {
	b := newBrain("medium")
	v := aiView("human")
	v.Pending = &game.PendingInteraction{
		Kind: game.PendingGift,
		Gift: &game.GiftSelection{
			InitiatorID:  "human",
			TargetID:     "ai",
			OfferedCards: []deck.Card{card("g1", 1), card("g2", 4), card("g3", 7)},
		},
	}

	_, action := decide(b, v, "ai")
	if action == nil {
		t.Fatal("expected a gift resolution")
	}
	if action.Type != protocol.ActionResolveGift {
		t.Errorf("expected RESOLVE_GIFT, got %s", action.Type)
	}
}

func TestDecide_IgnoresPendingForInitiator(t *testing.T) {
	b := newBrain("medium")
	v := aiView("ai")
	v.Pending = &game.PendingInteraction{
		Kind: game.PendingGift,
		Gift: &game.GiftSelection{
			InitiatorID:  "ai",
			TargetID:     "human",
			OfferedCards: []deck.Card{card("g1", 1), card("g2", 4), card("g3", 7)},
		},
	}

	if _, action := decide(b, v, "ai"); action != nil {
		t.Errorf("the initiator must wait for the target, got %s", action.Type)
	}
}

func TestDecide_ResolvesCompetitionAsTarget(t *testing.T) {
	b := newBrain("hard")
	v := aiView("human")
	v.Pending = &game.PendingInteraction{
		Kind: game.PendingCompetition,
		Competition: &game.CompetitionSelection{
			InitiatorID: "human",
			TargetID:    "ai",
			Groups: [2][]deck.Card{
				{card("x1", 1), card("x2", 2)},
				{card("x3", 6), card("x4", 7)},
			},
		},
	}

	_, action := decide(b, v, "ai")
	if action == nil {
		t.Fatal("expected a competition resolution")
	}
	if action.Type != protocol.ActionResolveCompetition {
		t.Errorf("expected RESOLVE_COMPETITION, got %s", action.Type)
	}
}

func TestDecide_NoActionWhenGameEnded(t *testing.T) {
	b := newBrain("medium")
	v := aiView("ai")
	v.Phase = game.PhaseEnded

	if _, action := decide(b, v, "ai"); action != nil {
		t.Errorf("expected no action after the game ended, got %s", action.Type)
	}
}

func TestParseStateFrame(t *testing.T) {
	frame := protocol.Frame(protocol.TypeGameStateUpdated, protocol.GameStatePayload{RoomID: "R1", State: *aiView("ai")})
	view, ok := parseStateFrame(frame)
	if !ok {
		t.Fatal("expected a parsed view")
	}
	if view.CurrentPlayerID != "ai" {
		t.Errorf("unexpected current player %q", view.CurrentPlayerID)
	}

	other := protocol.Frame(protocol.TypeCardDrawn, protocol.CardDrawnPayload{PlayerID: "ai"})
	if _, ok := parseStateFrame(other); ok {
		t.Error("non-state frames must be ignored")
	}
}
