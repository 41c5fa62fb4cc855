package game

import (
	"encoding/json"
	"strings"
	"testing"

	"hanamikoji-server/deck"
)

func TestBuildViewForPlayer_OwnCardsVisible(t *testing.T) {
	s := newPlayingState(t)
	s.Player("p1").SecretCards = []deck.Card{testCard("sec1", 5)}

	view := BuildViewForPlayer(s, "p1")

	var me PlayerView
	for _, pv := range view.Players {
		if pv.ID == "p1" {
			me = pv
		}
	}
	if len(me.Hand) != 7 {
		t.Fatalf("expected 7 hand cards, got %d", len(me.Hand))
	}
	for _, c := range me.Hand {
		if c.Hidden || c.ID == "" {
			t.Errorf("own hand card must be fully visible, got %+v", c)
		}
	}
	if len(me.SecretCards) != 1 || me.SecretCards[0].ID != "sec1" {
		t.Errorf("own secrets must be visible, got %+v", me.SecretCards)
	}
}

func TestBuildViewForPlayer_OpponentMasked(t *testing.T) {
	s := newPlayingState(t)
	s.Player("p2").SecretCards = []deck.Card{testCard("sec2", 5)}
	s.Player("p2").DiscardedCards = []deck.Card{testCard("d1", 3), testCard("d2", 4)}

	view := BuildViewForPlayer(s, "p1")

	var opp PlayerView
	for _, pv := range view.Players {
		if pv.ID == "p2" {
			opp = pv
		}
	}
	if len(opp.Hand) != 7 {
		t.Fatalf("opponent hand count must be preserved, got %d", len(opp.Hand))
	}
	for _, c := range opp.Hand {
		if !c.Hidden || c.ID != "" || c.GeishaID != 0 {
			t.Errorf("opponent hand card must be a placeholder, got %+v", c)
		}
	}
	if len(opp.SecretCards) != 0 {
		t.Errorf("opponent secrets must vanish entirely, got %d", len(opp.SecretCards))
	}
	if len(opp.DiscardedCards) != 2 {
		t.Fatalf("opponent discard count must be preserved, got %d", len(opp.DiscardedCards))
	}
	for _, c := range opp.DiscardedCards {
		if !c.Hidden || c.ID != "" {
			t.Errorf("opponent discard must be a placeholder, got %+v", c)
		}
	}
}

func TestBuildViewForPlayer_NoHiddenPilesInJSON(t *testing.T) {
	s := newPlayingState(t)
	s.DrawPile = []deck.Card{testCard("draw1", 1)}
	removed := testCard("removed1", 2)
	s.RemovedCard = &removed

	view := BuildViewForPlayer(s, "p1")
	data, err := json.Marshal(view)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	if strings.Contains(body, "draw1") || strings.Contains(body, "removed1") {
		t.Error("serialized view must not contain draw pile or removed card ids")
	}
	if strings.Contains(body, "drawPile") || strings.Contains(body, "removedCard") {
		t.Error("serialized view must not contain hidden pile fields")
	}
}

func TestBuildViewForPlayer_PlayedCardsPublic(t *testing.T) {
	s := newPlayingState(t)
	s.Player("p2").PlayedCards = []deck.Card{testCard("pl1", 6)}

	view := BuildViewForPlayer(s, "p1")

	for _, pv := range view.Players {
		if pv.ID == "p2" {
			if len(pv.PlayedCards) != 1 || pv.PlayedCards[0].ID != "pl1" {
				t.Errorf("played cards are public, got %+v", pv.PlayedCards)
			}
		}
	}
}

func TestMaskActionEvent(t *testing.T) {
	event := &ActionEvent{PlayerID: "p1", Action: ActionSecret, CardIDs: []string{"a1"}, Concealed: true}

	forActor := MaskActionEvent(event, "p1")
	if len(forActor.CardIDs) != 1 || forActor.CardIDs[0] != "a1" {
		t.Errorf("actor keeps card ids, got %+v", forActor.CardIDs)
	}

	forOpponent := MaskActionEvent(event, "p2")
	if len(forOpponent.CardIDs) != 0 {
		t.Errorf("concealed event must strip card ids for the opponent, got %+v", forOpponent.CardIDs)
	}
	if forOpponent.Action != ActionSecret || forOpponent.PlayerID != "p1" {
		t.Error("action kind and actor stay visible")
	}
}

func TestMaskActionEvent_OpenActionUntouched(t *testing.T) {
	event := &ActionEvent{PlayerID: "p1", Action: ActionGift, CardIDs: []string{"a1", "a2", "a3"}}

	forOpponent := MaskActionEvent(event, "p2")
	if len(forOpponent.CardIDs) != 3 {
		t.Errorf("open actions keep their card ids, got %+v", forOpponent.CardIDs)
	}
}

func TestBuildDealSequenceFor(t *testing.T) {
	s := NewState("", NewPlayerState("p1", "Alice"), NewPlayerState("p2", "Bob"))
	s.PrepareRound([]string{"p1", "p2"}, 1)

	steps := BuildDealSequenceFor(s, "p1")
	if len(steps) != 12 {
		t.Fatalf("expected 12 deal steps, got %d", len(steps))
	}
	for i, step := range steps {
		if step.PlayerID == "p1" {
			if step.Card.Hidden || step.Card.ID == "" {
				t.Errorf("step %d: own card must be visible", i)
			}
		} else {
			if !step.Card.Hidden || step.Card.ID != "" {
				t.Errorf("step %d: opponent card must be a placeholder", i)
			}
		}
	}
}

func TestMaskDrawnCard(t *testing.T) {
	card := testCard("c1", 3)

	own := MaskDrawnCard(&card, "p1", "p1")
	if own.ID != "c1" || own.Hidden {
		t.Errorf("owner sees the drawn card, got %+v", own)
	}

	other := MaskDrawnCard(&card, "p1", "p2")
	if other.ID != "" || !other.Hidden {
		t.Errorf("opponent sees a placeholder, got %+v", other)
	}
}

func TestCardViewJSON_PlaceholderOmitsIdentity(t *testing.T) {
	data, err := json.Marshal(CardView{Hidden: true})
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	json.Unmarshal(data, &m)
	if _, ok := m["id"]; ok {
		t.Error("placeholder JSON should not contain id")
	}
	if _, ok := m["geishaId"]; ok {
		t.Error("placeholder JSON should not contain geishaId")
	}
	if m["hidden"] != true {
		t.Error("placeholder JSON should be marked hidden")
	}
}
