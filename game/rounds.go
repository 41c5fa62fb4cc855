package game

import (
	"log/slog"

	"hanamikoji-server/deck"
)

const (
	handSize       = 6
	charmToWin     = 11
	tokensToWin    = 4
	drawPileAtDeal = deck.TotalCharm - 1 - 2*handSize
)

// PrepareRound rebuilds the deck and both seats for a new round. Geisha
// control is preserved from the previous round; scores and identities are
// kept, everything else (hand, piles, tokens) is reset. The first id in
// orderedPlayerIDs starts the round. Six cards are dealt alternately and the
// deal order is recorded for the client animation.
func (s *State) PrepareRound(orderedPlayerIDs []string, roundNumber int) {
	control := make(map[int]string, len(s.Geishas))
	for _, g := range s.Geishas {
		control[g.ID] = g.ControlledBy
	}
	s.Geishas = deck.BuildBaseGeishas(s.GeishaSetKey)
	for i := range s.Geishas {
		s.Geishas[i].ControlledBy = control[s.Geishas[i].ID]
	}

	ordered := make([]*PlayerState, 0, len(s.Players))
	for _, id := range orderedPlayerIDs {
		if p := s.Player(id); p != nil {
			ordered = append(ordered, p)
		}
	}
	if len(ordered) == len(s.Players) {
		s.Players = ordered
	}
	for _, p := range s.Players {
		p.Hand = nil
		p.PlayedCards = nil
		p.SecretCards = nil
		p.DiscardedCards = nil
		p.Tokens = freshTokens()
	}

	pile, removed := deck.BuildDeck(s.Geishas)
	s.DealSequence = nil
	for i := 0; i < 2*handSize; i++ {
		p := s.Players[i%len(s.Players)]
		card := pile[0]
		pile = pile[1:]
		p.Hand = append(p.Hand, card)
		s.DealSequence = append(s.DealSequence, DealStep{PlayerID: p.ID, Card: card})
	}
	s.DrawPile = pile
	s.RemovedCard = &removed
	s.DiscardPile = nil
	s.Round = roundNumber
	s.CurrentPlayerID = s.Players[0].ID
	s.Pending = nil
	s.LastAction = nil
	s.Winner = ""
	s.Phase = PhasePlaying

	s.ValidateRoundSetup()
}

// ValidateRoundSetup checks the post-deal invariants: 21 unique cards in
// total, six per hand, eight in the draw pile, removed card set. A violation
// is a server bug, not a player error; it is logged and play continues.
func (s *State) ValidateRoundSetup() {
	ids := make(map[string]int)
	total := 0
	count := func(cards []deck.Card) {
		for _, c := range cards {
			ids[c.ID]++
			total++
		}
	}
	count(s.DrawPile)
	count(s.DiscardPile)
	if s.RemovedCard != nil {
		ids[s.RemovedCard.ID]++
		total++
	} else {
		slog.Error("round setup: removed card missing", "tag", "game", "round", s.Round)
	}
	for _, p := range s.Players {
		count(p.Hand)
		count(p.PlayedCards)
		count(p.SecretCards)
		count(p.DiscardedCards)
		if len(p.Hand) != handSize {
			slog.Error("round setup: wrong hand size", "tag", "game", "round", s.Round, "player", p.ID, "hand", len(p.Hand))
		}
	}
	if total != deck.TotalCharm {
		slog.Error("round setup: wrong card total", "tag", "game", "round", s.Round, "total", total)
	}
	if len(s.DrawPile) != drawPileAtDeal {
		slog.Error("round setup: wrong draw pile size", "tag", "game", "round", s.Round, "drawPile", len(s.DrawPile))
	}
	for id, n := range ids {
		if n > 1 {
			slog.Error("round setup: duplicate card id", "tag", "game", "round", s.Round, "cardId", id, "count", n)
		}
	}
}

// BeginTurn starts the current player's turn: seats with no unused tokens are
// skipped, one card is drawn into the acting player's hand, and the pending
// interaction / last action markers are cleared. Returns the drawn card, or
// nil when no seat can act any more (the round is over).
func (s *State) BeginTurn() *deck.Card {
	p := s.Player(s.CurrentPlayerID)
	if p == nil {
		return nil
	}
	if !p.HasUnusedToken() && !s.AdvanceTurn() {
		return nil
	}
	p = s.Player(s.CurrentPlayerID)
	if len(s.DrawPile) == 0 {
		slog.Error("begin turn with empty draw pile", "tag", "game", "round", s.Round, "player", p.ID)
		return nil
	}
	card := s.DrawPile[0]
	s.DrawPile = s.DrawPile[1:]
	p.Hand = append(p.Hand, card)
	s.Phase = PhasePlaying
	s.Pending = nil
	s.LastAction = nil
	return &card
}

// AdvanceTurn moves CurrentPlayerID to the next seat in seating order that
// still has an unused token. Returns false when no seat can act.
func (s *State) AdvanceTurn() bool {
	cur := 0
	for i, p := range s.Players {
		if p.ID == s.CurrentPlayerID {
			cur = i
			break
		}
	}
	for i := 1; i <= len(s.Players); i++ {
		cand := s.Players[(cur+i)%len(s.Players)]
		if cand.HasUnusedToken() {
			s.CurrentPlayerID = cand.ID
			return true
		}
	}
	return false
}

// RoundResult summarizes a round resolution for the ROUND_COMPLETE broadcast.
type RoundResult struct {
	Round    int              `json:"round"`
	Geishas  []deck.Geisha    `json:"geishas"`
	Scores   map[string]Score `json:"scores"`
	WinnerID string           `json:"winnerId,omitempty"`
	GameOver bool             `json:"gameOver"`
}

// ResolveRound reveals secrets, moves geisha control by strict majority of
// played cards, recomputes scores and determines whether the game is over.
// Control only changes when one side's count strictly exceeds the other's;
// ties leave the previous controller in place.
func (s *State) ResolveRound() *RoundResult {
	s.Phase = PhaseResolution

	for _, p := range s.Players {
		p.PlayedCards = append(p.PlayedCards, p.SecretCards...)
		p.SecretCards = nil
	}

	a, b := s.Players[0], s.Players[1]
	for i := range s.Geishas {
		g := &s.Geishas[i]
		countA := countForGeisha(a.PlayedCards, g.ID)
		countB := countForGeisha(b.PlayedCards, g.ID)
		if countA > countB {
			g.ControlledBy = a.ID
		} else if countB > countA {
			g.ControlledBy = b.ID
		}
	}

	for _, p := range s.Players {
		p.Score = s.scoreFor(p.ID)
	}

	result := &RoundResult{
		Round:   s.Round,
		Geishas: append([]deck.Geisha(nil), s.Geishas...),
		Scores: map[string]Score{
			a.ID: a.Score,
			b.ID: b.Score,
		},
	}

	if winner := determineWinner(a, b); winner != "" {
		s.Winner = winner
		s.Phase = PhaseEnded
		result.WinnerID = winner
		result.GameOver = true
	}
	return result
}

func countForGeisha(cards []deck.Card, geishaID int) int {
	n := 0
	for _, c := range cards {
		if c.GeishaID == geishaID {
			n++
		}
	}
	return n
}

func (s *State) scoreFor(playerID string) Score {
	var score Score
	for _, g := range s.Geishas {
		if g.ControlledBy == playerID {
			score.Tokens++
			score.Charm += g.Charm
		}
	}
	return score
}

// determineWinner applies the victory thresholds: charm >= 11 outranks
// tokens >= 4. When both seats cross the same threshold the higher value
// wins; a full tie produces no winner and the game continues.
func determineWinner(a, b *PlayerState) string {
	if a.Score.Charm >= charmToWin || b.Score.Charm >= charmToWin {
		switch {
		case a.Score.Charm > b.Score.Charm:
			return a.ID
		case b.Score.Charm > a.Score.Charm:
			return b.ID
		case a.Score.Tokens > b.Score.Tokens:
			return a.ID
		case b.Score.Tokens > a.Score.Tokens:
			return b.ID
		}
		return ""
	}
	if a.Score.Tokens >= tokensToWin || b.Score.Tokens >= tokensToWin {
		switch {
		case a.Score.Tokens > b.Score.Tokens:
			return a.ID
		case b.Score.Tokens > a.Score.Tokens:
			return b.ID
		case a.Score.Charm > b.Score.Charm:
			return a.ID
		case b.Score.Charm > a.Score.Charm:
			return b.ID
		}
	}
	return ""
}
