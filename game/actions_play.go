package game

// checkTurnAction validates the common preconditions of the four initiating
// actions: correct phase, no pending interaction, the submitter's turn, and
// an unused token of the right kind.
func (s *State) checkTurnAction(playerID string, kind ActionKind) (*PlayerState, *Token, error) {
	if s.Phase != PhasePlaying {
		return nil, nil, ErrWrongPhase
	}
	if s.Pending != nil {
		return nil, nil, ErrInteractionPending
	}
	p := s.Player(playerID)
	if p == nil || playerID != s.CurrentPlayerID {
		return nil, nil, ErrNotYourTurn
	}
	token := p.token(kind)
	if token == nil || token.Used {
		return nil, nil, ErrTokenUsed
	}
	return p, token, nil
}

// PlaySecret moves one owned card face-down to the player's secret pile.
// The card is revealed (and counted) only at round resolution.
func (s *State) PlaySecret(playerID, cardID string) (*ActionEvent, error) {
	p, token, err := s.checkTurnAction(playerID, ActionSecret)
	if err != nil {
		return nil, err
	}
	cards, err := p.takeCards([]string{cardID})
	if err != nil {
		return nil, err
	}
	p.SecretCards = append(p.SecretCards, cards...)
	token.Used = true

	event := &ActionEvent{
		PlayerID:  playerID,
		Action:    ActionSecret,
		CardIDs:   []string{cardID},
		Concealed: true,
	}
	s.LastAction = event
	return event, nil
}

// PlayTradeOff moves two owned cards to the player's discard pile, removing
// them from scoring for the round. On any lookup failure nothing moves.
func (s *State) PlayTradeOff(playerID string, cardIDs []string) (*ActionEvent, error) {
	p, token, err := s.checkTurnAction(playerID, ActionTradeOff)
	if err != nil {
		return nil, err
	}
	if len(cardIDs) != 2 {
		return nil, ErrWrongCardCount
	}
	cards, err := p.takeCards(cardIDs)
	if err != nil {
		return nil, err
	}
	p.DiscardedCards = append(p.DiscardedCards, cards...)
	token.Used = true

	event := &ActionEvent{
		PlayerID:  playerID,
		Action:    ActionTradeOff,
		CardIDs:   cardIDs,
		Concealed: true,
	}
	s.LastAction = event
	return event, nil
}
