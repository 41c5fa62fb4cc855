package game

// InitiateGift removes three owned cards from the initiator's hand and opens
// a gift selection addressed to the opponent. The turn does not advance until
// the opponent resolves.
func (s *State) InitiateGift(playerID string, cardIDs []string) (*PendingInteraction, error) {
	p, token, err := s.checkTurnAction(playerID, ActionGift)
	if err != nil {
		return nil, err
	}
	if len(cardIDs) != 3 {
		return nil, ErrWrongCardCount
	}
	opponent := s.Opponent(playerID)
	cards, err := p.takeCards(cardIDs)
	if err != nil {
		return nil, err
	}
	token.Used = true
	s.Pending = &PendingInteraction{
		Kind: PendingGift,
		Gift: &GiftSelection{
			InitiatorID:  playerID,
			TargetID:     opponent.ID,
			OfferedCards: cards,
		},
	}
	s.LastAction = &ActionEvent{PlayerID: playerID, Action: ActionGift, CardIDs: cardIDs}
	return s.Pending, nil
}

// ResolveGift applies the target's pick: the chosen card goes to the target's
// played cards, the remaining two to the initiator's.
func (s *State) ResolveGift(playerID, chosenCardID string) (*ActionEvent, error) {
	if s.Pending == nil {
		return nil, ErrNoInteraction
	}
	if s.Pending.Kind != PendingGift {
		return nil, ErrWrongInteraction
	}
	gift := s.Pending.Gift
	if playerID != gift.TargetID {
		return nil, ErrNotTarget
	}

	chosen := -1
	for i, c := range gift.OfferedCards {
		if c.ID == chosenCardID {
			chosen = i
			break
		}
	}
	if chosen < 0 {
		return nil, ErrCardNotOffered
	}

	target := s.Player(gift.TargetID)
	initiator := s.Player(gift.InitiatorID)
	for i, c := range gift.OfferedCards {
		if i == chosen {
			target.PlayedCards = append(target.PlayedCards, c)
		} else {
			initiator.PlayedCards = append(initiator.PlayedCards, c)
		}
	}
	s.Pending = nil

	event := &ActionEvent{
		PlayerID: playerID,
		Action:   ActionGift,
		CardIDs:  []string{chosenCardID},
	}
	s.LastAction = event
	return event, nil
}
