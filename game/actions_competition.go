package game

import "hanamikoji-server/deck"

// InitiateCompetition removes four owned cards arranged as two groups of two
// and opens a competition selection addressed to the opponent. Groups are
// materialized as full card objects so the target can judge them.
func (s *State) InitiateCompetition(playerID string, groups [][]string) (*PendingInteraction, error) {
	p, token, err := s.checkTurnAction(playerID, ActionCompetition)
	if err != nil {
		return nil, err
	}
	if len(groups) != 2 || len(groups[0]) != 2 || len(groups[1]) != 2 {
		return nil, ErrBadGrouping
	}
	flat := append(append([]string{}, groups[0]...), groups[1]...)
	if hasDuplicates(flat) {
		return nil, ErrDuplicateCards
	}
	opponent := s.Opponent(playerID)
	cards, err := p.takeCards(flat)
	if err != nil {
		return nil, err
	}
	token.Used = true
	s.Pending = &PendingInteraction{
		Kind: PendingCompetition,
		Competition: &CompetitionSelection{
			InitiatorID: playerID,
			TargetID:    opponent.ID,
			Groups: [2][]deck.Card{
				{cards[0], cards[1]},
				{cards[2], cards[3]},
			},
		},
	}
	s.LastAction = &ActionEvent{PlayerID: playerID, Action: ActionCompetition, CardIDs: flat}
	return s.Pending, nil
}

// ResolveCompetition applies the target's pick: the chosen group goes to the
// target's played cards, the other to the initiator's.
func (s *State) ResolveCompetition(playerID string, chosenGroup int) (*ActionEvent, error) {
	if s.Pending == nil {
		return nil, ErrNoInteraction
	}
	if s.Pending.Kind != PendingCompetition {
		return nil, ErrWrongInteraction
	}
	comp := s.Pending.Competition
	if playerID != comp.TargetID {
		return nil, ErrNotTarget
	}
	if chosenGroup != 0 && chosenGroup != 1 {
		return nil, ErrBadGroupIndex
	}

	target := s.Player(comp.TargetID)
	initiator := s.Player(comp.InitiatorID)
	target.PlayedCards = append(target.PlayedCards, comp.Groups[chosenGroup]...)
	initiator.PlayedCards = append(initiator.PlayedCards, comp.Groups[1-chosenGroup]...)
	s.Pending = nil

	chosenIDs := make([]string, 0, 2)
	for _, c := range comp.Groups[chosenGroup] {
		chosenIDs = append(chosenIDs, c.ID)
	}
	event := &ActionEvent{
		PlayerID: playerID,
		Action:   ActionCompetition,
		CardIDs:  chosenIDs,
	}
	s.LastAction = event
	return event, nil
}
