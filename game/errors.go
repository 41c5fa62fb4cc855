package game

import "errors"

// Rule violation sentinels. All of these are soft failures: the engine leaves
// the state untouched and the room reports them to the offending seat only.
var (
	// Turn errors
	ErrNotYourTurn = errors.New("it is not your turn")
	ErrTokenUsed   = errors.New("that action has already been used this round")
	ErrWrongPhase  = errors.New("the current phase does not allow this action")

	// Interaction errors
	ErrInteractionPending = errors.New("an interaction is awaiting the opponent's response")
	ErrNoInteraction      = errors.New("there is no interaction to resolve")
	ErrNotTarget          = errors.New("only the targeted player may resolve this interaction")
	ErrWrongInteraction   = errors.New("the pending interaction is of a different kind")

	// Card errors
	ErrCardNotOwned   = errors.New("you do not own one or more of those cards")
	ErrDuplicateCards = errors.New("duplicate cards in selection")
	ErrWrongCardCount = errors.New("wrong number of cards for this action")
	ErrBadGrouping    = errors.New("competition requires two groups of two cards")
	ErrCardNotOffered = errors.New("that card is not part of the offer")
	ErrBadGroupIndex  = errors.New("chosen group must be 0 or 1")
)
