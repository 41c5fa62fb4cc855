package room

import (
	"encoding/json"

	"hanamikoji-server/game"
	"hanamikoji-server/protocol"
)

// handleGameAction translates a GAME_ACTION frame into a rule engine call.
// Engine rejections become an ERROR frame for the submitter only; successful
// mutations broadcast their event followed by a sanitized state update.
func (r *Room) handleGameAction(playerID string, action protocol.ActionMsg) {
	if r.seat(playerID) == nil {
		r.sendError(playerID, ErrNotInRoom.Error())
		return
	}
	if r.state.Phase == game.PhaseEnded {
		r.sendError(playerID, ErrGameOver.Error())
		return
	}

	switch action.Type {
	case protocol.ActionPlaySecret:
		var p protocol.PlaySecretPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			r.sendError(playerID, "invalid PLAY_SECRET payload")
			return
		}
		event, err := r.state.PlaySecret(playerID, p.CardID)
		if err != nil {
			r.sendError(playerID, err.Error())
			return
		}
		r.broadcastActionExecuted(event)
		r.advanceOrResolve()

	case protocol.ActionPlayTradeOff:
		var p protocol.TradeOffPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			r.sendError(playerID, "invalid PLAY_TRADE_OFF payload")
			return
		}
		event, err := r.state.PlayTradeOff(playerID, p.CardIDs)
		if err != nil {
			r.sendError(playerID, err.Error())
			return
		}
		r.broadcastActionExecuted(event)
		r.advanceOrResolve()

	case protocol.ActionInitiateGift:
		var p protocol.GiftPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			r.sendError(playerID, "invalid INITIATE_GIFT payload")
			return
		}
		pending, err := r.state.InitiateGift(playerID, p.CardIDs)
		if err != nil {
			r.sendError(playerID, err.Error())
			return
		}
		r.broadcast(protocol.TypePendingInteraction, pending)
		r.broadcastState()

	case protocol.ActionResolveGift:
		var p protocol.ResolveGiftPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			r.sendError(playerID, "invalid RESOLVE_GIFT payload")
			return
		}
		event, err := r.state.ResolveGift(playerID, p.ChosenCardID)
		if err != nil {
			r.sendError(playerID, err.Error())
			return
		}
		r.broadcast(protocol.TypeInteractionResolved, protocol.InteractionResolvedPayload{
			Kind:     game.PendingGift,
			PlayerID: event.PlayerID,
			CardIDs:  event.CardIDs,
		})
		r.advanceOrResolve()

	case protocol.ActionInitiateCompetition:
		var p protocol.CompetitionPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			r.sendError(playerID, "invalid INITIATE_COMPETITION payload")
			return
		}
		pending, err := r.state.InitiateCompetition(playerID, p.Groups)
		if err != nil {
			r.sendError(playerID, err.Error())
			return
		}
		r.broadcast(protocol.TypePendingInteraction, pending)
		r.broadcastState()

	case protocol.ActionResolveCompetition:
		var p protocol.ResolveCompetitionPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			r.sendError(playerID, "invalid RESOLVE_COMPETITION payload")
			return
		}
		event, err := r.state.ResolveCompetition(playerID, p.ChosenGroupIndex)
		if err != nil {
			r.sendError(playerID, err.Error())
			return
		}
		r.broadcast(protocol.TypeInteractionResolved, protocol.InteractionResolvedPayload{
			Kind:     game.PendingCompetition,
			PlayerID: event.PlayerID,
			CardIDs:  event.CardIDs,
		})
		r.advanceOrResolve()

	default:
		r.sendError(playerID, "unknown action type: "+action.Type)
	}
}

// broadcastActionExecuted sends the executed action to both seats, stripping
// card ids from concealed actions for everyone but the actor.
func (r *Room) broadcastActionExecuted(event *game.ActionEvent) {
	for _, s := range r.seats {
		r.sendTo(s, protocol.TypeActionExecuted, game.MaskActionEvent(event, s.PlayerID))
	}
}
