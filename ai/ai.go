// Package ai implements the computer opponent. It receives exactly the frames
// a remote client would (sanitized views, no hidden information) and submits
// actions through the same envelope the rule engine validates for humans.
package ai

import (
	"encoding/json"
	"fmt"
	"time"

	"hanamikoji-server/config"
	"hanamikoji-server/game"
	"hanamikoji-server/protocol"
)

// SubmitFunc delivers a decided action back to the room, exactly as a remote
// client would over the wire.
type SubmitFunc func(playerID string, action protocol.ActionMsg)

// Run is the AI seat's decision loop. It watches GAME_STATE_UPDATED frames,
// waits out the tier's think delay and submits at most one action per decision
// point. Stale submissions are rejected by the engine like any client's; the
// loop never needs to see ERROR frames. Run exits when done closes.
func Run(frames <-chan []byte, done <-chan struct{}, playerID, difficulty string, params config.AITierParams, submit SubmitFunc) {
	b := newBrain(difficulty)
	think := time.Duration(params.ThinkDelayMS) * time.Millisecond
	var acted string

	for {
		select {
		case <-done:
			return
		case data := <-frames:
			view, ok := parseStateFrame(data)
			if !ok {
				continue
			}
			sig, action := decide(b, view, playerID)
			if action == nil || sig == acted {
				continue
			}
			acted = sig
			if !pause(done, think) {
				return
			}
			submit(playerID, *action)
		}
	}
}

func parseStateFrame(data []byte) (*game.View, bool) {
	var env protocol.Envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type != protocol.TypeGameStateUpdated {
		return nil, false
	}
	var payload protocol.GameStatePayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return nil, false
	}
	return &payload.State, true
}

// decide maps a view onto at most one action. The returned signature
// identifies the decision point so repeated broadcasts of the same state
// (reconnects, pending re-sends) do not produce duplicate submissions.
func decide(b *brain, v *game.View, playerID string) (string, *protocol.ActionMsg) {
	if v.Pending != nil {
		if v.Pending.TargetID() != playerID {
			return "", nil
		}
		pos := buildPosition(v, playerID)
		switch v.Pending.Kind {
		case game.PendingGift:
			card := b.chooseGiftCard(pos, v.Pending.Gift.OfferedCards)
			msg := actionMsg(protocol.ActionResolveGift, protocol.ResolveGiftPayload{ChosenCardID: card.ID})
			return fmt.Sprintf("resolve:%d:%s", v.Round, v.Pending.Kind), &msg
		case game.PendingCompetition:
			idx := b.chooseCompetitionGroup(pos, v.Pending.Competition.Groups)
			msg := actionMsg(protocol.ActionResolveCompetition, protocol.ResolveCompetitionPayload{ChosenGroupIndex: idx})
			return fmt.Sprintf("resolve:%d:%s", v.Round, v.Pending.Kind), &msg
		}
		return "", nil
	}

	if v.Phase != game.PhasePlaying || v.CurrentPlayerID != playerID {
		return "", nil
	}
	pos := buildPosition(v, playerID)
	if len(pos.hand) == 0 || len(pos.unused) == 0 {
		return "", nil
	}
	msg := b.chooseTurn(pos)
	return fmt.Sprintf("turn:%d:%d", v.Round, 4-len(pos.unused)), &msg
}

// actionMsg wraps an engine action in the GAME_ACTION inner envelope. The
// payload structs contain only strings and ints; marshaling cannot fail.
func actionMsg(actionType string, payload any) protocol.ActionMsg {
	data, _ := json.Marshal(payload)
	return protocol.ActionMsg{Type: actionType, Payload: data}
}

// pause sleeps for the think delay, returning false if done closed first.
func pause(done <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-done:
		return false
	}
}
