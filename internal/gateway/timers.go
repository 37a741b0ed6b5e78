package gateway

import (
	"context"
	"time"

	"github.com/dicearena/server/pkg/engine"
	"github.com/dicearena/server/pkg/game"
	"github.com/dicearena/server/pkg/timer"
)

// resultsAckKind/resultsAckTimeout realize spec.md §4.5's results-ack
// timeout: started at the first acknowledgement in SET_REVEAL or
// ROUND_SUMMARY, 30 seconds, forcing an advance on expiry regardless of
// outstanding acks (spec.md §4.7 step 5).
const resultsAckKind = timer.KindResultsAck
const resultsAckTimeout = 30 * time.Second

// dispatchApplyResult runs every timer command the engine produced against
// the room's scheduler and fans every notification out to the room's
// connections, the single funnel every gameplay event (manual or
// timer-synthesized) passes through.
func (h *Hub) dispatchApplyResult(roomCode string, result *engine.ApplyResult) {
	if result == nil {
		return
	}
	rs := h.getOrCreateRoom(roomCode)

	for _, cmd := range result.TimerCommands {
		kind := toTimerKind(cmd.Kind)
		switch cmd.Action {
		case engine.TimerStart:
			rs.scheduler.Start(kind, cmd.Duration, cmd.TurnHolder)
			if h.metrics != nil {
				h.metrics.ActiveTimers.Inc()
			}
		case engine.TimerCancel:
			rs.scheduler.Cancel(kind)
			if h.metrics != nil {
				h.metrics.ActiveTimers.Dec()
			}
		}
	}

	for _, n := range result.Notifications {
		h.dispatchNotification(roomCode, n)
	}
}

func toTimerKind(k engine.TimerKind) timer.Kind {
	switch k {
	case engine.TimerTurn:
		return timer.KindTurn
	case engine.TimerPrediction:
		return timer.KindPrediction
	default:
		return timer.KindTurn
	}
}

func (h *Hub) dispatchNotification(roomCode string, n engine.Notification) {
	switch n.Kind {
	case engine.NotifyInitialRoll:
		h.broadcastPerRecipient(roomCode, "game:initialRoll", func(rid string) interface{} {
			return map[string]interface{}{"results": n.InitialRolls, "turnOrder": n.State.TurnOrder, "gameState": sanitizeStateFor(n.State, rid)}
		})

	case engine.NotifyPhaseChange:
		h.broadcastPerRecipient(roomCode, "game:phaseChange", func(rid string) interface{} {
			return map[string]interface{}{"phase": n.State.Phase, "gameState": sanitizeStateFor(n.State, rid)}
		})

	case engine.NotifyTurnStart:
		h.broadcastAll(roomCode, "game:turnStart", map[string]interface{}{"playerId": n.TurnHolder, "timeRemaining": n.SecondsRemaining})

	case engine.NotifyDiceSelected:
		h.broadcastPerRecipient(roomCode, "dice:selected", func(rid string) interface{} {
			return diceSelectedPayload(n.State, n.ActingPlayer, rid)
		})

	case engine.NotifyDiceConfirmed:
		h.broadcastAll(roomCode, "dice:confirmed", map[string]interface{}{"playerId": n.ActingPlayer})

	case engine.NotifyPredictionSub:
		h.broadcastAll(roomCode, "prediction:submitted", map[string]interface{}{"playerId": n.ActingPlayer})

	case engine.NotifyAllPredicted:
		h.broadcastPerRecipient(roomCode, "prediction:allSubmitted", func(rid string) interface{} {
			return map[string]interface{}{"gameState": sanitizeStateFor(n.State, rid)}
		})

	case engine.NotifySetReveal:
		h.ack.Reset(roomCode)
		h.broadcastPerRecipient(roomCode, "set:reveal", func(rid string) interface{} {
			return map[string]interface{}{"results": n.SetResults, "gameState": sanitizeStateFor(n.State, rid)}
		})

	case engine.NotifyRoundComplete:
		h.ack.Reset(roomCode)
		h.broadcastPerRecipient(roomCode, "round:complete", func(rid string) interface{} {
			return map[string]interface{}{"result": n.RoundResult, "gameState": sanitizeStateFor(n.State, rid)}
		})

	case engine.NotifyGameOver:
		h.broadcastAll(roomCode, "game:over", map[string]interface{}{"finalStandings": n.FinalStandings})
	}
}

// diceSelectedPayload builds the dice:selected payload for one recipient:
// the acting player always sees their own full selection, while every
// other player sees only the revealed dice among it plus a hidden count,
// per spec.md §4.6's visibility policy and the literal scenario in
// spec.md §8 #5.
func diceSelectedPayload(state *game.GameState, actingPlayerID, recipientID string) map[string]interface{} {
	sel := state.PendingSelections[actingPlayerID]
	if sel == nil {
		return map[string]interface{}{"playerId": actingPlayerID, "visibleDice": []interface{}{}, "hiddenCount": 0}
	}
	player := state.PlayerByID(actingPlayerID)
	byID := make(map[string]int, len(player.Dice))
	for i, d := range player.Dice {
		byID[d.ID] = i
	}

	type dieView struct {
		ID    string `json:"id"`
		Color string `json:"color"`
		Value int    `json:"value"`
	}
	visible := make([]dieView, 0, len(sel.DieIDs))
	hidden := 0
	ownView := actingPlayerID == recipientID
	for _, id := range sel.DieIDs {
		idx, ok := byID[id]
		if !ok {
			continue
		}
		d := player.Dice[idx]
		if ownView || d.Revealed {
			visible = append(visible, dieView{ID: d.ID, Color: string(d.Color), Value: d.Value})
		} else {
			hidden++
		}
	}
	return map[string]interface{}{"playerId": actingPlayerID, "visibleDice": visible, "hiddenCount": hidden}
}

// --- timer.Scheduler callbacks ---

func (h *Hub) onTimerTick(roomCode string, t timer.Tick) {
	h.broadcastAll(roomCode, "game:timerTick", map[string]interface{}{"timeRemaining": t.SecondsRemaining, "kind": t.Kind})
}

func (h *Hub) onPredictionImminent(roomCode string) {
	h.broadcastAll(roomCode, "prediction:autoSubmitting", map[string]interface{}{"countdown": int(timer.PredictionGrace.Seconds())})
}

func (h *Hub) onTimerFire(roomCode string, f timer.Fire) {
	ctx := context.Background()
	switch f.Kind {
	case timer.KindTurn:
		if h.metrics != nil {
			h.metrics.TurnTimeoutAutoActions.Inc()
		}
		h.applyAndDispatch(ctx, roomCode, engine.Event{Type: engine.EventTurnTimeout})

	case timer.KindPrediction:
		if h.metrics != nil {
			h.metrics.PredictionTimeoutAutoActions.Inc()
		}
		h.applyAndDispatch(ctx, roomCode, engine.Event{Type: engine.EventPredictionTimeout})

	case timer.KindResultsAck:
		if h.metrics != nil {
			h.metrics.AckTimeoutForcedAdvance.Inc()
		}
		h.forceAdvance(ctx, roomCode)
	}
}

func (h *Hub) applyAndDispatch(ctx context.Context, roomCode string, ev engine.Event) {
	result, err := h.registry.ApplyEvent(ctx, roomCode, ev)
	if err != nil {
		h.log.Warnf("gateway: timer-synthesized event %s on room %s rejected: %v", ev.Type, roomCode, err)
		return
	}
	h.dispatchApplyResult(roomCode, result)
}

// forceAdvance drives the engine to the next phase once the results-ack
// timeout fires regardless of outstanding acknowledgements, per spec.md
// §4.7 step 5.
func (h *Hub) forceAdvance(ctx context.Context, roomCode string) {
	eng, err := h.registry.Engine(roomCode)
	if err != nil {
		return
	}
	next := nextAdvanceEvent(eng.Phase())
	if next == "" {
		return
	}
	h.ack.Clear(roomCode)
	h.applyAndDispatch(ctx, roomCode, engine.Event{Type: next})
}

func nextAdvanceEvent(phase game.Phase) engine.EventType {
	switch phase {
	case game.PhaseSetReveal:
		return engine.EventNextSet
	case game.PhaseRoundSummary:
		return engine.EventNextRound
	default:
		return ""
	}
}

// reconcileAckAfterDisconnect re-checks a room's ack bookkeeping against
// its (now smaller) connected roster after a disconnect; if that alone
// completes the ack set, it advances the room exactly as if the missing
// player's absence had always excluded them, per spec.md §4.7's "totalCount
// is computed over currently connected players".
func (h *Hub) reconcileAckAfterDisconnect(roomCode string) {
	eng, err := h.registry.Engine(roomCode)
	if err != nil {
		return
	}
	snap := eng.Snapshot()
	if snap.Phase != game.PhaseSetReveal && snap.Phase != game.PhaseRoundSummary {
		return
	}
	connected := snap.ConnectedPlayerIDs()
	res := h.ack.Outstanding(roomCode, connected)
	h.broadcastAll(roomCode, "results:waitingFor", map[string]interface{}{"waitingForPlayerIds": res.Outstanding})
	if res.AllAcked {
		rs := h.getOrCreateRoom(roomCode)
		rs.scheduler.Cancel(timer.KindResultsAck)
		h.ack.Clear(roomCode)
		h.applyAndDispatch(context.Background(), roomCode, engine.Event{Type: nextAdvanceEvent(snap.Phase)})
	}
}
