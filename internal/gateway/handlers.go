package gateway

import (
	"context"

	"github.com/dicearena/server/pkg/engine"
	"github.com/dicearena/server/pkg/game"
	"github.com/dicearena/server/pkg/scoring"
)

// dispatch routes one decoded inbound frame to its handler, per spec.md
// §6's client->server event table. An unrecognized type or a payload that
// fails declarative validation is dropped silently, per spec.md §7's
// taxonomy for malformed payloads ("sink silently or reject with a generic
// room:error"); this gateway sinks silently to avoid leaking wire-format
// details to a misbehaving client.
func (h *Hub) dispatch(sess *session, frame inboundFrame) {
	ctx := context.Background()
	switch frame.Type {
	case "room:create":
		var p roomCreatePayload
		if h.decodeAndValidate(frame.Payload, &p) != nil {
			return
		}
		h.handleRoomCreate(ctx, sess, p)

	case "room:join":
		var p roomJoinPayload
		if h.decodeAndValidate(frame.Payload, &p) != nil {
			return
		}
		h.handleRoomJoin(ctx, sess, p)

	case "room:leave":
		h.handleRoomLeave(ctx, sess)

	case "room:reconnect":
		var p roomReconnectPayload
		if h.decodeAndValidate(frame.Payload, &p) != nil {
			return
		}
		h.handleRoomReconnect(ctx, sess, p)

	case "game:ready":
		h.handleReady(ctx, sess, true)

	case "game:unready":
		h.handleReady(ctx, sess, false)

	case "game:updateConfig":
		var p updateConfigPayload
		if h.decodeAndValidate(frame.Payload, &p) != nil {
			return
		}
		h.handleUpdateConfig(ctx, sess, p)

	case "game:start":
		h.handleStartGame(ctx, sess)

	case "prediction:submit":
		var p predictionSubmitPayload
		if h.decodeAndValidate(frame.Payload, &p) != nil {
			return
		}
		h.handlePredictionSubmit(ctx, sess, p)

	case "dice:select":
		var p diceSelectPayload
		if h.decodeAndValidate(frame.Payload, &p) != nil {
			return
		}
		h.handleDiceSelect(ctx, sess, p)

	case "dice:confirm":
		h.handleDiceConfirm(ctx, sess)

	case "game:acknowledgeResults":
		h.handleAcknowledgeResults(ctx, sess)
	}
}

func (h *Hub) handleRoomCreate(ctx context.Context, sess *session, p roomCreatePayload) {
	if h.draining.Load() {
		h.sendError(sess, &game.RuleError{Code: "SERVER_SHUTTING_DOWN", Message: "server is shutting down"})
		return
	}
	result, err := h.registry.CreateRoom(ctx, sess.handle, p.PlayerName, p.Config.toGameConfig())
	if err != nil {
		h.sendError(sess, err)
		return
	}
	sess.playerID = result.PlayerID
	sess.reconnectToken = result.ReconnectToken
	h.joinBroadcastGroup(result.RoomCode, sess)
	h.sendTo(sess, "room:created", map[string]interface{}{
		"roomCode":       result.RoomCode,
		"playerId":       result.PlayerID,
		"reconnectToken": result.ReconnectToken,
		"gameState":      sanitizeStateFor(result.State, result.PlayerID),
	})
}

func (h *Hub) handleRoomJoin(ctx context.Context, sess *session, p roomJoinPayload) {
	result, err := h.registry.JoinRoom(ctx, p.RoomCode, sess.handle, p.PlayerName)
	if err != nil {
		h.sendError(sess, err)
		return
	}
	sess.playerID = result.PlayerID
	sess.reconnectToken = result.ReconnectToken
	h.joinBroadcastGroup(p.RoomCode, sess)
	h.sendTo(sess, "room:joined", map[string]interface{}{
		"playerId":       result.PlayerID,
		"reconnectToken": result.ReconnectToken,
		"gameState":      sanitizeStateFor(result.State, result.PlayerID),
	})
	h.broadcastPerRecipient(p.RoomCode, "room:playerJoined", func(rid string) interface{} {
		return map[string]interface{}{"playerId": result.PlayerID, "playerName": p.PlayerName, "gameState": sanitizeStateFor(result.State, rid)}
	})
}

func (h *Hub) handleRoomLeave(ctx context.Context, sess *session) {
	if sess.roomCode == "" || sess.playerID == "" {
		return
	}
	roomCode, playerID := sess.roomCode, sess.playerID
	result, err := h.registry.LeaveRoom(ctx, roomCode, playerID)
	h.leaveBroadcastGroup(roomCode, sess)
	sess.roomCode = ""
	sess.playerID = ""
	if err != nil {
		h.sendError(sess, err)
		return
	}
	if result.RoomDeleted {
		h.teardownRoom(roomCode)
		return
	}
	if result.NewHostID != "" {
		h.broadcastAll(roomCode, "room:hostChanged", map[string]interface{}{"newHostId": result.NewHostID})
	}
	h.broadcastAll(roomCode, "room:playerLeft", map[string]interface{}{"playerId": playerID})
}

func (h *Hub) handleRoomReconnect(ctx context.Context, sess *session, p roomReconnectPayload) {
	result, err := h.registry.Reconnect(ctx, p.Token, sess.handle)
	if err != nil {
		h.send(sess, "reconnect:failed", map[string]string{"message": "reconnect token invalid or expired"})
		return
	}
	sess.playerID = result.PlayerID
	sess.reconnectToken = p.Token
	h.joinBroadcastGroup(result.RoomCode, sess)
	h.sendTo(sess, "reconnect:success", map[string]interface{}{
		"gameState": sanitizeStateFor(result.State, result.PlayerID),
		"playerId":  result.PlayerID,
	})
	h.broadcastExcept(result.RoomCode, sess.handle, "player:reconnected", map[string]interface{}{"playerId": result.PlayerID})
}

func (h *Hub) handleReady(ctx context.Context, sess *session, ready bool) {
	if sess.roomCode == "" {
		return
	}
	state, err := h.registry.SetPlayerReady(ctx, sess.roomCode, sess.playerID, ready)
	if err != nil {
		h.sendError(sess, err)
		return
	}
	h.broadcastPerRecipient(sess.roomCode, "game:stateUpdate", func(rid string) interface{} {
		return map[string]interface{}{"gameState": sanitizeStateFor(state, rid)}
	})
}

func (h *Hub) handleUpdateConfig(ctx context.Context, sess *session, p updateConfigPayload) {
	if sess.roomCode == "" {
		return
	}
	state, err := h.registry.UpdateConfig(ctx, sess.roomCode, sess.playerID, *p.toGameConfig())
	if err != nil {
		h.sendError(sess, err)
		return
	}
	h.broadcastAll(sess.roomCode, "room:configUpdated", map[string]interface{}{"config": state.Config})
}

func (h *Hub) handleStartGame(ctx context.Context, sess *session) {
	if sess.roomCode == "" {
		return
	}
	result, err := h.registry.StartGame(ctx, sess.roomCode, sess.playerID)
	if err != nil {
		h.sendError(sess, err)
		return
	}
	h.dispatchApplyResult(sess.roomCode, result)
}

func (h *Hub) handlePredictionSubmit(ctx context.Context, sess *session, p predictionSubmitPayload) {
	if sess.roomCode == "" {
		return
	}
	result, err := h.registry.ApplyEvent(ctx, sess.roomCode, engine.Event{
		Type:       engine.EventSubmitPrediction,
		PlayerID:   sess.playerID,
		Prediction: scoring.Prediction(p.Type),
	})
	if err != nil {
		h.sendError(sess, err)
		return
	}
	h.dispatchApplyResult(sess.roomCode, result)
}

func (h *Hub) handleDiceSelect(ctx context.Context, sess *session, p diceSelectPayload) {
	if sess.roomCode == "" {
		return
	}
	result, err := h.registry.ApplyEvent(ctx, sess.roomCode, engine.Event{
		Type:     engine.EventSelectDice,
		PlayerID: sess.playerID,
		DieIDs:   p.DieIDs,
	})
	if err != nil {
		h.sendError(sess, err)
		return
	}
	h.dispatchApplyResult(sess.roomCode, result)
}

func (h *Hub) handleDiceConfirm(ctx context.Context, sess *session) {
	if sess.roomCode == "" {
		return
	}
	result, err := h.registry.ApplyEvent(ctx, sess.roomCode, engine.Event{
		Type:     engine.EventConfirmSelection,
		PlayerID: sess.playerID,
	})
	if err != nil {
		h.sendError(sess, err)
		return
	}
	h.dispatchApplyResult(sess.roomCode, result)
}

func (h *Hub) handleAcknowledgeResults(ctx context.Context, sess *session) {
	if sess.roomCode == "" {
		return
	}
	eng, err := h.registry.Engine(sess.roomCode)
	if err != nil {
		h.sendError(sess, err)
		return
	}
	snap := eng.Snapshot()
	if snap.Phase != game.PhaseSetReveal && snap.Phase != game.PhaseRoundSummary {
		h.sendError(sess, game.ErrInvalidPhase)
		return
	}

	connected := snap.ConnectedPlayerIDs()
	res := h.ack.Acknowledge(sess.roomCode, sess.playerID, connected)
	if res.Duplicate {
		return
	}
	if res.First {
		rs := h.getOrCreateRoom(sess.roomCode)
		rs.scheduler.Start(resultsAckKind, resultsAckTimeout, "")
	}

	h.broadcastAll(sess.roomCode, "results:acknowledged", map[string]interface{}{
		"playerId":          sess.playerID,
		"acknowledgedCount": res.AcknowledgedCount,
		"totalCount":        res.TotalCount,
	})
	h.broadcastAll(sess.roomCode, "results:waitingFor", map[string]interface{}{"waitingForPlayerIds": res.Outstanding})

	if res.AllAcked {
		rs := h.getOrCreateRoom(sess.roomCode)
		rs.scheduler.Cancel(resultsAckKind)
		h.ack.Clear(sess.roomCode)
		next := nextAdvanceEvent(snap.Phase)
		h.applyAndDispatch(ctx, sess.roomCode, engine.Event{Type: next})
	}
}
