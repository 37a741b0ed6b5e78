package gateway

import (
	"errors"

	"github.com/dicearena/server/pkg/game"
	"github.com/dicearena/server/pkg/scoring"
	"github.com/dicearena/server/pkg/timer"
)

// getOrCreateRoom returns roomCode's broadcast group and scheduler,
// creating both (and wiring the scheduler's callbacks back into this Hub)
// the first time the room is touched by the gateway.
func (h *Hub) getOrCreateRoom(roomCode string) *roomState {
	h.mu.Lock()
	defer h.mu.Unlock()
	rs, ok := h.rooms[roomCode]
	if ok {
		return rs
	}
	rs = &roomState{conns: make(map[string]*session)}
	rs.scheduler = timer.NewScheduler(roomCode, h.onTimerTick, h.onTimerFire, h.onPredictionImminent)
	h.rooms[roomCode] = rs
	if h.metrics != nil {
		h.metrics.ActiveRooms.Inc()
	}
	return rs
}

func (h *Hub) joinBroadcastGroup(roomCode string, sess *session) {
	rs := h.getOrCreateRoom(roomCode)
	h.mu.Lock()
	rs.conns[sess.handle] = sess
	h.mu.Unlock()
	sess.roomCode = roomCode
}

func (h *Hub) leaveBroadcastGroup(roomCode string, sess *session) {
	h.mu.Lock()
	rs, ok := h.rooms[roomCode]
	if ok {
		delete(rs.conns, sess.handle)
	}
	h.mu.Unlock()
}

// teardownRoom cancels a room's timers and drops every piece of gateway
// bookkeeping for it, called once the registry reports the room deleted.
func (h *Hub) teardownRoom(roomCode string) {
	h.mu.Lock()
	rs, ok := h.rooms[roomCode]
	if ok {
		delete(h.rooms, roomCode)
	}
	h.mu.Unlock()
	if ok {
		rs.scheduler.CancelAll()
		if h.metrics != nil {
			h.metrics.ActiveRooms.Dec()
		}
	}
	h.ack.Clear(roomCode)
}

func (h *Hub) roomSessions(roomCode string) []*session {
	h.mu.Lock()
	defer h.mu.Unlock()
	rs, ok := h.rooms[roomCode]
	if !ok {
		return nil
	}
	out := make([]*session, 0, len(rs.conns))
	for _, s := range rs.conns {
		out = append(out, s)
	}
	return out
}

// broadcastAll sends the same payload to every connection in roomCode.
func (h *Hub) broadcastAll(roomCode, event string, data interface{}) {
	for _, s := range h.roomSessions(roomCode) {
		h.send(s, event, data)
	}
}

// broadcastExcept sends the same payload to every connection in roomCode
// other than exceptHandle.
func (h *Hub) broadcastExcept(roomCode, exceptHandle, event string, data interface{}) {
	for _, s := range h.roomSessions(roomCode) {
		if s.handle == exceptHandle {
			continue
		}
		h.send(s, event, data)
	}
}

// broadcastPerRecipient calls build once per connected session and sends
// each session its own payload, used wherever a broadcast's content
// depends on the viewer (the hidden-dice visibility policy of spec.md
// §4.6).
func (h *Hub) broadcastPerRecipient(roomCode, event string, build func(recipientID string) interface{}) {
	for _, s := range h.roomSessions(roomCode) {
		h.send(s, event, build(s.playerID))
	}
}

func (h *Hub) send(s *session, event string, data interface{}) {
	if err := s.writeJSON(outboundFrame{Event: event, Data: data}); err != nil {
		h.log.Debugf("gateway: send %s to %s failed: %v", event, s.handle, err)
	}
}

func (h *Hub) sendTo(s *session, event string, data interface{}) { h.send(s, event, data) }

// sendError sends a room:error frame to the initiating session only, per
// spec.md §7's propagation policy: rule errors never mutate state and
// never broadcast.
func (h *Hub) sendError(s *session, err error) {
	var re *game.RuleError
	if errors.As(err, &re) {
		h.send(s, "room:error", map[string]string{"code": re.Code, "message": re.Message})
		return
	}
	h.send(s, "room:error", map[string]string{"code": "ERROR", "message": err.Error()})
}

// sanitizeStateFor clones state with every other player's unrevealed dice
// values zeroed out, so a broadcast game state never leaks a hidden red/
// blue die's face to anyone but its owner before it is selected into a
// revealed hand, generalizing spec.md §4.6's visibility policy (stated
// there only for the dice:selected payload) to every state snapshot the
// gateway hands out.
func sanitizeStateFor(state *game.GameState, recipientID string) *game.GameState {
	if state == nil {
		return nil
	}
	out := *state
	out.Players = make([]*game.Player, len(state.Players))
	for i, p := range state.Players {
		cp := *p
		if p.ID != recipientID {
			cp.Dice = make([]scoring.Die, 0, len(p.Dice))
			for _, d := range p.Dice {
				if !d.Revealed {
					d.Value = 0
				}
				cp.Dice = append(cp.Dice, d)
			}
		}
		out.Players[i] = &cp
	}
	return &out
}
