// Package ack implements the results-acknowledgement coordinator described
// in spec.md §4.7: during SET_REVEAL and ROUND_SUMMARY each connected player
// may acknowledge the results once, and once every connected player has
// acknowledged (or the results-ack timeout fires first) the room advances.
// It mirrors the teacher's broadcast-then-count bookkeeping in
// pkg/server/collectors.go / notifications.go (counting users at a table and
// fanning a notification out to each of them), but keyed on an explicit ack
// set per room instead of a derived boolean.
package ack

import "sync"

// Result is what the caller (the gateway) needs to react to one
// Acknowledge call: whether to start the results-ack timeout, the counts and
// outstanding ids to broadcast, and whether the room should now advance.
type Result struct {
	// First is true when this call produced a room's very first ack since
	// the last Reset; the caller starts the 30s results-ack timeout only
	// then, per spec.md §4.7 step 1.
	First bool
	// Duplicate is true when playerID had already acknowledged; the call
	// was a no-op.
	Duplicate bool
	AcknowledgedCount int
	TotalCount        int
	// Outstanding lists connected player ids that have not yet acknowledged.
	Outstanding []string
	// AllAcked is true once every connected player has acknowledged; the
	// caller cancels the timeout and drives the engine to the next phase.
	AllAcked bool
}

// Coordinator tracks, per room, which connected players have acknowledged
// the current SET_REVEAL or ROUND_SUMMARY results.
type Coordinator struct {
	mu    sync.Mutex
	acked map[string]map[string]struct{}
}

// New builds an empty Coordinator.
func New() *Coordinator {
	return &Coordinator{acked: make(map[string]map[string]struct{})}
}

// Reset clears roomCode's ack set, called whenever the room enters a fresh
// SET_REVEAL or ROUND_SUMMARY phase.
func (c *Coordinator) Reset(roomCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.acked, roomCode)
}

// Clear drops all bookkeeping for roomCode, called when the room is torn
// down.
func (c *Coordinator) Clear(roomCode string) { c.Reset(roomCode) }

// Acknowledge records playerID's acknowledgement for roomCode against the
// room's currently connected player ids, and reports what the caller should
// do next. A repeat acknowledgement from a player who already acked is a
// no-op (Duplicate=true), per spec.md §4.7 ("each player may send at most
// once").
func (c *Coordinator) Acknowledge(roomCode, playerID string, connectedIDs []string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	set, ok := c.acked[roomCode]
	first := false
	if !ok {
		set = make(map[string]struct{})
		c.acked[roomCode] = set
		first = true
	}

	if _, already := set[playerID]; already {
		return c.snapshotLocked(roomCode, connectedIDs, false, true)
	}
	set[playerID] = struct{}{}

	return c.snapshotLocked(roomCode, connectedIDs, first, false)
}

// Outstanding reports the current ack counts for roomCode without recording
// a new acknowledgement, used to build the waiting-for payload after a
// connected player disconnects mid-reveal.
func (c *Coordinator) Outstanding(roomCode string, connectedIDs []string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(roomCode, connectedIDs, false, false)
}

func (c *Coordinator) snapshotLocked(roomCode string, connectedIDs []string, first, duplicate bool) Result {
	set := c.acked[roomCode]
	outstanding := make([]string, 0, len(connectedIDs))
	ackedCount := 0
	for _, id := range connectedIDs {
		if _, done := set[id]; done {
			ackedCount++
		} else {
			outstanding = append(outstanding, id)
		}
	}
	return Result{
		First:             first,
		Duplicate:         duplicate,
		AcknowledgedCount: ackedCount,
		TotalCount:        len(connectedIDs),
		Outstanding:       outstanding,
		AllAcked:          len(outstanding) == 0 && len(connectedIDs) > 0,
	}
}
