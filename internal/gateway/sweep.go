package gateway

import (
	"context"
	"time"
)

// SweepInterval is how often the all-disconnected sweep runs, per spec.md
// §9 Open Question (d): the source has no cleanup path for a room where
// every player has disconnected, so this redesign adds a periodic sweep
// rather than leaving such rooms live forever.
const SweepInterval = 60 * time.Second

// RunSweep blocks, tearing down any room with zero connected players once
// per SweepInterval, until ctx is cancelled. A room stays eligible for
// teardown even mid-game: any remaining player's reconnect token still
// works up to its own TTL, but nobody can be reconnected into a room the
// sweep has already deleted, matching the Open Question's "implementers
// may add a TTL-driven sweep" guidance rather than tracking each token's
// individual expiry here.
func (h *Hub) RunSweep(ctx context.Context) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweepOnce(ctx)
		}
	}
}

func (h *Hub) sweepOnce(ctx context.Context) {
	for _, code := range h.registry.RoomCodes() {
		eng, err := h.registry.Engine(code)
		if err != nil {
			continue
		}
		snap := eng.Snapshot()
		if len(snap.ConnectedPlayerIDs()) > 0 {
			continue
		}
		h.teardownRoom(code)
		h.registry.DeleteRoom(ctx, code)
		h.log.Infof("gateway: swept all-disconnected room %s", code)
	}
}
