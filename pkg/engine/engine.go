// Package engine implements the per-room game state machine described in
// spec.md §4.4: guarded phase transitions, entry actions, and the
// determinism/idempotence rules governing each inbound event. It
// generalizes the teacher's pkg/poker/game.go + pkg/statemachine single-
// writer state machine from a poker hand to the two-set dice round.
package engine

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"github.com/dicearena/server/pkg/game"
	"github.com/dicearena/server/pkg/scoring"
)

// Clock lets tests inject a deterministic notion of "now", mirroring the
// teacher's createdAt/lastAction timestamps in pkg/poker/table.go, which a
// fake clock replaces in integration tests per spec.md §9 design notes.
type Clock func() time.Time

// Config configures one Engine instance.
type Config struct {
	Log   slog.Logger
	Clock Clock
	// Rand backs every die roll and random prediction auto-assignment,
	// per spec.md §9 Open Question (c): deterministic replay requires an
	// injected RNG. Defaults to a time-seeded source.
	Rand *rand.Rand
}

// Engine owns one room's GameState and is the sole writer of it. Per
// spec.md §5, every mutation is serialized: only one event applies at a
// time, realized here with a mutex held for the duration of apply-and-
// fixed-point, the alternative the spec explicitly allows alongside a
// dedicated per-room goroutine mailbox.
type Engine struct {
	mu    sync.Mutex
	state *game.GameState
	log   slog.Logger
	clock Clock
	rng   *rand.Rand
}

// New creates an engine for a freshly created room in LOBBY, owned by
// hostID.
func New(roomCode, hostID, hostName, hostSession string, cfg game.GameConfig, opts Config) *Engine {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := opts.Clock()
	state := &game.GameState{
		RoomCode:          roomCode,
		Phase:             game.PhaseLobby,
		Config:            cfg.Clamp(),
		CurrentRound:      0,
		CurrentSet:        1,
		PendingSelections: map[string]*game.PendingSelection{},
		HostID:            hostID,
		CreatedAt:         now,
		Players: []*game.Player{{
			ID:            hostID,
			Name:          hostName,
			SessionHandle: hostSession,
			Connected:     true,
			Host:          true,
			JoinedAt:      now,
		}},
	}
	return &Engine{state: state, log: opts.Log, clock: opts.Clock, rng: opts.Rand}
}

func (e *Engine) dieID() string { return uuid.NewString() }

func (e *Engine) rollDie() int { return e.rng.Intn(6) + 1 }

// Snapshot returns a deep copy of the room's current state, safe for the
// caller to serialize or hand to other goroutines.
func (e *Engine) Snapshot() *game.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneState(e.state)
}

// Restore replaces the engine's state wholesale with a copy of state.
// Nothing in this module calls it; rooms are not reloaded from the state
// store.
func (e *Engine) Restore(state *game.GameState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = cloneState(state)
}

// Phase returns the room's current phase.
func (e *Engine) Phase() game.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Phase
}

// AddPlayer seats a new player in the room while it is still in LOBBY. It
// is where the capacity and case-insensitive name-uniqueness checks of
// spec.md §4.3 happen (the registry does not check either itself), under
// the engine's lock so concurrent joins cannot both pass.
func (e *Engine) AddPlayer(id, name, session string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != game.PhaseLobby {
		return game.ErrGameInProgress
	}
	if len(e.state.Players) >= e.state.Config.MaxPlayers {
		return game.ErrRoomFull
	}
	for _, p := range e.state.Players {
		if strings.EqualFold(p.Name, name) {
			return game.ErrNameTaken
		}
	}
	e.state.Players = append(e.state.Players, &game.Player{
		ID:            id,
		Name:          name,
		SessionHandle: session,
		Connected:     true,
		JoinedAt:      e.clock(),
	})
	return nil
}

// RemovePlayer drops a player from the room's roster (LOBBY only) and
// returns the id of the newly reassigned host, or "" if hostship didn't
// change. On host leave with other players remaining, the first player in
// the remaining list becomes host, per spec.md §4.3.
func (e *Engine) RemovePlayer(id string) (newHostID string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != game.PhaseLobby {
		return "", game.ErrGameInProgress
	}
	idx := -1
	for i, p := range e.state.Players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return "", game.ErrPlayerNotFound
	}
	wasHost := e.state.Players[idx].Host
	e.state.Players = append(e.state.Players[:idx], e.state.Players[idx+1:]...)
	if wasHost && len(e.state.Players) > 0 {
		next := e.state.Players[0]
		next.Host = true
		e.state.HostID = next.ID
		return next.ID, nil
	}
	return "", nil
}

// SetReady toggles one player's ready flag.
func (e *Engine) SetReady(id string, ready bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != game.PhaseLobby {
		return game.ErrGameInProgress
	}
	p := e.state.PlayerByID(id)
	if p == nil {
		return game.ErrPlayerNotFound
	}
	p.Ready = ready
	return nil
}

// MarkConnection updates a player's connected flag, used on socket
// attach/detach and reconnect.
func (e *Engine) MarkConnection(id string, connected bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.state.PlayerByID(id)
	if p == nil {
		return game.ErrPlayerNotFound
	}
	p.Connected = connected
	return nil
}

// UpdateConfig lets the host change the room's configuration while still in
// LOBBY. Values are clamped to the ranges fixed by spec.md §3.
func (e *Engine) UpdateConfig(playerID string, cfg game.GameConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != game.PhaseLobby {
		return game.ErrGameInProgress
	}
	if playerID != e.state.HostID {
		return game.ErrNotHost
	}
	e.state.Config = cfg.Clamp()
	return nil
}

// Reconnect re-associates a disconnected player with a fresh session
// handle, marking them connected again.
func (e *Engine) Reconnect(playerID, newSession string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.state.PlayerByID(playerID)
	if p == nil {
		return game.ErrPlayerNotFound
	}
	p.SessionHandle = newSession
	p.Connected = true
	return nil
}

// CanStart reports whether the host may issue START_GAME: at least two
// seated players and every player marked ready.
func (e *Engine) CanStart() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canStartLocked()
}

func (e *Engine) canStartLocked() bool {
	if e.state.Phase != game.PhaseLobby || len(e.state.Players) < 2 {
		return false
	}
	for _, p := range e.state.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// Apply applies a single event to the room, running any guarded "always"
// transitions to a fixed point before returning. On a rule violation the
// state is left untouched and the error is returned with no notifications,
// per spec.md §4.4's failure semantics.
func (e *Engine) Apply(ev Event) (*ApplyResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := &ApplyResult{}

	switch e.state.Phase {
	case game.PhaseLobby:
		if err := e.applyLobby(ev, result); err != nil {
			return nil, err
		}
	case game.PhaseInitialRoll:
		return nil, game.ErrInvalidPhase
	case game.PhasePrediction:
		if err := e.applyPrediction(ev, result); err != nil {
			return nil, err
		}
	case game.PhaseSetSelection:
		if err := e.applySetSelection(ev, result); err != nil {
			return nil, err
		}
	case game.PhaseSetReveal:
		if err := e.applySetReveal(ev, result); err != nil {
			return nil, err
		}
	case game.PhaseRoundSummary:
		if err := e.applyRoundSummary(ev, result); err != nil {
			return nil, err
		}
	case game.PhaseGameOver:
		return nil, game.ErrInvalidPhase
	}

	return result, nil
}
