// Package registry implements the room registry of spec.md §4.3: room
// lifecycle (create/join/leave), readiness and config changes, and the
// disconnect/reconnect bookkeeping that backs reconnect tokens. It wraps
// one pkg/engine.Engine per live room behind an in-memory index, mirroring
// the teacher's Server.tables map[string]*poker.Table pattern
// (pkg/server/server.go) generalized to dice-arena rooms, and persists
// every mutation to internal/store. The persisted game state is written
// only; rooms are not reloaded from the store after a restart.
package registry

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"github.com/dicearena/server/internal/store"
	"github.com/dicearena/server/pkg/engine"
	"github.com/dicearena/server/pkg/game"
)

// room holds one live room's engine. The room's timer scheduler is not
// kept here: the gateway creates and owns it along with its callbacks.
type room struct {
	engine *engine.Engine
}

// Registry owns every live room in the process.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room

	store store.Store
	log   slog.Logger
	rng   *rand.Rand
}

// New builds a Registry backed by st for persistence.
func New(st store.Store, log slog.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]*room),
		store: st,
		log:   log,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func mergeConfig(overrides *game.GameConfig) game.GameConfig {
	cfg := game.DefaultGameConfig()
	if overrides != nil {
		if overrides.MaxPlayers != 0 {
			cfg.MaxPlayers = overrides.MaxPlayers
		}
		if overrides.TotalRounds != 0 {
			cfg.TotalRounds = overrides.TotalRounds
		}
		if overrides.TurnTimerSeconds != 0 {
			cfg.TurnTimerSeconds = overrides.TurnTimerSeconds
		}
	}
	return cfg.Clamp()
}

// CreateRoomResult is the outcome of CreateRoom.
type CreateRoomResult struct {
	RoomCode       string
	PlayerID       string
	ReconnectToken string
	State          *game.GameState
}

// CreateRoom creates a fresh room in LOBBY hosted by a new player seated
// under playerName, and returns a reconnect token for the host's session.
func (r *Registry) CreateRoom(ctx context.Context, hostSession, playerName string, overrides *game.GameConfig) (*CreateRoomResult, error) {
	r.mu.Lock()
	var code string
	for {
		code = game.GenerateRoomCode(r.rng)
		if _, exists := r.rooms[code]; !exists {
			break
		}
	}
	hostID := uuid.NewString()
	eng := engine.New(code, hostID, playerName, hostSession, mergeConfig(overrides), engine.Config{Log: r.log})
	r.rooms[code] = &room{engine: eng}
	r.mu.Unlock()

	if err := r.persist(ctx, code, eng); err != nil {
		return nil, err
	}
	token, err := r.issueReconnectToken(ctx, code, hostID)
	if err != nil {
		return nil, err
	}

	return &CreateRoomResult{RoomCode: code, PlayerID: hostID, ReconnectToken: token, State: eng.Snapshot()}, nil
}

// JoinRoomResult is the outcome of JoinRoom.
type JoinRoomResult struct {
	PlayerID       string
	ReconnectToken string
	State          *game.GameState
}

// JoinRoom seats a new player into an existing room, still in LOBBY.
func (r *Registry) JoinRoom(ctx context.Context, roomCode, session, playerName string) (*JoinRoomResult, error) {
	rm, err := r.lookup(roomCode)
	if err != nil {
		return nil, err
	}
	playerID := uuid.NewString()
	if err := rm.engine.AddPlayer(playerID, playerName, session); err != nil {
		return nil, err
	}
	if err := r.persist(ctx, roomCode, rm.engine); err != nil {
		return nil, err
	}
	token, err := r.issueReconnectToken(ctx, roomCode, playerID)
	if err != nil {
		return nil, err
	}
	return &JoinRoomResult{PlayerID: playerID, ReconnectToken: token, State: rm.engine.Snapshot()}, nil
}

// LeaveRoomResult is the outcome of LeaveRoom.
type LeaveRoomResult struct {
	NewHostID   string
	RoomDeleted bool
}

// LeaveRoom removes a player from a room's roster. If the room becomes
// empty it is deleted from both the live index and the state store.
func (r *Registry) LeaveRoom(ctx context.Context, roomCode, playerID string) (*LeaveRoomResult, error) {
	rm, err := r.lookup(roomCode)
	if err != nil {
		return nil, err
	}
	newHost, err := rm.engine.RemovePlayer(playerID)
	if err != nil {
		return nil, err
	}

	if len(rm.engine.Snapshot().Players) == 0 {
		r.mu.Lock()
		delete(r.rooms, roomCode)
		r.mu.Unlock()
		_ = r.store.Delete(ctx, store.GameStateKey(roomCode))
		return &LeaveRoomResult{RoomDeleted: true}, nil
	}

	if err := r.persist(ctx, roomCode, rm.engine); err != nil {
		return nil, err
	}
	return &LeaveRoomResult{NewHostID: newHost}, nil
}

// UpdateConfig applies host-only configuration overrides to a room still in
// LOBBY.
func (r *Registry) UpdateConfig(ctx context.Context, roomCode, playerID string, overrides game.GameConfig) (*game.GameState, error) {
	rm, err := r.lookup(roomCode)
	if err != nil {
		return nil, err
	}
	current := rm.engine.Snapshot().Config
	merged := mergeOnto(current, overrides)
	if err := rm.engine.UpdateConfig(playerID, merged); err != nil {
		return nil, err
	}
	if err := r.persist(ctx, roomCode, rm.engine); err != nil {
		return nil, err
	}
	return rm.engine.Snapshot(), nil
}

func mergeOnto(base, overrides game.GameConfig) game.GameConfig {
	if overrides.MaxPlayers != 0 {
		base.MaxPlayers = overrides.MaxPlayers
	}
	if overrides.TotalRounds != 0 {
		base.TotalRounds = overrides.TotalRounds
	}
	if overrides.TurnTimerSeconds != 0 {
		base.TurnTimerSeconds = overrides.TurnTimerSeconds
	}
	return base
}

// SetPlayerReady toggles a player's ready flag.
func (r *Registry) SetPlayerReady(ctx context.Context, roomCode, playerID string, ready bool) (*game.GameState, error) {
	rm, err := r.lookup(roomCode)
	if err != nil {
		return nil, err
	}
	if err := rm.engine.SetReady(playerID, ready); err != nil {
		return nil, err
	}
	if err := r.persist(ctx, roomCode, rm.engine); err != nil {
		return nil, err
	}
	return rm.engine.Snapshot(), nil
}

// CanStartGame reports whether the room may be started.
func (r *Registry) CanStartGame(roomCode string) (bool, error) {
	rm, err := r.lookup(roomCode)
	if err != nil {
		return false, err
	}
	return rm.engine.CanStart(), nil
}

// StartGame issues START_GAME to the room's engine.
func (r *Registry) StartGame(ctx context.Context, roomCode, playerID string) (*engine.ApplyResult, error) {
	return r.ApplyEvent(ctx, roomCode, engine.Event{Type: engine.EventStartGame, PlayerID: playerID})
}

// ApplyEvent looks up roomCode's live engine, applies ev, and persists the
// resulting state on success. It is the single path every gameplay event
// (prediction, dice selection/confirmation, timer-synthesized timeouts, and
// ack-driven NEXT_SET/NEXT_ROUND) goes through once a room has left LOBBY,
// so the gateway and the timer/ack subsystems never touch pkg/engine
// directly without also persisting per spec.md §4.2.
func (r *Registry) ApplyEvent(ctx context.Context, roomCode string, ev engine.Event) (*engine.ApplyResult, error) {
	rm, err := r.lookup(roomCode)
	if err != nil {
		return nil, err
	}
	result, err := rm.engine.Apply(ev)
	if err != nil {
		return nil, err
	}
	if err := r.persist(ctx, roomCode, rm.engine); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkPlayerDisconnected flags a player as disconnected without removing
// them from the roster.
func (r *Registry) MarkPlayerDisconnected(ctx context.Context, roomCode, playerID string) error {
	rm, err := r.lookup(roomCode)
	if err != nil {
		return err
	}
	if err := rm.engine.MarkConnection(playerID, false); err != nil {
		return err
	}
	return r.persist(ctx, roomCode, rm.engine)
}

// ReconnectResult is the outcome of Reconnect.
type ReconnectResult struct {
	RoomCode string
	PlayerID string
	State    *game.GameState
}

// Reconnect validates a reconnect token against the store and, if it
// refers to a still-live player, re-associates the player with
// newSessionHandle.
func (r *Registry) Reconnect(ctx context.Context, token, newSessionHandle string) (*ReconnectResult, error) {
	raw, ok, err := r.store.Get(ctx, store.ReconnectTokenKey(token))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, game.ErrPlayerNotFound
	}
	var rt game.ReconnectToken
	if err := json.Unmarshal(raw, &rt); err != nil {
		return nil, err
	}
	if time.Now().After(rt.ExpiresAt) {
		_ = r.store.Delete(ctx, store.ReconnectTokenKey(token))
		return nil, game.ErrPlayerNotFound
	}

	rm, err := r.lookup(rt.RoomCode)
	if err != nil {
		return nil, err
	}
	if err := rm.engine.Reconnect(rt.PlayerID, newSessionHandle); err != nil {
		return nil, err
	}
	if err := r.persist(ctx, rt.RoomCode, rm.engine); err != nil {
		return nil, err
	}
	return &ReconnectResult{RoomCode: rt.RoomCode, PlayerID: rt.PlayerID, State: rm.engine.Snapshot()}, nil
}

// Engine returns the live engine for roomCode, for gateway code that reads
// the room's live phase or snapshot (results acknowledgement, the forced
// advance, the all-disconnected sweep). Events still go through ApplyEvent.
func (r *Registry) Engine(roomCode string) (*engine.Engine, error) {
	rm, err := r.lookup(roomCode)
	if err != nil {
		return nil, err
	}
	return rm.engine, nil
}

// RoomSummary is the read-only, lobby-browser view of a live room
// (SPEC_FULL.md §5/§6.8's supplemented lobby listing).
type RoomSummary struct {
	RoomCode    string
	PlayerCount int
	MaxPlayers  int
	Phase       game.Phase
	HostName    string
}

// ListSummaries returns a RoomSummary for every room still in LOBBY, the
// set a client's lobby browser may join.
func (r *Registry) ListSummaries() []RoomSummary {
	r.mu.RLock()
	codes := make([]string, 0, len(r.rooms))
	for code := range r.rooms {
		codes = append(codes, code)
	}
	r.mu.RUnlock()

	out := make([]RoomSummary, 0, len(codes))
	for _, code := range codes {
		rm, err := r.lookup(code)
		if err != nil {
			continue
		}
		snap := rm.engine.Snapshot()
		if snap.Phase != game.PhaseLobby {
			continue
		}
		host := snap.PlayerByID(snap.HostID)
		hostName := ""
		if host != nil {
			hostName = host.Name
		}
		out = append(out, RoomSummary{
			RoomCode:    snap.RoomCode,
			PlayerCount: len(snap.Players),
			MaxPlayers:  snap.Config.MaxPlayers,
			Phase:       snap.Phase,
			HostName:    hostName,
		})
	}
	return out
}

// RoomCodes lists every room code currently live in the process, used by
// the all-disconnected sweep (spec.md §9 Open Question (d)).
func (r *Registry) RoomCodes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.rooms))
	for code := range r.rooms {
		codes = append(codes, code)
	}
	return codes
}

// DeleteRoom drops roomCode from the live index and the state store,
// without requiring a player to trigger LeaveRoom. Used by the
// all-disconnected sweep to tear down rooms nobody can ever reconnect to.
func (r *Registry) DeleteRoom(ctx context.Context, roomCode string) {
	r.mu.Lock()
	delete(r.rooms, roomCode)
	r.mu.Unlock()
	_ = r.store.Delete(ctx, store.GameStateKey(roomCode))
}

func (r *Registry) lookup(roomCode string) (*room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[strings.ToUpper(roomCode)]
	if !ok {
		return nil, game.ErrRoomNotFound
	}
	return rm, nil
}

func (r *Registry) persist(ctx context.Context, roomCode string, eng *engine.Engine) error {
	blob, err := json.Marshal(eng.Snapshot())
	if err != nil {
		return err
	}
	return r.store.Set(ctx, store.GameStateKey(roomCode), blob, store.GameStateTTL)
}

func (r *Registry) issueReconnectToken(ctx context.Context, roomCode, playerID string) (string, error) {
	token := uuid.NewString()
	rt := game.ReconnectToken{
		Token:     token,
		PlayerID:  playerID,
		RoomCode:  roomCode,
		ExpiresAt: time.Now().Add(store.ReconnectTokenTTL),
	}
	blob, err := json.Marshal(rt)
	if err != nil {
		return "", err
	}
	if err := r.store.Set(ctx, store.ReconnectTokenKey(token), blob, store.ReconnectTokenTTL); err != nil {
		return "", err
	}
	return token, nil
}
