// Package game holds the shared data model for a dice-arena room: players,
// configuration, phases, and the per-round result records the scoring
// kernel produces. Mirrors the teacher's pkg/poker player/table data model,
// generalized from a poker hand to the two-set dice round described in
// spec.md §3.
package game

import (
	"time"

	"github.com/dicearena/server/pkg/scoring"
)

// Phase names a stage of the room's game state machine.
type Phase string

const (
	PhaseLobby         Phase = "LOBBY"
	PhaseInitialRoll    Phase = "INITIAL_ROLL"
	PhasePrediction     Phase = "PREDICTION"
	PhaseSetSelection   Phase = "SET_SELECTION"
	PhaseSetReveal      Phase = "SET_REVEAL"
	PhaseRoundSummary   Phase = "ROUND_SUMMARY"
	PhaseGameOver       Phase = "GAME_OVER"
)

// GameConfig bounds the tunable parameters of a room, per spec.md §3.
type GameConfig struct {
	MaxPlayers       int `json:"maxPlayers"`
	TotalRounds      int `json:"totalRounds"`
	TurnTimerSeconds int `json:"turnTimerSeconds"`
}

// DefaultGameConfig matches the teacher's pattern of sane zero-value
// defaults in TableConfig (pkg/poker/table.go).
func DefaultGameConfig() GameConfig {
	return GameConfig{MaxPlayers: 4, TotalRounds: 5, TurnTimerSeconds: 30}
}

// Clamp bounds every field of cfg to the ranges fixed by spec.md §3
// ([2,6] players, [3,10] rounds, [15,60] turn-timer seconds).
func (cfg GameConfig) Clamp() GameConfig {
	clamp := func(v, lo, hi int) int {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	cfg.MaxPlayers = clamp(cfg.MaxPlayers, 2, 6)
	cfg.TotalRounds = clamp(cfg.TotalRounds, 3, 10)
	cfg.TurnTimerSeconds = clamp(cfg.TurnTimerSeconds, 15, 60)
	return cfg
}

// Player is a single occupant of a room.
type Player struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	SessionHandle     string             `json:"-"`
	Dice              []scoring.Die      `json:"dice"`
	CumulativeScore   int                `json:"cumulativeScore"`
	CurrentRoundScore int                `json:"currentRoundScore"`
	Set1Score         int                `json:"set1Score"`
	Set2Score         int                `json:"set2Score"`
	Prediction        scoring.Prediction `json:"prediction"`
	Connected         bool               `json:"connected"`
	Ready             bool               `json:"ready"`
	Host              bool               `json:"host"`
	JoinedAt          time.Time          `json:"joinedAt"`
}

// ResetForRound clears the per-round fields ahead of a fresh round, per the
// ROUND_SUMMARY->NEXT_ROUND entry action in spec.md §4.4.
func (p *Player) ResetForRound(dice []scoring.Die) {
	p.Dice = dice
	p.Prediction = scoring.PredictionNone
	p.Set1Score = 0
	p.Set2Score = 0
	p.CurrentRoundScore = 0
}

// PendingSelection is one player's tentative 3-die commitment for the
// current set. The teacher's source keys confirmation off a sibling
// "<playerId>:confirmed" map entry (see spec.md §9 design notes); this
// redesign instead carries Confirmed as a field on the same record to avoid
// the string-punning the spec calls out as worth avoiding.
type PendingSelection struct {
	DieIDs    []string `json:"dieIds"`
	Confirmed bool     `json:"confirmed"`
}

// SetResult is one player's outcome for a single set.
type SetResult struct {
	PlayerID  string                `json:"playerId"`
	Hand      scoring.EvaluatedHand `json:"hand"`
	DieIDs    []string              `json:"dieIds"`
	DieValues []int                 `json:"dieValues"`
	Placement int                   `json:"placement"`
	Points    float64               `json:"points"`
}

// PredictionOutcome records a player's prediction and what it earned.
type PredictionOutcome struct {
	PlayerID   string             `json:"playerId"`
	Prediction scoring.Prediction `json:"prediction"`
	Bonus      int                `json:"bonus"`
}

// RoundResult is the full summary of one completed round.
type RoundResult struct {
	Round       int                  `json:"round"`
	Set1Results []SetResult          `json:"set1Results"`
	Set2Results []SetResult          `json:"set2Results"`
	Predictions []PredictionOutcome  `json:"predictions"`
}

// InitialRollResult is one player's 2d6 roll used to seed round-1 turn
// order.
type InitialRollResult struct {
	PlayerID string `json:"playerId"`
	Dice     [2]int `json:"dice"`
	Total    int    `json:"total"`
}

// ReconnectToken lets a disconnected client re-associate a fresh session
// with its prior player identity, per spec.md §3.
type ReconnectToken struct {
	Token     string    `json:"token"`
	PlayerID  string    `json:"playerId"`
	RoomCode  string    `json:"roomCode"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// GameState is the full persisted/broadcast state of one room.
type GameState struct {
	RoomCode           string                        `json:"roomCode"`
	Phase              Phase                         `json:"phase"`
	Players            []*Player                     `json:"players"`
	Config             GameConfig                    `json:"config"`
	CurrentRound       int                           `json:"currentRound"`
	CurrentSet         int                           `json:"currentSet"`
	TurnOrder          []string                      `json:"turnOrder"`
	// InitialOrder is the round-1 turn order, fixed once at INITIAL_ROLL and
	// never overwritten afterward. Every later round's turn order is
	// recomputed from cumulative standings, but ties always break against
	// this original order, per spec.md §4.1.
	InitialOrder       []string                      `json:"initialOrder"`
	CurrentTurnIndex   int                           `json:"currentTurnIndex"`
	PendingSelections  map[string]*PendingSelection  `json:"pendingSelections"`
	SetResults         []SetResult                   `json:"setResults"`
	RoundHistory       []RoundResult                 `json:"roundHistory"`
	InitialRollResults []InitialRollResult            `json:"initialRollResults"`
	// PendingRoundResult accumulates Set1Results/Set2Results/Predictions
	// across the two sets of the round currently in progress, and is
	// appended to RoundHistory when ROUND_SUMMARY is entered. Carrying it
	// as state rather than handler-local memory means set 1's results are
	// part of every snapshot written to the state store mid-round.
	PendingRoundResult *RoundResult `json:"pendingRoundResult,omitempty"`
	HostID             string       `json:"hostId"`
	CreatedAt          time.Time    `json:"createdAt"`
}

// PlayerByID returns a pointer to the player with the given id, or nil.
func (g *GameState) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// ConnectedPlayerIDs lists every player currently marked connected.
func (g *GameState) ConnectedPlayerIDs() []string {
	ids := make([]string, 0, len(g.Players))
	for _, p := range g.Players {
		if p.Connected {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// CurrentTurnHolder returns the player id whose turn it currently is during
// SET_SELECTION, or "" if every player has acted
// (CurrentTurnIndex == len(TurnOrder)).
func (g *GameState) CurrentTurnHolder() string {
	if g.CurrentTurnIndex >= len(g.TurnOrder) {
		return ""
	}
	return g.TurnOrder[g.CurrentTurnIndex]
}
