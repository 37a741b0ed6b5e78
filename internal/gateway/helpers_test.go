package gateway

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dicearena/server/pkg/engine"
	"github.com/dicearena/server/pkg/game"
	"github.com/dicearena/server/pkg/scoring"
	"github.com/dicearena/server/pkg/timer"
)

func stateWithTwoPlayers() *game.GameState {
	return &game.GameState{
		RoomCode: "ABC123",
		Phase:    game.PhaseSetSelection,
		Players: []*game.Player{
			{
				ID: "p0",
				Dice: []scoring.Die{
					{ID: "d0", Color: scoring.White, Value: 4, Revealed: true},
					{ID: "d1", Color: scoring.Red, Value: 6, Revealed: false},
				},
			},
			{
				ID: "p1",
				Dice: []scoring.Die{
					{ID: "d2", Color: scoring.White, Value: 2, Revealed: true},
					{ID: "d3", Color: scoring.Blue, Value: 5, Revealed: false},
				},
			},
		},
		PendingSelections: map[string]*game.PendingSelection{},
	}
}

func TestSanitizeStateForHidesUnrevealedDiceFromOthers(t *testing.T) {
	state := stateWithTwoPlayers()

	viewOfP1 := sanitizeStateFor(state, "p1")
	owner := viewOfP1.PlayerByID("p0")
	require.Equal(t, 0, owner.Dice[1].Value, "p1 must not see p0's hidden red die's face")
	require.Equal(t, 4, owner.Dice[0].Value, "a revealed die's face is never hidden")

	self := viewOfP1.PlayerByID("p1")
	require.Equal(t, 5, self.Dice[1].Value, "a player always sees their own hidden dice")
}

func TestSanitizeStateForNilIsNil(t *testing.T) {
	require.Nil(t, sanitizeStateFor(nil, "p0"))
}

func TestSanitizeStateForDoesNotMutateInput(t *testing.T) {
	state := stateWithTwoPlayers()
	_ = sanitizeStateFor(state, "p1")
	require.Equal(t, 6, state.Players[0].Dice[1].Value, "sanitizing must clone, never mutate the source state")
}

func visibleDiceLen(t *testing.T, payload map[string]interface{}) int {
	t.Helper()
	v := reflect.ValueOf(payload["visibleDice"])
	require.Equal(t, reflect.Slice, v.Kind())
	return v.Len()
}

func TestDiceSelectedPayloadOwnerSeesFullSelection(t *testing.T) {
	state := stateWithTwoPlayers()
	state.PendingSelections["p0"] = &game.PendingSelection{DieIDs: []string{"d0", "d1"}}

	payload := diceSelectedPayload(state, "p0", "p0")
	require.Equal(t, 2, visibleDiceLen(t, payload))
	require.Equal(t, 0, payload["hiddenCount"])
}

func TestDiceSelectedPayloadOthersSeeOnlyRevealed(t *testing.T) {
	state := stateWithTwoPlayers()
	state.PendingSelections["p0"] = &game.PendingSelection{DieIDs: []string{"d0", "d1"}}

	payload := diceSelectedPayload(state, "p0", "p1")
	require.Equal(t, 1, visibleDiceLen(t, payload), "p0's own revealed white die stays visible")
	require.Equal(t, 1, payload["hiddenCount"], "p0's unrevealed red die must count as hidden to p1")
}

func TestDiceSelectedPayloadNoSelectionYet(t *testing.T) {
	state := stateWithTwoPlayers()
	payload := diceSelectedPayload(state, "p0", "p1")
	require.Equal(t, 0, payload["hiddenCount"])
	require.Equal(t, "p0", payload["playerId"])
}

func TestNextAdvanceEvent(t *testing.T) {
	require.Equal(t, engine.EventNextSet, nextAdvanceEvent(game.PhaseSetReveal))
	require.Equal(t, engine.EventNextRound, nextAdvanceEvent(game.PhaseRoundSummary))
	require.Equal(t, engine.EventType(""), nextAdvanceEvent(game.PhaseLobby))
}

func TestToTimerKind(t *testing.T) {
	require.Equal(t, timer.KindTurn, toTimerKind(engine.TimerTurn))
	require.Equal(t, timer.KindPrediction, toTimerKind(engine.TimerPrediction))
}
