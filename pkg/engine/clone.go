package engine

import (
	"github.com/dicearena/server/pkg/game"
	"github.com/dicearena/server/pkg/scoring"
)

// cloneState deep-copies a GameState so snapshots handed to other
// goroutines (notification fan-out, the state store) never alias the
// engine's live state.
func cloneState(s *game.GameState) *game.GameState {
	if s == nil {
		return nil
	}
	out := *s

	out.Players = make([]*game.Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		cp.Dice = append([]scoring.Die(nil), p.Dice...)
		out.Players[i] = &cp
	}

	out.TurnOrder = append([]string(nil), s.TurnOrder...)
	out.InitialOrder = append([]string(nil), s.InitialOrder...)

	out.PendingSelections = make(map[string]*game.PendingSelection, len(s.PendingSelections))
	for k, v := range s.PendingSelections {
		cp := *v
		cp.DieIDs = append([]string(nil), v.DieIDs...)
		out.PendingSelections[k] = &cp
	}

	out.SetResults = cloneSetResults(s.SetResults)
	out.RoundHistory = make([]game.RoundResult, len(s.RoundHistory))
	for i, r := range s.RoundHistory {
		out.RoundHistory[i] = cloneRoundResult(r)
	}
	out.InitialRollResults = append([]game.InitialRollResult(nil), s.InitialRollResults...)

	if s.PendingRoundResult != nil {
		rr := cloneRoundResult(*s.PendingRoundResult)
		out.PendingRoundResult = &rr
	}

	return &out
}

func cloneSetResults(in []game.SetResult) []game.SetResult {
	out := make([]game.SetResult, len(in))
	for i, r := range in {
		out[i] = r
		out[i].DieIDs = append([]string(nil), r.DieIDs...)
		out[i].DieValues = append([]int(nil), r.DieValues...)
	}
	return out
}

func cloneRoundResult(r game.RoundResult) game.RoundResult {
	out := r
	out.Set1Results = cloneSetResults(r.Set1Results)
	out.Set2Results = cloneSetResults(r.Set2Results)
	out.Predictions = append([]game.PredictionOutcome(nil), r.Predictions...)
	return out
}
