package scoring

import "sort"

// RollResult pairs a player with their initial 2d6 roll, the input to the
// round-1 turn-order computation.
type RollResult struct {
	PlayerID string
	Total    int
}

// InitialTurnOrder sorts players by ascending roll total (lowest goes
// first), stable on ties so equal rolls preserve submission order. Does not
// mutate rolls.
func InitialTurnOrder(rolls []RollResult) []string {
	sorted := make([]RollResult, len(rolls))
	copy(sorted, rolls)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Total < sorted[j].Total
	})
	order := make([]string, len(sorted))
	for i, r := range sorted {
		order[i] = r.PlayerID
	}
	return order
}

// StandingsEntry pairs a player with their cumulative score, the input to
// the post-round-1 turn-order computation.
type StandingsEntry struct {
	PlayerID        string
	CumulativeScore int
}

// SubsequentTurnOrder sorts players by cumulative score descending; ties
// are broken by earlier position in the round-1 initial order, and any
// player missing from that order sorts last. Does not mutate its inputs.
func SubsequentTurnOrder(standings []StandingsEntry, initialOrder []string) []string {
	initialPos := make(map[string]int, len(initialOrder))
	for i, id := range initialOrder {
		initialPos[id] = i
	}

	sorted := make([]StandingsEntry, len(standings))
	copy(sorted, standings)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.CumulativeScore != b.CumulativeScore {
			return a.CumulativeScore > b.CumulativeScore
		}
		posA, okA := initialPos[a.PlayerID]
		posB, okB := initialPos[b.PlayerID]
		switch {
		case okA && okB:
			return posA < posB
		case okA && !okB:
			return true
		case !okA && okB:
			return false
		default:
			return false
		}
	})

	order := make([]string, len(sorted))
	for i, e := range sorted {
		order[i] = e.PlayerID
	}
	return order
}
