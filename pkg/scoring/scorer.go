package scoring

import "sort"

// placementPoints maps player count -> per-placement points (1-indexed via
// slice position: placementPoints[n][0] is 1st place, etc). Mirrors the
// table in spec.md §4.1 exactly; last place is always 0.
var placementPoints = map[int][]int{
	2: {6, 0},
	3: {6, 3, 0},
	4: {6, 3, 1, 0},
	5: {6, 4, 2, 1, 0},
	6: {6, 4, 3, 2, 1, 0},
}

// Selection pairs a player identifier with the hand they committed for a
// set, the grist the placement walk operates on.
type Selection struct {
	PlayerID string
	Hand     EvaluatedHand
}

// SetPoints is one player's outcome for a set: their placement (1-indexed,
// ties share the lowest placement in the tied group) and the points they
// earned (may be fractional when tied).
type SetPoints struct {
	PlayerID  string
	Placement int
	Points    float64
}

// AssignPlacements ranks selections by hand descending and distributes
// per-placement points table for numPlayers, splitting tie-groups evenly:
// a tie-group occupying placements k..k+t-1 each earns the sum of those
// placements' points divided by t. Mirrors the teacher's PotManager
// distributing a shared pot evenly across tied winners
// (pkg/poker/pot.go DistributePots), generalized to a fixed points table
// instead of a chip pot.
func AssignPlacements(selections []Selection, numPlayers int) []SetPoints {
	points := placementPoints[numPlayers]
	if points == nil {
		points = placementPoints[len(selections)]
	}

	sorted := make([]Selection, len(selections))
	copy(sorted, selections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Compare(sorted[i].Hand, sorted[j].Hand) > 0
	})

	results := make([]SetPoints, len(sorted))
	i := 0
	for i < len(sorted) {
		j := i + 1
		for j < len(sorted) && Compare(sorted[j].Hand, sorted[i].Hand) == 0 {
			j++
		}
		groupSize := j - i
		var sum int
		for k := i; k < j && k < len(points); k++ {
			sum += points[k]
		}
		share := float64(sum) / float64(groupSize)
		for k := i; k < j; k++ {
			results[k] = SetPoints{
				PlayerID:  sorted[k].PlayerID,
				Placement: i + 1,
				Points:    share,
			}
		}
		i = j
	}
	return results
}

// Prediction is a player's round-total guess made during the PREDICTION
// phase.
type Prediction string

const (
	PredictionNone  Prediction = ""
	PredictionZero  Prediction = "ZERO"
	PredictionMin   Prediction = "MIN"
	PredictionMore  Prediction = "MORE"
	PredictionMax   Prediction = "MAX"
)

type predictionRange struct {
	low, high int
}

// predictionRanges lists the closed integer range each prediction type maps
// to for a given player count, exactly as tabulated in spec.md §4.1. MIN is
// absent for 2 players (not offered to the user).
var predictionRanges = map[int]map[Prediction]predictionRange{
	2: {
		PredictionZero: {0, 0},
		PredictionMore: {6, 6},
		PredictionMax:  {12, 12},
	},
	3: {
		PredictionZero: {0, 0},
		PredictionMin:  {3, 3},
		PredictionMore: {6, 9},
		PredictionMax:  {10, 12},
	},
	4: {
		PredictionZero: {0, 0},
		PredictionMin:  {1, 4},
		PredictionMore: {6, 9},
		PredictionMax:  {10, 12},
	},
	5: {
		PredictionZero: {0, 0},
		PredictionMin:  {1, 4},
		PredictionMore: {5, 8},
		PredictionMax:  {10, 12},
	},
	6: {
		PredictionZero: {0, 0},
		PredictionMin:  {1, 4},
		PredictionMore: {5, 9},
		PredictionMax:  {10, 12},
	},
}

// AvailablePredictions lists the prediction types offered to a room of the
// given player count, in table order.
func AvailablePredictions(numPlayers int) []Prediction {
	ranges := predictionRanges[numPlayers]
	order := []Prediction{PredictionZero, PredictionMin, PredictionMore, PredictionMax}
	out := make([]Prediction, 0, len(order))
	for _, p := range order {
		if _, ok := ranges[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// PredictionBonus computes the bonus a prediction earns against a round
// total (set-1 + set-2 points, 0..12) for the given player count. ZERO
// awards a flat 40 when it hits; MIN/MORE/MAX award the round total itself
// when it falls in range. Misses always award 0.
func PredictionBonus(prediction Prediction, roundTotal, numPlayers int) int {
	ranges, ok := predictionRanges[numPlayers]
	if !ok {
		return 0
	}
	r, ok := ranges[prediction]
	if !ok {
		return 0
	}
	if roundTotal < r.low || roundTotal > r.high {
		return 0
	}
	if prediction == PredictionZero {
		return 40
	}
	return roundTotal
}
