package scoring

import (
	"fmt"
	"sort"
)

// HandRank orders the four hand shapes a 3-die selection can form.
// Ordering is significant: it is the primary key of hand comparison.
type HandRank int

const (
	Single HandRank = iota
	Double
	Straight
	Triple
)

func (r HandRank) String() string {
	switch r {
	case Single:
		return "SINGLE"
	case Double:
		return "DOUBLE"
	case Straight:
		return "STRAIGHT"
	case Triple:
		return "TRIPLE"
	default:
		return "UNKNOWN"
	}
}

// EvaluatedHand is the result of scoring a 3-die selection. Primary,
// Secondary and Tertiary are tie-break fields in descending significance;
// unused fields for a given rank are left at zero.
type EvaluatedHand struct {
	Rank        HandRank `json:"rank"`
	Primary     int      `json:"primary"`
	Secondary   int      `json:"secondary"`
	Tertiary    int      `json:"tertiary"`
	Description string   `json:"description"`
}

// straights lists the only four consecutive triples that count as a
// Straight; 5-6-1 and other wrap-arounds never qualify.
var straights = map[[3]int]int{
	{1, 2, 3}: 3,
	{2, 3, 4}: 4,
	{3, 4, 5}: 5,
	{4, 5, 6}: 6,
}

// Evaluate scores a 3-die selection. It is invariant under permutation of
// the input dice and rejects any selection whose length is not exactly 3.
func Evaluate(dice []Die) (EvaluatedHand, error) {
	if len(dice) != 3 {
		return EvaluatedHand{}, fmt.Errorf("scoring: hand must contain exactly 3 dice, got %d", len(dice))
	}

	values := []int{dice[0].Value, dice[1].Value, dice[2].Value}
	sort.Ints(values)
	low, mid, high := values[0], values[1], values[2]

	switch {
	case low == mid && mid == high:
		return EvaluatedHand{
			Rank:        Triple,
			Primary:     low,
			Description: fmt.Sprintf("Triple %d", low),
		}, nil

	case straights[[3]int{low, mid, high}] != 0:
		return EvaluatedHand{
			Rank:        Straight,
			Primary:     high,
			Description: fmt.Sprintf("Straight %d-%d-%d", low, mid, high),
		}, nil

	case low == mid:
		return EvaluatedHand{
			Rank:        Double,
			Primary:     low,
			Secondary:   high,
			Description: fmt.Sprintf("Pair of %ds, kicker %d", low, high),
		}, nil

	case mid == high:
		return EvaluatedHand{
			Rank:        Double,
			Primary:     high,
			Secondary:   low,
			Description: fmt.Sprintf("Pair of %ds, kicker %d", high, low),
		}, nil

	default:
		return EvaluatedHand{
			Rank:        Single,
			Primary:     high,
			Secondary:   mid,
			Tertiary:    low,
			Description: fmt.Sprintf("High %d-%d-%d", high, mid, low),
		}, nil
	}
}

// Compare orders two evaluated hands lexicographically on
// (Rank, Primary, Secondary, Tertiary). A positive result means a beats b, a
// negative result means b beats a, and zero means a tie.
func Compare(a, b EvaluatedHand) int {
	if a.Rank != b.Rank {
		return int(a.Rank) - int(b.Rank)
	}
	if a.Primary != b.Primary {
		return a.Primary - b.Primary
	}
	if a.Secondary != b.Secondary {
		return a.Secondary - b.Secondary
	}
	return a.Tertiary - b.Tertiary
}
