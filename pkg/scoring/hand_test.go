package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func dice(values ...int) []Die {
	out := make([]Die, len(values))
	for i, v := range values {
		out[i] = Die{ID: string(rune('a' + i)), Value: v}
	}
	return out
}

func TestEvaluate_RejectsWrongLength(t *testing.T) {
	_, err := Evaluate(dice(1, 2))
	require.Error(t, err)

	_, err = Evaluate(dice(1, 2, 3, 4))
	require.Error(t, err)
}

func TestEvaluate_Shapes(t *testing.T) {
	tests := []struct {
		name      string
		values    []int
		wantRank  HandRank
		wantPrim  int
		wantSec   int
		wantTert  int
	}{
		{"triple", []int{4, 4, 4}, Triple, 4, 0, 0},
		{"straight low", []int{1, 2, 3}, Straight, 3, 0, 0},
		{"straight high", []int{4, 5, 6}, Straight, 6, 0, 0},
		{"pair low kicker", []int{2, 2, 5}, Double, 2, 5, 0},
		{"pair high kicker", []int{5, 2, 2}, Double, 2, 5, 0},
		{"pair of highs", []int{3, 6, 6}, Double, 6, 3, 0},
		{"single", []int{6, 4, 2}, Single, 6, 4, 2},
		{"not a wraparound straight", []int{1, 3, 5}, Single, 5, 3, 1},
		{"not a wraparound straight 2", []int{5, 6, 1}, Single, 6, 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Evaluate(dice(tt.values...))
			require.NoError(t, err)
			require.Equal(t, tt.wantRank, h.Rank)
			require.Equal(t, tt.wantPrim, h.Primary)
			require.Equal(t, tt.wantSec, h.Secondary)
			require.Equal(t, tt.wantTert, h.Tertiary)
		})
	}
}

func TestEvaluate_PermutationInvariant(t *testing.T) {
	perms := [][]int{
		{2, 5, 2}, {2, 2, 5}, {5, 2, 2},
	}
	var want EvaluatedHand
	for i, p := range perms {
		h, err := Evaluate(dice(p...))
		require.NoError(t, err)
		if i == 0 {
			want = h
		} else {
			require.Equal(t, want.Rank, h.Rank)
			require.Equal(t, want.Primary, h.Primary)
			require.Equal(t, want.Secondary, h.Secondary)
		}
	}
}

func TestCompare_TotalPreorder(t *testing.T) {
	a, _ := Evaluate(dice(2, 2, 2))
	b, _ := Evaluate(dice(4, 5, 6))
	require.Greater(t, Compare(a, b), 0)
	require.Less(t, Compare(b, a), 0)

	c, _ := Evaluate(dice(2, 2, 2))
	require.Equal(t, 0, Compare(a, c))
}
