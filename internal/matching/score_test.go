package matching

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"", "  Tomato ", "CHICKEN breast\t", "milk 2%", "\n Whole   Milk \n"}
	for _, in := range inputs {
		once := Normalize(in)
		require.Equal(t, once, Normalize(once), "input %q", in)
	}
	require.Equal(t, "tomato", Normalize("  Tomato "))
}

func TestScoreMatch(t *testing.T) {
	tests := []struct {
		name       string
		ingredient string
		product    string
		want       float64
	}{
		{"exact", "chicken breast", "chicken breast", 1.0},
		{"exact after normalize", " Chicken Breast ", "chicken breast", 1.0},
		{"product contains ingredient", "chicken", "organic chicken breast", 0.9},
		{"ingredient contains product", "organic chicken breast", "chicken", 0.9},
		{"no shared tokens", "chicken breast", "beef chuck roast", 0.0},
		{"one of two tokens", "whole milk", "milk 2%", 0.5},
		{"overlap capped", "red ripe tomato sauce jar", "tomato sauce jar red ripe organic", 0.8},
		{"denominator is larger side", "large egg", "grade a large brown eggs", 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, ScoreMatch(tt.ingredient, tt.product), 1e-9)
		})
	}
}

func TestScoreMatchPartialNeverReachesContains(t *testing.T) {
	got := ScoreMatch("a b c d", "d c b a")
	require.Less(t, got, ContainsScore)
	require.InDelta(t, MaxOverlapScore, got, 1e-9)
}
