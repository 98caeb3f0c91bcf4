package vault

import (
	"math"
	"testing"
)

func TestRankForScore(t *testing.T) {
	cases := []struct {
		score uint64
		want  string
	}{
		{0, "TRACE"},
		{99, "TRACE"},
		{100, "VECTOR"},
		{499, "VECTOR"},
		{500, "NODE"},
		{1500, "CIPHER"},
		{4000, "ARCHON"},
		{9999, "ARCHON"},
		{10000, "ROOT"},
		{9999999, "ROOT"},
		{10000000, "NEO"},
		{math.MaxUint64, "NEO"},
	}
	for _, tc := range cases {
		if got := RankForScore(tc.score); got.Name != tc.want {
			t.Fatalf("RankForScore(%d) = %q, want %q", tc.score, got.Name, tc.want)
		}
	}
}
