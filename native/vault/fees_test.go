package vault

import (
	"errors"
	"math"
	"testing"
)

func TestNextFeeValues(t *testing.T) {
	cases := []struct {
		current uint64
		want    uint64
	}{
		{0, 0},
		{1, 2},
		{5, 6},
		{100, 120},
		{250, 300},
		{300, 360},
	}
	for _, tc := range cases {
		got, err := NextFee(tc.current)
		if err != nil {
			t.Fatalf("NextFee(%d): unexpected error: %v", tc.current, err)
		}
		if got != tc.want {
			t.Fatalf("NextFee(%d) = %d, want %d", tc.current, got, tc.want)
		}
	}
}

func TestNextFeeMonotonic(t *testing.T) {
	fee := uint64(10)
	for i := 0; i < 100; i++ {
		next, err := NextFee(fee)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if next < fee {
			t.Fatalf("step %d: fee decreased from %d to %d", i, fee, next)
		}
		fee = next
	}
}

func TestNextFeeOverflow(t *testing.T) {
	if _, err := NextFee(math.MaxUint64/6 + 1); !errors.Is(err, ErrMathOverflow) {
		t.Fatalf("expected ErrMathOverflow, got %v", err)
	}
	// current*6 fits exactly but the ceiling adjustment carries out.
	boundary := uint64(math.MaxUint64-3) / 6
	if boundary*6 != math.MaxUint64-3 {
		t.Skipf("boundary not exact on this platform")
	}
	if _, err := NextFee(boundary); !errors.Is(err, ErrMathOverflow) {
		t.Fatalf("expected ErrMathOverflow at carry boundary, got %v", err)
	}
}

func TestSplitFee(t *testing.T) {
	if winner, mega := SplitFee(100); winner != 80 || mega != 20 {
		t.Fatalf("SplitFee(100) = (%d, %d), want (80, 20)", winner, mega)
	}
	if winner, mega := SplitFee(1); winner != 0 || mega != 1 {
		t.Fatalf("SplitFee(1) = (%d, %d), want (0, 1)", winner, mega)
	}
	for _, fee := range []uint64{0, 1, 3, 99, 101, 12345, math.MaxUint64} {
		winner, mega := SplitFee(fee)
		if winner+mega != fee {
			t.Fatalf("SplitFee(%d) loses units: %d + %d", fee, winner, mega)
		}
	}
}

func TestSplitReclaim(t *testing.T) {
	if creator, mega := SplitReclaim(100); creator != 50 || mega != 50 {
		t.Fatalf("SplitReclaim(100) = (%d, %d), want (50, 50)", creator, mega)
	}
	// The odd unit goes to the jackpot side.
	if creator, mega := SplitReclaim(101); creator != 50 || mega != 51 {
		t.Fatalf("SplitReclaim(101) = (%d, %d), want (50, 51)", creator, mega)
	}
	for _, pool := range []uint64{0, 1, 7, 1000001} {
		creator, mega := SplitReclaim(pool)
		if creator+mega != pool {
			t.Fatalf("SplitReclaim(%d) loses units: %d + %d", pool, creator, mega)
		}
	}
}

func TestStartingFee(t *testing.T) {
	cases := []struct {
		base   uint64
		pinLen uint8
		want   uint64
	}{
		{10, 3, 1000},
		{10, 4, 250},
		{10, 5, 100},
		{10, 6, 100},
		{10, 8, 10},
		{0, 4, 0},
	}
	for _, tc := range cases {
		got, err := StartingFee(tc.base, tc.pinLen)
		if err != nil {
			t.Fatalf("StartingFee(%d, %d): %v", tc.base, tc.pinLen, err)
		}
		if got != tc.want {
			t.Fatalf("StartingFee(%d, %d) = %d, want %d", tc.base, tc.pinLen, got, tc.want)
		}
	}
}

func TestStartingFeeRejectsUnsupportedPinLength(t *testing.T) {
	for _, pinLen := range []uint8{0, 1, 2, 7, 9, 12} {
		if _, err := StartingFee(10, pinLen); !errors.Is(err, ErrBadPinLength) {
			t.Fatalf("pin length %d: expected ErrBadPinLength, got %v", pinLen, err)
		}
	}
}

func TestStartingFeeOverflow(t *testing.T) {
	if _, err := StartingFee(math.MaxUint64/2, 3); !errors.Is(err, ErrMathOverflow) {
		t.Fatalf("expected ErrMathOverflow, got %v", err)
	}
}

func TestFeeLadderSequenceMatchesFold(t *testing.T) {
	// After n paid guesses the current fee equals the n-fold application of
	// NextFee to the starting fee.
	fee := uint64(250)
	want := []uint64{300, 360, 432, 519, 623, 748}
	for i, expected := range want {
		next, err := NextFee(fee)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if next != expected {
			t.Fatalf("step %d: got %d, want %d", i, next, expected)
		}
		fee = next
	}
}
