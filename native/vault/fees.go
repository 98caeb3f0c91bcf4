package vault

import "math/bits"

// Fee-split percentages. 80% of every attempt fee accrues to the vault's
// winner pool, the remainder to the global jackpot.
const winnerCutPercent = 80

// pinFeeMultipliers scales the base fee by the secret's digit-length class.
// Shorter secrets are easier to brute-force and carry a proportionally
// higher cost per attempt. The exact values are policy constants inherited
// from the original deployment.
var pinFeeMultipliers = map[uint8]uint64{
	3: 100,
	4: 25,
	5: 10,
	6: 10,
	8: 1,
}

// NextFee returns the attempt fee after one more paid guess:
// ceil(current * 6 / 5), computed as (current*6 + 4) / 5. A zero fee stays
// zero so free vaults never engage the ladder.
func NextFee(current uint64) (uint64, error) {
	if current == 0 {
		return 0, nil
	}
	hi, lo := bits.Mul64(current, 6)
	if hi != 0 {
		return 0, ErrMathOverflow
	}
	sum, carry := bits.Add64(lo, 4, 0)
	if carry != 0 {
		return 0, ErrMathOverflow
	}
	return sum / 5, nil
}

// StartingFee derives a vault's initial attempt fee from its base fee and
// pin length class.
func StartingFee(baseFee uint64, pinLen uint8) (uint64, error) {
	multiplier, ok := pinFeeMultipliers[pinLen]
	if !ok {
		return 0, ErrBadPinLength
	}
	return checkedMul(baseFee, multiplier)
}

// SplitFee divides a collected attempt fee between the vault's winner pool
// and the global jackpot. The remainder goes to the jackpot so no unit is
// ever lost to rounding.
func SplitFee(fee uint64) (winnerCut, megaCut uint64) {
	hi, lo := bits.Mul64(fee, winnerCutPercent)
	winnerCut, _ = bits.Div64(hi, lo, 100)
	return winnerCut, fee - winnerCut
}

// SplitReclaim divides an unclaimed fee pool between the creator and the
// global jackpot. The odd unit goes to the jackpot side.
func SplitReclaim(pool uint64) (creatorCut, megaCut uint64) {
	creatorCut = pool / 2
	return creatorCut, pool - creatorCut
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrMathOverflow
	}
	return sum, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, ErrMathOverflow
	}
	return lo, nil
}
