package reserve

import "math/bits"

// Rounding selects the direction applied when a conversion between decimal
// precisions loses information.
type Rounding uint8

const (
	// RoundDown truncates toward zero. Redemptions and cross-chain
	// conversions use it so the protocol never over-pays collateral.
	RoundDown Rounding = iota
	// RoundUp rounds any nonzero remainder away from zero. Minting uses it
	// so the protocol never under-collateralizes.
	RoundUp
)

// ToReferenceAmount converts an amount expressed in fromDecimals precision to
// toDecimals precision. Widening conversions are exact but may overflow, in
// which case ErrAmountOverflow is returned. Narrowing conversions apply the
// requested rounding direction.
func ToReferenceAmount(amount uint64, fromDecimals, toDecimals uint8, rounding Rounding) (uint64, error) {
	switch {
	case fromDecimals == toDecimals:
		return amount, nil
	case toDecimals > fromDecimals:
		factor, ok := pow10(toDecimals - fromDecimals)
		if !ok {
			if amount == 0 {
				return 0, nil
			}
			return 0, ErrAmountOverflow
		}
		hi, lo := bits.Mul64(amount, factor)
		if hi != 0 {
			return 0, ErrAmountOverflow
		}
		return lo, nil
	default:
		factor, ok := pow10(fromDecimals - toDecimals)
		if !ok {
			// Divisor exceeds uint64 range, so the quotient is zero and
			// any nonzero amount is pure remainder.
			if rounding == RoundUp && amount > 0 {
				return 1, nil
			}
			return 0, nil
		}
		quotient := amount / factor
		if rounding == RoundUp && amount%factor != 0 {
			quotient++
		}
		return quotient, nil
	}
}

// pow10 returns 10^exp, reporting false when the power exceeds uint64 range.
func pow10(exp uint8) (uint64, bool) {
	if exp > 19 {
		return 0, false
	}
	result := uint64(1)
	for i := uint8(0); i < exp; i++ {
		result *= 10
	}
	return result, true
}
