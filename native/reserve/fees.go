package reserve

import "math/bits"

// Basis-point bounds enforced on the fee parameters. All ratios are expressed
// against BpsDenominator.
const (
	BpsDenominator = 10_000

	MinRedeemFeeBps = 10
	MaxRedeemFeeBps = 2_000

	MinCrossChainFeeBps = 1
	MaxCrossChainFeeBps = 2_000

	MinMintFloor = 1_000
	MaxMintFloor = 1_000_000_000

	// FallbackGasFee applies when neither a per-chain override nor a global
	// default has been configured.
	FallbackGasFee = 100_000
)

// FeeSchedule prices cross-chain transfers: a flat gas fee resolved per target
// chain plus a basis-point percentage of the transferred amount.
type FeeSchedule struct {
	rateBps       uint64
	defaultGasFee uint64
	chainGasFees  map[uint64]uint64
}

// NewFeeSchedule builds a schedule with the supplied percentage rate. The rate
// must sit within [MinCrossChainFeeBps, MaxCrossChainFeeBps].
func NewFeeSchedule(rateBps, defaultGasFee uint64) (*FeeSchedule, error) {
	if rateBps < MinCrossChainFeeBps || rateBps > MaxCrossChainFeeBps {
		return nil, ErrFeeOutOfBounds
	}
	return &FeeSchedule{
		rateBps:       rateBps,
		defaultGasFee: defaultGasFee,
		chainGasFees:  make(map[uint64]uint64),
	}, nil
}

// SetRateBps updates the percentage component within its admissible range.
func (s *FeeSchedule) SetRateBps(rateBps uint64) error {
	if rateBps < MinCrossChainFeeBps || rateBps > MaxCrossChainFeeBps {
		return ErrFeeOutOfBounds
	}
	s.rateBps = rateBps
	return nil
}

// RateBps returns the configured percentage component.
func (s *FeeSchedule) RateBps() uint64 { return s.rateBps }

// SetDefaultGasFee updates the global gas fee default. Zero disables the
// default, falling back to FallbackGasFee.
func (s *FeeSchedule) SetDefaultGasFee(fee uint64) { s.defaultGasFee = fee }

// DefaultGasFee returns the configured global default.
func (s *FeeSchedule) DefaultGasFee() uint64 { return s.defaultGasFee }

// SetChainGasFee installs a per-chain gas fee override.
func (s *FeeSchedule) SetChainGasFee(chainID, fee uint64) {
	s.chainGasFees[chainID] = fee
}

// RemoveChainGasFee drops the per-chain override, restoring default
// resolution. Removing an absent override is a no-op.
func (s *FeeSchedule) RemoveChainGasFee(chainID uint64) {
	delete(s.chainGasFees, chainID)
}

// GasFee resolves the flat fee for the target chain: per-chain override first,
// then the global default when nonzero, then the hardcoded fallback.
func (s *FeeSchedule) GasFee(chainID uint64) uint64 {
	if fee, ok := s.chainGasFees[chainID]; ok {
		return fee
	}
	if s.defaultGasFee != 0 {
		return s.defaultGasFee
	}
	return FallbackGasFee
}

// PercentageFee computes amount * rate / BpsDenominator without intermediate
// overflow.
func (s *FeeSchedule) PercentageFee(amount uint64) uint64 {
	return mulDivBps(amount, s.rateBps)
}

// TotalFee combines the resolved gas fee and the percentage fee for a transfer
// of amount to the target chain.
func (s *FeeSchedule) TotalFee(chainID, amount uint64) (uint64, error) {
	gas := s.GasFee(chainID)
	pct := s.PercentageFee(amount)
	total := gas + pct
	if total < gas {
		return 0, ErrAmountOverflow
	}
	return total, nil
}

// ChainGasFees returns a copy of the per-chain overrides.
func (s *FeeSchedule) ChainGasFees() map[uint64]uint64 {
	out := make(map[uint64]uint64, len(s.chainGasFees))
	for chain, fee := range s.chainGasFees {
		out[chain] = fee
	}
	return out
}

// mulDivBps computes amount * bps / BpsDenominator using 128-bit intermediate
// precision. The result never exceeds amount because bps is bounded by
// BpsDenominator.
func mulDivBps(amount, bps uint64) uint64 {
	hi, lo := bits.Mul64(amount, bps)
	quotient, _ := bits.Div64(hi, lo, BpsDenominator)
	return quotient
}
