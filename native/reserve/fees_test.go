package reserve

import "testing"

func TestNewFeeScheduleBounds(t *testing.T) {
	if _, err := NewFeeSchedule(0, 100_000); err != ErrFeeOutOfBounds {
		t.Fatalf("expected ErrFeeOutOfBounds for zero bps, got %v", err)
	}
	if _, err := NewFeeSchedule(MaxCrossChainFeeBps+1, 100_000); err != ErrFeeOutOfBounds {
		t.Fatalf("expected ErrFeeOutOfBounds above ceiling, got %v", err)
	}
	if _, err := NewFeeSchedule(MinCrossChainFeeBps, 0); err != nil {
		t.Fatalf("minimum bps must be accepted: %v", err)
	}
}

func TestGasFeeResolution(t *testing.T) {
	fees, err := NewFeeSchedule(30, 0)
	if err != nil {
		t.Fatalf("new schedule: %v", err)
	}

	// No default and no override resolves to the fallback.
	if got := fees.GasFee(10); got != FallbackGasFee {
		t.Fatalf("expected fallback %d, got %d", FallbackGasFee, got)
	}

	fees.SetDefaultGasFee(250_000)
	if got := fees.GasFee(10); got != 250_000 {
		t.Fatalf("expected default 250000, got %d", got)
	}

	fees.SetChainGasFee(10, 40_000)
	if got := fees.GasFee(10); got != 40_000 {
		t.Fatalf("expected override 40000, got %d", got)
	}
	if got := fees.GasFee(11); got != 250_000 {
		t.Fatalf("other chains keep the default, got %d", got)
	}

	fees.RemoveChainGasFee(10)
	if got := fees.GasFee(10); got != 250_000 {
		t.Fatalf("removal must fall back to the default, got %d", got)
	}
}

func TestTotalFeeScenario(t *testing.T) {
	fees, err := NewFeeSchedule(30, 100_000)
	if err != nil {
		t.Fatalf("new schedule: %v", err)
	}
	total, err := fees.TotalFee(7, 10_000_000)
	if err != nil {
		t.Fatalf("total fee: %v", err)
	}
	// 0.30% of 10_000_000 is 30_000, plus the flat gas component.
	if total != 130_000 {
		t.Fatalf("expected 130000, got %d", total)
	}
}

func TestPercentageFeeRoundsDown(t *testing.T) {
	fees, err := NewFeeSchedule(1, 0)
	if err != nil {
		t.Fatalf("new schedule: %v", err)
	}
	if got := fees.PercentageFee(9_999); got != 0 {
		t.Fatalf("expected truncation to 0, got %d", got)
	}
	if got := fees.PercentageFee(10_000); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestPercentageFeeLargeAmount(t *testing.T) {
	fees, err := NewFeeSchedule(MaxCrossChainFeeBps, 0)
	if err != nil {
		t.Fatalf("new schedule: %v", err)
	}
	// amount * bps overflows a uint64 but the 128-bit intermediate keeps the
	// quotient exact.
	amount := uint64(5_000_000_000_000_000_000)
	if got := fees.PercentageFee(amount); got != 1_000_000_000_000_000_000 {
		t.Fatalf("expected 1e18, got %d", got)
	}
}
