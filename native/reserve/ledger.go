package reserve

// Stablecoin identifies the reference asset backing the system and its
// decimal precision.
type Stablecoin struct {
	Token    [20]byte
	Decimals uint8
}

// Config carries the construction parameters for a ledger instance.
type Config struct {
	DerivativeDecimals uint8
	Stablecoin         Stablecoin
	FeeRecipient       [20]byte
	FeeRatioBps        uint64
	MinAmount          uint64
}

// State is a plain snapshot of the ledger, used for persistence and for
// all-or-nothing rollback by the orchestrating engine.
type State struct {
	StablecoinReserves uint64
	CrossChainReserves uint64
	CrossChainDeficit  uint64
	AccumulatedFees    uint64
	FeeRecipient       [20]byte
	FeeRatioBps        uint64
	MinAmount          uint64
	Stablecoin         Stablecoin
	DerivativeDecimals uint8
	Paused             bool
}

// Ledger tracks the collateral backing the circulating derivative supply. It
// is not safe for concurrent use; the owning engine serializes access.
//
// Conservation invariant: stablecoinReserves + crossChainReserves −
// crossChainDeficit equals the stablecoin-equivalent net of every deposit
// minus every withdrawal, fee and redemption applied so far.
type Ledger struct {
	state State
}

// CrossChainFund is the capability handle for the reserve-mutating cross-chain
// operations. Only its holder (the cross-chain component) can earmark or
// return collateral; other callers go through the ordinary mint/redeem paths.
type CrossChainFund struct {
	ledger *Ledger
}

// NewLedger validates the configuration and returns the ledger together with
// its cross-chain capability.
func NewLedger(cfg Config) (*Ledger, *CrossChainFund, error) {
	if cfg.FeeRatioBps < MinRedeemFeeBps || cfg.FeeRatioBps > MaxRedeemFeeBps {
		return nil, nil, ErrFeeOutOfBounds
	}
	if cfg.MinAmount < MinMintFloor || cfg.MinAmount > MaxMintFloor {
		return nil, nil, ErrMinAmountOutOfBounds
	}
	if cfg.FeeRecipient == ([20]byte{}) {
		return nil, nil, ErrInvalidAddress
	}
	if cfg.Stablecoin.Token == ([20]byte{}) {
		return nil, nil, ErrInvalidAddress
	}
	ledger := &Ledger{state: State{
		FeeRecipient:       cfg.FeeRecipient,
		FeeRatioBps:        cfg.FeeRatioBps,
		MinAmount:          cfg.MinAmount,
		Stablecoin:         cfg.Stablecoin,
		DerivativeDecimals: cfg.DerivativeDecimals,
	}}
	return ledger, &CrossChainFund{ledger: ledger}, nil
}

// MintDeposit accounts for a local mint: the returned stablecoin amount is
// what the caller must pull from the user into the custodian account before
// minting amountDerivative of derivative token. Minting rounds up so the
// position is never under-collateralized.
func (l *Ledger) MintDeposit(amountDerivative uint64) (uint64, error) {
	if l.state.Paused {
		return 0, ErrPaused
	}
	if amountDerivative < l.state.MinAmount {
		return 0, ErrBelowMinimum
	}
	sc, err := l.toStablecoin(amountDerivative, RoundUp)
	if err != nil {
		return 0, err
	}
	updated := l.state.StablecoinReserves + sc
	if updated < l.state.StablecoinReserves {
		return 0, ErrAmountOverflow
	}
	l.state.StablecoinReserves = updated
	return sc, nil
}

// RedeemOutcome reports the stablecoin split of a redemption.
type RedeemOutcome struct {
	Gross uint64
	Fee   uint64
	Net   uint64
}

// RedeemWithdraw accounts for a local redemption: the caller burns
// amountDerivative from the user, pays Net to the user and Fee to the fee
// recipient. Redemption rounds down so the protocol never over-pays.
func (l *Ledger) RedeemWithdraw(amountDerivative uint64) (RedeemOutcome, error) {
	if l.state.Paused {
		return RedeemOutcome{}, ErrPaused
	}
	if amountDerivative < l.state.MinAmount {
		return RedeemOutcome{}, ErrBelowMinimum
	}
	sc, err := l.toStablecoin(amountDerivative, RoundDown)
	if err != nil {
		return RedeemOutcome{}, err
	}
	if l.state.StablecoinReserves < sc {
		return RedeemOutcome{}, ErrInsufficientReserves
	}
	fee := mulDivBps(sc, l.state.FeeRatioBps)
	net := sc - fee
	if net == 0 {
		return RedeemOutcome{}, ErrZeroAfterFee
	}
	l.state.StablecoinReserves -= sc
	l.state.AccumulatedFees += fee
	return RedeemOutcome{Gross: sc, Fee: fee, Net: net}, nil
}

// ReserveOutcome reports how a cross-chain reservation was applied.
type ReserveOutcome struct {
	// Converted is the stablecoin equivalent of the burned derivative amount.
	Converted uint64
	// Repaid went toward the outstanding deficit before anything was earmarked.
	Repaid uint64
	// Reserved was moved from local reserves into the cross-chain bucket.
	Reserved uint64
}

// Reserve earmarks collateral for a cross-chain burn whose derivative tokens
// have already been destroyed. Collateral freed by the burn first pays down
// any outstanding deficit before being set aside for the new leg; this keeps
// deficits from compounding across repeated cycles.
func (f *CrossChainFund) Reserve(amountDerivative uint64) (ReserveOutcome, error) {
	l := f.ledger
	sc, err := l.toStablecoin(amountDerivative, RoundDown)
	if err != nil {
		return ReserveOutcome{}, err
	}
	repay := uint64(0)
	if l.state.CrossChainDeficit > 0 {
		repay = min(sc, l.state.CrossChainDeficit)
	}
	toReserve := sc - repay
	if l.state.StablecoinReserves < toReserve {
		return ReserveOutcome{}, ErrInsufficientReserves
	}
	updated := l.state.CrossChainReserves + toReserve
	if updated < l.state.CrossChainReserves {
		return ReserveOutcome{}, ErrAmountOverflow
	}
	l.state.CrossChainDeficit -= repay
	l.state.StablecoinReserves -= toReserve
	l.state.CrossChainReserves = updated
	return ReserveOutcome{Converted: sc, Repaid: repay, Reserved: toReserve}, nil
}

// ReturnOutcome reports how a cross-chain return was settled.
type ReturnOutcome struct {
	// Converted is the stablecoin equivalent of the inbound mint amount.
	Converted uint64
	// FromReserves was covered by earmarked cross-chain collateral.
	FromReserves uint64
	// Shortfall was recorded as deficit to be repaid by future reservations.
	Shortfall uint64
}

// Return releases earmarked collateral back to local reserves ahead of a
// cross-chain mint. When the earmarked bucket cannot cover the full amount the
// shortfall is recorded as deficit rather than failing: the user already
// burned real value on the source chain, so the target-side mint must
// succeed. The only failure mode is numeric overflow.
func (f *CrossChainFund) Return(amountDerivative uint64) (ReturnOutcome, error) {
	l := f.ledger
	sc, err := l.toStablecoin(amountDerivative, RoundDown)
	if err != nil {
		return ReturnOutcome{}, err
	}
	covered := min(sc, l.state.CrossChainReserves)
	shortfall := sc - covered
	updatedReserves := l.state.StablecoinReserves + covered
	if updatedReserves < l.state.StablecoinReserves {
		return ReturnOutcome{}, ErrAmountOverflow
	}
	updatedDeficit := l.state.CrossChainDeficit + shortfall
	if updatedDeficit < l.state.CrossChainDeficit {
		return ReturnOutcome{}, ErrAmountOverflow
	}
	l.state.CrossChainReserves -= covered
	l.state.StablecoinReserves = updatedReserves
	l.state.CrossChainDeficit = updatedDeficit
	return ReturnOutcome{Converted: sc, FromReserves: covered, Shortfall: shortfall}, nil
}

// WithdrawCrossChainReserves releases earmarked collateral to an operator for
// rebalancing across chains. The amount is denominated in stablecoin units.
// This is the only path that shrinks the cross-chain bucket without a matching
// Return, so it can widen the window of an existing deficit.
func (l *Ledger) WithdrawCrossChainReserves(amount uint64) error {
	if l.state.CrossChainReserves < amount {
		return ErrInsufficientReserves
	}
	l.state.CrossChainReserves -= amount
	return nil
}

// Pause blocks the user-facing entry points. Pausing an already paused ledger
// fails.
func (l *Ledger) Pause() error {
	if l.state.Paused {
		return ErrInvalidState
	}
	l.state.Paused = true
	return nil
}

// Unpause re-enables the user-facing entry points.
func (l *Ledger) Unpause() error {
	if !l.state.Paused {
		return ErrInvalidState
	}
	l.state.Paused = false
	return nil
}

// SetFeeRatio updates the redemption fee within [MinRedeemFeeBps, MaxRedeemFeeBps].
func (l *Ledger) SetFeeRatio(bps uint64) error {
	if bps < MinRedeemFeeBps || bps > MaxRedeemFeeBps {
		return ErrFeeOutOfBounds
	}
	l.state.FeeRatioBps = bps
	return nil
}

// SetMinAmount updates the mint/redeem floor within [MinMintFloor, MaxMintFloor].
func (l *Ledger) SetMinAmount(minAmount uint64) error {
	if minAmount < MinMintFloor || minAmount > MaxMintFloor {
		return ErrMinAmountOutOfBounds
	}
	l.state.MinAmount = minAmount
	return nil
}

// SetFeeRecipient updates the redemption fee recipient.
func (l *Ledger) SetFeeRecipient(recipient [20]byte) error {
	if recipient == ([20]byte{}) {
		return ErrInvalidAddress
	}
	l.state.FeeRecipient = recipient
	return nil
}

// SetStablecoin repoints the reference asset identity and precision.
func (l *Ledger) SetStablecoin(sc Stablecoin) error {
	if sc.Token == ([20]byte{}) {
		return ErrInvalidAddress
	}
	l.state.Stablecoin = sc
	return nil
}

func (l *Ledger) StablecoinReserves() uint64 { return l.state.StablecoinReserves }
func (l *Ledger) CrossChainReserves() uint64 { return l.state.CrossChainReserves }
func (l *Ledger) CrossChainDeficit() uint64  { return l.state.CrossChainDeficit }
func (l *Ledger) AccumulatedFees() uint64    { return l.state.AccumulatedFees }

// TotalReserves reports the collateral custodied across both buckets.
func (l *Ledger) TotalReserves() uint64 {
	return l.state.StablecoinReserves + l.state.CrossChainReserves
}

func (l *Ledger) FeeRecipient() [20]byte  { return l.state.FeeRecipient }
func (l *Ledger) FeeRatioBps() uint64     { return l.state.FeeRatioBps }
func (l *Ledger) MinAmount() uint64       { return l.state.MinAmount }
func (l *Ledger) Stablecoin() Stablecoin  { return l.state.Stablecoin }
func (l *Ledger) Paused() bool            { return l.state.Paused }
func (l *Ledger) DerivativeDecimals() uint8 { return l.state.DerivativeDecimals }

// State returns a snapshot of the ledger.
func (l *Ledger) State() State { return l.state }

// Restore replaces the ledger state wholesale, for persistence loads and
// rollback after a failed external interaction.
func (l *Ledger) Restore(st State) { l.state = st }

func (l *Ledger) toStablecoin(amountDerivative uint64, rounding Rounding) (uint64, error) {
	return ToReferenceAmount(amountDerivative, l.state.DerivativeDecimals, l.state.Stablecoin.Decimals, rounding)
}
