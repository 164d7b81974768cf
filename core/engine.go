package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"weusd/core/events"
	"weusd/native/crosschain"
	"weusd/native/reserve"
	"weusd/observability"
)

// Archiver receives request records as they are removed from the registry's
// active lists, before deletion takes effect. Returning an error aborts the
// archival.
type Archiver interface {
	ArchiveRequest(record crosschain.RequestRecord, source bool) error
}

// Config assembles the engine's construction parameters.
type Config struct {
	Ledger              reserve.Config
	CrossChainFeeBps    uint64
	DefaultGasFee       uint64
	LocalChainID        uint64
	Roles               Accounts
	Custodian           [20]byte
	SupportedChains     []uint64
	ChainGasFeeOverride map[uint64]uint64
}

// Engine is the single-writer facade over the reserve ledger and the
// cross-chain request registry. One mutex guards both structures because
// several operations mutate them jointly; every public operation is atomic
// with respect to the others.
type Engine struct {
	mu sync.Mutex

	ledger   *reserve.Ledger
	fund     *reserve.CrossChainFund
	fees     *reserve.FeeSchedule
	registry *crosschain.Registry

	roles     Accounts
	token     DerivativeLedger
	stable    StablecoinLedger
	custodian [20]byte

	emitter  events.Emitter
	metrics  *observability.ReserveMetrics
	tracer   trace.Tracer
	archiver Archiver

	reserveStore  *reserve.Store
	registryStore *crosschain.Store
}

// NewEngine wires the ledger, fee schedule and registry behind one mutex. The
// token ledgers are external collaborators and must be provided.
func NewEngine(cfg Config, token DerivativeLedger, stable StablecoinLedger) (*Engine, error) {
	if token == nil || stable == nil {
		return nil, fmt.Errorf("core: token ledgers must be provided")
	}
	if cfg.Custodian == ([20]byte{}) {
		return nil, reserve.ErrInvalidAddress
	}
	ledger, fund, err := reserve.NewLedger(cfg.Ledger)
	if err != nil {
		return nil, err
	}
	fees, err := reserve.NewFeeSchedule(cfg.CrossChainFeeBps, cfg.DefaultGasFee)
	if err != nil {
		return nil, err
	}
	for chain, fee := range cfg.ChainGasFeeOverride {
		fees.SetChainGasFee(chain, fee)
	}
	registry := crosschain.NewRegistry(cfg.LocalChainID)
	for _, chain := range cfg.SupportedChains {
		registry.AddSupportedChain(chain)
	}
	return &Engine{
		ledger:    ledger,
		fund:      fund,
		fees:      fees,
		registry:  registry,
		roles:     cfg.Roles,
		token:     token,
		stable:    stable,
		custodian: cfg.Custodian,
		emitter:   events.NoopEmitter{},
		metrics:   observability.Reserve(),
		tracer:    otel.Tracer("weusd/core"),
	}, nil
}

// SetEmitter configures the event emitter. Passing nil restores the no-op
// emitter.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetArchiver configures the archival sink for removed request records.
func (e *Engine) SetArchiver(archiver Archiver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.archiver = archiver
}

// AttachStores wires write-through persistence. When a persisted ledger or
// registry exists in the backing state it is loaded, replacing the freshly
// constructed instances.
func (e *Engine) AttachStores(reserveStore *reserve.Store, registryStore *crosschain.Store) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if reserveStore != nil {
		st, ok, err := reserveStore.Load()
		if err != nil {
			return fmt.Errorf("load reserve state: %w", err)
		}
		if ok {
			e.ledger.Restore(st)
		}
		e.reserveStore = reserveStore
	}
	if registryStore != nil {
		loaded, ok, err := registryStore.Load(e.registry.LocalChainID())
		if err != nil {
			return fmt.Errorf("load registry: %w", err)
		}
		if ok {
			e.registry = loaded
		}
		e.registryStore = registryStore
	}
	e.refreshGauges()
	return nil
}

// MintDeposit mints amount of derivative token to the caller against a
// rounded-up stablecoin deposit pulled into the custodian account. Returns
// the stablecoin amount collected.
func (e *Engine) MintDeposit(ctx context.Context, caller [20]byte, amount uint64) (scAmount uint64, err error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.mint_deposit")
	defer span.End()
	defer func() { e.observe(span, "mint_deposit", start, err) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	if caller == ([20]byte{}) {
		return 0, reserve.ErrInvalidAddress
	}
	snapshot := e.ledger.State()
	scAmount, err = e.ledger.MintDeposit(amount)
	if err != nil {
		return 0, err
	}
	if err = e.stable.Transfer(caller, e.custodian, scAmount); err != nil {
		e.ledger.Restore(snapshot)
		return 0, fmt.Errorf("pull deposit: %w", err)
	}
	if err = e.token.Mint(caller, amount); err != nil {
		// Return the pulled deposit before unwinding the ledger.
		if refundErr := e.stable.Transfer(e.custodian, caller, scAmount); refundErr != nil {
			e.ledger.Restore(snapshot)
			return 0, fmt.Errorf("mint failed (%v) and refund failed: %w", err, refundErr)
		}
		e.ledger.Restore(snapshot)
		return 0, fmt.Errorf("mint derivative: %w", err)
	}
	if err = e.persistLedger(); err != nil {
		return 0, err
	}
	e.emitter.Emit(events.MintDeposited{
		User:             caller,
		DerivativeAmount: amount,
		StablecoinAmount: scAmount,
		Reserves:         e.ledger.StablecoinReserves(),
	})
	return scAmount, nil
}

// RedeemWithdraw burns amount of derivative token from the caller and pays
// out the rounded-down stablecoin equivalent, net of the redemption fee which
// goes to the fee recipient.
func (e *Engine) RedeemWithdraw(ctx context.Context, caller [20]byte, amount uint64) (outcome reserve.RedeemOutcome, err error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.redeem_withdraw")
	defer span.End()
	defer func() { e.observe(span, "redeem_withdraw", start, err) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	if caller == ([20]byte{}) {
		return reserve.RedeemOutcome{}, reserve.ErrInvalidAddress
	}
	snapshot := e.ledger.State()
	outcome, err = e.ledger.RedeemWithdraw(amount)
	if err != nil {
		return reserve.RedeemOutcome{}, err
	}
	if err = e.token.Burn(caller, amount); err != nil {
		e.ledger.Restore(snapshot)
		return reserve.RedeemOutcome{}, fmt.Errorf("burn derivative: %w", err)
	}
	if err = e.stable.Transfer(e.custodian, caller, outcome.Net); err != nil {
		e.ledger.Restore(snapshot)
		return reserve.RedeemOutcome{}, fmt.Errorf("pay redemption: %w", err)
	}
	if outcome.Fee > 0 {
		if err = e.stable.Transfer(e.custodian, e.ledger.FeeRecipient(), outcome.Fee); err != nil {
			e.ledger.Restore(snapshot)
			return reserve.RedeemOutcome{}, fmt.Errorf("pay fee: %w", err)
		}
	}
	if err = e.persistLedger(); err != nil {
		return reserve.RedeemOutcome{}, err
	}
	e.emitter.Emit(events.Redeemed{
		User:             caller,
		DerivativeAmount: amount,
		Gross:            outcome.Gross,
		Fee:              outcome.Fee,
		Net:              outcome.Net,
	})
	return outcome, nil
}

// BurnCrossChain burns the caller's derivative tokens for settlement on the
// target chain. The total fee (per-chain gas fee plus percentage) is paid in
// derivative token to the fee recipient; the remainder is burned and its
// collateral earmarked, paying down any outstanding deficit first. Returns
// the new request id.
func (e *Engine) BurnCrossChain(ctx context.Context, caller [20]byte, outerUser string, amount, targetChainID uint64) (id crosschain.RequestID, err error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.burn_cross_chain")
	defer span.End()
	defer func() { e.observe(span, "burn_cross_chain", start, err) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	if caller == ([20]byte{}) {
		return crosschain.RequestID{}, reserve.ErrInvalidAddress
	}
	if e.ledger.Paused() {
		return crosschain.RequestID{}, reserve.ErrPaused
	}
	if targetChainID == e.registry.LocalChainID() || !e.registry.IsSupported(targetChainID) {
		return crosschain.RequestID{}, crosschain.ErrUnsupportedChain
	}
	totalFee, err := e.fees.TotalFee(targetChainID, amount)
	if err != nil {
		return crosschain.RequestID{}, err
	}
	if amount <= totalFee {
		return crosschain.RequestID{}, crosschain.ErrAmountTooLow
	}
	burnAmount := amount - totalFee
	if burnAmount == 0 {
		// Implied by the strict fee check above; kept as an explicit guard.
		return crosschain.RequestID{}, crosschain.ErrAmountTooLow
	}
	snapshot := e.ledger.State()
	reserveOutcome, err := e.fund.Reserve(burnAmount)
	if err != nil {
		return crosschain.RequestID{}, err
	}
	if err = e.token.Transfer(caller, e.ledger.FeeRecipient(), totalFee); err != nil {
		e.ledger.Restore(snapshot)
		return crosschain.RequestID{}, fmt.Errorf("collect fee: %w", err)
	}
	if err = e.token.Burn(caller, burnAmount); err != nil {
		if refundErr := e.token.Transfer(e.ledger.FeeRecipient(), caller, totalFee); refundErr != nil {
			e.ledger.Restore(snapshot)
			return crosschain.RequestID{}, fmt.Errorf("burn failed (%v) and fee refund failed: %w", err, refundErr)
		}
		e.ledger.Restore(snapshot)
		return crosschain.RequestID{}, fmt.Errorf("burn derivative: %w", err)
	}
	id = e.registry.NextSourceID()
	record := crosschain.RequestRecord{
		ID:            id,
		LocalUser:     caller,
		OuterUser:     outerUser,
		Amount:        burnAmount,
		IsBurn:        true,
		TargetChainID: targetChainID,
	}
	if err = e.registry.Create(record); err != nil {
		// Unreachable for a freshly issued counter; surface it anyway.
		e.ledger.Restore(snapshot)
		return crosschain.RequestID{}, err
	}
	if err = e.persistLedger(); err != nil {
		return crosschain.RequestID{}, err
	}
	if err = e.persistRecordCreate(record); err != nil {
		return crosschain.RequestID{}, err
	}
	e.emitter.Emit(events.CrossChainBurned{
		RequestID:     id.Hex(),
		User:          caller,
		OuterUser:     outerUser,
		BurnAmount:    burnAmount,
		Fee:           totalFee,
		TargetChainID: targetChainID,
		DeficitRepaid: reserveOutcome.Repaid,
	})
	return id, nil
}

// CrossChainMint describes one inbound settlement leg.
type CrossChainMint struct {
	ID        crosschain.RequestID
	LocalUser [20]byte
	OuterUser string
	Amount    uint64
}

// MintCrossChain settles an inbound request by minting to the local user.
// Only the cross-chain minter role may call it, and it remains callable while
// paused: inbound settlement must not be blockable by pausing outbound user
// actions. The reserve side never rejects the mint; a shortfall is recorded
// as deficit.
func (e *Engine) MintCrossChain(ctx context.Context, caller [20]byte, mint CrossChainMint) (err error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.mint_cross_chain")
	defer span.End()
	defer func() { e.observe(span, "mint_cross_chain", start, err) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err = e.roles.Authorize(caller, RoleCrossChainMinter); err != nil {
		return err
	}
	return e.mintCrossChainLocked(mint)
}

// BatchMintCrossChain settles a batch of inbound requests, skipping ids that
// are already registered so relayers can resubmit overlapping batches. The
// returned slice holds the ids actually minted.
func (e *Engine) BatchMintCrossChain(ctx context.Context, caller [20]byte, mints []CrossChainMint) (settled []crosschain.RequestID, err error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.batch_mint_cross_chain")
	defer span.End()
	defer func() { e.observe(span, "batch_mint_cross_chain", start, err) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err = e.roles.Authorize(caller, RoleCrossChainMinter); err != nil {
		return nil, err
	}
	settled = make([]crosschain.RequestID, 0, len(mints))
	for _, mint := range mints {
		if e.registry.Exists(mint.ID) {
			continue
		}
		if err = e.mintCrossChainLocked(mint); err != nil {
			return settled, err
		}
		settled = append(settled, mint.ID)
	}
	return settled, nil
}

func (e *Engine) mintCrossChainLocked(mint CrossChainMint) error {
	if mint.ID.IsZero() {
		return crosschain.ErrInvalidRequestID
	}
	if e.registry.Exists(mint.ID) {
		return crosschain.ErrDuplicateRequest
	}
	if mint.LocalUser == ([20]byte{}) {
		return reserve.ErrInvalidAddress
	}
	if mint.Amount == 0 {
		return ErrZeroAmount
	}
	snapshot := e.ledger.State()
	returnOutcome, err := e.fund.Return(mint.Amount)
	if err != nil {
		return err
	}
	if err := e.token.Mint(mint.LocalUser, mint.Amount); err != nil {
		e.ledger.Restore(snapshot)
		return fmt.Errorf("mint derivative: %w", err)
	}
	record := crosschain.RequestRecord{
		ID:            mint.ID,
		LocalUser:     mint.LocalUser,
		OuterUser:     mint.OuterUser,
		Amount:        mint.Amount,
		IsBurn:        false,
		TargetChainID: e.registry.LocalChainID(),
	}
	if err := e.registry.Create(record); err != nil {
		e.ledger.Restore(snapshot)
		return err
	}
	if err := e.persistLedger(); err != nil {
		return err
	}
	if err := e.persistRecordCreate(record); err != nil {
		return err
	}
	e.emitter.Emit(events.CrossChainMinted{
		RequestID:     mint.ID.Hex(),
		User:          mint.LocalUser,
		OuterUser:     mint.OuterUser,
		Amount:        mint.Amount,
		SourceChainID: mint.ID.SourceChainID(),
		Shortfall:     returnOutcome.Shortfall,
	})
	return nil
}

// WithdrawCrossChainReserves releases earmarked collateral to the recipient
// for rebalancing across deployments. Balancer only.
func (e *Engine) WithdrawCrossChainReserves(ctx context.Context, caller [20]byte, amount uint64, recipient [20]byte) (err error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.withdraw_cross_chain_reserves")
	defer span.End()
	defer func() { e.observe(span, "withdraw_cross_chain_reserves", start, err) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err = e.roles.Authorize(caller, RoleBalancer); err != nil {
		return err
	}
	if recipient == ([20]byte{}) {
		return reserve.ErrInvalidAddress
	}
	snapshot := e.ledger.State()
	if err = e.ledger.WithdrawCrossChainReserves(amount); err != nil {
		return err
	}
	if err = e.stable.Transfer(e.custodian, recipient, amount); err != nil {
		e.ledger.Restore(snapshot)
		return fmt.Errorf("transfer reserves: %w", err)
	}
	if err = e.persistLedger(); err != nil {
		return err
	}
	e.emitter.Emit(events.ReservesWithdrawn{
		Recipient: recipient,
		Amount:    amount,
		Remaining: e.ledger.CrossChainReserves(),
	})
	return nil
}

func (e *Engine) observe(span trace.Span, op string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	e.metrics.Observe(op, time.Since(start), err)
}

func (e *Engine) refreshGauges() {
	e.metrics.SetBalances(
		e.ledger.StablecoinReserves(),
		e.ledger.CrossChainReserves(),
		e.ledger.CrossChainDeficit(),
		e.ledger.AccumulatedFees(),
	)
}

func (e *Engine) persistLedger() error {
	e.refreshGauges()
	if e.reserveStore == nil {
		return nil
	}
	if err := e.reserveStore.Save(e.ledger.State()); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	return nil
}

func (e *Engine) persistRecordCreate(record crosschain.RequestRecord) error {
	if e.registryStore == nil {
		return nil
	}
	if err := e.registryStore.SaveRecord(record); err != nil {
		return fmt.Errorf("persist record: %w", err)
	}
	if err := e.registryStore.SaveIndex(e.registry); err != nil {
		return fmt.Errorf("persist registry index: %w", err)
	}
	return nil
}

func (e *Engine) persistRecordDelete(id crosschain.RequestID) error {
	if e.registryStore == nil {
		return nil
	}
	if err := e.registryStore.DeleteRecord(id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if err := e.registryStore.SaveIndex(e.registry); err != nil {
		return fmt.Errorf("persist registry index: %w", err)
	}
	return nil
}
