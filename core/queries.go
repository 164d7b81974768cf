package core

import (
	"weusd/native/crosschain"
	"weusd/native/reserve"
)

// ReserveView is a read-only snapshot of the ledger balances and parameters.
type ReserveView struct {
	StablecoinReserves uint64
	CrossChainReserves uint64
	CrossChainDeficit  uint64
	AccumulatedFees    uint64
	TotalReserves      uint64
	FeeRecipient       [20]byte
	FeeRatioBps        uint64
	MinAmount          uint64
	Stablecoin         reserve.Stablecoin
	Paused             bool
}

// Reserves returns the current ledger view.
func (e *Engine) Reserves() ReserveView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ReserveView{
		StablecoinReserves: e.ledger.StablecoinReserves(),
		CrossChainReserves: e.ledger.CrossChainReserves(),
		CrossChainDeficit:  e.ledger.CrossChainDeficit(),
		AccumulatedFees:    e.ledger.AccumulatedFees(),
		TotalReserves:      e.ledger.TotalReserves(),
		FeeRecipient:       e.ledger.FeeRecipient(),
		FeeRatioBps:        e.ledger.FeeRatioBps(),
		MinAmount:          e.ledger.MinAmount(),
		Stablecoin:         e.ledger.Stablecoin(),
		Paused:             e.ledger.Paused(),
	}
}

// TotalReserves reports collateral custodied across both buckets.
func (e *Engine) TotalReserves() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.TotalReserves()
}

// CrossChainReserves reports the earmarked bucket.
func (e *Engine) CrossChainReserves() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.CrossChainReserves()
}

// CrossChainDeficit reports the outstanding shortfall.
func (e *Engine) CrossChainDeficit() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.CrossChainDeficit()
}

// AccumulatedFees reports the running redemption fee counter.
func (e *Engine) AccumulatedFees() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.AccumulatedFees()
}

// QuoteCrossChainFee previews the total fee for a burn of amount to the
// target chain.
func (e *Engine) QuoteCrossChainFee(targetChainID, amount uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fees.TotalFee(targetChainID, amount)
}

// RequestByID resolves one request record.
func (e *Engine) RequestByID(id crosschain.RequestID) (crosschain.RequestRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Get(id)
}

// BatchRequestByID resolves each id; missing entries have the zero sentinel id.
func (e *Engine) BatchRequestByID(ids []crosschain.RequestID) []crosschain.RequestRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.BatchGet(ids)
}

// RequestExists reports whether the id is registered.
func (e *Engine) RequestExists(id crosschain.RequestID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Exists(id)
}

// BatchRequestExists resolves existence for each id in order.
func (e *Engine) BatchRequestExists(ids []crosschain.RequestID) []bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.BatchExists(ids)
}

// UserSourceRequests pages the user's burn-originated requests newest first.
func (e *Engine) UserSourceRequests(user [20]byte, page, pageSize uint64) ([]crosschain.RequestRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.UserSourceRequests(user, page, pageSize)
}

// UserTargetRequests pages the user's mint-originated requests newest first.
func (e *Engine) UserTargetRequests(user [20]byte, page, pageSize uint64) ([]crosschain.RequestRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.UserTargetRequests(user, page, pageSize)
}

// RequestByCount resolves a locally numbered request by counter value.
func (e *Engine) RequestByCount(count uint64) (crosschain.RequestRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.RequestByCount(count)
}

// RequestsFromCount resolves up to limit locally numbered requests starting
// at the given counter value.
func (e *Engine) RequestsFromCount(start, limit uint64) []crosschain.RequestRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.RequestsFromCount(start, limit)
}

// RequestCounter reports the last locally issued request count.
func (e *Engine) RequestCounter() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Counter()
}

// SupportedChains lists the chains burns may currently target.
func (e *Engine) SupportedChains() []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.SupportedChains()
}

// Roles returns the current role assignments.
func (e *Engine) Roles() Accounts {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roles
}
