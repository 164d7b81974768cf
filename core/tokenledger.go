package core

import (
	"errors"
	"sync"
)

var (
	// ErrZeroAmount indicates a token operation with a zero amount.
	ErrZeroAmount = errors.New("core: amount must be positive")
	// ErrInsufficientBalance indicates a burn or transfer exceeding the holder's balance.
	ErrInsufficientBalance = errors.New("core: insufficient token balance")
)

// DerivativeLedger is the opaque fungible ledger for the issued token. The
// engine treats it as an external collaborator: issuance bookkeeping happens
// here, balances live there.
type DerivativeLedger interface {
	Mint(to [20]byte, amount uint64) error
	Burn(from [20]byte, amount uint64) error
	Transfer(from, to [20]byte, amount uint64) error
	BalanceOf(addr [20]byte) uint64
	TotalSupply() uint64
}

// StablecoinLedger is the external ledger holding the reference asset.
type StablecoinLedger interface {
	Transfer(from, to [20]byte, amount uint64) error
	BalanceOf(addr [20]byte) uint64
}

// MemoryToken is an in-memory fungible ledger satisfying both collaborator
// interfaces, used by tests and the service's standalone mode.
type MemoryToken struct {
	mu       sync.Mutex
	balances map[[20]byte]uint64
	supply   uint64
}

// NewMemoryToken returns an empty ledger.
func NewMemoryToken() *MemoryToken {
	return &MemoryToken{balances: make(map[[20]byte]uint64)}
}

func (t *MemoryToken) Mint(to [20]byte, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[to] += amount
	t.supply += amount
	return nil
}

func (t *MemoryToken) Burn(from [20]byte, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.balances[from] < amount {
		return ErrInsufficientBalance
	}
	t.balances[from] -= amount
	t.supply -= amount
	return nil
}

func (t *MemoryToken) Transfer(from, to [20]byte, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.balances[from] < amount {
		return ErrInsufficientBalance
	}
	t.balances[from] -= amount
	t.balances[to] += amount
	return nil
}

func (t *MemoryToken) BalanceOf(addr [20]byte) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[addr]
}

func (t *MemoryToken) TotalSupply() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.supply
}
