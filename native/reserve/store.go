package reserve

import "fmt"

// Storage abstracts the subset of state manager functionality required to
// persist the reserve ledger.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var ledgerStateKey = []byte("reserve/state")

type storedState struct {
	StablecoinReserves uint64
	CrossChainReserves uint64
	CrossChainDeficit  uint64
	AccumulatedFees    uint64
	FeeRecipient       [20]byte
	FeeRatioBps        uint64
	MinAmount          uint64
	StablecoinToken    [20]byte
	StablecoinDecimals uint8
	DerivativeDecimals uint8
	Paused             bool
}

// Store persists ledger snapshots in the underlying key-value state.
type Store struct {
	store Storage
}

// NewStore binds a store to the provided storage backend.
func NewStore(store Storage) *Store {
	return &Store{store: store}
}

// Save writes the supplied snapshot, replacing any previous one.
func (s *Store) Save(st State) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("reserve: store not initialised")
	}
	return s.store.KVPut(ledgerStateKey, storedState{
		StablecoinReserves: st.StablecoinReserves,
		CrossChainReserves: st.CrossChainReserves,
		CrossChainDeficit:  st.CrossChainDeficit,
		AccumulatedFees:    st.AccumulatedFees,
		FeeRecipient:       st.FeeRecipient,
		FeeRatioBps:        st.FeeRatioBps,
		MinAmount:          st.MinAmount,
		StablecoinToken:    st.Stablecoin.Token,
		StablecoinDecimals: st.Stablecoin.Decimals,
		DerivativeDecimals: st.DerivativeDecimals,
		Paused:             st.Paused,
	})
}

// Load reads the persisted snapshot. The boolean reports whether one existed.
func (s *Store) Load() (State, bool, error) {
	if s == nil || s.store == nil {
		return State{}, false, fmt.Errorf("reserve: store not initialised")
	}
	var stored storedState
	ok, err := s.store.KVGet(ledgerStateKey, &stored)
	if err != nil || !ok {
		return State{}, ok, err
	}
	return State{
		StablecoinReserves: stored.StablecoinReserves,
		CrossChainReserves: stored.CrossChainReserves,
		CrossChainDeficit:  stored.CrossChainDeficit,
		AccumulatedFees:    stored.AccumulatedFees,
		FeeRecipient:       stored.FeeRecipient,
		FeeRatioBps:        stored.FeeRatioBps,
		MinAmount:          stored.MinAmount,
		Stablecoin:         Stablecoin{Token: stored.StablecoinToken, Decimals: stored.StablecoinDecimals},
		DerivativeDecimals: stored.DerivativeDecimals,
		Paused:             stored.Paused,
	}, true, nil
}
