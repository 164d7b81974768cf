package crosschain

import "fmt"

// Storage abstracts the subset of state manager functionality required to
// persist the registry.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
}

var (
	recordPrefix     = []byte("crosschain/req/")
	registryIndexKey = []byte("crosschain/index")
)

type storedRequestRecord struct {
	ID            [32]byte
	LocalUser     [20]byte
	OuterUser     string
	Amount        uint64
	IsBurn        bool
	TargetChainID uint64
}

type storedRegistryIndex struct {
	Counter         uint64
	ActiveSource    [][32]byte
	ActiveTarget    [][32]byte
	SupportedChains []uint64
}

// Store persists request records and the registry index structures. Records
// are written row-by-row; the index blob carries the counter, both active
// lists and the supported-chain set so the whole registry reloads as one
// consistency domain.
type Store struct {
	store Storage
}

// NewStore binds a store to the provided storage backend.
func NewStore(store Storage) *Store {
	return &Store{store: store}
}

func recordKey(id RequestID) []byte {
	return append(append([]byte(nil), recordPrefix...), id[:]...)
}

// SaveRecord writes one request record row.
func (s *Store) SaveRecord(rec RequestRecord) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("crosschain: store not initialised")
	}
	return s.store.KVPut(recordKey(rec.ID), storedRequestRecord{
		ID:            rec.ID,
		LocalUser:     rec.LocalUser,
		OuterUser:     rec.OuterUser,
		Amount:        rec.Amount,
		IsBurn:        rec.IsBurn,
		TargetChainID: rec.TargetChainID,
	})
}

// DeleteRecord drops a request record row after archival.
func (s *Store) DeleteRecord(id RequestID) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("crosschain: store not initialised")
	}
	return s.store.KVDelete(recordKey(id))
}

// SaveIndex writes the registry index blob from the live registry.
func (s *Store) SaveIndex(r *Registry) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("crosschain: store not initialised")
	}
	index := storedRegistryIndex{
		Counter:         r.counter,
		ActiveSource:    make([][32]byte, len(r.activeSource)),
		ActiveTarget:    make([][32]byte, len(r.activeTarget)),
		SupportedChains: r.SupportedChains(),
	}
	for i, id := range r.activeSource {
		index.ActiveSource[i] = id
	}
	for i, id := range r.activeTarget {
		index.ActiveTarget[i] = id
	}
	return s.store.KVPut(registryIndexKey, index)
}

// Load rebuilds a registry from persisted state. The boolean reports whether
// a persisted registry existed.
func (s *Store) Load(localChainID uint64) (*Registry, bool, error) {
	if s == nil || s.store == nil {
		return nil, false, fmt.Errorf("crosschain: store not initialised")
	}
	var index storedRegistryIndex
	ok, err := s.store.KVGet(registryIndexKey, &index)
	if err != nil || !ok {
		return nil, ok, err
	}
	registry := NewRegistry(localChainID)
	registry.counter = index.Counter
	for _, chain := range index.SupportedChains {
		registry.supported[chain] = true
	}
	load := func(ids [][32]byte, source bool) error {
		for _, raw := range ids {
			id := RequestID(raw)
			var stored storedRequestRecord
			found, err := s.store.KVGet(recordKey(id), &stored)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("crosschain: active record %s missing: %w", id.Hex(), ErrRequestNotFound)
			}
			rec := RequestRecord{
				ID:            stored.ID,
				LocalUser:     stored.LocalUser,
				OuterUser:     stored.OuterUser,
				Amount:        stored.Amount,
				IsBurn:        stored.IsBurn,
				TargetChainID: stored.TargetChainID,
			}
			if rec.IsBurn != source {
				return fmt.Errorf("crosschain: record %s indexed on wrong side: %w", id.Hex(), ErrInvalidRequestID)
			}
			if err := registry.Create(rec); err != nil {
				return err
			}
		}
		return nil
	}
	if err := load(index.ActiveSource, true); err != nil {
		return nil, false, err
	}
	if err := load(index.ActiveTarget, false); err != nil {
		return nil, false, err
	}
	return registry, true, nil
}
