package reserve

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
)

type mockStorage struct {
	data map[string][]byte
}

func newMockStorage() *mockStorage {
	return &mockStorage{data: make(map[string][]byte)}
}

func (m *mockStorage) KVPut(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.data[string(key)] = encoded
	return nil
}

func (m *mockStorage) KVGet(key []byte, out interface{}) (bool, error) {
	raw, ok := m.data[string(key)]
	if !ok {
		return false, nil
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func TestStoreSaveLoad(t *testing.T) {
	store := NewStore(newMockStorage())

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}

	ledger, fund := newTestLedger(t)
	if _, err := ledger.MintDeposit(2_000); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := fund.Reserve(500); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := ledger.Pause(); err != nil {
		t.Fatalf("pause: %v", err)
	}

	if err := store.Save(ledger.State()); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, ok, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted state")
	}
	if loaded != ledger.State() {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", loaded, ledger.State())
	}
}

func TestStoreNotInitialised(t *testing.T) {
	var store *Store
	if err := store.Save(State{}); err == nil {
		t.Fatal("expected error from nil store")
	}
	if _, _, err := store.Load(); err == nil {
		t.Fatal("expected error from nil store")
	}
}
