package storage

import (
	"testing"
	"time"

	"weusd/native/crosschain"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(count uint64) crosschain.RequestRecord {
	return crosschain.RequestRecord{
		ID:            crosschain.ComposeRequestID(900, crosschain.ProtocolSalt, count),
		LocalUser:     [20]byte{0xA1},
		OuterUser:     "0xremote",
		Amount:        1_000 * count,
		IsBurn:        true,
		TargetChainID: 101,
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("   "); err != ErrPathRequired {
		t.Fatalf("expected ErrPathRequired, got %v", err)
	}
}

func TestArchiveAndGet(t *testing.T) {
	store := openTestStorage(t)
	fixed := time.Unix(1_700_000_000, 0)
	store.SetClock(func() time.Time { return fixed })

	record := testRecord(1)
	if err := store.ArchiveRequest(record, true); err != nil {
		t.Fatalf("archive: %v", err)
	}

	got, ok, err := store.Get(record.ID.Hex())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected archived row")
	}
	if got.Amount != 1_000 || got.Side != "source" || !got.IsBurn {
		t.Fatalf("unexpected row %+v", got)
	}
	if got.TargetChainID != 101 {
		t.Fatalf("unexpected chain %d", got.TargetChainID)
	}
	if got.ArchivedAt != fixed.Unix() {
		t.Fatalf("expected timestamp %d, got %d", fixed.Unix(), got.ArchivedAt)
	}

	if _, ok, err := store.Get("0xdeadbeef"); err != nil || ok {
		t.Fatalf("expected no row, got ok=%v err=%v", ok, err)
	}
}

func TestArchiveIsIdempotent(t *testing.T) {
	store := openTestStorage(t)
	record := testRecord(1)
	if err := store.ArchiveRequest(record, true); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if err := store.ArchiveRequest(record, true); err != nil {
		t.Fatalf("re-archive: %v", err)
	}
	count, err := store.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := openTestStorage(t)
	now := time.Unix(1_700_000_000, 0)
	for i := uint64(1); i <= 3; i++ {
		ts := now.Add(time.Duration(i) * time.Minute)
		store.SetClock(func() time.Time { return ts })
		if err := store.ArchiveRequest(testRecord(i), true); err != nil {
			t.Fatalf("archive %d: %v", i, err)
		}
	}

	rows, err := store.List(2, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Amount != 3_000 || rows[1].Amount != 2_000 {
		t.Fatalf("expected newest first, got %d then %d", rows[0].Amount, rows[1].Amount)
	}

	rows, err = store.List(2, 2)
	if err != nil {
		t.Fatalf("list offset: %v", err)
	}
	if len(rows) != 1 || rows[0].Amount != 1_000 {
		t.Fatalf("unexpected tail page %+v", rows)
	}
}
