package events

import "testing"

func TestMintDepositedAttributes(t *testing.T) {
	ev := MintDeposited{
		User:             [20]byte{0xAB},
		DerivativeAmount: 5_000,
		StablecoinAmount: 5_000,
		Reserves:         12_345,
	}.Event()

	if ev.Type != TypeMintDeposited {
		t.Fatalf("unexpected type %s", ev.Type)
	}
	if got := ev.Attributes["user"]; got != "ab00000000000000000000000000000000000000" {
		t.Fatalf("unexpected user attribute %q", got)
	}
	if got := ev.Attributes["reserves"]; got != "12345" {
		t.Fatalf("unexpected reserves attribute %q", got)
	}
}

func TestCrossChainBurnedAttributes(t *testing.T) {
	ev := CrossChainBurned{
		RequestID:     "0x01",
		User:          [20]byte{0x01},
		OuterUser:     "0xouter",
		BurnAmount:    100,
		Fee:           10,
		TargetChainID: 101,
		DeficitRepaid: 7,
	}.Event()

	if ev.Type != TypeCrossChainBurned {
		t.Fatalf("unexpected type %s", ev.Type)
	}
	for key, want := range map[string]string{
		"requestId":     "0x01",
		"outerUser":     "0xouter",
		"burnAmount":    "100",
		"fee":           "10",
		"targetChainId": "101",
		"deficitRepaid": "7",
	} {
		if got := ev.Attributes[key]; got != want {
			t.Fatalf("attribute %s: expected %q, got %q", key, want, got)
		}
	}
}

func TestNoopEmitter(t *testing.T) {
	// Must tolerate any event without effect or panic.
	NoopEmitter{}.Emit(Redeemed{User: [20]byte{1}, Gross: 10, Fee: 1, Net: 9})
}
