package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validTOML = `
DerivativeDecimals = 6
LocalChainID = 900
Custodian = "0x0000000000000000000000000000000000000005"

[Stablecoin]
Token = "0x00000000000000000000000000000000000000aa"
Decimals = 6

[Fees]
Recipient = "0x0000000000000000000000000000000000000006"
RatioBps = 100
MinAmount = 1000
CrossChainBps = 30
DefaultGasFee = 100000

[CrossChain]
SupportedChains = [101, 102]

[[CrossChain.ChainGasFees]]
ChainID = 101
Fee = 40000

[Roles]
Owner = "0x0000000000000000000000000000000000000001"
Setter = "0x0000000000000000000000000000000000000002"
Balancer = "0x0000000000000000000000000000000000000003"
CrossChainMinter = "0x0000000000000000000000000000000000000004"
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.toml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validTOML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LocalChainID != 900 || cfg.Fees.RatioBps != 100 {
		t.Fatalf("unexpected config %+v", cfg)
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		t.Fatalf("engine config: %v", err)
	}
	if engineCfg.LocalChainID != 900 {
		t.Fatalf("unexpected chain id %d", engineCfg.LocalChainID)
	}
	if engineCfg.Ledger.Stablecoin.Decimals != 6 {
		t.Fatalf("unexpected stablecoin decimals %d", engineCfg.Ledger.Stablecoin.Decimals)
	}
	if got := engineCfg.ChainGasFeeOverride[101]; got != 40000 {
		t.Fatalf("expected gas override 40000, got %d", got)
	}
	if len(engineCfg.SupportedChains) != 2 {
		t.Fatalf("expected 2 supported chains, got %v", engineCfg.SupportedChains)
	}
	if engineCfg.Custodian == ([20]byte{}) {
		t.Fatal("custodian must be parsed")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	contents := validTOML + "\nMysteryKnob = true\n"
	if _, err := Load(writeConfig(t, contents)); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		from string
		to   string
	}{
		{"zero chain id", "LocalChainID = 900", "LocalChainID = 0"},
		{"fee out of bounds", "RatioBps = 100", "RatioBps = 5000"},
		{"floor out of bounds", "MinAmount = 1000", "MinAmount = 1"},
		{"cross-chain fee out of bounds", "CrossChainBps = 30", "CrossChainBps = 0"},
		{"bad custodian", `Custodian = "0x0000000000000000000000000000000000000005"`, `Custodian = "nope"`},
		{"bad owner", `Owner = "0x0000000000000000000000000000000000000001"`, `Owner = "0x01"`},
		{"local chain in supported set", "SupportedChains = [101, 102]", "SupportedChains = [101, 900]"},
	}
	for _, tc := range cases {
		contents := strings.Replace(validTOML, tc.from, tc.to, 1)
		if contents == validTOML {
			t.Fatalf("%s: replacement had no effect", tc.name)
		}
		if _, err := Load(writeConfig(t, contents)); err == nil {
			t.Fatalf("%s: expected validation failure", tc.name)
		}
	}
}
