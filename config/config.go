package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"weusd/core"
	"weusd/native/reserve"
)

// Config mirrors the engine genesis/runtime parameters as they appear in the
// TOML file.
type Config struct {
	DerivativeDecimals uint8  `toml:"DerivativeDecimals"`
	LocalChainID       uint64 `toml:"LocalChainID"`
	Custodian          string `toml:"Custodian"`

	Stablecoin struct {
		Token    string `toml:"Token"`
		Decimals uint8  `toml:"Decimals"`
	} `toml:"Stablecoin"`

	Fees struct {
		RecipientAddress string `toml:"Recipient"`
		RatioBps         uint64 `toml:"RatioBps"`
		MinAmount        uint64 `toml:"MinAmount"`
		CrossChainBps    uint64 `toml:"CrossChainBps"`
		DefaultGasFee    uint64 `toml:"DefaultGasFee"`
	} `toml:"Fees"`

	CrossChain struct {
		SupportedChains []uint64      `toml:"SupportedChains"`
		ChainGasFees    []ChainGasFee `toml:"ChainGasFees"`
	} `toml:"CrossChain"`

	Roles struct {
		Owner            string `toml:"Owner"`
		Setter           string `toml:"Setter"`
		Balancer         string `toml:"Balancer"`
		CrossChainMinter string `toml:"CrossChainMinter"`
	} `toml:"Roles"`
}

// ChainGasFee is a per-chain flat fee override.
type ChainGasFee struct {
	ChainID uint64 `toml:"ChainID"`
	Fee     uint64 `toml:"Fee"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown key %s", path, undecoded[0])
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and address formats without constructing the engine.
func (c *Config) Validate() error {
	if c.LocalChainID == 0 {
		return fmt.Errorf("local chain id must be set")
	}
	if c.Fees.RatioBps < reserve.MinRedeemFeeBps || c.Fees.RatioBps > reserve.MaxRedeemFeeBps {
		return fmt.Errorf("fee ratio %d outside [%d, %d]", c.Fees.RatioBps, reserve.MinRedeemFeeBps, reserve.MaxRedeemFeeBps)
	}
	if c.Fees.MinAmount < reserve.MinMintFloor || c.Fees.MinAmount > reserve.MaxMintFloor {
		return fmt.Errorf("min amount %d outside [%d, %d]", c.Fees.MinAmount, reserve.MinMintFloor, reserve.MaxMintFloor)
	}
	if c.Fees.CrossChainBps < reserve.MinCrossChainFeeBps || c.Fees.CrossChainBps > reserve.MaxCrossChainFeeBps {
		return fmt.Errorf("cross-chain fee %d outside [%d, %d]", c.Fees.CrossChainBps, reserve.MinCrossChainFeeBps, reserve.MaxCrossChainFeeBps)
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"custodian", c.Custodian},
		{"stablecoin token", c.Stablecoin.Token},
		{"fee recipient", c.Fees.RecipientAddress},
		{"owner", c.Roles.Owner},
		{"setter", c.Roles.Setter},
		{"balancer", c.Roles.Balancer},
		{"cross-chain minter", c.Roles.CrossChainMinter},
	} {
		if _, err := core.ParseAddress(field.value); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}
	for _, chain := range c.CrossChain.SupportedChains {
		if chain == c.LocalChainID {
			return fmt.Errorf("supported chains must not include the local chain %d", chain)
		}
	}
	return nil
}

// EngineConfig converts the file representation into the engine's
// construction parameters.
func (c *Config) EngineConfig() (core.Config, error) {
	if err := c.Validate(); err != nil {
		return core.Config{}, err
	}
	custodian, _ := core.ParseAddress(c.Custodian)
	token, _ := core.ParseAddress(c.Stablecoin.Token)
	recipient, _ := core.ParseAddress(c.Fees.RecipientAddress)
	owner, _ := core.ParseAddress(c.Roles.Owner)
	setter, _ := core.ParseAddress(c.Roles.Setter)
	balancer, _ := core.ParseAddress(c.Roles.Balancer)
	minter, _ := core.ParseAddress(c.Roles.CrossChainMinter)

	overrides := make(map[uint64]uint64, len(c.CrossChain.ChainGasFees))
	for _, entry := range c.CrossChain.ChainGasFees {
		overrides[entry.ChainID] = entry.Fee
	}
	return core.Config{
		Ledger: reserve.Config{
			DerivativeDecimals: c.DerivativeDecimals,
			Stablecoin:         reserve.Stablecoin{Token: token, Decimals: c.Stablecoin.Decimals},
			FeeRecipient:       recipient,
			FeeRatioBps:        c.Fees.RatioBps,
			MinAmount:          c.Fees.MinAmount,
		},
		CrossChainFeeBps:    c.Fees.CrossChainBps,
		DefaultGasFee:       c.Fees.DefaultGasFee,
		LocalChainID:        c.LocalChainID,
		Roles:               core.Accounts{Owner: owner, Setter: setter, Balancer: balancer, CrossChainMinter: minter},
		Custodian:           custodian,
		SupportedChains:     c.CrossChain.SupportedChains,
		ChainGasFeeOverride: overrides,
	}, nil
}
