package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	enginecfg "weusd/config"
	"weusd/core/state"
	"weusd/native/crosschain"
	"weusd/native/reserve"
	"weusd/storage"
)

type auditReport struct {
	LocalChainID       uint64   `json:"localChainId"`
	DerivativeDecimals uint8    `json:"derivativeDecimals"`
	StablecoinToken    string   `json:"stablecoinToken"`
	StablecoinDecimals uint8    `json:"stablecoinDecimals"`
	Custodian          string   `json:"custodian"`
	FeeRecipient       string   `json:"feeRecipient"`
	RedeemFeeBps       uint64   `json:"redeemFeeBps"`
	MinAmount          uint64   `json:"minAmount"`
	CrossChainFeeBps   uint64   `json:"crossChainFeeBps"`
	DefaultGasFee      uint64   `json:"defaultGasFee"`
	SupportedChains    []uint64 `json:"supportedChains"`

	State *stateReport `json:"state,omitempty"`
}

type stateReport struct {
	StablecoinReserves uint64 `json:"stablecoinReserves"`
	CrossChainReserves uint64 `json:"crossChainReserves"`
	CrossChainDeficit  uint64 `json:"crossChainDeficit"`
	AccumulatedFees    uint64 `json:"accumulatedFees"`
	Paused             bool   `json:"paused"`
	RequestCounter     uint64 `json:"requestCounter"`
	ActiveSource       int    `json:"activeSourceRequests"`
	ActiveTarget       int    `json:"activeTargetRequests"`
}

func main() {
	configPath := flag.String("config", "./engine.toml", "Path to the engine configuration file")
	dataDir := flag.String("data", "", "Optional daemon data directory; when set the persisted state is included")
	flag.Parse()

	cfg, err := enginecfg.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	report := auditReport{
		LocalChainID:       cfg.LocalChainID,
		DerivativeDecimals: cfg.DerivativeDecimals,
		StablecoinToken:    cfg.Stablecoin.Token,
		StablecoinDecimals: cfg.Stablecoin.Decimals,
		Custodian:          cfg.Custodian,
		FeeRecipient:       cfg.Fees.RecipientAddress,
		RedeemFeeBps:       cfg.Fees.RatioBps,
		MinAmount:          cfg.Fees.MinAmount,
		CrossChainFeeBps:   cfg.Fees.CrossChainBps,
		DefaultGasFee:      cfg.Fees.DefaultGasFee,
		SupportedChains:    cfg.CrossChain.SupportedChains,
	}

	if *dataDir != "" {
		st, err := loadState(*dataDir, cfg.LocalChainID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read state: %v\n", err)
			os.Exit(1)
		}
		report.State = st
	}

	output, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode report: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
}

func loadState(dataDir string, localChainID uint64) (*stateReport, error) {
	db, err := storage.NewLevelDB(filepath.Join(dataDir, "state"))
	if err != nil {
		return nil, err
	}
	defer db.Close()
	manager := state.NewManager(db)

	out := &stateReport{}
	ledgerState, ok, err := reserve.NewStore(manager).Load()
	if err != nil {
		return nil, err
	}
	if ok {
		out.StablecoinReserves = ledgerState.StablecoinReserves
		out.CrossChainReserves = ledgerState.CrossChainReserves
		out.CrossChainDeficit = ledgerState.CrossChainDeficit
		out.AccumulatedFees = ledgerState.AccumulatedFees
		out.Paused = ledgerState.Paused
	}

	registry, ok, err := crosschain.NewStore(manager).Load(localChainID)
	if err != nil {
		return nil, err
	}
	if ok {
		out.RequestCounter = registry.Counter()
		out.ActiveSource = len(registry.ActiveSourceIDs())
		out.ActiveTarget = len(registry.ActiveTargetIDs())
	}
	return out, nil
}
