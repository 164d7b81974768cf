package events

import (
	"encoding/hex"
	"strconv"
)

const (
	TypeMintDeposited         = "reserve.mint_deposited"
	TypeRedeemed              = "reserve.redeemed"
	TypeCrossChainBurned      = "crosschain.burned"
	TypeCrossChainMinted      = "crosschain.minted"
	TypeReservesWithdrawn     = "crosschain.reserves_withdrawn"
	TypeRequestArchived       = "crosschain.request_archived"
	TypePauseChanged          = "reserve.pause_changed"
	TypeParamUpdated          = "reserve.param_updated"
	TypeSupportedChainAdded   = "crosschain.chain_added"
	TypeSupportedChainRemoved = "crosschain.chain_removed"
)

// MintDeposited records a local mint against fresh collateral.
type MintDeposited struct {
	User             [20]byte
	DerivativeAmount uint64
	StablecoinAmount uint64
	Reserves         uint64
}

func (MintDeposited) EventType() string { return TypeMintDeposited }

func (e MintDeposited) Event() *Event {
	return &Event{
		Type: TypeMintDeposited,
		Attributes: map[string]string{
			"user":             hex.EncodeToString(e.User[:]),
			"derivativeAmount": strconv.FormatUint(e.DerivativeAmount, 10),
			"stablecoinAmount": strconv.FormatUint(e.StablecoinAmount, 10),
			"reserves":         strconv.FormatUint(e.Reserves, 10),
		},
	}
}

// Redeemed records a local redemption and its fee split.
type Redeemed struct {
	User             [20]byte
	DerivativeAmount uint64
	Gross            uint64
	Fee              uint64
	Net              uint64
}

func (Redeemed) EventType() string { return TypeRedeemed }

func (e Redeemed) Event() *Event {
	return &Event{
		Type: TypeRedeemed,
		Attributes: map[string]string{
			"user":             hex.EncodeToString(e.User[:]),
			"derivativeAmount": strconv.FormatUint(e.DerivativeAmount, 10),
			"gross":            strconv.FormatUint(e.Gross, 10),
			"fee":              strconv.FormatUint(e.Fee, 10),
			"net":              strconv.FormatUint(e.Net, 10),
		},
	}
}

// CrossChainBurned records the source leg of a cross-chain transfer.
type CrossChainBurned struct {
	RequestID     string
	User          [20]byte
	OuterUser     string
	BurnAmount    uint64
	Fee           uint64
	TargetChainID uint64
	DeficitRepaid uint64
}

func (CrossChainBurned) EventType() string { return TypeCrossChainBurned }

func (e CrossChainBurned) Event() *Event {
	return &Event{
		Type: TypeCrossChainBurned,
		Attributes: map[string]string{
			"requestId":     e.RequestID,
			"user":          hex.EncodeToString(e.User[:]),
			"outerUser":     e.OuterUser,
			"burnAmount":    strconv.FormatUint(e.BurnAmount, 10),
			"fee":           strconv.FormatUint(e.Fee, 10),
			"targetChainId": strconv.FormatUint(e.TargetChainID, 10),
			"deficitRepaid": strconv.FormatUint(e.DeficitRepaid, 10),
		},
	}
}

// CrossChainMinted records the target leg of a cross-chain transfer.
type CrossChainMinted struct {
	RequestID     string
	User          [20]byte
	OuterUser     string
	Amount        uint64
	SourceChainID uint64
	Shortfall     uint64
}

func (CrossChainMinted) EventType() string { return TypeCrossChainMinted }

func (e CrossChainMinted) Event() *Event {
	return &Event{
		Type: TypeCrossChainMinted,
		Attributes: map[string]string{
			"requestId":     e.RequestID,
			"user":          hex.EncodeToString(e.User[:]),
			"outerUser":     e.OuterUser,
			"amount":        strconv.FormatUint(e.Amount, 10),
			"sourceChainId": strconv.FormatUint(e.SourceChainID, 10),
			"shortfall":     strconv.FormatUint(e.Shortfall, 10),
		},
	}
}

// ReservesWithdrawn records an operator rebalance out of the cross-chain
// bucket.
type ReservesWithdrawn struct {
	Recipient [20]byte
	Amount    uint64
	Remaining uint64
}

func (ReservesWithdrawn) EventType() string { return TypeReservesWithdrawn }

func (e ReservesWithdrawn) Event() *Event {
	return &Event{
		Type: TypeReservesWithdrawn,
		Attributes: map[string]string{
			"recipient": hex.EncodeToString(e.Recipient[:]),
			"amount":    strconv.FormatUint(e.Amount, 10),
			"remaining": strconv.FormatUint(e.Remaining, 10),
		},
	}
}

// RequestArchived records the removal of a request from an active list.
type RequestArchived struct {
	RequestID string
	Source    bool
}

func (RequestArchived) EventType() string { return TypeRequestArchived }

func (e RequestArchived) Event() *Event {
	return &Event{
		Type: TypeRequestArchived,
		Attributes: map[string]string{
			"requestId": e.RequestID,
			"source":    strconv.FormatBool(e.Source),
		},
	}
}

// PauseChanged records a pause or unpause transition.
type PauseChanged struct {
	Paused bool
}

func (PauseChanged) EventType() string { return TypePauseChanged }

func (e PauseChanged) Event() *Event {
	return &Event{
		Type:       TypePauseChanged,
		Attributes: map[string]string{"paused": strconv.FormatBool(e.Paused)},
	}
}

// ParamUpdated records an administrative parameter change.
type ParamUpdated struct {
	Name  string
	Value string
}

func (ParamUpdated) EventType() string { return TypeParamUpdated }

func (e ParamUpdated) Event() *Event {
	return &Event{
		Type:       TypeParamUpdated,
		Attributes: map[string]string{"name": e.Name, "value": e.Value},
	}
}

// SupportedChainChanged records membership changes of the supported set.
type SupportedChainChanged struct {
	ChainID uint64
	Added   bool
}

func (e SupportedChainChanged) EventType() string {
	if e.Added {
		return TypeSupportedChainAdded
	}
	return TypeSupportedChainRemoved
}

func (e SupportedChainChanged) Event() *Event {
	return &Event{
		Type:       e.EventType(),
		Attributes: map[string]string{"chainId": strconv.FormatUint(e.ChainID, 10)},
	}
}
