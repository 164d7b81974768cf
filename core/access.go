package core

import "errors"

// Role identifies a privileged capability on the engine.
type Role string

const (
	// RoleOwner controls fee recipient, stablecoin identity, pause state,
	// supported chains and role assignments.
	RoleOwner Role = "owner"
	// RoleSetter controls the fee schedule knobs and the mint/redeem floor.
	RoleSetter Role = "setter"
	// RoleBalancer may withdraw cross-chain reserves for rebalancing.
	RoleBalancer Role = "balancer"
	// RoleCrossChainMinter is the only identity permitted to settle inbound
	// cross-chain mints.
	RoleCrossChainMinter Role = "crosschain-minter"
)

// ErrUnauthorized indicates the caller lacks the required role.
var ErrUnauthorized = errors.New("core: caller lacks required role")

// Accounts maps each role to its current holder. Authorization stays an
// explicit check at the top of each gated operation rather than being folded
// into the data structures.
type Accounts struct {
	Owner            [20]byte
	Setter           [20]byte
	Balancer         [20]byte
	CrossChainMinter [20]byte
}

// Authorize verifies the caller holds the required role. A zero caller never
// authorizes, even if a role slot is unset.
func (a Accounts) Authorize(caller [20]byte, role Role) error {
	if caller == ([20]byte{}) {
		return ErrUnauthorized
	}
	var holder [20]byte
	switch role {
	case RoleOwner:
		holder = a.Owner
	case RoleSetter:
		holder = a.Setter
	case RoleBalancer:
		holder = a.Balancer
	case RoleCrossChainMinter:
		holder = a.CrossChainMinter
	default:
		return ErrUnauthorized
	}
	if caller != holder {
		return ErrUnauthorized
	}
	return nil
}
