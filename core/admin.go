package core

import (
	"context"
	"strconv"
	"time"

	"weusd/core/events"
	"weusd/native/crosschain"
	"weusd/native/reserve"
)

// Pause blocks the user-facing entry points (mint, redeem, cross-chain burn).
// Administrative setters and inbound cross-chain mints remain callable. Owner
// only.
func (e *Engine) Pause(ctx context.Context, caller [20]byte) error {
	return e.adminOp(ctx, "pause", caller, RoleOwner, func() error {
		if err := e.ledger.Pause(); err != nil {
			return err
		}
		e.emitter.Emit(events.PauseChanged{Paused: true})
		return e.persistLedger()
	})
}

// Unpause re-enables the user-facing entry points. Owner only.
func (e *Engine) Unpause(ctx context.Context, caller [20]byte) error {
	return e.adminOp(ctx, "unpause", caller, RoleOwner, func() error {
		if err := e.ledger.Unpause(); err != nil {
			return err
		}
		e.emitter.Emit(events.PauseChanged{Paused: false})
		return e.persistLedger()
	})
}

// SetFeeRatio updates the redemption fee ratio in basis points. Owner only.
func (e *Engine) SetFeeRatio(ctx context.Context, caller [20]byte, bps uint64) error {
	return e.adminOp(ctx, "set_fee_ratio", caller, RoleOwner, func() error {
		if err := e.ledger.SetFeeRatio(bps); err != nil {
			return err
		}
		e.emitter.Emit(events.ParamUpdated{Name: "fee_ratio_bps", Value: strconv.FormatUint(bps, 10)})
		return e.persistLedger()
	})
}

// SetMinAmount updates the mint/redeem floor. Setter only.
func (e *Engine) SetMinAmount(ctx context.Context, caller [20]byte, minAmount uint64) error {
	return e.adminOp(ctx, "set_min_amount", caller, RoleSetter, func() error {
		if err := e.ledger.SetMinAmount(minAmount); err != nil {
			return err
		}
		e.emitter.Emit(events.ParamUpdated{Name: "min_amount", Value: strconv.FormatUint(minAmount, 10)})
		return e.persistLedger()
	})
}

// SetFeeRecipient updates the fee recipient address. Owner only.
func (e *Engine) SetFeeRecipient(ctx context.Context, caller, recipient [20]byte) error {
	return e.adminOp(ctx, "set_fee_recipient", caller, RoleOwner, func() error {
		if err := e.ledger.SetFeeRecipient(recipient); err != nil {
			return err
		}
		e.emitter.Emit(events.ParamUpdated{Name: "fee_recipient", Value: FormatAddress(recipient)})
		return e.persistLedger()
	})
}

// SetStablecoin repoints the backing asset identity and precision. Owner only.
func (e *Engine) SetStablecoin(ctx context.Context, caller [20]byte, sc reserve.Stablecoin) error {
	return e.adminOp(ctx, "set_stablecoin", caller, RoleOwner, func() error {
		if err := e.ledger.SetStablecoin(sc); err != nil {
			return err
		}
		e.emitter.Emit(events.ParamUpdated{Name: "stablecoin", Value: FormatAddress(sc.Token)})
		return e.persistLedger()
	})
}

// SetGasFee updates the global default gas fee. Setter only.
func (e *Engine) SetGasFee(ctx context.Context, caller [20]byte, fee uint64) error {
	return e.adminOp(ctx, "set_gas_fee", caller, RoleSetter, func() error {
		e.fees.SetDefaultGasFee(fee)
		e.emitter.Emit(events.ParamUpdated{Name: "default_gas_fee", Value: strconv.FormatUint(fee, 10)})
		return nil
	})
}

// SetChainGasFee installs a per-chain gas fee override. Setter only.
func (e *Engine) SetChainGasFee(ctx context.Context, caller [20]byte, chainID, fee uint64) error {
	return e.adminOp(ctx, "set_chain_gas_fee", caller, RoleSetter, func() error {
		e.fees.SetChainGasFee(chainID, fee)
		e.emitter.Emit(events.ParamUpdated{Name: "chain_gas_fee_" + strconv.FormatUint(chainID, 10), Value: strconv.FormatUint(fee, 10)})
		return nil
	})
}

// RemoveChainGasFee drops a per-chain gas fee override. Setter only.
func (e *Engine) RemoveChainGasFee(ctx context.Context, caller [20]byte, chainID uint64) error {
	return e.adminOp(ctx, "remove_chain_gas_fee", caller, RoleSetter, func() error {
		e.fees.RemoveChainGasFee(chainID)
		e.emitter.Emit(events.ParamUpdated{Name: "chain_gas_fee_" + strconv.FormatUint(chainID, 10), Value: "default"})
		return nil
	})
}

// SetFeeRateBasisPoints updates the cross-chain percentage fee. Setter only.
func (e *Engine) SetFeeRateBasisPoints(ctx context.Context, caller [20]byte, bps uint64) error {
	return e.adminOp(ctx, "set_fee_rate_bps", caller, RoleSetter, func() error {
		if err := e.fees.SetRateBps(bps); err != nil {
			return err
		}
		e.emitter.Emit(events.ParamUpdated{Name: "cross_chain_fee_bps", Value: strconv.FormatUint(bps, 10)})
		return nil
	})
}

// AddSupportedChain marks a chain as a valid burn target. Owner only.
func (e *Engine) AddSupportedChain(ctx context.Context, caller [20]byte, chainID uint64) error {
	return e.adminOp(ctx, "add_supported_chain", caller, RoleOwner, func() error {
		e.registry.AddSupportedChain(chainID)
		e.emitter.Emit(events.SupportedChainChanged{ChainID: chainID, Added: true})
		return e.persistRegistryIndex()
	})
}

// RemoveSupportedChain withdraws a chain from the supported set. Owner only.
func (e *Engine) RemoveSupportedChain(ctx context.Context, caller [20]byte, chainID uint64) error {
	return e.adminOp(ctx, "remove_supported_chain", caller, RoleOwner, func() error {
		e.registry.RemoveSupportedChain(chainID)
		e.emitter.Emit(events.SupportedChainChanged{ChainID: chainID, Added: false})
		return e.persistRegistryIndex()
	})
}

// SetCrossChainMinter reassigns the cross-chain minter role. Owner only.
func (e *Engine) SetCrossChainMinter(ctx context.Context, caller, minter [20]byte) error {
	return e.adminOp(ctx, "set_cross_chain_minter", caller, RoleOwner, func() error {
		if minter == ([20]byte{}) {
			return reserve.ErrInvalidAddress
		}
		e.roles.CrossChainMinter = minter
		e.emitter.Emit(events.ParamUpdated{Name: "cross_chain_minter", Value: FormatAddress(minter)})
		return nil
	})
}

// SetBalancer reassigns the balancer role. Owner only.
func (e *Engine) SetBalancer(ctx context.Context, caller, balancer [20]byte) error {
	return e.adminOp(ctx, "set_balancer", caller, RoleOwner, func() error {
		if balancer == ([20]byte{}) {
			return reserve.ErrInvalidAddress
		}
		e.roles.Balancer = balancer
		e.emitter.Emit(events.ParamUpdated{Name: "balancer", Value: FormatAddress(balancer)})
		return nil
	})
}

// SetSetter reassigns the setter role. Owner only.
func (e *Engine) SetSetter(ctx context.Context, caller, setter [20]byte) error {
	return e.adminOp(ctx, "set_setter", caller, RoleOwner, func() error {
		if setter == ([20]byte{}) {
			return reserve.ErrInvalidAddress
		}
		e.roles.Setter = setter
		e.emitter.Emit(events.ParamUpdated{Name: "setter", Value: FormatAddress(setter)})
		return nil
	})
}

// ArchiveSourceRequest removes a settled burn-originated request from the
// active set, handing it to the archival sink first. Owner only.
func (e *Engine) ArchiveSourceRequest(ctx context.Context, caller [20]byte, id crosschain.RequestID) error {
	return e.adminOp(ctx, "archive_source_request", caller, RoleOwner, func() error {
		return e.archiveLocked(id, true)
	})
}

// ArchiveTargetRequest removes a settled mint-originated request from the
// active set. Owner only.
func (e *Engine) ArchiveTargetRequest(ctx context.Context, caller [20]byte, id crosschain.RequestID) error {
	return e.adminOp(ctx, "archive_target_request", caller, RoleOwner, func() error {
		return e.archiveLocked(id, false)
	})
}

// BatchArchiveSourceRequests archives every id still present on the source
// side, skipping ids that are already gone. Owner only.
func (e *Engine) BatchArchiveSourceRequests(ctx context.Context, caller [20]byte, ids []crosschain.RequestID) error {
	return e.adminOp(ctx, "batch_archive_source_requests", caller, RoleOwner, func() error {
		return e.archiveBatchLocked(ids, true)
	})
}

// BatchArchiveTargetRequests archives every id still present on the target
// side, skipping ids that are already gone. Owner only.
func (e *Engine) BatchArchiveTargetRequests(ctx context.Context, caller [20]byte, ids []crosschain.RequestID) error {
	return e.adminOp(ctx, "batch_archive_target_requests", caller, RoleOwner, func() error {
		return e.archiveBatchLocked(ids, false)
	})
}

func (e *Engine) archiveLocked(id crosschain.RequestID, source bool) error {
	record, ok := e.registry.Get(id)
	if !ok || record.IsBurn != source {
		return crosschain.ErrRequestNotFound
	}
	if e.archiver != nil {
		if err := e.archiver.ArchiveRequest(record, source); err != nil {
			return err
		}
	}
	if _, err := e.registry.Archive(id, source); err != nil {
		return err
	}
	if err := e.persistRecordDelete(id); err != nil {
		return err
	}
	e.emitter.Emit(events.RequestArchived{RequestID: id.Hex(), Source: source})
	return nil
}

func (e *Engine) archiveBatchLocked(ids []crosschain.RequestID, source bool) error {
	for _, id := range ids {
		if !e.registry.Exists(id) {
			continue
		}
		if err := e.archiveLocked(id, source); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) persistRegistryIndex() error {
	if e.registryStore == nil {
		return nil
	}
	return e.registryStore.SaveIndex(e.registry)
}

func (e *Engine) adminOp(ctx context.Context, op string, caller [20]byte, role Role, fn func() error) (err error) {
	start := time.Now()
	_, span := e.tracer.Start(ctx, "engine."+op)
	defer span.End()
	defer func() { e.observe(span, op, start, err) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err = e.roles.Authorize(caller, role); err != nil {
		return err
	}
	err = fn()
	return err
}
