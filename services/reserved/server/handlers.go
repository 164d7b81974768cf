package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"weusd/core"
	"weusd/native/crosschain"
	"weusd/native/reserve"
)

type reservesResponse struct {
	StablecoinReserves uint64 `json:"stablecoinReserves"`
	CrossChainReserves uint64 `json:"crossChainReserves"`
	CrossChainDeficit  uint64 `json:"crossChainDeficit"`
	AccumulatedFees    uint64 `json:"accumulatedFees"`
	TotalReserves      uint64 `json:"totalReserves"`
	FeeRatioBps        uint64 `json:"feeRatioBps"`
	MinAmount          uint64 `json:"minAmount"`
	Paused             bool   `json:"paused"`
}

func (s *Server) handleReserves(w http.ResponseWriter, _ *http.Request) {
	view := s.engine.Reserves()
	writeJSON(w, http.StatusOK, reservesResponse{
		StablecoinReserves: view.StablecoinReserves,
		CrossChainReserves: view.CrossChainReserves,
		CrossChainDeficit:  view.CrossChainDeficit,
		AccumulatedFees:    view.AccumulatedFees,
		TotalReserves:      view.TotalReserves,
		FeeRatioBps:        view.FeeRatioBps,
		MinAmount:          view.MinAmount,
		Paused:             view.Paused,
	})
}

func (s *Server) handleFeeQuote(w http.ResponseWriter, r *http.Request) {
	chain, err := strconv.ParseUint(r.URL.Query().Get("chain"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid chain: %w", err))
		return
	}
	amount, err := strconv.ParseUint(r.URL.Query().Get("amount"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid amount: %w", err))
		return
	}
	fee, err := s.engine.QuoteCrossChainFee(chain, amount)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"totalFee": fee})
}

func (s *Server) handleSupportedChains(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]uint64{"chains": s.engine.SupportedChains()})
}

type requestResponse struct {
	RequestID     string `json:"requestId"`
	LocalUser     string `json:"localUser"`
	OuterUser     string `json:"outerUser"`
	Amount        uint64 `json:"amount"`
	IsBurn        bool   `json:"isBurn"`
	TargetChainID uint64 `json:"targetChainId"`
}

func toRequestResponse(rec crosschain.RequestRecord) requestResponse {
	return requestResponse{
		RequestID:     rec.ID.Hex(),
		LocalUser:     core.FormatAddress(rec.LocalUser),
		OuterUser:     rec.OuterUser,
		Amount:        rec.Amount,
		IsBurn:        rec.IsBurn,
		TargetChainID: rec.TargetChainID,
	}
}

func (s *Server) handleRequestByID(w http.ResponseWriter, r *http.Request) {
	id, err := crosschain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	record, ok := s.engine.RequestByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, crosschain.ErrRequestNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponse(record))
}

func (s *Server) handleRequestByCount(w http.ResponseWriter, r *http.Request) {
	count, err := strconv.ParseUint(chi.URLParam(r, "count"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid count: %w", err))
		return
	}
	record, ok := s.engine.RequestByCount(count)
	if !ok {
		writeError(w, http.StatusNotFound, crosschain.ErrRequestNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toRequestResponse(record))
}

func (s *Server) handleUserRequests(source bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := core.ParseAddress(chi.URLParam(r, "address"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		page, pageSize, err := paginationParams(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		var records []crosschain.RequestRecord
		if source {
			records, err = s.engine.UserSourceRequests(user, page, pageSize)
		} else {
			records, err = s.engine.UserTargetRequests(user, page, pageSize)
		}
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		out := make([]requestResponse, len(records))
		for i, rec := range records {
			out[i] = toRequestResponse(rec)
		}
		writeJSON(w, http.StatusOK, map[string]any{"requests": out})
	}
}

func paginationParams(r *http.Request) (uint64, uint64, error) {
	parse := func(name string) (uint64, error) {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			return 0, nil
		}
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", name, err)
		}
		return value, nil
	}
	page, err := parse("page")
	if err != nil {
		return 0, 0, err
	}
	pageSize, err := parse("page_size")
	if err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

type mintRequest struct {
	Caller string `json:"caller"`
	Amount uint64 `json:"amount"`
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := core.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	deposited, err := s.engine.MintDeposit(r.Context(), caller, req.Amount)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"stablecoinDeposited": deposited})
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := core.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	outcome, err := s.engine.RedeemWithdraw(r.Context(), caller, req.Amount)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{
		"gross": outcome.Gross,
		"fee":   outcome.Fee,
		"net":   outcome.Net,
	})
}

type burnRequest struct {
	Caller        string `json:"caller"`
	OuterUser     string `json:"outerUser"`
	Amount        uint64 `json:"amount"`
	TargetChainID uint64 `json:"targetChainId"`
}

func (s *Server) handleBurn(w http.ResponseWriter, r *http.Request) {
	var req burnRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := core.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := s.engine.BurnCrossChain(r.Context(), caller, req.OuterUser, req.Amount, req.TargetChainID)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"requestId": id.Hex()})
}

type crossChainMintRequest struct {
	Caller    string `json:"caller"`
	RequestID string `json:"requestId"`
	LocalUser string `json:"localUser"`
	OuterUser string `json:"outerUser"`
	Amount    uint64 `json:"amount"`
}

func (req crossChainMintRequest) toMint() (core.CrossChainMint, error) {
	id, err := crosschain.ParseRequestID(req.RequestID)
	if err != nil {
		return core.CrossChainMint{}, err
	}
	user, err := core.ParseAddress(req.LocalUser)
	if err != nil {
		return core.CrossChainMint{}, err
	}
	return core.CrossChainMint{ID: id, LocalUser: user, OuterUser: req.OuterUser, Amount: req.Amount}, nil
}

func (s *Server) handleCrossChainMint(w http.ResponseWriter, r *http.Request) {
	var req crossChainMintRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := core.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	mint, err := req.toMint()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.MintCrossChain(r.Context(), caller, mint); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"requestId": mint.ID.Hex()})
}

type crossChainMintBatchRequest struct {
	Caller  string                  `json:"caller"`
	BatchID string                  `json:"batchId"`
	Items   []crossChainMintRequest `json:"items"`
}

func (s *Server) handleCrossChainMintBatch(w http.ResponseWriter, r *http.Request) {
	var req crossChainMintBatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := core.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.BatchID == "" {
		req.BatchID = uuid.NewString()
	}
	mints := make([]core.CrossChainMint, 0, len(req.Items))
	for _, item := range req.Items {
		mint, err := item.toMint()
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		mints = append(mints, mint)
	}
	settled, err := s.engine.BatchMintCrossChain(r.Context(), caller, mints)
	ids := make([]string, len(settled))
	for i, id := range settled {
		ids[i] = id.Hex()
	}
	if err != nil {
		s.logger.Error("batch mint aborted", "batchId", req.BatchID, "settled", len(ids), "err", err)
		writeJSON(w, statusFor(err), map[string]any{"batchId": req.BatchID, "settled": ids, "error": err.Error()})
		return
	}
	s.logger.Info("batch mint settled", "batchId", req.BatchID, "settled", len(ids))
	writeJSON(w, http.StatusOK, map[string]any{"batchId": req.BatchID, "settled": ids})
}

type withdrawRequest struct {
	Caller    string `json:"caller"`
	Amount    uint64 `json:"amount"`
	Recipient string `json:"recipient"`
}

func (s *Server) handleWithdrawReserves(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := core.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	recipient, err := core.ParseAddress(req.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.engine.WithdrawCrossChainReserves(r.Context(), caller, req.Amount, recipient); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type paramRequest struct {
	Caller   string `json:"caller"`
	Name     string `json:"name"`
	Value    uint64 `json:"value"`
	Address  string `json:"address"`
	ChainID  uint64 `json:"chainId"`
	Decimals uint8  `json:"decimals"`
}

func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	var req paramRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := core.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	parseAddr := func() ([20]byte, error) { return core.ParseAddress(req.Address) }

	ctx := r.Context()
	switch req.Name {
	case "fee_ratio":
		err = s.engine.SetFeeRatio(ctx, caller, req.Value)
	case "min_amount":
		err = s.engine.SetMinAmount(ctx, caller, req.Value)
	case "fee_recipient":
		var addr [20]byte
		if addr, err = parseAddr(); err == nil {
			err = s.engine.SetFeeRecipient(ctx, caller, addr)
		}
	case "stablecoin":
		var addr [20]byte
		if addr, err = parseAddr(); err == nil {
			err = s.engine.SetStablecoin(ctx, caller, reserve.Stablecoin{Token: addr, Decimals: req.Decimals})
		}
	case "gas_fee":
		err = s.engine.SetGasFee(ctx, caller, req.Value)
	case "chain_gas_fee":
		err = s.engine.SetChainGasFee(ctx, caller, req.ChainID, req.Value)
	case "remove_chain_gas_fee":
		err = s.engine.RemoveChainGasFee(ctx, caller, req.ChainID)
	case "cross_chain_fee_bps":
		err = s.engine.SetFeeRateBasisPoints(ctx, caller, req.Value)
	case "add_supported_chain":
		err = s.engine.AddSupportedChain(ctx, caller, req.ChainID)
	case "remove_supported_chain":
		err = s.engine.RemoveSupportedChain(ctx, caller, req.ChainID)
	case "cross_chain_minter":
		var addr [20]byte
		if addr, err = parseAddr(); err == nil {
			err = s.engine.SetCrossChainMinter(ctx, caller, addr)
		}
	case "balancer":
		var addr [20]byte
		if addr, err = parseAddr(); err == nil {
			err = s.engine.SetBalancer(ctx, caller, addr)
		}
	case "setter":
		var addr [20]byte
		if addr, err = parseAddr(); err == nil {
			err = s.engine.SetSetter(ctx, caller, addr)
		}
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown parameter %q", req.Name))
		return
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePause(pause bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req paramRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		caller, err := core.ParseAddress(req.Caller)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if pause {
			err = s.engine.Pause(r.Context(), caller)
		} else {
			err = s.engine.Unpause(r.Context(), caller)
		}
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type archiveRequest struct {
	Caller string   `json:"caller"`
	Side   string   `json:"side"`
	IDs    []string `json:"ids"`
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := core.ParseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	source := req.Side == "source"
	if !source && req.Side != "target" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("side must be source or target, got %q", req.Side))
		return
	}
	ids := make([]crosschain.RequestID, 0, len(req.IDs))
	for _, raw := range req.IDs {
		id, err := crosschain.ParseRequestID(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		ids = append(ids, id)
	}
	if source {
		err = s.engine.BatchArchiveSourceRequests(r.Context(), caller, ids)
	} else {
		err = s.engine.BatchArchiveTargetRequests(r.Context(), caller, ids)
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleArchivedList(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, errors.New("archive store not configured"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	rows, err := s.archive.List(limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"archived": rows})
}

func decodeBody(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
