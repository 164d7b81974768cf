package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"weusd/core"
	"weusd/native/crosschain"
	"weusd/native/reserve"
	"weusd/services/reserved/config"
)

const (
	testToken  = "test-admin-token"
	localChain = uint64(900)
)

var (
	owner     = "0x0000000000000000000000000000000000000001"
	ccMinter  = "0x0000000000000000000000000000000000000004"
	alice     = "0x00000000000000000000000000000000000000a1"
	custodian = [20]byte{0x05}
)

func testServer(t *testing.T) (*Server, *core.MemoryToken) {
	t.Helper()
	mustAddr := func(s string) [20]byte {
		addr, err := core.ParseAddress(s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		return addr
	}
	engineCfg := core.Config{
		Ledger: reserve.Config{
			DerivativeDecimals: 6,
			Stablecoin:         reserve.Stablecoin{Token: [20]byte{0xAA}, Decimals: 6},
			FeeRecipient:       [20]byte{0x06},
			FeeRatioBps:        100,
			MinAmount:          1_000,
		},
		CrossChainFeeBps: 30,
		DefaultGasFee:    10_000,
		LocalChainID:     localChain,
		Roles: core.Accounts{
			Owner:            mustAddr(owner),
			Setter:           [20]byte{0x02},
			Balancer:         [20]byte{0x03},
			CrossChainMinter: mustAddr(ccMinter),
		},
		Custodian:       custodian,
		SupportedChains: []uint64{101},
	}
	stable := core.NewMemoryToken()
	if err := stable.Mint(mustAddr(alice), 1_000_000); err != nil {
		t.Fatalf("seed stablecoin: %v", err)
	}
	engine, err := core.NewEngine(engineCfg, core.NewMemoryToken(), stable)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	cfg := config.Config{
		ListenAddress: ":0",
		AdminToken:    testToken,
		RateLimit:     config.RateLimit{PerSecond: 1_000, Burst: 1_000},
	}
	return New(cfg, engine, nil, slog.Default()), stable
}

func doJSON(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.1:4000"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t)
	rec := doJSON(t, s.router(), http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBearerRequired(t *testing.T) {
	s, _ := testServer(t)
	router := s.router()

	body := fmt.Sprintf(`{"caller":%q,"amount":5000}`, alice)
	rec := doJSON(t, router, http.MethodPost, "/v1/mint", "", body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/mint", "wrong-token", body)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/mint", testToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMintRedeemFlow(t *testing.T) {
	s, stable := testServer(t)
	router := s.router()

	rec := doJSON(t, router, http.MethodPost, "/v1/mint", testToken,
		fmt.Sprintf(`{"caller":%q,"amount":10000}`, alice))
	if rec.Code != http.StatusOK {
		t.Fatalf("mint: %d: %s", rec.Code, rec.Body.String())
	}
	var mintResp map[string]uint64
	if err := json.Unmarshal(rec.Body.Bytes(), &mintResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mintResp["stablecoinDeposited"] != 10_000 {
		t.Fatalf("unexpected mint response %+v", mintResp)
	}
	if got := stable.BalanceOf(custodian); got != 10_000 {
		t.Fatalf("custodian must hold the deposit, got %d", got)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/redeem", testToken,
		fmt.Sprintf(`{"caller":%q,"amount":10000}`, alice))
	if rec.Code != http.StatusOK {
		t.Fatalf("redeem: %d: %s", rec.Code, rec.Body.String())
	}
	var redeemResp map[string]uint64
	if err := json.Unmarshal(rec.Body.Bytes(), &redeemResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if redeemResp["fee"] != 100 || redeemResp["net"] != 9_900 {
		t.Fatalf("unexpected redeem response %+v", redeemResp)
	}
}

func TestMintValidationErrors(t *testing.T) {
	s, _ := testServer(t)
	router := s.router()

	rec := doJSON(t, router, http.MethodPost, "/v1/mint", testToken, `{"caller":"junk","amount":5000}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad address, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/mint", testToken,
		fmt.Sprintf(`{"caller":%q,"amount":1}`, alice))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 below minimum, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/mint", testToken,
		fmt.Sprintf(`{"caller":%q,"amount":5000,"bogus":true}`, alice))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestBurnAndQueryFlow(t *testing.T) {
	s, _ := testServer(t)
	router := s.router()

	rec := doJSON(t, router, http.MethodPost, "/v1/mint", testToken,
		fmt.Sprintf(`{"caller":%q,"amount":100000}`, alice))
	if rec.Code != http.StatusOK {
		t.Fatalf("mint: %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/burn", testToken,
		fmt.Sprintf(`{"caller":%q,"outerUser":"0xouter","amount":100000,"targetChainId":101}`, alice))
	if rec.Code != http.StatusOK {
		t.Fatalf("burn: %d: %s", rec.Code, rec.Body.String())
	}
	var burnResp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &burnResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id := burnResp["requestId"]
	if id == "" {
		t.Fatal("expected request id")
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/requests/"+id, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("request by id: %d: %s", rec.Code, rec.Body.String())
	}
	var reqResp requestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &reqResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reqResp.IsBurn || reqResp.TargetChainID != 101 {
		t.Fatalf("unexpected record %+v", reqResp)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/requests/count/1", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("request by count: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/users/"+alice+"/source-requests", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("user requests: %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/users/"+alice+"/source-requests?page=1", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for lone page argument, got %d", rec.Code)
	}

	ghost := crosschain.ComposeRequestID(localChain, crosschain.ProtocolSalt, 999)
	rec = doJSON(t, router, http.MethodGet, "/v1/requests/"+ghost.Hex(), "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}
}

func TestCrossChainMintEndpoint(t *testing.T) {
	s, _ := testServer(t)
	router := s.router()

	id := crosschain.ComposeRequestID(101, crosschain.ProtocolSalt, 1)
	body := fmt.Sprintf(`{"caller":%q,"requestId":%q,"localUser":%q,"outerUser":"0xouter","amount":5000}`,
		ccMinter, id.Hex(), alice)
	rec := doJSON(t, router, http.MethodPost, "/v1/admin/crosschain/mint", testToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("mint: %d: %s", rec.Code, rec.Body.String())
	}

	// Replays surface as conflicts.
	rec = doJSON(t, router, http.MethodPost, "/v1/admin/crosschain/mint", testToken, body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", rec.Code)
	}

	// The wrong caller is forbidden.
	wrongCaller := fmt.Sprintf(`{"caller":%q,"requestId":%q,"localUser":%q,"outerUser":"0xouter","amount":5000}`,
		alice, crosschain.ComposeRequestID(101, crosschain.ProtocolSalt, 2).Hex(), alice)
	rec = doJSON(t, router, http.MethodPost, "/v1/admin/crosschain/mint", testToken, wrongCaller)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestCrossChainMintBatchEndpoint(t *testing.T) {
	s, _ := testServer(t)
	router := s.router()

	a := crosschain.ComposeRequestID(101, crosschain.ProtocolSalt, 1)
	b := crosschain.ComposeRequestID(101, crosschain.ProtocolSalt, 2)
	body := fmt.Sprintf(`{"caller":%q,"items":[
		{"caller":%q,"requestId":%q,"localUser":%q,"outerUser":"0xo","amount":1000},
		{"caller":%q,"requestId":%q,"localUser":%q,"outerUser":"0xo","amount":2000}
	]}`, ccMinter, ccMinter, a.Hex(), alice, ccMinter, b.Hex(), alice)

	rec := doJSON(t, router, http.MethodPost, "/v1/admin/crosschain/mint-batch", testToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("batch: %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		BatchID string   `json:"batchId"`
		Settled []string `json:"settled"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.BatchID == "" {
		t.Fatal("expected a generated batch id")
	}
	if len(resp.Settled) != 2 {
		t.Fatalf("expected 2 settled, got %v", resp.Settled)
	}

	// Resubmitting skips the already settled ids.
	rec = doJSON(t, router, http.MethodPost, "/v1/admin/crosschain/mint-batch", testToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("resubmit: %d: %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Settled) != 0 {
		t.Fatalf("expected nothing settled on resubmit, got %v", resp.Settled)
	}
}

func TestPauseEndpointGating(t *testing.T) {
	s, _ := testServer(t)
	router := s.router()

	rec := doJSON(t, router, http.MethodPost, "/v1/admin/pause", testToken,
		fmt.Sprintf(`{"caller":%q}`, alice))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/admin/pause", testToken,
		fmt.Sprintf(`{"caller":%q}`, owner))
	if rec.Code != http.StatusOK {
		t.Fatalf("pause: %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/mint", testToken,
		fmt.Sprintf(`{"caller":%q,"amount":5000}`, alice))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 while paused, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/admin/unpause", testToken,
		fmt.Sprintf(`{"caller":%q}`, owner))
	if rec.Code != http.StatusOK {
		t.Fatalf("unpause: %d: %s", rec.Code, rec.Body.String())
	}
}

func TestParamsEndpoint(t *testing.T) {
	s, _ := testServer(t)
	router := s.router()

	rec := doJSON(t, router, http.MethodPost, "/v1/admin/params", testToken,
		fmt.Sprintf(`{"caller":%q,"name":"fee_ratio","value":200}`, owner))
	if rec.Code != http.StatusOK {
		t.Fatalf("set fee ratio: %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/admin/params", testToken,
		fmt.Sprintf(`{"caller":%q,"name":"add_supported_chain","chainId":55}`, owner))
	if rec.Code != http.StatusOK {
		t.Fatalf("add chain: %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/chains", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("chains: %d", rec.Code)
	}
	var chains map[string][]uint64
	if err := json.Unmarshal(rec.Body.Bytes(), &chains); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(chains["chains"]) != 2 {
		t.Fatalf("expected 2 chains, got %v", chains["chains"])
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/admin/params", testToken,
		fmt.Sprintf(`{"caller":%q,"name":"no_such_knob","value":1}`, owner))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown knob, got %d", rec.Code)
	}
}

func TestFeeQuoteEndpoint(t *testing.T) {
	s, _ := testServer(t)
	router := s.router()

	rec := doJSON(t, router, http.MethodGet, "/v1/fees/quote?chain=101&amount=100000", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("quote: %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]uint64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 10_000 gas + 0.30% of 100_000.
	if resp["totalFee"] != 10_300 {
		t.Fatalf("expected 10300, got %d", resp["totalFee"])
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/fees/quote?chain=abc&amount=1", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad chain, got %d", rec.Code)
	}
}

func TestReservesEndpoint(t *testing.T) {
	s, _ := testServer(t)
	router := s.router()

	rec := doJSON(t, router, http.MethodPost, "/v1/mint", testToken,
		fmt.Sprintf(`{"caller":%q,"amount":50000}`, alice))
	if rec.Code != http.StatusOK {
		t.Fatalf("mint: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/reserves", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reserves: %d", rec.Code)
	}
	var resp reservesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StablecoinReserves != 50_000 || resp.TotalReserves != 50_000 {
		t.Fatalf("unexpected view %+v", resp)
	}
	if resp.Paused {
		t.Fatal("fresh engine must not be paused")
	}
}

func TestArchivedListWithoutStore(t *testing.T) {
	s, _ := testServer(t)
	rec := doJSON(t, s.router(), http.MethodGet, "/v1/admin/archived", testToken, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without archive store, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	s, _ := testServer(t)
	s.cfg.RateLimit = config.RateLimit{PerSecond: 1, Burst: 2}
	router := s.router()

	var last int
	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodGet, "/healthz", "", "")
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", last)
	}
}
