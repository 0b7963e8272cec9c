package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http/httptest"
	"testing"

	"deedshare/core"
	"deedshare/storage"
)

var (
	testAdmin    = addrFromByte(0x01)
	testTreasury = addrFromByte(0x02)
	testBuyer    = addrFromByte(0x03)
)

func addrFromByte(b byte) [20]byte {
	var addr [20]byte
	addr[19] = b
	return addr
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("DEEDSHARE_RPC_TOKEN", "secret")
	node, err := core.NewNode(storage.NewMemDB(), core.Params{
		Admin:    testAdmin,
		Treasury: testTreasury,
		FeeBps:   100,
	}, &core.Genesis{Allocations: []core.GenesisAlloc{
		{Address: testBuyer, Balance: big.NewInt(1_000_000)},
	}})
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return NewServer(node)
}

func call(t *testing.T, s *Server, method string, params interface{}, authed bool) (*RPCResponse, int) {
	t.Helper()
	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			t.Fatalf("marshal params: %v", err)
		}
		req["params"] = []json.RawMessage{raw}
	}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	httpReq := httptest.NewRequest("POST", "/", bytes.NewReader(body))
	if authed {
		httpReq.Header.Set("Authorization", "Bearer secret")
	}
	recorder := httptest.NewRecorder()
	s.handle(recorder, httpReq)

	resp := &RPCResponse{}
	if err := json.Unmarshal(recorder.Body.Bytes(), resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return resp, recorder.Code
}

func decodeResult(t *testing.T, resp *RPCResponse, out interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
}

func TestMutationsRequireAuth(t *testing.T) {
	s := newTestServer(t)
	resp, status := call(t, s, "ds_createProperty", createPropertyParams{
		Title:             "Dockside Lofts",
		TotalShares:       1000,
		InitialSharePrice: "50",
		Caller:            formatAddress(testAdmin),
	}, false)
	if status != 401 {
		t.Fatalf("expected 401, got %d", status)
	}
	if resp.Error == nil || resp.Error.Code != codeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", resp.Error)
	}
}

func TestUnknownMethod(t *testing.T) {
	s := newTestServer(t)
	resp, status := call(t, s, "ds_noSuchMethod", nil, false)
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
	if resp.Error == nil || resp.Error.Code != codeMethodNotFound {
		t.Fatalf("expected method-not-found error, got %+v", resp.Error)
	}
}

func TestPrimarySaleFlow(t *testing.T) {
	s := newTestServer(t)

	resp, status := call(t, s, "ds_createProperty", createPropertyParams{
		Title:             "Dockside Lofts",
		MetadataRef:       "ipfs://dockside",
		TotalShares:       1000,
		InitialSharePrice: "50",
		Caller:            formatAddress(testAdmin),
	}, true)
	if status != 200 || resp.Error != nil {
		t.Fatalf("create property failed: status=%d err=%+v", status, resp.Error)
	}
	var prop propertyJSON
	decodeResult(t, resp, &prop)
	if prop.ID != 1 || prop.TotalShares != 1000 {
		t.Fatalf("unexpected property %+v", prop)
	}

	resp, status = call(t, s, "ds_buyShares", buySharesParams{
		PropertyID: prop.ID,
		Amount:     10,
		Payment:    "600",
		Buyer:      formatAddress(testBuyer),
	}, true)
	if status != 200 || resp.Error != nil {
		t.Fatalf("buy shares failed: status=%d err=%+v", status, resp.Error)
	}
	var refund refundResult
	decodeResult(t, resp, &refund)
	if refund.Refund != "100" {
		t.Fatalf("expected refund 100, got %s", refund.Refund)
	}

	resp, status = call(t, s, "ds_getShareBalance", shareBalanceParams{
		PropertyID: prop.ID,
		Address:    formatAddress(testBuyer),
	}, false)
	if status != 200 || resp.Error != nil {
		t.Fatalf("share balance failed: status=%d err=%+v", status, resp.Error)
	}
	var balance shareBalanceResult
	decodeResult(t, resp, &balance)
	if balance.Balance != 10 || balance.TotalShares != 1000 {
		t.Fatalf("unexpected balance %+v", balance)
	}

	resp, status = call(t, s, "ds_listEvents", nil, false)
	if status != 200 || resp.Error != nil {
		t.Fatalf("list events failed: status=%d err=%+v", status, resp.Error)
	}
	var records []eventJSON
	decodeResult(t, resp, &records)
	if len(records) == 0 {
		t.Fatal("expected events after property creation and purchase")
	}
	for i, rec := range records {
		if rec.Sequence != uint64(i+1) {
			t.Fatalf("expected dense sequence numbers, got %d at index %d", rec.Sequence, i)
		}
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)

	resp, status := call(t, s, "ds_getProperty", propertyIDParams{PropertyID: 42}, false)
	if status != 404 {
		t.Fatalf("expected 404 for missing property, got %d", status)
	}
	if resp.Error == nil || resp.Error.Code != codeNotFound {
		t.Fatalf("expected not-found error, got %+v", resp.Error)
	}

	resp, status = call(t, s, "ds_createProperty", createPropertyParams{
		Title:             "Unauthorized Towers",
		TotalShares:       100,
		InitialSharePrice: "10",
		Caller:            formatAddress(testBuyer),
	}, true)
	if status != 403 {
		t.Fatalf("expected 403 for non-admin caller, got %d", status)
	}
	if resp.Error == nil || resp.Error.Code != codeForbidden {
		t.Fatalf("expected forbidden error, got %+v", resp.Error)
	}
}

func TestInvalidAddressRejected(t *testing.T) {
	s := newTestServer(t)
	for _, raw := range []string{"", "0x1234", "not-hex"} {
		resp, status := call(t, s, "ds_getAccount", addressParams{Address: raw}, false)
		if status != 400 {
			t.Fatalf("address %q: expected 400, got %d", raw, status)
		}
		if resp.Error == nil || resp.Error.Code != codeInvalidParams {
			t.Fatalf("address %q: expected invalid-params error, got %+v", raw, resp.Error)
		}
	}
}

func TestListPropertiesPagination(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		resp, status := call(t, s, "ds_createProperty", createPropertyParams{
			Title:             fmt.Sprintf("Property %d", i+1),
			TotalShares:       100,
			InitialSharePrice: "10",
			Caller:            formatAddress(testAdmin),
		}, true)
		if status != 200 || resp.Error != nil {
			t.Fatalf("create property %d failed: %+v", i, resp.Error)
		}
	}
	resp, status := call(t, s, "ds_listProperties", listPropertiesParams{Offset: 1, Limit: 1}, false)
	if status != 200 || resp.Error != nil {
		t.Fatalf("list properties failed: status=%d err=%+v", status, resp.Error)
	}
	var props []propertyJSON
	decodeResult(t, resp, &props)
	if len(props) != 1 || props[0].ID != 2 {
		t.Fatalf("expected only property 2, got %+v", props)
	}
}
