package sorobanrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"

	"github.com/kokukuma/passkey-wallet/wallet"
)

const testnetPassphrase = "Test SDF Network ; September 2015"

// rpcServer answers each JSON-RPC method with a canned result.
func rpcServer(t *testing.T, results map[string]interface{}) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     string `json:"id"`
			Method string `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		result, ok := results[req.Method]
		if !ok {
			t.Errorf("unexpected rpc method %s", req.Method)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
}

func marshalB64(t *testing.T, v interface{}) string {
	t.Helper()

	s, err := xdr.MarshalBase64(v)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func testContractID(t *testing.T) string {
	t.Helper()

	id, err := strkey.Encode(strkey.VersionByteContract, make([]byte, 32))
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func TestSimulateTransaction(t *testing.T) {
	txData := marshalB64(t, xdr.SorobanTransactionData{})

	srv := rpcServer(t, map[string]interface{}{
		"simulateTransaction": map[string]interface{}{
			"transactionData": txData,
			"minResourceFee":  "54321",
		},
	})
	defer srv.Close()

	sim, err := New(srv.URL, testnetPassphrase).SimulateTransaction(context.Background(), "AAAA")
	if err != nil {
		t.Fatal(err)
	}
	if sim.MinResourceFee != 54321 {
		t.Errorf("resource fee = %d, want 54321", sim.MinResourceFee)
	}
}

func TestSimulateTransactionError(t *testing.T) {
	srv := rpcServer(t, map[string]interface{}{
		"simulateTransaction": map[string]interface{}{
			"error": "host function failed",
		},
	})
	defer srv.Close()

	_, err := New(srv.URL, testnetPassphrase).SimulateTransaction(context.Background(), "AAAA")
	if err == nil || !strings.Contains(err.Error(), "host function failed") {
		t.Fatalf("expected simulation rejection, got %v", err)
	}
}

func TestSendTransaction(t *testing.T) {
	srv := rpcServer(t, map[string]interface{}{
		"sendTransaction": map[string]interface{}{
			"status": "PENDING",
			"hash":   "deadbeef",
		},
	})
	defer srv.Close()

	res, err := New(srv.URL, testnetPassphrase).SendTransaction(context.Background(), "AAAA")
	if err != nil {
		t.Fatal(err)
	}
	if res.Hash != "deadbeef" || res.Status != "PENDING" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestSendTransactionRejected(t *testing.T) {
	srv := rpcServer(t, map[string]interface{}{
		"sendTransaction": map[string]interface{}{
			"status":         "ERROR",
			"errorResultXdr": "AAAB",
		},
	})
	defer srv.Close()

	_, err := New(srv.URL, testnetPassphrase).SendTransaction(context.Background(), "AAAA")
	if err == nil || !strings.Contains(err.Error(), "rejected") {
		t.Fatalf("expected rejection error, got %v", err)
	}
}

func TestGetTransaction(t *testing.T) {
	tests := []struct {
		status  string
		want    wallet.TransactionState
		wantErr bool
	}{
		{"SUCCESS", wallet.TransactionSuccess, false},
		{"FAILED", wallet.TransactionFailed, false},
		{"NOT_FOUND", wallet.TransactionNotFound, false},
		{"SOMETHING_ELSE", wallet.TransactionNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			srv := rpcServer(t, map[string]interface{}{
				"getTransaction": map[string]interface{}{"status": tt.status},
			})
			defer srv.Close()

			state, err := New(srv.URL, testnetPassphrase).GetTransaction(context.Background(), "deadbeef")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if state != tt.want {
				t.Errorf("state = %v, want %v", state, tt.want)
			}
		})
	}
}

func TestAccountSequence(t *testing.T) {
	account := keypair.MustRandom().Address()
	aid, err := xdr.AddressToAccountId(account)
	if err != nil {
		t.Fatal(err)
	}
	entry := marshalB64(t, xdr.LedgerEntryData{
		Type: xdr.LedgerEntryTypeAccount,
		Account: &xdr.AccountEntry{
			AccountId:  aid,
			SeqNum:     xdr.SequenceNumber(99),
			Thresholds: xdr.Thresholds{1, 0, 0, 0},
		},
	})

	srv := rpcServer(t, map[string]interface{}{
		"getLedgerEntries": map[string]interface{}{
			"entries": []map[string]interface{}{{"key": "AAAA", "xdr": entry}},
		},
	})
	defer srv.Close()

	seq, err := New(srv.URL, testnetPassphrase).AccountSequence(context.Background(), account)
	if err != nil {
		t.Fatal(err)
	}
	if seq != 99 {
		t.Errorf("sequence = %d, want 99", seq)
	}
}

func TestAccountSequenceNotFound(t *testing.T) {
	srv := rpcServer(t, map[string]interface{}{
		"getLedgerEntries": map[string]interface{}{
			"entries": []map[string]interface{}{},
		},
	})
	defer srv.Close()

	_, err := New(srv.URL, testnetPassphrase).AccountSequence(context.Background(), keypair.MustRandom().Address())
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestContractInstanceExists(t *testing.T) {
	contractID := testContractID(t)

	instance := marshalB64(t, xdr.LedgerEntryData{
		Type: xdr.LedgerEntryTypeContractData,
		ContractData: &xdr.ContractDataEntry{
			Contract: xdr.ScAddress{
				Type:       xdr.ScAddressTypeScAddressTypeContract,
				ContractId: &xdr.ContractId{},
			},
			Key:        xdr.ScVal{Type: xdr.ScValTypeScvLedgerKeyContractInstance},
			Durability: xdr.ContractDataDurabilityPersistent,
			Val: xdr.ScVal{
				Type: xdr.ScValTypeScvContractInstance,
				Instance: &xdr.ScContractInstance{
					Executable: xdr.ContractExecutable{
						Type:     xdr.ContractExecutableTypeContractExecutableWasm,
						WasmHash: &xdr.Hash{},
					},
				},
			},
		},
	})

	tests := []struct {
		name    string
		entries []map[string]interface{}
		want    bool
	}{
		{"present", []map[string]interface{}{{"key": "AAAA", "xdr": instance}}, true},
		{"absent", []map[string]interface{}{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := rpcServer(t, map[string]interface{}{
				"getLedgerEntries": map[string]interface{}{"entries": tt.entries},
			})
			defer srv.Close()

			got, err := New(srv.URL, testnetPassphrase).ContractInstanceExists(context.Background(), contractID)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("exists = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNativeBalance(t *testing.T) {
	amountSym := xdr.ScSymbol("amount")
	authorizedSym := xdr.ScSymbol("authorized")
	amount := xdr.Int128Parts{Hi: 0, Lo: 15_000_000}
	boolTrue := true
	balanceMap := &xdr.ScMap{
		{
			Key: xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &amountSym},
			Val: xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &amount},
		},
		{
			Key: xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &authorizedSym},
			Val: xdr.ScVal{Type: xdr.ScValTypeScvBool, B: &boolTrue},
		},
	}
	entry := marshalB64(t, xdr.LedgerEntryData{
		Type: xdr.LedgerEntryTypeContractData,
		ContractData: &xdr.ContractDataEntry{
			Contract: xdr.ScAddress{
				Type:       xdr.ScAddressTypeScAddressTypeContract,
				ContractId: &xdr.ContractId{},
			},
			Key:        xdr.ScVal{Type: xdr.ScValTypeScvLedgerKeyContractInstance},
			Durability: xdr.ContractDataDurabilityPersistent,
			Val:        xdr.ScVal{Type: xdr.ScValTypeScvMap, Map: &balanceMap},
		},
	})

	srv := rpcServer(t, map[string]interface{}{
		"getLedgerEntries": map[string]interface{}{
			"entries": []map[string]interface{}{{"key": "AAAA", "xdr": entry}},
		},
	})
	defer srv.Close()

	got, err := New(srv.URL, testnetPassphrase).NativeBalance(context.Background(), testContractID(t))
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(big.NewInt(15_000_000)) != 0 {
		t.Errorf("balance = %s, want 15000000", got)
	}
}

func TestNativeBalanceUnfunded(t *testing.T) {
	srv := rpcServer(t, map[string]interface{}{
		"getLedgerEntries": map[string]interface{}{
			"entries": []map[string]interface{}{},
		},
	})
	defer srv.Close()

	got, err := New(srv.URL, testnetPassphrase).NativeBalance(context.Background(), testContractID(t))
	if err != nil {
		t.Fatal(err)
	}
	if got.Sign() != 0 {
		t.Errorf("balance = %s, want 0", got)
	}
}

func TestCallRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":"1","error":{"code":-32600,"message":"invalid request"}}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, testnetPassphrase).GetTransaction(context.Background(), "deadbeef")
	if err == nil || !strings.Contains(err.Error(), "invalid request") {
		t.Fatalf("expected rpc error, got %v", err)
	}
}

func TestCallHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, testnetPassphrase).GetTransaction(context.Background(), "deadbeef")
	if err == nil || !strings.Contains(err.Error(), "status 502") {
		t.Fatalf("expected http status error, got %v", err)
	}
}
