package wallet

import (
	"context"
	"math/big"

	"github.com/stellar/go/xdr"
)

// Ledger is the minimal slice of the ledger RPC surface the orchestrator
// needs. Tests substitute a fake; the production implementation lives in
// package sorobanrpc.
type Ledger interface {
	// AccountSequence returns the current sequence number of an account.
	AccountSequence(ctx context.Context, accountID string) (int64, error)

	// SimulateTransaction submits a base64 transaction envelope for
	// simulation. A simulation the ledger rejects, or one that comes back
	// without transaction data, is an error; there is no fallback fee
	// estimate.
	SimulateTransaction(ctx context.Context, txBase64 string) (*Simulation, error)

	// SendTransaction submits a base64 transaction envelope to the network.
	SendTransaction(ctx context.Context, txBase64 string) (*SendResult, error)

	// GetTransaction reports the confirmation state of a submitted
	// transaction.
	GetTransaction(ctx context.Context, hash string) (TransactionState, error)

	// ContractInstanceExists reports whether a contract instance ledger entry
	// exists for the given contract address. A transport failure is an error,
	// never a false.
	ContractInstanceExists(ctx context.Context, contractID string) (bool, error)

	// NativeBalance returns the native-asset balance of a contract in
	// stroops, zero if the contract holds no balance entry.
	NativeBalance(ctx context.Context, contractID string) (*big.Int, error)
}

// Simulation carries the resource estimate a successful simulation produced.
type Simulation struct {
	TransactionData xdr.SorobanTransactionData
	MinResourceFee  int64
	Auth            []xdr.SorobanAuthorizationEntry
}

// SendResult is the ledger's answer to a submission.
type SendResult struct {
	Hash   string
	Status string
}

// TransactionState is the confirmation state of a submitted transaction.
type TransactionState string

const (
	TransactionNotFound TransactionState = "NOT_FOUND"
	TransactionSuccess  TransactionState = "SUCCESS"
	TransactionFailed   TransactionState = "FAILED"
)
