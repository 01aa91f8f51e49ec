// Package wallet orchestrates deployment and funding of passkey-bound smart
// wallets: it turns extracted credential material into deployment
// transactions and drives the simulate, price, sign, fee-bump, submit
// protocol for transfers.
package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"

	"github.com/kokukuma/passkey-wallet/cosekey"
	"github.com/kokukuma/passkey-wallet/lumens"
)

// Config is the immutable deployment configuration. It is injected into the
// service at construction and never mutated; there is no process-global
// state.
type Config struct {
	NetworkPassphrase string
	Deployer          *keypair.Full
	WalletWasmHash    xdr.Hash
}

// Service composes the extraction pipeline with a ledger client.
type Service struct {
	cfg    Config
	ledger Ledger
}

func New(cfg Config, ledger Ledger) *Service {
	return &Service{cfg: cfg, ledger: ledger}
}

// StoragePolicy is the wallet contract's storage class for a signer entry.
type StoragePolicy string

const StoragePersistent StoragePolicy = "persistent"

// Signer binds a credential id to its extracted public key. CredentialID is
// the standard, padded base64 encoding of the raw credential id.
type Signer struct {
	CredentialID string
	PublicKey    *cosekey.RawPublicKey
	Storage      StoragePolicy
}

// NewSigner builds a persistent-storage signer descriptor.
func NewSigner(credentialID string, pk *cosekey.RawPublicKey) Signer {
	return Signer{
		CredentialID: credentialID,
		PublicKey:    pk,
		Storage:      StoragePersistent,
	}
}

// TransferIntent describes one user-initiated transfer: the target wallet
// contract and a positive base-unit amount.
type TransferIntent struct {
	ContractID string
	Amount     string
}

// Presence is the result of a contract existence check.
type Presence int

const (
	Absent Presence = iota
	Present
)

// CheckContract reports whether the contract is live on the ledger. The
// result is tri-state: Present, Absent, or a non-nil error when the check
// itself failed. A transient network error is not the same as non-existence
// and is never collapsed into Absent-with-nil-error.
func (s *Service) CheckContract(ctx context.Context, contractID string) (Presence, error) {
	exists, err := s.ledger.ContractInstanceExists(ctx, contractID)
	if err != nil {
		return Absent, fmt.Errorf("failed to check contract existence: %w", err)
	}
	if !exists {
		return Absent, nil
	}
	return Present, nil
}

// Balance returns the wallet contract's native-asset balance as a base-unit
// decimal string.
func (s *Service) Balance(ctx context.Context, contractID string) (string, error) {
	stroops, err := s.ledger.NativeBalance(ctx, contractID)
	if err != nil {
		return "", fmt.Errorf("failed to load wallet balance: %w", err)
	}
	return lumens.FromStroops(stroops)
}

const confirmationPollInterval = 2 * time.Second

// AwaitTransaction polls the ledger until the transaction leaves NOT_FOUND or
// ctx expires. The poll interval is an upper bound on freshness, not a
// completion guarantee; slow networks simply take more rounds.
func (s *Service) AwaitTransaction(ctx context.Context, hash string) (TransactionState, error) {
	ticker := time.NewTicker(confirmationPollInterval)
	defer ticker.Stop()

	for {
		state, err := s.ledger.GetTransaction(ctx, hash)
		if err != nil {
			return TransactionNotFound, fmt.Errorf("failed to poll transaction %s: %w", hash, err)
		}
		if state != TransactionNotFound {
			return state, nil
		}
		select {
		case <-ctx.Done():
			return TransactionNotFound, ctx.Err()
		case <-ticker.C:
		}
	}
}

// buildTransaction assembles a single-operation transaction at the next
// sequence number. A fresh source account is built per call so rebuilding
// after simulation reuses the same sequence.
func (s *Service) buildTransaction(seq int64, op txnbuild.Operation, baseFee int64) (*txnbuild.Transaction, error) {
	source := txnbuild.SimpleAccount{
		AccountID: s.cfg.Deployer.Address(),
		Sequence:  seq,
	}
	return txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &source,
		IncrementSequenceNum: true,
		Operations:           []txnbuild.Operation{op},
		BaseFee:              baseFee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(300),
		},
	})
}

// invokeAndSubmit drives the shared stage protocol for a host-function
// invocation:
//
//  1. build and sign a provisional transaction at the minimum fee (auth
//     entries must be pre-signed even for simulation)
//  2. simulate it
//  3. rebuild with the simulated transaction data and resource fee, re-sign
//  4. optionally wrap in a fee-bump envelope, then submit
//
// Errors carry the failing stage; nothing is retried here.
func (s *Service) invokeAndSubmit(ctx context.Context, op *txnbuild.InvokeHostFunction, feeBump bool) (string, error) {
	deployer := s.cfg.Deployer.Address()

	seq, err := s.ledger.AccountSequence(ctx, deployer)
	if err != nil {
		return "", &ErrAccountLoadFailed{Cause: err}
	}

	provisional, err := s.buildTransaction(seq, op, txnbuild.MinBaseFee)
	if err != nil {
		return "", &ErrSigningFailed{Cause: err}
	}
	signedProvisional, err := provisional.Sign(s.cfg.NetworkPassphrase, s.cfg.Deployer)
	if err != nil {
		return "", &ErrSigningFailed{Cause: err}
	}
	provisionalB64, err := signedProvisional.Base64()
	if err != nil {
		return "", &ErrSigningFailed{Cause: err}
	}

	sim, err := s.ledger.SimulateTransaction(ctx, provisionalB64)
	if err != nil {
		return "", &ErrSimulationFailed{Cause: err}
	}

	// Re-price: the placeholder fee is replaced by the simulated resource fee
	// and the simulated footprint is attached to the operation.
	op.Ext = xdr.TransactionExt{V: 1, SorobanData: &sim.TransactionData}
	op.Auth = sim.Auth

	repriced, err := s.buildTransaction(seq, op, txnbuild.MinBaseFee+sim.MinResourceFee)
	if err != nil {
		return "", &ErrSigningFailed{Cause: err}
	}
	signedReal, err := repriced.Sign(s.cfg.NetworkPassphrase, s.cfg.Deployer)
	if err != nil {
		return "", &ErrSigningFailed{Cause: err}
	}

	var envelopeB64 string
	if feeBump {
		// The wrapper pays the real cost while the inner transaction's
		// signature stays valid; fee account and inner signer are the same
		// submitter key here.
		bump, err := txnbuild.NewFeeBumpTransaction(txnbuild.FeeBumpTransactionParams{
			Inner:      signedReal,
			FeeAccount: deployer,
			BaseFee:    txnbuild.MinBaseFee + sim.MinResourceFee,
		})
		if err != nil {
			return "", &ErrSigningFailed{Cause: err}
		}
		signedBump, err := bump.Sign(s.cfg.NetworkPassphrase, s.cfg.Deployer)
		if err != nil {
			return "", &ErrSigningFailed{Cause: err}
		}
		envelopeB64, err = signedBump.Base64()
		if err != nil {
			return "", &ErrSigningFailed{Cause: err}
		}
	} else {
		envelopeB64, err = signedReal.Base64()
		if err != nil {
			return "", &ErrSigningFailed{Cause: err}
		}
	}

	res, err := s.ledger.SendTransaction(ctx, envelopeB64)
	if err != nil {
		return "", &ErrSubmissionFailed{Cause: err}
	}
	return res.Hash, nil
}
