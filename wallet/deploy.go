package wallet

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"

	"github.com/kokukuma/passkey-wallet/contractid"
)

// deployTimeout caps the whole deployment round trip. It is an upper bound,
// not a delivery guarantee.
const deployTimeout = 60 * time.Second

// Deploy creates the smart-wallet contract bound to the signer's credential.
// The contract lands on the address contractid.Derive computes for the same
// credential id, deployer and network, because both use the same fromAddress
// preimage and salt.
//
// Any failure is wrapped as ErrDeploymentFailed; the caller retries the whole
// registration ceremony or not at all, since a fresh ceremony mints a fresh
// credential and therefore a fresh address. Concurrent deploys for one
// credential id race on the same address; nothing here locks that out.
func (s *Service) Deploy(ctx context.Context, signer Signer) (string, error) {
	if signer.PublicKey == nil || len(signer.PublicKey.Bytes) == 0 {
		return "", &ErrDeploymentFailed{Cause: errors.New("signer has no public key")}
	}
	if signer.PublicKey.Degraded {
		return "", &ErrDeploymentFailed{
			Cause: errors.New("RS256 credential key cannot sign for the wallet contract"),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, deployTimeout)
	defer cancel()

	op, err := s.createWalletOp(signer)
	if err != nil {
		return "", &ErrDeploymentFailed{Cause: err}
	}

	hash, err := s.invokeAndSubmit(ctx, op, false)
	if err != nil {
		return "", &ErrDeploymentFailed{Cause: err}
	}
	return hash, nil
}

// createWalletOp builds the create-contract host function: wallet wasm,
// fromAddress preimage keyed by the credential salt, and the credential id
// and public key as constructor arguments so the contract is born with its
// signer bound under persistent storage.
func (s *Service) createWalletOp(signer Signer) (*txnbuild.InvokeHostFunction, error) {
	rawID, err := base64.StdEncoding.DecodeString(signer.CredentialID)
	if err != nil {
		return nil, fmt.Errorf("credential id is not standard base64: %w", err)
	}

	deployerID, err := xdr.AddressToAccountId(s.cfg.Deployer.Address())
	if err != nil {
		return nil, fmt.Errorf("failed to parse deployer address: %w", err)
	}

	salt := contractid.Salt(signer.CredentialID)
	wasmHash := s.cfg.WalletWasmHash
	idBytes := xdr.ScBytes(rawID)
	pkBytes := xdr.ScBytes(signer.PublicKey.Bytes)

	return &txnbuild.InvokeHostFunction{
		HostFunction: xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeCreateContractV2,
			CreateContractV2: &xdr.CreateContractArgsV2{
				ContractIdPreimage: xdr.ContractIdPreimage{
					Type: xdr.ContractIdPreimageTypeContractIdPreimageFromAddress,
					FromAddress: &xdr.ContractIdPreimageFromAddress{
						Address: xdr.ScAddress{
							Type:      xdr.ScAddressTypeScAddressTypeAccount,
							AccountId: &deployerID,
						},
						Salt: xdr.Uint256(salt),
					},
				},
				Executable: xdr.ContractExecutable{
					Type:     xdr.ContractExecutableTypeContractExecutableWasm,
					WasmHash: &wasmHash,
				},
				ConstructorArgs: []xdr.ScVal{
					{Type: xdr.ScValTypeScvBytes, Bytes: &idBytes},
					{Type: xdr.ScValTypeScvBytes, Bytes: &pkBytes},
				},
			},
		},
		SourceAccount: s.cfg.Deployer.Address(),
	}, nil
}
