// Package contractid derives the deterministic smart-wallet contract address
// for a credential. The address is content-addressed: the ledger computes the
// same hash chain independently at deployment time, so the field ordering and
// XDR serialization here must match the ledger exactly.
package contractid

import (
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"

	"github.com/kokukuma/passkey-wallet/pkg/hash"
)

// Derive computes the contract address for a credential id under a fixed
// deployer account and network passphrase. It is pure and deployment
// independent: the address exists before the contract does, and whether the
// contract is live must be checked against the ledger separately.
//
// The recipe, in order:
//
//	salt         = SHA-256(credentialID)
//	networkID    = SHA-256(networkPassphrase)
//	preimage     = HashIDPreimage{ENVELOPE_TYPE_CONTRACT_ID, networkID,
//	               ContractIDPreimage::fromAddress{deployer, salt}}
//	contractHash = SHA-256(XDR(preimage))
//	address      = strkey(contractHash)  // "C..."
func Derive(credentialID, deployerAddress, networkPassphrase string) (string, error) {
	salt := hash.Sum256([]byte(credentialID))
	networkID := hash.Sum256([]byte(networkPassphrase))

	accountID, err := xdr.AddressToAccountId(deployerAddress)
	if err != nil {
		return "", &ErrDerivation{Cause: err}
	}

	preimage := xdr.HashIdPreimage{
		Type: xdr.EnvelopeTypeEnvelopeTypeContractId,
		ContractId: &xdr.HashIdPreimageContractId{
			NetworkId: xdr.Hash(networkID),
			ContractIdPreimage: xdr.ContractIdPreimage{
				Type: xdr.ContractIdPreimageTypeContractIdPreimageFromAddress,
				FromAddress: &xdr.ContractIdPreimageFromAddress{
					Address: xdr.ScAddress{
						Type:      xdr.ScAddressTypeScAddressTypeAccount,
						AccountId: &accountID,
					},
					Salt: xdr.Uint256(salt),
				},
			},
		},
	}

	raw, err := preimage.MarshalBinary()
	if err != nil {
		return "", &ErrDerivation{Cause: err}
	}

	contractHash := hash.Sum256(raw)
	addr, err := strkey.Encode(strkey.VersionByteContract, contractHash[:])
	if err != nil {
		return "", &ErrDerivation{Cause: err}
	}
	return addr, nil
}

// Salt returns the derivation salt for a credential id, which deployment must
// reuse so the created contract lands on the derived address.
func Salt(credentialID string) [32]byte {
	return hash.Sum256([]byte(credentialID))
}

// ErrDerivation reports a derivation failure. For well-formed inputs this
// cannot happen; seeing one means the deployer address or preimage
// construction is wrong in code, not in data.
type ErrDerivation struct {
	Cause error
}

func (e *ErrDerivation) Error() string {
	return "contract id derivation failed: " + e.Cause.Error()
}

func (e *ErrDerivation) Unwrap() error {
	return e.Cause
}
