package wallet

import (
	"context"
	"fmt"

	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"

	"github.com/kokukuma/passkey-wallet/lumens"
)

// Transfer moves funds from the deployer account into the wallet contract by
// invoking the native asset contract's transfer entry point. The four-stage
// protocol (build provisional, simulate, re-price and re-sign, fee-bump and
// submit) lives in invokeAndSubmit; failures come back labeled with the stage
// that broke and are never retried here.
func (s *Service) Transfer(ctx context.Context, intent TransferIntent) (string, error) {
	stroops, err := lumens.ToStroops(intent.Amount)
	if err != nil {
		return "", err
	}

	op, err := s.transferOp(intent.ContractID, stroops)
	if err != nil {
		return "", &ErrSigningFailed{Cause: err}
	}

	return s.invokeAndSubmit(ctx, op, true)
}

// transferOp builds transfer(from=deployer, to=wallet contract, amount) on
// the network's native asset contract.
func (s *Service) transferOp(contractID string, stroops int64) (*txnbuild.InvokeHostFunction, error) {
	rawContract, err := strkey.Decode(strkey.VersionByteContract, contractID)
	if err != nil {
		return nil, fmt.Errorf("invalid contract address %q: %w", contractID, err)
	}
	var walletID xdr.ContractId
	copy(walletID[:], rawContract)

	deployerID, err := xdr.AddressToAccountId(s.cfg.Deployer.Address())
	if err != nil {
		return nil, fmt.Errorf("failed to parse deployer address: %w", err)
	}

	sacHash, err := xdr.MustNewNativeAsset().ContractID(s.cfg.NetworkPassphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to compute native asset contract id: %w", err)
	}
	sacID := xdr.ContractId(sacHash)

	from := xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeAccount, AccountId: &deployerID}
	to := xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeContract, ContractId: &walletID}
	amount := xdr.Int128Parts{Hi: 0, Lo: xdr.Uint64(stroops)}

	return &txnbuild.InvokeHostFunction{
		HostFunction: xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
			InvokeContract: &xdr.InvokeContractArgs{
				ContractAddress: xdr.ScAddress{
					Type:       xdr.ScAddressTypeScAddressTypeContract,
					ContractId: &sacID,
				},
				FunctionName: "transfer",
				Args: xdr.ScVec{
					{Type: xdr.ScValTypeScvAddress, Address: &from},
					{Type: xdr.ScValTypeScvAddress, Address: &to},
					{Type: xdr.ScValTypeScvI128, I128: &amount},
				},
			},
		},
		SourceAccount: s.cfg.Deployer.Address(),
	}, nil
}
