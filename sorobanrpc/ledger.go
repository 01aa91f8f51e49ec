package sorobanrpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"

	"github.com/kokukuma/passkey-wallet/wallet"
)

var _ wallet.Ledger = (*Client)(nil)

type simulateResult struct {
	TransactionData string `mapstructure:"transactionData"`
	MinResourceFee  string `mapstructure:"minResourceFee"`
	Error           string `mapstructure:"error"`
	Results         []struct {
		Auth []string `mapstructure:"auth"`
		XDR  string   `mapstructure:"xdr"`
	} `mapstructure:"results"`
}

// SimulateTransaction runs the simulateTransaction RPC. A simulation error or
// a response without transaction data is reported as an error; the wallet
// treats either as fatal for the attempted operation.
func (c *Client) SimulateTransaction(ctx context.Context, txBase64 string) (*wallet.Simulation, error) {
	var res simulateResult
	params := map[string]interface{}{"transaction": txBase64}
	if err := c.call(ctx, "simulateTransaction", params, &res); err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, fmt.Errorf("simulation rejected: %s", res.Error)
	}
	if res.TransactionData == "" {
		return nil, errors.New("simulation response has no transaction data")
	}

	sim := wallet.Simulation{}
	if err := xdr.SafeUnmarshalBase64(res.TransactionData, &sim.TransactionData); err != nil {
		return nil, fmt.Errorf("failed to decode simulated transaction data: %w", err)
	}
	fee, err := parseInt64(res.MinResourceFee, "resource fee")
	if err != nil {
		return nil, err
	}
	sim.MinResourceFee = fee

	for _, r := range res.Results {
		for _, a := range r.Auth {
			var entry xdr.SorobanAuthorizationEntry
			if err := xdr.SafeUnmarshalBase64(a, &entry); err != nil {
				return nil, fmt.Errorf("failed to decode simulated auth entry: %w", err)
			}
			sim.Auth = append(sim.Auth, entry)
		}
	}
	return &sim, nil
}

type sendResult struct {
	Status         string `mapstructure:"status"`
	Hash           string `mapstructure:"hash"`
	ErrorResultXDR string `mapstructure:"errorResultXdr"`
}

func (c *Client) SendTransaction(ctx context.Context, txBase64 string) (*wallet.SendResult, error) {
	var res sendResult
	params := map[string]interface{}{"transaction": txBase64}
	if err := c.call(ctx, "sendTransaction", params, &res); err != nil {
		return nil, err
	}
	if res.Status == "ERROR" {
		return nil, fmt.Errorf("transaction rejected: %s", res.ErrorResultXDR)
	}
	return &wallet.SendResult{Hash: res.Hash, Status: res.Status}, nil
}

type getTransactionResult struct {
	Status string `mapstructure:"status"`
}

func (c *Client) GetTransaction(ctx context.Context, hash string) (wallet.TransactionState, error) {
	var res getTransactionResult
	params := map[string]interface{}{"hash": hash}
	if err := c.call(ctx, "getTransaction", params, &res); err != nil {
		return wallet.TransactionNotFound, err
	}
	switch state := wallet.TransactionState(res.Status); state {
	case wallet.TransactionNotFound, wallet.TransactionSuccess, wallet.TransactionFailed:
		return state, nil
	default:
		return wallet.TransactionNotFound, fmt.Errorf("unknown transaction status %q", res.Status)
	}
}

type ledgerEntriesResult struct {
	Entries []struct {
		Key string `mapstructure:"key"`
		XDR string `mapstructure:"xdr"`
	} `mapstructure:"entries"`
}

func (c *Client) getLedgerEntry(ctx context.Context, key xdr.LedgerKey) (*xdr.LedgerEntryData, error) {
	keyB64, err := xdr.MarshalBase64(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ledger key: %w", err)
	}

	var res ledgerEntriesResult
	params := map[string]interface{}{"keys": []string{keyB64}}
	if err := c.call(ctx, "getLedgerEntries", params, &res); err != nil {
		return nil, err
	}
	if len(res.Entries) == 0 {
		return nil, nil
	}

	var data xdr.LedgerEntryData
	if err := xdr.SafeUnmarshalBase64(res.Entries[0].XDR, &data); err != nil {
		return nil, fmt.Errorf("failed to decode ledger entry: %w", err)
	}
	return &data, nil
}

// AccountSequence loads the account ledger entry and returns its sequence
// number.
func (c *Client) AccountSequence(ctx context.Context, accountID string) (int64, error) {
	aid, err := xdr.AddressToAccountId(accountID)
	if err != nil {
		return 0, fmt.Errorf("invalid account address %q: %w", accountID, err)
	}

	data, err := c.getLedgerEntry(ctx, xdr.LedgerKey{
		Type:    xdr.LedgerEntryTypeAccount,
		Account: &xdr.LedgerKeyAccount{AccountId: aid},
	})
	if err != nil {
		return 0, err
	}
	if data == nil || data.Account == nil {
		return 0, fmt.Errorf("account %s not found", accountID)
	}
	return int64(data.Account.SeqNum), nil
}

// ContractInstanceExists checks for the contract's instance ledger entry.
func (c *Client) ContractInstanceExists(ctx context.Context, contractID string) (bool, error) {
	addr, err := contractScAddress(contractID)
	if err != nil {
		return false, err
	}

	data, err := c.getLedgerEntry(ctx, xdr.LedgerKey{
		Type: xdr.LedgerEntryTypeContractData,
		ContractData: &xdr.LedgerKeyContractData{
			Contract:   addr,
			Key:        xdr.ScVal{Type: xdr.ScValTypeScvLedgerKeyContractInstance},
			Durability: xdr.ContractDataDurabilityPersistent,
		},
	})
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

// NativeBalance reads the native asset contract's Balance(contract) entry.
// No entry means the wallet has never been funded; that is a zero balance,
// not an error.
func (c *Client) NativeBalance(ctx context.Context, contractID string) (*big.Int, error) {
	holder, err := contractScAddress(contractID)
	if err != nil {
		return nil, err
	}

	sacHash, err := xdr.MustNewNativeAsset().ContractID(c.networkPassphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to compute native asset contract id: %w", err)
	}
	sacID := xdr.ContractId(sacHash)

	sym := xdr.ScSymbol("Balance")
	vec := &xdr.ScVec{
		{Type: xdr.ScValTypeScvSymbol, Sym: &sym},
		{Type: xdr.ScValTypeScvAddress, Address: &holder},
	}

	data, err := c.getLedgerEntry(ctx, xdr.LedgerKey{
		Type: xdr.LedgerEntryTypeContractData,
		ContractData: &xdr.LedgerKeyContractData{
			Contract: xdr.ScAddress{
				Type:       xdr.ScAddressTypeScAddressTypeContract,
				ContractId: &sacID,
			},
			Key:        xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &vec},
			Durability: xdr.ContractDataDurabilityPersistent,
		},
	})
	if err != nil {
		return nil, err
	}
	if data == nil || data.ContractData == nil {
		return big.NewInt(0), nil
	}
	return balanceAmount(data.ContractData.Val)
}

// balanceAmount digs the i128 amount out of the token balance map.
func balanceAmount(val xdr.ScVal) (*big.Int, error) {
	if val.Type != xdr.ScValTypeScvMap || val.Map == nil || *val.Map == nil {
		return nil, errors.New("balance entry is not a map")
	}
	for _, entry := range **val.Map {
		if entry.Key.Type != xdr.ScValTypeScvSymbol || entry.Key.Sym == nil {
			continue
		}
		if string(*entry.Key.Sym) != "amount" {
			continue
		}
		if entry.Val.Type != xdr.ScValTypeScvI128 || entry.Val.I128 == nil {
			return nil, errors.New("balance amount is not an i128")
		}
		parts := entry.Val.I128
		amount := new(big.Int).SetInt64(int64(parts.Hi))
		amount.Lsh(amount, 64)
		amount.Add(amount, new(big.Int).SetUint64(uint64(parts.Lo)))
		return amount, nil
	}
	return nil, errors.New("balance entry has no amount field")
}

func contractScAddress(contractID string) (xdr.ScAddress, error) {
	raw, err := strkey.Decode(strkey.VersionByteContract, contractID)
	if err != nil {
		return xdr.ScAddress{}, fmt.Errorf("invalid contract address %q: %w", contractID, err)
	}
	var cid xdr.ContractId
	copy(cid[:], raw)
	return xdr.ScAddress{
		Type:       xdr.ScAddressTypeScAddressTypeContract,
		ContractId: &cid,
	}, nil
}
