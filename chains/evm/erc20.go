package evm

import (
	"math/big"
	"strings"

	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ERC20ABI is the subset of the ERC-20 interface the adapter calls.
const ERC20ABI = `[
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

var erc20ABI = mustParseABI(ERC20ABI)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(err)
	}
	return parsed
}

// ApproveRequest builds an ERC-20 approve call for the spender.
//
// Parameters:
// - token: the ERC-20 token.
// - spender: the address allowed to spend.
// - amount: the allowance in base units.
//
// Returns:
// - *TransactionRequest: the contract call.
// - error: an error if the token is native or the call cannot be encoded.
func ApproveRequest(token types.TokenID, spender string, amount *big.Int) (*TransactionRequest, error) {
	return erc20Call(token, "approve", common.HexToAddress(spender), amount)
}

// TransferRequest builds a transfer of the token to the recipient. Native
// transfers carry the amount as value.
//
// Parameters:
// - token: the token to send.
// - recipient: the receiving address.
// - amount: the amount in base units.
//
// Returns:
// - *TransactionRequest: the transfer.
// - error: an error if the call cannot be encoded.
func TransferRequest(token types.TokenID, recipient string, amount *big.Int) (*TransactionRequest, error) {
	if token.IsNative() {
		return &TransactionRequest{To: recipient, Value: new(big.Int).Set(amount)}, nil
	}
	return erc20Call(token, "transfer", common.HexToAddress(recipient), amount)
}

func erc20Call(token types.TokenID, method string, args ...interface{}) (*TransactionRequest, error) {
	if token.IsNative() {
		return nil, errors.Errorf("%s is not an ERC-20 token", token)
	}

	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack %s data", method)
	}

	return &TransactionRequest{To: token.Address, Data: data}, nil
}
