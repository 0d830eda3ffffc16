package evm

import (
	"context"
	"math/big"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// nativeDecimals is the precision of every EVM gas asset.
	nativeDecimals = 18
	// defaultNativeSymbol is used when the configuration does not name one.
	defaultNativeSymbol = "ETH"
)

// TokenMetadata fetches decimals and symbol of a token on this chain.
// Results are cached; symbol overrides from the configuration win over the contract.
//
// Parameters:
// - ctx: the context for managing the request.
// - token: the token, possibly the native sentinel.
//
// Returns:
// - *types.TokenMeta: the token metadata.
// - error: ErrWrongChain for tokens of other chains, or an RPC error.
func (e *evm) TokenMetadata(ctx context.Context, token types.TokenID) (*types.TokenMeta, error) {
	if token.Chain != e.config.Chain {
		return nil, errors.Wrapf(commonerrors.ErrWrongChain, "%s queried on %s", token, e.config.Chain)
	}

	e.metaMutex.RLock()
	cached, ok := e.meta[token]
	e.metaMutex.RUnlock()
	if ok {
		copied := *cached
		return &copied, nil
	}

	meta, err := e.fetchTokenMetadata(ctx, token)
	if err != nil {
		return nil, err
	}

	e.metaMutex.Lock()
	e.meta[token] = meta
	e.metaMutex.Unlock()

	copied := *meta
	return &copied, nil
}

func (e *evm) fetchTokenMetadata(ctx context.Context, token types.TokenID) (*types.TokenMeta, error) {
	if token.IsNative() {
		symbol := e.config.NativeSymbol
		if symbol == "" {
			symbol = defaultNativeSymbol
		}
		return &types.TokenMeta{Token: token, Decimals: nativeDecimals, Symbol: symbol}, nil
	}

	var decimals uint8
	if err := e.callERC20(ctx, token, "decimals", &decimals); err != nil {
		return nil, errors.Wrapf(err, "failed to fetch decimals of %s", token)
	}

	symbol, ok := e.config.TokenSymbols[token.Address]
	if !ok {
		if err := e.callERC20(ctx, token, "symbol", &symbol); err != nil {
			e.logger.WithFields(logrus.Fields{
				"chain": e.config.Name,
				"token": token.Address,
			}).WithError(err).Warn("Failed to fetch token symbol")
			symbol = ""
		}
	}

	return &types.TokenMeta{Token: token, Decimals: decimals, Symbol: symbol}, nil
}

// callERC20 calls a view method of the token contract and unpacks its single output.
func (e *evm) callERC20(ctx context.Context, token types.TokenID, method string, out interface{}) error {
	data, err := erc20ABI.Pack(method)
	if err != nil {
		return errors.Wrapf(err, "failed to pack %s call", method)
	}

	client, err := e.backend(ctx)
	if err != nil {
		return err
	}

	to := common.HexToAddress(token.Address)
	result, err := client.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return errors.Wrapf(err, "%s call failed", method)
	}

	values, err := erc20ABI.Unpack(method, result)
	if err != nil {
		return errors.Wrapf(err, "failed to unpack %s result", method)
	}
	if len(values) != 1 {
		return errors.Errorf("unexpected %s result length %d", method, len(values))
	}

	switch dst := out.(type) {
	case *uint8:
		v, ok := values[0].(uint8)
		if !ok {
			return errors.Errorf("unexpected %s result type %T", method, values[0])
		}
		*dst = v
	case *string:
		v, ok := values[0].(string)
		if !ok {
			return errors.Errorf("unexpected %s result type %T", method, values[0])
		}
		*dst = v
	default:
		return errors.Errorf("unsupported output type %T", out)
	}
	return nil
}

// TransactionStatus reports the finality of a transaction. A successful
// transaction is final once WaitNBlocks blocks were mined on top of it.
//
// Parameters:
// - ctx: the context for managing the request.
// - hash: the transaction hash.
//
// Returns:
// - types.TxStatus: the observed status.
// - error: an error if the RPC calls fail.
func (e *evm) TransactionStatus(ctx context.Context, hash string) (types.TxStatus, error) {
	client, err := e.backend(ctx)
	if err != nil {
		return types.TxStatusNotFound, err
	}

	txHash := common.HexToHash(hash)
	receipt, err := client.TransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return e.pendingStatus(ctx, client, txHash)
	}
	if err != nil {
		return types.TxStatusNotFound, errors.Wrap(err, "failed to get transaction receipt")
	}

	if receipt.Status == ethtypes.ReceiptStatusFailed {
		return types.TxStatusFailed, nil
	}

	blockNumber, err := client.BlockNumber(ctx)
	if err != nil {
		return types.TxStatusNotFound, errors.Wrap(err, "failed to get current block number")
	}

	if receipt.BlockNumber == nil {
		return types.TxStatusPending, nil
	}

	finalAt := new(big.Int).Add(receipt.BlockNumber, new(big.Int).SetUint64(e.config.WaitNBlocks))
	if new(big.Int).SetUint64(blockNumber).Cmp(finalAt) < 0 {
		return types.TxStatusPending, nil
	}

	return types.TxStatusFinalized, nil
}

// pendingStatus distinguishes a mempool transaction from an unknown one.
func (e *evm) pendingStatus(ctx context.Context, client Backend, txHash common.Hash) (types.TxStatus, error) {
	_, _, err := client.TransactionByHash(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) {
		return types.TxStatusNotFound, nil
	}
	if err != nil {
		return types.TxStatusNotFound, errors.Wrap(err, "failed to get transaction")
	}
	// Either in the mempool or mined with the receipt not indexed yet.
	return types.TxStatusPending, nil
}
