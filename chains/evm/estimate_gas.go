package evm

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const (
	// baseFeeBufferPercent is applied to the latest base fee when building EIP-1559 fee caps.
	baseFeeBufferPercent = 130
	// legacyGasPricePercent is applied to the suggested legacy gas price.
	legacyGasPricePercent = 150
	// gasLimitPercent is applied to the gas estimate.
	gasLimitPercent = 110
)

// GasPriceData represents the gas price data for EIP-1559 transactions.
type GasPriceData struct {
	MaxFeePerGas         *big.Int // The maximum fee per gas.
	MaxPriorityFeePerGas *big.Int // The maximum priority fee per gas.
}

// estimateGasLimit estimates the gas required for a transaction and adds a safety margin.
//
// Parameters:
// - ctx: the context for managing the request.
// - client: the RPC backend.
// - from: the sending account.
// - req: the transaction to estimate.
//
// Returns:
// - uint64: the gas limit to use.
// - error: an error if the gas estimation fails.
func (e *evm) estimateGasLimit(ctx context.Context, client Backend, from common.Address, req *TransactionRequest) (uint64, error) {
	to := common.HexToAddress(req.To)
	estimated, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: req.value(),
		Data:  req.Data,
	})
	if err != nil {
		return 0, err
	}

	return estimated * gasLimitPercent / 100, nil
}

// getEIP1559GasPrice retrieves the gas price data for EIP-1559 transactions.
//
// Parameters:
// - ctx: the context for managing the request.
// - client: the RPC backend.
//
// Returns:
// - *GasPriceData: the gas price data for EIP-1559 transactions.
// - error: an error if there is an issue retrieving the latest header.
func (e *evm) getEIP1559GasPrice(ctx context.Context, client Backend) (*GasPriceData, error) {
	suggestedTip, err := client.SuggestGasTipCap(ctx)
	if err != nil {
		e.logger.WithField("chain", e.config.Name).WithError(err).Warn("Failed to get suggested gas tip")
		suggestedTip = big.NewInt(1)
	}

	if suggestedTip.Sign() == 0 {
		suggestedTip = big.NewInt(1)
	}

	header, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		e.logger.WithField("chain", e.config.Name).WithError(err).Warn("Failed to get header by number")
		return nil, errors.Wrap(err, "failed to get header by number")
	}

	baseFee := header.BaseFee
	if baseFee == nil {
		return nil, errors.New("base fee is nil")
	}

	maxFeePerGas := new(big.Int).Mul(baseFee, big.NewInt(baseFeeBufferPercent))
	maxFeePerGas.Div(maxFeePerGas, big.NewInt(100))
	maxFeePerGas.Add(maxFeePerGas, suggestedTip)

	return &GasPriceData{
		MaxFeePerGas:         maxFeePerGas,
		MaxPriorityFeePerGas: suggestedTip,
	}, nil
}

// getLegacyGasPrice returns the suggested gas price with a premium.
func (e *evm) getLegacyGasPrice(ctx context.Context, client Backend) (*big.Int, error) {
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get gas price")
	}

	gasPrice = new(big.Int).Mul(gasPrice, big.NewInt(legacyGasPricePercent))
	return gasPrice.Div(gasPrice, big.NewInt(100)), nil
}
