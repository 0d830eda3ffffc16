package evm

import (
	"context"
	"math/big"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// TransactionRequest is the EVM payload of a types.UnsignedTransaction.
//
// Fields:
// - To: the called contract or the recipient.
// - Value: native value to attach, nil for none.
// - Data: the call data.
type TransactionRequest struct {
	To    string
	Value *big.Int
	Data  []byte
}

func (r *TransactionRequest) value() *big.Int {
	if r.Value == nil {
		return big.NewInt(0)
	}
	return r.Value
}

// chainSigner signs and submits TransactionRequest payloads with the configured key.
type chainSigner struct {
	chain *evm
}

// Chain implements types.Signer.
func (s *chainSigner) Chain() types.Chain { return s.chain.config.Chain }

// Address implements types.Signer.
func (s *chainSigner) Address() string {
	s.chain.signerMutex.RLock()
	defer s.chain.signerMutex.RUnlock()
	return s.chain.signer.Address().Hex()
}

// SignAndSend signs the transaction payload and submits it to the chain.
//
// Parameters:
// - ctx: the context for managing the request.
// - tx: the unsigned transaction carrying a *TransactionRequest payload.
//
// Returns:
// - string: the transaction hash.
// - error: ErrWrongChain, ErrUnsupportedPayload, or a preparation or RPC error.
func (s *chainSigner) SignAndSend(ctx context.Context, tx types.UnsignedTransaction) (string, error) {
	e := s.chain
	if tx.Chain != e.config.Chain {
		return "", errors.Wrapf(commonerrors.ErrWrongChain, "%s transaction sent to %s", tx.Chain, e.config.Chain)
	}

	var req *TransactionRequest
	switch payload := tx.Payload.(type) {
	case *TransactionRequest:
		req = payload
	case TransactionRequest:
		req = &payload
	default:
		return "", errors.Wrapf(commonerrors.ErrUnsupportedPayload, "%T on %s", tx.Payload, e.config.Chain)
	}
	if req == nil || !common.IsHexAddress(req.To) {
		return "", errors.Wrapf(commonerrors.ErrUnsupportedPayload, "invalid recipient on %s", e.config.Chain)
	}

	client, err := e.backend(ctx)
	if err != nil {
		return "", err
	}

	e.signerMutex.RLock()
	signer := e.signer
	e.signerMutex.RUnlock()
	if signer == nil {
		return "", errors.New("signer not initialized")
	}

	nonce, err := client.PendingNonceAt(ctx, signer.Address())
	if err != nil {
		return "", errors.Wrap(err, "failed to get nonce")
	}

	prepared, err := e.prepareTransaction(ctx, client, signer.Address(), nonce, req)
	if err != nil {
		return "", err
	}

	signedTx, err := signer.SignTx(prepared, new(big.Int).SetUint64(e.config.ChainID))
	if err != nil {
		e.logger.WithField("chain", e.config.Name).WithError(err).Error("Failed to sign transaction")
		return "", errors.Wrap(err, "failed to sign transaction")
	}

	if err := client.SendTransaction(ctx, signedTx); err != nil {
		e.logger.WithField("chain", e.config.Name).WithError(err).Error("Failed to send transaction")
		return "", errors.Wrap(err, "failed to send transaction")
	}

	e.logger.WithFields(logrus.Fields{
		"chain":       e.config.Name,
		"hash":        signedTx.Hash().Hex(),
		"nonce":       nonce,
		"description": tx.Description,
	}).Info("Transaction sent")

	return signedTx.Hash().Hex(), nil
}

// prepareTransaction builds an EIP-1559 or legacy transaction depending on the chain configuration.
//
// Parameters:
// - ctx: the context for managing the request.
// - client: the RPC backend.
// - from: the sending account.
// - nonce: the nonce for the transaction.
// - req: the call to send.
//
// Returns:
// - *ethtypes.Transaction: the unsigned transaction.
// - error: an error if gas estimation or pricing fails.
func (e *evm) prepareTransaction(ctx context.Context, client Backend, from common.Address, nonce uint64, req *TransactionRequest) (*ethtypes.Transaction, error) {
	gasLimit, err := e.estimateGasLimit(ctx, client, from, req)
	if err != nil {
		e.logger.WithField("chain", e.config.Name).WithError(err).Warn("Failed to estimate gas")
		return nil, errors.Wrap(err, "failed to estimate gas")
	}

	to := common.HexToAddress(req.To)

	if e.config.TxType == TxTypeEIP1559 {
		gasPriceData, err := e.getEIP1559GasPrice(ctx, client)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get EIP-1559 gas price")
		}

		return ethtypes.NewTx(&ethtypes.DynamicFeeTx{
			ChainID:   new(big.Int).SetUint64(e.config.ChainID),
			Nonce:     nonce,
			GasFeeCap: gasPriceData.MaxFeePerGas,
			GasTipCap: gasPriceData.MaxPriorityFeePerGas,
			Gas:       gasLimit,
			To:        &to,
			Value:     req.value(),
			Data:      req.Data,
		}), nil
	}

	gasPrice, err := e.getLegacyGasPrice(ctx, client)
	if err != nil {
		return nil, err
	}

	return ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    req.value(),
		Data:     req.Data,
	}), nil
}
