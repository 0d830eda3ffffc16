package routes

import (
	"context"
	"time"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/common/types"
	"github.com/pkg/errors"
)

// CheckSupported reports whether the request's source token is a source token of c
// and its destination token is reachable through c.
func CheckSupported(ctx context.Context, c Constructor, request *TransferRequest) (bool, error) {
	sources, err := c.SupportedSourceTokens(ctx, request.FromChain())
	if err != nil {
		return false, errors.Wrap(err, "failed to get supported source tokens")
	}
	if !containsToken(sources, request.Source().Token) {
		return false, nil
	}

	destinations, err := c.SupportedDestinationTokens(ctx, request.Source().Token, request.FromChain(), request.ToChain())
	if err != nil {
		return false, errors.Wrap(err, "failed to get supported destination tokens")
	}
	return containsToken(destinations, request.Destination().Token), nil
}

// SubmitAll signs and sends txs in order with signer. If a transaction fails
// after others were accepted, the returned *errors.SubmissionError lists the
// accepted ones so the caller can decide between retrying the rest and abandoning.
//
// Parameters:
// - ctx: the context for managing the request.
// - signer: the signer of the chain the transactions target.
// - txs: the unsigned transactions, in submission order.
//
// Returns:
// - []types.TransactionID: the submitted transactions.
// - error: *errors.SubmissionError on failure.
func SubmitAll(ctx context.Context, signer types.Signer, txs []types.UnsignedTransaction) ([]types.TransactionID, error) {
	submitted := make([]types.TransactionID, 0, len(txs))
	for i, tx := range txs {
		if tx.Chain != signer.Chain() {
			return nil, &commonerrors.SubmissionError{
				Chain:     tx.Chain,
				Step:      i,
				Submitted: submitted,
				Cause:     errors.Wrapf(commonerrors.ErrWrongChain, "signer is for %s", signer.Chain()),
			}
		}

		hash, err := signer.SignAndSend(ctx, tx)
		if err != nil {
			return nil, &commonerrors.SubmissionError{
				Chain:     tx.Chain,
				Step:      i,
				Submitted: submitted,
				Cause:     errors.Wrapf(err, "failed to submit %q", tx.Description),
			}
		}
		submitted = append(submitted, types.TransactionID{Chain: tx.Chain, Hash: hash})
	}
	return submitted, nil
}

// BuildError reports a failure to build the transactions of an initiate or
// complete step on chain. Nothing was submitted when it is returned.
func BuildError(chain types.Chain, err error) error {
	return &commonerrors.SubmissionError{Chain: chain, Cause: err}
}

// NewReceipt builds the first receipt of a transfer after its source transactions were submitted.
func NewReceipt(route Route, origin []types.TransactionID) *types.Receipt {
	req := route.Request()
	return &types.Receipt{
		ID:        req.ID(),
		Route:     route.Meta().Name,
		From:      req.FromChain().Chain(),
		To:        req.ToChain().Chain(),
		State:     types.SourceInitiated,
		OriginTxs: append([]types.TransactionID(nil), origin...),
		UpdatedAt: time.Now().UTC(),
	}
}

// AdvanceSource performs the source side of a poll:
// SourceInitiated becomes SourceFinalized once every origin transaction is final,
// SourceFinalized becomes Attested once the source chain's attestation provider
// returns an attestation for the last origin transaction. Receipts in any other
// state are returned unchanged.
//
// Parameters:
// - ctx: the context for managing the request.
// - from: the source chain.
// - receipt: the current receipt.
//
// Returns:
// - *types.Receipt: the receipt, advanced by at most one state.
// - error: an error wrapping ErrTransferFailed if an origin transaction failed,
//   or the query error.
func AdvanceSource(ctx context.Context, from types.ChainContext, receipt *types.Receipt) (*types.Receipt, error) {
	switch receipt.State {
	case types.SourceInitiated:
		final, err := AllFinalized(ctx, from, receipt.OriginTxs)
		if err != nil {
			return nil, err
		}
		if !final {
			return receipt, nil
		}
		return receipt.WithState(types.SourceFinalized), nil

	case types.SourceFinalized:
		tx, ok := receipt.LastOriginTx()
		if !ok {
			return nil, errors.Wrap(commonerrors.ErrTransferFailed, "receipt has no origin transaction")
		}
		att, err := from.FetchAttestation(ctx, tx)
		if errors.Is(err, commonerrors.ErrAttestationNotFound) {
			return receipt, nil
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch attestation for %s", tx)
		}
		return receipt.WithAttestation(att), nil
	}

	return receipt, nil
}

// AllFinalized reports whether every transaction in txs is final on chain.
// An empty list is never final. A reverted transaction is reported as an
// error wrapping ErrTransferFailed.
func AllFinalized(ctx context.Context, chain types.ChainQuery, txs []types.TransactionID) (bool, error) {
	if len(txs) == 0 {
		return false, nil
	}
	for _, tx := range txs {
		status, err := chain.TransactionStatus(ctx, tx.Hash)
		if err != nil {
			return false, errors.Wrapf(err, "failed to get status of %s", tx)
		}
		switch status {
		case types.TxStatusFailed:
			return false, errors.Wrapf(commonerrors.ErrTransferFailed, "transaction %s reverted", tx)
		case types.TxStatusFinalized:
			continue
		default:
			return false, nil
		}
	}
	return true, nil
}

// RequireState returns a *errors.PreconditionError if receipt is before state.
func RequireState(receipt *types.Receipt, state types.TransferState) error {
	if receipt == nil {
		return &commonerrors.PreconditionError{Required: state, Actual: types.Created}
	}
	if receipt.State < state || (state >= types.Attested && receipt.Attestation == nil) {
		return &commonerrors.PreconditionError{Required: state, Actual: receipt.State}
	}
	return nil
}

// RequireOwnReceipt returns ErrForeignReceipt unless receipt was produced by
// route for its transfer request.
func RequireOwnReceipt(route Route, receipt *types.Receipt) error {
	if receipt == nil {
		return RequireState(receipt, types.Created)
	}
	if receipt.ID != route.Request().ID() || receipt.Route != route.Meta().Name {
		return errors.Wrapf(commonerrors.ErrForeignReceipt, "receipt %s of route %q", receipt.ID, receipt.Route)
	}
	return nil
}
